// Package version holds build metadata injected via -ldflags.
package version

import (
	"fmt"
	"runtime"

	"github.com/i358/discord-message-deleter/internal/constants"
)

var (
	Version   = constants.DefaultVersion
	BuildTime = constants.DefaultBuildTime
	GitCommit = constants.DefaultGitCommit
	GoVersion = constants.DefaultGoVersion
)

func SetInfo(v, bt, gc, gv string) {
	if v != "" {
		Version = v
	}
	if bt != "" {
		BuildTime = bt
	}
	if gc != "" {
		GitCommit = gc
	}
	if gv != "" {
		GoVersion = gv
	}
}

// UserAgent returns the User-Agent header value sent to the Discord API.
func UserAgent() string {
	return fmt.Sprintf("DiscordBot (https://github.com/i358/discord-message-deleter, %s)", Version)
}

// String formats the full build information for the version command.
func String() string {
	goVersion := GoVersion
	if goVersion == constants.DefaultGoVersion {
		goVersion = runtime.Version()
	}
	return fmt.Sprintf("Version: %s\nBuild Time: %s\nGit Commit: %s\nGo Version: %s",
		Version, BuildTime, GitCommit, goVersion)
}
