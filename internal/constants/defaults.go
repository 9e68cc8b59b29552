package constants

import "time"

// DefaultVersion is the default version of the application
const DefaultVersion = "0.1.0-dev"

// DefaultBuildTime is the default build time when not provided at build time
const DefaultBuildTime = "unknown"

// DefaultGitCommit is the default git commit hash when not provided at build time
const DefaultGitCommit = "unknown"

// DefaultGoVersion is the default Go version when not provided at build time
const DefaultGoVersion = "unknown"

// Discord API
const (
	// DiscordAPIBaseURL is the base URL of the Discord REST API v10.
	DiscordAPIBaseURL = "https://discord.com/api/v10"

	// MessagesPerRequest is the page size of a message listing call.
	MessagesPerRequest = 100

	// DefaultRequestTimeout bounds a single HTTP round trip.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultRequestsPerSecond keeps the client under the global API limit (50/s).
	DefaultRequestsPerSecond = 45.0

	// DefaultRequestBurst is the token bucket size of the client-side limiter.
	DefaultRequestBurst = 5
)

// Deletion pacing
const (
	// MinDeleteDelay is the lower bound of the pause between two deletions.
	MinDeleteDelay = 50 * time.Millisecond

	// MaxDeleteDelay is the upper bound of the pause between two deletions.
	MaxDeleteDelay = 5000 * time.Millisecond

	// DefaultDeleteDelay is used when no delay is configured.
	DefaultDeleteDelay = MinDeleteDelay
)

// Backoff
const (
	// InitialBackoff seeds the per-operation backoff.
	InitialBackoff = 1 * time.Second

	// MaxBackoff caps the per-operation backoff.
	MaxBackoff = 30 * time.Second
)

// Pipeline
const (
	// HandoffCapacity is the buffer size of the lister → deleter channel.
	HandoffCapacity = 100

	// EmptyPageLimit is the number of consecutive empty pages that ends a run.
	EmptyPageLimit = 3

	// EmptyPageDelay is the pause between two consecutive empty pages.
	EmptyPageDelay = 2 * time.Second

	// ZeroMatchPromptEvery is the number of consecutive batches without author
	// matches after which the user is asked again.
	ZeroMatchPromptEvery = 10

	// DrainPollInterval is the fallback tick of the drain barrier.
	DrainPollInterval = 500 * time.Millisecond
)
