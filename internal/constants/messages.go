package constants

// User-facing text printed by msgpurge.

// Run messages
const (
	// MsgBanner is printed once at startup.
	MsgBanner = "Discord Message Deleter\n----------------------"

	// MsgConfirm asks for the final go-ahead before deleting anything.
	MsgConfirm = "\nContinue? (y/N): "

	// MsgAborted is printed when the user declines to start.
	MsgAborted = "Operation aborted by user."

	// MsgStarting is printed when the pipeline starts.
	MsgStarting = "\n🚀 Starting message deletion process..."

	// MsgEnterChannel prompts for a channel ID.
	MsgEnterChannel = "Enter channel ID: "

	// MsgInvalidChannelFormat is printed when the entered channel ID is not a snowflake.
	MsgInvalidChannelFormat = "Invalid channel ID format. Please enter a valid Discord ID."

	// MsgChannelUnavailable is printed when the channel cannot be read with the token.
	MsgChannelUnavailable = "Channel not found or no access. Please try again."

	// MsgZeroMatchPrompt asks whether to keep scanning history without matches.
	MsgZeroMatchPrompt = "No messages from the author in the last %d batch(es). Keep scanning older history? (y/N): "
)

// Config messages
const (
	// MsgConfigLoadError is the error message when configuration loading fails.
	MsgConfigLoadError = "❌ Failed to load configuration: %v\n"

	// MsgConfigValidationError is the message when configuration validation fails.
	MsgConfigValidationError = "❌ Configuration validation failed:\n"

	// MsgConfigValid is the message when configuration is successfully loaded and validated.
	MsgConfigValid = "✅ Configuration is valid"

	// MsgConfigValidatePrefix is the prefix for configuration validation errors.
	MsgConfigValidatePrefix = "  - %v\n"
)
