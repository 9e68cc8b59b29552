package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/i358/discord-message-deleter/internal/constants"
	"github.com/i358/discord-message-deleter/internal/schedule"
	"github.com/i358/discord-message-deleter/internal/snowflake"
)

// Environment variables used when the config leaves the field empty.
const (
	EnvToken     = "DISCORD_TOKEN"
	EnvAuthorID  = "AUTHOR_ID"
	EnvChannelID = "CHANNEL_ID"
)

// Load загружает конфигурацию из TOML файла
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return finish(&cfg)
}

// LoadOptional загружает конфигурацию, если файл существует.
// Без файла используются значения по умолчанию и переменные окружения.
func LoadOptional(path string) (*Config, error) {
	if path != "" {
		cfg, err := Load(path)
		if err == nil || !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	applyDefaults(cfg)

	expandEnvVars(cfg)
	applyEnvFallbacks(cfg)

	return cfg, nil
}

// Validate проверяет валидность конфигурации.
// channel_id может быть пустым: его спрашивают интерактивно.
func (c *Config) Validate() []error {
	var errs []error

	// Discord
	if c.Discord.Token == "" {
		errs = append(errs, fmt.Errorf("discord.token is required (or set %s)", EnvToken))
	} else if err := validateDiscordToken(c.Discord.Token); err != nil {
		errs = append(errs, err)
	}
	if c.Discord.TimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("discord.timeout_seconds must be >= 1"))
	}
	if c.Discord.RequestRate() < 0 {
		errs = append(errs, fmt.Errorf("discord.requests_per_second must be >= 0"))
	}

	// Purge
	if c.Purge.AuthorID == "" {
		errs = append(errs, fmt.Errorf("purge.author_id is required (or set %s)", EnvAuthorID))
	} else if err := snowflake.Validate(c.Purge.AuthorID, "purge.author_id"); err != nil {
		errs = append(errs, err)
	}
	if c.Purge.ChannelID != "" {
		if err := snowflake.Validate(c.Purge.ChannelID, "purge.channel_id"); err != nil {
			errs = append(errs, err)
		}
	}
	minDelay := int(constants.MinDeleteDelay.Milliseconds())
	maxDelay := int(constants.MaxDeleteDelay.Milliseconds())
	if c.Purge.DeleteDelayMs < minDelay || c.Purge.DeleteDelayMs > maxDelay {
		errs = append(errs, fmt.Errorf("purge.delete_delay_ms must be between %d and %d (got %d)",
			minDelay, maxDelay, c.Purge.DeleteDelayMs))
	}
	if c.Purge.EmptyPageLimit < 1 {
		errs = append(errs, fmt.Errorf("purge.empty_page_limit must be >= 1"))
	}
	if c.Purge.ZeroMatchPromptEvery < 1 {
		errs = append(errs, fmt.Errorf("purge.zero_match_prompt_every must be >= 1"))
	}
	switch c.Purge.OnZeroMatch {
	case "ask", "continue", "stop":
	default:
		errs = append(errs, fmt.Errorf("invalid purge.on_zero_match: %s (expected: ask, continue, stop)", c.Purge.OnZeroMatch))
	}

	// Retry
	if c.Retry.InitialBackoffMs < 1 {
		errs = append(errs, fmt.Errorf("retry.initial_backoff_ms must be >= 1"))
	}
	if c.Retry.MaxBackoffMs < c.Retry.InitialBackoffMs {
		errs = append(errs, fmt.Errorf("retry.max_backoff_ms must be >= retry.initial_backoff_ms"))
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("retry.max_retries must be >= 0"))
	}

	// Logging
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
	}

	// Metrics
	if c.Metrics.Enabled {
		if c.Metrics.Addr == "" {
			errs = append(errs, fmt.Errorf("metrics.addr is required when metrics are enabled"))
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			errs = append(errs, fmt.Errorf("metrics.path must start with /"))
		}
	}

	// Schedule
	if c.Schedule.Enabled {
		if c.Schedule.Spec == "" {
			errs = append(errs, fmt.Errorf("schedule.spec is required when schedule is enabled"))
		} else if _, err := schedule.ParseSpec(c.Schedule.Spec); err != nil {
			errs = append(errs, fmt.Errorf("invalid schedule.spec: %w", err))
		}
		if c.Purge.ChannelID == "" {
			errs = append(errs, fmt.Errorf("purge.channel_id is required when schedule is enabled"))
		}
		if c.Purge.OnZeroMatch == "ask" {
			errs = append(errs, fmt.Errorf("purge.on_zero_match cannot be 'ask' when schedule is enabled"))
		}
	}

	// Telegram
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.Token == "" {
			errs = append(errs, fmt.Errorf("notify.telegram.token is required when telegram is enabled"))
		} else if err := validateTelegramToken(c.Notify.Telegram.Token); err != nil {
			errs = append(errs, err)
		}
		if c.Notify.Telegram.ChatID == 0 {
			errs = append(errs, fmt.Errorf("notify.telegram.chat_id is required when telegram is enabled"))
		}
	}

	// Report
	if c.Report.Path != "" {
		if err := validatePath(c.Report.Path, "report.path"); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// Helper validation functions
func validateDiscordToken(token string) error {
	if strings.ContainsAny(token, " \t\r\n") {
		return formatValidationError("discord.token", "must not contain whitespace", token)
	}
	if len(token) < 20 {
		return formatValidationError("discord.token", fmt.Sprintf("is too short (minimum 20 characters, got %d)", len(token)), token)
	}
	return nil
}

func validateTelegramToken(token string) error {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return fmt.Errorf("telegram token has invalid format (expected format: <bot_id>:<token>, got: %s)", maskTelegramToken(token))
	}

	botID := parts[0]
	botToken := parts[1]

	if len(botID) < 3 || len(botID) > 15 {
		return fmt.Errorf("telegram token has invalid bot ID length (expected 3-15 digits, got %d digits)", len(botID))
	}

	for _, r := range botID {
		if r < '0' || r > '9' {
			return fmt.Errorf("telegram token has invalid bot ID (expected digits only, got: %s)", botID)
		}
	}

	if len(botToken) < 10 || len(botToken) > 50 {
		return fmt.Errorf("telegram token has invalid token length (expected 10-50 characters, got %d)", len(botToken))
	}

	return nil
}

func validatePath(path, fieldName string) error {
	if strings.HasPrefix(path, "~") {
		return nil
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}

	return nil
}

// applyDefaults применяет значения по умолчанию
func applyDefaults(c *Config) {
	if c.Discord.BaseURL == "" {
		c.Discord.BaseURL = constants.DiscordAPIBaseURL
	}
	if c.Discord.TimeoutSeconds == 0 {
		c.Discord.TimeoutSeconds = int(constants.DefaultRequestTimeout.Seconds())
	}
	if c.Discord.RequestsPerSecond == nil {
		rps := constants.DefaultRequestsPerSecond
		c.Discord.RequestsPerSecond = &rps
	}
	if c.Discord.Burst == 0 {
		c.Discord.Burst = constants.DefaultRequestBurst
	}

	if c.Purge.DeleteDelayMs == 0 {
		c.Purge.DeleteDelayMs = int(constants.DefaultDeleteDelay.Milliseconds())
	}
	if c.Purge.EmptyPageLimit == 0 {
		c.Purge.EmptyPageLimit = constants.EmptyPageLimit
	}
	if c.Purge.EmptyPageDelayMs == 0 {
		c.Purge.EmptyPageDelayMs = int(constants.EmptyPageDelay.Milliseconds())
	}
	if c.Purge.ZeroMatchPromptEvery == 0 {
		c.Purge.ZeroMatchPromptEvery = constants.ZeroMatchPromptEvery
	}
	if c.Purge.OnZeroMatch == "" {
		c.Purge.OnZeroMatch = "ask"
	}

	if c.Retry.InitialBackoffMs == 0 {
		c.Retry.InitialBackoffMs = int(constants.InitialBackoff.Milliseconds())
	}
	if c.Retry.MaxBackoffMs == 0 {
		c.Retry.MaxBackoffMs = int(constants.MaxBackoff.Milliseconds())
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}

	if c.Metrics.Addr == "" {
		c.Metrics.Addr = "127.0.0.1:9464"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Report.Language == "" {
		c.Report.Language = "en"
	}
}

// expandEnvVars расширяет переменные окружения в конфигурации
func expandEnvVars(c *Config) {
	c.Discord.Token = expandEnv(c.Discord.Token)
	c.Purge.ChannelID = expandEnv(c.Purge.ChannelID)
	c.Purge.AuthorID = expandEnv(c.Purge.AuthorID)
	c.Notify.Telegram.Token = expandEnv(c.Notify.Telegram.Token)

	c.Logging.Output = expandHome(expandEnv(c.Logging.Output))
	c.Report.Path = expandHome(expandEnv(c.Report.Path))
}

// applyEnvFallbacks заполняет пустые поля из DISCORD_TOKEN, AUTHOR_ID, CHANNEL_ID
func applyEnvFallbacks(c *Config) {
	if c.Discord.Token == "" {
		c.Discord.Token = strings.TrimSpace(os.Getenv(EnvToken))
	}
	if c.Purge.AuthorID == "" {
		c.Purge.AuthorID = strings.TrimSpace(os.Getenv(EnvAuthorID))
	}
	if c.Purge.ChannelID == "" {
		c.Purge.ChannelID = strings.TrimSpace(os.Getenv(EnvChannelID))
	}
}

// expandEnv расширяет переменную окружения формата ${VAR:default}
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		key := parts[0]
		defaultVal := parts[1]
		if val := os.Getenv(key); val != "" {
			return val
		}
		return defaultVal
	}

	// Без значения по умолчанию
	return os.Getenv(content)
}

// expandHome расширяет ~ в пути
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
