// Package config provides configuration loading and validation for msgpurge.
// It supports TOML configuration files with environment variable expansion,
// default values, .env loading and validation.
//
// Configuration structure:
//   - [discord]: token, API base URL, request timeout and client-side rate
//   - [purge]: target channel and author, pacing and completion thresholds
//   - [retry]: backoff seed, cap and optional retry ceiling
//   - [logging]: logging level, format and output
//   - [metrics]: Prometheus endpoint
//   - [schedule]: cron-scheduled recurring runs
//   - [notify.telegram]: completion report to a Telegram chat
//   - [report]: YAML run report file
//
// Environment variables:
// Values can reference environment variables using ${VAR} or ${VAR:default}.
// For example: token = "${DISCORD_TOKEN}"
// DISCORD_TOKEN, AUTHOR_ID and CHANNEL_ID are used when the file leaves the
// corresponding fields empty.
package config

import (
	"time"

	"github.com/i358/discord-message-deleter/internal/constants"
)

// Config represents the main application configuration.
type Config struct {
	Discord  DiscordConfig  `toml:"discord"`
	Purge    PurgeConfig    `toml:"purge"`
	Retry    RetryConfig    `toml:"retry"`
	Logging  LoggingConfig  `toml:"logging"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Schedule ScheduleConfig `toml:"schedule"`
	Notify   NotifyConfig   `toml:"notify"`
	Report   ReportConfig   `toml:"report"`
}

// DiscordConfig представляет конфигурацию доступа к Discord API
type DiscordConfig struct {
	Token          string `toml:"token"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// RequestsPerSecond: не задано - значение по умолчанию, 0 отключает лимитер
	RequestsPerSecond *float64 `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
}

// RequestRate возвращает лимит запросов в секунду, 0 означает без лимита
func (c DiscordConfig) RequestRate() float64 {
	if c.RequestsPerSecond == nil {
		return constants.DefaultRequestsPerSecond
	}
	return *c.RequestsPerSecond
}

// Timeout возвращает таймаут одного HTTP запроса
func (c DiscordConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PurgeConfig представляет параметры удаления
type PurgeConfig struct {
	ChannelID            string `toml:"channel_id"`
	AuthorID             string `toml:"author_id"`
	DeleteDelayMs        int    `toml:"delete_delay_ms"`
	EmptyPageLimit       int    `toml:"empty_page_limit"`
	EmptyPageDelayMs     int    `toml:"empty_page_delay_ms"`
	ZeroMatchPromptEvery int    `toml:"zero_match_prompt_every"`
	// OnZeroMatch: ask, continue, stop
	OnZeroMatch string `toml:"on_zero_match"`
}

// DeleteDelay возвращает паузу между удалениями
func (c PurgeConfig) DeleteDelay() time.Duration {
	return time.Duration(c.DeleteDelayMs) * time.Millisecond
}

// EmptyPageDelay возвращает паузу между пустыми страницами
func (c PurgeConfig) EmptyPageDelay() time.Duration {
	return time.Duration(c.EmptyPageDelayMs) * time.Millisecond
}

// RetryConfig представляет конфигурацию повторов
type RetryConfig struct {
	InitialBackoffMs int `toml:"initial_backoff_ms"`
	MaxBackoffMs     int `toml:"max_backoff_ms"`
	MaxRetries       int `toml:"max_retries"` // 0 - без ограничения
}

// InitialBackoff возвращает начальную задержку
func (c RetryConfig) InitialBackoff() time.Duration {
	return time.Duration(c.InitialBackoffMs) * time.Millisecond
}

// MaxBackoff возвращает максимальную задержку
func (c RetryConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffMs) * time.Millisecond
}

// LoggingConfig представляет конфигурацию логирования
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// MetricsConfig представляет конфигурацию Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
	Path    string `toml:"path"`
}

// ScheduleConfig представляет конфигурацию периодического запуска
type ScheduleConfig struct {
	Enabled    bool   `toml:"enabled"`
	Spec       string `toml:"spec"` // cron expression or @every/@daily descriptor
	RunOnStart bool   `toml:"run_on_start"`
}

// NotifyConfig представляет конфигурацию уведомлений
type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

// TelegramConfig представляет конфигурацию Telegram уведомления
type TelegramConfig struct {
	Enabled bool   `toml:"enabled"`
	Token   string `toml:"token"`
	ChatID  int64  `toml:"chat_id"`

	// APIServer переопределяет адрес Bot API (self-hosted сервер)
	APIServer string `toml:"api_server"`
}

// ReportConfig представляет конфигурацию файла отчёта
type ReportConfig struct {
	Path     string `toml:"path"`     // empty disables the YAML report
	Language string `toml:"language"` // number formatting of terminal output, BCP 47
}
