package config

import (
	"encoding/base64"
	"strings"

	"github.com/i358/discord-message-deleter/internal/snowflake"
)

// maskSecret скрывает середину секрета, оставляя по 4 символа с краев
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) < 8 {
		return "***"
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}

// MaskToken маскирует Discord токен для вывода в консоль и логи.
//
// Токен имеет вид <user_id>.<timestamp>.<hmac>, где первая часть - base64
// от ID владельца. Она не секретна и остается видимой, остальное скрыто.
// Токены другого вида маскируются целиком через maskSecret.
func MaskToken(token string) string {
	if _, ok := TokenUserID(token); !ok {
		return maskSecret(token)
	}
	head, _, _ := strings.Cut(token, ".")
	return head + ".***.***"
}

// TokenUserID извлекает ID пользователя из первой части Discord токена
func TokenUserID(token string) (string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", false
	}

	head := strings.TrimRight(parts[0], "=")
	raw, err := base64.RawStdEncoding.DecodeString(head)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(head)
		if err != nil {
			return "", false
		}
	}

	id := string(raw)
	if !snowflake.Valid(id) {
		return "", false
	}
	return id, true
}

// maskTelegramToken оставляет bot_id видимым: <bot_id>:<token>
func maskTelegramToken(token string) string {
	botID, secret, ok := strings.Cut(token, ":")
	if !ok || strings.Contains(secret, ":") {
		return maskSecret(token)
	}
	return botID + ":" + maskSecret(secret)
}

// formatValidationError собирает ошибку валидации токена, значение в
// сообщении всегда замаскировано
func formatValidationError(field, message, token string) error {
	msg := field + ": " + message
	if masked := MaskToken(token); masked != "" {
		msg += " (value: " + masked + ")"
	}
	return &ValidationError{Field: field, Message: msg}
}

// ValidationError представляет ошибку валидации поля конфигурации
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
