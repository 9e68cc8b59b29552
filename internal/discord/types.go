package discord

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Message is the subset of a Discord message object the purge needs.
type Message struct {
	ID     string `json:"id"`
	Author Author `json:"author"`
}

// Author is the message author reference.
type Author struct {
	ID string `json:"id"`
}

// Channel is the subset of a Discord channel object returned by GET /channels/{id}.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type int    `json:"type"`
}

// User is the subset of the token owner returned by GET /users/@me.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// RateLimit is the body of a 429 response.
type RateLimit struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"` // seconds, fractional
	Global     bool    `json:"global"`
}

// Wait converts retry_after to a duration.
func (r RateLimit) Wait() time.Duration {
	if r.RetryAfter <= 0 {
		return 0
	}
	return time.Duration(r.RetryAfter * float64(time.Second))
}

// HTTPError is returned for non-success responses that the caller treats as final.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %s %s: status=%d, body=%s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Response is the raw result of an API call.
type Response struct {
	Method     string
	Path       string
	StatusCode int
	RetryAfter string // Retry-After header, seconds
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Text returns the body as trimmed text.
func (r *Response) Text() string {
	return strings.TrimSpace(string(r.Body))
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", r.Method, r.Path, err)
	}
	return nil
}

// AsError converts the response into an *HTTPError.
func (r *Response) AsError() *HTTPError {
	return &HTTPError{
		Method:     r.Method,
		Path:       r.Path,
		StatusCode: r.StatusCode,
		Body:       r.Text(),
	}
}

// Messages decodes a message listing page.
func (r *Response) Messages() ([]Message, error) {
	var messages []Message
	if err := r.DecodeJSON(&messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// RateLimit extracts the retry delay of a 429 response. The JSON body takes
// precedence over the Retry-After header; a body that cannot be parsed is not
// an error, the zero value lets the local backoff decide.
func (r *Response) RateLimit() RateLimit {
	var rl RateLimit
	if err := json.Unmarshal(r.Body, &rl); err == nil && rl.RetryAfter > 0 {
		return rl
	}
	if r.RetryAfter != "" {
		if seconds, err := strconv.ParseFloat(r.RetryAfter, 64); err == nil {
			rl.RetryAfter = seconds
		}
	}
	return rl
}

// ChannelTypeName describes a channel type for display.
func ChannelTypeName(t int) string {
	switch t {
	case 0:
		return "text channel"
	case 1:
		return "direct message"
	case 2:
		return "voice channel"
	case 3:
		return "group direct message"
	case 5:
		return "announcement channel"
	case 10, 11, 12:
		return "thread"
	case 13:
		return "stage channel"
	case 15:
		return "forum channel"
	case 16:
		return "media channel"
	default:
		return fmt.Sprintf("channel type %d", t)
	}
}
