// Package discord is the HTTP transport to the Discord REST API.
//
// The client performs single authenticated calls and returns the raw status
// and body. It never retries: callers decide what a status code means.
package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/i358/discord-message-deleter/internal/constants"
	"github.com/i358/discord-message-deleter/internal/logger"
	"github.com/i358/discord-message-deleter/internal/version"
)

// Route labels used for request observation.
const (
	RouteListMessages  = "messages.list"
	RouteDeleteMessage = "messages.delete"
	RouteCurrentUser   = "users.me"
	RouteGetChannel    = "channels.get"
	RouteOther         = "other"
)

var (
	// ErrInvalidToken is returned when GET /users/@me is not successful.
	ErrInvalidToken = errors.New("invalid Discord token")
	// ErrChannelUnavailable is returned when GET /channels/{id} is not successful.
	ErrChannelUnavailable = errors.New("channel not found or no access")
)

// Config contains configuration for the Discord client.
type Config struct {
	Token             string        // Raw token, sent as-is in the Authorization header
	BaseURL           string        // API base URL (default: https://discord.com/api/v10)
	Timeout           time.Duration // Per-request timeout
	RequestsPerSecond float64       // Client-side request rate, 0 disables the limiter
	Burst             int           // Limiter bucket size
}

// RequestObserver receives one call per completed HTTP round trip.
type RequestObserver interface {
	ObserveRequest(route, method string, status int, duration time.Duration, err error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithObserver attaches a request observer.
func WithObserver(o RequestObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// Client is an authenticated Discord REST client.
type Client struct {
	http     *http.Client
	token    string
	baseURL  string
	limiter  *rate.Limiter
	logger   *logger.Logger
	observer RequestObserver
}

// NewClient creates a new Client instance.
func NewClient(cfg Config, log *logger.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = constants.DiscordAPIBaseURL
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	if log == nil {
		log = logger.Nop()
	}

	c := &Client{
		http:    &http.Client{Timeout: timeout},
		token:   cfg.Token,
		baseURL: baseURL,
		limiter: limiter,
		logger:  log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs one authenticated request against path (relative to the base URL).
// Connection failures are returned as errors; every HTTP status, including
// non-success ones, is returned as a Response.
func (c *Client) Do(ctx context.Context, method, path string) (*Response, error) {
	return c.do(ctx, method, path, routeFor(method, path))
}

// Get performs GET path.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path)
}

// Delete performs DELETE path.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path)
}

// ListMessages fetches up to limit messages older than before (newest first).
// An empty before fetches the most recent page.
func (c *Client) ListMessages(ctx context.Context, channelID, before string, limit int) (*Response, error) {
	return c.Get(ctx, MessagesPath(channelID, before, limit))
}

// DeleteMessage deletes a single message.
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) (*Response, error) {
	return c.Delete(ctx, fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID))
}

// ValidateToken checks the token with GET /users/@me.
func (c *Client) ValidateToken(ctx context.Context) (*User, error) {
	resp, err := c.Get(ctx, "/users/@me")
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, resp.AsError())
	}

	var user User
	if err := resp.DecodeJSON(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ValidateChannel checks that the channel is readable with GET /channels/{id}.
func (c *Client) ValidateChannel(ctx context.Context, channelID string) (*Channel, error) {
	resp, err := c.Get(ctx, "/channels/"+channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate channel: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %w", ErrChannelUnavailable, resp.AsError())
	}

	var channel Channel
	if err := resp.DecodeJSON(&channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// routeFor maps a request to its observation label. IDs are dropped so the
// label set stays bounded.
func routeFor(method, path string) string {
	path, _, _ = strings.Cut(path, "?")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case method == http.MethodGet && len(parts) == 2 && parts[0] == "users" && parts[1] == "@me":
		return RouteCurrentUser
	case len(parts) < 2 || parts[0] != "channels":
		return RouteOther
	case method == http.MethodGet && len(parts) == 2:
		return RouteGetChannel
	case method == http.MethodGet && len(parts) == 3 && parts[2] == "messages":
		return RouteListMessages
	case method == http.MethodDelete && len(parts) == 4 && parts[2] == "messages":
		return RouteDeleteMessage
	default:
		return RouteOther
	}
}

// MessagesPath builds the listing path: /channels/{id}/messages?limit=N[&before=ID].
func MessagesPath(channelID, before string, limit int) string {
	query := "limit=" + strconv.Itoa(limit)
	if before != "" {
		query += "&before=" + url.QueryEscape(before)
	}
	return fmt.Sprintf("/channels/%s/messages?%s", channelID, query)
}

// do executes a single HTTP request to the Discord API.
func (c *Client) do(ctx context.Context, method, path, route string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request limiter: %w", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", c.token)
	httpReq.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.observe(route, method, 0, time.Since(start), err)
		c.logger.ErrorCtx(ctx, "Discord request failed", err,
			logger.Field{Key: "method", Value: method},
			logger.Field{Key: "path", Value: path})
		return nil, fmt.Errorf("failed to execute %s %s: %w", method, path, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	duration := time.Since(start)
	if err != nil {
		c.observe(route, method, httpResp.StatusCode, duration, err)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	c.observe(route, method, httpResp.StatusCode, duration, nil)

	c.logger.DebugCtx(ctx, "Discord request completed",
		logger.Field{Key: "method", Value: method},
		logger.Field{Key: "path", Value: path},
		logger.Field{Key: "status", Value: httpResp.StatusCode},
		logger.Field{Key: "duration_ms", Value: duration.Milliseconds()})

	return &Response{
		Method:     method,
		Path:       path,
		StatusCode: httpResp.StatusCode,
		RetryAfter: httpResp.Header.Get("Retry-After"),
		Body:       body,
	}, nil
}

func (c *Client) observe(route, method string, status int, d time.Duration, err error) {
	if c.observer != nil {
		c.observer.ObserveRequest(route, method, status, d, err)
	}
}
