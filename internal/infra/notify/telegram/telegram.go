// Package telegram delivers chat notifications through the Telegram Bot
// API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdhttp "net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/evanpardo/ccdwatch/internal/dispatcher"
	"github.com/evanpardo/ccdwatch/internal/pkg/transport/http"
)

// ErrBotAPIError indicates that the Bot API rejected a request.
var ErrBotAPIError = errors.New("telegram bot api error")

const defaultBaseURL = "https://api.telegram.org"

// Client sends messages via one bot token.
type Client struct {
	baseURL    string
	token      string
	httpClient *retryablehttp.Client
}

// Compile-time assertion for the dispatcher chat surface.
var _ dispatcher.ChatSender = (*Client)(nil)

type config struct {
	baseURL  string
	httpOpts []http.Option
}

// Option customizes the Telegram client.
type Option func(*config)

// WithBaseURL overrides the Bot API base URL. Used in tests.
func WithBaseURL(u string) Option {
	return func(c *config) { c.baseURL = u }
}

// WithHTTPOptions forwards transport options to the underlying client.
func WithHTTPOptions(opts ...http.Option) Option {
	return func(c *config) { c.httpOpts = append(c.httpOpts, opts...) }
}

// NewClient builds a Bot API client for the given bot token.
func NewClient(token string, opts ...Option) *Client {
	cfg := config{baseURL: defaultBaseURL}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		baseURL:    cfg.baseURL,
		token:      token,
		httpClient: http.NewClient(cfg.httpOpts...),
	}
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// SendMessage delivers one HTML-formatted message to a chat. The title is
// rendered bold on its own line above the body.
func (c *Client) SendMessage(ctx context.Context, chatID int64, title, body string) error {
	text := fmt.Sprintf("<b>%s</b>\n\n%s", title, body)

	payload, err := json.Marshal(map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := retryablehttp.NewRequestWithContext(ctx, stdhttp.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var data apiResponse
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return err
	}
	if !data.OK {
		return fmt.Errorf("%w: [%d] - %s", ErrBotAPIError, data.ErrorCode, data.Description)
	}

	return nil
}
