// Package rpc implements the chain node query surface over the node's
// JSON-RPC gateway. It answers the account, pool and block lookups the
// resolver and the event extractor depend on.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdhttp "net/http"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/evanpardo/ccdwatch/internal/pkg/transport/http"
)

// ErrNodeReturnedError indicates that the node's JSON-RPC gateway returned
// an error response.
var ErrNodeReturnedError = errors.New("node error")

// response represents a standard JSON-RPC 2.0 response.
type response struct {
	JsonRPC string `json:"jsonrpc"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Result json.RawMessage `json:"result"`
}

// Err returns an error if the response includes a JSON-RPC error object.
func (r response) Err() error {
	if r.Error == nil {
		return nil
	}

	return fmt.Errorf("%w: [%d] - %s", ErrNodeReturnedError, r.Error.Code, r.Error.Message)
}

// Client is a JSON-RPC client against one node endpoint.
type Client struct {
	endpoint   string
	httpClient *retryablehttp.Client
}

// NewClient builds a client for the given node gateway endpoint. Retry and
// timeout behavior is controlled through the transport options.
func NewClient(endpoint string, opts ...http.Option) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: http.NewClient(opts...),
	}
}

// fetch sends one JSON-RPC request and returns the raw result. The request
// id is a fresh UUID.
func (c *Client) fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      uuid.NewString(),
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, stdhttp.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var data response
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}

	return data.Result, data.Err()
}
