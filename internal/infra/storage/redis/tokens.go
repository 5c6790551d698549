package redis

import (
	"context"
	"fmt"

	"github.com/evanpardo/ccdwatch/internal/pipeline"
)

// tokenNameKey is the hash mapping token addresses ("<index,subindex>-id")
// to display names. Format: "token:name:{network}".
func (c *client) tokenNameKey() string {
	return fmt.Sprintf("token:name:%s", c.network)
}

// ListTokenNames loads the full token name table for the extractor's cache.
func (c *client) ListTokenNames(ctx context.Context) (map[string]string, error) {
	return c.conn.HGetAll(ctx, c.tokenNameKey()).Result()
}

// SaveTokenName upserts the display name of one token address.
func (c *client) SaveTokenName(ctx context.Context, tokenAddress, name string) error {
	return c.conn.HSet(ctx, c.tokenNameKey(), tokenAddress, name).Err()
}

// Compile-time assertion for the token name table surface.
var _ pipeline.TokenNameStorage = (*client)(nil)
