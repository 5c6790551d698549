package redis

import (
	"context"
	"fmt"

	"github.com/evanpardo/ccdwatch/internal/pipeline"
)

// labelKey is the hash mapping raw address strings to display labels.
// Format: "label:{network}".
func (c *client) labelKey() string {
	return fmt.Sprintf("label:%s", c.network)
}

// ListLabels loads the full global label table for the router's cache.
func (c *client) ListLabels(ctx context.Context) (map[string]string, error) {
	return c.conn.HGetAll(ctx, c.labelKey()).Result()
}

// SaveLabel upserts the display label for one address.
func (c *client) SaveLabel(ctx context.Context, address, label string) error {
	return c.conn.HSet(ctx, c.labelKey(), address, label).Err()
}

// Compile-time assertion for the label table surface.
var _ pipeline.LabelStorage = (*client)(nil)
