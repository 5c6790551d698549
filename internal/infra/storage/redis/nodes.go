package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/pipeline"
)

// nodeStatusKey is the hash holding dashboard node statuses, keyed by node
// id. Format: "node:status:{network}".
func (c *client) nodeStatusKey() string {
	return fmt.Sprintf("node:status:%s", c.network)
}

// ListNodeStatuses loads every reported node status for the lag check.
func (c *client) ListNodeStatuses(ctx context.Context) ([]chain.NodeStatus, error) {
	vals, err := c.conn.HVals(ctx, c.nodeStatusKey()).Result()
	if err != nil {
		return nil, err
	}

	statuses := make([]chain.NodeStatus, 0, len(vals))
	for _, val := range vals {
		var status chain.NodeStatus
		if err := json.Unmarshal([]byte(val), &status); err != nil {
			return nil, fmt.Errorf("decoding node status: %w", err)
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

// SaveNodeStatus upserts one node's dashboard status under its id.
func (c *client) SaveNodeStatus(ctx context.Context, status chain.NodeStatus) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encoding status of node %s: %w", status.NodeID, err)
	}

	return c.conn.HSet(ctx, c.nodeStatusKey(), status.NodeID, raw).Err()
}

// Compile-time assertion for the node status surface.
var _ pipeline.NodeStatusStorage = (*client)(nil)
