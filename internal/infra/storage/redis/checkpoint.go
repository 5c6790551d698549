package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/evanpardo/ccdwatch/internal/pipeline"
)

// pipelineKeyPrefix is the namespace prefix for pipeline progress records.
const pipelineKeyPrefix = "pipeline"

// checkpointKey holds the last fully extracted height.
// Format: "pipeline:{network}:checkpoint".
func (c *client) checkpointKey() string {
	return fmt.Sprintf("%s:%s:checkpoint", pipelineKeyPrefix, c.network)
}

// gapRequestKey holds the set of heights reported missing from the store.
// Format: "pipeline:{network}:gaps".
func (c *client) gapRequestKey() string {
	return fmt.Sprintf("%s:%s:gaps", pipelineKeyPrefix, c.network)
}

// SaveCheckpoint overwrites the checkpoint with the given height.
func (c *client) SaveCheckpoint(ctx context.Context, height uint64) error {
	return c.conn.Set(ctx, c.checkpointKey(), strconv.FormatUint(height, 10), 0).Err()
}

// LoadCheckpoint returns the last extracted height, or
// pipeline.ErrNoCheckpointFound before the first run.
func (c *client) LoadCheckpoint(ctx context.Context) (uint64, error) {
	val, err := c.conn.Get(ctx, c.checkpointKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = pipeline.ErrNoCheckpointFound
		}
		return 0, err
	}

	return strconv.ParseUint(val, 10, 64)
}

// RecordGapRequest adds the missing heights to the backfill request set.
// Re-reporting a height is a no-op, so retried ingest ticks do not grow
// the set.
func (c *client) RecordGapRequest(ctx context.Context, heights []uint64) error {
	if len(heights) == 0 {
		return nil
	}

	members := make([]any, len(heights))
	for i, height := range heights {
		members[i] = strconv.FormatUint(height, 10)
	}

	return c.conn.SAdd(ctx, c.gapRequestKey(), members...).Err()
}

// Compile-time assertion to ensure *client implements the checkpoint
// surface.
var _ pipeline.CheckpointStorage = (*client)(nil)
