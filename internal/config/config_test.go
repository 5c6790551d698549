package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanpardo/ccdwatch/internal/pkg/validation"
)

func init() {
	validation.Init()
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("CCDWATCH_NODE_RPC_ENDPOINT", "http://localhost:10000")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "ccdwatch", cfg.ServiceName)
		assert.Equal(t, "mainnet", cfg.Network)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "localhost:6379", cfg.RedisAddress)
		assert.Equal(t, 2*time.Second, cfg.PollInterval)
		assert.Equal(t, time.Hour, cfg.FastAccountInterval)
		assert.Equal(t, uint64(10), cfg.BlockBatchSize)
		assert.Equal(t, uint64(300), cfg.NodeLagThreshold)
	})

	t.Run("requires the node endpoint", func(t *testing.T) {
		_, err := Load()
		assert.ErrorIs(t, err, validation.ErrValidation)
	})

	t.Run("rejects an unknown network", func(t *testing.T) {
		t.Setenv("CCDWATCH_NODE_RPC_ENDPOINT", "http://localhost:10000")
		t.Setenv("CCDWATCH_NETWORK", "devnet")

		_, err := Load()
		assert.ErrorIs(t, err, validation.ErrValidation)
	})

	t.Run("rejects a malformed email sender", func(t *testing.T) {
		t.Setenv("CCDWATCH_NODE_RPC_ENDPOINT", "http://localhost:10000")
		t.Setenv("CCDWATCH_EMAIL_FROM", "not-an-email")

		_, err := Load()
		assert.ErrorIs(t, err, validation.ErrValidation)
	})

	t.Run("reads overrides from the environment", func(t *testing.T) {
		t.Setenv("CCDWATCH_NODE_RPC_ENDPOINT", "http://localhost:10000")
		t.Setenv("CCDWATCH_NETWORK", "testnet")
		t.Setenv("CCDWATCH_POLL_INTERVAL", "500ms")
		t.Setenv("CCDWATCH_BLOCK_BATCH_SIZE", "25")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "testnet", cfg.Network)
		assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
		assert.Equal(t, uint64(25), cfg.BlockBatchSize)
	})
}
