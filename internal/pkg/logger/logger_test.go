package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	t.Run("invalid level", func(t *testing.T) {
		err := Init(WithLevel("shouting"))
		assert.Error(t, err)
	})

	t.Run("default level", func(t *testing.T) {
		err := Init()
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("repeated init is a no-op", func(t *testing.T) {
		require.NoError(t, Init(WithLevel("error")))

		first := logger
		require.NoError(t, Init(WithLevel("debug")))

		assert.Same(t, first, logger)
	})

	t.Run("invalid level still rejected after setup", func(t *testing.T) {
		require.NoError(t, Init())
		assert.Error(t, Init(WithLevel("nope")))
	})
}

func TestLogging(t *testing.T) {
	require.NoError(t, Init(WithLevel("error")))

	ctx := t.Context()

	assert.NotPanics(t, func() {
		Debug(ctx, "debug message", "key", "value")
		Info(ctx, "info message", "height", uint64(42))
		Warn(ctx, "warn message")
		Error(ctx, "error message", "err", assert.AnError)
	})
}
