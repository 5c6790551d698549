package cli

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

type accountRegistryMock struct {
	watchFunc   func(ctx context.Context, token, address, label string) error
	unwatchFunc func(ctx context.Context, token, address string) error
}

func (m *accountRegistryMock) Watch(ctx context.Context, token, address, label string) error {
	return m.watchFunc(ctx, token, address, label)
}

func (m *accountRegistryMock) Unwatch(ctx context.Context, token, address string) error {
	return m.unwatchFunc(ctx, token, address)
}

type pipelineMock struct {
	startFunc func(ctx context.Context) (<-chan error, error)
	closeFunc func()
}

func (m *pipelineMock) Start(ctx context.Context) (<-chan error, error) {
	return m.startFunc(ctx)
}

func (m *pipelineMock) Close() {
	if m.closeFunc != nil {
		m.closeFunc()
	}
}

func TestRun(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
	}()

	t.Run("help runs without error", func(t *testing.T) {
		os.Args = []string{"ccdwatch", "--help"}

		err := Run(t.Context(), &accountRegistryMock{}, &pipelineMock{})
		assert.NoError(t, err)
	})

	t.Run("start surfaces pipeline startup failures", func(t *testing.T) {
		p := &pipelineMock{
			startFunc: func(context.Context) (<-chan error, error) {
				return nil, assert.AnError
			},
		}

		os.Args = []string{"ccdwatch", "start"}

		err := Run(t.Context(), &accountRegistryMock{}, p)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("start surfaces liveness failures from the health channel", func(t *testing.T) {
		errStalled := errors.New("pipeline stalled")

		closed := false
		p := &pipelineMock{
			startFunc: func(context.Context) (<-chan error, error) {
				healthCh := make(chan error, 1)
				healthCh <- errStalled
				return healthCh, nil
			},
			closeFunc: func() { closed = true },
		}

		os.Args = []string{"ccdwatch", "start"}

		err := Run(t.Context(), &accountRegistryMock{}, p)
		assert.ErrorIs(t, err, errStalled)
		assert.True(t, closed)
	})

	t.Run("watch-account forwards its flags", func(t *testing.T) {
		var gotToken, gotAddress, gotLabel string
		ar := &accountRegistryMock{
			watchFunc: func(_ context.Context, token, address, label string) error {
				gotToken, gotAddress, gotLabel = token, address, label
				return nil
			},
		}

		os.Args = []string{"ccdwatch", "watch-account", "--token", "u-123", "--address", "acct1", "--label", "savings"}

		err := Run(t.Context(), ar, &pipelineMock{})
		assert.NoError(t, err)
		assert.Equal(t, "u-123", gotToken)
		assert.Equal(t, "acct1", gotAddress)
		assert.Equal(t, "savings", gotLabel)
	})

	t.Run("watch-account requires its flags", func(t *testing.T) {
		os.Args = []string{"ccdwatch", "watch-account"}

		err := Run(t.Context(), &accountRegistryMock{}, &pipelineMock{})
		assert.Error(t, err)
	})

	t.Run("unwatch-account forwards its flags", func(t *testing.T) {
		var gotToken, gotAddress string
		ar := &accountRegistryMock{
			unwatchFunc: func(_ context.Context, token, address string) error {
				gotToken, gotAddress = token, address
				return nil
			},
		}

		os.Args = []string{"ccdwatch", "unwatch-account", "--token", "u-123", "--address", "acct1"}

		err := Run(t.Context(), ar, &pipelineMock{})
		assert.NoError(t, err)
		assert.Equal(t, "u-123", gotToken)
		assert.Equal(t, "acct1", gotAddress)
	})

	t.Run("unwatch-account surfaces service errors", func(t *testing.T) {
		ar := &accountRegistryMock{
			unwatchFunc: func(context.Context, string, string) error {
				return assert.AnError
			},
		}

		os.Args = []string{"ccdwatch", "unwatch-account", "--token", "u-123", "--address", "acct1"}

		err := Run(t.Context(), ar, &pipelineMock{})
		assert.ErrorIs(t, err, assert.AnError)
	})
}
