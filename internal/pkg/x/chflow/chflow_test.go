package chflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReceive(t *testing.T) {
	t.Run("successful receive", func(t *testing.T) {
		ch := make(chan int, 1)
		ch <- 42

		value, ok := Receive(t.Context(), ch)

		assert.True(t, ok)
		assert.Equal(t, 42, value)
	})

	t.Run("context canceled before receive", func(t *testing.T) {
		ch := make(chan int)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		value, ok := Receive(ctx, ch)

		assert.False(t, ok)
		assert.Zero(t, value)
	})

	t.Run("channel closed", func(t *testing.T) {
		ch := make(chan string)
		close(ch)

		value, ok := Receive(t.Context(), ch)

		assert.False(t, ok)
		assert.Empty(t, value)
	})

	t.Run("receive unblocks on late send", func(t *testing.T) {
		ch := make(chan int)
		go func() {
			time.Sleep(10 * time.Millisecond)
			ch <- 7
		}()

		value, ok := Receive(t.Context(), ch)

		assert.True(t, ok)
		assert.Equal(t, 7, value)
	})
}

func TestSend(t *testing.T) {
	t.Run("successful send", func(t *testing.T) {
		ch := make(chan int, 1)

		ok := Send(t.Context(), ch, 42)

		assert.True(t, ok)
		assert.Equal(t, 42, <-ch)
	})

	t.Run("context canceled before send", func(t *testing.T) {
		ch := make(chan int)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		ok := Send(ctx, ch, 42)

		assert.False(t, ok)
	})

	t.Run("send unblocks on late receive", func(t *testing.T) {
		ch := make(chan string)
		received := make(chan string, 1)
		go func() {
			time.Sleep(10 * time.Millisecond)
			received <- <-ch
		}()

		ok := Send(t.Context(), ch, "payload")

		assert.True(t, ok)
		assert.Equal(t, "payload", <-received)
	})
}
