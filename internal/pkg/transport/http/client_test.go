package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		client := NewClient()

		assert.Equal(t, 5*time.Second, client.HTTPClient.Timeout)
		assert.Equal(t, 1*time.Second, client.RetryWaitMin)
		assert.Equal(t, 5*time.Second, client.RetryWaitMax)
		assert.Equal(t, 2, client.RetryMax)
		assert.Nil(t, client.Logger)
	})

	t.Run("options override defaults", func(t *testing.T) {
		client := NewClient(
			WithTimeout(10*time.Second),
			WithRetryWaitMin(100*time.Millisecond),
			WithRetryWaitMax(time.Second),
			WithRetryMax(5),
		)

		assert.Equal(t, 10*time.Second, client.HTTPClient.Timeout)
		assert.Equal(t, 100*time.Millisecond, client.RetryWaitMin)
		assert.Equal(t, time.Second, client.RetryWaitMax)
		assert.Equal(t, 5, client.RetryMax)
	})

	t.Run("retries server errors until success", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(
			WithRetryWaitMin(time.Millisecond),
			WithRetryWaitMax(time.Millisecond),
			WithRetryMax(3),
		)

		rsp, err := client.Get(server.URL)
		require.NoError(t, err)
		defer rsp.Body.Close()

		assert.Equal(t, http.StatusOK, rsp.StatusCode)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewClient(
			WithRetryWaitMin(time.Millisecond),
			WithRetryWaitMax(time.Millisecond),
			WithRetryMax(1),
		)

		rsp, err := client.Get(server.URL)

		assert.Error(t, err)
		assert.Nil(t, rsp)
		assert.Equal(t, 2, calls)
	})
}
