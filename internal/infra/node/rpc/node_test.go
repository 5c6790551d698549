package rpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanpardo/ccdwatch/internal/chain"
	transporthttp "github.com/evanpardo/ccdwatch/internal/pkg/transport/http"
)

// newTestClient serves canned JSON-RPC results keyed by method name.
func newTestClient(t *testing.T, results map[string]any) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     string `json:"id"`
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.ID)

		result, ok := results[req.Method]
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0",
				"error":   map[string]any{"code": -32601, "message": "method not found"},
			})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"result":  result,
		})
	}))
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, transporthttp.WithRetryMax(0))
}

func TestAccountInfoByAddress(t *testing.T) {
	t.Run("decodes a validator account", func(t *testing.T) {
		client := newTestClient(t, map[string]any{
			"getAccountInfo": map[string]any{
				"accountAddress": "acct7",
				"accountIndex":   7,
				"accountAmount":  5_000_000,
				"accountBaker": map[string]any{
					"bakerId":         7,
					"stakedAmount":    4_000_000,
					"restakeEarnings": true,
				},
			},
		})

		info, err := client.AccountInfoByAddress(t.Context(), "acct7", "hash-1")
		require.NoError(t, err)

		assert.Equal(t, chain.AccountAddress("acct7"), info.Address)
		assert.Equal(t, chain.AccountIndex(7), info.Index)
		assert.Equal(t, chain.MicroCCD(5_000_000), info.Amount)
		require.NotNil(t, info.Stake)
		require.NotNil(t, info.Stake.Baker)
		assert.Equal(t, chain.MicroCCD(4_000_000), info.Stake.Baker.StakedAmount)
		assert.True(t, info.Stake.Baker.RestakeEarnings)
	})

	t.Run("decodes a delegator account with a target pool", func(t *testing.T) {
		client := newTestClient(t, map[string]any{
			"getAccountInfo": map[string]any{
				"accountAddress": "acct8",
				"accountIndex":   8,
				"accountAmount":  1_000_000,
				"accountDelegation": map[string]any{
					"stakedAmount":    900_000,
					"restakeEarnings": false,
					"delegationTarget": map[string]any{
						"delegateType": "Baker",
						"bakerId":      7,
					},
				},
			},
		})

		info, err := client.AccountInfoByAddress(t.Context(), "acct8", "hash-1")
		require.NoError(t, err)

		require.NotNil(t, info.Stake)
		require.NotNil(t, info.Stake.Delegator)
		require.NotNil(t, info.Stake.Delegator.Target)
		assert.Equal(t, chain.AccountIndex(7), *info.Stake.Delegator.Target)
	})

	t.Run("passive delegation has no target", func(t *testing.T) {
		client := newTestClient(t, map[string]any{
			"getAccountInfo": map[string]any{
				"accountAddress": "acct9",
				"accountIndex":   9,
				"accountDelegation": map[string]any{
					"stakedAmount":     100,
					"delegationTarget": map[string]any{"delegateType": "Passive"},
				},
			},
		})

		info, err := client.AccountInfoByAddress(t.Context(), "acct9", "hash-1")
		require.NoError(t, err)

		require.NotNil(t, info.Stake.Delegator)
		assert.Nil(t, info.Stake.Delegator.Target)
	})

	t.Run("surfaces gateway errors", func(t *testing.T) {
		client := newTestClient(t, nil)

		_, err := client.AccountInfoByAddress(t.Context(), "acct7", "hash-1")
		assert.ErrorIs(t, err, ErrNodeReturnedError)
	})
}

func TestPoolInfo(t *testing.T) {
	client := newTestClient(t, map[string]any{
		"getPoolStatus": map[string]any{
			"bakerId":            7,
			"bakerAddress":       "acct7",
			"bakerEquityCapital": 4_000_000,
			"delegatedCapital":   10_000_000,
			"delegatorCount":     3,
			"poolInfo": map[string]any{
				"openStatus": "openForAll",
				"commissionRates": map[string]any{
					"bakingCommission":       0.1,
					"transactionCommission":  0.05,
					"finalizationCommission": 1.0,
				},
			},
		},
	})

	pool, err := client.PoolInfo(t.Context(), 7, "hash-1")
	require.NoError(t, err)

	assert.Equal(t, chain.AccountIndex(7), pool.BakerID)
	assert.Equal(t, chain.AccountAddress("acct7"), pool.BakerAddress)
	assert.Equal(t, chain.MicroCCD(4_000_000), pool.BakerStake)
	assert.Equal(t, chain.MicroCCD(10_000_000), pool.DelegatedStake)
	assert.Equal(t, 3, pool.DelegatorCount)
	assert.Equal(t, "openForAll", pool.OpenStatus)
	assert.Equal(t, 0.1, pool.CommissionRates.Baking)
	assert.Equal(t, 0.05, pool.CommissionRates.TransactionFees)
	assert.Equal(t, 1.0, pool.CommissionRates.FinalizationReward)
}

func TestPoolDelegators(t *testing.T) {
	client := newTestClient(t, map[string]any{
		"getPoolDelegators": []map[string]any{
			{"account": "acct20", "stake": 100},
			{"account": "acct21", "stake": 200},
		},
	})

	delegators, err := client.PoolDelegators(t.Context(), 7, "hash-1")
	require.NoError(t, err)

	assert.Equal(t, []chain.PoolDelegator{
		{Account: "acct20", Stake: 100},
		{Account: "acct21", Stake: 200},
	}, delegators)
}

func TestEarliestWinTime(t *testing.T) {
	client := newTestClient(t, map[string]any{
		"getEarliestWinTime": 1714564800000,
	})

	winTime, err := client.EarliestWinTime(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), winTime)
}

func TestBlockHashAtHeight(t *testing.T) {
	t.Run("returns the first finalized hash", func(t *testing.T) {
		client := newTestClient(t, map[string]any{
			"getBlocksAtHeight": []string{"hash-999"},
		})

		hash, err := client.BlockHashAtHeight(t.Context(), 999)
		require.NoError(t, err)
		assert.Equal(t, "hash-999", hash)
	})

	t.Run("an empty height fails", func(t *testing.T) {
		client := newTestClient(t, map[string]any{
			"getBlocksAtHeight": []string{},
		})

		_, err := client.BlockHashAtHeight(t.Context(), 999)
		assert.Error(t, err)
	})
}
