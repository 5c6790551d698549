package redis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanpardo/ccdwatch/internal/accountregistry"
	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/dispatcher"
	"github.com/evanpardo/ccdwatch/internal/pipeline"
	"github.com/evanpardo/ccdwatch/internal/router"
	"github.com/evanpardo/ccdwatch/internal/user"
)

func newTestClient(t *testing.T) *client {
	t.Helper()

	srv := miniredis.RunT(t)

	c, err := NewClient(t.Context(), chain.Mainnet, srv.Addr(), "", "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestCheckpoint(t *testing.T) {
	c := newTestClient(t)

	t.Run("missing checkpoint is reported", func(t *testing.T) {
		_, err := c.LoadCheckpoint(t.Context())
		assert.ErrorIs(t, err, pipeline.ErrNoCheckpointFound)
	})

	t.Run("save then load round trips", func(t *testing.T) {
		require.NoError(t, c.SaveCheckpoint(t.Context(), 12345))

		height, err := c.LoadCheckpoint(t.Context())
		require.NoError(t, err)
		assert.Equal(t, uint64(12345), height)
	})

	t.Run("saving again overwrites", func(t *testing.T) {
		require.NoError(t, c.SaveCheckpoint(t.Context(), 12346))

		height, err := c.LoadCheckpoint(t.Context())
		require.NoError(t, err)
		assert.Equal(t, uint64(12346), height)
	})

	t.Run("gap requests deduplicate heights", func(t *testing.T) {
		require.NoError(t, c.RecordGapRequest(t.Context(), []uint64{100, 101}))
		require.NoError(t, c.RecordGapRequest(t.Context(), []uint64{101}))

		members, err := c.conn.SMembers(t.Context(), c.gapRequestKey()).Result()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"100", "101"}, members)
	})
}

func TestBlocks(t *testing.T) {
	c := newTestClient(t)

	block := chain.Block{
		Network:    chain.Mainnet,
		Height:     777,
		Hash:       "hash-777",
		ParentHash: "hash-776",
		SlotTime:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("missing block is reported", func(t *testing.T) {
		_, err := c.BlockAtHeight(t.Context(), 777)
		assert.ErrorIs(t, err, pipeline.ErrBlockNotFound)

		_, err = c.LatestHeight(t.Context())
		assert.ErrorIs(t, err, pipeline.ErrBlockNotFound)
	})

	t.Run("save then load round trips and advances the head", func(t *testing.T) {
		require.NoError(t, c.SaveBlock(t.Context(), block))

		loaded, err := c.BlockAtHeight(t.Context(), 777)
		require.NoError(t, err)
		assert.Equal(t, block, loaded)

		head, err := c.LatestHeight(t.Context())
		require.NoError(t, err)
		assert.Equal(t, uint64(777), head)
	})

	t.Run("an older block does not move the head back", func(t *testing.T) {
		older := block
		older.Height, older.Hash = 700, "hash-700"
		require.NoError(t, c.SaveBlock(t.Context(), older))

		head, err := c.LatestHeight(t.Context())
		require.NoError(t, err)
		assert.Equal(t, uint64(777), head)
	})
}

func TestUsers(t *testing.T) {
	c := newTestClient(t)

	limit := chain.MicroCCD(1_000_000)
	u := user.User{
		Token:  "u-123",
		ChatID: 42,
		Email:  "user@example.com",
		Accounts: map[string]user.Account{
			"7": {
				Index:   7,
				Address: "acct7",
				Label:   "savings",
				Account: &user.AccountPreferences{
					AccountTransfer: &user.Preference{
						Chat: &user.ChannelPreference{Enabled: true, Limit: &limit},
					},
				},
			},
		},
	}

	t.Run("unknown token is reported", func(t *testing.T) {
		_, err := c.GetUser(t.Context(), "u-123")
		assert.ErrorIs(t, err, accountregistry.ErrUserNotFound)
	})

	t.Run("save then get round trips the document", func(t *testing.T) {
		require.NoError(t, c.SaveUser(t.Context(), u))

		loaded, err := c.GetUser(t.Context(), "u-123")
		require.NoError(t, err)
		assert.Equal(t, u, loaded)
	})

	t.Run("list returns every user", func(t *testing.T) {
		other := user.User{Token: "u-456"}
		require.NoError(t, c.SaveUser(t.Context(), other))

		users, err := c.ListUsers(t.Context())
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})
}

func TestLabelsAndTokenNames(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.SaveLabel(t.Context(), "acct1", "Exchange"))
	require.NoError(t, c.SaveTokenName(t.Context(), "<100,0>-", "wCCD"))

	labels, err := c.ListLabels(t.Context())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"acct1": "Exchange"}, labels)

	names, err := c.ListTokenNames(t.Context())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"<100,0>-": "wCCD"}, names)
}

func TestFastAccounts(t *testing.T) {
	c := newTestClient(t)

	refs := []chain.AccountRef{
		{ID: "acct1", Index: 1},
		{ID: "acct2", Index: 2},
	}
	for _, ref := range refs {
		require.NoError(t, c.SaveFastAccount(t.Context(), ref))
	}

	loaded, err := c.ListFastAccounts(t.Context())
	require.NoError(t, err)
	assert.ElementsMatch(t, refs, loaded)
}

func TestAudit(t *testing.T) {
	c := newTestClient(t)

	audit := dispatcher.Audit{
		BlockHash:   "hash-777",
		BlockHeight: 777,
		UserToken:   "u-123",
		Family:      "account",
		Message:     router.Message{ChatTitle: "title", ChatBody: "body"},
		Channels:    []user.Channel{user.ChannelChat},
		NotifiedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("saving twice keeps one record per key", func(t *testing.T) {
		require.NoError(t, c.SaveAudit(t.Context(), audit))

		updated := audit
		updated.Channels = []user.Channel{user.ChannelChat, user.ChannelEmail}
		require.NoError(t, c.SaveAudit(t.Context(), updated))

		count, err := c.conn.HLen(t.Context(), c.auditKey()).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("the stored document carries the composed message", func(t *testing.T) {
		require.NoError(t, c.SaveAudit(t.Context(), audit))

		raw, err := c.conn.HGet(t.Context(), c.auditKey(), audit.Key()).Result()
		require.NoError(t, err)

		var stored dispatcher.Audit
		require.NoError(t, json.Unmarshal([]byte(raw), &stored))
		assert.Equal(t, "title", stored.Message.ChatTitle)
		assert.Equal(t, "body", stored.Message.ChatBody)
		assert.Equal(t, "account", stored.Family)
	})
}

func TestNodeStatuses(t *testing.T) {
	c := newTestClient(t)

	bakerID := chain.AccountIndex(7)
	status := chain.NodeStatus{
		NodeName:             "validator-7",
		NodeID:               "node-1",
		ConsensusBakerID:     &bakerID,
		FinalizedBlockHeight: 500,
		LastSeen:             time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, c.SaveNodeStatus(t.Context(), status))

	statuses, err := c.ListNodeStatuses(t.Context())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, status, statuses[0])
}
