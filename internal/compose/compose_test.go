package compose

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/notification"
	"github.com/evanpardo/ccdwatch/internal/user"
)

func TestCompose(t *testing.T) {
	bctx := notification.BlockContext{
		Height:   1000,
		Hash:     "hash-1000",
		SlotTime: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
	}

	t.Run("transfer messages carry the amount and parties", func(t *testing.T) {
		event, err := notification.NewAccountEvent(bctx, "tx-1", notification.AccountPayload{
			Transfer: &notification.TransferInfo{Amount: 2_500_000, Sender: "acct1", Receiver: "acct2"},
		}, []notification.ImpactedAddress{
			{Address: chain.AccountAddressOf("acct2", 2), Role: notification.RoleReceiver, Label: "savings"},
			{Address: chain.AccountAddressOf("acct1", 1), Role: notification.RoleSender},
		})
		require.NoError(t, err)

		message, err := New().Compose(t.Context(), user.User{}, event)
		require.NoError(t, err)

		assert.Equal(t, "CCD transfer of 2.500000 CCD", message.ChatTitle)
		assert.Equal(t, message.ChatTitle, message.EmailTitle)
		assert.Contains(t, message.ChatBody, "<b>")
		assert.Contains(t, message.EmailBody, "receiver: savings")
		assert.Contains(t, message.EmailBody, "sender: acct1")
		assert.Contains(t, message.EmailBody, "tx-1")
		assert.Contains(t, message.EmailBody, "Block 1000")
	})

	t.Run("lowered stake messages include the percentage", func(t *testing.T) {
		event, err := notification.NewOtherEvent(bctx, "tx-1", notification.OtherPayload{
			LoweredStake: &notification.LoweredStake{UnstakedAmount: 5_000_000, NewStake: 15_000_000, PercentageUnstaked: 0.25},
		}, nil)
		require.NoError(t, err)

		message, err := New().Compose(t.Context(), user.User{}, event)
		require.NoError(t, err)
		assert.Equal(t, "Validator lowered stake by 5.000000 CCD (25.0%)", message.ChatTitle)
	})

	t.Run("domain mints name the domain", func(t *testing.T) {
		event, err := notification.NewOtherEvent(bctx, "tx-1", notification.OtherPayload{
			DomainMinted: &notification.DomainMinted{Name: "example.ccd", TokenAddress: "<9377,0>-bb"},
		}, nil)
		require.NoError(t, err)

		message, err := New().Compose(t.Context(), user.User{}, event)
		require.NoError(t, err)
		assert.Equal(t, "Domain minted: example.ccd", message.ChatTitle)
	})
}
