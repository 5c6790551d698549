package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/notification"
)

func TestSpecialEventPass(t *testing.T) {
	resolver := staticResolver(
		chain.AccountRef{ID: "acct1", Index: 1},
		chain.AccountRef{ID: "acct5", Index: 5},
	)
	poolOwner := chain.AccountIndex(5)

	block := testBlock()
	block.SpecialEvents = []chain.SpecialEvent{
		{PaydayAccountReward: &chain.PaydayAccountReward{Account: "acct1", TransactionFees: 10, BakerReward: 20}},
		{PaydayAccountReward: &chain.PaydayAccountReward{Account: "acct5", TransactionFees: 30, BakerReward: 40, FinalizationReward: 50}},
		{PaydayPoolReward: &chain.PaydayPoolReward{PoolOwner: &poolOwner, TransactionFees: 60, BakerReward: 70}},
		{PaydayPoolReward: &chain.PaydayPoolReward{TransactionFees: 1}}, // passive pool
	}

	node := &nodeClientMock{
		blockHashAtHeightFunc: func(_ context.Context, height uint64) (string, error) {
			assert.Equal(t, block.Height-1, height)
			return "hash-999", nil
		},
		poolInfoFunc: func(_ context.Context, baker chain.AccountIndex, blockHash string) (chain.PoolInfo, error) {
			assert.Equal(t, poolOwner, baker)
			assert.Equal(t, "hash-999", blockHash)
			return chain.PoolInfo{BakerID: baker, DelegatedStake: 500}, nil
		},
	}

	events, err := New(resolver, node).Extract(t.Context(), block)
	require.NoError(t, err)

	t.Run("emits one account event per account reward", func(t *testing.T) {
		accountEvents := eventsByFamily(events, notification.FamilyAccount)
		require.Len(t, accountEvents, 2)

		for _, event := range accountEvents {
			require.NotNil(t, event.Account.PaydayReward)

			subject, ok := event.Subject()
			require.True(t, ok)
			assert.Equal(t, notification.RoleAccount, subject.Role)
		}
	})

	t.Run("pool rewards cross-reference the owner's account reward", func(t *testing.T) {
		validatorEvents := eventsByFamily(events, notification.FamilyValidator)
		require.Len(t, validatorEvents, 1)

		reward := validatorEvents[0].Validator.PaydayPoolReward
		require.NotNil(t, reward)
		assert.Equal(t, chain.MicroCCD(60), reward.Reward.TransactionFees)
		require.NotNil(t, reward.PoolInfo)
		assert.Equal(t, chain.MicroCCD(500), reward.PoolInfo.DelegatedStake)
		require.NotNil(t, reward.CorrespondingAccountReward)
		assert.Equal(t, chain.MicroCCD(30), reward.CorrespondingAccountReward.TransactionFees)

		subject, ok := validatorEvents[0].Subject()
		require.True(t, ok)
		assert.Equal(t, notification.RoleValidator, subject.Role)
		assert.Equal(t, poolOwner, subject.Address.Account.Index)
	})

	t.Run("the passive pool produces no event", func(t *testing.T) {
		assert.Len(t, events, 3)
	})
}
