package extractor

import (
	"context"
	"fmt"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/notification"
)

// specialEventPass covers payday rewards. Account rewards are indexed by
// resolved account index first so pool rewards can cross-reference the pool
// owner's own account reward.
func (s *Service) specialEventPass(ctx context.Context, block chain.Block, bctx notification.BlockContext) ([]notification.Event, error) {
	if len(block.SpecialEvents) == 0 {
		return nil, nil
	}

	// The payday block itself holds the rewards; pool state is read at the
	// block right before it.
	lastPaydayHash, err := s.node.BlockHashAtHeight(ctx, block.Height-1)
	if err != nil {
		return nil, fmt.Errorf("fetching block hash at height %d: %w", block.Height-1, err)
	}

	accountRefs := make(map[chain.AccountAddress]chain.AccountRef)
	rewardsByIndex := make(map[chain.AccountIndex]*chain.PaydayAccountReward)
	for _, special := range block.SpecialEvents {
		if special.PaydayAccountReward == nil {
			continue
		}
		ref, err := s.resolver.ResolveAccountAddress(ctx, special.PaydayAccountReward.Account)
		if err != nil {
			return nil, err
		}
		accountRefs[special.PaydayAccountReward.Account] = ref
		rewardsByIndex[ref.Index] = special.PaydayAccountReward
	}

	var events []notification.Event
	for _, special := range block.SpecialEvents {
		switch {
		case special.PaydayAccountReward != nil:
			reward := special.PaydayAccountReward

			event, err := notification.NewAccountEvent(bctx, "", notification.AccountPayload{
				PaydayReward: reward,
			}, []notification.ImpactedAddress{
				notification.ImpactedAccount(notification.RoleAccount, accountRefs[reward.Account]),
			})
			if err != nil {
				return events, err
			}
			events = append(events, event)

		case special.PaydayPoolReward != nil:
			// The passive pool has no owner to notify.
			if special.PaydayPoolReward.PoolOwner == nil {
				continue
			}
			owner := *special.PaydayPoolReward.PoolOwner

			pool, err := s.node.PoolInfo(ctx, owner, lastPaydayHash)
			if err != nil {
				return events, fmt.Errorf("fetching pool info for pool %d: %w", owner, err)
			}
			ownerRef, err := s.resolver.ResolveAccountIndex(ctx, owner)
			if err != nil {
				return events, err
			}

			event, err := notification.NewValidatorEvent(bctx, "", notification.ValidatorPayload{
				PaydayPoolReward: &notification.PaydayPoolRewardInfo{
					Reward:                     *special.PaydayPoolReward,
					PoolInfo:                   &pool,
					CorrespondingAccountReward: rewardsByIndex[owner],
				},
			}, []notification.ImpactedAddress{
				notification.ImpactedAccount(notification.RoleValidator, ownerRef),
			})
			if err != nil {
				return events, err
			}
			events = append(events, event)
		}
	}

	return events, nil
}
