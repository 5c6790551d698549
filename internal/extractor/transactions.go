package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/notification"
	"github.com/evanpardo/ccdwatch/internal/pkg/types"
)

// transactionPass walks every transaction in the block. Each effect is
// checked against all four event families independently, so a single
// transaction can produce events in more than one family.
func (s *Service) transactionPass(ctx context.Context, block chain.Block, bctx notification.BlockContext) ([]notification.Event, error) {
	var events []notification.Event

	for _, tx := range block.Transactions {
		var (
			txEvents []notification.Event
			err      error
		)
		switch {
		case tx.Account != nil:
			txEvents, err = s.accountTransactionEvents(ctx, block, bctx, tx)
		case tx.Update != nil:
			txEvents, err = chainUpdateEvents(bctx, tx)
		case tx.Creation != nil:
			txEvents, err = s.accountCreationEvents(ctx, bctx, tx)
		}

		events = append(events, txEvents...)
		if err != nil {
			return events, fmt.Errorf("transaction %s: %w", tx.Hash, err)
		}
	}

	return events, nil
}

func (s *Service) accountTransactionEvents(ctx context.Context, block chain.Block, bctx notification.BlockContext, tx chain.Transaction) ([]notification.Event, error) {
	var events []notification.Event

	families := []func(context.Context, chain.Block, notification.BlockContext, chain.Transaction) ([]notification.Event, error){
		s.validatorFamilyEvents,
		s.accountFamilyEvents,
		s.otherFamilyEvents,
		s.contractFamilyEvents,
	}
	for _, family := range families {
		familyEvents, err := family(ctx, block, bctx, tx)
		if err != nil {
			return events, err
		}
		events = append(events, familyEvents...)
	}

	return events, nil
}

// validatorFamilyEvents notifies the watchers of the affected pool. For a
// delegation change the target pool is prepended as the subject so the pool
// owner's watchers are the ones notified; the delegating account itself is
// covered by the account family.
func (s *Service) validatorFamilyEvents(ctx context.Context, block chain.Block, bctx notification.BlockContext, tx chain.Transaction) ([]notification.Event, error) {
	effects := tx.Account.Effects
	sender := tx.Account.Sender

	switch {
	case effects.BakerConfigured != nil:
		senderRef, err := s.resolver.ResolveAccountAddress(ctx, sender)
		if err != nil {
			return nil, err
		}

		payload := notification.ValidatorPayload{
			ValidatorConfigured: &notification.ValidatorConfiguredInfo{Events: effects.BakerConfigured.Events},
		}
		payload.PreviousValidatorInfo, err = s.previousBakerInfo(ctx, block, sender)
		if err != nil {
			return nil, err
		}

		event, err := notification.NewValidatorEvent(bctx, tx.Hash, payload, []notification.ImpactedAddress{
			notification.ImpactedAccount(notification.RoleValidator, senderRef),
		})
		if err != nil {
			return nil, err
		}
		return []notification.Event{event}, nil

	case effects.DelegationConfigured != nil:
		senderRef, err := s.resolver.ResolveAccountAddress(ctx, sender)
		if err != nil {
			return nil, err
		}

		payload := notification.ValidatorPayload{
			DelegationConfigured: &notification.DelegationConfiguredInfo{Events: effects.DelegationConfigured.Events},
		}
		payload.PreviousDelegatorInfo, err = s.previousDelegatorInfo(ctx, block, sender)
		if err != nil {
			return nil, err
		}

		impacted := []notification.ImpactedAddress{
			notification.ImpactedAccount(notification.RoleDelegator, senderRef),
		}

		target, err := s.delegationTarget(ctx, block, sender)
		if err != nil {
			return nil, err
		}
		if target != nil {
			poolRef, err := s.resolver.ResolveAccountIndex(ctx, *target)
			if err != nil {
				return nil, err
			}
			impacted = append([]notification.ImpactedAddress{
				notification.ImpactedAccount(notification.RoleValidator, poolRef),
			}, impacted...)
		}

		event, err := notification.NewValidatorEvent(bctx, tx.Hash, payload, impacted)
		if err != nil {
			return nil, err
		}
		return []notification.Event{event}, nil
	}

	return nil, nil
}

func (s *Service) accountFamilyEvents(ctx context.Context, block chain.Block, bctx notification.BlockContext, tx chain.Transaction) ([]notification.Event, error) {
	effects := tx.Account.Effects
	sender := tx.Account.Sender

	senderRef, err := s.resolver.ResolveAccountAddress(ctx, sender)
	if err != nil {
		return nil, err
	}
	senderImpacted := notification.ImpactedAccount(notification.RoleSender, senderRef)

	single := func(payload notification.AccountPayload, impacted []notification.ImpactedAddress) ([]notification.Event, error) {
		event, err := notification.NewAccountEvent(bctx, tx.Hash, payload, impacted)
		if err != nil {
			return nil, err
		}
		return []notification.Event{event}, nil
	}

	switch {
	case effects.ModuleDeployed != nil:
		return single(notification.AccountPayload{ModuleDeployed: effects.ModuleDeployed},
			[]notification.ImpactedAddress{senderImpacted})

	case effects.ContractInitialized != nil:
		return single(notification.AccountPayload{ContractInitialized: effects.ContractInitialized},
			[]notification.ImpactedAddress{senderImpacted})

	case effects.DataRegistered != nil:
		return single(notification.AccountPayload{DataRegistered: effects.DataRegistered},
			[]notification.ImpactedAddress{senderImpacted})

	case effects.AccountTransfer != nil:
		receiverRef, err := s.resolver.ResolveAccountAddress(ctx, effects.AccountTransfer.Receiver)
		if err != nil {
			return nil, err
		}
		payload := notification.AccountPayload{Transfer: &notification.TransferInfo{
			Amount:   effects.AccountTransfer.Amount,
			Sender:   sender,
			Receiver: effects.AccountTransfer.Receiver,
			Memo:     effects.AccountTransfer.Memo,
		}}
		return s.transferPair(bctx, tx.Hash, payload, senderRef, receiverRef)

	case effects.TransferredWithSchedule != nil:
		receiverRef, err := s.resolver.ResolveAccountAddress(ctx, effects.TransferredWithSchedule.Receiver)
		if err != nil {
			return nil, err
		}
		payload := notification.AccountPayload{ScheduledTransfer: &notification.ScheduledTransferInfo{
			Sender:   sender,
			Receiver: effects.TransferredWithSchedule.Receiver,
			Total:    effects.TransferredWithSchedule.Total(),
			Schedule: effects.TransferredWithSchedule.Schedule,
		}}
		return s.transferPair(bctx, tx.Hash, payload, senderRef, receiverRef)

	case effects.DelegationConfigured != nil:
		payload := notification.AccountPayload{
			DelegationConfigured: &notification.DelegationConfiguredInfo{Events: effects.DelegationConfigured.Events},
		}
		payload.PreviousDelegatorInfo, err = s.previousDelegatorInfo(ctx, block, sender)
		if err != nil {
			return nil, err
		}

		impacted := []notification.ImpactedAddress{
			notification.ImpactedAccount(notification.RoleDelegator, senderRef),
		}
		target, err := s.delegationTarget(ctx, block, sender)
		if err != nil {
			return nil, err
		}
		if target != nil {
			poolRef, err := s.resolver.ResolveAccountIndex(ctx, *target)
			if err != nil {
				return nil, err
			}
			impacted = append([]notification.ImpactedAddress{
				notification.ImpactedAccount(notification.RoleValidator, poolRef),
			}, impacted...)
		}
		return single(payload, impacted)

	case effects.BakerConfigured != nil:
		previous, err := s.previousBakerInfo(ctx, block, sender)
		if err != nil {
			return nil, err
		}

		commission, err := s.findCommissionChanged(ctx, effects.BakerConfigured.Events)
		if err != nil {
			return nil, err
		}
		if commission == nil {
			payload := notification.AccountPayload{
				ValidatorConfigured:   &notification.ValidatorConfiguredInfo{Events: effects.BakerConfigured.Events},
				PreviousValidatorInfo: previous,
			}
			return single(payload, []notification.ImpactedAddress{
				notification.ImpactedAccount(notification.RoleValidator, senderRef),
			})
		}

		// One event per delegator of the pool, so each delegator's watchers
		// see the commission change of their validator.
		payload := notification.AccountPayload{
			CommissionChanged:     commission,
			PreviousValidatorInfo: previous,
		}
		events := make([]notification.Event, 0, len(commission.Delegators))
		for _, delegator := range commission.Delegators {
			delegatorRef, err := s.resolver.ResolveAccountIndex(ctx, delegator)
			if err != nil {
				return events, err
			}
			event, err := notification.NewAccountEvent(bctx, tx.Hash, payload, []notification.ImpactedAddress{
				notification.ImpactedAccount(notification.RoleDelegator, delegatorRef),
				notification.ImpactedAccount(notification.RoleValidator, senderRef),
			})
			if err != nil {
				return events, err
			}
			events = append(events, event)
		}
		return events, nil
	}

	return nil, nil
}

// transferPair emits the receiver-subject event first, then the
// sender-subject companion.
func (s *Service) transferPair(bctx notification.BlockContext, txHash string, payload notification.AccountPayload, senderRef, receiverRef chain.AccountRef) ([]notification.Event, error) {
	senderImpacted := notification.ImpactedAccount(notification.RoleSender, senderRef)
	receiverImpacted := notification.ImpactedAccount(notification.RoleReceiver, receiverRef)

	receiverEvent, err := notification.NewAccountEvent(bctx, txHash, payload,
		[]notification.ImpactedAddress{receiverImpacted, senderImpacted})
	if err != nil {
		return nil, err
	}
	senderEvent, err := notification.NewAccountEvent(bctx, txHash, payload,
		[]notification.ImpactedAddress{senderImpacted, receiverImpacted})
	if err != nil {
		return nil, err
	}
	return []notification.Event{receiverEvent, senderEvent}, nil
}

func (s *Service) otherFamilyEvents(ctx context.Context, block chain.Block, bctx notification.BlockContext, tx chain.Transaction) ([]notification.Event, error) {
	effects := tx.Account.Effects
	sender := tx.Account.Sender

	single := func(payload notification.OtherPayload, impacted []notification.ImpactedAddress) ([]notification.Event, error) {
		event, err := notification.NewOtherEvent(bctx, tx.Hash, payload, impacted)
		if err != nil {
			return nil, err
		}
		return []notification.Event{event}, nil
	}

	switch {
	case effects.BakerConfigured != nil:
		senderRef, err := s.resolver.ResolveAccountAddress(ctx, sender)
		if err != nil {
			return nil, err
		}
		impacted := []notification.ImpactedAddress{
			notification.ImpactedAccount(notification.RoleValidator, senderRef),
		}

		previous, err := s.previousBakerInfo(ctx, block, sender)
		if err != nil {
			return nil, err
		}

		lowered := loweredStake(effects.BakerConfigured.Events, previous)
		commission, err := s.findCommissionChanged(ctx, effects.BakerConfigured.Events)
		if err != nil {
			return nil, err
		}

		var events []notification.Event
		if lowered != nil {
			event, err := notification.NewOtherEvent(bctx, tx.Hash, notification.OtherPayload{
				LoweredStake:          lowered,
				PreviousValidatorInfo: previous,
			}, impacted)
			if err != nil {
				return events, err
			}
			events = append(events, event)
		}
		if commission != nil {
			event, err := notification.NewOtherEvent(bctx, tx.Hash, notification.OtherPayload{
				CommissionChanged:     commission,
				PreviousValidatorInfo: previous,
			}, impacted)
			if err != nil {
				return events, err
			}
			events = append(events, event)
		}
		if len(events) > 0 {
			return events, nil
		}
		return single(notification.OtherPayload{
			ValidatorConfigured:   &notification.ValidatorConfiguredInfo{Events: effects.BakerConfigured.Events},
			PreviousValidatorInfo: previous,
		}, impacted)

	case effects.AccountTransfer != nil:
		impacted, err := s.senderReceiverImpacted(ctx, sender, effects.AccountTransfer.Receiver)
		if err != nil {
			return nil, err
		}
		return single(notification.OtherPayload{Transfer: &notification.TransferInfo{
			Amount:   effects.AccountTransfer.Amount,
			Sender:   sender,
			Receiver: effects.AccountTransfer.Receiver,
			Memo:     effects.AccountTransfer.Memo,
		}}, impacted)

	case effects.TransferredWithSchedule != nil:
		impacted, err := s.senderReceiverImpacted(ctx, sender, effects.TransferredWithSchedule.Receiver)
		if err != nil {
			return nil, err
		}
		return single(notification.OtherPayload{ScheduledTransfer: &notification.ScheduledTransferInfo{
			Sender:   sender,
			Receiver: effects.TransferredWithSchedule.Receiver,
			Total:    effects.TransferredWithSchedule.Total(),
			Schedule: effects.TransferredWithSchedule.Schedule,
		}}, impacted)

	case effects.ModuleDeployed != nil:
		senderRef, err := s.resolver.ResolveAccountAddress(ctx, sender)
		if err != nil {
			return nil, err
		}
		return single(notification.OtherPayload{ModuleDeployed: effects.ModuleDeployed},
			[]notification.ImpactedAddress{notification.ImpactedAccount(notification.RoleSender, senderRef)})

	case effects.ContractInitialized != nil:
		senderRef, err := s.resolver.ResolveAccountAddress(ctx, sender)
		if err != nil {
			return nil, err
		}
		return single(notification.OtherPayload{ContractInitialized: effects.ContractInitialized},
			[]notification.ImpactedAddress{notification.ImpactedAccount(notification.RoleSender, senderRef)})
	}

	return nil, nil
}

func (s *Service) senderReceiverImpacted(ctx context.Context, sender, receiver chain.AccountAddress) ([]notification.ImpactedAddress, error) {
	senderRef, err := s.resolver.ResolveAccountAddress(ctx, sender)
	if err != nil {
		return nil, err
	}
	receiverRef, err := s.resolver.ResolveAccountAddress(ctx, receiver)
	if err != nil {
		return nil, err
	}
	return []notification.ImpactedAddress{
		notification.ImpactedAccount(notification.RoleSender, senderRef),
		notification.ImpactedAccount(notification.RoleReceiver, receiverRef),
	}, nil
}

// contractFamilyEvents emits one event per unique contract and receive
// method pair touched by a contract call trace.
func (s *Service) contractFamilyEvents(_ context.Context, _ chain.Block, bctx notification.BlockContext, tx chain.Transaction) ([]notification.Event, error) {
	update := tx.Account.Effects.ContractUpdateIssued
	if update == nil {
		return nil, nil
	}

	seen := types.NewSet[string]()
	var events []notification.Event
	for _, element := range update.Effects {
		if element.Updated == nil {
			continue
		}

		var method string
		if _, after, ok := strings.Cut(element.Updated.ReceiveName, "."); ok {
			method = after
		}

		key := element.Updated.Address.String() + "-" + method
		if seen.Contains(key) {
			continue
		}
		seen.Add(key)

		event, err := notification.NewContractEvent(bctx, tx.Hash, notification.ContractPayload{
			UpdateIssued: &notification.ContractUpdateInfo{
				Address: element.Updated.Address,
				Method:  method,
				Amount:  element.Updated.Amount,
			},
		}, []notification.ImpactedAddress{
			notification.ImpactedContract(element.Updated.Address),
		})
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}

	return events, nil
}

// chainUpdateEvents covers chain-level update transactions. These have no
// impacted addresses; routing is purely preference based.
func chainUpdateEvents(bctx notification.BlockContext, tx chain.Transaction) ([]notification.Event, error) {
	var payload notification.OtherPayload
	switch {
	case tx.Update.ProtocolUpdate != nil:
		payload.ProtocolUpdate = tx.Update.ProtocolUpdate
	case tx.Update.AddAnonymityRevoker != nil:
		payload.AddAnonymityRevoker = tx.Update.AddAnonymityRevoker
	case tx.Update.AddIdentityProvider != nil:
		payload.AddIdentityProvider = tx.Update.AddIdentityProvider
	default:
		return nil, nil
	}

	event, err := notification.NewOtherEvent(bctx, tx.Hash, payload, nil)
	if err != nil {
		return nil, err
	}
	return []notification.Event{event}, nil
}

func (s *Service) accountCreationEvents(ctx context.Context, bctx notification.BlockContext, tx chain.Transaction) ([]notification.Event, error) {
	ref, err := s.resolver.ResolveAccountAddress(ctx, tx.Creation.Address)
	if err != nil {
		return nil, err
	}

	event, err := notification.NewOtherEvent(bctx, tx.Hash, notification.OtherPayload{
		AccountCreated: &notification.AccountCreatedInfo{
			Address:        tx.Creation.Address,
			CredentialType: tx.Creation.CredentialType,
		},
	}, []notification.ImpactedAddress{
		notification.ImpactedAccount(notification.RoleSender, ref),
	})
	if err != nil {
		return nil, err
	}
	return []notification.Event{event}, nil
}

// loweredStake derives a stake reduction from the first decrease or removal
// in a configure transaction. The previous block's staked amount is the
// baseline; without it there is nothing to compare against.
func loweredStake(events []chain.BakerEvent, previous *chain.BakerStakeInfo) *notification.LoweredStake {
	if previous == nil || previous.StakedAmount == 0 {
		return nil
	}

	for _, event := range events {
		switch {
		case event.StakeDecreased != nil:
			unstaked := previous.StakedAmount - event.StakeDecreased.NewStake
			return &notification.LoweredStake{
				UnstakedAmount:     unstaked,
				NewStake:           event.StakeDecreased.NewStake,
				PercentageUnstaked: float64(unstaked) / float64(previous.StakedAmount),
			}
		case event.Removed != nil:
			return &notification.LoweredStake{
				Removed:            true,
				UnstakedAmount:     previous.StakedAmount,
				NewStake:           0,
				PercentageUnstaked: 1,
			}
		}
	}
	return nil
}

// findCommissionChanged collects the commission updates of a configure
// transaction and resolves the affected pool's delegators to account
// indices.
func (s *Service) findCommissionChanged(ctx context.Context, events []chain.BakerEvent) (*notification.CommissionChanged, error) {
	var (
		commissionEvents []chain.BakerEvent
		validatorID      *chain.AccountIndex
	)
	for _, event := range events {
		var bakerID chain.AccountIndex
		switch {
		case event.SetBakingRewardCommission != nil:
			bakerID = event.SetBakingRewardCommission.BakerID
		case event.SetTransactionFeeCommission != nil:
			bakerID = event.SetTransactionFeeCommission.BakerID
		case event.SetFinalizationRewardCommission != nil:
			bakerID = event.SetFinalizationRewardCommission.BakerID
		default:
			continue
		}
		commissionEvents = append(commissionEvents, event)
		validatorID = &bakerID
	}
	if len(commissionEvents) == 0 {
		return nil, nil
	}

	delegators, err := s.node.PoolDelegators(ctx, *validatorID, chain.LastFinal)
	if err != nil {
		return nil, fmt.Errorf("fetching delegators for pool %d: %w", *validatorID, err)
	}

	indices := make([]chain.AccountIndex, 0, len(delegators))
	for _, delegator := range delegators {
		ref, err := s.resolver.ResolveAccountAddress(ctx, delegator.Account)
		if err != nil {
			return nil, err
		}
		indices = append(indices, ref.Index)
	}

	return &notification.CommissionChanged{
		ValidatorID: *validatorID,
		Events:      commissionEvents,
		Delegators:  indices,
	}, nil
}
