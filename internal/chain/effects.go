package chain

import "time"

// Effects is the outcome of an account transaction. Exactly one field is
// populated; FieldSet names it.
type Effects struct {
	ModuleDeployed          *ModuleRef               `json:"module_deployed,omitempty"`
	ContractInitialized     *ContractInitialized     `json:"contract_initialized,omitempty"`
	ContractUpdateIssued    *ContractUpdateIssued    `json:"contract_update_issued,omitempty"`
	AccountTransfer         *AccountTransfer         `json:"account_transfer,omitempty"`
	TransferredWithSchedule *TransferredWithSchedule `json:"transferred_with_schedule,omitempty"`
	DataRegistered          *RegisteredData          `json:"data_registered,omitempty"`
	BakerConfigured         *BakerConfigured         `json:"baker_configured,omitempty"`
	DelegationConfigured    *DelegationConfigured    `json:"delegation_configured,omitempty"`
}

// FieldSet returns the name of the single populated effect field, or "" for
// an empty effects value.
func (e Effects) FieldSet() string {
	switch {
	case e.ModuleDeployed != nil:
		return "module_deployed"
	case e.ContractInitialized != nil:
		return "contract_initialized"
	case e.ContractUpdateIssued != nil:
		return "contract_update_issued"
	case e.AccountTransfer != nil:
		return "account_transfer"
	case e.TransferredWithSchedule != nil:
		return "transferred_with_schedule"
	case e.DataRegistered != nil:
		return "data_registered"
	case e.BakerConfigured != nil:
		return "baker_configured"
	case e.DelegationConfigured != nil:
		return "delegation_configured"
	}
	return ""
}

// ModuleRef is the hash reference of a deployed smart contract module.
type ModuleRef string

// RegisteredData is arbitrary data registered on chain by an account.
type RegisteredData string

// ContractInitialized records a new contract instance.
type ContractInitialized struct {
	Address  ContractAddress `json:"address"`
	InitName string          `json:"init_name"`
	Amount   MicroCCD        `json:"amount"`
}

// ContractUpdateIssued is the trace of a contract call, possibly touching
// several instances.
type ContractUpdateIssued struct {
	Effects []ContractTraceElement `json:"effects"`
}

// ContractTraceElement is one step of a contract call trace. Only updates
// are relevant for notifications; other step kinds are left nil.
type ContractTraceElement struct {
	Updated *InstanceUpdated `json:"updated,omitempty"`
}

// InstanceUpdated records a receive method invocation on one instance. The
// receive name is qualified as "<contract>.<method>".
type InstanceUpdated struct {
	Address     ContractAddress `json:"address"`
	ReceiveName string          `json:"receive_name"`
	Amount      MicroCCD        `json:"amount"`
}

// AccountTransfer moves CCD between two accounts.
type AccountTransfer struct {
	Amount   MicroCCD       `json:"amount"`
	Receiver AccountAddress `json:"receiver"`
	Memo     string         `json:"memo,omitempty"`
}

// TransferredWithSchedule releases CCD to the receiver over a vesting
// schedule.
type TransferredWithSchedule struct {
	Receiver AccountAddress      `json:"receiver"`
	Schedule []ScheduledRelease  `json:"schedule"`
}

// ScheduledRelease is one tranche of a scheduled transfer.
type ScheduledRelease struct {
	Timestamp time.Time `json:"timestamp"`
	Amount    MicroCCD  `json:"amount"`
}

// Total sums all scheduled tranches.
func (t TransferredWithSchedule) Total() MicroCCD {
	var total MicroCCD
	for _, release := range t.Schedule {
		total += release.Amount
	}
	return total
}

// BakerConfigured groups the baker sub-events produced by one configure
// transaction.
type BakerConfigured struct {
	Events []BakerEvent `json:"events"`
}

// DelegationConfigured groups the delegation sub-events produced by one
// configure transaction.
type DelegationConfigured struct {
	Events []DelegationEvent `json:"events"`
}

// BakerEvent is one sparse baker sub-event; at most one field is set.
type BakerEvent struct {
	Added                           *BakerAdded       `json:"baker_added,omitempty"`
	Removed                         *AccountIndex     `json:"baker_removed,omitempty"`
	StakeIncreased                  *BakerStakeUpdated `json:"baker_stake_increased,omitempty"`
	StakeDecreased                  *BakerStakeUpdated `json:"baker_stake_decreased,omitempty"`
	RestakeEarningsUpdated          *BakerRestake     `json:"baker_restake_earnings_updated,omitempty"`
	SetOpenStatus                   *BakerOpenStatus  `json:"baker_set_open_status,omitempty"`
	SetBakingRewardCommission       *CommissionUpdate `json:"baker_set_baking_reward_commission,omitempty"`
	SetTransactionFeeCommission     *CommissionUpdate `json:"baker_set_transaction_fee_commission,omitempty"`
	SetFinalizationRewardCommission *CommissionUpdate `json:"baker_set_finalization_reward_commission,omitempty"`
}

// BakerAdded records an account registering as a baker.
type BakerAdded struct {
	BakerID AccountIndex `json:"baker_id"`
	Stake   MicroCCD     `json:"stake"`
}

// BakerStakeUpdated records a baker's stake change.
type BakerStakeUpdated struct {
	BakerID  AccountIndex `json:"baker_id"`
	NewStake MicroCCD     `json:"new_stake"`
}

// BakerRestake records the restake-earnings flag change.
type BakerRestake struct {
	BakerID         AccountIndex `json:"baker_id"`
	RestakeEarnings bool         `json:"restake_earnings"`
}

// BakerOpenStatus records a pool's open-status change.
type BakerOpenStatus struct {
	BakerID    AccountIndex `json:"baker_id"`
	OpenStatus string       `json:"open_status"`
}

// CommissionUpdate records one commission rate change on a pool.
type CommissionUpdate struct {
	BakerID AccountIndex `json:"baker_id"`
	Rate    float64      `json:"rate"`
}

// DelegationEvent is one sparse delegation sub-event; at most one field is
// set.
type DelegationEvent struct {
	Added            *AccountIndex             `json:"delegation_added,omitempty"`
	Removed          *AccountIndex             `json:"delegation_removed,omitempty"`
	StakeIncreased   *DelegationStakeUpdated   `json:"delegation_stake_increased,omitempty"`
	StakeDecreased   *DelegationStakeUpdated   `json:"delegation_stake_decreased,omitempty"`
	SetDelegationTarget *DelegationTargetUpdated `json:"delegation_set_delegation_target,omitempty"`
}

// DelegationStakeUpdated records a delegator's stake change.
type DelegationStakeUpdated struct {
	DelegatorID AccountIndex `json:"delegator_id"`
	NewStake    MicroCCD     `json:"new_stake"`
}

// DelegationTargetUpdated records a delegator re-targeting its stake. Target
// is nil for passive delegation.
type DelegationTargetUpdated struct {
	DelegatorID AccountIndex  `json:"delegator_id"`
	Target      *AccountIndex `json:"target,omitempty"`
}
