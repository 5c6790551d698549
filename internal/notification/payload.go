package notification

import (
	"time"

	"github.com/evanpardo/ccdwatch/internal/chain"
)

// TransferInfo describes a plain CCD transfer.
type TransferInfo struct {
	Amount   chain.MicroCCD       `json:"amount"`
	Sender   chain.AccountAddress `json:"sender"`
	Receiver chain.AccountAddress `json:"receiver"`
	Memo     string               `json:"memo,omitempty"`
}

// ScheduledTransferInfo describes a transfer released over a vesting
// schedule. Total is the sum of all tranches.
type ScheduledTransferInfo struct {
	Sender   chain.AccountAddress     `json:"sender"`
	Receiver chain.AccountAddress     `json:"receiver"`
	Total    chain.MicroCCD           `json:"total"`
	Schedule []chain.ScheduledRelease `json:"schedule"`
}

// ValidatorConfiguredInfo carries the raw baker sub-events of a configure
// transaction.
type ValidatorConfiguredInfo struct {
	Events []chain.BakerEvent `json:"events"`
}

// DelegationConfiguredInfo carries the raw delegation sub-events of a
// configure transaction.
type DelegationConfiguredInfo struct {
	Events []chain.DelegationEvent `json:"events"`
}

// CommissionChanged is a validator commission update fanned out to the
// pool's delegators.
type CommissionChanged struct {
	ValidatorID chain.AccountIndex   `json:"validator_id"`
	Events      []chain.BakerEvent   `json:"events"`
	Delegators  []chain.AccountIndex `json:"delegators"`
}

// LoweredStake summarizes a validator reducing or withdrawing its stake.
// Removed marks a full withdrawal.
type LoweredStake struct {
	Removed            bool           `json:"removed"`
	UnstakedAmount     chain.MicroCCD `json:"unstaked_amount"`
	NewStake           chain.MicroCCD `json:"new_stake"`
	PercentageUnstaked float64        `json:"percentage_unstaked"`
}

// TokenEventKind distinguishes CIS-2 log entries.
type TokenEventKind string

const (
	TokenTransfer TokenEventKind = "token_transfer"
	TokenMint     TokenEventKind = "token_mint"
	TokenBurn     TokenEventKind = "token_burn"
)

// TokenEvent is a CIS-2 token movement. From and To are raw address
// strings. TokenName is resolved from the stored token table when known.
type TokenEvent struct {
	Kind         TokenEventKind `json:"kind"`
	TokenAddress string         `json:"token_address"`
	TokenName    string         `json:"token_name"`
	From         string         `json:"from,omitempty"`
	To           string         `json:"to,omitempty"`
	Amount       chain.MicroCCD `json:"amount"`
}

// AccountPayload is the account-family event body. Exactly one topic field
// is set; PreviousValidatorInfo and PreviousDelegatorInfo are supplemental.
type AccountPayload struct {
	ModuleDeployed       *chain.ModuleRef           `json:"module_deployed,omitempty"`
	ContractInitialized  *chain.ContractInitialized `json:"contract_initialized,omitempty"`
	Transfer             *TransferInfo              `json:"account_transfer,omitempty"`
	ScheduledTransfer    *ScheduledTransferInfo     `json:"transferred_with_schedule,omitempty"`
	DataRegistered       *chain.RegisteredData      `json:"data_registered,omitempty"`
	ValidatorConfigured  *ValidatorConfiguredInfo   `json:"validator_configured,omitempty"`
	DelegationConfigured *DelegationConfiguredInfo  `json:"delegation_configured,omitempty"`
	CommissionChanged    *CommissionChanged         `json:"validator_commission_changed,omitempty"`
	PaydayReward         *chain.PaydayAccountReward `json:"payday_account_reward,omitempty"`
	Token                *TokenEvent                `json:"token_event,omitempty"`

	PreviousValidatorInfo *chain.BakerStakeInfo     `json:"previous_validator_info,omitempty"`
	PreviousDelegatorInfo *chain.DelegatorStakeInfo `json:"previous_delegator_info,omitempty"`
}

func (p AccountPayload) topics() []bool {
	return []bool{
		p.ModuleDeployed != nil,
		p.ContractInitialized != nil,
		p.Transfer != nil,
		p.ScheduledTransfer != nil,
		p.DataRegistered != nil,
		p.ValidatorConfigured != nil,
		p.DelegationConfigured != nil,
		p.CommissionChanged != nil,
		p.PaydayReward != nil,
		p.Token != nil,
	}
}

func (p AccountPayload) validate() error { return validateTopics(p.topics()) }

func (p AccountPayload) amount() *chain.MicroCCD {
	switch {
	case p.Transfer != nil:
		return &p.Transfer.Amount
	case p.ScheduledTransfer != nil:
		return &p.ScheduledTransfer.Total
	}
	return nil
}

// BlockValidatedInfo carries the pool state of the baker that produced a
// block, plus its next projected production slot when available.
type BlockValidatedInfo struct {
	CurrentPoolInfo *chain.PoolInfo `json:"current_pool_info,omitempty"`
	EarliestWinTime *time.Time      `json:"earliest_win_time,omitempty"`
}

// PaydayPoolRewardInfo pairs a pool reward with the pool state at the last
// payday block and the owner's own account reward from the same payout.
type PaydayPoolRewardInfo struct {
	Reward                     chain.PaydayPoolReward     `json:"reward"`
	PoolInfo                   *chain.PoolInfo            `json:"pool_info,omitempty"`
	CorrespondingAccountReward *chain.PaydayAccountReward `json:"corresponding_account_reward,omitempty"`
}

// RunningBehindInfo reports a monitored node falling behind the chain head.
type RunningBehindInfo struct {
	NodeName   string `json:"node_name"`
	NodeHeight uint64 `json:"node_height"`
	HeadHeight uint64 `json:"head_height"`
	Lag        uint64 `json:"lag"`
}

// ValidatorPayload is the validator-family event body. Exactly one topic
// field is set.
type ValidatorPayload struct {
	BlockValidated       *BlockValidatedInfo       `json:"block_validated,omitempty"`
	ValidatorConfigured  *ValidatorConfiguredInfo  `json:"validator_configured,omitempty"`
	DelegationConfigured *DelegationConfiguredInfo `json:"delegation_configured,omitempty"`
	PaydayPoolReward     *PaydayPoolRewardInfo     `json:"payday_pool_reward,omitempty"`
	RunningBehind        *RunningBehindInfo        `json:"validator_running_behind,omitempty"`

	PreviousValidatorInfo *chain.BakerStakeInfo     `json:"previous_validator_info,omitempty"`
	PreviousDelegatorInfo *chain.DelegatorStakeInfo `json:"previous_delegator_info,omitempty"`
}

func (p ValidatorPayload) topics() []bool {
	return []bool{
		p.BlockValidated != nil,
		p.ValidatorConfigured != nil,
		p.DelegationConfigured != nil,
		p.PaydayPoolReward != nil,
		p.RunningBehind != nil,
	}
}

func (p ValidatorPayload) validate() error { return validateTopics(p.topics()) }

// ContractUpdateInfo identifies one receive method invocation on one
// contract instance. Method is the part of the receive name after the dot.
type ContractUpdateInfo struct {
	Address chain.ContractAddress `json:"address"`
	Method  string                `json:"method"`
	Amount  chain.MicroCCD        `json:"amount"`
}

// ContractPayload is the contract-family event body.
type ContractPayload struct {
	UpdateIssued *ContractUpdateInfo `json:"contract_update_issued,omitempty"`
}

func (p ContractPayload) validate() error {
	return validateTopics([]bool{p.UpdateIssued != nil})
}

// DomainMinted records a CCD domain name minted through the name service
// contract.
type DomainMinted struct {
	Name         string `json:"name"`
	TokenAddress string `json:"token_address"`
}

// AccountCreatedInfo records a new account credential deployment.
type AccountCreatedInfo struct {
	Address        chain.AccountAddress `json:"address"`
	CredentialType string               `json:"credential_type"`
}

// OtherPayload is the catch-all event body for chain-wide happenings.
// Exactly one topic field is set.
type OtherPayload struct {
	ProtocolUpdate      *chain.ProtocolUpdate      `json:"protocol_update,omitempty"`
	AddAnonymityRevoker *chain.ArInfo              `json:"add_anonymity_revoker_update,omitempty"`
	AddIdentityProvider *chain.IpInfo              `json:"add_identity_provider_update,omitempty"`
	ModuleDeployed      *chain.ModuleRef           `json:"module_deployed,omitempty"`
	ContractInitialized *chain.ContractInitialized `json:"contract_initialized,omitempty"`
	LoweredStake        *LoweredStake              `json:"validator_lowered_stake,omitempty"`
	CommissionChanged   *CommissionChanged         `json:"validator_commission_changed,omitempty"`
	Transfer            *TransferInfo              `json:"account_transfer,omitempty"`
	ScheduledTransfer   *ScheduledTransferInfo     `json:"transferred_with_schedule,omitempty"`
	DomainMinted        *DomainMinted              `json:"domain_name_minted,omitempty"`
	AccountCreated      *AccountCreatedInfo        `json:"account_created,omitempty"`
	ValidatorConfigured *ValidatorConfiguredInfo   `json:"validator_configured,omitempty"`

	PreviousValidatorInfo *chain.BakerStakeInfo `json:"previous_validator_info,omitempty"`
}

func (p OtherPayload) topics() []bool {
	return []bool{
		p.ProtocolUpdate != nil,
		p.AddAnonymityRevoker != nil,
		p.AddIdentityProvider != nil,
		p.ModuleDeployed != nil,
		p.ContractInitialized != nil,
		p.LoweredStake != nil,
		p.CommissionChanged != nil,
		p.Transfer != nil,
		p.ScheduledTransfer != nil,
		p.DomainMinted != nil,
		p.AccountCreated != nil,
		p.ValidatorConfigured != nil,
	}
}

func (p OtherPayload) validate() error { return validateTopics(p.topics()) }

func (p OtherPayload) amount() *chain.MicroCCD {
	switch {
	case p.Transfer != nil:
		return &p.Transfer.Amount
	case p.ScheduledTransfer != nil:
		return &p.ScheduledTransfer.Total
	case p.LoweredStake != nil:
		return &p.LoweredStake.UnstakedAmount
	}
	return nil
}

func validateTopics(set []bool) error {
	count := 0
	for _, s := range set {
		if s {
			count++
		}
	}
	switch {
	case count == 0:
		return ErrNoTopic
	case count > 1:
		return ErrMultipleTopics
	}
	return nil
}
