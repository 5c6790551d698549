package chain

import "time"

// AccountInfo is the on-chain state of an account at some block.
type AccountInfo struct {
	Address AccountAddress `json:"address"`
	Index   AccountIndex   `json:"index"`
	Amount  MicroCCD       `json:"amount"`
	Stake   *StakeInfo     `json:"stake,omitempty"`
}

// StakeInfo describes how an account stakes. At most one field is set.
type StakeInfo struct {
	Baker     *BakerStakeInfo     `json:"baker,omitempty"`
	Delegator *DelegatorStakeInfo `json:"delegator,omitempty"`
}

// BakerStakeInfo is the staking state of a validator account.
type BakerStakeInfo struct {
	BakerID         AccountIndex `json:"baker_id"`
	StakedAmount    MicroCCD     `json:"staked_amount"`
	RestakeEarnings bool         `json:"restake_earnings"`
}

// DelegatorStakeInfo is the staking state of a delegator account. A nil
// Target denotes passive delegation.
type DelegatorStakeInfo struct {
	StakedAmount    MicroCCD      `json:"staked_amount"`
	RestakeEarnings bool          `json:"restake_earnings"`
	Target          *AccountIndex `json:"target,omitempty"`
}

// CommissionRates are the three commission rates of a pool.
type CommissionRates struct {
	Baking             float64 `json:"baking"`
	TransactionFees    float64 `json:"transaction_fees"`
	FinalizationReward float64 `json:"finalization_reward"`
}

// PoolInfo is the state of a baker pool at some block.
type PoolInfo struct {
	BakerID          AccountIndex    `json:"baker_id"`
	BakerAddress     AccountAddress  `json:"baker_address"`
	BakerStake       MicroCCD        `json:"baker_stake"`
	DelegatedStake   MicroCCD        `json:"delegated_stake"`
	DelegatorCount   int             `json:"delegator_count"`
	OpenStatus       string          `json:"open_status"`
	CommissionRates  CommissionRates `json:"commission_rates"`
}

// PoolDelegator is one delegator of a pool.
type PoolDelegator struct {
	Account AccountAddress `json:"account"`
	Stake   MicroCCD       `json:"stake"`
}

// NodeStatus is a dashboard snapshot of a monitored node. ConsensusBakerID
// is nil when the node is not configured as a validator.
type NodeStatus struct {
	NodeName             string        `json:"node_name"`
	NodeID               string        `json:"node_id"`
	ConsensusBakerID     *AccountIndex `json:"consensus_baker_id,omitempty"`
	FinalizedBlockHeight uint64        `json:"finalized_block_height"`
	LastSeen             time.Time     `json:"last_seen"`
}
