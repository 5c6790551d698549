package chain

// SpecialEvent is a protocol-generated block event. Exactly one field is
// populated; events outside the payday family are not carried.
type SpecialEvent struct {
	PaydayAccountReward *PaydayAccountReward `json:"payday_account_reward,omitempty"`
	PaydayPoolReward    *PaydayPoolReward    `json:"payday_pool_reward,omitempty"`
}

// PaydayAccountReward is the per-account reward paid out at a payday block.
type PaydayAccountReward struct {
	Account            AccountAddress `json:"account"`
	TransactionFees    MicroCCD       `json:"transaction_fees"`
	BakerReward        MicroCCD       `json:"baker_reward"`
	FinalizationReward MicroCCD       `json:"finalization_reward"`
}

// PaydayPoolReward is the per-pool reward paid out at a payday block. A nil
// PoolOwner denotes the passive delegation pool.
type PaydayPoolReward struct {
	PoolOwner          *AccountIndex `json:"pool_owner,omitempty"`
	TransactionFees    MicroCCD      `json:"transaction_fees"`
	BakerReward        MicroCCD      `json:"baker_reward"`
	FinalizationReward MicroCCD      `json:"finalization_reward"`
}
