// Package chain holds the on-chain data model read from the document store:
// blocks with their transactions, protocol-level special events, and
// contract-logged (token standard) events, plus the account and pool queries
// answered by the node client.
package chain

import "time"

// Network distinguishes the chain a block came from.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// Block is one finalized block, fully hydrated from the document store's
// side tables. Blocks are immutable once loaded and owned by the pipeline
// run that fetched them.
type Block struct {
	Network       Network        `json:"network"`
	Height        uint64         `json:"height"`
	Hash          string         `json:"hash"`
	ParentHash    string         `json:"parent_hash"`
	SlotTime      time.Time      `json:"slot_time"`
	Baker         *AccountIndex  `json:"baker,omitempty"`
	Transactions  []Transaction  `json:"transactions,omitempty"`
	SpecialEvents []SpecialEvent `json:"special_events,omitempty"`
	LoggedEvents  []LoggedEvent  `json:"logged_events,omitempty"`
}

// Transaction is one block item. Exactly one of Account, Update, or
// Creation is set.
type Transaction struct {
	Hash     string              `json:"hash"`
	Account  *AccountTransaction `json:"account,omitempty"`
	Update   *ChainUpdate        `json:"update,omitempty"`
	Creation *AccountCreation    `json:"creation,omitempty"`
}

// AccountTransaction is a transaction submitted by an account, carrying a
// single populated effect.
type AccountTransaction struct {
	Sender  AccountAddress `json:"sender"`
	Effects Effects        `json:"effects"`
}

// ChainUpdate is a protocol-level update transaction. Exactly one payload
// field is set.
type ChainUpdate struct {
	ProtocolUpdate      *ProtocolUpdate `json:"protocol_update,omitempty"`
	AddAnonymityRevoker *ArInfo         `json:"add_anonymity_revoker_update,omitempty"`
	AddIdentityProvider *IpInfo         `json:"add_identity_provider_update,omitempty"`
}

// AccountCreation records a new account entering the chain.
type AccountCreation struct {
	Address        AccountAddress `json:"address"`
	CredentialType string         `json:"credential_type,omitempty"`
}

// ProtocolUpdate announces a protocol upgrade.
type ProtocolUpdate struct {
	Message          string `json:"message"`
	SpecificationURL string `json:"specification_url,omitempty"`
}

// ArInfo describes an anonymity revoker added to the chain.
type ArInfo struct {
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// IpInfo describes an identity provider added to the chain.
type IpInfo struct {
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}
