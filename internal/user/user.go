package user

import (
	"strconv"

	"github.com/evanpardo/ccdwatch/internal/chain"
)

// Channel is a delivery channel for notifications.
type Channel string

const (
	ChannelChat  Channel = "chat"
	ChannelEmail Channel = "email"
)

// Channels lists every delivery channel.
func Channels() []Channel {
	return []Channel{ChannelChat, ChannelEmail}
}

// ChannelPreference gates one channel for one topic. A nil Limit means no
// amount threshold; otherwise only amounts strictly above it pass.
type ChannelPreference struct {
	Enabled bool            `json:"enabled"`
	Limit   *chain.MicroCCD `json:"limit,omitempty"`
}

// Allows reports whether the channel accepts an event moving the given
// amount. A nil amount means the topic carries no comparable amount and the
// limit is not consulted.
func (c *ChannelPreference) Allows(amount *chain.MicroCCD) bool {
	if c == nil || !c.Enabled {
		return false
	}
	if c.Limit == nil || amount == nil {
		return true
	}
	return *amount > *c.Limit
}

// Preference is the per-topic channel configuration.
type Preference struct {
	Chat  *ChannelPreference `json:"chat,omitempty"`
	Email *ChannelPreference `json:"email,omitempty"`
}

// Channel returns the configuration for one channel, nil when unset.
func (p *Preference) Channel(ch Channel) *ChannelPreference {
	if p == nil {
		return nil
	}
	switch ch {
	case ChannelChat:
		return p.Chat
	case ChannelEmail:
		return p.Email
	}
	return nil
}

// AccountPreferences gates account-family topics for one watched account.
type AccountPreferences struct {
	ModuleDeployed          *Preference `json:"module_deployed,omitempty"`
	ContractInitialized     *Preference `json:"contract_initialized,omitempty"`
	AccountTransfer         *Preference `json:"account_transfer,omitempty"`
	TransferredWithSchedule *Preference `json:"transferred_with_schedule,omitempty"`
	DataRegistered          *Preference `json:"data_registered,omitempty"`
	ValidatorConfigured     *Preference `json:"validator_configured,omitempty"`
	DelegationConfigured    *Preference `json:"delegation_configured,omitempty"`
	CommissionChanged       *Preference `json:"validator_commission_changed,omitempty"`
	PaydayAccountReward     *Preference `json:"payday_account_reward,omitempty"`
	TokenEvent              *Preference `json:"token_event,omitempty"`
}

// ValidatorPreferences gates validator-family topics for one watched
// account.
type ValidatorPreferences struct {
	ValidatorConfigured  *Preference `json:"validator_configured,omitempty"`
	DelegationConfigured *Preference `json:"delegation_configured,omitempty"`
	PaydayPoolReward     *Preference `json:"payday_pool_reward,omitempty"`
	BlockValidated       *Preference `json:"block_validated,omitempty"`
	RunningBehind        *Preference `json:"validator_running_behind,omitempty"`
}

// OtherPreferences gates chain-wide topics for one user.
type OtherPreferences struct {
	ProtocolUpdate          *Preference `json:"protocol_update,omitempty"`
	AddAnonymityRevoker     *Preference `json:"add_anonymity_revoker_update,omitempty"`
	AddIdentityProvider     *Preference `json:"add_identity_provider_update,omitempty"`
	ModuleDeployed          *Preference `json:"module_deployed,omitempty"`
	ContractInitialized     *Preference `json:"contract_initialized,omitempty"`
	LoweredStake            *Preference `json:"validator_lowered_stake,omitempty"`
	CommissionChanged       *Preference `json:"validator_commission_changed,omitempty"`
	AccountTransfer         *Preference `json:"account_transfer,omitempty"`
	TransferredWithSchedule *Preference `json:"transferred_with_schedule,omitempty"`
	DomainMinted            *Preference `json:"domain_name_minted,omitempty"`
	AccountCreated          *Preference `json:"account_created,omitempty"`
}

// ContractPreferences gates contract-family topics for one watched
// contract. ContractUpdateIssued keys are receive method names; only methods
// explicitly present are routable.
type ContractPreferences struct {
	ContractUpdateIssued map[string]*Preference `json:"contract_update_issued,omitempty"`
}

// Account is one account a user watches, keyed in User.Accounts by the
// decimal account index.
type Account struct {
	Label            string                `json:"label,omitempty"`
	Index            chain.AccountIndex    `json:"index"`
	Address          chain.AccountAddress  `json:"address"`
	DelegationTarget *chain.AccountIndex   `json:"delegation_target,omitempty"`
	Account          *AccountPreferences   `json:"account_preferences,omitempty"`
	Validator        *ValidatorPreferences `json:"validator_preferences,omitempty"`
}

// Contract is one contract a user watches, keyed in User.Contracts by the
// decimal contract index.
type Contract struct {
	Label string               `json:"label,omitempty"`
	Prefs *ContractPreferences `json:"preferences,omitempty"`
}

// User is one registered notification recipient. Token is the stable user
// identifier; a zero ChatID or empty Email disables that channel outright.
type User struct {
	Token     string              `json:"token"`
	ChatID    int64               `json:"chat_id,omitempty"`
	Email     string              `json:"email,omitempty"`
	Accounts  map[string]Account  `json:"accounts,omitempty"`
	Contracts map[string]Contract `json:"contracts,omitempty"`
	Other     *OtherPreferences   `json:"other,omitempty"`
}

// AccountByIndex looks up a watched account by its chain index.
func (u User) AccountByIndex(index chain.AccountIndex) (Account, bool) {
	acc, ok := u.Accounts[index.String()]
	return acc, ok
}

// ContractByIndex looks up a watched contract by its chain index.
func (u User) ContractByIndex(index uint64) (Contract, bool) {
	c, ok := u.Contracts[strconv.FormatUint(index, 10)]
	return c, ok
}
