package notification

import (
	"errors"
	"time"

	"github.com/evanpardo/ccdwatch/internal/chain"
)

var (
	// ErrNoFamily is returned when an event is built without a payload.
	ErrNoFamily = errors.New("event has no family payload")
	// ErrMultipleFamilies is returned when more than one family payload is
	// set on the same event.
	ErrMultipleFamilies = errors.New("event has more than one family payload")
	// ErrNoTopic is returned when a family payload carries no topic field.
	ErrNoTopic = errors.New("event payload has no topic")
	// ErrMultipleTopics is returned when a family payload carries more than
	// one topic field.
	ErrMultipleTopics = errors.New("event payload has more than one topic")
)

// Family partitions events by the preference table that gates them.
type Family string

const (
	FamilyAccount   Family = "account"
	FamilyValidator Family = "validator"
	FamilyContract  Family = "contract"
	FamilyOther     Family = "other"
)

// Role qualifies how an address relates to the event it is attached to.
type Role string

const (
	RoleAccount   Role = "account"
	RoleSender    Role = "sender"
	RoleReceiver  Role = "receiver"
	RoleDelegator Role = "delegator"
	RoleValidator Role = "validator"
	RoleContract  Role = "contract"
)

// ImpactedAddress is one party touched by an event. The first entry of an
// event's impacted list is the canonical subject used for preference
// matching. Label is filled in at routing time.
type ImpactedAddress struct {
	Label   string        `json:"label,omitempty"`
	Address chain.Address `json:"address"`
	Role    Role          `json:"role"`
}

// ImpactedAccount builds an account-role impacted entry.
func ImpactedAccount(role Role, ref chain.AccountRef) ImpactedAddress {
	return ImpactedAddress{Address: chain.Address{Account: &ref}, Role: role}
}

// ImpactedContract builds a contract-role impacted entry.
func ImpactedContract(addr chain.ContractAddress) ImpactedAddress {
	return ImpactedAddress{Address: chain.Address{Contract: &addr}, Role: RoleContract}
}

// Event is a single routable outcome extracted from a block. Exactly one of
// the four family payloads is populated; constructors enforce this.
type Event struct {
	BlockHeight uint64    `json:"block_height"`
	BlockHash   string    `json:"block_hash"`
	SlotTime    time.Time `json:"slot_time"`
	TxHash      string    `json:"tx_hash,omitempty"`

	Account   *AccountPayload   `json:"account,omitempty"`
	Validator *ValidatorPayload `json:"validator,omitempty"`
	Contract  *ContractPayload  `json:"contract,omitempty"`
	Other     *OtherPayload     `json:"other,omitempty"`

	Impacted []ImpactedAddress `json:"impacted"`
}

// Validate checks the one-of structure of the event. Events built through
// the constructors always pass; this guards events decoded from storage.
func (e Event) Validate() error {
	count := 0
	for _, set := range []bool{e.Account != nil, e.Validator != nil, e.Contract != nil, e.Other != nil} {
		if set {
			count++
		}
	}
	switch {
	case count == 0:
		return ErrNoFamily
	case count > 1:
		return ErrMultipleFamilies
	}
	switch {
	case e.Account != nil:
		return e.Account.validate()
	case e.Validator != nil:
		return e.Validator.validate()
	case e.Contract != nil:
		return e.Contract.validate()
	default:
		return e.Other.validate()
	}
}

// Family reports which payload is set. Events built through the constructors
// always have exactly one.
func (e Event) Family() Family {
	switch {
	case e.Account != nil:
		return FamilyAccount
	case e.Validator != nil:
		return FamilyValidator
	case e.Contract != nil:
		return FamilyContract
	default:
		return FamilyOther
	}
}

// Subject returns the canonical subject of the event, the first impacted
// address, or false when the impacted list is empty.
func (e Event) Subject() (ImpactedAddress, bool) {
	if len(e.Impacted) == 0 {
		return ImpactedAddress{}, false
	}
	return e.Impacted[0], true
}

// Amount returns the CCD amount the event moves, for channel threshold
// checks. It is nil for topics without a comparable amount; those are never
// gated by a limit.
func (e Event) Amount() *chain.MicroCCD {
	switch {
	case e.Account != nil:
		return e.Account.amount()
	case e.Other != nil:
		return e.Other.amount()
	}
	return nil
}

// BlockContext carries the block coordinates shared by every event the
// block produces.
type BlockContext struct {
	Height   uint64
	Hash     string
	SlotTime time.Time
}

func newEvent(blk BlockContext, txHash string, impacted []ImpactedAddress) Event {
	return Event{
		BlockHeight: blk.Height,
		BlockHash:   blk.Hash,
		SlotTime:    blk.SlotTime,
		TxHash:      txHash,
		Impacted:    impacted,
	}
}

// NewAccountEvent builds an account-family event, validating that the
// payload carries exactly one topic.
func NewAccountEvent(blk BlockContext, txHash string, payload AccountPayload, impacted []ImpactedAddress) (Event, error) {
	if err := payload.validate(); err != nil {
		return Event{}, err
	}
	e := newEvent(blk, txHash, impacted)
	e.Account = &payload
	return e, nil
}

// NewValidatorEvent builds a validator-family event, validating that the
// payload carries exactly one topic.
func NewValidatorEvent(blk BlockContext, txHash string, payload ValidatorPayload, impacted []ImpactedAddress) (Event, error) {
	if err := payload.validate(); err != nil {
		return Event{}, err
	}
	e := newEvent(blk, txHash, impacted)
	e.Validator = &payload
	return e, nil
}

// NewContractEvent builds a contract-family event.
func NewContractEvent(blk BlockContext, txHash string, payload ContractPayload, impacted []ImpactedAddress) (Event, error) {
	if err := payload.validate(); err != nil {
		return Event{}, err
	}
	e := newEvent(blk, txHash, impacted)
	e.Contract = &payload
	return e, nil
}

// NewOtherEvent builds an other-family event, validating that the payload
// carries exactly one topic.
func NewOtherEvent(blk BlockContext, txHash string, payload OtherPayload, impacted []ImpactedAddress) (Event, error) {
	if err := payload.validate(); err != nil {
		return Event{}, err
	}
	e := newEvent(blk, txHash, impacted)
	e.Other = &payload
	return e, nil
}
