package chain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidContractAddress is returned when a contract literal cannot be
// parsed as "<index,subindex>".
var ErrInvalidContractAddress = errors.New("invalid contract address literal")

// LastFinal is the node-side sentinel for "the most recent finalized block"
// accepted wherever a block hash is expected.
const LastFinal = "last_final"

// AccountAddress is a base58check account identifier as printed by the chain.
type AccountAddress string

// AccountIndex is the node-assigned sequential index of an account. Bakers
// and delegators are identified by the index of their owning account.
type AccountIndex uint64

// String renders the index in decimal, the form used as a key in user
// preference tables.
func (i AccountIndex) String() string {
	return strconv.FormatUint(uint64(i), 10)
}

// MicroCCD is an amount in the smallest CCD denomination.
type MicroCCD uint64

// ContractAddress identifies a contract instance.
type ContractAddress struct {
	Index    uint64 `json:"index"`
	Subindex uint64 `json:"subindex"`
}

// String renders the canonical "<index,subindex>" literal.
func (c ContractAddress) String() string {
	return fmt.Sprintf("<%d,%d>", c.Index, c.Subindex)
}

// ParseContractAddress parses a "<index,subindex>" literal.
func ParseContractAddress(s string) (ContractAddress, error) {
	trimmed, ok := strings.CutPrefix(s, "<")
	if !ok {
		return ContractAddress{}, fmt.Errorf("%w: %q", ErrInvalidContractAddress, s)
	}
	trimmed, ok = strings.CutSuffix(trimmed, ">")
	if !ok {
		return ContractAddress{}, fmt.Errorf("%w: %q", ErrInvalidContractAddress, s)
	}

	idxStr, subStr, ok := strings.Cut(trimmed, ",")
	if !ok {
		return ContractAddress{}, fmt.Errorf("%w: %q", ErrInvalidContractAddress, s)
	}

	idx, err := strconv.ParseUint(idxStr, 10, 64)
	if err != nil {
		return ContractAddress{}, fmt.Errorf("%w: %q", ErrInvalidContractAddress, s)
	}
	sub, err := strconv.ParseUint(subStr, 10, 64)
	if err != nil {
		return ContractAddress{}, fmt.Errorf("%w: %q", ErrInvalidContractAddress, s)
	}

	return ContractAddress{Index: idx, Subindex: sub}, nil
}

// IsContractLiteral reports whether s looks like a "<index,subindex>" literal
// rather than an account address. Account addresses are base58 strings well
// over 28 characters; contract literals are short and bracketed.
func IsContractLiteral(s string) bool {
	return strings.HasPrefix(s, "<")
}

// AccountRef is a fully resolved account reference: both the printable
// address and the node index.
type AccountRef struct {
	ID    AccountAddress `json:"id"`
	Index AccountIndex   `json:"index"`
}

// Address is a canonical resolved address: exactly one of Account or
// Contract is set.
type Address struct {
	Account  *AccountRef      `json:"account,omitempty"`
	Contract *ContractAddress `json:"contract,omitempty"`
}

// AccountAddressOf builds an Address for a resolved account.
func AccountAddressOf(id AccountAddress, index AccountIndex) Address {
	return Address{Account: &AccountRef{ID: id, Index: index}}
}

// ContractAddressOf builds an Address for a contract instance.
func ContractAddressOf(c ContractAddress) Address {
	return Address{Contract: &c}
}
