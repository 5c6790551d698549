package resolver

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/evanpardo/ccdwatch/internal/chain"
)

// NodeClient exposes the account lookups the resolver needs from the chain
// node.
type NodeClient interface {
	// AccountInfoByAddress fetches account state at the given block hash.
	AccountInfoByAddress(ctx context.Context, address chain.AccountAddress, blockHash string) (chain.AccountInfo, error)
	// AccountInfoByIndex fetches account state by account index at the given
	// block hash.
	AccountInfoByIndex(ctx context.Context, index chain.AccountIndex, blockHash string) (chain.AccountInfo, error)
}

// FastAccountStorage loads the cached address to index table.
type FastAccountStorage interface {
	ListFastAccounts(ctx context.Context) ([]chain.AccountRef, error)
}

// Service resolves raw address strings into canonical addresses. Known
// accounts are answered from an in-memory snapshot refreshed out of band;
// unknown ones fall through to the node.
type Service struct {
	node     NodeClient
	storage  FastAccountStorage
	snapshot atomic.Pointer[accountTable]
}

type accountTable struct {
	byAddress map[chain.AccountAddress]chain.AccountIndex
	byIndex   map[chain.AccountIndex]chain.AccountAddress
}

// New builds a resolver with an empty snapshot. Call RefreshFastAccounts to
// warm it.
func New(node NodeClient, storage FastAccountStorage) *Service {
	s := &Service{node: node, storage: storage}
	s.snapshot.Store(&accountTable{
		byAddress: make(map[chain.AccountAddress]chain.AccountIndex),
		byIndex:   make(map[chain.AccountIndex]chain.AccountAddress),
	})
	return s
}

// RefreshFastAccounts replaces the snapshot with the stored account table.
func (s *Service) RefreshFastAccounts(ctx context.Context) error {
	accounts, err := s.storage.ListFastAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing fast accounts: %w", err)
	}

	table := &accountTable{
		byAddress: make(map[chain.AccountAddress]chain.AccountIndex, len(accounts)),
		byIndex:   make(map[chain.AccountIndex]chain.AccountAddress, len(accounts)),
	}
	for _, acc := range accounts {
		table.byAddress[acc.ID] = acc.Index
		table.byIndex[acc.Index] = acc.ID
	}

	s.snapshot.Store(table)
	return nil
}

// ResolveAccountAddress resolves a printable account address to a full
// reference, using the snapshot first and the node as fallback.
func (s *Service) ResolveAccountAddress(ctx context.Context, address chain.AccountAddress) (chain.AccountRef, error) {
	if index, ok := s.snapshot.Load().byAddress[address]; ok {
		return chain.AccountRef{ID: address, Index: index}, nil
	}

	info, err := s.node.AccountInfoByAddress(ctx, address, chain.LastFinal)
	if err != nil {
		return chain.AccountRef{}, fmt.Errorf("resolving account %s: %w", address, err)
	}
	return chain.AccountRef{ID: info.Address, Index: info.Index}, nil
}

// ResolveAccountIndex resolves an account index to a full reference, using
// the snapshot first and the node as fallback.
func (s *Service) ResolveAccountIndex(ctx context.Context, index chain.AccountIndex) (chain.AccountRef, error) {
	if address, ok := s.snapshot.Load().byIndex[index]; ok {
		return chain.AccountRef{ID: address, Index: index}, nil
	}

	info, err := s.node.AccountInfoByIndex(ctx, index, chain.LastFinal)
	if err != nil {
		return chain.AccountRef{}, fmt.Errorf("resolving account index %d: %w", index, err)
	}
	return chain.AccountRef{ID: info.Address, Index: info.Index}, nil
}

// ResolveRaw canonicalizes a raw address string: contract literals are
// parsed locally, anything else is treated as an account address.
func (s *Service) ResolveRaw(ctx context.Context, raw string) (chain.Address, error) {
	if chain.IsContractLiteral(raw) {
		contract, err := chain.ParseContractAddress(raw)
		if err != nil {
			return chain.Address{}, err
		}
		return chain.ContractAddressOf(contract), nil
	}

	ref, err := s.ResolveAccountAddress(ctx, chain.AccountAddress(raw))
	if err != nil {
		return chain.Address{}, err
	}
	return chain.Address{Account: &ref}, nil
}
