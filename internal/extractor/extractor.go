package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/notification"
	"github.com/evanpardo/ccdwatch/internal/pkg/logger"
)

// ErrTokenNameNotFound is returned by TokenNames when a token address has no
// stored name yet.
var ErrTokenNameNotFound = errors.New("token name not found")

// tokenNamePlaceholder is shown while a token's metadata has not been
// indexed yet.
const tokenNamePlaceholder = "Not yet available..."

// defaultDomainMintContract is the CCD domain name service instance whose
// mints carry a resolvable domain name.
var defaultDomainMintContract = chain.ContractAddress{Index: 9377, Subindex: 0}

// Resolver canonicalizes raw chain addresses.
type Resolver interface {
	ResolveAccountAddress(ctx context.Context, address chain.AccountAddress) (chain.AccountRef, error)
	ResolveAccountIndex(ctx context.Context, index chain.AccountIndex) (chain.AccountRef, error)
	ResolveRaw(ctx context.Context, raw string) (chain.Address, error)
}

// NodeClient exposes the chain node queries event extraction needs.
type NodeClient interface {
	AccountInfoByAddress(ctx context.Context, address chain.AccountAddress, blockHash string) (chain.AccountInfo, error)
	PoolInfo(ctx context.Context, baker chain.AccountIndex, blockHash string) (chain.PoolInfo, error)
	PoolDelegators(ctx context.Context, baker chain.AccountIndex, blockHash string) ([]chain.PoolDelegator, error)
	EarliestWinTime(ctx context.Context, baker chain.AccountIndex) (time.Time, error)
	BlockHashAtHeight(ctx context.Context, height uint64) (string, error)
}

// TokenNames looks up the display name of an indexed token.
type TokenNames interface {
	TokenName(ctx context.Context, tokenAddress string) (string, error)
}

// MetadataFetcher resolves a token's name from its off-chain metadata.
type MetadataFetcher interface {
	TokenName(ctx context.Context, contract chain.ContractAddress, tokenID string) (string, error)
}

// Service turns finalized blocks into routable notification events.
type Service struct {
	resolver       Resolver
	node           NodeClient
	tokenNames     TokenNames
	metadata       MetadataFetcher
	domainContract chain.ContractAddress
}

// Option customizes the extraction service.
type Option func(*Service)

// WithTokenNames wires the indexed token name lookup used for CIS-2 events.
func WithTokenNames(names TokenNames) Option {
	return func(s *Service) { s.tokenNames = names }
}

// WithMetadataFetcher wires the off-chain metadata lookup used for domain
// name mints. Without it domain mint events are not produced.
func WithMetadataFetcher(fetcher MetadataFetcher) Option {
	return func(s *Service) { s.metadata = fetcher }
}

// WithDomainMintContract overrides the domain name service contract.
func WithDomainMintContract(contract chain.ContractAddress) Option {
	return func(s *Service) { s.domainContract = contract }
}

// New builds an extraction service.
func New(resolver Resolver, node NodeClient, opts ...Option) *Service {
	s := &Service{
		resolver:       resolver,
		node:           node,
		domainContract: defaultDomainMintContract,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract runs the four extraction passes over one block. Passes are
// isolated: a failing pass keeps the events it produced so far and is
// reported in the joined error, while the remaining passes still run. A
// non-nil error means the block must not be checkpointed; re-extraction may
// produce duplicate events.
func (s *Service) Extract(ctx context.Context, block chain.Block) ([]notification.Event, error) {
	bctx := notification.BlockContext{
		Height:   block.Height,
		Hash:     block.Hash,
		SlotTime: block.SlotTime,
	}

	passes := []struct {
		name string
		run  func(context.Context, chain.Block, notification.BlockContext) ([]notification.Event, error)
	}{
		{"baker", s.bakerPass},
		{"transactions", s.transactionPass},
		{"special events", s.specialEventPass},
		{"logged events", s.loggedEventPass},
	}

	var (
		events []notification.Event
		errs   []error
	)
	for _, pass := range passes {
		passEvents, err := pass.run(ctx, block, bctx)
		events = append(events, passEvents...)
		if err != nil {
			logger.Error(ctx, "block event extraction pass failed",
				"pass", pass.name,
				"height", block.Height,
				"hash", block.Hash,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s pass: %w", pass.name, err))
		}
	}

	return events, errors.Join(errs...)
}

func (s *Service) bakerPass(ctx context.Context, block chain.Block, bctx notification.BlockContext) ([]notification.Event, error) {
	if block.Baker == nil {
		return nil, nil
	}
	baker := *block.Baker

	bakerRef, err := s.resolver.ResolveAccountIndex(ctx, baker)
	if err != nil {
		return nil, fmt.Errorf("resolving baker %d: %w", baker, err)
	}

	pool, err := s.node.PoolInfo(ctx, baker, block.Hash)
	if err != nil {
		return nil, fmt.Errorf("fetching pool info for baker %d: %w", baker, err)
	}

	winTime, err := s.node.EarliestWinTime(ctx, baker)
	if err != nil {
		return nil, fmt.Errorf("fetching earliest win time for baker %d: %w", baker, err)
	}

	event, err := notification.NewValidatorEvent(bctx, "", notification.ValidatorPayload{
		BlockValidated: &notification.BlockValidatedInfo{
			CurrentPoolInfo: &pool,
			EarliestWinTime: &winTime,
		},
	}, []notification.ImpactedAddress{
		notification.ImpactedAccount(notification.RoleValidator, bakerRef),
	})
	if err != nil {
		return nil, err
	}

	return []notification.Event{event}, nil
}

func (s *Service) previousBakerInfo(ctx context.Context, block chain.Block, address chain.AccountAddress) (*chain.BakerStakeInfo, error) {
	info, err := s.node.AccountInfoByAddress(ctx, address, block.ParentHash)
	if err != nil {
		return nil, fmt.Errorf("fetching account %s at parent block: %w", address, err)
	}
	if info.Stake == nil {
		return nil, nil
	}
	return info.Stake.Baker, nil
}

func (s *Service) previousDelegatorInfo(ctx context.Context, block chain.Block, address chain.AccountAddress) (*chain.DelegatorStakeInfo, error) {
	info, err := s.node.AccountInfoByAddress(ctx, address, block.ParentHash)
	if err != nil {
		return nil, fmt.Errorf("fetching account %s at parent block: %w", address, err)
	}
	if info.Stake == nil {
		return nil, nil
	}
	return info.Stake.Delegator, nil
}

// delegationTarget returns the pool the sender delegates to at this block,
// nil for passive delegation or a non-delegating account.
func (s *Service) delegationTarget(ctx context.Context, block chain.Block, address chain.AccountAddress) (*chain.AccountIndex, error) {
	info, err := s.node.AccountInfoByAddress(ctx, address, block.Hash)
	if err != nil {
		return nil, fmt.Errorf("fetching account %s: %w", address, err)
	}
	if info.Stake == nil || info.Stake.Delegator == nil {
		return nil, nil
	}
	return info.Stake.Delegator.Target, nil
}
