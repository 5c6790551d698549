package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/evanpardo/ccdwatch/internal/extractor"
	"github.com/evanpardo/ccdwatch/internal/pkg/logger"
	"github.com/evanpardo/ccdwatch/internal/router"
)

// refreshSnapshots reloads the user snapshot and every registered cache.
// A failing reload is logged and the previous snapshot stays in place.
func (s *service) refreshSnapshots(ctx context.Context) error {
	var errs []error

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		logger.Error(ctx, "refreshing user snapshot", "error", err)
		errs = append(errs, fmt.Errorf("refreshing user snapshot: %w", err))
	} else {
		s.userSnapshot.Store(&users)
	}

	for _, refresher := range s.refreshers {
		if err := refresher.Refresh(ctx); err != nil {
			logger.Error(ctx, "refreshing snapshot cache", "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *service) fastAccountTick(ctx context.Context) {
	if err := s.resolver.RefreshFastAccounts(ctx); err != nil {
		logger.Error(ctx, "refreshing fast accounts", "error", err)
	}
}

// LabelStorage lists the global address label table.
type LabelStorage interface {
	ListLabels(ctx context.Context) (map[string]string, error)
}

// LabelCache is an atomically swapped snapshot of the global label table.
// It serves the router's label lookups and is reloaded on the pipeline's
// refresh tick.
type LabelCache struct {
	storage LabelStorage
	table   atomic.Pointer[map[string]string]
}

var (
	_ router.LabelSource = (*LabelCache)(nil)
	_ Refresher          = (*LabelCache)(nil)
)

// NewLabelCache builds an empty cache over the given storage.
func NewLabelCache(storage LabelStorage) *LabelCache {
	c := &LabelCache{storage: storage}
	c.table.Store(&map[string]string{})
	return c
}

// Refresh swaps in a freshly loaded label table.
func (c *LabelCache) Refresh(ctx context.Context) error {
	table, err := c.storage.ListLabels(ctx)
	if err != nil {
		return fmt.Errorf("listing address labels: %w", err)
	}

	c.table.Store(&table)
	return nil
}

// Label returns the display label for a raw address string.
func (c *LabelCache) Label(address string) (string, bool) {
	label, ok := (*c.table.Load())[address]
	return label, ok
}

// TokenNameStorage lists the indexed token display names keyed by token
// address.
type TokenNameStorage interface {
	ListTokenNames(ctx context.Context) (map[string]string, error)
}

// TokenNameCache is an atomically swapped snapshot of the token name table
// serving the extractor's lookups.
type TokenNameCache struct {
	storage TokenNameStorage
	table   atomic.Pointer[map[string]string]
}

var (
	_ extractor.TokenNames = (*TokenNameCache)(nil)
	_ Refresher            = (*TokenNameCache)(nil)
)

// NewTokenNameCache builds an empty cache over the given storage.
func NewTokenNameCache(storage TokenNameStorage) *TokenNameCache {
	c := &TokenNameCache{storage: storage}
	c.table.Store(&map[string]string{})
	return c
}

// Refresh swaps in a freshly loaded token name table.
func (c *TokenNameCache) Refresh(ctx context.Context) error {
	table, err := c.storage.ListTokenNames(ctx)
	if err != nil {
		return fmt.Errorf("listing token names: %w", err)
	}

	c.table.Store(&table)
	return nil
}

// TokenName returns the display name of the token at the given address.
func (c *TokenNameCache) TokenName(_ context.Context, tokenAddress string) (string, error) {
	name, ok := (*c.table.Load())[tokenAddress]
	if !ok {
		return "", extractor.ErrTokenNameNotFound
	}
	return name, nil
}
