package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/resolver"
)

// fastAccountKey is the hash mapping account addresses to their indexes for
// the hot resolution path. Format: "account:fast:{network}".
func (c *client) fastAccountKey() string {
	return fmt.Sprintf("account:fast:%s", c.network)
}

// ListFastAccounts loads the cached address to index table.
func (c *client) ListFastAccounts(ctx context.Context) ([]chain.AccountRef, error) {
	table, err := c.conn.HGetAll(ctx, c.fastAccountKey()).Result()
	if err != nil {
		return nil, err
	}

	refs := make([]chain.AccountRef, 0, len(table))
	for address, rawIndex := range table {
		index, err := strconv.ParseUint(rawIndex, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decoding index of fast account %s: %w", address, err)
		}
		refs = append(refs, chain.AccountRef{
			ID:    chain.AccountAddress(address),
			Index: chain.AccountIndex(index),
		})
	}

	return refs, nil
}

// SaveFastAccount upserts one address to index mapping.
func (c *client) SaveFastAccount(ctx context.Context, ref chain.AccountRef) error {
	return c.conn.HSet(ctx, c.fastAccountKey(), string(ref.ID), ref.Index.String()).Err()
}

// Compile-time assertion for the fast account surface.
var _ resolver.FastAccountStorage = (*client)(nil)
