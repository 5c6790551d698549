// Package redis implements every persisted collaborator surface of the
// pipeline on a single Redis connection: the block side tables, checkpoint
// and gap records, user documents, label and token name tables, node
// statuses, fast accounts and the delivery audit trail. All keys are scoped
// by network so mainnet and testnet can share one instance.
package redis

import (
	"context"

	redis "github.com/redis/go-redis/v9"

	"github.com/evanpardo/ccdwatch/internal/chain"
)

type client struct {
	conn    *redis.Client
	network chain.Network
}

func (c *client) Close() error {
	return c.conn.Close()
}

func NewClient(ctx context.Context, network chain.Network, addr, username, password string, db int) (*client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &client{
		conn:    conn,
		network: network,
	}, nil
}
