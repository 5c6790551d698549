package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/evanpardo/ccdwatch/internal/accountregistry"
	"github.com/evanpardo/ccdwatch/internal/pipeline"
	"github.com/evanpardo/ccdwatch/internal/user"
)

// userKey is the hash holding all user documents, keyed by token.
// Format: "user:{network}".
func (c *client) userKey() string {
	return fmt.Sprintf("user:%s", c.network)
}

// GetUser loads one user document by token. Returns
// accountregistry.ErrUserNotFound when the token is unknown.
func (c *client) GetUser(ctx context.Context, token string) (user.User, error) {
	val, err := c.conn.HGet(ctx, c.userKey(), token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = accountregistry.ErrUserNotFound
		}
		return user.User{}, err
	}

	var u user.User
	if err := json.Unmarshal([]byte(val), &u); err != nil {
		return user.User{}, fmt.Errorf("decoding user %s: %w", token, err)
	}

	return u, nil
}

// SaveUser upserts the user document under its token.
func (c *client) SaveUser(ctx context.Context, u user.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding user %s: %w", u.Token, err)
	}

	return c.conn.HSet(ctx, c.userKey(), u.Token, raw).Err()
}

// ListUsers loads every registered user for the routing snapshot.
func (c *client) ListUsers(ctx context.Context) ([]user.User, error) {
	vals, err := c.conn.HVals(ctx, c.userKey()).Result()
	if err != nil {
		return nil, err
	}

	users := make([]user.User, 0, len(vals))
	for _, val := range vals {
		var u user.User
		if err := json.Unmarshal([]byte(val), &u); err != nil {
			return nil, fmt.Errorf("decoding user document: %w", err)
		}
		users = append(users, u)
	}

	return users, nil
}

// Compile-time assertions for the user storage surfaces.
var (
	_ accountregistry.UserStorage = (*client)(nil)
	_ pipeline.UserSource         = (*client)(nil)
)
