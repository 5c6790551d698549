package accountregistry

import (
	"context"
	"errors"
	"fmt"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/pkg/validation"
	"github.com/evanpardo/ccdwatch/internal/user"
)

var (
	// ErrUserNotFound is returned by UserStorage when no user exists for a
	// token.
	ErrUserNotFound = errors.New("user not found")

	// ErrAccountNotWatched is returned when unwatching an account that is
	// not on the user's watch list.
	ErrAccountNotWatched = errors.New("account not watched")
)

// watchRequest carries the validated input of a watch or unwatch call.
type watchRequest struct {
	Token   string `validate:"required"`
	Address string `validate:"required"`
}

// UserStorage persists user records.
type UserStorage interface {
	// GetUser loads a user by token. Returns ErrUserNotFound when absent.
	GetUser(ctx context.Context, token string) (user.User, error)

	// SaveUser upserts the user record.
	SaveUser(ctx context.Context, u user.User) error
}

// Resolver canonicalizes account addresses.
type Resolver interface {
	ResolveAccountAddress(ctx context.Context, address chain.AccountAddress) (chain.AccountRef, error)
}

// defaultAccountPreferences enables the common account topics on both
// channels for a freshly watched account; users tune them afterwards.
func defaultAccountPreferences() *user.AccountPreferences {
	both := func() *user.Preference {
		return &user.Preference{
			Chat:  &user.ChannelPreference{Enabled: true},
			Email: &user.ChannelPreference{Enabled: true},
		}
	}
	return &user.AccountPreferences{
		AccountTransfer:         both(),
		TransferredWithSchedule: both(),
		PaydayAccountReward:     both(),
	}
}

// Watch resolves the address and upserts it on the user's watch list. A
// missing user record is created; re-watching an already watched account
// keeps its configured preferences and only refreshes the label.
func (s *service) Watch(ctx context.Context, token, address, label string) error {
	req := watchRequest{Token: token, Address: address}
	if err := validation.Validate(req); err != nil {
		return err
	}

	ref, err := s.resolver.ResolveAccountAddress(ctx, chain.AccountAddress(address))
	if err != nil {
		return fmt.Errorf("resolving account %s: %w", address, err)
	}

	u, err := s.userStorage.GetUser(ctx, token)
	switch {
	case errors.Is(err, ErrUserNotFound):
		u = user.User{Token: token}
	case err != nil:
		return fmt.Errorf("loading user: %w", err)
	}

	if u.Accounts == nil {
		u.Accounts = make(map[string]user.Account)
	}

	key := ref.Index.String()
	account, exists := u.Accounts[key]
	if !exists {
		account = user.Account{
			Index:   ref.Index,
			Address: ref.ID,
			Account: defaultAccountPreferences(),
		}
	}
	account.Label = label
	u.Accounts[key] = account

	return s.userStorage.SaveUser(ctx, u)
}

// Unwatch removes the account from the user's watch list.
func (s *service) Unwatch(ctx context.Context, token, address string) error {
	req := watchRequest{Token: token, Address: address}
	if err := validation.Validate(req); err != nil {
		return err
	}

	ref, err := s.resolver.ResolveAccountAddress(ctx, chain.AccountAddress(address))
	if err != nil {
		return fmt.Errorf("resolving account %s: %w", address, err)
	}

	u, err := s.userStorage.GetUser(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrAccountNotWatched
		}
		return fmt.Errorf("loading user: %w", err)
	}

	key := ref.Index.String()
	if _, ok := u.Accounts[key]; !ok {
		return ErrAccountNotWatched
	}
	delete(u.Accounts, key)

	return s.userStorage.SaveUser(ctx, u)
}
