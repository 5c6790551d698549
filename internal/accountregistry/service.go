package accountregistry

import "context"

// Service registers and unregisters accounts a user wants monitored for
// on-chain activity.
type Service interface {
	// Watch adds an account to the user's watch list, creating the user
	// record when it does not exist yet.
	Watch(ctx context.Context, token, address, label string) error

	// Unwatch removes an account from the user's watch list.
	Unwatch(ctx context.Context, token, address string) error
}

// service is the concrete implementation of the Service interface.
type service struct {
	userStorage UserStorage
	resolver    Resolver
}

// Ensure compile-time compliance with the Service interface.
var _ Service = (*service)(nil)

// New creates an account registry service backed by the given user storage
// and address resolver.
func New(us UserStorage, resolver Resolver) *service {
	return &service{
		userStorage: us,
		resolver:    resolver,
	}
}
