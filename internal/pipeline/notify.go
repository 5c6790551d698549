package pipeline

import (
	"context"

	"github.com/evanpardo/ccdwatch/internal/notification"
	"github.com/evanpardo/ccdwatch/internal/pkg/logger"
	"github.com/evanpardo/ccdwatch/internal/user"
)

// notifyTick drains the event queue strictly FIFO and evaluates every
// queued event against the current user snapshot. Routing or delivery
// failures are scoped to the single (user, event) pairing.
func (s *service) notifyTick(ctx context.Context) {
	events := s.queue.drain()
	if len(events) == 0 {
		return
	}

	users := s.currentUsers()
	for _, event := range events {
		for _, u := range users {
			s.notifyUser(ctx, u, event)
		}
	}
}

func (s *service) notifyUser(ctx context.Context, u user.User, event notification.Event) {
	decision, err := s.router.Route(ctx, u, event)
	if err != nil {
		logger.Error(ctx, "routing event",
			"user.token", u.Token,
			"block.hash", event.BlockHash,
			"error", err,
		)
		return
	}
	if decision == nil {
		return
	}

	delivered, err := s.dispatcher.Deliver(ctx, u, *decision)
	if err != nil {
		logger.Error(ctx, "delivering notification",
			"user.token", u.Token,
			"block.hash", event.BlockHash,
			"error", err,
		)
	}

	s.dispatcher.RecordAudit(ctx, u, *decision, delivered)
}
