package pipeline

import (
	"context"
	"sync"

	"github.com/evanpardo/ccdwatch/internal/notification"
	"github.com/evanpardo/ccdwatch/internal/pkg/logger"
)

// eventQueue is the FIFO of extracted events awaiting routing.
type eventQueue struct {
	mu     sync.Mutex
	events []notification.Event
}

func (q *eventQueue) push(events ...notification.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, events...)
}

func (q *eventQueue) drain() []notification.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := q.events
	q.events = nil
	return events
}

// processTick drains the block backlog in ascending height order. The
// processing guard keeps at most one drain running; ingest keeps appending
// while a drain is active. The checkpoint advances only after a block's
// extraction completes without error, so a failed block stays at the head
// of the backlog and is re-extracted on the next tick. Events produced by
// the sub-passes that succeeded before the failure stay queued; the retry
// may enqueue them again.
func (s *service) processTick(ctx context.Context) {
	if !s.processing.CompareAndSwap(false, true) {
		return
	}
	defer s.processing.Store(false)

	for {
		block, ok := s.backlog.peek()
		if !ok {
			return
		}

		events, err := s.extractor.Extract(ctx, block)
		s.queue.push(events...)
		if err != nil {
			logger.Error(ctx, "block extraction failed, will retry",
				"block.height", block.Height,
				"block.hash", block.Hash,
				"error", err,
			)
			return
		}

		if err := s.checkpoints.SaveCheckpoint(ctx, block.Height); err != nil {
			logger.Error(ctx, "saving checkpoint, block will be re-extracted",
				"block.height", block.Height,
				"error", err,
			)
			return
		}

		s.backlog.pop()
		s.touchProgress()
	}
}
