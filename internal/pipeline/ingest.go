package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/pkg/logger"
)

// ErrBlockNotFound is returned by BlockStorage when the requested height has
// not been indexed yet.
var ErrBlockNotFound = errors.New("block not found")

// ErrNoCheckpointFound is returned by CheckpointStorage before the first
// checkpoint has been written.
var ErrNoCheckpointFound = errors.New("no checkpoint found")

// BlockStorage is the read-only block query surface of the document store.
type BlockStorage interface {
	// LatestHeight returns the height of the newest indexed block.
	LatestHeight(ctx context.Context) (uint64, error)

	// BlockAtHeight loads the fully hydrated block at the given height.
	// Returns ErrBlockNotFound when the height is not indexed.
	BlockAtHeight(ctx context.Context, height uint64) (chain.Block, error)
}

// CheckpointStorage persists the last fully extracted height. Advancing the
// checkpoint is the sole mechanism preventing re-delivery of old heights.
type CheckpointStorage interface {
	// LoadCheckpoint returns the last extracted height, or
	// ErrNoCheckpointFound before the first run.
	LoadCheckpoint(ctx context.Context) (uint64, error)

	// SaveCheckpoint records height as fully extracted, overwriting any
	// previous value.
	SaveCheckpoint(ctx context.Context, height uint64) error

	// RecordGapRequest signals the backfill collaborator that the listed
	// heights are missing from the store.
	RecordGapRequest(ctx context.Context, heights []uint64) error
}

// blockBacklog is the FIFO of hydrated blocks awaiting extraction. Ingest
// appends while the process loop drains, so access is mutex guarded.
type blockBacklog struct {
	mu     sync.Mutex
	blocks []chain.Block
}

func (b *blockBacklog) push(blocks ...chain.Block) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocks = append(b.blocks, blocks...)
}

// peek returns the oldest queued block without removing it. The failed-block
// retry path relies on the head staying in place until pop.
func (b *blockBacklog) peek() (chain.Block, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.blocks) == 0 {
		return chain.Block{}, false
	}
	return b.blocks[0], true
}

func (b *blockBacklog) pop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.blocks) > 0 {
		b.blocks = b.blocks[1:]
	}
}

func (b *blockBacklog) lastHeight() (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.blocks) == 0 {
		return 0, false
	}
	return b.blocks[len(b.blocks)-1].Height, true
}

// ingestTick loads the next batch of blocks past the checkpoint and appends
// them to the backlog in ascending height order. A height missing from the
// store is recorded as a gap request and retried on a later tick; heights
// beyond it are not ingested so extraction order stays strict.
func (s *service) ingestTick(ctx context.Context) {
	head, err := s.blocks.LatestHeight(ctx)
	if err != nil {
		logger.Error(ctx, "loading latest block height", "error", err)
		return
	}

	checkpoint, err := s.checkpoints.LoadCheckpoint(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoCheckpointFound) {
			logger.Error(ctx, "loading checkpoint", "error", err)
			return
		}

		// First run: start streaming from the block after the current head.
		if err := s.checkpoints.SaveCheckpoint(ctx, head); err != nil {
			logger.Error(ctx, "initializing checkpoint", "block.height", head, "error", err)
			return
		}
		s.touchProgress()
		return
	}

	from := checkpoint + 1
	if queued, ok := s.backlog.lastHeight(); ok && queued+1 > from {
		from = queued + 1
	}
	if from > head {
		// Caught up with the chain; nothing pending counts as progress.
		s.touchProgress()
		return
	}

	to := min(head, from+s.batchSize-1)
	for height := from; height <= to; height++ {
		block, err := s.loadBlock(ctx, height)
		if err != nil {
			if errors.Is(err, ErrBlockNotFound) {
				logger.Warn(ctx, "block missing from store, requesting backfill", "block.height", height)
				if err := s.checkpoints.RecordGapRequest(ctx, []uint64{height}); err != nil {
					logger.Error(ctx, "recording gap request", "block.height", height, "error", err)
				}
				return
			}

			logger.Error(ctx, "loading block", "block.height", height, "error", err)
			return
		}

		s.backlog.push(block)
	}
}

// loadBlock fetches one hydrated block, retrying under the configured
// policy when one is set. A height that stays missing after the final
// attempt still reports ErrBlockNotFound so the caller records the gap.
func (s *service) loadBlock(ctx context.Context, height uint64) (chain.Block, error) {
	if s.retry == nil {
		return s.blocks.BlockAtHeight(ctx, height)
	}

	var block chain.Block
	err := s.retry.Execute(ctx, func() error {
		var err error
		block, err = s.blocks.BlockAtHeight(ctx, height)
		return err
	})
	return block, err
}
