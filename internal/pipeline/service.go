// Package pipeline drives the end-to-end notification flow: it ingests
// finalized blocks from the document store in strict height order, extracts
// notification events from each block, routes every event against the
// current user snapshot, and hands the resulting decisions to the
// dispatcher. It also owns the periodic cache refreshes and the liveness
// watch over checkpoint progress.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/notification"
	"github.com/evanpardo/ccdwatch/internal/pkg/resilience/retry"
	"github.com/evanpardo/ccdwatch/internal/router"
	"github.com/evanpardo/ccdwatch/internal/user"
)

// ErrServiceAlreadyStarted is returned if Start is called more than once.
var ErrServiceAlreadyStarted = errors.New("service already started")

// ErrStalled is sent on the health channel when checkpoint progress halts
// for longer than the stall timeout while blocks are still pending.
var ErrStalled = errors.New("no checkpoint progress within the stall window")

const (
	defaultPollInterval        = 2 * time.Second
	defaultRefreshInterval     = 10 * time.Second
	defaultFastAccountInterval = time.Hour
	defaultNodeLagInterval     = 5 * time.Minute
	defaultStallTimeout        = 5 * time.Minute
	defaultBatchSize           = 10
	defaultLagThreshold        = 300

	healthChannelBufferSize = 1
)

// Extractor turns one block into its notification events.
type Extractor interface {
	Extract(ctx context.Context, block chain.Block) ([]notification.Event, error)
}

// Router decides, per user, whether an event is delivered. A nil decision
// means the user is not notified.
type Router interface {
	Route(ctx context.Context, u user.User, event notification.Event) (*router.Decision, error)
}

// Dispatcher delivers a routing decision and records the audit trail.
type Dispatcher interface {
	Deliver(ctx context.Context, u user.User, decision router.Decision) ([]user.Channel, error)
	RecordAudit(ctx context.Context, u user.User, decision router.Decision, delivered []user.Channel)
}

// UserSource lists all registered users for the routing snapshot.
type UserSource interface {
	ListUsers(ctx context.Context) ([]user.User, error)
}

// AccountResolver resolves validator indexes for synthetic events and
// refreshes the fast-account table backing the hot resolution path.
type AccountResolver interface {
	ResolveAccountIndex(ctx context.Context, index chain.AccountIndex) (chain.AccountRef, error)
	RefreshFastAccounts(ctx context.Context) error
}

// Refresher is a snapshot cache the pipeline re-loads on the refresh tick.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Service runs the notification pipeline.
type Service interface {
	// Start launches the pipeline loops. The returned channel carries
	// liveness failures (see ErrStalled); the caller decides whether to
	// terminate. Returns ErrServiceAlreadyStarted on a second call.
	Start(ctx context.Context) (<-chan error, error)

	// Close stops all pipeline loops. Safe to call when never started.
	Close()
}

type closeFunc func()

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc closeFunc

	blocks      BlockStorage
	checkpoints CheckpointStorage
	extractor   Extractor
	router      Router
	dispatcher  Dispatcher
	users       UserSource
	resolver    AccountResolver
	nodes       NodeStatusStorage
	refreshers  []Refresher
	retry       retry.Retry

	pollInterval        time.Duration
	refreshInterval     time.Duration
	fastAccountInterval time.Duration
	nodeLagInterval     time.Duration
	stallTimeout        time.Duration
	batchSize           uint64
	lagThreshold        uint64

	processing   atomic.Bool
	backlog      blockBacklog
	queue        eventQueue
	userSnapshot atomic.Pointer[[]user.User]
	lastProgress atomic.Int64
}

var _ Service = (*service)(nil)

func (s *service) Start(ctx context.Context) (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return nil, ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	healthCh := make(chan error, healthChannelBufferSize)

	s.touchProgress()
	if err := s.refreshSnapshots(ctx); err != nil {
		cancel()
		return nil, err
	}

	s.startLoop(ctx, s.pollInterval, s.ingestTick)
	s.startLoop(ctx, s.pollInterval, s.processTick)
	s.startLoop(ctx, s.pollInterval, s.notifyTick)
	s.startLoop(ctx, s.refreshInterval, func(ctx context.Context) {
		_ = s.refreshSnapshots(ctx)
	})
	s.startLoop(ctx, s.fastAccountInterval, s.fastAccountTick)
	if s.nodes != nil {
		s.startLoop(ctx, s.nodeLagInterval, s.nodeLagTick)
	}
	s.startWatchdog(ctx, healthCh)

	s.closeFunc = func() {
		cancel()
		close(healthCh)
	}
	s.isStarted = true
	return healthCh, nil
}

func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}
	s.closeFunc = nil
	s.isStarted = false
}

// startLoop runs fn once per interval until ctx is canceled.
func (s *service) startLoop(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}

func (s *service) touchProgress() {
	s.lastProgress.Store(time.Now().UnixNano())
}

func (s *service) currentUsers() []user.User {
	if snapshot := s.userSnapshot.Load(); snapshot != nil {
		return *snapshot
	}
	return nil
}

type config struct {
	nodes               NodeStatusStorage
	refreshers          []Refresher
	retry               retry.Retry
	pollInterval        time.Duration
	refreshInterval     time.Duration
	fastAccountInterval time.Duration
	nodeLagInterval     time.Duration
	stallTimeout        time.Duration
	batchSize           uint64
	lagThreshold        uint64
}

// Option customizes the pipeline service.
type Option func(*config)

// WithNodeStatusStorage enables the node-lag task against the given status
// table.
func WithNodeStatusStorage(nodes NodeStatusStorage) Option {
	return func(c *config) { c.nodes = nodes }
}

// WithRetry retries transient block load failures during ingestion instead
// of losing the tick.
func WithRetry(r retry.Retry) Option {
	return func(c *config) { c.retry = r }
}

// WithRefreshers registers snapshot caches reloaded on the refresh tick.
func WithRefreshers(refreshers ...Refresher) Option {
	return func(c *config) { c.refreshers = append(c.refreshers, refreshers...) }
}

// WithPollInterval overrides the ingest/process/notify tick cadence.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) { c.pollInterval = d }
}

// WithRefreshInterval overrides the snapshot refresh cadence.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *config) { c.refreshInterval = d }
}

// WithFastAccountInterval overrides the fast-account refresh cadence.
func WithFastAccountInterval(d time.Duration) Option {
	return func(c *config) { c.fastAccountInterval = d }
}

// WithNodeLagInterval overrides the node-lag check cadence.
func WithNodeLagInterval(d time.Duration) Option {
	return func(c *config) { c.nodeLagInterval = d }
}

// WithStallTimeout overrides how long checkpoint progress may halt before
// the watchdog signals the health channel.
func WithStallTimeout(d time.Duration) Option {
	return func(c *config) { c.stallTimeout = d }
}

// WithBatchSize caps the heights ingested per tick.
func WithBatchSize(n uint64) Option {
	return func(c *config) { c.batchSize = n }
}

// WithLagThreshold overrides the finalized-height lag that marks a
// validator node as running behind.
func WithLagThreshold(n uint64) Option {
	return func(c *config) { c.lagThreshold = n }
}

// New wires the pipeline around its collaborators.
func New(blocks BlockStorage, checkpoints CheckpointStorage, extractor Extractor, r Router, dispatcher Dispatcher, users UserSource, resolver AccountResolver, opts ...Option) *service {
	cfg := config{
		pollInterval:        defaultPollInterval,
		refreshInterval:     defaultRefreshInterval,
		fastAccountInterval: defaultFastAccountInterval,
		nodeLagInterval:     defaultNodeLagInterval,
		stallTimeout:        defaultStallTimeout,
		batchSize:           defaultBatchSize,
		lagThreshold:        defaultLagThreshold,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		blocks:              blocks,
		checkpoints:         checkpoints,
		extractor:           extractor,
		router:              r,
		dispatcher:          dispatcher,
		users:               users,
		resolver:            resolver,
		nodes:               cfg.nodes,
		refreshers:          cfg.refreshers,
		retry:               cfg.retry,
		pollInterval:        cfg.pollInterval,
		refreshInterval:     cfg.refreshInterval,
		fastAccountInterval: cfg.fastAccountInterval,
		nodeLagInterval:     cfg.nodeLagInterval,
		stallTimeout:        cfg.stallTimeout,
		batchSize:           cfg.batchSize,
		lagThreshold:        cfg.lagThreshold,
	}
}
