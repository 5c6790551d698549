package pipeline

import (
	"context"
	"time"

	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/notification"
	"github.com/evanpardo/ccdwatch/internal/pkg/logger"
)

// nodeHeartbeatMaxAge is how stale a dashboard heartbeat may be before the
// node is skipped by the lag check.
const nodeHeartbeatMaxAge = 5 * time.Minute

// NodeStatusStorage lists the dashboard status of the nodes reporting to
// the network.
type NodeStatusStorage interface {
	ListNodeStatuses(ctx context.Context) ([]chain.NodeStatus, error)
}

// nodeLagTick compares each validator node's finalized height against the
// chain head and queues a running-behind event for every node trailing by
// more than the lag threshold. Nodes without a consensus baker id and nodes
// with a stale heartbeat are skipped.
func (s *service) nodeLagTick(ctx context.Context) {
	statuses, err := s.nodes.ListNodeStatuses(ctx)
	if err != nil {
		logger.Error(ctx, "listing node statuses", "error", err)
		return
	}

	head, err := s.blocks.LatestHeight(ctx)
	if err != nil {
		logger.Error(ctx, "loading latest block height", "error", err)
		return
	}

	headBlock, err := s.blocks.BlockAtHeight(ctx, head)
	if err != nil {
		logger.Error(ctx, "loading head block", "block.height", head, "error", err)
		return
	}

	now := time.Now()
	for _, status := range statuses {
		if status.ConsensusBakerID == nil {
			continue
		}
		if now.Sub(status.LastSeen) > nodeHeartbeatMaxAge {
			continue
		}
		if head <= status.FinalizedBlockHeight || head-status.FinalizedBlockHeight <= s.lagThreshold {
			continue
		}

		event, err := s.runningBehindEvent(ctx, headBlock, status)
		if err != nil {
			logger.Error(ctx, "building running-behind event",
				"node.name", status.NodeName,
				"validator.id", *status.ConsensusBakerID,
				"error", err,
			)
			continue
		}

		s.queue.push(event)
	}
}

func (s *service) runningBehindEvent(ctx context.Context, head chain.Block, status chain.NodeStatus) (notification.Event, error) {
	ref, err := s.resolver.ResolveAccountIndex(ctx, *status.ConsensusBakerID)
	if err != nil {
		return notification.Event{}, err
	}

	bctx := notification.BlockContext{
		Height:   head.Height,
		Hash:     head.Hash,
		SlotTime: head.SlotTime,
	}
	payload := notification.ValidatorPayload{
		RunningBehind: &notification.RunningBehindInfo{
			NodeName:   status.NodeName,
			NodeHeight: status.FinalizedBlockHeight,
			HeadHeight: head.Height,
			Lag:        head.Height - status.FinalizedBlockHeight,
		},
	}
	impacted := []notification.ImpactedAddress{
		notification.ImpactedAccount(notification.RoleValidator, ref),
	}

	return notification.NewValidatorEvent(bctx, "", payload, impacted)
}
