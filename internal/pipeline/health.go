package pipeline

import (
	"context"
	"time"

	"github.com/evanpardo/ccdwatch/internal/pkg/logger"
	"github.com/evanpardo/ccdwatch/internal/pkg/x/chflow"
)

const watchdogCheckInterval = 30 * time.Second

// startWatchdog signals healthCh when checkpoint progress halts for longer
// than the stall timeout. The supervisor owning the health channel decides
// whether to terminate; the pipeline itself keeps retrying.
func (s *service) startWatchdog(ctx context.Context, healthCh chan<- error) {
	go func() {
		ticker := time.NewTicker(watchdogCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			stalledFor := time.Since(time.Unix(0, s.lastProgress.Load()))
			if stalledFor <= s.stallTimeout {
				continue
			}

			logger.Error(ctx, "pipeline stalled", "stalled_for", stalledFor.String())
			if ok := chflow.Send(ctx, healthCh, ErrStalled); !ok {
				return
			}
			s.touchProgress()
		}
	}()
}
