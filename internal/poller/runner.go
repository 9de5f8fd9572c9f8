// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run starts the ticker loop and emits one CycleResult per cycle on out.
// One goroutine, no overlap: ticks that fire during a long cycle are dropped
// by the ticker. out may be nil.
func (p *Poller) Run(ctx context.Context, out chan<- CycleResult) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := p.PollOnce(ctx)
			if err != nil {
				// only cancellation or a store misconfiguration ends a cycle early
				p.log.Warn("poll cycle aborted", "err", err)
				continue
			}
			if out == nil {
				continue
			}
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}
