// internal/monitor/runner.go
package monitor

import (
	"context"
	"time"
)

// Run sweeps on every tick and emits the result on out.
// One goroutine. No overlap: a sweep that outlasts the interval delays the next tick.
func (m *Monitor) Run(ctx context.Context, out chan<- Sweep) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := m.SweepOnce(ctx)
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}
}
