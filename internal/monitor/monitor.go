// internal/monitor/monitor.go
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tamzrod/mdc-controller/internal/executor"
	"github.com/tamzrod/mdc-controller/internal/health"
)

// Source supplies the displays to sweep.
type Source interface {
	All() []*executor.Executor
}

// Config is the minimal runtime config the monitor needs.
type Config struct {
	Interval time.Duration
}

// Monitor is a clock-driven health sweeper.
type Monitor struct {
	cfg Config
	src Source
	log zerolog.Logger

	// check is replaced in tests.
	check func(ctx context.Context, exs []*executor.Executor) map[uint8]health.Report
}

// New creates a monitor with immutable config.
func New(cfg Config, src Source, log zerolog.Logger) (*Monitor, error) {
	if src == nil {
		return nil, errors.New("monitor: source required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("monitor: interval must be > 0")
	}
	return &Monitor{
		cfg:   cfg,
		src:   src,
		log:   log,
		check: health.CheckHealthAll,
	}, nil
}

// SweepOnce health-checks every display exactly once.
// Displays are checked concurrently; a slow display delays only the sweep result.
func (m *Monitor) SweepOnce(ctx context.Context) Sweep {
	s := Sweep{
		ID: uuid.NewString(),
		At: time.Now(),
	}

	s.Reports = m.check(ctx, m.src.All())
	s.Summary = health.Summarize(s.Reports)
	s.Took = time.Since(s.At)

	m.log.Debug().
		Str("sweep_id", s.ID).
		Int("displays", s.Summary.Total).
		Int("healthy", s.Summary.Healthy).
		Int("warning", s.Summary.Warning).
		Int("critical", s.Summary.Critical).
		Dur("took", s.Took).
		Msg("sweep complete")

	return s
}
