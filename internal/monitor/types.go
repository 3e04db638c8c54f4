// internal/monitor/types.go
package monitor

import (
	"time"

	"github.com/tamzrod/mdc-controller/internal/health"
)

// Sweep is a snapshot produced by one monitoring cycle.
type Sweep struct {
	ID string    `json:"sweep_id"`
	At time.Time `json:"at"`

	// Took is the wall time of the whole sweep.
	Took time.Duration `json:"took_ns"`

	Reports map[uint8]health.Report `json:"reports"`
	Summary health.Summary          `json:"summary"`
}
