// internal/status/snapshot.go
package status

import (
	"math"

	"github.com/tamzrod/mdc-controller/internal/health"
)

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health      uint16
	Power       uint16
	Temperature uint16
	ErrorCount  uint16
	IssueCount  uint16
	Serial      string
}

// HealthCode maps an overall classification to its register value.
func HealthCode(o health.Overall) uint16 {
	switch o {
	case health.Healthy:
		return HealthOK
	case health.Warning:
		return HealthWarning
	case health.Critical:
		return HealthCritical
	case health.Errored:
		return HealthError
	default:
		return HealthUnknown
	}
}

// FromReport projects a health report onto the status block.
func FromReport(r health.Report) Snapshot {
	s := Snapshot{
		Health:      HealthCode(r.Overall),
		Power:       Unknown,
		Temperature: Unknown,
		ErrorCount:  saturate(r.Connection.ErrorCount),
		IssueCount:  saturate(len(r.Issues)),
		Serial:      r.SystemInfo.SerialNumber,
	}

	switch r.Power.Status {
	case "on":
		s.Power = 1
	case "off":
		s.Power = 0
	}

	if r.Temperature.Value != nil && *r.Temperature.Value >= 0 {
		s.Temperature = saturate(*r.Temperature.Value)
	}
	return s
}

// saturate clamps n into the register range, keeping Unknown free.
func saturate(n int) uint16 {
	if n < 0 {
		return 0
	}
	if n >= math.MaxUint16 {
		return math.MaxUint16 - 1
	}
	return uint16(n)
}
