// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/mdc-controller/internal/status"
)

// StatusWriter is the delivery-only contract for display status.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// displayStatusWriter owns one display's block in status memory.
type displayStatusWriter struct {
	plan StatusPlan
	cli  endpointClient

	needFull bool
	last     status.Snapshot
}

// NewDisplayStatusWriter builds the writer for one display block.
func NewDisplayStatusWriter(plan StatusPlan, cli endpointClient) (*displayStatusWriter, error) {
	if cli == nil {
		return nil, fmt.Errorf("status writer: missing client for endpoint %s", plan.Endpoint)
	}
	if int(plan.BaseSlot)*status.SlotsPerDevice+status.SlotsPerDevice > 0x10000 {
		return nil, fmt.Errorf("status writer: slot %d out of register range", plan.BaseSlot)
	}
	return &displayStatusWriter{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		last: status.Snapshot{
			Health:      status.HealthUnknown,
			Power:       status.Unknown,
			Temperature: status.Unknown,
		},
	}, nil
}

// liveSlot pairs a live slot with its snapshot field.
type liveSlot struct {
	slot int
	name string
	get  func(s *status.Snapshot) *uint16
}

var liveSlots = []liveSlot{
	{status.SlotHealthCode, "health", func(s *status.Snapshot) *uint16 { return &s.Health }},
	{status.SlotPower, "power", func(s *status.Snapshot) *uint16 { return &s.Power }},
	{status.SlotTemperature, "temperature", func(s *status.Snapshot) *uint16 { return &s.Temperature }},
	{status.SlotErrorCount, "error_count", func(s *status.Snapshot) *uint16 { return &s.ErrorCount }},
	{status.SlotIssueCount, "issue_count", func(s *status.Snapshot) *uint16 { return &s.IssueCount }},
}

// WriteStatus delivers a display status snapshot into status memory.
// On any write failure, the next call re-asserts the full block.
func (sw *displayStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil {
		return errors.New("status writer: disabled")
	}

	base := sw.baseAddr()

	// The serial number is identity: a change re-asserts the whole block.
	if s.Serial != sw.last.Serial {
		sw.needFull = true
	}

	if sw.needFull {
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base, status.Encode(s)); err != nil {
			sw.needFull = true
			return fmt.Errorf("status writer: display %d full block write failed: %w", sw.plan.DisplayID, err)
		}
		sw.needFull = false
		sw.last = s
		return nil
	}

	var errs []string
	for _, ls := range liveSlots {
		want := *ls.get(&s)
		have := ls.get(&sw.last)
		if *have == want {
			continue
		}
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base+uint16(ls.slot), []uint16{want}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d %s write failed: %v", ls.slot, ls.name, err))
			continue
		}
		*have = want
	}

	if len(errs) > 0 {
		// A partial failure leaves the block in doubt.
		sw.needFull = true
		return fmt.Errorf("status writer: display %d: %s", sw.plan.DisplayID, strings.Join(errs, " | "))
	}
	return nil
}

func (sw *displayStatusWriter) baseAddr() uint16 {
	return sw.plan.BaseSlot * status.SlotsPerDevice
}
