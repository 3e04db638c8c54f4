// internal/writer/exporter.go
package writer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tamzrod/mdc-controller/internal/health"
	"github.com/tamzrod/mdc-controller/internal/status"
)

// Exporter delivers health reports into status memory, one block per display.
// Displays without a status slot are skipped.
type Exporter struct {
	writers map[uint8]StatusWriter
}

// NewExporter builds one status writer per plan, all sharing cli.
func NewExporter(plans []StatusPlan, cli endpointClient) (*Exporter, error) {
	e := &Exporter{writers: make(map[uint8]StatusWriter, len(plans))}
	for _, p := range plans {
		if _, dup := e.writers[p.DisplayID]; dup {
			return nil, fmt.Errorf("writer: display %d has two status blocks", p.DisplayID)
		}
		sw, err := NewDisplayStatusWriter(p, cli)
		if err != nil {
			return nil, err
		}
		e.writers[p.DisplayID] = sw
	}
	return e, nil
}

// Displays lists the exported display ids in ascending order.
func (e *Exporter) Displays() []uint8 {
	ids := make([]uint8, 0, len(e.writers))
	for id := range e.writers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Reset writes an UNKNOWN block for every display, asserting identity on start.
func (e *Exporter) Reset() error {
	var errs []error
	for _, id := range e.Displays() {
		s := status.Snapshot{
			Health:      status.HealthUnknown,
			Power:       status.Unknown,
			Temperature: status.Unknown,
		}
		if err := e.writers[id].WriteStatus(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Export writes every report that has a status block.
// Failures for one display do not stop the others.
func (e *Exporter) Export(reports map[uint8]health.Report) error {
	var errs []error
	for _, id := range e.Displays() {
		r, ok := reports[id]
		if !ok {
			continue
		}
		if err := e.writers[id].WriteStatus(status.FromReport(r)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
