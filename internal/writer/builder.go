// internal/writer/builder.go
package writer

import (
	"time"

	cfg "github.com/tamzrod/mdc-controller/internal/config"
	wmodbus "github.com/tamzrod/mdc-controller/internal/writer/modbus"
)

// BuildPlans converts the displays that opted in to a status block into plans.
// Assumes config has already passed validation.
func BuildPlans(c *cfg.Config) []StatusPlan {
	if c.StatusMemory == nil {
		return nil
	}

	var plans []StatusPlan
	for _, d := range c.Displays {
		if d.StatusSlot == nil {
			continue
		}
		plans = append(plans, StatusPlan{
			DisplayID: uint8(d.ID),
			Endpoint:  c.StatusMemory.Endpoint,
			UnitID:    c.StatusMemory.UnitID,
			BaseSlot:  *d.StatusSlot,
		})
	}
	return plans
}

// BuildExporter builds the exporter over a lazily dialed status memory client.
// Returns a nil exporter when no display opted in.
func BuildExporter(c *cfg.Config) (*Exporter, func() error, error) {
	plans := BuildPlans(c)
	if len(plans) == 0 {
		return nil, func() error { return nil }, nil
	}

	cli, err := wmodbus.NewClient(wmodbus.Config{
		Endpoint: c.StatusMemory.Endpoint,
		Timeout:  time.Duration(c.StatusMemory.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	e, err := NewExporter(plans, cli)
	if err != nil {
		_ = cli.Close()
		return nil, nil, err
	}
	return e, cli.Close, nil
}
