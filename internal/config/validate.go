// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// PROTOCOL
	// ------------------------------------------------------------

	m := cfg.MDC
	if m.ConnectTimeoutMs < 0 || m.CommandTimeoutMs < 0 || (m.RetryDelayMs != nil && *m.RetryDelayMs < 0) {
		return fmt.Errorf("mdc: timeouts and retry delay must not be negative")
	}
	if m.MaxRetries < 0 {
		return fmt.Errorf("mdc: max_retries must not be negative")
	}

	// ------------------------------------------------------------
	// DISPLAYS
	// ------------------------------------------------------------

	if len(cfg.Displays) == 0 {
		return fmt.Errorf("displays: at least one display required")
	}

	seen := make(map[int]string)
	slotOwner := make(map[uint16]int)

	for i, d := range cfg.Displays {
		label := d.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}

		if d.ID < 0 || d.ID > 255 {
			return fmt.Errorf("display %q: id %d outside 0-255", label, d.ID)
		}
		if prev, dup := seen[d.ID]; dup {
			return fmt.Errorf("display id %d used by %q and %q", d.ID, prev, label)
		}
		seen[d.ID] = label

		switch {
		case d.Host == "" && d.Serial == "":
			return fmt.Errorf("display %q: host or serial required", label)
		case d.Host != "" && d.Serial != "":
			return fmt.Errorf("display %q: host and serial are mutually exclusive", label)
		}
		if d.Port < 0 || d.Port > 65535 {
			return fmt.Errorf("display %q: port %d out of range", label, d.Port)
		}
		if d.BaudRate < 0 {
			return fmt.Errorf("display %q: baud_rate must not be negative", label)
		}

		// status is opt-in
		if d.StatusSlot == nil {
			continue
		}
		if cfg.StatusMemory == nil {
			return fmt.Errorf("display %q: status_slot is set but status_memory is not configured", label)
		}
		slot := *d.StatusSlot
		if int(slot)*20+20 > 0x10000 {
			return fmt.Errorf("display %q: status_slot %d out of register range", label, slot)
		}
		if prev, exists := slotOwner[slot]; exists {
			return fmt.Errorf(
				"status_slot collision: slot=%d used by displays %d and %d",
				slot,
				prev,
				d.ID,
			)
		}
		slotOwner[slot] = d.ID
	}

	// ------------------------------------------------------------
	// SERVICES
	// ------------------------------------------------------------

	if cfg.Monitoring.IntervalMs < 0 {
		return fmt.Errorf("monitoring: interval_ms must not be negative")
	}

	if sm := cfg.StatusMemory; sm != nil {
		if sm.Endpoint == "" {
			return fmt.Errorf("status_memory: endpoint required")
		}
		if sm.TimeoutMs < 0 {
			return fmt.Errorf("status_memory: timeout_ms must not be negative")
		}
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log: format %q must be console or json", cfg.Log.Format)
	}

	return nil
}
