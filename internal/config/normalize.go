// internal/config/normalize.go
package config

import (
	"strconv"
	"strings"
)

// Defaults applied by Normalize.
const (
	DefaultConnectTimeoutMs = 10000
	DefaultCommandTimeoutMs = 5000
	DefaultMaxRetries       = 3
	DefaultRetryDelayMs     = 1000
	DefaultPort             = 1515
	DefaultBaudRate         = 9600
	DefaultStatusTimeoutMs  = 2000
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	m := &cfg.MDC
	if m.ConnectTimeoutMs == 0 {
		m.ConnectTimeoutMs = DefaultConnectTimeoutMs
	}
	if m.CommandTimeoutMs == 0 {
		m.CommandTimeoutMs = DefaultCommandTimeoutMs
	}
	if m.MaxRetries == 0 {
		m.MaxRetries = DefaultMaxRetries
	}
	if m.RetryDelayMs == nil {
		d := DefaultRetryDelayMs
		m.RetryDelayMs = &d
	}

	for i := range cfg.Displays {
		d := &cfg.Displays[i]

		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			d.Name = "Display " + strconv.Itoa(d.ID)
		}

		if d.Serial != "" {
			if d.BaudRate == 0 {
				d.BaudRate = DefaultBaudRate
			}
			continue
		}
		if d.Port == 0 {
			d.Port = DefaultPort
		}
	}

	if sm := cfg.StatusMemory; sm != nil && sm.TimeoutMs == 0 {
		sm.TimeoutMs = DefaultStatusTimeoutMs
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
}
