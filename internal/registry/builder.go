// internal/registry/builder.go
package registry

import (
	"time"

	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/mdc-controller/internal/config"
	"github.com/tamzrod/mdc-controller/internal/display"
	"github.com/tamzrod/mdc-controller/internal/executor"
	"github.com/tamzrod/mdc-controller/internal/session"
)

// Endpoints converts configured displays into endpoints.
// Assumes config has already passed validation.
func Endpoints(c *cfg.Config) []display.Endpoint {
	eps := make([]display.Endpoint, 0, len(c.Displays))
	for _, d := range c.Displays {
		eps = append(eps, display.Endpoint{
			ID:       uint8(d.ID),
			Name:     d.Name,
			Host:     d.Host,
			Port:     d.Port,
			Serial:   d.Serial,
			BaudRate: d.BaudRate,
		})
	}
	return eps
}

// OptionsFrom maps the protocol section onto session timeouts and retry policy.
func OptionsFrom(c *cfg.Config, log zerolog.Logger) Options {
	m := c.MDC
	p := executor.DefaultPolicy
	if m.MaxRetries > 0 {
		p.MaxRetries = m.MaxRetries
	}
	if m.RetryDelayMs != nil {
		p.RetryDelay = ms(*m.RetryDelayMs)
	}
	return Options{
		Session: session.Config{
			ConnectTimeout: ms(m.ConnectTimeoutMs),
			CommandTimeout: ms(m.CommandTimeoutMs),
		},
		Policy: p,
		Logger: log,
	}
}

// Build constructs the registry for a validated, normalized config.
func Build(c *cfg.Config, log zerolog.Logger) (*Registry, error) {
	return New(Endpoints(c), OptionsFrom(c, log))
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
