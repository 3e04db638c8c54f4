// internal/registry/registry.go
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tamzrod/mdc-controller/internal/display"
	"github.com/tamzrod/mdc-controller/internal/executor"
	"github.com/tamzrod/mdc-controller/internal/mdc"
	"github.com/tamzrod/mdc-controller/internal/session"
)

// ErrUnknownDisplay is returned for an id with no configured display.
var ErrUnknownDisplay = errors.New("registry: unknown display")

// Options configures every executor the registry builds.
type Options struct {
	Session      session.Config
	Policy       executor.Policy
	Logger       zerolog.Logger
	ChecksumHook executor.ChecksumHook

	// Dialer overrides transport selection (tests).
	Dialer func(ep display.Endpoint) session.Dialer
}

// Registry owns one executor per display, keyed by display id.
// The set is fixed at construction.
type Registry struct {
	mu        sync.RWMutex
	executors map[uint8]*executor.Executor
	ids       []uint8
}

// New builds an executor for every endpoint.
func New(endpoints []display.Endpoint, opts Options) (*Registry, error) {
	dial := opts.Dialer
	if dial == nil {
		dial = DialerFor
	}

	r := &Registry{executors: make(map[uint8]*executor.Executor, len(endpoints))}
	for _, ep := range endpoints {
		if _, dup := r.executors[ep.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate display id %d", ep.ID)
		}
		log := opts.Logger.With().Str("display", ep.Name).Logger()
		sess := session.New(dial(ep), opts.Session, log)
		r.executors[ep.ID] = executor.New(ep, sess, executor.Options{
			Policy:       opts.Policy,
			Logger:       log,
			ChecksumHook: opts.ChecksumHook,
		})
		r.ids = append(r.ids, ep.ID)
	}
	sort.Slice(r.ids, func(i, j int) bool { return r.ids[i] < r.ids[j] })
	return r, nil
}

// DialerFor picks RS-232 when a serial port is configured, TCP otherwise.
func DialerFor(ep display.Endpoint) session.Dialer {
	if ep.Serial != "" {
		return &session.SerialDialer{Port: ep.Serial, BaudRate: ep.BaudRate}
	}
	return session.NewTCPDialer(ep.Host, ep.Port)
}

// Get returns the executor for id.
func (r *Registry) Get(id uint8) (*executor.Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.executors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDisplay, id)
	}
	return ex, nil
}

// IDs returns the configured display ids in ascending order.
func (r *Registry) IDs() []uint8 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]uint8(nil), r.ids...)
}

// All returns every executor ordered by display id.
func (r *Registry) All() []*executor.Executor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*executor.Executor, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.executors[id])
	}
	return out
}

// Statuses snapshots every display status, ordered by id.
func (r *Registry) Statuses() []display.Status {
	all := r.All()
	out := make([]display.Status, 0, len(all))
	for _, ex := range all {
		out = append(out, ex.Status())
	}
	return out
}

// Execute runs req on display id with policy p.
func (r *Registry) Execute(ctx context.Context, id uint8, req mdc.Request, p executor.Policy) (*executor.Response, error) {
	ex, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return ex.ExecuteWith(ctx, req, p)
}

// Close disconnects every display.
func (r *Registry) Close() error {
	var errs []error
	for _, ex := range r.All() {
		if err := ex.Close(); err != nil {
			errs = append(errs, fmt.Errorf("display %d: %w", ex.Endpoint().ID, err))
		}
	}
	return errors.Join(errs...)
}
