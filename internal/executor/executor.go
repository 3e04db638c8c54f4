// internal/executor/executor.go
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/mdc-controller/internal/display"
	"github.com/tamzrod/mdc-controller/internal/mdc"
	"github.com/tamzrod/mdc-controller/internal/session"
)

// Policy bounds one Execute call.
// Worst case latency is MaxRetries x (connect timeout + command timeout + RetryDelay).
type Policy struct {
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultPolicy matches what displays on a consumer-grade LAN tolerate.
var DefaultPolicy = Policy{MaxRetries: 3, RetryDelay: time.Second}

// ChecksumHook observes frames whose trailing checksum did not match.
type ChecksumHook func(displayID uint8, f mdc.Frame)

// Options configures an Executor.
type Options struct {
	Policy       Policy
	Logger       zerolog.Logger
	ChecksumHook ChecksumHook
}

// Response is a successful command outcome.
type Response struct {
	Request  mdc.Request
	Frame    *mdc.Frame // nil for write-only commands
	Values   []byte
	Attempts int
}

// Executor runs commands against one display.
// Commands are strictly serialized: the protocol is half-duplex over one connection.
type Executor struct {
	ep     display.Endpoint
	sess   *session.Session
	policy Policy
	log    zerolog.Logger
	hook   ChecksumHook

	// cmdMu is held for the whole of a command, retries included.
	cmdMu sync.Mutex

	statusMu sync.RWMutex
	status   *display.Status

	now func() time.Time
}

// New creates an executor for ep speaking through sess.
func New(ep display.Endpoint, sess *session.Session, opts Options) *Executor {
	p := opts.Policy
	if p.MaxRetries <= 0 {
		p.MaxRetries = DefaultPolicy.MaxRetries
	}
	if p.RetryDelay < 0 {
		p.RetryDelay = 0
	}
	return &Executor{
		ep:     ep,
		sess:   sess,
		policy: p,
		log:    opts.Logger.With().Uint8("display_id", ep.ID).Logger(),
		hook:   opts.ChecksumHook,
		status: display.NewStatus(ep),
		now:    time.Now,
	}
}

// Endpoint returns the display identity.
func (e *Executor) Endpoint() display.Endpoint { return e.ep }

// Policy returns the default retry policy.
func (e *Executor) Policy() Policy { return e.policy }

// State returns the session state.
func (e *Executor) State() session.State { return e.sess.State() }

// Status returns a copy of the current display status.
func (e *Executor) Status() display.Status {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status.Clone()
}

func (e *Executor) update(fn func(s *display.Status)) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	fn(e.status)
}

// Connect makes one connect attempt if the session is not connected.
func (e *Executor) Connect(ctx context.Context) error {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()
	return e.connectLocked(ctx)
}

func (e *Executor) connectLocked(ctx context.Context) error {
	if e.sess.IsConnected() {
		return nil
	}
	if err := e.sess.Connect(ctx); err != nil {
		if mdc.KindOf(err) != mdc.KindFaulted {
			e.update(func(s *display.Status) { s.ConnectFailed() })
		}
		e.log.Warn().Err(err).Msg("connect failed")
		return err
	}
	at := e.now()
	e.update(func(s *display.Status) { s.ConnectSucceeded(at) })
	return nil
}

// Reset performs an explicit disconnect+connect cycle, clearing a fault.
func (e *Executor) Reset(ctx context.Context) error {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	_ = e.sess.Disconnect()
	e.log.Info().Msg("session reset")
	return e.connectLocked(ctx)
}

// Close tears down the connection.
func (e *Executor) Close() error {
	e.update(func(s *display.Status) {
		s.Online = false
		s.Responsive = false
	})
	return e.sess.Disconnect()
}

// Execute runs req with the executor's default policy.
func (e *Executor) Execute(ctx context.Context, req mdc.Request) (*Response, error) {
	return e.ExecuteWith(ctx, req, e.policy)
}

// ExecuteWith runs req, retrying transport failures up to p.MaxRetries attempts.
// Validation, protocol mismatch and NAK failures return at once.
func (e *Executor) ExecuteWith(ctx context.Context, req mdc.Request, p Policy) (*Response, error) {
	frame, err := mdc.Encode(e.ep.ID, req.Command, req.Payload)
	if err != nil {
		return nil, err
	}

	limit := p.MaxRetries
	if limit < 1 {
		limit = 1
	}

	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	log := e.log.With().Stringer("command", req.Command).Logger()

	var (
		last  error
		tried int
	)
	for attempt := 1; attempt <= limit; attempt++ {
		if attempt > 1 && p.RetryDelay > 0 {
			if err := sleep(ctx, p.RetryDelay); err != nil {
				last = err
				break
			}
		}
		tried = attempt

		if !e.sess.IsConnected() {
			if err := e.connectLocked(ctx); err != nil {
				if mdc.KindOf(err) == mdc.KindFaulted {
					return nil, e.fail(req, err, attempt)
				}
				last = err
				continue
			}
		}

		raw, err := e.sess.SendAndMaybeReceive(frame, req.ExpectResponse, 0)
		if err != nil {
			e.update(func(s *display.Status) { s.ExchangeFailed() })
			if mdc.KindOf(err) == mdc.KindFaulted {
				return nil, e.fail(req, err, attempt)
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("exchange failed")
			last = err
			continue
		}

		if !req.ExpectResponse {
			at := e.now()
			e.update(func(s *display.Status) { s.Apply(req, nil, nil, at) })
			return &Response{Request: req, Attempts: attempt}, nil
		}

		f, err := mdc.Decode(e.ep.ID, raw)
		if err != nil {
			e.update(func(s *display.Status) { s.ExchangeFailed() })
			if mdc.KindOf(err) == mdc.KindProtocolMismatch {
				e.sess.Fault(err)
				return nil, e.fail(req, err, attempt)
			}
			// No partial-frame recovery: start the next attempt on a fresh connection.
			_ = e.sess.Disconnect()
			log.Warn().Err(err).Int("attempt", attempt).Msg("malformed response")
			last = err
			continue
		}

		if f.ChecksumMismatch() {
			log.Warn().
				Hex("raw", f.Raw).
				Uint8("got", f.Checksum).
				Uint8("want", f.Expected).
				Msg("checksum mismatch, payload kept")
			e.update(func(s *display.Status) { s.ChecksumMismatches++ })
			if e.hook != nil {
				e.hook(e.ep.ID, f)
			}
		}

		r, isReply := f.Reply()
		if isReply && r.Command != req.Command {
			// A reply to some other command: the stream is out of step.
			e.update(func(s *display.Status) { s.ExchangeFailed() })
			_ = e.sess.Disconnect()
			last = &mdc.Error{
				Kind: mdc.KindMalformed,
				Msg:  fmt.Sprintf("reply echoes %s, sent %s", r.Command, req.Command),
			}
			log.Warn().Err(last).Int("attempt", attempt).Msg("reply out of step")
			continue
		}

		at := e.now()
		if isReply && !r.Ack {
			// The display answered: it is reachable, it refused the command.
			e.update(func(s *display.Status) {
				s.LastSeen = at
				s.Responsive = true
				s.ErrorCount = 0
			})
			err := &mdc.Error{Kind: mdc.KindRejected, Msg: "display answered NAK", Attempts: attempt}
			log.Warn().Hex("values", r.Values).Msg("command rejected")
			return nil, err
		}

		values := f.Values()
		online := e.sess.IsConnected()
		e.update(func(s *display.Status) {
			s.Apply(req, values, nil, at)
			s.Online = online
		})

		return &Response{Request: req, Frame: &f, Values: values, Attempts: attempt}, nil
	}

	e.update(func(s *display.Status) { s.Responsive = false })
	log.Error().Err(last).Int("attempts", tried).Msg("command failed after retries")

	return nil, &mdc.Error{
		Kind:     mdc.KindExhaustedRetries,
		Msg:      req.Command.String(),
		Attempts: tried,
		Err:      last,
	}
}

func (e *Executor) fail(req mdc.Request, err error, attempt int) error {
	at := e.now()
	e.update(func(s *display.Status) { s.Apply(req, nil, err, at) })
	e.log.Warn().Err(err).Stringer("command", req.Command).Msg("command aborted")

	out := &mdc.Error{Kind: mdc.KindOf(err), Attempts: attempt, Err: err}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
