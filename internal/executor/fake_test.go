// internal/executor/fake_test.go
package executor

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/mdc-controller/internal/display"
	"github.com/tamzrod/mdc-controller/internal/mdc"
	"github.com/tamzrod/mdc-controller/internal/mdc/mdctest"
	"github.com/tamzrod/mdc-controller/internal/session"
)

// ---- fake display ----

// fakeDisplay answers decoded frames. A nil reply means silence.
type fakeDisplay struct {
	id      uint8
	latency time.Duration
	handle  func(req mdc.Frame) []byte

	writes     int32
	inflight   int32
	violations int32
}

var (
	ack = mdctest.Ack
	nak = mdctest.Nak
)

// ---- fake conn ----

type fakeConn struct {
	disp *fakeDisplay

	mu       sync.Mutex
	deadline time.Time
	closed   chan struct{}
	once     sync.Once
	resp     chan []byte
}

func newFakeConn(d *fakeDisplay) *fakeConn {
	return &fakeConn{
		disp:   d,
		closed: make(chan struct{}),
		resp:   make(chan []byte, 8),
	}
}

func (c *fakeConn) SetDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Write(b []byte) (int, error) {
	select {
	case <-c.closed:
		return 0, errors.New("fake: write on closed conn")
	default:
	}

	atomic.AddInt32(&c.disp.writes, 1)
	if atomic.AddInt32(&c.disp.inflight, 1) > 1 {
		atomic.AddInt32(&c.disp.violations, 1)
	}

	f, err := mdc.Decode(b[2], b)
	if err != nil {
		atomic.AddInt32(&c.disp.inflight, -1)
		return len(b), nil
	}
	r := c.disp.handle(f)
	if r == nil {
		// silence or write-only: nothing left in flight
		atomic.AddInt32(&c.disp.inflight, -1)
		return len(b), nil
	}
	c.resp <- r
	return len(b), nil
}

func (c *fakeConn) Read(b []byte) (int, error) {
	c.mu.Lock()
	dl := c.deadline
	c.mu.Unlock()

	var timeout <-chan time.Time
	if !dl.IsZero() {
		t := time.NewTimer(time.Until(dl))
		defer t.Stop()
		timeout = t.C
	}

	select {
	case r := <-c.resp:
		if c.disp.latency > 0 {
			time.Sleep(c.disp.latency)
		}
		atomic.AddInt32(&c.disp.inflight, -1)
		return copy(b, r), nil
	case <-timeout:
		return 0, os.ErrDeadlineExceeded
	case <-c.closed:
		return 0, errors.New("fake: read on closed conn")
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// ---- fake dialer ----

type fakeDialer struct {
	dials int32
	dial  func(ctx context.Context) (session.Conn, error)
}

func (d *fakeDialer) Dial(ctx context.Context) (session.Conn, error) {
	atomic.AddInt32(&d.dials, 1)
	return d.dial(ctx)
}

func (d *fakeDialer) String() string { return "fake" }

func (d *fakeDialer) count() int { return int(atomic.LoadInt32(&d.dials)) }

// dialerFor always connects to disp.
func dialerFor(disp *fakeDisplay) *fakeDialer {
	return &fakeDialer{dial: func(ctx context.Context) (session.Conn, error) {
		return newFakeConn(disp), nil
	}}
}

// hangingDialer never connects; it returns when the connect deadline expires.
func hangingDialer() *fakeDialer {
	return &fakeDialer{dial: func(ctx context.Context) (session.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func endpoint(id uint8) display.Endpoint { return display.Endpoint{ID: id, Name: "test"} }

func newTestExecutor(id uint8, d session.Dialer, cfg session.Config, p Policy) *Executor {
	sess := session.New(d, cfg, nopLogger())
	return New(endpoint(id), sess, Options{Policy: p, Logger: nopLogger()})
}
