// internal/session/session.go
package session

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/mdc-controller/internal/mdc"
)

// State is the connection state of one display.
type State uint8

const (
	Disconnected State = iota
	Connecting
	Connected
	Faulted
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	case Faulted:
		return "FAULTED"
	default:
		return "UNKNOWN"
	}
}

// Config holds the two independent timeouts of a session.
type Config struct {
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
}

const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultCommandTimeout = 5 * time.Second
)

// Session owns one transport connection to one display.
// Exchanges are half-duplex; the caller must not overlap them.
type Session struct {
	dialer Dialer
	cfg    Config
	log    zerolog.Logger

	mu    sync.Mutex
	state State
	conn  Conn
}

// New creates a disconnected session. Zero timeouts take the defaults.
func New(d Dialer, cfg Config, log zerolog.Logger) *Session {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	return &Session{
		dialer: d,
		cfg:    cfg,
		log:    log.With().Str("transport", d.String()).Logger(),
	}
}

// Config returns the session timeouts.
func (s *Session) Config() Config { return s.cfg }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsConnected reports whether the session is CONNECTED.
func (s *Session) IsConnected() bool {
	return s.State() == Connected
}

// Connect dials the display, bounded by the connect timeout.
// A failed attempt leaves the session DISCONNECTED.
// A FAULTED session refuses to connect until Disconnect is called.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case Connected:
		s.mu.Unlock()
		return nil
	case Faulted:
		s.mu.Unlock()
		return &mdc.Error{Kind: mdc.KindFaulted, Msg: "session faulted, disconnect before reconnecting"}
	case Connecting:
		s.mu.Unlock()
		return &mdc.Error{Kind: mdc.KindConnect, Msg: "connect already in progress"}
	}
	s.state = Connecting
	s.mu.Unlock()

	dctx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	s.log.Debug().Msg("connecting")
	conn, err := s.dialer.Dial(dctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = Disconnected
		return mdc.Wrap(mdc.KindConnect, err, "dial %s", s.dialer)
	}
	// Disconnect raced with the dial.
	if s.state != Connecting {
		_ = conn.Close()
		return &mdc.Error{Kind: mdc.KindConnect, Msg: "session closed during connect"}
	}

	s.conn = conn
	s.state = Connected
	s.log.Info().Msg("connected")
	return nil
}

// Disconnect tears down the connection and clears a fault.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked(Disconnected)
}

// Fault moves a session to FAULTED after a protocol mismatch.
// The connection is closed; only Disconnect clears the state.
func (s *Session) Fault(reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.closeLocked(Faulted)
	s.log.Warn().Err(reason).Msg("session faulted")
}

func (s *Session) closeLocked(next State) error {
	s.state = next
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// drop closes conn if it is still the active connection.
func (s *Session) drop(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == conn && s.state == Connected {
		_ = s.closeLocked(Disconnected)
	}
}

// SendAndMaybeReceive writes frame and, when expectResponse is set, reads one frame back.
// Any I/O failure tears the connection down: no partial-frame recovery.
// A zero timeout uses the session's command timeout.
func (s *Session) SendAndMaybeReceive(frame []byte, expectResponse bool, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = s.cfg.CommandTimeout
	}

	s.mu.Lock()
	conn, state := s.conn, s.state
	s.mu.Unlock()

	if state == Faulted {
		return nil, &mdc.Error{Kind: mdc.KindFaulted, Msg: "session faulted"}
	}
	if state != Connected || conn == nil {
		return nil, &mdc.Error{Kind: mdc.KindIO, Msg: "not connected"}
	}

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		s.drop(conn)
		return nil, mdc.Wrap(mdc.KindIO, err, "set deadline")
	}

	if _, err := conn.Write(frame); err != nil {
		s.drop(conn)
		return nil, mdc.Wrap(mdc.KindIO, err, "write")
	}
	s.log.Debug().Hex("tx", frame).Msg("frame sent")

	if !expectResponse {
		return nil, nil
	}

	resp, clean, err := readFrame(conn)
	if err != nil {
		s.drop(conn)
		if isTimeout(err) {
			return nil, mdc.Wrap(mdc.KindIO, err, "read timeout after %s", timeout)
		}
		return nil, mdc.Wrap(mdc.KindIO, err, "read")
	}
	s.log.Debug().Hex("rx", resp).Msg("frame received")
	if !clean {
		// Nothing stale may reach the next exchange.
		s.drop(conn)
		s.log.Warn().Hex("rx", resp).Msg("frame boundary lost, connection dropped")
	}

	return resp, nil
}

// readFrame reads one frame including its trailing checksum byte.
// clean is false when the wire is left in doubt: the checksum never arrived
// before the deadline, extra bytes followed the frame, or the bytes are not
// an MDC frame. The caller must drop the connection in that case.
func readFrame(r io.Reader) (frame []byte, clean bool, err error) {
	buf := make([]byte, 0, mdc.HeaderLen+mdc.MaxPayload+1)
	tmp := make([]byte, 512)

	for {
		if len(buf) > 0 && buf[0] != mdc.Header && len(buf) >= mdc.HeaderLen {
			// Not an MDC frame; let the decoder report the mismatch.
			return buf, false, nil
		}
		if n, ok := mdc.FrameLen(buf); ok && len(buf) >= n+1 {
			return buf[:n+1], len(buf) == n+1, nil
		}

		n, rerr := r.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if rerr == nil {
			continue
		}
		if n, ok := mdc.FrameLen(buf); ok && len(buf) >= n+1 {
			return buf[:n+1], len(buf) == n+1, nil
		}
		// Payload complete, checksum byte lost.
		if n, ok := mdc.FrameLen(buf); ok && len(buf) == n && (isTimeout(rerr) || errors.Is(rerr, io.EOF)) {
			return buf, false, nil
		}
		if errors.Is(rerr, io.EOF) {
			return nil, false, io.ErrUnexpectedEOF
		}
		return nil, false, rerr
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
