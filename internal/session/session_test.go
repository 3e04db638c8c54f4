// internal/session/session_test.go
package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"testing"
	"testing/iotest"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/mdc-controller/internal/mdc"
)

// listen starts a TCP server that runs handle for each accepted connection.
func listen(t *testing.T, handle func(net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				handle(c)
			}()
		}
	}()
	return ln.Addr().String()
}

func newTestSession(addr string, cmdTimeout time.Duration) *Session {
	return New(&TCPDialer{Address: addr}, Config{
		ConnectTimeout: time.Second,
		CommandTimeout: cmdTimeout,
	}, zerolog.Nop())
}

func TestSession_ConnectExchangeDisconnect(t *testing.T) {
	addr := listen(t, func(c net.Conn) {
		buf := make([]byte, 64)
		n, err := c.Read(buf)
		if err != nil {
			return
		}
		req, err := mdc.Decode(1, buf[:n])
		if err != nil {
			return
		}
		resp, _ := mdc.Encode(1, mdc.CmdReply, []byte{'A', byte(req.Command), 1})
		c.Write(resp)
		io.Copy(io.Discard, c)
	})

	s := newTestSession(addr, time.Second)
	if s.State() != Disconnected {
		t.Fatalf("initial state %s", s.State())
	}
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect err=%v", err)
	}
	if !s.IsConnected() {
		t.Fatalf("expected CONNECTED, got %s", s.State())
	}

	frame, _ := mdc.Encode(1, mdc.CmdPowerStatus, nil)
	raw, err := s.SendAndMaybeReceive(frame, true, 0)
	if err != nil {
		t.Fatalf("exchange err=%v", err)
	}
	f, err := mdc.Decode(1, raw)
	if err != nil {
		t.Fatalf("decode err=%v", err)
	}
	if r, ok := f.Reply(); !ok || !r.Ack || r.Command != mdc.CmdPowerStatus {
		t.Fatalf("unexpected reply %+v", r)
	}

	if err := s.Disconnect(); err != nil {
		t.Fatalf("Disconnect err=%v", err)
	}
	if s.State() != Disconnected {
		t.Fatalf("expected DISCONNECTED, got %s", s.State())
	}
}

func TestSession_ConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	s := newTestSession(addr, time.Second)
	err = s.Connect(context.Background())
	if !errors.Is(err, mdc.ErrConnect) {
		t.Fatalf("expected connect error, got %v", err)
	}
	if s.State() != Disconnected {
		t.Fatalf("failed connect must leave DISCONNECTED, got %s", s.State())
	}
}

func TestSession_ReadTimeoutDisconnects(t *testing.T) {
	addr := listen(t, func(c net.Conn) {
		io.Copy(io.Discard, c) // never answers
	})

	s := newTestSession(addr, 50*time.Millisecond)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect err=%v", err)
	}

	frame, _ := mdc.Encode(1, mdc.CmdCurrentTemp, nil)
	_, err := s.SendAndMaybeReceive(frame, true, 0)
	if !errors.Is(err, mdc.ErrIO) {
		t.Fatalf("expected io error, got %v", err)
	}
	if s.State() != Disconnected {
		t.Fatalf("timeout must leave DISCONNECTED, got %s", s.State())
	}
}

func TestSession_WriteOnlyDoesNotRead(t *testing.T) {
	addr := listen(t, func(c net.Conn) {
		io.Copy(io.Discard, c)
	})

	s := newTestSession(addr, 50*time.Millisecond)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect err=%v", err)
	}
	frame, _ := mdc.Encode(1, mdc.CmdPower, []byte{1})
	raw, err := s.SendAndMaybeReceive(frame, false, 0)
	if err != nil || raw != nil {
		t.Fatalf("write-only exchange got raw=%v err=%v", raw, err)
	}
	if !s.IsConnected() {
		t.Fatalf("expected CONNECTED, got %s", s.State())
	}
}

func TestSession_FaultRequiresDisconnect(t *testing.T) {
	addr := listen(t, func(c net.Conn) {
		io.Copy(io.Discard, c)
	})

	s := newTestSession(addr, time.Second)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect err=%v", err)
	}

	s.Fault(errors.New("wrong display"))
	if s.State() != Faulted {
		t.Fatalf("expected FAULTED, got %s", s.State())
	}
	if err := s.Connect(context.Background()); !errors.Is(err, mdc.ErrFaulted) {
		t.Fatalf("connect on faulted session: expected faulted error, got %v", err)
	}
	if _, err := s.SendAndMaybeReceive([]byte{0xAA}, true, 0); !errors.Is(err, mdc.ErrFaulted) {
		t.Fatalf("exchange on faulted session: expected faulted error, got %v", err)
	}

	_ = s.Disconnect()
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect after disconnect err=%v", err)
	}
}

func TestSession_SendWhileDisconnected(t *testing.T) {
	s := newTestSession("127.0.0.1:1", time.Second)
	if _, err := s.SendAndMaybeReceive([]byte{0xAA}, true, 0); !errors.Is(err, mdc.ErrIO) {
		t.Fatalf("expected io error, got %v", err)
	}
}

// expiringReader serves data, then reports an expired deadline.
type expiringReader struct{ r io.Reader }

func (e expiringReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err == io.EOF {
		return n, os.ErrDeadlineExceeded
	}
	return n, err
}

func TestReadFrame_ByteByByteWaitsForChecksum(t *testing.T) {
	want, _ := mdc.Encode(7, mdc.CmdSerialNumber, []byte("SN-12345"))
	got, clean, err := readFrame(iotest.OneByteReader(bytes.NewReader(want)))
	if err != nil {
		t.Fatalf("readFrame err=%v", err)
	}
	if !clean || !bytes.Equal(got, want) {
		t.Fatalf("got % X clean=%v, want % X", got, clean, want)
	}
}

func TestReadFrame_WholeSegment(t *testing.T) {
	want, _ := mdc.Encode(7, mdc.CmdSerialNumber, []byte("SN-12345"))
	got, clean, err := readFrame(bytes.NewReader(want))
	if err != nil {
		t.Fatalf("readFrame err=%v", err)
	}
	if !clean || !bytes.Equal(got, want) {
		t.Fatalf("got % X clean=%v, want % X", got, clean, want)
	}
}

func TestReadFrame_ChecksumNeverArrives(t *testing.T) {
	want, _ := mdc.Encode(7, mdc.CmdPowerStatus, []byte{'A', 0xF1, 0x01})
	payload := want[:len(want)-1]

	got, clean, err := readFrame(expiringReader{bytes.NewReader(payload)})
	if err != nil {
		t.Fatalf("readFrame err=%v", err)
	}
	if clean {
		t.Fatalf("a frame without checksum must not be reported clean")
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got % X want % X", got, payload)
	}
}

func TestReadFrame_TrailingBytesNotClean(t *testing.T) {
	want, _ := mdc.Encode(7, mdc.CmdPowerStatus, []byte{'A', 0xF1, 0x01})
	got, clean, err := readFrame(bytes.NewReader(append(append([]byte(nil), want...), 0xAA, 0xFF)))
	if err != nil {
		t.Fatalf("readFrame err=%v", err)
	}
	if clean || !bytes.Equal(got, want) {
		t.Fatalf("got % X clean=%v, want % X and not clean", got, clean, want)
	}
}

func TestReadFrame_Truncated(t *testing.T) {
	_, _, err := readFrame(bytes.NewReader([]byte{0xAA, 0x2C, 0x07, 0x05, 'S'}))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
}

// The checksum of each reply arrives in its own segment; consecutive
// exchanges on one connection must each see a whole, well-formed frame.
func TestSession_LateChecksumDoesNotLeakIntoNextExchange(t *testing.T) {
	addr := listen(t, func(c net.Conn) {
		hdr := make([]byte, mdc.HeaderLen)
		for {
			if _, err := io.ReadFull(c, hdr); err != nil {
				return
			}
			rest := make([]byte, int(hdr[3])+1)
			if _, err := io.ReadFull(c, rest); err != nil {
				return
			}
			resp, _ := mdc.Encode(1, mdc.CmdReply, []byte{'A', hdr[1], 0x01})
			if _, err := c.Write(resp[:len(resp)-1]); err != nil {
				return
			}
			time.Sleep(20 * time.Millisecond)
			if _, err := c.Write(resp[len(resp)-1:]); err != nil {
				return
			}
		}
	})

	s := newTestSession(addr, time.Second)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect err=%v", err)
	}

	frame, _ := mdc.Encode(1, mdc.CmdPowerStatus, nil)
	for i := 0; i < 2; i++ {
		raw, err := s.SendAndMaybeReceive(frame, true, 0)
		if err != nil {
			t.Fatalf("exchange %d err=%v", i, err)
		}
		f, err := mdc.Decode(1, raw)
		if err != nil {
			t.Fatalf("exchange %d: decode % X err=%v", i, raw, err)
		}
		if !f.HasChecksum || !f.ChecksumOK {
			t.Fatalf("exchange %d: checksum not read: % X", i, raw)
		}
		if !s.IsConnected() {
			t.Fatalf("exchange %d: a clean exchange must keep the connection", i)
		}
	}
}

// A reply whose checksum never comes is still delivered, but the
// connection is dropped so the byte cannot show up later.
func TestSession_MissingChecksumDropsConnection(t *testing.T) {
	addr := listen(t, func(c net.Conn) {
		buf := make([]byte, 64)
		if _, err := c.Read(buf); err != nil {
			return
		}
		resp, _ := mdc.Encode(1, mdc.CmdReply, []byte{'A', byte(mdc.CmdPowerStatus), 0x01})
		c.Write(resp[:len(resp)-1])
		io.Copy(io.Discard, c)
	})

	s := newTestSession(addr, 50*time.Millisecond)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect err=%v", err)
	}

	frame, _ := mdc.Encode(1, mdc.CmdPowerStatus, nil)
	raw, err := s.SendAndMaybeReceive(frame, true, 0)
	if err != nil {
		t.Fatalf("exchange err=%v", err)
	}
	if f, err := mdc.Decode(1, raw); err != nil || f.HasChecksum {
		t.Fatalf("decode % X: frame=%+v err=%v", raw, f, err)
	}
	if s.State() != Disconnected {
		t.Fatalf("expected DISCONNECTED after lost checksum, got %s", s.State())
	}
}
