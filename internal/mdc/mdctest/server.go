// internal/mdc/mdctest/server.go

// Package mdctest runs an in-process display that speaks MDC over loopback TCP.
package mdctest

import (
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/tamzrod/mdc-controller/internal/display"
	"github.com/tamzrod/mdc-controller/internal/mdc"
)

// Server is a fake display.
//
// Sets are stored and ACKed with the sent value. Queries are ACKed with the
// stored value, or NAKed when nothing is stored. A handler installed with
// SetHandler overrides this; returning nil sends nothing back.
type Server struct {
	ID uint8

	ln net.Listener
	wg sync.WaitGroup

	mu      sync.Mutex
	values  map[mdc.Command][]byte
	frames  []mdc.Frame
	handler func(f mdc.Frame) []byte
	conns   map[net.Conn]struct{}
}

// NewServer starts a display answering to id on 127.0.0.1.
func NewServer(id uint8) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{
		ID:     id,
		ln:     ln,
		values: make(map[mdc.Command][]byte),
		conns:  make(map[net.Conn]struct{}),
	}
	s.wg.Add(1)
	go s.accept()
	return s, nil
}

// Endpoint describes the server as a TCP display.
func (s *Server) Endpoint(name string) display.Endpoint {
	host, port, _ := net.SplitHostPort(s.ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return display.Endpoint{ID: s.ID, Name: name, Host: host, Port: p}
}

// Set stores the value a query for cmd reports.
func (s *Server) Set(cmd mdc.Command, values ...byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[cmd] = append([]byte(nil), values...)
}

// SetHandler replaces the default behaviour. nil restores it.
func (s *Server) SetHandler(h func(f mdc.Frame) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// SetString stores an ASCII reply for cmd.
func (s *Server) SetString(cmd mdc.Command, v string) {
	s.Set(cmd, []byte(v)...)
}

// Value returns the stored value for cmd.
func (s *Server) Value(cmd mdc.Command) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[cmd]
	return append([]byte(nil), v...), ok
}

// Frames returns every frame received so far.
func (s *Server) Frames() []mdc.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mdc.Frame(nil), s.frames...)
}

// Close stops the listener and drops every connection.
func (s *Server) Close() {
	_ = s.ln.Close()
	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) accept() {
	defer s.wg.Done()
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(c)
	}
}

func (s *Server) serve(c net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		_ = c.Close()
	}()

	hdr := make([]byte, mdc.HeaderLen)
	for {
		if _, err := io.ReadFull(c, hdr); err != nil {
			return
		}
		rest := make([]byte, int(hdr[3])+1)
		if _, err := io.ReadFull(c, rest); err != nil {
			return
		}
		f, err := mdc.Decode(s.ID, append(hdr, rest...))
		if err != nil {
			continue
		}
		reply := s.respond(f)
		if reply == nil {
			continue
		}
		if _, err := c.Write(reply); err != nil {
			return
		}
	}
}

func (s *Server) respond(f mdc.Frame) []byte {
	s.mu.Lock()
	s.frames = append(s.frames, f)
	h := s.handler
	s.mu.Unlock()

	if h != nil {
		return h(f)
	}

	if len(f.Data) > 0 {
		s.Set(f.Command, f.Data...)
		if f.Command == mdc.CmdPower {
			s.Set(mdc.CmdPowerStatus, f.Data...)
		}
		return Ack(s.ID, f.Command, f.Data...)
	}
	if v, ok := s.Value(f.Command); ok {
		return Ack(s.ID, f.Command, v...)
	}
	return Nak(s.ID, f.Command)
}

// Ack encodes an ACK reply frame.
func Ack(id uint8, cmd mdc.Command, values ...byte) []byte {
	b, _ := mdc.Encode(id, mdc.CmdReply, append([]byte{'A', byte(cmd)}, values...))
	return b
}

// Nak encodes a NAK reply frame.
func Nak(id uint8, cmd mdc.Command) []byte {
	b, _ := mdc.Encode(id, mdc.CmdReply, []byte{'N', byte(cmd), 0x00})
	return b
}
