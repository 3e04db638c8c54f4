// internal/session/dialer.go
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"go.bug.st/serial"
)

// Conn is the byte stream a session talks over.
type Conn interface {
	io.ReadWriteCloser
	SetDeadline(t time.Time) error
}

// Dialer opens a Conn. ctx carries the connect deadline.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
	String() string
}

// ---- TCP ----

// TCPDialer connects over MDC/TCP.
type TCPDialer struct {
	Address string // host:port
}

// NewTCPDialer builds a dialer for host:port. Port 0 means 1515.
func NewTCPDialer(host string, port int) *TCPDialer {
	if port == 0 {
		port = 1515
	}
	return &TCPDialer{Address: net.JoinHostPort(host, fmt.Sprint(port))}
}

func (d *TCPDialer) Dial(ctx context.Context) (Conn, error) {
	if d.Address == "" {
		return nil, errors.New("session: tcp address required")
	}
	var nd net.Dialer
	c, err := nd.DialContext(ctx, "tcp", d.Address)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (d *TCPDialer) String() string { return "tcp://" + d.Address }

// ---- RS-232 ----

// SerialDialer connects over an RS-232 port (MDC 9600 8N1 by default).
type SerialDialer struct {
	Port     string
	BaudRate int
}

const DefaultBaudRate = 9600

func (d *SerialDialer) Dial(ctx context.Context) (Conn, error) {
	if d.Port == "" {
		return nil, errors.New("session: serial port required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	baud := d.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}

	p, err := serial.Open(d.Port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	return &serialConn{port: p}, nil
}

func (d *SerialDialer) String() string { return "serial://" + d.Port }

// serialConn maps net.Conn style deadlines onto a serial port read timeout.
type serialConn struct {
	port     serial.Port
	deadline time.Time
}

func (c *serialConn) SetDeadline(t time.Time) error {
	c.deadline = t
	return nil
}

func (c *serialConn) Read(b []byte) (int, error) {
	if !c.deadline.IsZero() {
		left := time.Until(c.deadline)
		if left <= 0 {
			return 0, os.ErrDeadlineExceeded
		}
		if err := c.port.SetReadTimeout(left); err != nil {
			return 0, err
		}
	}
	n, err := c.port.Read(b)
	// go.bug.st/serial reports a read timeout as (0, nil).
	if n == 0 && err == nil {
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}

func (c *serialConn) Write(b []byte) (int, error) { return c.port.Write(b) }

func (c *serialConn) Close() error { return c.port.Close() }
