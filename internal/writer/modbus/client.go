// internal/writer/modbus/client.go
package modbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// MaxWriteRegisters is the FC 16 quantity limit.
const MaxWriteRegisters = 123

// Client writes display status blocks into one Modbus TCP status memory.
// Requests are serialized: the unit id is set on the shared handler per write.
type Client struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewClient prepares a client for cfg.Endpoint without dialing.
// The first write connects; a write failure drops the socket and the next write redials.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer modbus: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}

	return &Client{handler: h, client: modbus.NewClient(h)}, nil
}

func (c *Client) Endpoint() string { return c.handler.Address }

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// WriteRegisters writes regs as holding registers (FC 16) starting at addr.
func (c *Client) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if len(regs) == 0 || len(regs) > MaxWriteRegisters {
		return fmt.Errorf("writer modbus: %d registers outside 1-%d", len(regs), MaxWriteRegisters)
	}
	if int(addr)+len(regs) > 0x10000 {
		return fmt.Errorf("writer modbus: write at %d+%d exceeds address space", addr, len(regs))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID
	if _, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs)); err != nil {
		_ = c.handler.Close()
		return fmt.Errorf("writer modbus: unit %d addr %d: %w", unitID, addr, err)
	}
	return nil
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, 2*len(regs))
	for i, r := range regs {
		binary.BigEndian.PutUint16(out[2*i:], r)
	}
	return out
}
