package mirror

import (
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// RegisterWriter writes holding registers on a unit.
type RegisterWriter interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// EndpointClient is a Modbus TCP connection to one endpoint. Requests are
// serialized as the unit id is set per request. The handler connects on
// the first request and after a failure.
type EndpointClient struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

// NewEndpointClient creates an EndpointClient.
func NewEndpointClient(endpoint string, timeout time.Duration) (*EndpointClient, error) {
	if endpoint == "" {
		return nil, errors.New("mirror: endpoint required")
	}
	h := modbus.NewTCPClientHandler(endpoint)
	h.Timeout = timeout
	return &EndpointClient{handler: h, client: modbus.NewClient(h)}, nil
}

// Close implements io.Closer.
func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// WriteRegisters implements RegisterWriter.
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.SlaveId = unitID
	_, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs))
	if err != nil {
		c.handler.Close()
	}
	return err
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
