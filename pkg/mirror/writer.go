package mirror

import (
	"fmt"
	"io"
	"time"

	"github.com/robotalks/flapchain/pkg/chain"
	"github.com/robotalks/flapchain/pkg/framework"
)

// Config locates the register block.
type Config struct {
	Endpoint    string
	UnitID      uint8
	BaseAddress uint16
	Timeout     time.Duration
}

// Writer writes the block of every cycle report found in the loop.
type Writer struct {
	Config
	Client RegisterWriter
}

// New creates a Writer with a Modbus TCP client.
func New(cfg Config) (*Writer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	cli, err := NewEndpointClient(cfg.Endpoint, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Writer{Config: cfg, Client: cli}, nil
}

// AddToLoop implements framework.LoopAdder.
func (w *Writer) AddToLoop(l *framework.Loop) {
	l.AddController(framework.PrLvPostProc, w)
}

// Control implements framework.Controller. Only the latest report of the
// iteration is written.
func (w *Writer) Control(cc framework.ControlContext) error {
	var last *chain.CycleReport
	cc.Messages().ProcessMessages(framework.ProcessMessageFunc(func(mc framework.MessageProcessingContext) {
		if r, ok := mc.CurrentMessage().(*chain.CycleReport); ok {
			last = r
		}
	}))
	if last == nil {
		return nil
	}
	return w.Write(last)
}

// Write writes the full block of r.
func (w *Writer) Write(r *chain.CycleReport) error {
	if err := w.Client.WriteRegisters(w.UnitID, w.BaseAddress, Block(r)); err != nil {
		return fmt.Errorf("mirror %s: %w", w.Endpoint, err)
	}
	return nil
}

// Close closes the client if it holds a connection.
func (w *Writer) Close() error {
	if c, ok := w.Client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
