package bank

import (
	"io"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/flapchain/pkg/bench"
	"github.com/robotalks/flapchain/pkg/flap"
)

// Driver is a Bank on a module-driver board attached by a byte stream.
// The board reports nothing back, so positions are tracked with a Sim
// moving at the board's pace.
type Driver struct {
	*Sim
	W io.Writer

	err error
}

// NewDriver creates a Driver writing bench frames to w.
func NewDriver(w io.Writer, offsets ...int) *Driver {
	sim := NewSim(offsets...).WithStepPeriod(DefaultStepPeriod)
	return &Driver{Sim: sim, W: w}
}

// SetLetters implements Bank. The frame always covers every module so
// trailing modules turn blank.
func (d *Driver) SetLetters(segment string) {
	d.Sim.SetLetters(segment)
	d.send(d.Targets())
}

// Reset homes all modules on the board.
func (d *Driver) Reset() {
	d.send(string(bench.ResetAllChar))
	d.Sim.Reset()
}

// Err returns the last write error.
func (d *Driver) Err() error {
	return d.err
}

func (d *Driver) send(text string) {
	if _, err := d.W.Write(bench.Transform(text)); err != nil {
		d.err = err
		glog.Warningf("module driver write %q: %v", strings.TrimRight(text, string(flap.Blank)), err)
		return
	}
	d.err = nil
}
