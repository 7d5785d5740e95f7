// Package bank drives the split-flap modules attached to one board.
package bank

import (
	"context"
	"time"

	"github.com/robotalks/flapchain/pkg/flap"
)

// Bank is the set of modules a board drives locally.
type Bank interface {
	// NumModules returns the number of local modules.
	NumModules() int
	// SetLetters assigns targets in module order. Modules beyond the
	// segment show blank, characters beyond the module count are ignored.
	SetLetters(segment string)
	// MaxSteps returns the largest step count any module needs to reach
	// its target.
	MaxSteps() int
	// RotateUntilStopped drives the modules until all of them stop or
	// budget steps elapsed, and returns the steps driven.
	RotateUntilStopped(ctx context.Context, budget int) int
	// Status returns the letters the modules show, in module order.
	Status() string
}

// Sleeper waits between steps.
type Sleeper interface {
	Sleep(time.Duration)
}

type wallSleeper struct{}

func (wallSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// DefaultStepPeriod is the time the stepper takes for one step.
const DefaultStepPeriod = 10 * time.Millisecond

// Modules is a software model of the modules in a Bank.
type Modules []*flap.Module

// NewModules creates homed modules with calibration offsets.
func NewModules(offsets ...int) Modules {
	mods := make(Modules, len(offsets))
	for n, off := range offsets {
		mods[n] = flap.NewModule(off)
	}
	return mods
}

// SetLetters implements Bank.
func (m Modules) SetLetters(segment string) {
	for n, mod := range m {
		if n < len(segment) {
			mod.SetTarget(segment[n])
		} else {
			mod.SetTarget(flap.Blank)
		}
	}
}

// MaxSteps implements Bank.
func (m Modules) MaxSteps() int {
	var steps int
	for _, mod := range m {
		if d := mod.Distance(); d > steps {
			steps = d
		}
	}
	return steps
}

// Status implements Bank.
func (m Modules) Status() string {
	b := make([]byte, len(m))
	for n, mod := range m {
		b[n] = mod.Showing()
	}
	return string(b)
}

// Targets returns the assigned letters in module order.
func (m Modules) Targets() string {
	b := make([]byte, len(m))
	for n, mod := range m {
		b[n] = mod.Target()
	}
	return string(b)
}

// Home homes all modules.
func (m Modules) Home() {
	for _, mod := range m {
		mod.Home()
	}
}

// Step advances every moving module by one step and reports whether any
// module moved.
func (m Modules) Step() bool {
	var moved bool
	for _, mod := range m {
		if mod.Advance(1) > 0 {
			moved = true
		}
	}
	return moved
}

// Resetter is implemented by a Bank that can home all its modules at once.
type Resetter interface {
	Reset()
}
