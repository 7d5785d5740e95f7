package bank

import (
	"context"
	"time"
)

// Sim is a Bank of simulated modules.
type Sim struct {
	Modules
	// StepPeriod is the delay of a single step, 0 steps instantly.
	StepPeriod time.Duration
	Sleeper    Sleeper

	rotated uint64
}

// NewSim creates a simulated Bank, one module per calibration offset.
func NewSim(offsets ...int) *Sim {
	return &Sim{Modules: NewModules(offsets...), Sleeper: wallSleeper{}}
}

// NewSimN creates n simulated modules with zero offsets.
func NewSimN(n int) *Sim {
	return NewSim(make([]int, n)...)
}

// WithStepPeriod sets the step delay.
func (s *Sim) WithStepPeriod(d time.Duration) *Sim {
	s.StepPeriod = d
	return s
}

// NumModules implements Bank.
func (s *Sim) NumModules() int {
	return len(s.Modules)
}

// RotateUntilStopped implements Bank. ctx is checked before every step.
func (s *Sim) RotateUntilStopped(ctx context.Context, budget int) int {
	var steps int
	for steps < budget && ctx.Err() == nil {
		if !s.Step() {
			break
		}
		steps++
		if s.StepPeriod > 0 && s.Sleeper != nil {
			s.Sleeper.Sleep(s.StepPeriod)
		}
	}
	s.rotated += uint64(steps)
	return steps
}

// Rotated returns the total steps driven.
func (s *Sim) Rotated() uint64 {
	return s.rotated
}

// Reset homes all modules.
func (s *Sim) Reset() {
	s.Home()
}
