// Package linktest provides a scripted Transport for deterministic tests.
package linktest

import (
	"sort"
	"time"

	"github.com/robotalks/flapchain/pkg/frame"
	"github.com/robotalks/flapchain/pkg/link"
)

// Script is a Transport whose incoming frames arrive at scheduled times on
// a ManualClock. Waiting for a frame advances the clock.
type Script struct {
	Clock    *link.ManualClock
	Written  []*frame.Frame
	WriteErr error
	ReadErr  error

	// OnWrite is called after each successful write, typically to
	// schedule the peer's replies.
	OnWrite func(s *Script, f *frame.Frame)

	pending []scheduled
}

type scheduled struct {
	at time.Time
	f  *frame.Frame
}

// NewScript creates a Script.
func NewScript(clock *link.ManualClock) *Script {
	return &Script{Clock: clock}
}

// Deliver makes a frame available now.
func (s *Script) Deliver(f *frame.Frame) *Script {
	return s.DeliverAfter(0, f)
}

// DeliverAfter makes a frame arrive d from now.
func (s *Script) DeliverAfter(d time.Duration, f *frame.Frame) *Script {
	s.pending = append(s.pending, scheduled{at: s.Clock.Now().Add(d), f: f})
	sort.SliceStable(s.pending, func(i, j int) bool {
		return s.pending[i].at.Before(s.pending[j].at)
	})
	return s
}

// Pending returns the number of frames not read yet.
func (s *Script) Pending() int {
	return len(s.pending)
}

// ReadFrame implements link.Transport.
func (s *Script) ReadFrame(timeout time.Duration) (*frame.Frame, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	now := s.Clock.Now()
	deadline := now.Add(timeout)
	if len(s.pending) > 0 && !s.pending[0].at.After(deadline) {
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.Clock.Advance(next.at.Sub(now))
		return next.f, nil
	}
	s.Clock.Advance(timeout)
	return nil, nil
}

// WriteFrame implements link.Transport.
func (s *Script) WriteFrame(f *frame.Frame) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.Written = append(s.Written, f)
	if s.OnWrite != nil {
		s.OnWrite(s, f)
	}
	return nil
}

// Kinds lists the kinds of written frames in order.
func (s *Script) Kinds() []frame.Kind {
	kinds := make([]frame.Kind, len(s.Written))
	for n, f := range s.Written {
		kinds[n] = f.Kind
	}
	return kinds
}
