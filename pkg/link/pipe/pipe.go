// Package pipe provides connected in-memory transports.
package pipe

import (
	"errors"
	"sync"
	"time"

	"github.com/robotalks/flapchain/pkg/frame"
	"github.com/robotalks/flapchain/pkg/link"
)

// ErrFull indicates the peer is not reading.
var ErrFull = errors.New("pipe full")

// End is one end of a pipe.
type End struct {
	in   <-chan *frame.Frame
	out  chan<- *frame.Frame
	done chan struct{}
	once *sync.Once
}

// New creates a pair of connected ends, each buffering up to size frames.
func New(size int) (*End, *End) {
	ab, ba := make(chan *frame.Frame, size), make(chan *frame.Frame, size)
	done, once := make(chan struct{}), &sync.Once{}
	return &End{in: ba, out: ab, done: done, once: once},
		&End{in: ab, out: ba, done: done, once: once}
}

// ReadFrame implements link.Transport.
func (e *End) ReadFrame(timeout time.Duration) (*frame.Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f := <-e.in:
		return f, nil
	case <-e.done:
		return nil, link.ErrClosed
	case <-timer.C:
		return nil, nil
	}
}

// WriteFrame implements link.Transport. The frame is copied.
func (e *End) WriteFrame(f *frame.Frame) error {
	cp := *f
	cp.Letters = append([]byte(nil), f.Letters...)
	if len(cp.Letters) == 0 {
		cp.Letters = nil
	}
	select {
	case <-e.done:
		return link.ErrClosed
	default:
	}
	select {
	case e.out <- &cp:
		return nil
	default:
		return ErrFull
	}
}

// Close closes both ends.
func (e *End) Close() error {
	e.once.Do(func() { close(e.done) })
	return nil
}
