// Package link implements the bounded-wait rendezvous over a chain link.
package link

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/flapchain/pkg/frame"
)

// Transport reads and writes frames on one physical channel.
type Transport interface {
	// ReadFrame waits up to timeout for the next frame.
	// It returns nil, nil if nothing arrived in time.
	ReadFrame(timeout time.Duration) (*frame.Frame, error)
	// WriteFrame sends a frame without waiting for any reply.
	WriteFrame(*frame.Frame) error
}

// Stats counts the traffic on a link.
type Stats struct {
	Sent     uint64
	Received uint64
	Dropped  uint64
	Timeouts uint64
}

// Link is one direction of the chain, upstream or downstream.
// It owns the sequence counter for frames originated on it.
// A Link must only be used from a single goroutine.
type Link struct {
	Name      string
	Transport Transport
	Clock     Clock

	seq        uint32
	lastRemote uint32
	stats      Stats
}

// New creates a Link with the wall clock.
func New(name string, t Transport) *Link {
	return &Link{
		Name:      name,
		Transport: t,
		Clock:     RealClock,
		seq:       uint32(time.Now().UnixNano()) & 0xffff,
	}
}

// WithClock replaces the clock.
func (l *Link) WithClock(c Clock) *Link {
	l.Clock = c
	return l
}

// WithSeq sets the sequence counter, the next minted number is seq+1.
func (l *Link) WithSeq(seq uint32) *Link {
	l.seq = seq
	return l
}

// NextSeq mints a new sequence number. Numbers are strictly increasing
// and never 0 until the counter wraps.
func (l *Link) NextSeq() uint32 {
	if l.seq++; l.seq == 0 {
		l.seq = 1
	}
	return l.seq
}

// Seq returns the last minted sequence number.
func (l *Link) Seq() uint32 {
	return l.seq
}

// LastRemote returns the sequence of the last frame accepted by Poll.
func (l *Link) LastRemote() uint32 {
	return l.lastRemote
}

// Stats returns the counters.
func (l *Link) Stats() Stats {
	return l.stats
}

// Send writes a frame as-is.
func (l *Link) Send(f *frame.Frame) error {
	if err := l.Transport.WriteFrame(f); err != nil {
		return err
	}
	l.stats.Sent++
	glog.V(2).Infof("%s TX %s", l.Name, f)
	return nil
}

// Reply sends a frame on a sequence number minted by the peer.
func (l *Link) Reply(kind frame.Kind, seq uint32, steps int, letters string) error {
	return l.Send(frame.New(kind, seq, clampSteps(steps), letters))
}

// Originate mints a new sequence number and sends a frame with it.
// The sequence is consumed even if the write fails.
func (l *Link) Originate(kind frame.Kind, steps int, letters string) (uint32, error) {
	seq := l.NextSeq()
	return seq, l.Send(frame.New(kind, seq, clampSteps(steps), letters))
}

// Await waits for a frame of kind carrying seq. Any other frame is
// dropped as if it never arrived. It returns nil, nil on timeout.
func (l *Link) Await(kind frame.Kind, seq uint32, timeout time.Duration) (*frame.Frame, error) {
	return l.wait(timeout, func(f *frame.Frame) bool {
		return f.Kind == kind && f.Seq == seq
	})
}

// Poll waits for a frame of kind with any sequence number.
func (l *Link) Poll(kind frame.Kind, timeout time.Duration) (*frame.Frame, error) {
	f, err := l.wait(timeout, func(f *frame.Frame) bool {
		return f.Kind == kind
	})
	if f != nil {
		l.lastRemote = f.Seq
	}
	return f, err
}

func (l *Link) wait(timeout time.Duration, match func(*frame.Frame) bool) (*frame.Frame, error) {
	deadline := l.Clock.Now().Add(timeout)
	for {
		remain := deadline.Sub(l.Clock.Now())
		if remain <= 0 {
			l.stats.Timeouts++
			return nil, nil
		}
		f, err := l.Transport.ReadFrame(remain)
		if err != nil {
			return nil, err
		}
		if f == nil {
			continue
		}
		l.stats.Received++
		glog.V(2).Infof("%s RX %s", l.Name, f)
		if match(f) {
			return f, nil
		}
		l.stats.Dropped++
		glog.V(2).Infof("%s unexpected %s dropped", l.Name, f)
	}
}

func clampSteps(steps int) uint32 {
	if steps < 0 {
		return 0
	}
	return uint32(steps)
}

// Disconnected is a Transport with nobody on the other side.
// Reads wait out their timeout, writes are discarded.
type Disconnected struct {
	Clock Clock
}

// ReadFrame implements Transport.
func (d Disconnected) ReadFrame(timeout time.Duration) (*frame.Frame, error) {
	clock := d.Clock
	if clock == nil {
		clock = RealClock
	}
	clock.Sleep(timeout)
	return nil, nil
}

// WriteFrame implements Transport.
func (d Disconnected) WriteFrame(*frame.Frame) error {
	return nil
}
