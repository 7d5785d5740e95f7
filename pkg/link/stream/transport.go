// Package stream carries chain frames over a byte stream.
package stream

import (
	"io"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/flapchain/pkg/frame"
)

// Deadliner is implemented by streams supporting read deadlines (net.Conn).
type Deadliner interface {
	SetReadDeadline(time.Time) error
}

// Transport implements link.Transport over an io.ReadWriter.
// Read on the stream must return periodically, either because the stream
// has its own read timeout (serial ports) or it supports read deadlines.
type Transport struct {
	ReadWriter io.ReadWriter
	// IsTimeout recognizes read timeout errors, os.IsTimeout if nil.
	IsTimeout func(error) bool

	parser  frame.Parser
	buf     []byte
	pending []byte
}

// New creates a Transport.
func New(rw io.ReadWriter) *Transport {
	return &Transport{ReadWriter: rw, buf: make([]byte, 256)}
}

// Stats returns the parser counters.
func (t *Transport) Stats() frame.Stats {
	return t.parser.Stats()
}

// ReadFrame implements link.Transport.
func (t *Transport) ReadFrame(timeout time.Duration) (*frame.Frame, error) {
	deadline := time.Now().Add(timeout)
	for {
		if f := t.consume(); f != nil {
			return f, nil
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
		if d, ok := t.ReadWriter.(Deadliner); ok {
			if err := d.SetReadDeadline(deadline); err != nil {
				return nil, err
			}
		}
		n, err := t.ReadWriter.Read(t.buf)
		if n > 0 {
			t.pending = append(t.pending, t.buf[:n]...)
			continue
		}
		if err != nil {
			if t.isTimeout(err) {
				t.parser.Timeout()
				continue
			}
			return nil, err
		}
	}
}

// WriteFrame implements link.Transport.
func (t *Transport) WriteFrame(f *frame.Frame) error {
	_, err := f.WriteTo(t.ReadWriter)
	return err
}

func (t *Transport) consume() *frame.Frame {
	for n, b := range t.pending {
		pr := t.parser.Parse(b)
		if pr.Err != nil {
			glog.V(2).Infof("frame dropped: %v", pr.Err)
		}
		if pr.Frame != nil {
			t.pending = t.pending[n+1:]
			return pr.Frame
		}
	}
	t.pending = t.pending[:0]
	return nil
}

func (t *Transport) isTimeout(err error) bool {
	if t.IsTimeout != nil && t.IsTimeout(err) {
		return true
	}
	return os.IsTimeout(err)
}
