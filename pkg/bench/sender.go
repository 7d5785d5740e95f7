package bench

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/flapchain/pkg/flap"
	linkserial "github.com/robotalks/flapchain/pkg/link/serial"
)

// Sender writes bench frames to a module-driver board.
type Sender struct {
	W io.Writer
}

// Open opens the serial port of the module-driver board. An empty device
// looks up the port by DefaultProduct.
func Open(device string, baud int) (*Sender, io.Closer, error) {
	if device == "" {
		name, err := FindPort(DefaultProduct)
		if err != nil {
			return nil, nil, err
		}
		device = name
	}
	p, err := linkserial.OpenPort(linkserial.Config{Device: device, Baud: baud})
	if err != nil {
		return nil, nil, err
	}
	glog.Infof("bench port %s opened", device)
	return &Sender{W: p}, p, nil
}

// Send writes one bench frame.
func (s *Sender) Send(text string) error {
	_, err := s.W.Write(Transform(text))
	return err
}

// Reset homes all modules.
func (s *Sender) Reset() error {
	return s.Send(string(ResetAllChar))
}

// Sweep resets all modules, waits settle, then shows every flap on n
// modules, waiting delay after each. progress is called before each flap.
func (s *Sender) Sweep(ctx context.Context, n int, settle, delay time.Duration, progress func(c byte)) error {
	if err := s.Reset(); err != nil {
		return err
	}
	if err := sleep(ctx, settle); err != nil {
		return err
	}
	for i := 0; i < flap.Count; i++ {
		c := flap.Letter(i)
		if progress != nil {
			progress(c)
		}
		word := make([]byte, n)
		for j := range word {
			word[j] = c
		}
		if err := s.Send(string(word)); err != nil {
			return err
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
