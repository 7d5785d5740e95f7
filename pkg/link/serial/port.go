// Package serial opens a UART as a chain link transport.
package serial

import (
	"fmt"
	"time"

	"github.com/goburrow/serial"

	"github.com/robotalks/flapchain/pkg/link/stream"
)

// Config specifies the serial port settings.
type Config struct {
	Device   string
	Baud     int
	DataBits int
	StopBits int
	Parity   string
	// PollTimeout bounds each read on the port.
	PollTimeout time.Duration
}

// Defaults used by the chain boards.
const (
	DefaultBaud        = 38400
	DefaultPollTimeout = 10 * time.Millisecond
)

// Port is a chain link transport on a serial port.
type Port struct {
	*stream.Transport
	port serial.Port
}

// Open opens the serial port as a frame transport.
func Open(conf Config) (*Port, error) {
	p, err := OpenPort(conf)
	if err != nil {
		return nil, err
	}
	t := stream.New(p)
	t.IsTimeout = IsTimeout
	return &Port{Transport: t, port: p}, nil
}

// OpenPort opens the raw serial port, zero fields take the defaults.
func OpenPort(conf Config) (serial.Port, error) {
	if conf.Device == "" {
		return nil, fmt.Errorf("serial device required")
	}
	sc := &serial.Config{
		Address:  conf.Device,
		BaudRate: conf.Baud,
		DataBits: conf.DataBits,
		StopBits: conf.StopBits,
		Parity:   conf.Parity,
		Timeout:  conf.PollTimeout,
	}
	if sc.BaudRate == 0 {
		sc.BaudRate = DefaultBaud
	}
	if sc.DataBits == 0 {
		sc.DataBits = 8
	}
	if sc.StopBits == 0 {
		sc.StopBits = 1
	}
	if sc.Parity == "" {
		sc.Parity = "N"
	}
	if sc.Timeout == 0 {
		sc.Timeout = DefaultPollTimeout
	}
	p, err := serial.Open(sc)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.Device, err)
	}
	return p, nil
}

// Close implements io.Closer.
func (p *Port) Close() error {
	return p.port.Close()
}

// IsTimeout recognizes the read timeout of the serial port.
func IsTimeout(err error) bool {
	return err == serial.ErrTimeout
}
