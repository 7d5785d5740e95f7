package env

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/robotalks/flapchain/pkg/bench"
	"github.com/robotalks/flapchain/pkg/link"
	"github.com/robotalks/flapchain/pkg/link/mqtt"
	linkserial "github.com/robotalks/flapchain/pkg/link/serial"
	"github.com/robotalks/flapchain/pkg/link/stream"
	"github.com/robotalks/flapchain/pkg/link/websocket"
)

// Transport URL schemes.
const (
	SchemeNone      = "none"
	SchemeSerial    = "serial"
	SchemeTCP       = "tcp"
	SchemeTCPListen = "tcp+listen"
	SchemeMQTT      = "mqtt"
	SchemeWS        = "ws"
	SchemeWSListen  = "ws+listen"
	SchemeBench     = "bench"
)

// DefaultChannel is the MQTT channel when the URL has none.
const DefaultChannel = "chain"

// UnsupportedSchemeError indicates an unknown URL scheme.
type UnsupportedSchemeError struct {
	Scheme string
}

// Error implements error.
func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unsupported scheme %q", e.Scheme)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseURL parses a transport URL and checks the scheme. An empty URL
// means none.
func ParseURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return &url.URL{Scheme: SchemeNone}, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case SchemeNone, SchemeTCP, SchemeTCPListen, SchemeMQTT, SchemeWS, SchemeWSListen:
	case SchemeSerial:
		if u.Path == "" {
			return nil, errors.New("serial device path required")
		}
	default:
		return nil, &UnsupportedSchemeError{Scheme: u.Scheme}
	}
	return u, nil
}

// OpenTransport opens the link transport in rawURL:
//
//	none:
//	serial:///dev/ttyAMA0?baud=38400
//	tcp://host:port
//	tcp+listen://:7000
//	mqtt://host:1883/prefix/?channel=chain1
//	ws://host:port/path
//	ws+listen://:8090/path
//
// facingUp selects the MQTT topics of the upstream side of a board.
func OpenTransport(rawURL string, facingUp bool) (link.Transport, io.Closer, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, nil, err
	}
	switch u.Scheme {
	case SchemeSerial:
		conf, err := serialConfig(u)
		if err != nil {
			return nil, nil, err
		}
		p, err := linkserial.Open(conf)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	case SchemeTCP:
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, nil, err
		}
		return stream.New(conn), conn, nil
	case SchemeTCPListen:
		l, err := stream.Listen(u.Host)
		if err != nil {
			return nil, nil, err
		}
		return l, l, nil
	case SchemeMQTT:
		channel := u.Query().Get("channel")
		if channel == "" {
			channel = DefaultChannel
		}
		q, err := mqtt.NewQueueFromURL(rawURL)
		if err != nil {
			return nil, nil, err
		}
		t := mqtt.NewTransport(q)
		if facingUp {
			t.FacingUp(channel)
		} else {
			t.FacingDown(channel)
		}
		if err := t.Open(); err != nil {
			t.Close()
			return nil, nil, err
		}
		return t, t, nil
	case SchemeWS:
		conn, err := websocket.Dial(rawURL)
		if err != nil {
			return nil, nil, err
		}
		return conn, conn, nil
	case SchemeWSListen:
		l, err := websocket.Listen(u.Host, u.Path)
		if err != nil {
			return nil, nil, err
		}
		return l, l, nil
	}
	return link.Disconnected{}, nopCloser{}, nil
}

// CheckDriverURL validates a module-driver port URL.
func CheckDriverURL(rawURL string) error {
	if rawURL == SchemeBench+":" {
		return nil
	}
	u, err := ParseURL(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != SchemeSerial && u.Scheme != SchemeTCP {
		return &UnsupportedSchemeError{Scheme: u.Scheme}
	}
	return nil
}

// OpenDriverPort opens the byte stream to a module-driver board:
//
//	bench:                       the port found by USB product description
//	serial:///dev/ttyACM0?baud=115200
//	tcp://host:port
func OpenDriverPort(rawURL string) (io.WriteCloser, error) {
	if rawURL == SchemeBench+":" {
		name, err := bench.FindPort(bench.DefaultProduct)
		if err != nil {
			return nil, err
		}
		rawURL = SchemeSerial + "://" + name
	}
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case SchemeSerial:
		conf, err := serialConfig(u)
		if err != nil {
			return nil, err
		}
		return linkserial.OpenPort(conf)
	case SchemeTCP:
		return net.Dial("tcp", u.Host)
	}
	return nil, &UnsupportedSchemeError{Scheme: u.Scheme}
}

func serialConfig(u *url.URL) (linkserial.Config, error) {
	conf := linkserial.Config{Device: u.Path}
	q := u.Query()
	if v := q.Get("baud"); v != "" {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return conf, fmt.Errorf("invalid baud %q", v)
		}
		conf.Baud = baud
	}
	if v := q.Get("parity"); v != "" {
		conf.Parity = strings.ToUpper(v)
	}
	return conf, nil
}
