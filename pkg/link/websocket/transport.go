// Package websocket carries chain frames over websocket binary messages.
package websocket

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/flapchain/pkg/frame"
	"github.com/robotalks/flapchain/pkg/link"
)

// QueueSize bounds frames received but not read yet.
const QueueSize = 16

type receiver struct {
	frameCh chan *frame.Frame
	done    chan struct{}
	once    sync.Once
}

func newReceiver() *receiver {
	return &receiver{
		frameCh: make(chan *frame.Frame, QueueSize),
		done:    make(chan struct{}),
	}
}

// ReadFrame implements link.Transport.
func (r *receiver) ReadFrame(timeout time.Duration) (*frame.Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f := <-r.frameCh:
		return f, nil
	case <-r.done:
		return nil, link.ErrClosed
	case <-timer.C:
		return nil, nil
	}
}

func (r *receiver) shutdown() bool {
	var first bool
	r.once.Do(func() {
		close(r.done)
		first = true
	})
	return first
}

// receive reads messages until the connection fails.
func (r *receiver) receive(conn *websocket.Conn) error {
	for {
		var data []byte
		if err := websocket.Message.Receive(conn, &data); err != nil {
			return err
		}
		f, err := frame.Decode(data)
		if err != nil {
			glog.V(2).Infof("websocket %s: frame dropped: %v", conn.RemoteAddr(), err)
			continue
		}
		select {
		case r.frameCh <- f:
		default:
			glog.Warningf("websocket %s: receive queue full, %s dropped", conn.RemoteAddr(), f)
		}
	}
}

func send(conn *websocket.Conn, f *frame.Frame) error {
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	return websocket.Message.Send(conn, data)
}

// Conn is the dialing side of a websocket link.
type Conn struct {
	*receiver
	ws *websocket.Conn
}

// Dial connects to a Listener.
func Dial(url string) (*Conn, error) {
	ws, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	c := &Conn{receiver: newReceiver(), ws: ws}
	go func() {
		if err := c.receive(ws); err != nil && c.shutdown() {
			glog.Warningf("websocket %s: %v", url, err)
		}
	}()
	return c, nil
}

// WriteFrame implements link.Transport.
func (c *Conn) WriteFrame(f *frame.Frame) error {
	return send(c.ws, f)
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	c.shutdown()
	return c.ws.Close()
}

// Listener is the serving side of a websocket link. Frames from any
// connected peer are merged, writes go to the most recent peer.
type Listener struct {
	*receiver

	listener net.Listener
	server   *http.Server
	lock     sync.Mutex
	peer     *websocket.Conn
}

// Listen starts serving websocket connections on addr at path.
func Listen(addr, path string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = "/"
	}
	l := &Listener{receiver: newReceiver(), listener: ln}
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Handler(l.serveConn))
	l.server = &http.Server{Handler: mux}
	go func() {
		if err := l.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			glog.Errorf("websocket listener %s: %v", addr, err)
		}
	}()
	return l, nil
}

// Addr returns the listening address.
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// WriteFrame implements link.Transport.
func (l *Listener) WriteFrame(f *frame.Frame) error {
	l.lock.Lock()
	peer := l.peer
	l.lock.Unlock()
	if peer == nil {
		return link.ErrNoPeer
	}
	return send(peer, f)
}

// Close implements io.Closer.
func (l *Listener) Close() error {
	l.shutdown()
	return l.server.Close()
}

func (l *Listener) serveConn(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	l.lock.Lock()
	prev := l.peer
	l.peer = conn
	l.lock.Unlock()
	if prev != nil {
		prev.Close()
	}
	glog.Infof("websocket peer %s connected", conn.Request().RemoteAddr)
	err := l.receive(conn)
	l.lock.Lock()
	if l.peer == conn {
		l.peer = nil
	}
	l.lock.Unlock()
	glog.Infof("websocket peer %s disconnected: %v", conn.Request().RemoteAddr, err)
}
