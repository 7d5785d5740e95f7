package stream

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/flapchain/pkg/frame"
	"github.com/robotalks/flapchain/pkg/link"
)

// QueueSize bounds frames received by a Listener but not read yet.
const QueueSize = 16

// Listener is the serving side of a TCP link. Frames from any connected
// peer are merged, writes go to the most recent peer.
type Listener struct {
	listener net.Listener
	frameCh  chan *frame.Frame
	done     chan struct{}
	once     sync.Once

	lock sync.Mutex
	peer net.Conn
}

// Listen starts accepting peers on addr.
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	l := &Listener{
		listener: ln,
		frameCh:  make(chan *frame.Frame, QueueSize),
		done:     make(chan struct{}),
	}
	go l.accept()
	return l, nil
}

// Addr returns the listening address.
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// ReadFrame implements link.Transport.
func (l *Listener) ReadFrame(timeout time.Duration) (*frame.Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f := <-l.frameCh:
		return f, nil
	case <-l.done:
		return nil, link.ErrClosed
	case <-timer.C:
		return nil, nil
	}
}

// WriteFrame implements link.Transport.
func (l *Listener) WriteFrame(f *frame.Frame) error {
	l.lock.Lock()
	peer := l.peer
	l.lock.Unlock()
	if peer == nil {
		return link.ErrNoPeer
	}
	_, err := f.WriteTo(peer)
	return err
}

// Close implements io.Closer.
func (l *Listener) Close() error {
	l.once.Do(func() { close(l.done) })
	err := l.listener.Close()
	l.lock.Lock()
	if l.peer != nil {
		l.peer.Close()
		l.peer = nil
	}
	l.lock.Unlock()
	return err
}

func (l *Listener) accept() {
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				glog.Errorf("tcp listener %s: %v", l.listener.Addr(), err)
			}
			return
		}
		go l.serveConn(conn)
	}
}

func (l *Listener) serveConn(conn net.Conn) {
	l.lock.Lock()
	prev := l.peer
	l.peer = conn
	l.lock.Unlock()
	if prev != nil {
		prev.Close()
	}
	glog.Infof("tcp peer %s connected", conn.RemoteAddr())
	err := l.receive(conn)
	l.lock.Lock()
	if l.peer == conn {
		l.peer = nil
	}
	l.lock.Unlock()
	glog.Infof("tcp peer %s disconnected: %v", conn.RemoteAddr(), err)
}

// receive parses frames until the connection fails.
func (l *Listener) receive(conn net.Conn) error {
	var parser frame.Parser
	buf := make([]byte, 256)
	for {
		n, err := conn.Read(buf)
		for _, b := range buf[:n] {
			pr := parser.Parse(b)
			if pr.Err != nil {
				glog.V(2).Infof("tcp %s: frame dropped: %v", conn.RemoteAddr(), pr.Err)
			}
			if pr.Frame == nil {
				continue
			}
			select {
			case l.frameCh <- pr.Frame:
			default:
				glog.Warningf("tcp %s: receive queue full, %s dropped", conn.RemoteAddr(), pr.Frame)
			}
		}
		if err != nil {
			return err
		}
	}
}
