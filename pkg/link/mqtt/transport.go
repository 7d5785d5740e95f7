package mqtt

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/flapchain/pkg/frame"
	"github.com/robotalks/flapchain/pkg/link"
)

// Transport implements link.Transport, one frame per MQTT message.
type Transport struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	frameCh   chan *frame.Frame
	done      chan struct{}
	closeOnce sync.Once
	sub       *Subscription
}

// QueueSize bounds frames received but not read yet.
const QueueSize = 16

// NewTransport creates the Transport.
func NewTransport(q *Queue) *Transport {
	return &Transport{
		Queue:   q,
		frameCh: make(chan *frame.Frame, QueueSize),
		done:    make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (t *Transport) WithTopics(sub, pub string) *Transport {
	t.SubTopic, t.PubTopic = sub, pub
	return t
}

// FacingUp sets topics for the lower board of a channel, the one
// receiving SET:
// SubTopic = channel/down
// PubTopic = channel/up
func (t *Transport) FacingUp(channel string) *Transport {
	return t.WithTopics(channel+"/down", channel+"/up")
}

// FacingDown sets topics for the upper board of a channel, the one
// sending SET:
// SubTopic = channel/up
// PubTopic = channel/down
func (t *Transport) FacingDown(channel string) *Transport {
	return t.WithTopics(channel+"/up", channel+"/down")
}

// Open connects the queue and subscribes SubTopic.
func (t *Transport) Open() error {
	token := t.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	t.sub = t.Queue.Sub(t.SubTopic, t.handleMsg)
	t.sub.Token.Wait()
	return t.sub.Token.Error()
}

// Close implements io.Closer.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		if t.sub != nil {
			err = t.sub.Close()
		}
		t.Queue.Close()
	})
	return err
}

// ReadFrame implements link.Transport.
func (t *Transport) ReadFrame(timeout time.Duration) (*frame.Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f := <-t.frameCh:
		return f, nil
	case <-t.done:
		return nil, link.ErrClosed
	case <-timer.C:
		return nil, nil
	}
}

// WriteFrame implements link.Transport.
func (t *Transport) WriteFrame(f *frame.Frame) error {
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	token := t.Queue.Pub(t.PubTopic, data)
	token.Wait()
	return token.Error()
}

func (t *Transport) handleMsg(topic string, payload []byte) {
	f, err := frame.Decode(payload)
	if err != nil {
		glog.V(2).Infof("%s: frame dropped: %v", topic, err)
		return
	}
	select {
	case t.frameCh <- f:
	default:
		glog.Warningf("%s: receive queue full, %s dropped", topic, f)
	}
}
