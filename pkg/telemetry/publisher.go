// Package telemetry publishes board metadata and cycle events to MQTT.
package telemetry

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/flapchain/pkg/chain"
	"github.com/robotalks/flapchain/pkg/framework"
	"github.com/robotalks/flapchain/pkg/link/mqtt"
	"github.com/robotalks/flapchain/pkg/msgs"
)

// BoardInfo describes a board, published as retained JSON on
// <type>/<id>/meta.
type BoardInfo struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Modules     int    `json:"modules"`
	Upstream    string `json:"upstream,omitempty"`
	Downstream  string `json:"downstream,omitempty"`
}

// Name is the topic path of the board.
func (b BoardInfo) Name() string {
	return b.Type + "/" + b.ID
}

// Topic suffixes.
const (
	TopicMeta  = "meta"
	TopicCycle = "cycle"
)

// Broker publishes messages.
type Broker interface {
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
}

// Publisher publishes cycle reports found in the loop.
type Publisher struct {
	Board  BoardInfo
	Broker Broker

	queue    *mqtt.Queue
	metaJSON []byte
}

// NewPublisher creates a Publisher on a broker URL. The meta topic is
// cleared by the broker when the board goes away.
func NewPublisher(brokerURL string, board BoardInfo) (*Publisher, error) {
	opts, prefix, err := mqtt.ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(prefix+board.Name()+"/"+TopicMeta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("flap:" + board.Name())
	}
	p := NewPublisherWith(mqtt.NewQueue(opts, prefix), board)
	p.queue = p.Broker.(*mqtt.Queue)
	p.queue.OnConnect = func(*mqtt.Queue) { p.publishMeta() }
	return p, nil
}

// NewPublisherWith creates a Publisher on a connected Broker.
func NewPublisherWith(broker Broker, board BoardInfo) *Publisher {
	meta, err := json.Marshal(&board)
	if err != nil {
		panic(err)
	}
	return &Publisher{Board: board, Broker: broker, metaJSON: meta}
}

// AddToLoop implements framework.LoopAdder.
func (p *Publisher) AddToLoop(l *framework.Loop) {
	l.AddController(framework.PrLvPostProc, p)
}

// Run implements framework.Runnable. It owns the broker connection.
func (p *Publisher) Run(ctx context.Context) error {
	if p.queue == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	p.queue.Connect()
	<-ctx.Done()
	p.queue.PubWith(p.Board.Name()+"/"+TopicMeta, nil, 1, true).WaitTimeout(time.Second)
	p.queue.Close()
	return ctx.Err()
}

// Control implements framework.Controller. Reports are left in the
// store for other consumers.
func (p *Publisher) Control(cc framework.ControlContext) error {
	var errs framework.AggregatedError
	cc.Messages().ProcessMessages(framework.ProcessMessageFunc(func(mc framework.MessageProcessingContext) {
		if r, ok := mc.CurrentMessage().(*chain.CycleReport); ok {
			errs.Add(p.Publish(r))
		}
	}))
	return errs.Aggregate()
}

// Publish publishes one report.
func (p *Publisher) Publish(r *chain.CycleReport) error {
	data, err := msgs.Encode(EventFrom(p.Board.Name(), r))
	if err != nil {
		return err
	}
	glog.V(4).Infof("publish cycle %d", r.Cycle)
	p.Broker.PubWith(p.Board.Name()+"/"+TopicCycle, data, 0, false)
	return nil
}

func (p *Publisher) publishMeta() {
	p.Broker.PubWith(p.Board.Name()+"/"+TopicMeta, p.metaJSON, 1, true)
}

// EventFrom converts a report.
func EventFrom(board string, r *chain.CycleReport) *msgs.CycleEvent {
	ev := &msgs.CycleEvent{
		Board:              board,
		Cycle:              r.Cycle,
		Outcome:            r.Outcome.String(),
		Demo:               r.Demo,
		UpstreamSeq:        r.UpstreamSeq,
		DownstreamSeq:      r.DownstreamSeq,
		Message:            r.Message,
		Local:              r.Local,
		Overflow:           r.Overflow,
		LocalEstimate:      int32(r.LocalEstimate),
		Hint:               int32(r.Hint),
		DownstreamEstimate: int32(r.DownstreamEstimate),
		DownstreamAcked:    r.DownstreamAcked,
		Estimate:           int32(r.Estimate),
		Rotated:            int32(r.Rotated),
		Status:             r.Status,
		DownstreamReported: r.DownstreamReported,
		StartUnixNano:      r.Start.UnixNano(),
		DurationNano:       int64(r.Duration()),
	}
	if r.Err != nil {
		ev.Error = r.Err.Error()
	}
	return ev
}
