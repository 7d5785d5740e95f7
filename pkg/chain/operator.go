package chain

import (
	"time"

	"github.com/robotalks/flapchain/pkg/bank"
	"github.com/robotalks/flapchain/pkg/frame"
	"github.com/robotalks/flapchain/pkg/link"
)

// DefaultEndMargin is added to the announced rotation time when waiting
// for END.
const DefaultEndMargin = 2 * time.Second

// Operator plays the upstream end of the chain: it sends a message to the
// head board and waits for the ACK and the END.
type Operator struct {
	Link       *link.Link
	AckTimeout time.Duration
	StepPeriod time.Duration
	EndMargin  time.Duration
}

// NewOperator creates an Operator on l.
func NewOperator(l *link.Link) *Operator {
	return &Operator{
		Link:       l,
		AckTimeout: time.Second,
		StepPeriod: bank.DefaultStepPeriod,
		EndMargin:  DefaultEndMargin,
	}
}

// Reply is what the chain answered to a message.
type Reply struct {
	Seq      uint32        `json:"seq"`
	Acked    bool          `json:"acked"`
	Estimate int           `json:"estimate"`
	Ended    bool          `json:"ended"`
	Status   string        `json:"status,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Set sends msg and waits for the chain to display it. The END wait lasts
// the announced rotation time plus EndMargin.
func (o *Operator) Set(msg string) (*Reply, error) {
	start := o.Link.Clock.Now()
	seq, err := o.Link.Originate(frame.KindSet, 0, msg)
	if err != nil {
		return nil, &LinkError{Link: o.Link.Name, Err: err}
	}
	r := &Reply{Seq: seq}
	defer func() { r.Elapsed = o.Link.Clock.Now().Sub(start) }()

	ack, err := o.Link.Await(frame.KindAck, seq, o.AckTimeout)
	if err != nil {
		return r, err
	}
	if ack == nil {
		return r, ErrNoAck
	}
	r.Acked, r.Estimate = true, int(ack.Steps)

	end, err := o.Link.Await(frame.KindEnd, seq, time.Duration(r.Estimate)*o.StepPeriod+o.EndMargin)
	if err != nil {
		return r, err
	}
	if end == nil {
		return r, ErrNoEnd
	}
	r.Ended, r.Status = true, end.Text()
	return r, nil
}
