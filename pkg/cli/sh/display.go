package sh

import (
	"errors"
	"fmt"
	"log"

	"github.com/robotalks/flapchain/pkg/bench"
	"github.com/robotalks/flapchain/pkg/chain"
)

// Display returns where a schedule plays: the chain when connected,
// otherwise the bench port.
func (s *Shell) Display() (chain.Display, error) {
	switch {
	case s.Operator != nil:
		return OperatorDisplay{Operator: s.Operator}, nil
	case s.Sender != nil:
		return SenderDisplay{Sender: s.Sender}, nil
	}
	return nil, fmt.Errorf("not connected and bench port not open")
}

// OperatorDisplay shows messages on a chain. Chain frames can't home
// remote modules so Reset does nothing.
type OperatorDisplay struct {
	Operator *chain.Operator
}

// Show implements chain.Display. A missing reply is logged, the next
// message may still get through.
func (d OperatorDisplay) Show(msg string) error {
	reply, err := d.Operator.Set(msg)
	if errors.Is(err, chain.ErrNoAck) || errors.Is(err, chain.ErrNoEnd) {
		log.Printf("show %q: %v", msg, err)
		return nil
	}
	if err == nil {
		log.Printf("show %q: status %q in %v", msg, reply.Status, reply.Elapsed)
	}
	return err
}

// Reset implements chain.Display.
func (OperatorDisplay) Reset() error {
	return nil
}

// SenderDisplay shows messages on a module-driver board.
type SenderDisplay struct {
	Sender *bench.Sender
}

// Show implements chain.Display.
func (d SenderDisplay) Show(msg string) error {
	return d.Sender.Send(msg)
}

// Reset implements chain.Display.
func (d SenderDisplay) Reset() error {
	return d.Sender.Reset()
}
