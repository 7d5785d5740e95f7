package chain

import (
	"time"

	"github.com/robotalks/flapchain/pkg/framework"
)

// Outcome classifies a cycle.
type Outcome int

// Outcomes.
const (
	// OutcomeIdle means no request arrived.
	OutcomeIdle Outcome = iota
	// OutcomeCompleted is a full round trip.
	OutcomeCompleted
	// OutcomeDegraded completed on local knowledge after a timeout or a
	// failed write.
	OutcomeDegraded
	// OutcomeFailed is an unexpected fault.
	OutcomeFailed
)

var outcomeNames = []string{"idle", "completed", "degraded", "failed"}

func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Result is the result of RunCycle.
type Result struct {
	Outcome Outcome
	// Report is nil for idle cycles and failures before a request was taken.
	Report *CycleReport
	Err    error
}

// CycleReport records one request cycle. It's posted to the loop as a
// message when the coordinator runs in a framework.Loop.
type CycleReport struct {
	Cycle uint64
	// Demo is set when the message came from the board itself, the demo
	// words or the schedule.
	Demo bool
	// Reset is set when the modules were homed before the cycle.
	Reset bool

	UpstreamSeq   uint32
	DownstreamSeq uint32

	Message  string
	Local    string
	Overflow string

	LocalEstimate      int
	Hint               int
	DownstreamEstimate int
	DownstreamAcked    bool
	Estimate           int
	Rotated            int

	LocalStatus        string
	DownstreamStatus   string
	DownstreamReported bool
	Status             string

	Start time.Time
	End   time.Time

	Outcome Outcome
	Err     error
}

// NewMessage implements framework.Message.
func (r *CycleReport) NewMessage() framework.Message {
	return &CycleReport{}
}

// Duration is the time the cycle took.
func (r *CycleReport) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Forwarded indicates overflow was sent downstream.
func (r *CycleReport) Forwarded() bool {
	return r.DownstreamSeq != 0
}
