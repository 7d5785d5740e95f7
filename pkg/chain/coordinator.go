// Package chain coordinates one board of a split-flap chain: it serves
// requests from the upstream neighbor, forwards overflow downstream and
// reports completion of the whole tail upstream.
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/flapchain/pkg/bank"
	"github.com/robotalks/flapchain/pkg/frame"
	"github.com/robotalks/flapchain/pkg/framework"
	"github.com/robotalks/flapchain/pkg/link"
)

// Config tunes the Coordinator.
type Config struct {
	// PollInterval bounds the wait for an upstream SET.
	PollInterval time.Duration
	// ReplyTimeout bounds each wait for a downstream ACK or END.
	ReplyTimeout time.Duration
	// Placeholder stands for the status of a silent downstream.
	Placeholder string
	// Separator joins local and downstream status.
	Separator string
	// Demo words are shown in turn until the first upstream SET arrives.
	Demo []string
	// Schedule replaces the demo words when active. It also stops at the
	// first upstream SET.
	Schedule ScheduleConfig
}

// Defaults.
const (
	DefaultPollInterval = time.Second
	DefaultReplyTimeout = 200 * time.Millisecond
	DefaultPlaceholder  = "?"
	DefaultSeparator    = ","
)

// DefaultConfig returns the default Config.
func DefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollInterval,
		ReplyTimeout: DefaultReplyTimeout,
		Placeholder:  DefaultPlaceholder,
		Separator:    DefaultSeparator,
	}
}

// Stats counts cycles by outcome.
type Stats struct {
	Idle      uint64
	Completed uint64
	Degraded  uint64
	Failed    uint64
}

// Coordinator runs the request cycles of one board. It must only be used
// from a single goroutine.
type Coordinator struct {
	cfg        Config
	upstream   *link.Link
	downstream *link.Link
	bank       bank.Bank
	schedule   *Schedule

	demoNext int
	demoDone bool
	cycles   uint64
	stats    Stats
}

// New creates a Coordinator.
func New(cfg Config, upstream, downstream *link.Link, b bank.Bank) *Coordinator {
	if cfg.Placeholder == "" {
		cfg.Placeholder = DefaultPlaceholder
	}
	if cfg.Separator == "" {
		cfg.Separator = DefaultSeparator
	}
	c := &Coordinator{
		cfg:        cfg,
		upstream:   upstream,
		downstream: downstream,
		bank:       b,
	}
	if cfg.Schedule.Active() {
		c.schedule = NewSchedule(cfg.Schedule)
	}
	return c
}

// Name implements framework.Named.
func (c *Coordinator) Name() string {
	return "chain"
}

// Config returns the configuration.
func (c *Coordinator) Config() Config {
	return c.cfg
}

// Schedule returns the local message source, nil if not configured.
func (c *Coordinator) Schedule() *Schedule {
	return c.schedule
}

// Stats returns the cycle counters.
func (c *Coordinator) Stats() Stats {
	return c.stats
}

// AddToLoop implements framework.LoopAdder.
func (c *Coordinator) AddToLoop(l *framework.Loop) {
	l.AddRunnable(c)
}

// Run implements framework.Runnable. It runs cycles until ctx is done.
// Reports are posted to the loop when running inside one.
func (c *Coordinator) Run(ctx context.Context) error {
	ctl, _ := framework.LoopCtlOf(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := c.RunCycle(ctx)
		if res.Report != nil && ctl != nil {
			ctl.PostMessage(res.Report)
		}
		if res.Outcome == OutcomeFailed {
			c.upstream.Clock.Sleep(c.cfg.PollInterval)
		}
	}
}

type request struct {
	seq      uint32
	hint     int
	message  string
	upstream bool
	reset    bool
}

// RunCycle polls upstream once and serves the request if one arrived.
// Nothing escapes a cycle, faults are reported in the Result.
func (c *Coordinator) RunCycle(ctx context.Context) (res Result) {
	var r *CycleReport
	defer func() {
		if v := recover(); v != nil {
			res = c.failed(r, &PanicError{Value: v})
		}
	}()

	req, err := c.poll()
	if err != nil {
		return c.failed(nil, fmt.Errorf("upstream read: %w", err))
	}
	if req == nil {
		c.stats.Idle++
		return Result{Outcome: OutcomeIdle}
	}

	c.cycles++
	r = &CycleReport{
		Cycle:       c.cycles,
		Demo:        !req.upstream,
		UpstreamSeq: req.seq,
		Message:     req.message,
		Hint:        req.hint,
		Start:       c.now(),
	}
	c.serve(ctx, req, r)

	r.End = c.now()
	res = Result{Outcome: OutcomeCompleted, Report: r, Err: r.Err}
	if r.Err != nil {
		res.Outcome = OutcomeDegraded
		c.stats.Degraded++
		glog.Warningf("cycle %d degraded: %q status %q: %v", r.Cycle, r.Message, r.Status, r.Err)
	} else {
		c.stats.Completed++
		glog.Infof("cycle %d: %q status %q steps %d/%d", r.Cycle, r.Message, r.Status, r.Rotated, r.Estimate)
	}
	r.Outcome = res.Outcome
	return res
}

func (c *Coordinator) poll() (*request, error) {
	f, err := c.upstream.Poll(frame.KindSet, c.cfg.PollInterval)
	if err != nil {
		return nil, err
	}
	if f != nil {
		c.demoDone = true
		return &request{seq: f.Seq, hint: int(f.Steps), message: f.Text(), upstream: true}, nil
	}
	if c.demoDone {
		return nil, nil
	}
	if c.schedule != nil {
		t := c.schedule.Tick(c.now())
		if !t.Show {
			return nil, nil
		}
		return &request{message: t.Message, reset: t.Reset}, nil
	}
	if len(c.cfg.Demo) == 0 {
		return nil, nil
	}
	word := c.cfg.Demo[c.demoNext%len(c.cfg.Demo)]
	c.demoNext++
	return &request{message: word}, nil
}

// serve runs the cycle past Idle. Timeouts and write failures are
// collected in r.Err, the cycle always runs to the END reply.
func (c *Coordinator) serve(ctx context.Context, req *request, r *CycleReport) {
	var errs framework.AggregatedError

	if req.reset {
		if rs, ok := c.bank.(bank.Resetter); ok {
			rs.Reset()
			r.Reset = true
		}
	}

	r.Local, r.Overflow = Split(req.message, c.bank.NumModules())
	c.bank.SetLetters(r.Local)
	r.LocalEstimate = c.bank.MaxSteps()
	r.Estimate = maxInt(r.LocalEstimate, req.hint)

	var forwarded bool
	if r.Overflow != "" {
		seq, err := c.downstream.Originate(frame.KindSet, r.Estimate, r.Overflow)
		r.DownstreamSeq = seq
		if err != nil {
			errs.Add(&LinkError{Link: c.downstream.Name, Err: err})
		} else {
			forwarded = true
			ack, err := c.downstream.Await(frame.KindAck, seq, c.cfg.ReplyTimeout)
			switch {
			case err != nil:
				errs.Add(fmt.Errorf("downstream read: %w", err))
			case ack == nil:
				errs.Add(ErrNoAck)
			default:
				r.DownstreamAcked = true
				r.DownstreamEstimate = int(ack.Steps)
				r.Estimate = maxInt(r.Estimate, r.DownstreamEstimate)
			}
		}
	}

	if req.upstream {
		if err := c.upstream.Reply(frame.KindAck, req.seq, r.Estimate, ""); err != nil {
			errs.Add(&LinkError{Link: c.upstream.Name, Err: err})
		}
	}

	r.Rotated = c.bank.RotateUntilStopped(ctx, r.Estimate)
	r.LocalStatus = c.bank.Status()
	r.Status = r.LocalStatus

	if r.Overflow != "" {
		r.DownstreamStatus = c.cfg.Placeholder
		if forwarded {
			end, err := c.downstream.Await(frame.KindEnd, r.DownstreamSeq, c.cfg.ReplyTimeout)
			switch {
			case err != nil:
				errs.Add(fmt.Errorf("downstream read: %w", err))
			case end == nil:
				errs.Add(ErrNoEnd)
			default:
				r.DownstreamReported = true
				r.DownstreamStatus = end.Text()
			}
		}
		r.Status += c.cfg.Separator + r.DownstreamStatus
	}
	if len(r.Status) > frame.MaxLetters {
		r.Status = r.Status[:frame.MaxLetters]
	}

	if req.upstream {
		if err := c.upstream.Reply(frame.KindEnd, req.seq, 0, r.Status); err != nil {
			errs.Add(&LinkError{Link: c.upstream.Name, Err: err})
		}
	}

	r.Err = errs.Aggregate()
}

func (c *Coordinator) failed(r *CycleReport, err error) Result {
	c.stats.Failed++
	glog.Errorf("cycle failed: %v", err)
	if r != nil {
		r.End = c.now()
		r.Outcome = OutcomeFailed
		r.Err = err
	}
	return Result{Outcome: OutcomeFailed, Report: r, Err: err}
}

func (c *Coordinator) now() time.Time {
	return c.upstream.Clock.Now()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
