package framework

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the iteration interval of a Loop.
const DefaultInterval = 100 * time.Millisecond

// Loop runs controllers by priority level on every iteration, and the
// Runnables added to it in the background.
type Loop struct {
	Interval time.Duration

	levels  [PriorityLevels]level
	runners []Runnable

	lock     sync.Mutex
	messages []Message
	wakeUpCh chan struct{}
}

// LoopAdder adds itself to a Loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type level struct {
	lock        sync.Mutex
	preHooks    []Controller
	controllers []Controller
	postHooks   []Controller
}

type ctxKey struct{}

// LoopCtlOf retrieves the LoopControl from the context given to
// controllers and Runnables of a Loop.
func LoopCtlOf(ctx context.Context) (LoopControl, bool) {
	ctl, ok := ctx.Value(ctxKey{}).(LoopControl)
	return ctl, ok
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval, wakeUpCh: make(chan struct{}, 1)}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level. Controllers
// which are also Runnable are run in the background as well.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	lv := &l.levels[priorityLevel]
	lv.controllers = append(lv.controllers, ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds background Runnables.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable. It returns when ctx is done and all Runnables
// stopped.
func (l *Loop) Run(ctx context.Context) error {
	ctx = context.WithValue(ctx, ctxKey{}, LoopControl(l))
	runner := NewRunnerWith(ctx).Go(l.runners...)

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := runner.Wait(); err != nil {
				return err
			}
			return ctx.Err()
		case <-ticker.C:
			l.RunIteration(ctx)
		case <-l.wakeUp():
			l.RunIteration(ctx)
		}
	}
}

// RunOrFail runs the loop from main until SIGINT or SIGTERM.
func (l *Loop) RunOrFail() {
	ctx := NewRunner().HandleSignals().Context
	if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		glog.Exitln(err)
	}
}

// PreRunAt implements LoopControl.
func (l *Loop) PreRunAt(priorityLevel int, hooks ...Controller) {
	lv := &l.levels[priorityLevel]
	lv.lock.Lock()
	lv.preHooks = append(lv.preHooks, hooks...)
	lv.lock.Unlock()
}

// PostRunAt implements LoopControl.
func (l *Loop) PostRunAt(priorityLevel int, hooks ...Controller) {
	lv := &l.levels[priorityLevel]
	lv.lock.Lock()
	lv.postHooks = append(lv.postHooks, hooks...)
	lv.lock.Unlock()
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages = append(l.messages, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUp() <- struct{}{}:
	default:
	}
}

func (l *Loop) wakeUp() chan struct{} {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	return l.wakeUpCh
}

// RunIteration runs all controllers once with the messages posted so far.
func (l *Loop) RunIteration(ctx context.Context) {
	it := &iteration{Loop: l, time: time.Now()}
	l.lock.Lock()
	it.messages, l.messages = l.messages, nil
	l.lock.Unlock()
	it.ctx = context.WithValue(ctx, ctxKey{}, LoopControl(l))
	for i := range l.levels {
		it.priorityLevel = i
		l.levels[i].run(it)
	}
}

func (lv *level) run(it *iteration) {
	lv.lock.Lock()
	hooks := lv.preHooks
	lv.preHooks = nil
	lv.lock.Unlock()
	runControllers(it, hooks)
	runControllers(it, lv.controllers)
	lv.lock.Lock()
	hooks, lv.postHooks = lv.postHooks, nil
	lv.lock.Unlock()
	runControllers(it, hooks)
}

func runControllers(it *iteration, ctls []Controller) {
	for _, ctl := range ctls {
		if err := runController(it, ctl); err != nil {
			glog.Errorf("controller error: %v", err)
		}
	}
}

func runController(it *iteration, ctl Controller) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("controller panic: %v", v)
		}
	}()
	return ctl.Control(it)
}

type iteration struct {
	*Loop
	ctx           context.Context
	time          time.Time
	priorityLevel int
	messages      []Message
}

func (it *iteration) Context() context.Context { return it.ctx }
func (it *iteration) Time() time.Time          { return it.time }
func (it *iteration) PriorityLevel() int       { return it.priorityLevel }
func (it *iteration) Messages() MessageStore   { return it }

func (it *iteration) PostRun(hooks ...Controller) {
	it.PostRunAt(it.priorityLevel, hooks...)
}

func (it *iteration) AddMessages(msgs ...Message) {
	it.messages = append(it.messages, msgs...)
}

type messageContext struct {
	msg   Message
	taken bool
	stop  bool
}

func (c *messageContext) CurrentMessage() Message { return c.msg }
func (c *messageContext) MessageTaken()           { c.taken = true }
func (c *messageContext) StopProcessing()         { c.stop = true }

func (it *iteration) ProcessMessages(proc MessageProcessor) {
	msgs := it.messages
	it.messages = nil
	remains := make([]Message, 0, len(msgs))
	for n, msg := range msgs {
		mc := &messageContext{msg: msg}
		proc.ProcessMessage(mc)
		if !mc.taken {
			remains = append(remains, msg)
		}
		if mc.stop {
			remains = append(remains, msgs[n+1:]...)
			break
		}
	}
	// messages added while processing go after the remains
	it.messages = append(remains, it.messages...)
}
