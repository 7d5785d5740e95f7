package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type textMsg string

func (m textMsg) NewMessage() Message { return textMsg("") }

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Aggregate())
	require.Equal(t, "", errs.Error())

	e1, e2 := errors.New("a"), errors.New("b")
	errs.Add(nil, e1)
	require.Equal(t, "a", errs.Aggregate().Error())
	errs.Add(e2)
	require.Equal(t, "multiple errors: a; b", errs.Error())
	require.True(t, errors.Is(errs.Aggregate(), e2))
	require.False(t, errors.Is(errs.Aggregate(), context.Canceled))
}

func TestLoopIteration(t *testing.T) {
	l := NewLoop()
	var trace []string
	record := func(name string) Controller {
		return ControlFunc(func(cc ControlContext) error {
			trace = append(trace, name)
			return nil
		})
	}
	l.AddController(PrLvPostProc, record("post"))
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		trace = append(trace, "control")
		require.Equal(t, PrLvControl, cc.PriorityLevel())
		cc.PostRun(record("hook"))
		return errors.New("logged only")
	}))
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		panic("recovered")
	}))
	l.PreRunAt(PrLvTop, record("pre"))

	l.RunIteration(context.Background())
	require.Equal(t, []string{"pre", "control", "hook", "post"}, trace)

	trace = nil
	l.RunIteration(context.Background())
	require.Equal(t, []string{"control", "hook", "post"}, trace)
}

func TestLoopMessages(t *testing.T) {
	l := NewLoop()
	var seen [][]Message
	collect := func(take bool) Controller {
		return ControlFunc(func(cc ControlContext) error {
			var msgs []Message
			cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
				msgs = append(msgs, mc.CurrentMessage())
				if take && mc.CurrentMessage() == textMsg("a") {
					mc.MessageTaken()
				}
			}))
			seen = append(seen, msgs)
			return nil
		})
	}
	l.AddController(PrLvControl, collect(true))
	l.AddController(PrLvPostProc, collect(false))

	l.PostMessage(textMsg("a"))
	l.PostMessage(textMsg("b"))
	l.RunIteration(context.Background())
	require.Equal(t, [][]Message{
		{textMsg("a"), textMsg("b")},
		{textMsg("b")},
	}, seen)

	seen = nil
	l.RunIteration(context.Background())
	require.Equal(t, [][]Message{nil, nil}, seen)
}

func TestProcessMessagesStop(t *testing.T) {
	it := &iteration{Loop: NewLoop()}
	it.AddMessages(textMsg("a"), textMsg("b"), textMsg("c"))
	it.ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
		mc.MessageTaken()
		if mc.CurrentMessage() == textMsg("b") {
			mc.StopProcessing()
		}
	}))
	require.Equal(t, []Message{textMsg("c")}, it.messages)
}

func TestLoopRun(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Millisecond
	gotMsg := make(chan Message, 1)
	l.AddController(PrLvPostProc, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			select {
			case gotMsg <- mc.CurrentMessage():
			default:
			}
		}))
		return nil
	}))
	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		ctl, ok := LoopCtlOf(ctx)
		if !ok {
			return errors.New("no loop control")
		}
		ctl.PostMessage(textMsg("hello"))
		ctl.TriggerNext()
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	select {
	case msg := <-gotMsg:
		require.Equal(t, textMsg("hello"), msg)
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)

	_, ok := LoopCtlOf(context.Background())
	require.False(t, ok)
}

func TestRunner(t *testing.T) {
	failure := errors.New("failed")
	r := NewRunner().Go(
		NamedRun("ok", RunFunc(func(context.Context) error { return nil })),
		RunFunc(func(context.Context) error { return failure }),
		RunFunc(func(context.Context) error { return context.Canceled }),
	)
	err := r.Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, failure))
	require.Len(t, r.Runners, 3)

	require.NoError(t, NewRunner().Wait())
}
