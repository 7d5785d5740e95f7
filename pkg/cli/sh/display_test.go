package sh

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/flapchain/pkg/bench"
	"github.com/robotalks/flapchain/pkg/chain"
	"github.com/robotalks/flapchain/pkg/frame"
	"github.com/robotalks/flapchain/pkg/link"
	"github.com/robotalks/flapchain/pkg/link/linktest"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestShellDisplay(t *testing.T) {
	s := &Shell{}
	_, err := s.Display()
	require.Error(t, err)

	s.Sender = &bench.Sender{W: &bytes.Buffer{}}
	d, err := s.Display()
	require.NoError(t, err)
	require.IsType(t, SenderDisplay{}, d)

	s.Operator = chain.NewOperator(link.New("head", linktest.NewScript(link.NewManualClock(epoch))))
	d, err = s.Display()
	require.NoError(t, err)
	require.IsType(t, OperatorDisplay{}, d)
}

func TestSenderDisplay(t *testing.T) {
	var buf bytes.Buffer
	d := SenderDisplay{Sender: &bench.Sender{W: &buf}}
	require.NoError(t, d.Reset())
	require.NoError(t, d.Show("A"))
	require.Equal(t, []byte{bench.Start, bench.ResetAll, bench.Start, 1}, buf.Bytes())
}

func TestOperatorDisplay(t *testing.T) {
	clock := link.NewManualClock(epoch)
	script := linktest.NewScript(clock)
	var replied bool
	script.OnWrite = func(s *linktest.Script, f *frame.Frame) {
		if replied {
			return
		}
		s.DeliverAfter(time.Millisecond, frame.New(frame.KindAck, f.Seq, 10, ""))
		s.DeliverAfter(time.Second, frame.New(frame.KindEnd, f.Seq, 0, f.Text()))
	}
	d := OperatorDisplay{Operator: chain.NewOperator(link.New("head", script).WithClock(clock))}

	require.NoError(t, d.Reset())
	require.NoError(t, d.Show("12:00"))
	replied = true
	require.NoError(t, d.Show("12:01"))
	require.Equal(t, []string{"12:00", "12:01"}, []string{script.Written[0].Text(), script.Written[1].Text()})

	script.WriteErr = errors.New("gone")
	require.Error(t, d.Show("12:02"))
}

func TestPlayOnBench(t *testing.T) {
	var buf bytes.Buffer
	clock := link.NewManualClock(epoch.Add(13*time.Hour + 59*time.Minute + 59*time.Second))
	s := chain.NewSchedule(chain.ScheduleConfig{Clock: chain.Clock12})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := SenderDisplay{Sender: &bench.Sender{W: &cancelAfter{w: &buf, n: 2, cancel: cancel}}}

	require.Equal(t, context.Canceled, chain.Play(ctx, s, d, clock, time.Second))
	require.Equal(t, append(bench.Transform(" 1:59"), bench.Transform(" 2:00")...), buf.Bytes())
}

type cancelAfter struct {
	w      *bytes.Buffer
	n      int
	cancel func()
}

func (c *cancelAfter) Write(p []byte) (int, error) {
	if c.n--; c.n <= 0 {
		c.cancel()
	}
	return c.w.Write(p)
}
