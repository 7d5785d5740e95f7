package link_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/flapchain/pkg/frame"
	"github.com/robotalks/flapchain/pkg/link"
	"github.com/robotalks/flapchain/pkg/link/linktest"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newScriptLink() (*link.Link, *linktest.Script, *link.ManualClock) {
	clock := link.NewManualClock(epoch)
	script := linktest.NewScript(clock)
	return link.New("test", script).WithClock(clock), script, clock
}

func TestNextSeq(t *testing.T) {
	l := link.New("test", link.Disconnected{}).WithSeq(10)
	require.Equal(t, uint32(11), l.NextSeq())
	require.Equal(t, uint32(12), l.NextSeq())
	require.Equal(t, uint32(12), l.Seq())

	l.WithSeq(0xffffffff)
	require.Equal(t, uint32(1), l.NextSeq())
}

func TestOriginate(t *testing.T) {
	l, script, _ := newScriptLink()
	l.WithSeq(4)
	seq, err := l.Originate(frame.KindSet, 120, "WORLD")
	require.NoError(t, err)
	require.Equal(t, uint32(5), seq)
	seq, err = l.Originate(frame.KindSet, -3, "AGAIN")
	require.NoError(t, err)
	require.Equal(t, uint32(6), seq)
	require.Equal(t, []*frame.Frame{
		frame.New(frame.KindSet, 5, 120, "WORLD"),
		frame.New(frame.KindSet, 6, 0, "AGAIN"),
	}, script.Written)
	require.Equal(t, uint64(2), l.Stats().Sent)

	script.WriteErr = errors.New("boom")
	seq, err = l.Originate(frame.KindSet, 1, "X")
	require.Error(t, err)
	require.Equal(t, uint32(7), seq)
	require.Equal(t, uint64(2), l.Stats().Sent)
}

func TestAwait(t *testing.T) {
	testCases := []struct {
		name    string
		deliver []*frame.Frame
		delays  []time.Duration
		expect  *frame.Frame
		elapsed time.Duration
	}{
		{
			name:    "matching frame",
			deliver: []*frame.Frame{frame.New(frame.KindAck, 5, 300, "")},
			delays:  []time.Duration{20 * time.Millisecond},
			expect:  frame.New(frame.KindAck, 5, 300, ""),
			elapsed: 20 * time.Millisecond,
		},
		{
			name: "skip mismatched sequence and kind",
			deliver: []*frame.Frame{
				frame.New(frame.KindAck, 4, 900, ""),
				frame.New(frame.KindEnd, 5, 0, "X"),
				frame.New(frame.KindAck, 5, 300, ""),
			},
			delays:  []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond},
			expect:  frame.New(frame.KindAck, 5, 300, ""),
			elapsed: 30 * time.Millisecond,
		},
		{
			name:    "timeout",
			elapsed: 200 * time.Millisecond,
		},
		{
			name:    "mismatched only",
			deliver: []*frame.Frame{frame.New(frame.KindAck, 6, 1, "")},
			delays:  []time.Duration{50 * time.Millisecond},
			elapsed: 200 * time.Millisecond,
		},
		{
			name:    "arrives too late",
			deliver: []*frame.Frame{frame.New(frame.KindAck, 5, 1, "")},
			delays:  []time.Duration{201 * time.Millisecond},
			elapsed: 200 * time.Millisecond,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, script, clock := newScriptLink()
			for n, f := range tc.deliver {
				script.DeliverAfter(tc.delays[n], f)
			}
			f, err := l.Await(frame.KindAck, 5, 200*time.Millisecond)
			require.NoError(t, err)
			require.Equal(t, tc.expect, f)
			require.Equal(t, tc.elapsed, clock.Now().Sub(epoch))
		})
	}
}

func TestAwaitReadError(t *testing.T) {
	l, script, _ := newScriptLink()
	script.ReadErr = link.ErrClosed
	f, err := l.Await(frame.KindEnd, 1, time.Second)
	require.Nil(t, f)
	require.Equal(t, link.ErrClosed, err)
}

func TestPoll(t *testing.T) {
	l, script, _ := newScriptLink()
	script.Deliver(frame.New(frame.KindAck, 3, 0, "")).
		DeliverAfter(time.Millisecond, frame.New(frame.KindSet, 77, 10, "HI"))
	f, err := l.Poll(frame.KindSet, time.Second)
	require.NoError(t, err)
	require.Equal(t, frame.New(frame.KindSet, 77, 10, "HI"), f)
	require.Equal(t, uint32(77), l.LastRemote())
	stats := l.Stats()
	require.Equal(t, uint64(2), stats.Received)
	require.Equal(t, uint64(1), stats.Dropped)

	f, err = l.Poll(frame.KindSet, time.Second)
	require.NoError(t, err)
	require.Nil(t, f)
	require.Equal(t, uint64(1), l.Stats().Timeouts)
}

func TestDisconnected(t *testing.T) {
	clock := link.NewManualClock(epoch)
	l := link.New("down", link.Disconnected{Clock: clock}).WithClock(clock)
	require.NoError(t, l.Reply(frame.KindAck, 1, 0, ""))
	f, err := l.Await(frame.KindAck, 1, 200*time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, f)
	require.Equal(t, 200*time.Millisecond, clock.Now().Sub(epoch))
}
