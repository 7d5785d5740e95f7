package bank

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/flapchain/pkg/flap"
)

type countSleeper struct {
	calls int
	total time.Duration
}

func (s *countSleeper) Sleep(d time.Duration) {
	s.calls++
	s.total += d
}

func TestSimSetLetters(t *testing.T) {
	testCases := []struct {
		name    string
		segment string
		targets string
	}{
		{"exact", "HELLO", "HELLO"},
		{"short", "HI", "HI   "},
		{"empty", "", "     "},
		{"excess", "HELLO WORLD", "HELLO"},
		{"lower", "hello", "HELLO"},
		{"unknown", "H*LLO", "H LLO"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSimN(5)
			s.SetLetters(tc.segment)
			require.Equal(t, tc.targets, s.Targets())
			require.Equal(t, "     ", s.Status())
		})
	}
}

func TestSimRotate(t *testing.T) {
	s := NewSimN(3)
	require.Equal(t, 3, s.NumModules())
	require.Equal(t, 0, s.MaxSteps())

	s.SetLetters("ABC")
	require.Equal(t, flap.TargetStep(3), s.MaxSteps())

	sleeper := &countSleeper{}
	s.Sleeper = sleeper
	s.StepPeriod = time.Millisecond
	require.Equal(t, 50, s.RotateUntilStopped(context.Background(), 50))
	require.Equal(t, 50, sleeper.calls)
	require.Equal(t, 50*time.Millisecond, sleeper.total)
	require.Equal(t, "AAA", s.Status())

	require.Equal(t, flap.TargetStep(3)-50, s.RotateUntilStopped(context.Background(), 10000))
	require.Equal(t, "ABC", s.Status())
	require.Equal(t, 0, s.MaxSteps())
	require.Equal(t, uint64(flap.TargetStep(3)), s.Rotated())

	require.Equal(t, 0, s.RotateUntilStopped(context.Background(), 10000))
}

func TestSimRotateBudget(t *testing.T) {
	testCases := []struct {
		name   string
		budget int
		steps  int
	}{
		{"zero", 0, 0},
		{"negative", -1, 0},
		{"partial", 10, 10},
		{"enough", 1000, flap.TargetStep(1)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSimN(1)
			s.SetLetters("A")
			require.Equal(t, tc.steps, s.RotateUntilStopped(context.Background(), tc.budget))
		})
	}
}

func TestSimRotateCanceled(t *testing.T) {
	s := NewSimN(1)
	s.SetLetters("Z")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, 0, s.RotateUntilStopped(ctx, 10000))
	require.True(t, s.MaxSteps() > 0)
}

func TestSimOffsets(t *testing.T) {
	s := NewSim(0, 635)
	s.SetLetters("  ")
	require.Equal(t, flap.StepsPerRevolution-635, s.MaxSteps())
	s.RotateUntilStopped(context.Background(), s.MaxSteps())
	require.Equal(t, "  ", s.Status())
	s.Reset()
	require.Equal(t, flap.StepsPerRevolution-635, s.MaxSteps())
}

func TestDriver(t *testing.T) {
	var buf bytes.Buffer
	d := NewDriver(&buf, 0, 0, 0)
	d.Sleeper = &countSleeper{}
	d.SetLetters("HI")
	require.Equal(t, []byte{0xf0, 8, 9, 0}, buf.Bytes())
	require.NoError(t, d.Err())
	require.Equal(t, flap.TargetStep(9), d.RotateUntilStopped(context.Background(), 5000))
	require.Equal(t, "HI ", d.Status())

	buf.Reset()
	d.Reset()
	require.Equal(t, []byte{0xf0, 0xff}, buf.Bytes())

	var b Bank = d
	require.Equal(t, 3, b.NumModules())
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("unplugged")
}

func TestDriverWriteError(t *testing.T) {
	d := NewDriver(failWriter{}, 0)
	d.SetLetters("A")
	require.Error(t, d.Err())
	require.Equal(t, flap.TargetStep(1), d.MaxSteps())
}
