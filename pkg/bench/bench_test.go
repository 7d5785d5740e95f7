package bench

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func TestTransform(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		out  []byte
	}{
		{"empty", "", []byte{0xf0}},
		{"letters", "AB", []byte{0xf0, 1, 2}},
		{"lower", "hi", []byte{0xf0, 8, 9}},
		{"blank", "A B", []byte{0xf0, 1, 0, 2}},
		{"digits", "09!", []byte{0xf0, 30, 39, 44}},
		{"reset", `A\B`, []byte{0xf0, 1, 0xfe, 2}},
		{"reset all", "@", []byte{0xf0, 0xff}},
		{"unknown", "A*~B", []byte{0xf0, 1, 2}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.out, Transform(tc.in))
		})
	}
}

func TestFindPort(t *testing.T) {
	defer func(fn func() ([]*enumerator.PortDetails, error)) { ListPorts = fn }(ListPorts)

	ListPorts = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "/dev/ttyS0"},
			{Name: "/dev/ttyACM0", IsUSB: true, Product: "Pico"},
			{Name: "/dev/ttyACM1", IsUSB: true, Product: DefaultProduct},
		}, nil
	}
	name, err := FindPort(DefaultProduct)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyACM1", name)

	_, err = FindPort("Other")
	require.Equal(t, ErrNoPort, err)

	ListPorts = func() ([]*enumerator.PortDetails, error) {
		return nil, errors.New("no access")
	}
	_, err = FindPort(DefaultProduct)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no access")
}

func TestSender(t *testing.T) {
	var buf bytes.Buffer
	s := &Sender{W: &buf}
	require.NoError(t, s.Send("A"))
	require.NoError(t, s.Reset())
	require.Equal(t, []byte{0xf0, 1, 0xf0, 0xff}, buf.Bytes())
}

func TestSweep(t *testing.T) {
	var buf bytes.Buffer
	s := &Sender{W: &buf}
	var shown []byte
	require.NoError(t, s.Sweep(context.Background(), 2, 0, 0, func(c byte) {
		shown = append(shown, c)
	}))
	require.Len(t, shown, 45)
	require.Equal(t, byte(' '), shown[0])
	require.Equal(t, byte('!'), shown[44])

	out := buf.Bytes()
	require.Equal(t, []byte{0xf0, 0xff}, out[:2])
	require.Equal(t, []byte{0xf0, 0, 0}, out[2:5])
	require.Equal(t, []byte{0xf0, 44, 44}, out[len(out)-3:])
	require.Len(t, out, 2+45*3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, context.Canceled, s.Sweep(ctx, 1, 0, 0, nil))
}
