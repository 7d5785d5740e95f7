package serial

import (
	"errors"
	"testing"

	"github.com/goburrow/serial"
	"github.com/stretchr/testify/require"
)

func TestOpenErrors(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)

	_, err = Open(Config{Device: "/dev/does-not-exist-flapchain"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "/dev/does-not-exist-flapchain")
}

func TestIsTimeout(t *testing.T) {
	require.True(t, IsTimeout(serial.ErrTimeout))
	require.False(t, IsTimeout(errors.New("serial: timeout")))
	require.False(t, IsTimeout(nil))
}
