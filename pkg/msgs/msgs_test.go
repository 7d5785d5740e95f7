package msgs

import (
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/flapchain/pkg/framework"
)

type plainMsg struct{}

func (plainMsg) NewMessage() framework.Message { return plainMsg{} }

func TestTypedCycleEvent(t *testing.T) {
	ev := &CycleEvent{
		Board:           "flap/b1",
		Cycle:           3,
		Outcome:         "degraded",
		UpstreamSeq:     7,
		DownstreamSeq:   101,
		Message:         "HELLO WORLD",
		Estimate:        900,
		DownstreamAcked: true,
		Status:          "HELLO ,?",
		Error:           "downstream END timeout",
	}
	data, err := Encode(ev)
	require.NoError(t, err)

	msg, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, ev, msg)

	var typed Typed
	require.NoError(t, proto.Unmarshal(data, &typed))
	require.Equal(t, CycleEventTypeID, typed.TypeId)
	require.True(t, typed.IsEvent())
}

func TestDecodeErrors(t *testing.T) {
	data, err := proto.Marshal(&Typed{TypeId: 0x1234})
	require.NoError(t, err)
	_, err = Decode(data)
	require.Equal(t, &UnknownTypeError{TypeID: 0x1234}, err)
	require.Equal(t, "unknown type: 1234", err.Error())

	_, err = Encode(plainMsg{})
	require.Equal(t, ErrNotSerializable, err)
}
