package stream

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/flapchain/pkg/frame"
)

var errQuiet = errors.New("quiet")

// chunkPort mimics a serial port: each Read returns the next chunk or
// errQuiet when there's nothing left.
type chunkPort struct {
	chunks [][]byte
	out    bytes.Buffer
}

func (p *chunkPort) Read(b []byte) (int, error) {
	if len(p.chunks) == 0 {
		time.Sleep(time.Millisecond)
		return 0, errQuiet
	}
	n := copy(b, p.chunks[0])
	if n < len(p.chunks[0]) {
		p.chunks[0] = p.chunks[0][n:]
	} else {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

func (p *chunkPort) Write(b []byte) (int, error) {
	return p.out.Write(b)
}

func mustBytes(t *testing.T, f *frame.Frame) []byte {
	data, err := f.Bytes()
	require.NoError(t, err)
	return data
}

func TestReadFrameFromChunks(t *testing.T) {
	set := frame.New(frame.KindSet, 9, 100, "HELLO WORLD")
	end := frame.New(frame.KindEnd, 9, 0, "HELLO ,WORLD")
	setData, endData := mustBytes(t, set), mustBytes(t, end)

	port := &chunkPort{chunks: [][]byte{
		{0x00, 0x13},
		setData[:5],
		append(append([]byte{}, setData[5:]...), endData[:3]...),
		endData[3:],
	}}
	tr := New(port)
	tr.IsTimeout = func(err error) bool { return err == errQuiet }

	f, err := tr.ReadFrame(time.Second)
	require.NoError(t, err)
	require.Equal(t, set, f)
	f, err = tr.ReadFrame(time.Second)
	require.NoError(t, err)
	require.Equal(t, end, f)

	f, err = tr.ReadFrame(10 * time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, f)
	require.Equal(t, uint64(2), tr.Stats().Frames)
	require.Equal(t, uint64(2), tr.Stats().Skipped)
}

func TestReadFramePartialTimeout(t *testing.T) {
	ack := frame.New(frame.KindAck, 1, 2, "")
	data := mustBytes(t, ack)
	port := &chunkPort{chunks: [][]byte{data[:4]}}
	tr := New(port)
	tr.IsTimeout = func(err error) bool { return err == errQuiet }

	f, err := tr.ReadFrame(10 * time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, f)
	require.NotZero(t, tr.Stats().Incomplete)

	port.chunks = [][]byte{data}
	f, err = tr.ReadFrame(time.Second)
	require.NoError(t, err)
	require.Equal(t, ack, f)
}

func TestReadFrameError(t *testing.T) {
	tr := New(&chunkPort{})
	f, err := tr.ReadFrame(time.Second)
	require.Nil(t, f)
	require.Equal(t, errQuiet, err)

	tr = New(struct {
		io.Reader
		io.Writer
	}{bytes.NewReader(nil), io.Discard})
	_, err = tr.ReadFrame(time.Second)
	require.Equal(t, io.EOF, err)
}

func TestWriteFrame(t *testing.T) {
	port := &chunkPort{}
	tr := New(port)
	f := frame.New(frame.KindAck, 3, 77, "")
	require.NoError(t, tr.WriteFrame(f))
	require.Equal(t, mustBytes(t, f), port.out.Bytes())
}

func TestOverNetConn(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	ta, tb := New(a), New(b)

	f, err := tb.ReadFrame(20 * time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, f)

	set := frame.New(frame.KindSet, 1, 0, "HI")
	errCh := make(chan error, 1)
	go func() { errCh <- ta.WriteFrame(set) }()
	f, err = tb.ReadFrame(time.Second)
	require.NoError(t, err)
	require.Equal(t, set, f)
	require.NoError(t, <-errCh)
}
