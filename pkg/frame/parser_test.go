package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type parserTestSequence struct {
	in      []byte
	timeout bool
	final   ParseResult
}

type parserTestSequenceBuilder struct {
	seq []parserTestSequence
}

func parserTestSequences() *parserTestSequenceBuilder {
	return &parserTestSequenceBuilder{}
}

func (b *parserTestSequenceBuilder) on(state SyncState, in ...byte) *parserTestSequenceBuilder {
	b.seq = append(b.seq, parserTestSequence{in: in, final: ParseResult{State: state}})
	return b
}

func (b *parserTestSequenceBuilder) onReceiving(in ...byte) *parserTestSequenceBuilder {
	return b.on(SyncStateReady|SyncStateReceiving, in...)
}

func (b *parserTestSequenceBuilder) onFrame(f *Frame) *parserTestSequenceBuilder {
	data, err := f.Bytes()
	if err != nil {
		panic(err)
	}
	return b.onReceiving(data...).frame(f)
}

func (b *parserTestSequenceBuilder) timeout() *parserTestSequenceBuilder {
	b.seq = append(b.seq, parserTestSequence{timeout: true})
	return b
}

func (b *parserTestSequenceBuilder) final(pr ParseResult) *parserTestSequenceBuilder {
	b.seq[len(b.seq)-1].final = pr
	return b
}

func (b *parserTestSequenceBuilder) ready() *parserTestSequenceBuilder {
	return b.final(ParseResult{State: SyncStateReady})
}

func (b *parserTestSequenceBuilder) frame(f *Frame) *parserTestSequenceBuilder {
	return b.final(ParseResult{State: SyncStateReady, Frame: f})
}

func (b *parserTestSequenceBuilder) dropped(state SyncState, err error) *parserTestSequenceBuilder {
	return b.final(ParseResult{State: state, Err: err})
}

func (b *parserTestSequenceBuilder) build() []parserTestSequence {
	return b.seq
}

func corrupted(f *Frame, at int) []byte {
	data, err := f.Bytes()
	if err != nil {
		panic(err)
	}
	if at < 0 {
		at += len(data)
	}
	data[at] ^= 0x01
	return data
}

func TestParser(t *testing.T) {
	setFrame := New(KindSet, 7, 300, "HELLO WORLD")

	testCases := []struct {
		name string
		seq  []parserTestSequence
	}{
		{
			name: "receive frames",
			seq: parserTestSequences().
				onFrame(setFrame).
				onFrame(New(KindAck, 7, 300, "")).
				onFrame(New(KindEnd, 7, 0, "HELLO ,WORLD")).
				build(),
		},
		{
			name: "skip garbage before sync",
			seq: parserTestSequences().
				on(SyncStateSyncing, 0x01, 0x02, 0xf0, 0xff).
				onFrame(setFrame).
				build(),
		},
		{
			name: "repeated sync bytes",
			seq: parserTestSequences().
				on(SyncStateReady, Sync, Sync, Sync).
				onFrame(setFrame).
				build(),
		},
		{
			name: "unknown kind",
			seq: parserTestSequences().
				on(SyncStateReady, Sync).
				on(SyncStateSyncing, 0x09).dropped(SyncStateSyncing, &KindError{Kind: 0x09}).
				onFrame(setFrame).
				build(),
		},
		{
			name: "letters too long",
			seq: parserTestSequences().
				on(SyncStateReady, Sync).
				onReceiving(byte(KindSet), 0, 0, 0, 1, 0, 0, 0, 0, (MaxLetters+1)>>8, (MaxLetters+1)&0xff).
				dropped(SyncStateSyncing, ErrTooLong).
				onFrame(setFrame).
				build(),
		},
		{
			name: "bad crc",
			seq: parserTestSequences().
				onReceiving(corrupted(setFrame, 3)...).dropped(SyncStateReady, ErrBadCRC).
				onFrame(setFrame).
				build(),
		},
		{
			name: "bad trailer",
			seq: parserTestSequences().
				onReceiving(corrupted(setFrame, -1)...).dropped(SyncStateSyncing, ErrBadTrailer).
				onFrame(setFrame).
				build(),
		},
		{
			name: "timeout drops partial frame",
			seq: parserTestSequences().
				on(SyncStateReady, Sync).
				onReceiving(byte(KindAck), 0, 0).
				timeout().dropped(SyncStateSyncing, ErrIncomplete).
				onFrame(setFrame).
				build(),
		},
		{
			name: "timeout between frames",
			seq: parserTestSequences().
				onFrame(setFrame).
				timeout().ready().
				onFrame(setFrame).
				build(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var parser Parser
			for n, s := range tc.seq {
				var pr ParseResult
				if s.timeout {
					pr = parser.Timeout()
				} else {
					for i, b := range s.in {
						pr = parser.Parse(b)
						if i+1 < len(s.in) {
							require.Nilf(t, pr.Frame, "seq[%d][%d] unexpected frame", n, i)
							require.NoErrorf(t, pr.Err, "seq[%d][%d] unexpected error", n, i)
						}
					}
				}
				require.Equalf(t, s.final, pr, "seq[%d] final mismatch", n)
			}
		})
	}
}

func TestParserStats(t *testing.T) {
	var parser Parser
	good := New(KindAck, 1, 2, "")
	data, err := good.Bytes()
	require.NoError(t, err)
	bad := append([]byte(nil), data...)
	bad[2] ^= 0xff

	for _, chunk := range [][]byte{{0x00, 0x01}, data, bad, data} {
		for _, b := range chunk {
			parser.Parse(b)
		}
	}
	stats := parser.Stats()
	require.Equal(t, uint64(2), stats.Frames)
	require.Equal(t, uint64(2), stats.Skipped)
	require.Equal(t, uint64(1), stats.BadCRC)
	require.Equal(t, uint64(1), stats.Dropped())
}

func TestSyncState(t *testing.T) {
	require.False(t, SyncStateSyncing.IsReady())
	require.False(t, SyncStateSyncing.IsReceiving())
	require.True(t, SyncStateReady.IsReady())
	require.False(t, SyncStateReady.IsReceiving())
	require.True(t, (SyncStateReady | SyncStateReceiving).IsReady())
	require.True(t, (SyncStateReady | SyncStateReceiving).IsReceiving())
}
