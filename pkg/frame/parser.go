package frame

import (
	"encoding/binary"
	"errors"
)

// Parser parses bytes received from a link.
type Parser struct {
	state  parseState
	buf    []byte
	remain int
	crc    [2]byte
	stats  Stats
}

// SyncState indicates the state of the byte stream.
type SyncState int

const (
	// SyncStateSyncing means the parser is hunting for a sync byte.
	SyncStateSyncing SyncState = 0
	// SyncStateReady means the parser is between frames.
	SyncStateReady SyncState = 0x01
	// SyncStateReceiving means a frame is partially received.
	SyncStateReceiving SyncState = 0x02
)

// IsReady indicates if the stream is synchronized.
func (s SyncState) IsReady() bool {
	return s&SyncStateReady != 0
}

// IsReceiving indicates if it's in the middle of a frame.
func (s SyncState) IsReceiving() bool {
	return s&SyncStateReceiving != 0
}

// ParseResult is the result after one parsing step.
type ParseResult struct {
	State SyncState
	Frame *Frame
	Err   error
}

// Stats counts what the parser has seen.
type Stats struct {
	Frames     uint64
	Skipped    uint64
	BadKind    uint64
	TooLong    uint64
	BadTrailer uint64
	BadCRC     uint64
	Incomplete uint64
}

// Dropped returns the number of frames dropped for any reason.
func (s Stats) Dropped() uint64 {
	return s.BadKind + s.TooLong + s.BadTrailer + s.BadCRC + s.Incomplete
}

type parseState int

const (
	stateSync    parseState = iota // hunting for sync byte
	stateKind                      // waiting for kind, repeated sync bytes are skipped
	stateHeader                    // receiving seq, steps and len
	stateLetters                   // receiving letters
	stateCRC                       // receiving crc
	stateTrailer                   // waiting for the terminating sync byte
)

// State gets the current sync state.
func (p *Parser) State() SyncState {
	switch p.state {
	case stateSync:
		return SyncStateSyncing
	case stateKind:
		return SyncStateReady
	}
	return SyncStateReady | SyncStateReceiving
}

// Stats returns the counters.
func (p *Parser) Stats() Stats {
	return p.stats
}

// Reset drops any partial frame and hunts for the next sync byte.
func (p *Parser) Reset() {
	p.state, p.buf, p.remain = stateSync, p.buf[:0], 0
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	pr.Frame, pr.Err = p.parseByte(b)
	if pr.Frame != nil {
		p.stats.Frames++
	}
	p.count(pr.Err)
	pr.State = p.State()
	return
}

// Timeout notifies the parser that the line went quiet. A partial frame
// is dropped.
func (p *Parser) Timeout() (pr ParseResult) {
	if p.state > stateKind {
		p.Reset()
		pr.Err = ErrIncomplete
		p.count(pr.Err)
	}
	pr.State = p.State()
	return
}

func (p *Parser) parseByte(b byte) (*Frame, error) {
	switch p.state {
	case stateSync:
		if b == Sync {
			p.state = stateKind
		} else {
			p.stats.Skipped++
		}
	case stateKind:
		if b == Sync {
			return nil, nil
		}
		if !Kind(b).IsValid() {
			return p.resync(&KindError{Kind: b})
		}
		p.buf = append(p.buf[:0], b)
		p.state = stateHeader
	case stateHeader:
		p.buf = append(p.buf, b)
		if len(p.buf) < headerSize {
			return nil, nil
		}
		n := int(binary.BigEndian.Uint16(p.buf[9:headerSize]))
		if n > MaxLetters {
			return p.resync(ErrTooLong)
		}
		if n == 0 {
			p.state, p.remain = stateCRC, len(p.crc)
		} else {
			p.state, p.remain = stateLetters, n
		}
	case stateLetters:
		p.buf = append(p.buf, b)
		if p.remain--; p.remain == 0 {
			p.state, p.remain = stateCRC, len(p.crc)
		}
	case stateCRC:
		p.crc[len(p.crc)-p.remain] = b
		if p.remain--; p.remain == 0 {
			p.state = stateTrailer
		}
	case stateTrailer:
		if b != Sync {
			return p.resync(ErrBadTrailer)
		}
		p.state = stateKind
		if hi, lo := CRC16CCITT(p.buf); hi != p.crc[0] || lo != p.crc[1] {
			return nil, ErrBadCRC
		}
		return p.frame(), nil
	}
	return nil, nil
}

func (p *Parser) resync(err error) (*Frame, error) {
	p.Reset()
	return nil, err
}

func (p *Parser) frame() *Frame {
	f := &Frame{
		Kind:  Kind(p.buf[0]),
		Seq:   binary.BigEndian.Uint32(p.buf[1:5]),
		Steps: binary.BigEndian.Uint32(p.buf[5:9]),
	}
	if letters := p.buf[headerSize:]; len(letters) > 0 {
		f.Letters = append([]byte(nil), letters...)
	}
	return f
}

func (p *Parser) count(err error) {
	var kindErr *KindError
	switch {
	case err == nil:
	case errors.As(err, &kindErr):
		p.stats.BadKind++
	case err == ErrTooLong:
		p.stats.TooLong++
	case err == ErrBadTrailer:
		p.stats.BadTrailer++
	case err == ErrBadCRC:
		p.stats.BadCRC++
	case err == ErrIncomplete:
		p.stats.Incomplete++
	}
}
