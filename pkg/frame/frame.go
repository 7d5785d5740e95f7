package frame

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Kind is the command kind of a frame.
type Kind byte

// Command kinds.
const (
	// KindSet requests a message to be displayed.
	KindSet Kind = 1
	// KindAck acknowledges a SET with a step estimate.
	KindAck Kind = 2
	// KindEnd reports completion with a status summary.
	KindEnd Kind = 3
)

// IsValid checks if it's a known kind.
func (k Kind) IsValid() bool {
	return k >= KindSet && k <= KindEnd
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindSet:
		return "SET"
	case KindAck:
		return "ACK"
	case KindEnd:
		return "END"
	}
	return fmt.Sprintf("KIND(%d)", byte(k))
}

const (
	// Sync delimits frames on the wire.
	Sync byte = 0x7e
	// MaxLetters is the largest letter payload a frame can carry.
	MaxLetters = 4096

	headerSize  = 11 // kind, seq, steps, len
	trailerSize = 3  // crc, sync
)

// Frame is a decoded chain frame.
type Frame struct {
	Kind    Kind
	Seq     uint32
	Steps   uint32
	Letters []byte
}

// New creates a Frame.
func New(kind Kind, seq, steps uint32, letters string) *Frame {
	f := &Frame{Kind: kind, Seq: seq, Steps: steps}
	if letters != "" {
		f.Letters = []byte(letters)
	}
	return f
}

// Text returns the letter payload as a string.
func (f *Frame) Text() string {
	return string(f.Letters)
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	return fmt.Sprintf("%s#%d steps=%d %q", f.Kind, f.Seq, f.Steps, f.Letters)
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() ([]byte, error) {
	if !f.Kind.IsValid() {
		return nil, &KindError{Kind: byte(f.Kind)}
	}
	if len(f.Letters) > MaxLetters {
		return nil, ErrTooLong
	}
	b := make([]byte, 1, 1+headerSize+len(f.Letters)+trailerSize)
	b[0] = Sync
	b = append(b, byte(f.Kind))
	b = appendUint32(b, f.Seq)
	b = appendUint32(b, f.Steps)
	b = appendUint16(b, uint16(len(f.Letters)))
	b = append(b, f.Letters...)
	hi, lo := CRC16CCITT(b[1:])
	return append(b, hi, lo, Sync), nil
}

// WriteTo writes encoded bytes.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	b, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// Decode decodes the first frame found in data. It is used by transports
// which deliver one frame per message.
func Decode(data []byte) (*Frame, error) {
	var p Parser
	var lastErr error
	for _, b := range data {
		pr := p.Parse(b)
		if pr.Frame != nil {
			return pr.Frame, nil
		}
		if pr.Err != nil {
			lastErr = pr.Err
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrIncomplete
}

func appendUint16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func appendUint32(b []byte, v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return append(b, buf[:]...)
}
