package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrBadCRC indicates the checksum doesn't match the frame content.
	ErrBadCRC = errors.New("bad crc")
	// ErrBadTrailer indicates the frame is not terminated by a sync byte.
	ErrBadTrailer = errors.New("missing sync trailer")
	// ErrTooLong indicates the letter payload exceeds MaxLetters.
	ErrTooLong = errors.New("letters too long")
	// ErrIncomplete indicates the data ends before a frame completes.
	ErrIncomplete = errors.New("incomplete frame")
)

// KindError reports an unknown command kind.
type KindError struct {
	Kind byte
}

// Error implements error.
func (e *KindError) Error() string {
	return fmt.Sprintf("unknown frame kind %d", e.Kind)
}
