package chain

import (
	"errors"
	"fmt"
)

// Conditions degrading a cycle.
var (
	ErrNoAck = errors.New("downstream ACK timeout")
	ErrNoEnd = errors.New("downstream END timeout")
)

// LinkError is a failed write on a link.
type LinkError struct {
	Link string
	Err  error
}

// Error implements error.
func (e *LinkError) Error() string {
	return fmt.Sprintf("%s write: %v", e.Link, e.Err)
}

// Unwrap returns the underlying error.
func (e *LinkError) Unwrap() error {
	return e.Err
}

// PanicError is a panic recovered from a cycle.
type PanicError struct {
	Value interface{}
}

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
