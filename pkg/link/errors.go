package link

import "errors"

var (
	// ErrClosed indicates the transport is closed.
	ErrClosed = errors.New("link closed")
	// ErrNoPeer indicates nobody is connected on the other side.
	ErrNoPeer = errors.New("no peer connected")
)
