// Package bench talks to a module-driver board directly with the bench
// control frame, bypassing the chain protocol.
package bench

import (
	"github.com/robotalks/flapchain/pkg/flap"
)

// Control bytes of the bench frame.
const (
	// Start resets the module index of every driver board on the line.
	Start byte = 0xf0
	// ResetModule homes the module at the current index.
	ResetModule byte = 0xfe
	// ResetAll homes all modules on all boards.
	ResetAll byte = 0xff
)

// Characters which map to reset bytes.
const (
	ResetModuleChar = '\\'
	ResetAllChar    = '@'
)

// Transform encodes s as a bench frame. Each flap character becomes its
// flap index, other characters are dropped.
func Transform(s string) []byte {
	out := make([]byte, 1, len(s)+1)
	out[0] = Start
	for i := 0; i < len(s); i++ {
		c := s[i]
		if index, ok := flap.Index(c); ok {
			out = append(out, byte(index))
			continue
		}
		switch c {
		case ResetModuleChar:
			out = append(out, ResetModule)
		case ResetAllChar:
			out = append(out, ResetAll)
		}
	}
	return out
}
