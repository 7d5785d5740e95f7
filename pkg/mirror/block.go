// Package mirror mirrors the last cycle of a board into Modbus holding
// registers, for panels and PLCs watching the display.
package mirror

import (
	"github.com/robotalks/flapchain/pkg/chain"
)

// Register slots relative to the base address.
const (
	SlotHealth        = 0
	SlotCycles        = 1
	SlotEstimate      = 2
	SlotRotated       = 3
	SlotFlags         = 4
	SlotUpstreamSeq   = 5
	SlotDownstreamSeq = 6
	// Slot 7 is reserved.
	SlotStatusStart = 8
	SlotStatusSlots = 16
	StatusMaxChars  = SlotStatusSlots * 2
	BlockSize       = SlotStatusStart + SlotStatusSlots
)

// Health codes.
const (
	HealthUnknown uint16 = iota
	HealthOK
	HealthDegraded
	HealthFailed
)

// Flags bits.
const (
	FlagForwarded uint16 = 1 << iota
	FlagDownstreamAcked
	FlagDownstreamReported
	FlagDemo
)

// Block encodes a report as the register block.
func Block(r *chain.CycleReport) []uint16 {
	regs := make([]uint16, BlockSize)
	regs[SlotHealth] = health(r.Outcome)
	regs[SlotCycles] = uint16(r.Cycle)
	regs[SlotEstimate] = clamp(r.Estimate)
	regs[SlotRotated] = clamp(r.Rotated)
	var flags uint16
	if r.Forwarded() {
		flags |= FlagForwarded
	}
	if r.DownstreamAcked {
		flags |= FlagDownstreamAcked
	}
	if r.DownstreamReported {
		flags |= FlagDownstreamReported
	}
	if r.Demo {
		flags |= FlagDemo
	}
	regs[SlotFlags] = flags
	regs[SlotUpstreamSeq] = uint16(r.UpstreamSeq)
	regs[SlotDownstreamSeq] = uint16(r.DownstreamSeq)
	copy(regs[SlotStatusStart:], encodeText(r.Status))
	return regs
}

func health(o chain.Outcome) uint16 {
	switch o {
	case chain.OutcomeCompleted:
		return HealthOK
	case chain.OutcomeDegraded:
		return HealthDegraded
	case chain.OutcomeFailed:
		return HealthFailed
	}
	return HealthUnknown
}

func clamp(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0xffff {
		return 0xffff
	}
	return uint16(v)
}

// encodeText packs up to StatusMaxChars ASCII characters two per register,
// big-endian. Non printable characters become '?'.
func encodeText(s string) []uint16 {
	out := make([]uint16, SlotStatusSlots)
	b := []byte(s)
	if len(b) > StatusMaxChars {
		b = b[:StatusMaxChars]
	}
	for i := range b {
		if b[i] < 0x20 || b[i] > 0x7e {
			b[i] = '?'
		}
	}
	for i := 0; i < len(b); i += 2 {
		hi, lo := b[i], byte(0)
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}
	return out
}
