// Package frame provides the chain link frame codec.
package frame

// Chain frames travel between neighboring controller boards over a
// half-duplex serial link. Each frame carries a command kind, a sequence
// number minted by the originating board, a step count and a short letter
// payload.
//
// Wire layout (multi-byte integers are big-endian):
//
//   0x7e | kind | seq(4) | steps(4) | len(2) | letters(len) | crc(2) | 0x7e
//
// The CRC is CRC16-CCITT over kind..letters. The leading sync byte lets a
// receiver that joined mid-stream find the next frame; the trailing sync byte
// terminates the frame. Any malformed input drops the partial frame and the
// parser hunts for the next sync byte.
