// Package protocol implements the framed wire format used to ship driver
// trace events from the MCU to a host: VLQ encoded integers inside frames
// of length, sequence, payload, CRC16 and a sync byte.
package protocol

// Version of the trace wire format
const Version = "1"

// Protocol constants
const (
	// Low bits of the sequence byte carry the frame counter
	MessageSeqMask = 0x0F
)
