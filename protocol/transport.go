package protocol

import "errors"

const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin
)

var ErrMessageTooLong = errors.New("message too long")

// FrameEncoder builds frames with a rolling sequence number (0x10-0x1F).
// It is not safe for concurrent use.
type FrameEncoder struct {
	seq     uint8
	scratch ScratchOutput
}

// NewFrameEncoder creates an encoder starting at sequence 0x10
func NewFrameEncoder() *FrameEncoder {
	return &FrameEncoder{seq: MessageDest}
}

// Sequence returns the sequence byte the next frame will carry
func (e *FrameEncoder) Sequence() uint8 {
	return e.seq
}

// Encode constructs a complete frame with header, payload, CRC, and sync.
// The returned slice is a fresh copy.
func (e *FrameEncoder) Encode(args func(output OutputBuffer)) ([]byte, error) {
	if e.seq&^MessageSeqMask != MessageDest {
		e.seq = MessageDest
	}

	e.scratch.Reset()

	// Header placeholders (length and sequence)
	e.scratch.Output([]byte{0, e.seq})
	if args != nil {
		args(&e.scratch)
	}

	msgLen := e.scratch.Len() + MessageTrailerSize
	if msgLen > MessageLengthMax {
		return nil, ErrMessageTooLong
	}
	e.scratch.SetByte(MessagePositionLen, uint8(msgLen))

	crc := CRC16(e.scratch.Result())
	e.scratch.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})

	frame := make([]byte, msgLen)
	copy(frame, e.scratch.Result())

	e.seq = ((e.seq + 1) & MessageSeqMask) | MessageDest
	return frame, nil
}

// EncodePayload frames an already encoded payload
func (e *FrameEncoder) EncodePayload(payload []byte) ([]byte, error) {
	if len(payload) > MessagePayloadMax {
		return nil, ErrMessageTooLong
	}
	return e.Encode(func(output OutputBuffer) { output.Output(payload) })
}
