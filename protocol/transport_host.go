package protocol

// Frame represents a parsed frame
type Frame struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // Frame data without header/trailer
	CRC      uint16
}

// FrameStats counts what the decoder has seen
type FrameStats struct {
	Frames    int // valid frames delivered
	Resyncs   int // times the decoder lost sync
	Discarded int // bytes dropped while hunting for a sync byte
	Overflow  int // bytes dropped because the input buffer was full
}

// FrameDecoder reassembles frames from a byte stream. Bytes may arrive in
// arbitrary chunks; after corruption it skips to the next sync byte.
type FrameDecoder struct {
	inputBuffer    *StreamBuffer
	isSynchronized bool
	stats          FrameStats
}

// NewFrameDecoder creates a decoder buffering up to size bytes
func NewFrameDecoder(size int) *FrameDecoder {
	if size < 2*MessageLengthMax {
		size = 2 * MessageLengthMax
	}
	return &FrameDecoder{
		inputBuffer:    NewStreamBuffer(size),
		isSynchronized: true, // Start synchronized
	}
}

// Feed adds received bytes and returns every complete frame now available
func (d *FrameDecoder) Feed(data []byte) []Frame {
	var frames []Frame
	for len(data) > 0 {
		n := d.inputBuffer.Write(data)
		data = data[n:]
		frames = d.processFrames(frames)
		if n == 0 && len(data) > 0 {
			// No progress possible: drop the oldest byte
			d.inputBuffer.Pop(1)
			d.stats.Overflow++
		}
	}
	return frames
}

// Stats returns the decoder counters
func (d *FrameDecoder) Stats() FrameStats {
	return d.stats
}

// Reset drops buffered bytes and assumes the stream is synchronized
func (d *FrameDecoder) Reset() {
	d.inputBuffer.Reset()
	d.isSynchronized = true
}

// processFrames parses frames from the input buffer
func (d *FrameDecoder) processFrames(frames []Frame) []Frame {
	data := d.inputBuffer.Data()
	start := len(data)

	for len(data) > 0 {
		if !d.isSynchronized {
			// Look for sync byte
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}

			if syncPos >= 0 {
				// Found sync - skip to after sync byte
				d.stats.Discarded += syncPos
				data = data[syncPos+1:]
				d.isSynchronized = true
			} else {
				// No sync found - discard all
				d.stats.Discarded += len(data)
				data = nil
			}
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		// Need minimum message length
		if len(data) < MessageLengthMin {
			break
		}

		// Extract message length
		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.loseSync()
			continue
		}

		// Sequence byte must carry the destination bits
		if data[MessagePositionSeq]&^MessageSeqMask != MessageDest {
			d.loseSync()
			continue
		}

		// Wait for full message
		if len(data) < msgLen {
			break
		}

		// Verify trailing sync byte
		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.loseSync()
			continue
		}

		// Verify CRC
		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			d.loseSync()
			continue
		}

		payload := make([]byte, msgLen-MessageHeaderSize-MessageTrailerSize)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])

		frames = append(frames, Frame{
			Length:   data[MessagePositionLen],
			Sequence: data[MessagePositionSeq],
			Payload:  payload,
			CRC:      frameCRC,
		})
		d.stats.Frames++

		// Advance data pointer
		data = data[msgLen:]
	}

	// Remove consumed bytes from input buffer
	if consumed := start - len(data); consumed > 0 {
		d.inputBuffer.Pop(consumed)
	}
	return frames
}

func (d *FrameDecoder) loseSync() {
	d.isSynchronized = false
	d.stats.Resyncs++
}
