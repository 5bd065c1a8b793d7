package core

// MessageBuffer accumulates received bytes until a terminator arrives. It
// has a fixed capacity and reports overflow instead of writing past it.
// Push is meant to be called from an SPI event callback, so it does not
// allocate.
type MessageBuffer struct {
	buf  []byte
	n    int
	term byte
	done bool
}

// NewMessageBuffer allocates a buffer holding up to capacity bytes,
// terminator included
func NewMessageBuffer(capacity int, terminator byte) *MessageBuffer {
	return &MessageBuffer{buf: make([]byte, capacity), term: terminator}
}

// Push appends b. done reports that b was the terminator; the message is
// then complete and further bytes are refused until Reset. A full buffer
// drops b and returns ErrBufferFull.
func (m *MessageBuffer) Push(b byte) (done bool, err error) {
	if m.done {
		return true, ErrBufferFull
	}
	if m.n >= len(m.buf) {
		traceRecord(TraceBufferFull, 0, uint32(m.n))
		return false, ErrBufferFull
	}
	m.buf[m.n] = b
	m.n++
	if b == m.term {
		m.done = true
		traceRecord(TraceMessage, 0, uint32(m.n))
	}
	return m.done, nil
}

// Bytes returns the message without its terminator. The slice aliases the
// buffer and is only valid until the next Reset.
func (m *MessageBuffer) Bytes() []byte {
	if m.done {
		return m.buf[:m.n-1]
	}
	return m.buf[:m.n]
}

// Len returns the number of bytes stored, terminator included
func (m *MessageBuffer) Len() int { return m.n }

// Cap returns the capacity
func (m *MessageBuffer) Cap() int { return len(m.buf) }

// Complete reports whether the terminator has been received
func (m *MessageBuffer) Complete() bool { return m.done }

// Reset empties the buffer for the next message
func (m *MessageBuffer) Reset() {
	m.n = 0
	m.done = false
}
