package protocol

// OutputBuffer receives encoded payload bytes
type OutputBuffer interface {
	Output(data []byte)
}

// ScratchOutput assembles one frame in place. Bytes beyond
// MessageLengthMax are dropped; callers check Len before trusting Result.
type ScratchOutput struct {
	buf [MessageLengthMax]byte
	n   int
}

// NewScratchOutput returns an empty scratch buffer
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

// Output appends data
func (s *ScratchOutput) Output(data []byte) {
	s.n += copy(s.buf[s.n:], data)
}

// Len is the number of bytes written so far
func (s *ScratchOutput) Len() int {
	return s.n
}

// SetByte patches an already written byte, such as the frame length
func (s *ScratchOutput) SetByte(pos int, val byte) {
	if pos < s.n {
		s.buf[pos] = val
	}
}

// Result returns the written bytes. The slice is reused by the next Reset.
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.n]
}

func (s *ScratchOutput) Reset() {
	s.n = 0
}

// StreamBuffer holds received bytes until whole frames can be parsed. The
// unparsed bytes are always contiguous at the start of the buffer.
type StreamBuffer struct {
	buf []byte
	n   int
}

// NewStreamBuffer creates a buffer holding at most capacity bytes
func NewStreamBuffer(capacity int) *StreamBuffer {
	return &StreamBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the count stored
func (b *StreamBuffer) Write(data []byte) int {
	n := copy(b.buf[b.n:], data)
	b.n += n
	return n
}

// Data returns the buffered bytes. It aliases the buffer until the next
// Write or Pop.
func (b *StreamBuffer) Data() []byte {
	return b.buf[:b.n]
}

// Pop discards the first n bytes
func (b *StreamBuffer) Pop(n int) {
	if n >= b.n {
		b.n = 0
		return
	}
	copy(b.buf, b.buf[n:b.n])
	b.n -= n
}

func (b *StreamBuffer) Len() int  { return b.n }
func (b *StreamBuffer) Free() int { return len(b.buf) - b.n }

func (b *StreamBuffer) Reset() {
	b.n = 0
}
