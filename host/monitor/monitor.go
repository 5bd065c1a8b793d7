// Package monitor follows the trace stream a board writes to its serial port.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dariash95/MCU1/core"
	"github.com/dariash95/MCU1/protocol"
)

// Stats counts what the monitor has seen on the wire
type Stats struct {
	protocol.FrameStats
	Events    int // trace events decoded
	Malformed int // frames whose payload was not a trace event
	Lost      int // frames skipped according to the sequence numbers
}

// Monitor decodes trace frames read from a board
type Monitor struct {
	Port    io.Reader
	Logger  *slog.Logger
	OnEvent func(core.TraceEvent)

	// Follow keeps reading after io.EOF. Serial ports report a read
	// timeout as EOF.
	Follow bool

	dec     *protocol.FrameDecoder
	nextSeq uint8
	synced  bool
	stats   Stats
}

// New creates a monitor reading from port
func New(port io.Reader, logger *slog.Logger) *Monitor {
	return &Monitor{
		Port:   port,
		Logger: logger,
		dec:    protocol.NewFrameDecoder(0),
	}
}

// Run reads from the port until ctx is done, the port fails, or the stream
// ends and Follow is unset.
func (m *Monitor) Run(ctx context.Context) error {
	buf := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := m.Port.Read(buf)
		if n > 0 {
			m.Feed(buf[:n])
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			if !m.Follow {
				return nil
			}
		default:
			return fmt.Errorf("read trace stream: %w", err)
		}
	}
}

// Feed decodes bytes received from the board and returns the events found
func (m *Monitor) Feed(data []byte) []core.TraceEvent {
	if m.dec == nil {
		m.dec = protocol.NewFrameDecoder(0)
	}

	var events []core.TraceEvent
	for _, frame := range m.dec.Feed(data) {
		m.checkSequence(frame.Sequence)

		evt, err := core.DecodeTraceEvent(frame.Payload)
		if err != nil {
			m.stats.Malformed++
			if m.Logger != nil {
				m.Logger.Warn("dropping frame", "seq", frame.Sequence, "err", err)
			}
			continue
		}

		m.stats.Events++
		events = append(events, evt)
		if m.Logger != nil {
			m.Logger.Info("trace", "event", evt)
		}
		if m.OnEvent != nil {
			m.OnEvent(evt)
		}
	}
	return events
}

func (m *Monitor) checkSequence(seq uint8) {
	if m.synced && seq != m.nextSeq {
		lost := int((seq - m.nextSeq) & protocol.MessageSeqMask)
		m.stats.Lost += lost
		if m.Logger != nil {
			m.Logger.Warn("sequence gap", "expected", m.nextSeq, "got", seq, "lost", lost)
		}
	}
	m.nextSeq = ((seq + 1) & protocol.MessageSeqMask) | protocol.MessageDest
	m.synced = true
}

// Stats returns the monitor counters
func (m *Monitor) Stats() Stats {
	s := m.stats
	if m.dec != nil {
		s.FrameStats = m.dec.Stats()
	}
	return s
}
