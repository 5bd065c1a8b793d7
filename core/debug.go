package core

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/dariash95/MCU1/protocol"
)

// TraceKind tags a driver event captured in the trace ring
type TraceKind uint8

// Event type codes
const (
	TraceSPITxComplete TraceKind = 1 // interrupt driven transmit finished
	TraceSPIRxComplete TraceKind = 2 // interrupt driven receive finished
	TraceSPIOverrun    TraceKind = 3 // OVR seen by the SPI handler
	TraceEXTI          TraceKind = 4 // external interrupt line serviced
	TraceI2CNack       TraceKind = 5 // address phase not acknowledged
	TraceTimeout       TraceKind = 6 // blocking wait gave up
	TraceBufferFull    TraceKind = 7 // message buffer overflow
	TraceMessage       TraceKind = 8 // complete message received
)

func (k TraceKind) String() string {
	switch k {
	case TraceSPITxComplete:
		return "SPI_TX_DONE"
	case TraceSPIRxComplete:
		return "SPI_RX_DONE"
	case TraceSPIOverrun:
		return "SPI_OVR"
	case TraceEXTI:
		return "EXTI"
	case TraceI2CNack:
		return "I2C_NACK"
	case TraceTimeout:
		return "TIMEOUT"
	case TraceBufferFull:
		return "BUF_FULL"
	case TraceMessage:
		return "MESSAGE"
	default:
		return "UNKNOWN"
	}
}

// TraceEvent captures a driver event. It is small and fixed size so it can
// be recorded from interrupt context.
type TraceEvent struct {
	Kind  TraceKind
	Unit  uint8  // peripheral instance or EXTI line
	Clock uint32 // system clock at event
	Value uint32 // context-dependent value
}

const (
	TraceRingSize = 32 // oldest events are overwritten when full
)

var (
	// Trace ring buffer (non-blocking, drained by foreground code)
	traceRing    [TraceRingSize]TraceEvent
	traceHead    uint8 // next write position
	traceLen     uint8
	traceDropped uint32
	traceEnabled = true
)

// SetTraceEnabled enables or disables event capture
func SetTraceEnabled(enabled bool) {
	s := lockTrace()
	traceEnabled = enabled
	unlockTrace(s)
}

// traceRecord captures an event in the ring buffer. Safe from interrupt
// handlers; must not be called while holding disableInterrupts on a host.
func traceRecord(kind TraceKind, unit uint8, value uint32) {
	clock := GetTime()
	s := lockTrace()
	if traceEnabled {
		if traceLen == TraceRingSize {
			traceDropped++
		} else {
			traceLen++
		}
		traceRing[traceHead] = TraceEvent{Kind: kind, Unit: unit, Clock: clock, Value: value}
		traceHead = (traceHead + 1) % TraceRingSize
	}
	unlockTrace(s)
}

// DrainTrace removes events oldest first, passing each to fn outside the
// critical section. Returns the number of events delivered.
func DrainTrace(fn func(TraceEvent)) int {
	n := 0
	for {
		s := lockTrace()
		if traceLen == 0 {
			unlockTrace(s)
			return n
		}
		idx := (traceHead + TraceRingSize - traceLen) % TraceRingSize
		evt := traceRing[idx]
		traceLen--
		unlockTrace(s)

		fn(evt)
		n++
	}
}

// TraceDropped returns how many events were overwritten before being drained
func TraceDropped() uint32 {
	s := lockTrace()
	defer unlockTrace(s)
	return traceDropped
}

// ClearTrace empties the ring buffer
func ClearTrace() {
	s := lockTrace()
	traceRing = [TraceRingSize]TraceEvent{}
	traceHead = 0
	traceLen = 0
	traceDropped = 0
	unlockTrace(s)
}

// LogTrace drains the ring into a logger.
func LogTrace(logger *slog.Logger) int {
	return DrainTrace(func(evt TraceEvent) {
		logattrs(logger, slog.LevelDebug, "trace", evt.attrs()...)
	})
}

func (e TraceEvent) attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("kind", e.Kind.String()),
		slog.Int("unit", int(e.Unit)),
		slog.Uint64("clock", uint64(e.Clock)),
		slog.Uint64("value", uint64(e.Value)),
	}
}

// LogValue implements slog.LogValuer.
func (e TraceEvent) LogValue() slog.Value {
	return slog.GroupValue(e.attrs()...)
}

// Encode writes the event as a VLQ encoded frame payload
func (e TraceEvent) Encode(output protocol.OutputBuffer) {
	protocol.EncodeVLQUint(output, uint32(e.Kind))
	protocol.EncodeVLQUint(output, uint32(e.Unit))
	protocol.EncodeVLQUint(output, e.Clock)
	protocol.EncodeVLQUint(output, e.Value)
}

var errTracePayload = errors.New("malformed trace payload")

// DecodeTraceEvent parses a payload written by Encode
func DecodeTraceEvent(payload []byte) (TraceEvent, error) {
	var vals [4]uint32
	for i := range vals {
		v, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return TraceEvent{}, errTracePayload
		}
		vals[i] = v
	}
	if len(payload) != 0 || vals[0] > 0xFF || vals[1] > 0xFF {
		return TraceEvent{}, errTracePayload
	}
	return TraceEvent{
		Kind:  TraceKind(vals[0]),
		Unit:  uint8(vals[1]),
		Clock: vals[2],
		Value: vals[3],
	}, nil
}

// WriteTrace drains the ring, writing one frame per event to w. It stops at
// the first write error; events drained after it are discarded.
func WriteTrace(w io.Writer, enc *protocol.FrameEncoder) (int, error) {
	var werr error
	n := DrainTrace(func(evt TraceEvent) {
		if werr != nil {
			return
		}
		frame, err := enc.Encode(evt.Encode)
		if err == nil {
			_, err = w.Write(frame)
		}
		werr = err
	})
	return n, werr
}

func logattrs(l *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if l == nil {
		return
	}
	l.LogAttrs(context.Background(), level, msg, attrs...)
}
