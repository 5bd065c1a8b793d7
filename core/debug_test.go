//go:build !tinygo

package core

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dariash95/MCU1/protocol"
)

func TestTraceRingOrder(t *testing.T) {
	resetSim(t)
	SetTime(100)
	traceRecord(TraceEXTI, 9, 23)
	SetTime(200)
	traceRecord(TraceSPITxComplete, 1, 0)

	var events []TraceEvent
	n := DrainTrace(func(evt TraceEvent) { events = append(events, evt) })
	if n != 2 || len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", n)
	}
	want := TraceEvent{Kind: TraceEXTI, Unit: 9, Clock: 100, Value: 23}
	if events[0] != want {
		t.Errorf("Expected %+v, got %+v", want, events[0])
	}
	if events[1].Kind != TraceSPITxComplete || events[1].Clock != 200 {
		t.Errorf("Unexpected second event %+v", events[1])
	}
	if DrainTrace(func(TraceEvent) {}) != 0 {
		t.Errorf("Expected ring empty after drain")
	}
}

func TestTraceRingOverwritesOldest(t *testing.T) {
	resetSim(t)
	for i := 0; i < TraceRingSize+5; i++ {
		traceRecord(TraceMessage, 0, uint32(i))
	}
	if got := TraceDropped(); got != 5 {
		t.Errorf("Expected 5 dropped events, got %d", got)
	}

	var first, count uint32
	DrainTrace(func(evt TraceEvent) {
		if count == 0 {
			first = evt.Value
		}
		count++
	})
	if count != TraceRingSize || first != 5 {
		t.Errorf("Expected %d events starting at 5, got %d starting at %d", TraceRingSize, count, first)
	}
}

func TestTraceDisabled(t *testing.T) {
	resetSim(t)
	SetTraceEnabled(false)
	traceRecord(TraceEXTI, 0, 0)
	SetTraceEnabled(true)
	if n := DrainTrace(func(TraceEvent) {}); n != 0 {
		t.Errorf("Expected no events while disabled, got %d", n)
	}
}

func TestTraceEventEncodeDecode(t *testing.T) {
	evt := TraceEvent{Kind: TraceI2CNack, Unit: 2, Clock: 0xDEADBEEF, Value: 0x3C}
	out := protocol.NewScratchOutput()
	evt.Encode(out)

	got, err := DecodeTraceEvent(out.Result())
	if err != nil {
		t.Fatalf("DecodeTraceEvent failed: %v", err)
	}
	if got != evt {
		t.Errorf("Expected %+v, got %+v", evt, got)
	}

	if _, err := DecodeTraceEvent(append(out.Result(), 0x01)); err == nil {
		t.Errorf("Expected trailing bytes to be rejected")
	}
	if _, err := DecodeTraceEvent([]byte{0x01}); err == nil {
		t.Errorf("Expected truncated payload to be rejected")
	}
}

type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.n++
	return 0, errors.New("write failed")
}

func TestWriteTrace(t *testing.T) {
	resetSim(t)
	traceRecord(TraceEXTI, 5, 23)
	traceRecord(TraceSPIOverrun, 1, 0)

	var buf bytes.Buffer
	enc := protocol.NewFrameEncoder()
	n, err := WriteTrace(&buf, enc)
	if err != nil || n != 2 {
		t.Fatalf("WriteTrace = %d, %v", n, err)
	}

	frames := protocol.NewFrameDecoder(0).Feed(buf.Bytes())
	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(frames))
	}
	evt, err := DecodeTraceEvent(frames[1].Payload)
	if err != nil {
		t.Fatalf("DecodeTraceEvent failed: %v", err)
	}
	if evt.Kind != TraceSPIOverrun || evt.Unit != 1 {
		t.Errorf("Unexpected event %+v", evt)
	}

	traceRecord(TraceEXTI, 0, 0)
	traceRecord(TraceEXTI, 1, 0)
	w := &failingWriter{}
	if _, err := WriteTrace(w, enc); err == nil {
		t.Errorf("Expected the write error")
	}
	if w.n != 1 {
		t.Errorf("Expected writing to stop at the first error, got %d writes", w.n)
	}
}

func TestTraceKindString(t *testing.T) {
	if TraceEXTI.String() != "EXTI" || TraceKind(99).String() != "UNKNOWN" {
		t.Errorf("Unexpected names %q %q", TraceEXTI.String(), TraceKind(99).String())
	}
}
