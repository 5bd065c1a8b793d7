package monitor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/dariash95/MCU1/core"
	"github.com/dariash95/MCU1/protocol"
)

func encodeEvents(t *testing.T, enc *protocol.FrameEncoder, events ...core.TraceEvent) [][]byte {
	t.Helper()
	var frames [][]byte
	for _, evt := range events {
		frame, err := enc.Encode(evt.Encode)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		frames = append(frames, frame)
	}
	return frames
}

func TestFeedDecodesEvents(t *testing.T) {
	enc := protocol.NewFrameEncoder()
	frames := encodeEvents(t, enc,
		core.TraceEvent{Kind: core.TraceEXTI, Unit: 9, Clock: 100, Value: 1},
		core.TraceEvent{Kind: core.TraceSPIRxComplete, Unit: 1, Clock: 250},
	)

	var seen []core.TraceEvent
	m := New(nil, nil)
	m.OnEvent = func(evt core.TraceEvent) { seen = append(seen, evt) }

	// Split the stream mid-frame
	stream := append(append([]byte{}, frames[0]...), frames[1]...)
	got := m.Feed(stream[:4])
	got = append(got, m.Feed(stream[4:])...)

	if len(got) != 2 || len(seen) != 2 {
		t.Fatalf("Expected 2 events, got %d (callback %d)", len(got), len(seen))
	}
	if got[0].Kind != core.TraceEXTI || got[0].Unit != 9 || got[1].Clock != 250 {
		t.Errorf("Unexpected events %+v", got)
	}
	if s := m.Stats(); s.Events != 2 || s.Frames != 2 || s.Lost != 0 {
		t.Errorf("Unexpected stats %+v", s)
	}
}

func TestFeedCorruptedFrame(t *testing.T) {
	enc := protocol.NewFrameEncoder()
	frames := encodeEvents(t, enc,
		core.TraceEvent{Kind: core.TraceEXTI, Unit: 1},
		core.TraceEvent{Kind: core.TraceEXTI, Unit: 2},
		core.TraceEvent{Kind: core.TraceEXTI, Unit: 3},
	)
	// Flip a payload bit in the middle frame
	frames[1][protocol.MessageHeaderSize] ^= 0x01

	var stream []byte
	for _, f := range frames {
		stream = append(stream, f...)
	}

	m := New(nil, nil)
	got := m.Feed(stream)
	if len(got) != 2 || got[0].Unit != 1 || got[1].Unit != 3 {
		t.Fatalf("Expected units 1 and 3, got %+v", got)
	}
	s := m.Stats()
	if s.Resyncs < 1 {
		t.Errorf("Expected the decoder to resync")
	}
	if s.Lost != 1 {
		t.Errorf("Expected the corrupted frame to count as lost, got %d", s.Lost)
	}
}

func TestFeedSequenceGapWraps(t *testing.T) {
	enc := protocol.NewFrameEncoder()
	var stream []byte
	for i := 0; i < 20; i++ {
		frame := encodeEvents(t, enc, core.TraceEvent{Kind: core.TraceMessage, Value: uint32(i)})[0]
		// Drop frames 14 to 17, across the sequence wrap
		if i >= 14 && i < 18 {
			continue
		}
		stream = append(stream, frame...)
	}

	m := New(nil, nil)
	if got := m.Feed(stream); len(got) != 16 {
		t.Fatalf("Expected 16 events, got %d", len(got))
	}
	if s := m.Stats(); s.Lost != 4 {
		t.Errorf("Expected 4 lost frames, got %d", s.Lost)
	}
}

func TestFeedMalformedPayload(t *testing.T) {
	enc := protocol.NewFrameEncoder()
	frame, err := enc.EncodePayload([]byte{0x01})
	if err != nil {
		t.Fatalf("EncodePayload failed: %v", err)
	}

	var logs bytes.Buffer
	m := New(nil, slog.New(slog.NewTextHandler(&logs, nil)))
	if got := m.Feed(frame); len(got) != 0 {
		t.Errorf("Expected no events, got %+v", got)
	}
	if s := m.Stats(); s.Malformed != 1 || s.Frames != 1 {
		t.Errorf("Unexpected stats %+v", s)
	}
	if !bytes.Contains(logs.Bytes(), []byte("dropping frame")) {
		t.Errorf("Expected a warning, got %q", logs.String())
	}
}

func TestRunStopsAtEOF(t *testing.T) {
	enc := protocol.NewFrameEncoder()
	frames := encodeEvents(t, enc, core.TraceEvent{Kind: core.TraceI2CNack, Unit: 1, Value: 0x3C})

	var seen int
	m := New(bytes.NewReader(frames[0]), nil)
	m.OnEvent = func(core.TraceEvent) { seen++ }
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if seen != 1 {
		t.Errorf("Expected 1 event, got %d", seen)
	}
}

type timeoutReader struct {
	reads  int
	cancel context.CancelFunc
}

func (r *timeoutReader) Read(p []byte) (int, error) {
	r.reads++
	if r.reads == 3 {
		r.cancel()
	}
	return 0, io.EOF
}

func TestRunFollowIgnoresEOF(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &timeoutReader{cancel: cancel}
	m := New(r, nil)
	m.Follow = true
	if err := m.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if r.reads != 3 {
		t.Errorf("Expected 3 reads, got %d", r.reads)
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestRunReadError(t *testing.T) {
	m := New(brokenReader{}, nil)
	if err := m.Run(context.Background()); err == nil {
		t.Errorf("Expected the read error")
	}
}
