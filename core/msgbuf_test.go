//go:build !tinygo

package core

import (
	"bytes"
	"testing"

	"github.com/dariash95/MCU1/device/stm32f1"
)

func TestMessageBufferTerminator(t *testing.T) {
	resetSim(t)
	m := NewMessageBuffer(8, 0)

	for _, b := range []byte("led") {
		done, err := m.Push(b)
		if err != nil || done {
			t.Fatalf("Push(%q) = %v, %v", b, done, err)
		}
	}
	done, err := m.Push(0)
	if err != nil || !done {
		t.Fatalf("Expected terminator to complete the message, got %v, %v", done, err)
	}
	if !m.Complete() {
		t.Errorf("Expected Complete")
	}
	if !bytes.Equal(m.Bytes(), []byte("led")) {
		t.Errorf("Expected %q, got %q", "led", m.Bytes())
	}
	if m.Len() != 4 {
		t.Errorf("Expected length 4, got %d", m.Len())
	}

	// Complete messages refuse more bytes until Reset
	if _, err := m.Push('x'); err != ErrBufferFull {
		t.Errorf("Expected ErrBufferFull after completion, got %v", err)
	}

	m.Reset()
	if m.Len() != 0 || m.Complete() || len(m.Bytes()) != 0 {
		t.Errorf("Expected empty buffer after Reset")
	}

	if kinds := drainKinds(); len(kinds) != 1 || kinds[0] != TraceMessage {
		t.Errorf("Expected a message trace event, got %v", kinds)
	}
}

func TestMessageBufferCapacity(t *testing.T) {
	resetSim(t)
	m := NewMessageBuffer(3, '\n')

	for _, b := range []byte("abc") {
		if _, err := m.Push(b); err != nil {
			t.Fatalf("Push(%q) failed: %v", b, err)
		}
	}
	if _, err := m.Push('d'); err != ErrBufferFull {
		t.Errorf("Expected ErrBufferFull, got %v", err)
	}
	if !bytes.Equal(m.Bytes(), []byte("abc")) {
		t.Errorf("Overflow must not change stored bytes, got %q", m.Bytes())
	}
	if m.Cap() != 3 {
		t.Errorf("Expected capacity 3, got %d", m.Cap())
	}
	if kinds := drainKinds(); len(kinds) != 1 || kinds[0] != TraceBufferFull {
		t.Errorf("Expected a buffer-full trace event, got %v", kinds)
	}
}

func TestMessageBufferFromSPICallback(t *testing.T) {
	resetSim(t)
	m := NewMessageBuffer(16, 0)
	var rx [1]byte
	var messages []string

	h := NewSPIHandle(SPI1, SPIConfig{Role: SPISlave}, func(h *SPIHandle, e SPIEvent) {
		if e != EventRxComplete {
			return
		}
		done, err := m.Push(rx[0])
		if err != nil {
			m.Reset()
			return
		}
		if done {
			messages = append(messages, string(m.Bytes()))
			m.Reset()
			return
		}
		h.ReceiveIT(rx[:])
	})
	if err := h.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	stm32f1.SPI1.SR.Store(stm32f1.SPI_SR_RXNE)
	feedDR('o', 'n', 0)
	h.ReceiveIT(rx[:])
	for i := 0; i < 3; i++ {
		h.IRQHandler()
	}

	if len(messages) != 1 || messages[0] != "on" {
		t.Errorf("Expected message \"on\", got %q", messages)
	}
	if h.RxState() != StateReady {
		t.Errorf("Expected receive idle after the terminator")
	}
}
