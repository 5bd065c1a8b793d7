//go:build !tinygo

package core

import (
	"testing"

	"periph.io/x/conn/v3/gpio"

	"github.com/dariash95/MCU1/device/stm32f1"
)

func TestConfigureEdgeIdempotent(t *testing.T) {
	resetSim(t)

	if err := ConfigureEdge(3, gpio.FallingEdge); err != nil {
		t.Fatalf("ConfigureEdge failed: %v", err)
	}
	rtsr, ftsr := stm32f1.EXTI.RTSR.Load(), stm32f1.EXTI.FTSR.Load()

	if err := ConfigureEdge(3, gpio.FallingEdge); err != nil {
		t.Fatalf("ConfigureEdge failed: %v", err)
	}
	if stm32f1.EXTI.RTSR.Load() != rtsr || stm32f1.EXTI.FTSR.Load() != ftsr {
		t.Errorf("Second configuration changed trigger registers: RTSR 0x%08X FTSR 0x%08X",
			stm32f1.EXTI.RTSR.Load(), stm32f1.EXTI.FTSR.Load())
	}
	if ftsr != 1<<3 || rtsr != 0 {
		t.Errorf("Expected only falling trigger on line 3, got RTSR 0x%08X FTSR 0x%08X", rtsr, ftsr)
	}
}

func TestConfigureEdgeFallingThenRising(t *testing.T) {
	resetSim(t)
	stm32f1.EXTI.FTSR.Store(1 << 1) // another line must be left alone

	ConfigureEdge(9, gpio.FallingEdge)
	ConfigureEdge(9, gpio.RisingEdge)

	if got := stm32f1.EXTI.RTSR.Load(); got != 1<<9 {
		t.Errorf("Expected RTSR 0x200, got 0x%08X", got)
	}
	if got := stm32f1.EXTI.FTSR.Load(); got != 1<<1 {
		t.Errorf("Expected FTSR 0x2, got 0x%08X", got)
	}

	ConfigureEdge(9, gpio.BothEdges)
	if !stm32f1.EXTI.RTSR.HasBits(1<<9) || !stm32f1.EXTI.FTSR.HasBits(1<<9) {
		t.Errorf("Expected both triggers on line 9")
	}
	ConfigureEdge(9, gpio.NoEdge)
	if stm32f1.EXTI.RTSR.HasBits(1<<9) || stm32f1.EXTI.FTSR.HasBits(1<<9) {
		t.Errorf("Expected no trigger on line 9")
	}

	if err := ConfigureEdge(16, gpio.RisingEdge); err != ErrInvalidPin {
		t.Errorf("Expected ErrInvalidPin, got %v", err)
	}
}

func TestRoutePortReplacesField(t *testing.T) {
	resetSim(t)
	stm32f1.AFIO.EXTICR[1].Store(0x0000_2222) // lines 4-7 on port C

	if err := RoutePort(PortB, 6); err != nil {
		t.Fatalf("RoutePort failed: %v", err)
	}
	if got := stm32f1.AFIO.EXTICR[1].Load(); got != 0x0000_2122 {
		t.Errorf("Expected EXTICR2 0x2122, got 0x%08X", got)
	}
	if !ClockEnabled(ClockAFIO) {
		t.Errorf("Expected AFIO clock to be enabled")
	}
	if got := RoutedPort(6); got != PortB {
		t.Errorf("Expected line 6 routed to GPIOB, got %v", got)
	}
	if got := RoutedPort(5); got != PortC {
		t.Errorf("Expected line 5 still routed to GPIOC, got %v", got)
	}

	// Routing again is harmless
	if err := RoutePort(PortB, 6); err != nil {
		t.Fatalf("RoutePort failed: %v", err)
	}
	if got := stm32f1.AFIO.EXTICR[1].Load(); got != 0x0000_2122 {
		t.Errorf("Expected EXTICR2 unchanged, got 0x%08X", got)
	}
}

func TestClearPendingWritesOneBit(t *testing.T) {
	resetSim(t)
	stm32f1.EXTI.PR.Store(1<<5 | 1<<7)

	if !ClearPending(5) {
		t.Fatalf("Expected line 5 to be pending")
	}
	if w := writes("EXTI.PR"); len(w) != 1 || w[0] != 1<<5 {
		t.Errorf("Expected single PR write of bit 5, got %v", w)
	}
	if got := stm32f1.EXTI.PR.Load(); got != 1<<7 {
		t.Errorf("Expected line 7 still pending, got 0x%08X", got)
	}
	if ClearPending(5) {
		t.Errorf("Line 5 is no longer pending")
	}
}

func TestLineIRQ(t *testing.T) {
	testCases := []struct {
		pin uint8
		irq IRQ
	}{
		{0, IRQ_EXTI0},
		{4, IRQ_EXTI4},
		{5, IRQ_EXTI9_5},
		{9, IRQ_EXTI9_5},
		{10, IRQ_EXTI15_10},
		{15, IRQ_EXTI15_10},
	}
	for _, tc := range testCases {
		if got := LineIRQ(tc.pin); got != tc.irq {
			t.Errorf("LineIRQ(%d) = %d, expected %d", tc.pin, got, tc.irq)
		}
	}
}

func TestEnableLineIRQ(t *testing.T) {
	resetSim(t)
	EnableLineIRQ(12, 6)

	if !IRQEnabled(IRQ_EXTI15_10) {
		t.Errorf("Expected EXTI15_10 enabled")
	}
	if got := IRQPriority(IRQ_EXTI15_10); got != 6 {
		t.Errorf("Expected priority 6, got %d", got)
	}
}

func TestEnableLineIRQOutOfRange(t *testing.T) {
	resetSim(t)
	EnableLineIRQ(16, 6)
	EnableLineIRQ(200, 6)

	if w := writtenRegisters(); len(w) != 0 {
		t.Errorf("Expected no register writes, got %v", w)
	}
	if IRQEnabled(IRQ_EXTI15_10) {
		t.Errorf("Pins past line 15 must not enable EXTI15_10")
	}
}

func TestLineRouterBindInvalidEdgeKeepsBinding(t *testing.T) {
	resetSim(t)
	var r LineRouter

	if err := r.Bind(LineBinding{Port: PortA, Pin: 3, Edge: gpio.RisingEdge}); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	stm32f1.ClearAccessLog()

	if err := r.Bind(LineBinding{Port: PortA, Pin: 3, Edge: gpio.Edge(99)}); err != ErrInvalidConfig {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
	if log := writtenRegisters(); len(log) != 0 {
		t.Errorf("Rejected binding must not write registers, wrote %v", log)
	}
	if !stm32f1.EXTI.IMR.HasBits(1 << 3) {
		t.Errorf("Expected line 3 to stay armed")
	}
	if !stm32f1.EXTI.RTSR.HasBits(1<<3) || stm32f1.EXTI.FTSR.HasBits(1<<3) {
		t.Errorf("Expected the rising trigger to survive")
	}
	if b, ok := r.Binding(3); !ok || b.Edge != gpio.RisingEdge {
		t.Errorf("Expected the previous binding to stay, got %+v %v", b, ok)
	}

	if err := ConfigureEdge(3, gpio.Edge(99)); err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig from ConfigureEdge, got %v", err)
	}
}

func TestLineRouterBind(t *testing.T) {
	resetSim(t)
	var r LineRouter

	err := r.Bind(LineBinding{Port: PortA, Pin: 9, Edge: gpio.FallingEdge})
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if !stm32f1.EXTI.IMR.HasBits(1 << 9) {
		t.Errorf("Expected line 9 unmasked")
	}
	if !stm32f1.EXTI.FTSR.HasBits(1 << 9) {
		t.Errorf("Expected falling trigger on line 9")
	}
	if got := RoutedPort(9); got != PortA {
		t.Errorf("Expected line 9 routed to GPIOA, got %v", got)
	}

	// Same line, other port
	if err := r.Bind(LineBinding{Port: PortB, Pin: 9, Edge: gpio.RisingEdge}); err != ErrLineInUse {
		t.Errorf("Expected ErrLineInUse, got %v", err)
	}
	// Same port rebinds
	if err := r.Bind(LineBinding{Port: PortA, Pin: 9, Edge: gpio.RisingEdge}); err != nil {
		t.Errorf("Rebinding failed: %v", err)
	}
	if got := r.BoundPins(IRQ_EXTI9_5); len(got) != 1 || got[0] != 9 {
		t.Errorf("Expected pins [9], got %v", got)
	}

	r.Unbind(9)
	if stm32f1.EXTI.IMR.HasBits(1 << 9) {
		t.Errorf("Expected line 9 masked after Unbind")
	}
	if _, ok := r.Binding(9); ok {
		t.Errorf("Expected line 9 unbound")
	}
	if err := r.Bind(LineBinding{Port: PortB, Pin: 9, Edge: gpio.RisingEdge}); err != nil {
		t.Errorf("Bind after Unbind failed: %v", err)
	}
}

func TestHandleIRQSharedLine(t *testing.T) {
	resetSim(t)
	var r LineRouter
	var fired []uint8
	handler := func(pin uint8) { fired = append(fired, pin) }

	for _, pin := range []uint8{9, 5, 7} {
		if err := r.Bind(LineBinding{Port: PortB, Pin: pin, Edge: gpio.RisingEdge, Handler: handler}); err != nil {
			t.Fatalf("Bind(%d) failed: %v", pin, err)
		}
	}
	if got := r.BoundPins(IRQ_EXTI9_5); len(got) != 3 || got[0] != 5 || got[1] != 7 || got[2] != 9 {
		t.Errorf("Expected sorted pins [5 7 9], got %v", got)
	}

	// Lines 5 and 9 fire; line 6 is pending but not bound
	stm32f1.EXTI.PR.Store(1<<5 | 1<<6 | 1<<9)
	stm32f1.ClearAccessLog()

	if n := r.HandleIRQ(IRQ_EXTI9_5); n != 2 {
		t.Errorf("Expected 2 lines serviced, got %d", n)
	}
	if len(fired) != 2 || fired[0] != 5 || fired[1] != 9 {
		t.Errorf("Expected handlers for [5 9], got %v", fired)
	}
	if got := stm32f1.EXTI.PR.Load(); got != 1<<6 {
		t.Errorf("Expected unbound line 6 left pending, got 0x%08X", got)
	}
	if w := writes("EXTI.PR"); len(w) != 2 || w[0] != 1<<5 || w[1] != 1<<9 {
		t.Errorf("Expected single-bit PR writes [0x20 0x200], got %v", w)
	}

	kinds := drainKinds()
	if len(kinds) != 2 || kinds[0] != TraceEXTI || kinds[1] != TraceEXTI {
		t.Errorf("Expected two EXTI trace events, got %v", kinds)
	}

	if n := r.HandleIRQ(IRQ_SPI1); n != 0 {
		t.Errorf("Non EXTI interrupt must not be serviced, got %d", n)
	}
}

func TestHandlerClearsBeforeCallback(t *testing.T) {
	resetSim(t)
	var r LineRouter
	var pendingInHandler bool

	r.Bind(LineBinding{Port: PortC, Pin: 0, Edge: gpio.FallingEdge, Handler: func(pin uint8) {
		pendingInHandler = stm32f1.EXTI.PR.Load()&1 != 0
	}})
	stm32f1.EXTI.PR.Store(1)

	if !r.HandlePin(0) {
		t.Fatalf("Expected line 0 serviced")
	}
	if pendingInHandler {
		t.Errorf("Pending bit must be cleared before the handler runs")
	}
	if r.HandlePin(0) {
		t.Errorf("Line 0 is no longer pending")
	}
}
