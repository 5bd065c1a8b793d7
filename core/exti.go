// External interrupt (EXTI) support
// Routes GPIO pins onto the 16 EXTI lines through AFIO and dispatches the
// line interrupts to per-pin handlers
package core

import (
	"log/slog"

	"golang.org/x/exp/slices"
	"periph.io/x/conn/v3/gpio"

	"github.com/dariash95/MCU1/device/stm32f1"
)

// ConfigureEdge selects which edges of a line raise a pending request.
// The requested edges are enabled and the others explicitly disabled, so
// nothing is left over from an earlier configuration. gpio.NoEdge disables
// both.
func ConfigureEdge(pin uint8, edge gpio.Edge) error {
	if pin >= stm32f1.EXTI_LINES {
		return ErrInvalidPin
	}
	if !validEdge(edge) {
		return ErrInvalidConfig
	}
	mask := bit(pin)
	exti := stm32f1.EXTI

	switch edge {
	case gpio.RisingEdge:
		exti.FTSR.ClearBits(mask)
		exti.RTSR.SetBits(mask)
	case gpio.FallingEdge:
		exti.RTSR.ClearBits(mask)
		exti.FTSR.SetBits(mask)
	case gpio.BothEdges:
		exti.RTSR.SetBits(mask)
		exti.FTSR.SetBits(mask)
	case gpio.NoEdge:
		exti.RTSR.ClearBits(mask)
		exti.FTSR.ClearBits(mask)
	}
	return nil
}

func validEdge(edge gpio.Edge) bool {
	switch edge {
	case gpio.NoEdge, gpio.RisingEdge, gpio.FallingEdge, gpio.BothEdges:
		return true
	}
	return false
}

// RoutePort connects a line to the pin of the given port. Line n can
// observe pin n of exactly one port at a time; EXTICR[n/4] holds a 4-bit
// port code per line. The AFIO clock is enabled first.
func RoutePort(port Port, pin uint8) error {
	if !port.Valid() {
		return ErrInvalidPort
	}
	if pin >= stm32f1.EXTI_LINES {
		return ErrInvalidPin
	}
	EnableClock(ClockAFIO)

	slot := pin / stm32f1.AFIO_EXTICR_PerReg
	shift := (pin % stm32f1.AFIO_EXTICR_PerReg) * stm32f1.AFIO_EXTICR_Width
	stm32f1.AFIO.EXTICR[slot].ReplaceBits(uint32(port), stm32f1.AFIO_EXTICR_Msk, shift)
	return nil
}

// RoutedPort returns the port a line currently observes.
func RoutedPort(pin uint8) Port {
	if pin >= stm32f1.EXTI_LINES {
		return 0
	}
	slot := pin / stm32f1.AFIO_EXTICR_PerReg
	shift := (pin % stm32f1.AFIO_EXTICR_PerReg) * stm32f1.AFIO_EXTICR_Width
	return Port(stm32f1.AFIO.EXTICR[slot].Get() >> shift & stm32f1.AFIO_EXTICR_Msk)
}

// ArmLine unmasks the line so a detected edge raises an interrupt request
// rather than only setting the pending bit.
func ArmLine(pin uint8) {
	if pin < stm32f1.EXTI_LINES {
		stm32f1.EXTI.IMR.SetBits(bit(pin))
	}
}

// DisarmLine masks the line.
func DisarmLine(pin uint8) {
	if pin < stm32f1.EXTI_LINES {
		stm32f1.EXTI.IMR.ClearBits(bit(pin))
	}
}

// ClearPending acknowledges a pending line. PR is write-one-to-clear, so
// only this line's bit is written; a read-modify-write would acknowledge
// every other pending line as well. Reports whether the line was pending.
func ClearPending(pin uint8) bool {
	if pin >= stm32f1.EXTI_LINES {
		return false
	}
	mask := bit(pin)
	if !stm32f1.EXTI.PR.HasBits(mask) {
		return false
	}
	stm32f1.EXTI.PR.Set(mask)
	return true
}

// LineIRQ returns the NVIC interrupt serving an EXTI line. Lines 5-9 and
// 10-15 share one interrupt each.
func LineIRQ(pin uint8) IRQ {
	switch {
	case pin <= 4:
		return IRQ_EXTI0 + IRQ(pin)
	case pin <= 9:
		return IRQ_EXTI9_5
	default:
		return IRQ_EXTI15_10
	}
}

// linesOf returns the range of lines sharing an interrupt.
func linesOf(irq IRQ) (first, last uint8, ok bool) {
	switch {
	case irq >= IRQ_EXTI0 && irq <= IRQ_EXTI4:
		n := uint8(irq - IRQ_EXTI0)
		return n, n, true
	case irq == IRQ_EXTI9_5:
		return 5, 9, true
	case irq == IRQ_EXTI15_10:
		return 10, 15, true
	}
	return 0, 0, false
}

// EnableLineIRQ sets the priority of the interrupt serving a line and
// unmasks it in the NVIC. Pins past the last line are ignored.
func EnableLineIRQ(pin uint8, priority uint8) {
	if pin >= stm32f1.EXTI_LINES {
		return
	}
	irq := LineIRQ(pin)
	SetIRQPriority(irq, priority)
	EnableIRQ(irq)
}

// LineHandler is called with the line number after its pending bit has been
// cleared. It runs in interrupt context.
type LineHandler func(pin uint8)

// LineBinding ties a GPIO pin to its EXTI line. Bindings are made once at
// setup time and not reconfigured while interrupts are live.
type LineBinding struct {
	Port    Port
	Pin     uint8
	Edge    gpio.Edge
	Handler LineHandler
}

// LineRouter keeps the bindings of all 16 lines and dispatches the EXTI
// interrupts to them.
type LineRouter struct {
	Logger *slog.Logger

	bindings [stm32f1.EXTI_LINES]LineBinding
	bound    [stm32f1.EXTI_LINES]bool
	// pins bound per shared interrupt, sorted
	byIRQ map[IRQ][]uint8
}

// Lines is the router the interrupt entry points dispatch through.
var Lines LineRouter

// Bind routes the pin to its line, selects the edge, records the handler
// and unmasks the line. The NVIC side is left to EnableLineIRQ so the
// caller controls priorities. Rebinding the same port and pin replaces the
// previous binding; a line held by another port is refused.
func (r *LineRouter) Bind(b LineBinding) error {
	if !b.Port.Valid() {
		return ErrInvalidPort
	}
	if b.Pin >= stm32f1.EXTI_LINES {
		return ErrInvalidPin
	}
	// Nothing is touched unless the whole binding can be applied
	if !validEdge(b.Edge) {
		return ErrInvalidConfig
	}

	s := disableInterrupts()
	if r.bound[b.Pin] && r.bindings[b.Pin].Port != b.Port {
		restoreInterrupts(s)
		return ErrLineInUse
	}
	restoreInterrupts(s)

	DisarmLine(b.Pin)
	if err := RoutePort(b.Port, b.Pin); err != nil {
		return err
	}
	if err := ConfigureEdge(b.Pin, b.Edge); err != nil {
		return err
	}

	s = disableInterrupts()
	if r.byIRQ == nil {
		r.byIRQ = make(map[IRQ][]uint8)
	}
	irq := LineIRQ(b.Pin)
	pins := r.byIRQ[irq]
	if i, found := slices.BinarySearch(pins, b.Pin); !found {
		r.byIRQ[irq] = slices.Insert(pins, i, b.Pin)
	}
	r.bindings[b.Pin] = b
	r.bound[b.Pin] = true
	restoreInterrupts(s)

	ArmLine(b.Pin)
	r.debug("exti:bind",
		slog.String("port", b.Port.String()),
		slog.Int("pin", int(b.Pin)),
		slog.String("edge", b.Edge.String()),
		slog.Int("irq", int(irq)))
	return nil
}

// Unbind masks the line and forgets its handler.
func (r *LineRouter) Unbind(pin uint8) {
	if pin >= stm32f1.EXTI_LINES {
		return
	}
	DisarmLine(pin)

	s := disableInterrupts()
	if r.bound[pin] {
		irq := LineIRQ(pin)
		pins := r.byIRQ[irq]
		if i, found := slices.BinarySearch(pins, pin); found {
			r.byIRQ[irq] = slices.Delete(pins, i, i+1)
		}
		r.bindings[pin] = LineBinding{}
		r.bound[pin] = false
	}
	restoreInterrupts(s)
}

// Binding returns the binding of a line.
func (r *LineRouter) Binding(pin uint8) (LineBinding, bool) {
	if pin >= stm32f1.EXTI_LINES {
		return LineBinding{}, false
	}
	s := disableInterrupts()
	defer restoreInterrupts(s)
	return r.bindings[pin], r.bound[pin]
}

// BoundPins returns the bound pins served by an interrupt, in line order.
func (r *LineRouter) BoundPins(irq IRQ) []uint8 {
	s := disableInterrupts()
	defer restoreInterrupts(s)
	return slices.Clone(r.byIRQ[irq])
}

// HandleIRQ services an EXTI interrupt. Every pin bound to the interrupt
// is checked, since a shared line cannot tell which of its pins fired;
// each pending one is cleared and its handler called. Returns the number
// of lines serviced.
func (r *LineRouter) HandleIRQ(irq IRQ) int {
	first, last, ok := linesOf(irq)
	if !ok {
		return 0
	}

	var handlers [stm32f1.EXTI_LINES]LineHandler
	var bound [stm32f1.EXTI_LINES]bool
	s := disableInterrupts()
	for pin := first; pin <= last; pin++ {
		handlers[pin] = r.bindings[pin].Handler
		bound[pin] = r.bound[pin]
	}
	restoreInterrupts(s)

	n := 0
	for pin := first; pin <= last; pin++ {
		if !bound[pin] || !ClearPending(pin) {
			continue
		}
		n++
		traceRecord(TraceEXTI, pin, uint32(irq))
		if h := handlers[pin]; h != nil {
			h(pin)
		}
	}
	return n
}

// HandlePin services a single line: if it is pending the bit is cleared
// and the bound handler, if any, is called.
func (r *LineRouter) HandlePin(pin uint8) bool {
	if !ClearPending(pin) {
		return false
	}
	s := disableInterrupts()
	h := r.bindings[pin].Handler
	restoreInterrupts(s)

	traceRecord(TraceEXTI, pin, uint32(LineIRQ(pin)))
	if h != nil {
		h(pin)
	}
	return true
}

func (r *LineRouter) debug(msg string, attrs ...slog.Attr) {
	logattrs(r.Logger, slog.LevelDebug, msg, attrs...)
}
