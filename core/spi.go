// SPI (Serial Peripheral Interface) support
// Blocking transfers plus an interrupt driven transfer engine that reports
// completion through a callback
package core

import (
	"log/slog"

	"periph.io/x/conn/v3/spi"
	"tinygo.org/x/drivers"

	"github.com/dariash95/MCU1/device/stm32f1"
)

// SPIRole selects master or slave operation
type SPIRole uint8

const (
	SPISlave SPIRole = iota
	SPIMaster
)

// SPIBusConfig selects the line configuration
type SPIBusConfig uint8

const (
	BusFullDuplex    SPIBusConfig = iota // MOSI and MISO
	BusHalfDuplex                        // single bidirectional data line
	BusSimplexRxOnly                     // receive only, clock still driven
)

// SPIPrescaler divides the bus clock to produce SCK (Div2 = f/2 ... Div256)
type SPIPrescaler uint8

const (
	Div2 SPIPrescaler = iota
	Div4
	Div8
	Div16
	Div32
	Div64
	Div128
	Div256
)

// SPIFrameWidth is the size of one data register transfer
type SPIFrameWidth uint8

const (
	Frame8Bit SPIFrameWidth = iota
	Frame16Bit
)

// SPIConfig holds the static configuration applied by Init.
//
// Mode carries clock polarity and phase in the periph.io encoding (Mode0 to
// Mode3); spi.LSBFirst sends the least significant bit first and
// spi.HalfDuplex is equivalent to BusHalfDuplex.
type SPIConfig struct {
	Role       SPIRole
	Bus        SPIBusConfig
	Prescaler  SPIPrescaler
	FrameWidth SPIFrameWidth
	Mode       spi.Mode

	SoftwareSlaveManagement bool // SSM: NSS driven by SSI instead of the pin
	InternalSlaveSelect     bool // SSI level when SoftwareSlaveManagement is set
	SSOutputEnable          bool // SSOE: drive NSS low while the master is enabled
	ErrorInterrupt          bool // ERRIE: raise the interrupt on overrun
}

// TransferState is the state of one transfer direction
type TransferState uint8

const (
	StateReady  TransferState = 0
	StateBusyRx TransferState = 1
	StateBusyTx TransferState = 2
)

func (s TransferState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateBusyRx:
		return "busy-rx"
	case StateBusyTx:
		return "busy-tx"
	default:
		return "unknown"
	}
}

// SPIEvent is delivered to the application callback
type SPIEvent uint8

const (
	EventTxComplete SPIEvent = 1
	EventRxComplete SPIEvent = 2
	EventOverrun    SPIEvent = 3
)

func (e SPIEvent) String() string {
	switch e {
	case EventTxComplete:
		return "tx-complete"
	case EventRxComplete:
		return "rx-complete"
	case EventOverrun:
		return "overrun"
	default:
		return "unknown"
	}
}

// SPIEventCallback is invoked from interrupt context. The handle has
// already returned to the ready state for the completed direction, so the
// callback may start the next transfer.
type SPIEventCallback func(h *SPIHandle, event SPIEvent)

// SPIHandle drives one SPI controller.
//
// The transfer state is shared between foreground code and the interrupt
// handler and is only touched inside the critical section.
type SPIHandle struct {
	Bus      SPIBusID
	Config   SPIConfig
	Callback SPIEventCallback
	Wait     WaitPolicy
	Logger   *slog.Logger

	// Remaining part of the buffer in flight; nil when idle
	txBuf   []byte
	rxBuf   []byte
	txState TransferState
	rxState TransferState
}

var _ drivers.SPI = (*SPIHandle)(nil)

// NewSPIHandle creates a handle for a controller. Init must be called
// before use.
func NewSPIHandle(bus SPIBusID, cfg SPIConfig, cb SPIEventCallback) *SPIHandle {
	return &SPIHandle{Bus: bus, Config: cfg, Callback: cb}
}

func (h *SPIHandle) regs() *stm32f1.SPI_Type {
	return h.Bus.info().regs
}

// Init enables the controller clock and programs CR1 and CR2 from Config.
// The controller is left disabled; call Enable to start it.
func (h *SPIHandle) Init() error {
	if !h.Bus.Valid() {
		return ErrInvalidConfig
	}
	cfg := h.Config
	if cfg.Prescaler > Div256 || cfg.FrameWidth > Frame16Bit || cfg.Bus > BusSimplexRxOnly {
		return ErrInvalidConfig
	}

	EnableClock(h.Bus.info().clock)

	var cr1 uint32
	if cfg.Role == SPIMaster {
		cr1 |= stm32f1.SPI_CR1_MSTR
	}
	switch {
	case cfg.Bus == BusHalfDuplex || cfg.Mode&spi.HalfDuplex != 0:
		cr1 |= stm32f1.SPI_CR1_BIDIMODE
	case cfg.Bus == BusSimplexRxOnly:
		cr1 |= stm32f1.SPI_CR1_RXONLY
	}
	cr1 |= uint32(cfg.Prescaler) << stm32f1.SPI_CR1_BR_Pos
	if cfg.FrameWidth == Frame16Bit {
		cr1 |= stm32f1.SPI_CR1_DFF
	}
	if cfg.Mode&spi.Mode1 != 0 {
		cr1 |= stm32f1.SPI_CR1_CPHA
	}
	if cfg.Mode&spi.Mode2 != 0 {
		cr1 |= stm32f1.SPI_CR1_CPOL
	}
	if cfg.Mode&spi.LSBFirst != 0 {
		cr1 |= stm32f1.SPI_CR1_LSBFIRST
	}
	if cfg.SoftwareSlaveManagement {
		cr1 |= stm32f1.SPI_CR1_SSM
		if cfg.InternalSlaveSelect {
			cr1 |= stm32f1.SPI_CR1_SSI
		}
	}

	var cr2 uint32
	if cfg.SSOutputEnable {
		cr2 |= stm32f1.SPI_CR2_SSOE
	}
	if cfg.ErrorInterrupt {
		cr2 |= stm32f1.SPI_CR2_ERRIE
	}

	regs := h.regs()
	regs.CR1.Set(cr1)
	regs.CR2.Set(cr2)

	s := disableInterrupts()
	h.closeTx()
	h.closeRx()
	restoreInterrupts(s)

	h.debug("spi:init",
		slog.String("bus", h.Bus.String()),
		slog.Uint64("cr1", uint64(cr1)),
		slog.Uint64("cr2", uint64(cr2)))
	return nil
}

// DeInit pulses the controller reset and drops any transfer in flight
func (h *SPIHandle) DeInit() {
	if !h.Bus.Valid() {
		return
	}
	ResetPeripheral(h.Bus.info().clock)

	s := disableInterrupts()
	h.txBuf, h.rxBuf = nil, nil
	h.txState, h.rxState = StateReady, StateReady
	restoreInterrupts(s)
}

// Enable sets or clears SPE
func (h *SPIHandle) Enable(on bool) {
	if on {
		h.regs().CR1.SetBits(stm32f1.SPI_CR1_SPE)
	} else {
		h.regs().CR1.ClearBits(stm32f1.SPI_CR1_SPE)
	}
}

// SetSSI drives the internal slave select level used with SSM
func (h *SPIHandle) SetSSI(high bool) {
	if high {
		h.regs().CR1.SetBits(stm32f1.SPI_CR1_SSI)
	} else {
		h.regs().CR1.ClearBits(stm32f1.SPI_CR1_SSI)
	}
}

// SetSSOE enables the NSS output in master mode
func (h *SPIHandle) SetSSOE(on bool) {
	if on {
		h.regs().CR2.SetBits(stm32f1.SPI_CR2_SSOE)
	} else {
		h.regs().CR2.ClearBits(stm32f1.SPI_CR2_SSOE)
	}
}

// FlagStatus reports whether any of the given SR bits are set
func (h *SPIHandle) FlagStatus(flag uint32) bool {
	return h.regs().SR.HasBits(flag)
}

// Busy reports whether the controller is still shifting a frame
func (h *SPIHandle) Busy() bool {
	return h.FlagStatus(stm32f1.SPI_SR_BSY)
}

// frameSize returns the bytes moved per data register access, from DFF
func (h *SPIHandle) frameSize() int {
	if h.regs().CR1.HasBits(stm32f1.SPI_CR1_DFF) {
		return 2
	}
	return 1
}

func (h *SPIHandle) checkLength(n, frame int) error {
	if n%frame != 0 {
		return ErrFrameAlignment
	}
	return nil
}

// writeFrame moves one frame from buf into DR. 16 bit frames are little
// endian.
func writeFrame(dr *stm32f1.Register, buf []byte, frame int) {
	if frame == 2 {
		dr.Set(uint32(buf[0]) | uint32(buf[1])<<8)
	} else {
		dr.Set(uint32(buf[0]))
	}
}

func readFrame(dr *stm32f1.Register, buf []byte, frame int) {
	v := dr.Get()
	buf[0] = uint8(v)
	if frame == 2 {
		buf[1] = uint8(v >> 8)
	}
}

// waitFlag blocks on an SR flag under the handle's wait policy
func (h *SPIHandle) waitFlag(mask uint32, name string) error {
	err := h.Wait.flag(&h.regs().SR, mask, name)
	if err != nil {
		traceRecord(TraceTimeout, uint8(h.Bus), mask)
		h.logerr("spi:wait", err, slog.String("bus", h.Bus.String()))
	}
	return err
}

// Send transmits buf, waiting for TXE before every frame. Received frames
// are not read. By default the wait never gives up; set Wait.Timeout to
// bound it.
func (h *SPIHandle) Send(buf []byte) error {
	frame := h.frameSize()
	if err := h.checkLength(len(buf), frame); err != nil {
		return err
	}
	dr := &h.regs().DR
	for len(buf) > 0 {
		if err := h.waitFlag(stm32f1.SPI_SR_TXE, "SPI TXE"); err != nil {
			return err
		}
		writeFrame(dr, buf, frame)
		buf = buf[frame:]
	}
	return nil
}

// Receive fills buf, waiting for RXNE before every frame. The clock must
// be produced elsewhere (slave, receive only master, or a concurrent Send).
func (h *SPIHandle) Receive(buf []byte) error {
	frame := h.frameSize()
	if err := h.checkLength(len(buf), frame); err != nil {
		return err
	}
	dr := &h.regs().DR
	for len(buf) > 0 {
		if err := h.waitFlag(stm32f1.SPI_SR_RXNE, "SPI RXNE"); err != nil {
			return err
		}
		readFrame(dr, buf, frame)
		buf = buf[frame:]
	}
	return nil
}

// Exchange clocks out tx while capturing rx, one frame at a time. Either
// may be nil: a nil tx sends zeros and a nil rx discards what arrives.
// When both are given they must have the same length.
func (h *SPIHandle) Exchange(tx, rx []byte) error {
	n := len(tx)
	switch {
	case tx == nil:
		n = len(rx)
	case rx != nil && len(rx) != len(tx):
		return ErrInvalidLength
	}
	frame := h.frameSize()
	if err := h.checkLength(n, frame); err != nil {
		return err
	}

	var zero [2]byte
	var sink [2]byte
	dr := &h.regs().DR
	for i := 0; i < n; i += frame {
		out := zero[:]
		if tx != nil {
			out = tx[i:]
		}
		in := sink[:]
		if rx != nil {
			in = rx[i:]
		}
		if err := h.waitFlag(stm32f1.SPI_SR_TXE, "SPI TXE"); err != nil {
			return err
		}
		writeFrame(dr, out, frame)
		if err := h.waitFlag(stm32f1.SPI_SR_RXNE, "SPI RXNE"); err != nil {
			return err
		}
		readFrame(dr, in, frame)
	}
	return nil
}

// Tx implements drivers.SPI
func (h *SPIHandle) Tx(w, r []byte) error {
	return h.Exchange(w, r)
}

// Transfer implements drivers.SPI. It exchanges a single 8 bit frame.
func (h *SPIHandle) Transfer(b byte) (byte, error) {
	var rx [1]byte
	if err := h.Exchange([]byte{b}, rx[:]); err != nil {
		return 0, err
	}
	return rx[0], nil
}

// SendIT starts an interrupt driven transmit of buf. If a transmit is
// already in flight the request is rejected by returning the busy state
// and nothing is changed. Otherwise buf is recorded, the direction marked
// busy and TXEIE set; the prior (ready) state is returned. buf must not be
// modified until EventTxComplete.
func (h *SPIHandle) SendIT(buf []byte) (TransferState, error) {
	s := disableInterrupts()
	if h.txState == StateBusyTx {
		restoreInterrupts(s)
		return StateBusyTx, nil
	}
	restoreInterrupts(s)

	if len(buf) == 0 {
		return StateReady, ErrInvalidLength
	}
	if err := h.checkLength(len(buf), h.frameSize()); err != nil {
		return StateReady, err
	}

	s = disableInterrupts()
	prior := h.txState
	if prior == StateReady {
		h.txBuf = buf
		h.txState = StateBusyTx
		h.regs().CR2.SetBits(stm32f1.SPI_CR2_TXEIE)
	}
	restoreInterrupts(s)
	return prior, nil
}

// ReceiveIT starts an interrupt driven receive into buf, with the same
// rejection rules as SendIT.
func (h *SPIHandle) ReceiveIT(buf []byte) (TransferState, error) {
	s := disableInterrupts()
	if h.rxState == StateBusyRx {
		restoreInterrupts(s)
		return StateBusyRx, nil
	}
	restoreInterrupts(s)

	if len(buf) == 0 {
		return StateReady, ErrInvalidLength
	}
	if err := h.checkLength(len(buf), h.frameSize()); err != nil {
		return StateReady, err
	}

	s = disableInterrupts()
	prior := h.rxState
	if prior == StateReady {
		h.rxBuf = buf
		h.rxState = StateBusyRx
		h.regs().CR2.SetBits(stm32f1.SPI_CR2_RXNEIE)
	}
	restoreInterrupts(s)
	return prior, nil
}

// IRQHandler services the controller interrupt. Transmit, receive and
// overrun causes are checked in that order and every active one is
// handled in the same call.
func (h *SPIHandle) IRQHandler() {
	regs := h.regs()

	if regs.SR.HasBits(stm32f1.SPI_SR_TXE) && regs.CR2.HasBits(stm32f1.SPI_CR2_TXEIE) {
		h.serviceTx()
	}
	if regs.SR.HasBits(stm32f1.SPI_SR_RXNE) && regs.CR2.HasBits(stm32f1.SPI_CR2_RXNEIE) {
		h.serviceRx()
	}
	if regs.SR.HasBits(stm32f1.SPI_SR_OVR) && regs.CR2.HasBits(stm32f1.SPI_CR2_ERRIE) {
		h.serviceOverrun()
	}
}

func (h *SPIHandle) serviceTx() {
	frame := h.frameSize()

	s := disableInterrupts()
	if h.txState != StateBusyTx || len(h.txBuf) < frame {
		// Nothing to send: stop the interrupt from re-firing
		h.closeTx()
		restoreInterrupts(s)
		return
	}
	writeFrame(&h.regs().DR, h.txBuf, frame)
	h.txBuf = h.txBuf[frame:]
	done := len(h.txBuf) == 0
	if done {
		h.closeTx()
	}
	restoreInterrupts(s)

	if done {
		traceRecord(TraceSPITxComplete, uint8(h.Bus), 0)
		h.event(EventTxComplete)
	}
}

func (h *SPIHandle) serviceRx() {
	frame := h.frameSize()

	s := disableInterrupts()
	if h.rxState != StateBusyRx || len(h.rxBuf) < frame {
		h.closeRx()
		restoreInterrupts(s)
		return
	}
	readFrame(&h.regs().DR, h.rxBuf, frame)
	h.rxBuf = h.rxBuf[frame:]
	done := len(h.rxBuf) == 0
	if done {
		h.closeRx()
	}
	restoreInterrupts(s)

	if done {
		traceRecord(TraceSPIRxComplete, uint8(h.Bus), 0)
		h.event(EventRxComplete)
	}
}

func (h *SPIHandle) serviceOverrun() {
	s := disableInterrupts()
	cleared := h.txState != StateBusyTx
	if cleared {
		h.clearOverrun()
	}
	restoreInterrupts(s)

	v := uint32(0)
	if cleared {
		v = 1
	}
	traceRecord(TraceSPIOverrun, uint8(h.Bus), v)
	h.event(EventOverrun)
}

func (h *SPIHandle) event(e SPIEvent) {
	if h.Callback != nil {
		h.Callback(h, e)
	}
}

// closeTx and closeRx expect the critical section to be held
func (h *SPIHandle) closeTx() {
	h.regs().CR2.ClearBits(stm32f1.SPI_CR2_TXEIE)
	h.txBuf = nil
	h.txState = StateReady
}

func (h *SPIHandle) closeRx() {
	h.regs().CR2.ClearBits(stm32f1.SPI_CR2_RXNEIE)
	h.rxBuf = nil
	h.rxState = StateReady
}

// clearOverrun reads DR then SR, the sequence that clears OVR
func (h *SPIHandle) clearOverrun() {
	regs := h.regs()
	regs.DR.Get()
	regs.SR.Get()
}

// CloseTransmission abandons an interrupt driven transmit
func (h *SPIHandle) CloseTransmission() {
	s := disableInterrupts()
	h.closeTx()
	restoreInterrupts(s)
}

// CloseReception abandons an interrupt driven receive
func (h *SPIHandle) CloseReception() {
	s := disableInterrupts()
	h.closeRx()
	restoreInterrupts(s)
}

// ClearOverrun clears a pending OVR flag
func (h *SPIHandle) ClearOverrun() {
	s := disableInterrupts()
	h.clearOverrun()
	restoreInterrupts(s)
}

// TxState returns the transmit direction state
func (h *SPIHandle) TxState() TransferState {
	s := disableInterrupts()
	defer restoreInterrupts(s)
	return h.txState
}

// RxState returns the receive direction state
func (h *SPIHandle) RxState() TransferState {
	s := disableInterrupts()
	defer restoreInterrupts(s)
	return h.rxState
}

// TxRemaining returns the bytes still to be sent
func (h *SPIHandle) TxRemaining() int {
	s := disableInterrupts()
	defer restoreInterrupts(s)
	return len(h.txBuf)
}

// RxRemaining returns the bytes still to be received
func (h *SPIHandle) RxRemaining() int {
	s := disableInterrupts()
	defer restoreInterrupts(s)
	return len(h.rxBuf)
}

func (h *SPIHandle) debug(msg string, attrs ...slog.Attr) {
	logattrs(h.Logger, slog.LevelDebug, msg, attrs...)
}

func (h *SPIHandle) logerr(msg string, err error, attrs ...slog.Attr) {
	logattrs(h.Logger, slog.LevelError, msg, append(attrs, slog.String("err", err.Error()))...)
}
