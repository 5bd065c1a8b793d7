// I2C (Inter-Integrated Circuit) support
// Blocking master transfers with start, address, data and stop phases
package core

import (
	"log/slog"

	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"

	"github.com/dariash95/MCU1/device/stm32f1"
)

// Bus speeds
const (
	I2CSpeedStandard = 100 * physic.KiloHertz
	I2CSpeedFast     = 400 * physic.KiloHertz
)

// DefaultPeripheralClock is the APB1 clock after reset (HSI, no prescaling)
const DefaultPeripheralClock = 8 * physic.MegaHertz

// I2CDutyCycle is the fast mode SCL low/high ratio
type I2CDutyCycle uint8

const (
	Duty2    I2CDutyCycle = 0 // Tlow/Thigh = 2
	Duty16_9 I2CDutyCycle = 1 // Tlow/Thigh = 16/9
)

// I2CConfig holds the static configuration applied by Init
type I2CConfig struct {
	Speed        physic.Frequency // SCL frequency, up to 400 kHz
	OwnAddress   uint8            // 7-bit address used in slave mode
	ACK          bool             // acknowledge received bytes
	FastModeDuty I2CDutyCycle

	// PeripheralClock is the APB1 clock feeding the controller. Zero
	// means DefaultPeripheralClock.
	PeripheralClock physic.Frequency
}

// I2CHandle drives one I2C controller as a bus master
type I2CHandle struct {
	Bus    I2CBusID
	Config I2CConfig
	Wait   WaitPolicy
	Logger *slog.Logger
}

var _ drivers.I2C = (*I2CHandle)(nil)

// NewI2CHandle creates a handle for a controller. Init must be called
// before use.
func NewI2CHandle(bus I2CBusID, cfg I2CConfig) *I2CHandle {
	return &I2CHandle{Bus: bus, Config: cfg}
}

func (h *I2CHandle) regs() *stm32f1.I2C_Type {
	return h.Bus.info().regs
}

func (h *I2CHandle) pclk() uint32 {
	f := h.Config.PeripheralClock
	if f == 0 {
		f = DefaultPeripheralClock
	}
	return uint32(f / physic.Hertz)
}

// Init enables the controller clock and programs CR1, CR2, OAR1, CCR and
// TRISE. The controller is left disabled; call Enable to start it.
func (h *I2CHandle) Init() error {
	if !h.Bus.Valid() {
		return ErrInvalidConfig
	}
	cfg := h.Config
	speed := uint32(cfg.Speed / physic.Hertz)
	pclk := h.pclk()
	freq := pclk / 1000000
	if cfg.Speed < physic.Hertz || cfg.Speed > I2CSpeedFast || !inRange(freq, 2, 36) ||
		cfg.OwnAddress > stm32f1.I2C_OAR1_ADD_Msk || cfg.FastModeDuty > Duty16_9 {
		return ErrInvalidConfig
	}

	EnableClock(h.Bus.info().clock)
	regs := h.regs()

	// CCR and TRISE may only be written while PE is clear
	var cr1 uint32
	if cfg.ACK {
		cr1 |= stm32f1.I2C_CR1_ACK
	}
	regs.CR1.Set(cr1)
	regs.CR2.Set(freq & stm32f1.I2C_CR2_FREQ_Msk)
	regs.OAR1.Set(uint32(cfg.OwnAddress)<<stm32f1.I2C_OAR1_ADD_Pos | stm32f1.I2C_OAR1_BIT14)

	var ccr, trise uint32
	if cfg.Speed <= I2CSpeedStandard {
		ccr = pclk / (2 * speed)
		if ccr < 4 {
			ccr = 4
		}
		trise = freq + 1 // 1000 ns maximum rise time
	} else {
		ccr = stm32f1.I2C_CCR_FS
		var div uint32
		if cfg.FastModeDuty == Duty16_9 {
			ccr |= stm32f1.I2C_CCR_DUTY
			div = pclk / (25 * speed)
		} else {
			div = pclk / (3 * speed)
		}
		if div < 1 {
			div = 1
		}
		ccr |= div & stm32f1.I2C_CCR_CCR_Msk
		trise = freq*300/1000 + 1 // 300 ns maximum rise time
	}
	regs.CCR.Set(ccr)
	regs.TRISE.Set(trise & stm32f1.I2C_TRISE_Msk)

	h.debug("i2c:init",
		slog.String("bus", h.Bus.String()),
		slog.Uint64("ccr", uint64(ccr)),
		slog.Uint64("trise", uint64(trise)))
	return nil
}

// DeInit pulses the controller reset
func (h *I2CHandle) DeInit() {
	if h.Bus.Valid() {
		ResetPeripheral(h.Bus.info().clock)
	}
}

// Enable sets or clears PE
func (h *I2CHandle) Enable(on bool) {
	if on {
		h.regs().CR1.SetBits(stm32f1.I2C_CR1_PE)
	} else {
		h.regs().CR1.ClearBits(stm32f1.I2C_CR1_PE)
	}
}

// SetACK enables or disables acknowledging received bytes
func (h *I2CHandle) SetACK(on bool) {
	if on {
		h.regs().CR1.SetBits(stm32f1.I2C_CR1_ACK)
	} else {
		h.regs().CR1.ClearBits(stm32f1.I2C_CR1_ACK)
	}
}

// FlagStatus reports whether any of the given SR1 bits are set
func (h *I2CHandle) FlagStatus(flag uint32) bool {
	return h.regs().SR1.HasBits(flag)
}

func (h *I2CHandle) waitSR1(mask uint32, name string) error {
	err := h.Wait.flag(&h.regs().SR1, mask, name)
	if err != nil {
		h.timedOut(mask, err)
	}
	return err
}

func (h *I2CHandle) timedOut(mask uint32, err error) {
	traceRecord(TraceTimeout, uint8(h.Bus), mask)
	h.logerr("i2c:wait", err, slog.String("bus", h.Bus.String()))
}

func (h *I2CHandle) generateStart() error {
	h.regs().CR1.SetBits(stm32f1.I2C_CR1_START)
	return h.waitSR1(stm32f1.I2C_SR1_SB, "I2C SB")
}

func (h *I2CHandle) generateStop() {
	h.regs().CR1.SetBits(stm32f1.I2C_CR1_STOP)
}

// clearADDR reads SR1 then SR2, the sequence that clears ADDR
func (h *I2CHandle) clearADDR() {
	regs := h.regs()
	regs.SR1.Get()
	regs.SR2.Get()
}

// addressPhase sends the address byte and waits for the slave to
// acknowledge it. A missing acknowledge ends the transfer with a stop
// condition.
func (h *I2CHandle) addressPhase(addr uint8, read bool) error {
	regs := h.regs()
	b := uint32(addr) << 1
	if read {
		b |= 1
	} else {
		b &^= 1
	}
	regs.DR.Set(b)

	const mask = stm32f1.I2C_SR1_ADDR | stm32f1.I2C_SR1_AF |
		stm32f1.I2C_SR1_ARLO | stm32f1.I2C_SR1_BERR
	if err := h.Wait.flag(&regs.SR1, mask, "I2C ADDR"); err != nil {
		h.timedOut(stm32f1.I2C_SR1_ADDR, err)
		h.generateStop()
		return err
	}

	sr1 := regs.SR1.Get()
	switch {
	case sr1&stm32f1.I2C_SR1_ADDR != 0:
		return nil
	case sr1&stm32f1.I2C_SR1_AF != 0:
		h.generateStop()
		regs.SR1.ClearBits(stm32f1.I2C_SR1_AF)
		traceRecord(TraceI2CNack, uint8(h.Bus), uint32(addr))
		h.debug("i2c:nack", slog.String("bus", h.Bus.String()), slog.Int("addr", int(addr)))
		return ErrNACK
	case sr1&stm32f1.I2C_SR1_ARLO != 0:
		regs.SR1.ClearBits(stm32f1.I2C_SR1_ARLO)
		return ErrArbitrationLost
	default:
		regs.SR1.ClearBits(stm32f1.I2C_SR1_BERR)
		h.generateStop()
		return ErrBusError
	}
}

// MasterWrite sends data to the slave at addr. With stop false the bus is
// kept for a repeated start.
func (h *I2CHandle) MasterWrite(data []byte, addr uint8, stop bool) error {
	if addr > stm32f1.I2C_OAR1_ADD_Msk {
		return ErrInvalidConfig
	}
	regs := h.regs()

	if err := h.generateStart(); err != nil {
		return err
	}
	if err := h.addressPhase(addr, false); err != nil {
		return err
	}
	h.clearADDR()

	for _, b := range data {
		if err := h.waitSR1(stm32f1.I2C_SR1_TXE, "I2C TXE"); err != nil {
			h.generateStop()
			return err
		}
		regs.DR.Set(uint32(b))
	}

	// The last byte has left the shift register only once TXE and BTF are
	// both set
	const done = stm32f1.I2C_SR1_TXE | stm32f1.I2C_SR1_BTF
	if err := h.Wait.allFlags(&regs.SR1, done, "I2C TXE|BTF"); err != nil {
		h.timedOut(done, err)
		h.generateStop()
		return err
	}

	if stop {
		h.generateStop()
	}
	return nil
}

// MasterSend sends data to the slave at addr and releases the bus
func (h *I2CHandle) MasterSend(data []byte, addr uint8) error {
	return h.MasterWrite(data, addr, true)
}

// MasterRead fills buf from the slave at addr. The acknowledge is dropped
// so that exactly the last byte is answered with NACK; ACK is restored from
// Config afterwards. Two and more byte reads hold the tail of the transfer
// on BTF (both DR and the shift register full) so the NACK does not depend
// on how quickly the bytes are read.
func (h *I2CHandle) MasterRead(buf []byte, addr uint8, stop bool) error {
	if len(buf) == 0 {
		return ErrInvalidLength
	}
	if addr > stm32f1.I2C_OAR1_ADD_Msk {
		return ErrInvalidConfig
	}
	regs := h.regs()
	defer h.SetACK(h.Config.ACK)

	if err := h.generateStart(); err != nil {
		return err
	}
	if err := h.addressPhase(addr, true); err != nil {
		return err
	}

	n := len(buf)
	switch n {
	case 1:
		h.SetACK(false)
		h.clearADDR()
		if stop {
			h.generateStop()
		}
		if err := h.waitSR1(stm32f1.I2C_SR1_RXNE, "I2C RXNE"); err != nil {
			h.generateStop()
			return err
		}
		buf[0] = uint8(regs.DR.Get())
		return nil

	case 2:
		// POS moves the NACK to the byte after the one being received
		h.SetACK(false)
		regs.CR1.SetBits(stm32f1.I2C_CR1_POS)
		defer regs.CR1.ClearBits(stm32f1.I2C_CR1_POS)
		h.clearADDR()
		if err := h.waitSR1(stm32f1.I2C_SR1_BTF, "I2C BTF"); err != nil {
			h.generateStop()
			return err
		}
		if stop {
			h.generateStop()
		}
		buf[0] = uint8(regs.DR.Get())
		buf[1] = uint8(regs.DR.Get())
		return nil
	}

	h.clearADDR()
	for i := 0; i < n-3; i++ {
		if err := h.waitSR1(stm32f1.I2C_SR1_RXNE, "I2C RXNE"); err != nil {
			h.generateStop()
			return err
		}
		buf[i] = uint8(regs.DR.Get())
	}

	// Third to last byte in DR, second to last in the shift register
	if err := h.waitSR1(stm32f1.I2C_SR1_BTF, "I2C BTF"); err != nil {
		h.generateStop()
		return err
	}
	h.SetACK(false)
	buf[n-3] = uint8(regs.DR.Get())

	if err := h.waitSR1(stm32f1.I2C_SR1_BTF, "I2C BTF"); err != nil {
		h.generateStop()
		return err
	}
	if stop {
		h.generateStop()
	}
	buf[n-2] = uint8(regs.DR.Get())

	if err := h.waitSR1(stm32f1.I2C_SR1_RXNE, "I2C RXNE"); err != nil {
		h.generateStop()
		return err
	}
	buf[n-1] = uint8(regs.DR.Get())
	return nil
}

// MasterReceive fills buf from the slave at addr and releases the bus
func (h *I2CHandle) MasterReceive(buf []byte, addr uint8) error {
	return h.MasterRead(buf, addr, true)
}

// Tx implements drivers.I2C: w is written, then r is read after a
// repeated start. Either may be empty.
func (h *I2CHandle) Tx(addr uint16, w, r []byte) error {
	if addr > stm32f1.I2C_OAR1_ADD_Msk {
		return ErrInvalidConfig
	}
	if len(w) > 0 || len(r) == 0 {
		if err := h.MasterWrite(w, uint8(addr), len(r) == 0); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		return h.MasterRead(r, uint8(addr), true)
	}
	return nil
}

// ReadRegister reads len(buf) bytes starting at register r
func (h *I2CHandle) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return h.Tx(uint16(addr), []byte{r}, buf)
}

// WriteRegister writes buf starting at register r
func (h *I2CHandle) WriteRegister(addr uint8, r uint8, buf []byte) error {
	w := make([]byte, 0, len(buf)+1)
	w = append(w, r)
	w = append(w, buf...)
	return h.Tx(uint16(addr), w, nil)
}

func (h *I2CHandle) debug(msg string, attrs ...slog.Attr) {
	logattrs(h.Logger, slog.LevelDebug, msg, attrs...)
}

func (h *I2CHandle) logerr(msg string, err error, attrs ...slog.Attr) {
	logattrs(h.Logger, slog.LevelError, msg, append(attrs, slog.String("err", err.Error()))...)
}
