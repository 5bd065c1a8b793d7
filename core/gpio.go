// GPIO (General Purpose Input/Output) support
// Pin configuration and digital read/write for the STM32F1 port blocks
package core

import (
	"periph.io/x/conn/v3/gpio"

	"github.com/dariash95/MCU1/device/stm32f1"
)

// Port identifies a GPIO port block. The numeric value is also the port
// code used by the AFIO external interrupt routing.
type Port uint8

const (
	PortA Port = iota
	PortB
	PortC
	PortD
	PortE
	PortF
	PortG
)

// PinsPerPort is the number of pins in each port block
const PinsPerPort = 16

var gpioPorts = [...]*stm32f1.GPIO_Type{
	stm32f1.GPIOA,
	stm32f1.GPIOB,
	stm32f1.GPIOC,
	stm32f1.GPIOD,
	stm32f1.GPIOE,
	stm32f1.GPIOF,
	stm32f1.GPIOG,
}

// PinMode is the MODE field of a pin: input, or output with a maximum
// output speed.
type PinMode uint8

const (
	ModeInput       PinMode = 0
	ModeOutput10MHz PinMode = 1
	ModeOutput2MHz  PinMode = 2
	ModeOutput50MHz PinMode = 3
)

// PinCNF is the CNF field of a pin. Its meaning depends on the mode.
type PinCNF uint8

// Input configurations (ModeInput)
const (
	InputAnalog   PinCNF = 0
	InputFloating PinCNF = 1
	InputPull     PinCNF = 2 // pull direction set by PinConfig.Pull
)

// Output configurations (any output mode)
const (
	OutputPushPull  PinCNF = 0
	OutputOpenDrain PinCNF = 1
	AltPushPull     PinCNF = 2
	AltOpenDrain    PinCNF = 3
)

// PinConfig describes how one pin of a port is set up. It is applied once
// by Port.Configure and not retained.
type PinConfig struct {
	Pin    uint8
	Mode   PinMode
	Config PinCNF
	// Pull selects the resistor for InputPull. gpio.PullUp selects the
	// pull-up; anything else the pull-down.
	Pull gpio.Pull
}

// Valid reports whether the port exists on this family
func (p Port) Valid() bool {
	return int(p) < len(gpioPorts)
}

func (p Port) regs() *stm32f1.GPIO_Type {
	return gpioPorts[p]
}

// Clock returns the clock gate of the port
func (p Port) Clock() Peripheral {
	return ClockGPIOA + Peripheral(p)
}

// String returns the port name, e.g. "GPIOC"
func (p Port) String() string {
	if !p.Valid() {
		return "GPIO?"
	}
	return "GPIO" + string(rune('A'+p))
}

// EnableClock turns on the port clock
func (p Port) EnableClock() {
	if p.Valid() {
		EnableClock(p.Clock())
	}
}

// Configure applies a pin configuration. The port clock is enabled first.
// The whole 4-bit MODE/CNF field of the pin is replaced, so nothing of a
// previous configuration survives.
func (p Port) Configure(cfg PinConfig) error {
	if !p.Valid() {
		return ErrInvalidPort
	}
	if cfg.Pin >= PinsPerPort {
		return ErrInvalidPin
	}
	if cfg.Mode > ModeOutput50MHz || cfg.Config > AltOpenDrain {
		return ErrInvalidConfig
	}
	// CNF=3 is reserved for inputs
	if cfg.Mode == ModeInput && cfg.Config > InputPull {
		return ErrInvalidConfig
	}

	p.EnableClock()
	regs := p.regs()

	field := uint32(cfg.Mode) | uint32(cfg.Config)<<stm32f1.GPIO_CR_CNF_Pos
	if cfg.Pin < 8 {
		regs.CRL.ReplaceBits(field, stm32f1.GPIO_CR_PIN_Msk, cfg.Pin*4)
	} else {
		regs.CRH.ReplaceBits(field, stm32f1.GPIO_CR_PIN_Msk, (cfg.Pin-8)*4)
	}

	if cfg.Mode == ModeInput && cfg.Config == InputPull {
		if cfg.Pull == gpio.PullUp {
			regs.BSRR.Set(bit(cfg.Pin))
		} else {
			regs.BRR.Set(bit(cfg.Pin))
		}
	}
	return nil
}

// PinConfigOf reads back the MODE/CNF field of a pin.
func (p Port) PinConfigOf(pin uint8) (PinMode, PinCNF) {
	if !p.Valid() || pin >= PinsPerPort {
		return 0, 0
	}
	var field uint32
	if pin < 8 {
		field = p.regs().CRL.Get() >> (pin * 4)
	} else {
		field = p.regs().CRH.Get() >> ((pin - 8) * 4)
	}
	return PinMode(field & stm32f1.GPIO_CR_MODE_Msk),
		PinCNF(field >> stm32f1.GPIO_CR_CNF_Pos & stm32f1.GPIO_CR_CNF_Msk)
}

// Get reads the input level of a pin
func (p Port) Get(pin uint8) bool {
	if !p.Valid() || pin >= PinsPerPort {
		return false
	}
	return p.regs().IDR.HasBits(bit(pin))
}

// ReadPort returns a snapshot of all 16 input levels of the port
func (p Port) ReadPort() uint16 {
	if !p.Valid() {
		return 0
	}
	return uint16(p.regs().IDR.Get())
}

// Set drives an output pin high or low. BSRR makes the update atomic with
// respect to the other pins of the port.
func (p Port) Set(pin uint8, high bool) {
	if !p.Valid() || pin >= PinsPerPort {
		return
	}
	if high {
		p.regs().BSRR.Set(bit(pin))
	} else {
		p.regs().BSRR.Set(bit(pin + stm32f1.GPIO_BRR_Pos))
	}
}

// WritePort writes all 16 output levels of the port at once
func (p Port) WritePort(value uint16) {
	if !p.Valid() {
		return
	}
	p.regs().ODR.Set(uint32(value))
}

// Toggle inverts the output level of a pin
func (p Port) Toggle(pin uint8) {
	if !p.Valid() || pin >= PinsPerPort {
		return
	}
	p.Set(pin, !p.regs().ODR.HasBits(bit(pin)))
}

// Reset returns every register of the port to its reset value
func (p Port) Reset() {
	if p.Valid() {
		ResetPeripheral(p.Clock())
	}
}
