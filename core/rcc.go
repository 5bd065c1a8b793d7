package core

import "github.com/dariash95/MCU1/device/stm32f1"

// Peripheral identifies a clock gated block on the APB buses.
type Peripheral uint8

const (
	ClockGPIOA Peripheral = iota
	ClockGPIOB
	ClockGPIOC
	ClockGPIOD
	ClockGPIOE
	ClockGPIOF
	ClockGPIOG
	ClockAFIO
	ClockSPI1
	ClockSPI2
	ClockSPI3
	ClockI2C1
	ClockI2C2
	ClockUSART1
	ClockUSART2
)

type clockGate struct {
	apb2 bool
	mask uint32
}

// The enable and reset registers share bit positions on each bus.
var clockGates = [...]clockGate{
	ClockGPIOA:  {true, stm32f1.RCC_APB2ENR_IOPAEN},
	ClockGPIOB:  {true, stm32f1.RCC_APB2ENR_IOPBEN},
	ClockGPIOC:  {true, stm32f1.RCC_APB2ENR_IOPCEN},
	ClockGPIOD:  {true, stm32f1.RCC_APB2ENR_IOPDEN},
	ClockGPIOE:  {true, stm32f1.RCC_APB2ENR_IOPEEN},
	ClockGPIOF:  {true, stm32f1.RCC_APB2ENR_IOPFEN},
	ClockGPIOG:  {true, stm32f1.RCC_APB2ENR_IOPGEN},
	ClockAFIO:   {true, stm32f1.RCC_APB2ENR_AFIOEN},
	ClockSPI1:   {true, stm32f1.RCC_APB2ENR_SPI1EN},
	ClockSPI2:   {false, stm32f1.RCC_APB1ENR_SPI2EN},
	ClockSPI3:   {false, stm32f1.RCC_APB1ENR_SPI3EN},
	ClockI2C1:   {false, stm32f1.RCC_APB1ENR_I2C1EN},
	ClockI2C2:   {false, stm32f1.RCC_APB1ENR_I2C2EN},
	ClockUSART1: {true, stm32f1.RCC_APB2ENR_USART1EN},
	ClockUSART2: {false, stm32f1.RCC_APB1ENR_USART2EN},
}

func (p Peripheral) gate() (clockGate, bool) {
	if int(p) >= len(clockGates) {
		return clockGate{}, false
	}
	return clockGates[p], true
}

func (g clockGate) enable() *stm32f1.Register {
	if g.apb2 {
		return &stm32f1.RCC.APB2ENR
	}
	return &stm32f1.RCC.APB1ENR
}

func (g clockGate) reset() *stm32f1.Register {
	if g.apb2 {
		return &stm32f1.RCC.APB2RSTR
	}
	return &stm32f1.RCC.APB1RSTR
}

// EnableClock turns on the bus clock of a peripheral. Calling it again is
// harmless.
func EnableClock(p Peripheral) {
	if g, ok := p.gate(); ok {
		g.enable().SetBits(g.mask)
	}
}

// DisableClock turns off the bus clock of a peripheral.
func DisableClock(p Peripheral) {
	if g, ok := p.gate(); ok {
		g.enable().ClearBits(g.mask)
	}
}

// ClockEnabled reports whether the peripheral clock is running.
func ClockEnabled(p Peripheral) bool {
	g, ok := p.gate()
	return ok && g.enable().HasBits(g.mask)
}

// ResetPeripheral pulses the peripheral reset line, returning all of its
// registers to their reset values.
func ResetPeripheral(p Peripheral) {
	if g, ok := p.gate(); ok {
		g.reset().SetBits(g.mask)
		g.reset().ClearBits(g.mask)
	}
}
