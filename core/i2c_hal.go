package core

import "github.com/dariash95/MCU1/device/stm32f1"

// I2CBusID identifies a hardware I2C controller
type I2CBusID uint8

const (
	I2C1 I2CBusID = 1
	I2C2 I2CBusID = 2
)

type i2cBus struct {
	regs  *stm32f1.I2C_Type
	clock Peripheral
	ev    IRQ
	er    IRQ
}

var i2cBuses = [...]i2cBus{
	I2C1: {stm32f1.I2C1, ClockI2C1, IRQ_I2C1_EV, IRQ_I2C1_ER},
	I2C2: {stm32f1.I2C2, ClockI2C2, IRQ_I2C2_EV, IRQ_I2C2_ER},
}

func (b I2CBusID) Valid() bool {
	return b >= I2C1 && int(b) < len(i2cBuses)
}

func (b I2CBusID) info() i2cBus {
	if !b.Valid() {
		return i2cBus{}
	}
	return i2cBuses[b]
}

// EventIRQ returns the event interrupt of the controller
func (b I2CBusID) EventIRQ() IRQ {
	return b.info().ev
}

// ErrorIRQ returns the error interrupt of the controller
func (b I2CBusID) ErrorIRQ() IRQ {
	return b.info().er
}

func (b I2CBusID) String() string {
	switch b {
	case I2C1:
		return "I2C1"
	case I2C2:
		return "I2C2"
	default:
		return "I2C?"
	}
}
