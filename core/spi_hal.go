package core

import "github.com/dariash95/MCU1/device/stm32f1"

// SPIBusID identifies a hardware SPI controller
type SPIBusID uint8

const (
	SPI1 SPIBusID = 1
	SPI2 SPIBusID = 2
	SPI3 SPIBusID = 3
)

type spiBus struct {
	regs  *stm32f1.SPI_Type
	clock Peripheral
	irq   IRQ
}

var spiBuses = [...]spiBus{
	SPI1: {stm32f1.SPI1, ClockSPI1, IRQ_SPI1},
	SPI2: {stm32f1.SPI2, ClockSPI2, IRQ_SPI2},
	SPI3: {stm32f1.SPI3, ClockSPI3, IRQ_SPI3},
}

func (b SPIBusID) Valid() bool {
	return b >= SPI1 && int(b) < len(spiBuses)
}

func (b SPIBusID) info() spiBus {
	if !b.Valid() {
		return spiBus{}
	}
	return spiBuses[b]
}

// IRQ returns the NVIC interrupt of the controller
func (b SPIBusID) IRQ() IRQ {
	return b.info().irq
}

func (b SPIBusID) String() string {
	switch b {
	case SPI1:
		return "SPI1"
	case SPI2:
		return "SPI2"
	case SPI3:
		return "SPI3"
	default:
		return "SPI?"
	}
}

// Handles serviced by the interrupt entry points, one per controller
var spiHandles [len(spiBuses)]*SPIHandle

// RegisterSPIHandle makes h the handle serviced by its controller's
// interrupt. Registering nil for a bus detaches it.
func RegisterSPIHandle(bus SPIBusID, h *SPIHandle) {
	if !bus.Valid() {
		return
	}
	s := disableInterrupts()
	spiHandles[bus] = h
	restoreInterrupts(s)
}

// HandleSPIInterrupt is the interrupt entry point for a controller. It
// dispatches to the registered handle, if any.
func HandleSPIInterrupt(bus SPIBusID) {
	if !bus.Valid() {
		return
	}
	s := disableInterrupts()
	h := spiHandles[bus]
	restoreInterrupts(s)
	if h != nil {
		h.IRQHandler()
	}
}
