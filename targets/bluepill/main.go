//go:build tinygo

// Firmware for the Blue Pill board. SPI1 reads NUL terminated messages from
// a slave that pulls PA9 low when it has data; driver trace events go out on
// the UART.
package main

import (
	"device/stm32"
	"machine"
	"runtime/interrupt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"

	"github.com/dariash95/MCU1/core"
	"github.com/dariash95/MCU1/protocol"
)

const (
	dataReadyPin = 9  // PA9, falling edge
	buttonPin    = 0  // PA0, rising edge
	ledPin       = 13 // PC13, active low
)

var (
	spi1    *core.SPIHandle
	message = core.NewMessageBuffer(64, 0)

	rx    [1]byte
	dummy = [1]byte{0xFF}

	// set by the EXTI handler, consumed by the main loop
	dataReady volatileFlag
	messages  uint32
)

type volatileFlag struct{ v uint32 }

func (f *volatileFlag) set() {
	s := interrupt.Disable()
	f.v = 1
	interrupt.Restore(s)
}

func (f *volatileFlag) take() bool {
	s := interrupt.Disable()
	v := f.v
	f.v = 0
	interrupt.Restore(s)
	return v != 0
}

func main() {
	boot := time.Now()
	core.SetTickSource(func() uint32 {
		return uint32(time.Since(boot).Microseconds())
	})
	core.TimerInit()
	core.SetGPIODriver(core.PortDriver{})

	machine.Serial.Configure(machine.UARTConfig{BaudRate: 115200})

	if err := setupPins(); err != nil {
		fail(err)
	}
	if err := setupSPI(); err != nil {
		fail(err)
	}
	if err := setupLines(); err != nil {
		fail(err)
	}

	enc := protocol.NewFrameEncoder()
	for {
		if dataReady.take() && spi1.RxState() == core.StateReady {
			message.Reset()
			requestByte()
		}
		core.WriteTrace(machine.Serial, enc)
		time.Sleep(time.Millisecond)
	}
}

func setupPins() error {
	for _, cfg := range []core.PinConfig{
		{Pin: 5, Mode: core.ModeOutput50MHz, Config: core.AltPushPull}, // SCK
		{Pin: 6, Mode: core.ModeInput, Config: core.InputFloating},     // MISO
		{Pin: 7, Mode: core.ModeOutput50MHz, Config: core.AltPushPull}, // MOSI
		{Pin: dataReadyPin, Mode: core.ModeInput, Config: core.InputPull, Pull: gpio.PullUp},
		{Pin: buttonPin, Mode: core.ModeInput, Config: core.InputPull, Pull: gpio.PullDown},
	} {
		if err := core.PortA.Configure(cfg); err != nil {
			return err
		}
	}

	led := core.MakeGPIOPin(core.PortC, ledPin)
	if err := core.MustGPIO().ConfigureOutput(led); err != nil {
		return err
	}
	return core.MustGPIO().SetPin(led, true)
}

func setupSPI() error {
	spi1 = core.NewSPIHandle(core.SPI1, core.SPIConfig{
		Role:                    core.SPIMaster,
		Bus:                     core.BusFullDuplex,
		Prescaler:               core.Div8,
		FrameWidth:              core.Frame8Bit,
		Mode:                    spi.Mode0,
		SoftwareSlaveManagement: true,
		InternalSlaveSelect:     true,
	}, onSPIEvent)
	if err := spi1.Init(); err != nil {
		return err
	}
	core.RegisterSPIHandle(core.SPI1, spi1)
	spi1.Enable(true)

	irq := interrupt.New(stm32.IRQ_SPI1, func(interrupt.Interrupt) {
		core.HandleSPIInterrupt(core.SPI1)
	})
	irq.SetPriority(0x40)
	irq.Enable()
	return nil
}

func setupLines() error {
	if err := core.Lines.Bind(core.LineBinding{
		Port:    core.PortA,
		Pin:     dataReadyPin,
		Edge:    gpio.FallingEdge,
		Handler: func(uint8) { dataReady.set() },
	}); err != nil {
		return err
	}
	if err := core.Lines.Bind(core.LineBinding{
		Port:    core.PortA,
		Pin:     buttonPin,
		Edge:    gpio.RisingEdge,
		Handler: func(uint8) { core.PortC.Toggle(ledPin) },
	}); err != nil {
		return err
	}
	core.EnableLineIRQ(dataReadyPin, 5)
	core.EnableLineIRQ(buttonPin, 6)

	interrupt.New(stm32.IRQ_EXTI9_5, func(interrupt.Interrupt) {
		core.Lines.HandleIRQ(core.IRQ_EXTI9_5)
	})
	interrupt.New(stm32.IRQ_EXTI0, func(interrupt.Interrupt) {
		core.Lines.HandleIRQ(core.IRQ_EXTI0)
	})
	return nil
}

// requestByte clocks one byte out of the slave
func requestByte() {
	spi1.ReceiveIT(rx[:])
	spi1.SendIT(dummy[:])
}

func onSPIEvent(h *core.SPIHandle, e core.SPIEvent) {
	switch e {
	case core.EventRxComplete:
		done, err := message.Push(rx[0])
		switch {
		case err != nil:
			message.Reset()
		case done:
			messages++
		default:
			requestByte()
		}
	case core.EventOverrun:
		h.ClearOverrun()
	}
}

func fail(err error) {
	for {
		println("init failed:", err.Error())
		time.Sleep(time.Second)
	}
}
