package core

import "github.com/dariash95/MCU1/device/stm32f1"

// IRQ is a position in the STM32F1 vector table (external interrupts only).
type IRQ uint8

const (
	IRQ_EXTI0     IRQ = 6
	IRQ_EXTI1     IRQ = 7
	IRQ_EXTI2     IRQ = 8
	IRQ_EXTI3     IRQ = 9
	IRQ_EXTI4     IRQ = 10
	IRQ_EXTI9_5   IRQ = 23
	IRQ_I2C1_EV   IRQ = 31
	IRQ_I2C1_ER   IRQ = 32
	IRQ_I2C2_EV   IRQ = 33
	IRQ_I2C2_ER   IRQ = 34
	IRQ_SPI1      IRQ = 35
	IRQ_SPI2      IRQ = 36
	IRQ_USART1    IRQ = 37
	IRQ_USART2    IRQ = 38
	IRQ_EXTI15_10 IRQ = 40
	IRQ_SPI3      IRQ = 51

	irqCount = 68
)

// MaxIRQPriority is the lowest urgency a priority field can hold.
const MaxIRQPriority = 1<<stm32f1.NVIC_PRIO_BITS - 1

// EnableIRQ unmasks one interrupt in the NVIC. ISERx is write-one-to-set,
// so only the bit of this IRQ is written.
func EnableIRQ(irq IRQ) {
	if irq >= irqCount {
		return
	}
	stm32f1.NVIC.ISER[irq/32].Set(bit(irq % 32))
}

// DisableIRQ masks one interrupt in the NVIC. ICERx is write-one-to-clear.
func DisableIRQ(irq IRQ) {
	if irq >= irqCount {
		return
	}
	stm32f1.NVIC.ICER[irq/32].Set(bit(irq % 32))
}

// IRQEnabled reports whether the interrupt is unmasked.
func IRQEnabled(irq IRQ) bool {
	if irq >= irqCount {
		return false
	}
	return stm32f1.NVIC.ISER[irq/32].HasBits(bit(irq % 32))
}

// SetIRQPriority sets the priority of an interrupt, 0 being the most
// urgent. Only the implemented upper bits of each IPR byte are used.
func SetIRQPriority(irq IRQ, priority uint8) {
	if irq >= irqCount {
		return
	}
	if priority > MaxIRQPriority {
		priority = MaxIRQPriority
	}
	shift := 8*uint8(irq%4) + (8 - stm32f1.NVIC_PRIO_BITS)
	stm32f1.NVIC.IPR[irq/4].ReplaceBits(uint32(priority), MaxIRQPriority, shift)
}

// IRQPriority returns the priority set with SetIRQPriority.
func IRQPriority(irq IRQ) uint8 {
	if irq >= irqCount {
		return 0
	}
	shift := 8*uint32(irq%4) + (8 - stm32f1.NVIC_PRIO_BITS)
	return uint8(stm32f1.NVIC.IPR[irq/4].Get() >> shift & MaxIRQPriority)
}
