//go:build tinygo

package stm32f1

import (
	"runtime/volatile"
	"unsafe"
)

// Register is a memory mapped 32-bit peripheral register.
type Register = volatile.Register32

// Peripherals
var (
	GPIOA = (*GPIO_Type)(unsafe.Pointer(GPIOA_BASE))
	GPIOB = (*GPIO_Type)(unsafe.Pointer(GPIOB_BASE))
	GPIOC = (*GPIO_Type)(unsafe.Pointer(GPIOC_BASE))
	GPIOD = (*GPIO_Type)(unsafe.Pointer(GPIOD_BASE))
	GPIOE = (*GPIO_Type)(unsafe.Pointer(GPIOE_BASE))
	GPIOF = (*GPIO_Type)(unsafe.Pointer(GPIOF_BASE))
	GPIOG = (*GPIO_Type)(unsafe.Pointer(GPIOG_BASE))

	AFIO = (*AFIO_Type)(unsafe.Pointer(AFIO_BASE))
	EXTI = (*EXTI_Type)(unsafe.Pointer(EXTI_BASE))
	RCC  = (*RCC_Type)(unsafe.Pointer(RCC_BASE))

	SPI1 = (*SPI_Type)(unsafe.Pointer(SPI1_BASE))
	SPI2 = (*SPI_Type)(unsafe.Pointer(SPI2_BASE))
	SPI3 = (*SPI_Type)(unsafe.Pointer(SPI3_BASE))

	I2C1 = (*I2C_Type)(unsafe.Pointer(I2C1_BASE))
	I2C2 = (*I2C_Type)(unsafe.Pointer(I2C2_BASE))

	NVIC = (*NVIC_Type)(unsafe.Pointer(NVIC_BASE))
)
