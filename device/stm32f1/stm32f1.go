// Hand written register map for the STM32F101/F103 medium and high density
// lines, following RM0008.

// Package stm32f1 describes the peripheral register blocks of the STM32F1
// family. On TinyGo the blocks are placed over the memory mapped peripherals;
// on a regular Go toolchain they are backed by simulated registers so the
// drivers built on top can be exercised on a host.
package stm32f1

// Memory sections
const (
	PERIPH_BASE uintptr = 0x40000000

	APB1PERIPH_BASE uintptr = PERIPH_BASE
	APB2PERIPH_BASE uintptr = PERIPH_BASE + 0x10000
	AHBPERIPH_BASE  uintptr = PERIPH_BASE + 0x20000

	SPI2_BASE uintptr = APB1PERIPH_BASE + 0x3800
	SPI3_BASE uintptr = APB1PERIPH_BASE + 0x3C00
	I2C1_BASE uintptr = APB1PERIPH_BASE + 0x5400
	I2C2_BASE uintptr = APB1PERIPH_BASE + 0x5800

	AFIO_BASE  uintptr = APB2PERIPH_BASE + 0x0000
	EXTI_BASE  uintptr = APB2PERIPH_BASE + 0x0400
	GPIOA_BASE uintptr = APB2PERIPH_BASE + 0x0800
	GPIOB_BASE uintptr = APB2PERIPH_BASE + 0x0C00
	GPIOC_BASE uintptr = APB2PERIPH_BASE + 0x1000
	GPIOD_BASE uintptr = APB2PERIPH_BASE + 0x1400
	GPIOE_BASE uintptr = APB2PERIPH_BASE + 0x1800
	GPIOF_BASE uintptr = APB2PERIPH_BASE + 0x1C00
	GPIOG_BASE uintptr = APB2PERIPH_BASE + 0x2000
	SPI1_BASE  uintptr = APB2PERIPH_BASE + 0x3000

	RCC_BASE uintptr = AHBPERIPH_BASE + 0x1000

	NVIC_BASE uintptr = 0xE000E100
)

// Number of priority bits implemented in the NVIC IPR byte fields.
const NVIC_PRIO_BITS = 4

type GPIO_Type struct {
	CRL  Register
	CRH  Register
	IDR  Register
	ODR  Register
	BSRR Register
	BRR  Register
	LCKR Register
}

type AFIO_Type struct {
	EVCR   Register
	MAPR   Register
	EXTICR [4]Register
	_      [4]byte
	MAPR2  Register
}

type EXTI_Type struct {
	IMR   Register
	EMR   Register
	RTSR  Register
	FTSR  Register
	SWIER Register
	PR    Register
}

type RCC_Type struct {
	CR       Register
	CFGR     Register
	CIR      Register
	APB2RSTR Register
	APB1RSTR Register
	AHBENR   Register
	APB2ENR  Register
	APB1ENR  Register
	BDCR     Register
	CSR      Register
}

type SPI_Type struct {
	CR1     Register
	CR2     Register
	SR      Register
	DR      Register
	CRCPR   Register
	RXCRCR  Register
	TXCRCR  Register
	I2SCFGR Register
	I2SPR   Register
}

type I2C_Type struct {
	CR1   Register
	CR2   Register
	OAR1  Register
	OAR2  Register
	DR    Register
	SR1   Register
	SR2   Register
	CCR   Register
	TRISE Register
}

type NVIC_Type struct {
	ISER [8]Register
	_    [96]byte
	ICER [8]Register
	_    [96]byte
	ISPR [8]Register
	_    [96]byte
	ICPR [8]Register
	_    [96]byte
	IABR [8]Register
	_    [224]byte
	IPR  [60]Register
}

// GPIO CRL/CRH nibble layout
const (
	GPIO_CR_MODE_Msk = 0x3
	GPIO_CR_CNF_Pos  = 2
	GPIO_CR_CNF_Msk  = 0x3
	GPIO_CR_PIN_Msk  = 0xF
	GPIO_BRR_Pos     = 16 // reset half of BSRR
)

// EXTI
const (
	EXTI_LINES         = 16
	AFIO_EXTICR_Msk    = 0xF
	AFIO_EXTICR_Width  = 4
	AFIO_EXTICR_PerReg = 4
)

// RCC_APB2ENR / RCC_APB2RSTR
const (
	RCC_APB2ENR_AFIOEN   = 1 << 0
	RCC_APB2ENR_IOPAEN   = 1 << 2
	RCC_APB2ENR_IOPBEN   = 1 << 3
	RCC_APB2ENR_IOPCEN   = 1 << 4
	RCC_APB2ENR_IOPDEN   = 1 << 5
	RCC_APB2ENR_IOPEEN   = 1 << 6
	RCC_APB2ENR_IOPFEN   = 1 << 7
	RCC_APB2ENR_IOPGEN   = 1 << 8
	RCC_APB2ENR_SPI1EN   = 1 << 12
	RCC_APB2ENR_USART1EN = 1 << 14
)

// RCC_APB1ENR / RCC_APB1RSTR
const (
	RCC_APB1ENR_SPI2EN   = 1 << 14
	RCC_APB1ENR_SPI3EN   = 1 << 15
	RCC_APB1ENR_USART2EN = 1 << 17
	RCC_APB1ENR_I2C1EN   = 1 << 21
	RCC_APB1ENR_I2C2EN   = 1 << 22
)

// SPI_CR1
const (
	SPI_CR1_CPHA     = 1 << 0
	SPI_CR1_CPOL     = 1 << 1
	SPI_CR1_MSTR     = 1 << 2
	SPI_CR1_BR_Pos   = 3
	SPI_CR1_BR_Msk   = 0x7
	SPI_CR1_SPE      = 1 << 6
	SPI_CR1_LSBFIRST = 1 << 7
	SPI_CR1_SSI      = 1 << 8
	SPI_CR1_SSM      = 1 << 9
	SPI_CR1_RXONLY   = 1 << 10
	SPI_CR1_DFF      = 1 << 11
	SPI_CR1_CRCNEXT  = 1 << 12
	SPI_CR1_CRCEN    = 1 << 13
	SPI_CR1_BIDIOE   = 1 << 14
	SPI_CR1_BIDIMODE = 1 << 15
)

// SPI_CR2
const (
	SPI_CR2_RXDMAEN = 1 << 0
	SPI_CR2_TXDMAEN = 1 << 1
	SPI_CR2_SSOE    = 1 << 2
	SPI_CR2_ERRIE   = 1 << 5
	SPI_CR2_RXNEIE  = 1 << 6
	SPI_CR2_TXEIE   = 1 << 7
)

// SPI_SR
const (
	SPI_SR_RXNE   = 1 << 0
	SPI_SR_TXE    = 1 << 1
	SPI_SR_CHSIDE = 1 << 2
	SPI_SR_UDR    = 1 << 3
	SPI_SR_CRCERR = 1 << 4
	SPI_SR_MODF   = 1 << 5
	SPI_SR_OVR    = 1 << 6
	SPI_SR_BSY    = 1 << 7
)

// I2C_CR1
const (
	I2C_CR1_PE        = 1 << 0
	I2C_CR1_SMBUS     = 1 << 1
	I2C_CR1_NOSTRETCH = 1 << 7
	I2C_CR1_START     = 1 << 8
	I2C_CR1_STOP      = 1 << 9
	I2C_CR1_ACK       = 1 << 10
	I2C_CR1_POS       = 1 << 11
	I2C_CR1_SWRST     = 1 << 15
)

// I2C_CR2
const (
	I2C_CR2_FREQ_Pos = 0
	I2C_CR2_FREQ_Msk = 0x3F
	I2C_CR2_ITERREN  = 1 << 8
	I2C_CR2_ITEVTEN  = 1 << 9
	I2C_CR2_ITBUFEN  = 1 << 10
)

// I2C_OAR1
const (
	I2C_OAR1_ADD_Pos = 1
	I2C_OAR1_ADD_Msk = 0x7F
	I2C_OAR1_BIT14   = 1 << 14 // must be kept at 1
)

// I2C_CCR
const (
	I2C_CCR_CCR_Msk = 0xFFF
	I2C_CCR_DUTY    = 1 << 14
	I2C_CCR_FS      = 1 << 15
)

// I2C_TRISE
const I2C_TRISE_Msk = 0x3F

// I2C_SR1
const (
	I2C_SR1_SB      = 1 << 0
	I2C_SR1_ADDR    = 1 << 1
	I2C_SR1_BTF     = 1 << 2
	I2C_SR1_ADD10   = 1 << 3
	I2C_SR1_STOPF   = 1 << 4
	I2C_SR1_RXNE    = 1 << 6
	I2C_SR1_TXE     = 1 << 7
	I2C_SR1_BERR    = 1 << 8
	I2C_SR1_ARLO    = 1 << 9
	I2C_SR1_AF      = 1 << 10
	I2C_SR1_OVR     = 1 << 11
	I2C_SR1_TIMEOUT = 1 << 14
)

// I2C_SR2
const (
	I2C_SR2_MSL  = 1 << 0
	I2C_SR2_BUSY = 1 << 1
	I2C_SR2_TRA  = 1 << 2
)
