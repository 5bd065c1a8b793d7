//go:build !tinygo

package stm32f1

import (
	"fmt"
	"reflect"
	"sync"
)

// WriteMode selects how a simulated register applies a written value.
type WriteMode uint8

const (
	// WritePlain stores the written value.
	WritePlain WriteMode = iota
	// WriteOneToClear clears every bit written as 1 (EXTI_PR).
	WriteOneToClear
	// WriteOneToSet sets every bit written as 1 (NVIC_ISERx).
	WriteOneToSet
	// WriteOneToClearLinked clears every bit written as 1 in the linked
	// register and reads back the linked value (NVIC_ICERx).
	WriteOneToClearLinked
)

// AccessKind tells a read from a write in the access log.
type AccessKind uint8

const (
	AccessRead AccessKind = iota
	AccessWrite
)

func (k AccessKind) String() string {
	if k == AccessWrite {
		return "write"
	}
	return "read"
}

// Access is one recorded register access.
type Access struct {
	Register string
	Kind     AccessKind
	Value    uint32
}

func (a Access) String() string {
	return fmt.Sprintf("%s %s 0x%08X", a.Kind, a.Register, a.Value)
}

// Register is a simulated 32-bit peripheral register. It has the method set
// of volatile.Register32 so driver code compiles unchanged against it.
//
// Read hooks run before the value is sampled and may Store a new value;
// write hooks run after the write has been applied. Hooks are invoked
// without any register lock held, so they may touch other registers.
type Register struct {
	mu        sync.Mutex
	name      string
	value     uint32
	mode      WriteMode
	link      *Register
	readHook  func(r *Register)
	writeHook func(r *Register, written uint32)
}

// Get returns the value stored in the register.
func (r *Register) Get() uint32 {
	r.mu.Lock()
	hook := r.readHook
	r.mu.Unlock()
	if hook != nil {
		hook(r)
	}
	v := r.Load()
	record(Access{Register: r.name, Kind: AccessRead, Value: v})
	return v
}

// Set updates the register value.
func (r *Register) Set(value uint32) {
	r.mu.Lock()
	switch r.mode {
	case WriteOneToClear:
		r.value &^= value
	case WriteOneToSet:
		r.value |= value
	case WriteOneToClearLinked:
	default:
		r.value = value
	}
	hook := r.writeHook
	link := r.link
	mode := r.mode
	r.mu.Unlock()

	if mode == WriteOneToClearLinked && link != nil {
		link.mu.Lock()
		link.value &^= value
		link.mu.Unlock()
	}
	record(Access{Register: r.name, Kind: AccessWrite, Value: value})
	if hook != nil {
		hook(r, value)
	}
}

// SetBits reads the register, sets the given bits, and writes it back.
func (r *Register) SetBits(value uint32) {
	r.Set(r.Get() | value)
}

// ClearBits reads the register, clears the given bits, and writes it back.
func (r *Register) ClearBits(value uint32) {
	r.Set(r.Get() &^ value)
}

// HasBits reads the register and then checks whether the given bits are set.
func (r *Register) HasBits(value uint32) bool {
	return (r.Get() & value) > 0
}

// ReplaceBits is a helper to simplify setting multiple bits high and/or low
// at once. It is the equivalent of:
//
//	r.Set((r.Get() &^ (mask << pos)) | value << pos)
func (r *Register) ReplaceBits(value uint32, mask uint32, pos uint8) {
	r.Set(r.Get()&^(mask<<pos) | value<<pos)
}

// Load returns the raw value without running hooks or logging the access.
func (r *Register) Load() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode == WriteOneToClearLinked && r.link != nil {
		r.link.mu.Lock()
		defer r.link.mu.Unlock()
		return r.link.value
	}
	return r.value
}

// Store replaces the raw value without running hooks or logging the access.
// It stands in for the hardware changing a status register.
func (r *Register) Store(value uint32) {
	r.mu.Lock()
	r.value = value
	r.mu.Unlock()
}

// Raise sets bits in the raw value, as the hardware would on an event.
func (r *Register) Raise(bits uint32) {
	r.mu.Lock()
	r.value |= bits
	r.mu.Unlock()
}

// Lower clears bits in the raw value.
func (r *Register) Lower(bits uint32) {
	r.mu.Lock()
	r.value &^= bits
	r.mu.Unlock()
}

// Name returns the register name, e.g. "SPI1.CR2".
func (r *Register) Name() string { return r.name }

// OnRead installs a hook run on every Get. Passing nil removes it.
func (r *Register) OnRead(hook func(r *Register)) {
	r.mu.Lock()
	r.readHook = hook
	r.mu.Unlock()
}

// OnWrite installs a hook run after every Set. Passing nil removes it.
func (r *Register) OnWrite(hook func(r *Register, written uint32)) {
	r.mu.Lock()
	r.writeHook = hook
	r.mu.Unlock()
}

var (
	simMu   sync.Mutex
	simLog  []Access
	simRegs []*Register
)

func record(a Access) {
	simMu.Lock()
	simLog = append(simLog, a)
	simMu.Unlock()
}

// AccessLog returns a copy of every register access since the last reset.
func AccessLog() []Access {
	simMu.Lock()
	defer simMu.Unlock()
	out := make([]Access, len(simLog))
	copy(out, simLog)
	return out
}

// ClearAccessLog drops the recorded accesses.
func ClearAccessLog() {
	simMu.Lock()
	simLog = simLog[:0]
	simMu.Unlock()
}

// ResetSimulation restores every simulated register to zero, removes all
// hooks and clears the access log.
func ResetSimulation() {
	simMu.Lock()
	regs := simRegs
	simLog = simLog[:0]
	simMu.Unlock()
	for _, r := range regs {
		r.mu.Lock()
		r.value = 0
		r.readHook = nil
		r.writeHook = nil
		r.mu.Unlock()
	}
}

// Peripherals
var (
	GPIOA = newBlock[GPIO_Type]("GPIOA")
	GPIOB = newBlock[GPIO_Type]("GPIOB")
	GPIOC = newBlock[GPIO_Type]("GPIOC")
	GPIOD = newBlock[GPIO_Type]("GPIOD")
	GPIOE = newBlock[GPIO_Type]("GPIOE")
	GPIOF = newBlock[GPIO_Type]("GPIOF")
	GPIOG = newBlock[GPIO_Type]("GPIOG")

	AFIO = newBlock[AFIO_Type]("AFIO")
	EXTI = newEXTI()
	RCC  = newBlock[RCC_Type]("RCC")

	SPI1 = newBlock[SPI_Type]("SPI1")
	SPI2 = newBlock[SPI_Type]("SPI2")
	SPI3 = newBlock[SPI_Type]("SPI3")

	I2C1 = newBlock[I2C_Type]("I2C1")
	I2C2 = newBlock[I2C_Type]("I2C2")

	NVIC = newNVIC()
)

func newEXTI() *EXTI_Type {
	e := newBlock[EXTI_Type]("EXTI")
	e.PR.mode = WriteOneToClear
	return e
}

func newNVIC() *NVIC_Type {
	n := newBlock[NVIC_Type]("NVIC")
	for i := range n.ISER {
		n.ISER[i].mode = WriteOneToSet
		n.ICER[i].mode = WriteOneToClearLinked
		n.ICER[i].link = &n.ISER[i]
		n.ISPR[i].mode = WriteOneToSet
		n.ICPR[i].mode = WriteOneToClearLinked
		n.ICPR[i].link = &n.ISPR[i]
	}
	return n
}

var registerType = reflect.TypeOf((*Register)(nil)).Elem()

// newBlock allocates a register block and names each register after the
// block and field, e.g. "NVIC.ISER[1]".
func newBlock[T any](name string) *T {
	b := new(T)
	v := reflect.ValueOf(b).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Name == "_" {
			continue
		}
		fv := v.Field(i)
		switch {
		case f.Type == registerType:
			register(fv.Addr().Interface().(*Register), name+"."+f.Name)
		case f.Type.Kind() == reflect.Array && f.Type.Elem() == registerType:
			for j := 0; j < fv.Len(); j++ {
				r := fv.Index(j).Addr().Interface().(*Register)
				register(r, fmt.Sprintf("%s.%s[%d]", name, f.Name, j))
			}
		}
	}
	return b
}

func register(r *Register, name string) {
	r.name = name
	simMu.Lock()
	simRegs = append(simRegs, r)
	simMu.Unlock()
}
