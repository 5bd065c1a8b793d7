package core

import "github.com/dariash95/MCU1/device/stm32f1"

// WaitPolicy bounds the busy-wait loops of the blocking transfer paths.
//
// The zero value waits forever, which is how the hardware is normally
// driven: a peripheral that never raises its flag hangs the caller. Setting
// Timeout makes such a hang observable as ErrTimeout instead.
type WaitPolicy struct {
	// Timeout in timer ticks; 0 disables the timeout.
	Timeout uint32

	// Clock returns the current tick count. Nil uses GetTime.
	Clock func() uint32
}

// until polls cond until it reports true or the timeout elapses.
func (w WaitPolicy) until(flag string, cond func() bool) error {
	if cond() {
		return nil
	}
	if w.Timeout == 0 {
		for !cond() {
		}
		return nil
	}

	clock := w.Clock
	if clock == nil {
		clock = GetTime
	}
	start := clock()
	for !cond() {
		if clock()-start >= w.Timeout {
			if cond() {
				return nil
			}
			return &FlagTimeoutError{Flag: flag}
		}
	}
	return nil
}

// flag waits for any of the bits in mask to be set in reg.
func (w WaitPolicy) flag(reg *stm32f1.Register, mask uint32, name string) error {
	return w.until(name, func() bool { return reg.HasBits(mask) })
}

// allFlags waits for every bit in mask to be set in reg.
func (w WaitPolicy) allFlags(reg *stm32f1.Register, mask uint32, name string) error {
	return w.until(name, func() bool { return reg.Get()&mask == mask })
}
