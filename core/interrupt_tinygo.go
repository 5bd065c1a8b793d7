//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}

// lockTrace guards the trace ring. Interrupt masking nests, so this is safe
// to call from a handler or from inside another critical section.
func lockTrace() interrupt.State {
	return interrupt.Disable()
}

func unlockTrace(state interrupt.State) {
	interrupt.Restore(state)
}
