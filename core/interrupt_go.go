//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// On a host there is no interrupt mask, so simulated interrupt handlers and
// foreground code exclude each other through these locks instead. Neither
// lock is reentrant.
var (
	irqMu   sync.Mutex
	traceMu sync.Mutex
)

// disableInterrupts enters the critical section guarding transfer state
func disableInterrupts() State {
	irqMu.Lock()
	return 0
}

// restoreInterrupts leaves the critical section
func restoreInterrupts(state State) {
	irqMu.Unlock()
}

// lockTrace guards the trace ring
func lockTrace() State {
	traceMu.Lock()
	return 0
}

func unlockTrace(state State) {
	traceMu.Unlock()
}
