//go:build !tinygo

package core

import (
	"testing"

	"github.com/dariash95/MCU1/device/stm32f1"
)

// resetSim returns the simulated peripherals and package state to reset
func resetSim(t *testing.T) {
	t.Helper()
	stm32f1.ResetSimulation()
	ClearTrace()
	SetTraceEnabled(true)
	SetTickSource(nil)
	SetTime(0)
	Lines = LineRouter{}
	for i := range spiHandles {
		spiHandles[i] = nil
	}
}

// writes returns the values written to a register since the last reset
func writes(name string) []uint32 {
	var out []uint32
	for _, a := range stm32f1.AccessLog() {
		if a.Kind == stm32f1.AccessWrite && a.Register == name {
			out = append(out, a.Value)
		}
	}
	return out
}

// writtenRegisters returns the names of every register written, in order
func writtenRegisters() []string {
	var out []string
	for _, a := range stm32f1.AccessLog() {
		if a.Kind == stm32f1.AccessWrite {
			out = append(out, a.Register)
		}
	}
	return out
}

// steppingClock returns a clock advancing by step on every call
func steppingClock(step uint32) func() uint32 {
	var now uint32
	return func() uint32 {
		now += step
		return now
	}
}

func drainKinds() []TraceKind {
	var kinds []TraceKind
	DrainTrace(func(evt TraceEvent) { kinds = append(kinds, evt.Kind) })
	return kinds
}
