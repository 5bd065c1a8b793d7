package core

import "sync/atomic"

// TimerFreq is the rate of the tick counter used for timeouts and trace
// timestamps (1 tick per microsecond).
const (
	TimerFreq = 1000000
)

var (
	// software counter advanced by SetTime when no tick source is set
	systemTicks atomic.Uint32
	bootTime    uint32

	// tickSource, when set by the platform, replaces the software counter.
	tickSource func() uint32
)

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	if src := tickSource; src != nil {
		return src()
	}
	return systemTicks.Load()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	systemTicks.Store(ticks)
}

// SetTickSource registers a free running counter ticking at TimerFreq.
// Passing nil falls back to the counter driven by SetTime.
func SetTickSource(src func() uint32) {
	tickSource = src
}

// GetUptime returns the ticks elapsed since TimerInit
func GetUptime() uint32 {
	return GetTime() - bootTime
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TimerInit records the boot time
func TimerInit() {
	bootTime = GetTime()
}
