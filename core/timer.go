package core

// Timer frequencies for common MCUs
const (
	TimerFreq = 1000000 // 1MHz, the RP2040 microsecond timer
)

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// timeBefore reports whether a is earlier than b, tolerating wraparound
// of the 32-bit tick counter.
func timeBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// ProcessTimers runs every software timer that is due
func ProcessTimers() {
	TimerDispatch(GetTime())
}

// AdvanceTime steps the clock to now+ticks, dispatching due timers in
// wake order with the clock set to each wake time. Host simulations use
// it in place of a hardware counter.
func AdvanceTime(ticks uint32) {
	end := GetTime() + ticks
	for {
		next, ok := NextWakeTime()
		if !ok || timeBefore(end, next) {
			break
		}
		if now := GetTime(); timeBefore(next, now) {
			next = now
		}
		SetTime(next)
		TimerDispatch(next)
	}
	SetTime(end)
}
