//go:build !tinygo

package core

var systemTicks uint32

// getSystemTicks returns the simulated clock of host builds
func getSystemTicks() uint32 {
	return systemTicks
}

// setSystemTicks moves the simulated clock
func setSystemTicks(ticks uint32) {
	systemTicks = ticks
}
