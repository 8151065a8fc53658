//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts so task code can update state the
// output-compare interrupt also touches, and returns the previous mask.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the mask saved by disableInterrupts
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
