package core

// OCUChannel identifies an output-compare channel.
type OCUChannel uint8

// OCUDriver is the abstract output-compare timer interface.
// Platform-specific implementations handle the actual compare registers.
type OCUDriver interface {
	// ArmAbsolute programs the channel to fire when the cycle counter
	// reaches target. reference is the previously programmed threshold;
	// a target at or before it belongs to the following cycle.
	ArmAbsolute(ch OCUChannel, reference, target uint32)

	// ArmRelative programs the channel to fire ticks after now.
	ArmRelative(ch OCUChannel, ticks uint32)

	// StartChannel starts the channel counter. The cycle starts at tick 0.
	StartChannel(ch OCUChannel)

	// StopChannel stops the channel and cancels any armed compare.
	StopChannel(ch OCUChannel)

	// EnableNotification enables the compare-match interrupt.
	EnableNotification(ch OCUChannel)

	// DisableNotification disables the compare-match interrupt.
	DisableNotification(ch OCUChannel)
}

var ocuDriver OCUDriver

// SetOCUDriver is called by target-specific code to register its driver.
func SetOCUDriver(d OCUDriver) {
	ocuDriver = d
}

// MustOCU returns the configured driver or panics if missing.
func MustOCU() OCUDriver {
	if ocuDriver == nil {
		panic("OCU driver not configured")
	}
	return ocuDriver
}
