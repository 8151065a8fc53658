package core

// ADCGroupID identifies a hardware conversion group.
type ADCGroupID uint8

// ADCValue is the raw ADC reading as seen by the rest of the firmware.
// Convention here: 16-bit value, even if underlying hardware is 12 bits.
type ADCValue uint16

// GroupStatus is the conversion state of a group as reported by the driver.
type GroupStatus uint8

const (
	GroupIdle GroupStatus = iota
	GroupBusy
)

func (s GroupStatus) String() string {
	if s == GroupIdle {
		return "idle"
	}
	return "busy"
}

// ADCGroupDriver is the abstract ADC interface the analog scheduler uses.
// Start, stop and status are called from the output-compare interrupt and
// must return in bounded time.
type ADCGroupDriver interface {
	// SetupResultBuffer tells the driver where to deposit the converted
	// values of a group. buf[i] receives the channel at position i.
	// Called once per group from AnalogScheduler.Init.
	SetupResultBuffer(group ADCGroupID, buf []ADCValue) error

	// StartGroupConversion triggers one conversion of every channel in the group.
	StartGroupConversion(group ADCGroupID)

	// StopGroupConversion stops the group and releases the converter.
	StopGroupConversion(group ADCGroupID)

	// GroupStatus reports whether the last started conversion is still running.
	GroupStatus(group ADCGroupID) GroupStatus
}

// Global singleton used by core code.
var adcDriver ADCGroupDriver

// SetADCDriver is called by target-specific code to register its driver.
func SetADCDriver(d ADCGroupDriver) {
	adcDriver = d
}

// MustADC returns the configured driver or panics if missing.
func MustADC() ADCGroupDriver {
	if adcDriver == nil {
		panic("ADC driver not configured")
	}
	return adcDriver
}
