package core

// ReadResult returns the last committed result of a logical channel.
// It never blocks and never touches scheduling state, so it may run in
// task context while the scheduler interrupt is active.
func (s *AnalogScheduler) ReadResult(id uint8) ConversionResult {
	if s.results == nil {
		// Never initialized: no table to resolve id against.
		return ConversionResult{Status: StatusNotInitialized}
	}
	if int(id) >= s.results.Len() {
		s.report(FaultInvalidChannel, int(id))
		return ConversionResult{Status: StatusInvalid}
	}
	return s.results.Load(int(id))
}

// Read returns the last value of a logical channel and whether it comes
// from a completed conversion.
func (s *AnalogScheduler) Read(id uint8) (ADCValue, bool) {
	r := s.ReadResult(id)
	return r.Value, r.Valid()
}

// Default scheduler used by the firmware targets and the command handlers.
var analogScheduler *AnalogScheduler

// InitAnalogIn creates the default scheduler on the registered ADC and OCU
// drivers and initializes it with cfg.
func InitAnalogIn(cfg *AnalogConfig) error {
	if analogScheduler == nil {
		analogScheduler = NewAnalogScheduler(MustADC(), MustOCU(), &faultRing)
	}
	return analogScheduler.Init(cfg)
}

// DeinitAnalogIn tears the default scheduler down.
func DeinitAnalogIn() error {
	if analogScheduler == nil {
		faultRing.ReportFault(Fault{Code: FaultNotInitialized, Clock: GetTime()})
		return ErrNotInitialized
	}
	return analogScheduler.Deinit()
}

// AnalogTimerISR is the compare-match entry point for the default scheduler.
func AnalogTimerISR() {
	if analogScheduler != nil {
		analogScheduler.OnTimerFired()
	}
}

// ReadAnalogIn reads a logical channel of the default scheduler.
func ReadAnalogIn(id uint8) (ADCValue, bool) {
	if analogScheduler == nil {
		return 0, false
	}
	return analogScheduler.Read(id)
}

// DefaultAnalogScheduler returns the default scheduler, or nil before InitAnalogIn.
func DefaultAnalogScheduler() *AnalogScheduler {
	return analogScheduler
}
