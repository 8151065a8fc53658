package core

import "errors"

var (
	ErrAlreadyInitialized = errors.New("analog scheduler already initialized")
	ErrNotInitialized     = errors.New("analog scheduler not initialized")
)

// Init validates cfg, registers the group result buffers with the ADC
// driver, arms the trigger channel on the first time-trigger offset and
// enables its interrupt. On any error the timer is left untouched.
func (s *AnalogScheduler) Init(cfg *AnalogConfig) error {
	if cfg == nil {
		s.report(FaultNilConfig, 0)
		return ErrNilConfig
	}
	if s.initialized {
		s.report(FaultAlreadyInitialized, 0)
		return ErrAlreadyInitialized
	}

	trigger, err := cfg.Trigger()
	if err != nil {
		s.report(FaultInvalidConfig, 0)
		return err
	}
	table, err := NewAnalogTable(cfg.Descriptors, trigger.Offsets)
	if err != nil {
		s.report(FaultInvalidConfig, 0)
		return err
	}

	results := s.results
	if results == nil || results.Len() != table.Len() {
		results = NewResultTable(table.Len())
	}
	results.Reset(StatusInitializing)

	var setupErr error
	table.ForEachGroup(func(start int, d *AnalogDescriptor) {
		if setupErr != nil {
			return
		}
		if err := s.adc.SetupResultBuffer(d.Group, d.ResultSlot); err != nil {
			s.report(FaultBufferSetup, start)
			setupErr = err
		}
	})
	if setupErr != nil {
		results.Reset(StatusNotInitialized)
		s.table = table
		s.results = results
		return setupErr
	}

	s.table = table
	s.results = results
	s.channel = trigger.Channel
	s.index = 0
	s.phase = PhaseStart
	s.stats = AnalogStats{}
	s.initialized = true

	s.ocu.ArmAbsolute(s.channel, 0, table.Offset(0))
	s.ocu.StartChannel(s.channel)
	s.ocu.EnableNotification(s.channel)
	return nil
}

// Deinit stops the trigger channel, stops a conversion still in flight and
// returns every channel to Initializing with value 0.
func (s *AnalogScheduler) Deinit() error {
	if !s.initialized {
		s.report(FaultNotInitialized, 0)
		return ErrNotInitialized
	}

	s.ocu.DisableNotification(s.channel)
	s.ocu.StopChannel(s.channel)

	state := disableInterrupts()
	if s.phase == PhaseRead {
		s.adc.StopGroupConversion(s.table.Descriptor(s.index).Group)
	}
	s.results.Reset(StatusInitializing)
	s.index = 0
	s.phase = PhaseStart
	s.initialized = false
	restoreInterrupts(state)
	return nil
}

// Initialized reports whether Init has succeeded and Deinit has not run since.
func (s *AnalogScheduler) Initialized() bool {
	return s.initialized
}
