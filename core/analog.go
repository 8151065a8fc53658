// Analog input scheduling.
// One output-compare channel drives the conversion groups of a shared ADC
// through a fixed cycle: every group is started at its time-trigger offset
// and harvested after its conversion estimate.
package core

// SchedPhase is the pending half of the conversion cycle for the current group.
type SchedPhase uint8

const (
	PhaseStart SchedPhase = iota // about to start the current group
	PhaseRead                    // conversion started, results pending
)

func (p SchedPhase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseRead:
		return "read"
	default:
		return "invalid(" + itoa(int(p)) + ")"
	}
}

// AnalogStats counts scheduler activity since Init.
type AnalogStats struct {
	Fires      uint32 // Timer firings handled
	Started    uint32 // Group conversions started
	Completed  uint32 // Group conversions harvested
	NotStarted uint32 // Starts skipped because the group was busy
	Overruns   uint32 // Conversions still busy at read time
	Faults     uint32 // Invalid-phase recoveries
}

// AnalogScheduler shares one ADC among the logical channels of an
// AnalogTable. OnTimerFired is the only writer of scheduling state and of
// the result table; it runs in the output-compare interrupt.
type AnalogScheduler struct {
	adc  ADCGroupDriver
	ocu  OCUDriver
	diag DiagnosticReporter

	table   *AnalogTable
	results *ResultTable
	channel OCUChannel

	phase       SchedPhase
	index       int
	initialized bool

	stats AnalogStats
}

// NewAnalogScheduler creates a scheduler bound to its collaborators.
// A nil diag reports into a private FaultRing.
func NewAnalogScheduler(adc ADCGroupDriver, ocu OCUDriver, diag DiagnosticReporter) *AnalogScheduler {
	if diag == nil {
		diag = &FaultRing{}
	}
	return &AnalogScheduler{
		adc:  adc,
		ocu:  ocu,
		diag: diag,
	}
}

// Phase returns the pending phase.
func (s *AnalogScheduler) Phase() SchedPhase {
	return s.phase
}

// Index returns the descriptor index of the group being serviced.
func (s *AnalogScheduler) Index() int {
	return s.index
}

// Table returns the active table, or nil before Init.
func (s *AnalogScheduler) Table() *AnalogTable {
	return s.table
}

// Stats returns a copy of the activity counters.
func (s *AnalogScheduler) Stats() AnalogStats {
	state := disableInterrupts()
	st := s.stats
	restoreInterrupts(state)
	return st
}

// OnTimerFired advances the state machine by one step. It is bound to the
// compare-match interrupt of the trigger channel and never blocks.
func (s *AnalogScheduler) OnTimerFired() {
	if !s.initialized {
		s.report(FaultSpuriousTimer, s.index)
		return
	}
	s.stats.Fires++

	d := s.table.Descriptor(s.index)
	switch s.phase {
	case PhaseStart:
		if s.adc.GroupStatus(d.Group) == GroupIdle {
			s.adc.StartGroupConversion(d.Group)
			s.ocu.ArmRelative(s.channel, d.ConversionTicks)
			s.phase = PhaseRead
			s.stats.Started++
			return
		}
		// Previous conversion of this group has not finished.
		s.stats.NotStarted++
		s.skipGroup(StatusNotStarted)

	case PhaseRead:
		status := s.adc.GroupStatus(d.Group)
		if status == GroupIdle {
			s.commitGroup()
		}
		s.adc.StopGroupConversion(d.Group)
		if status != GroupIdle {
			s.stats.Overruns++
			s.skipGroup(StatusErrorState)
			return
		}
		s.stats.Completed++

		prev := s.table.Offset(s.index)
		s.index = s.table.NextGroupStart(s.index)
		s.ocu.ArmAbsolute(s.channel, prev, s.table.Offset(s.index))
		s.phase = PhaseStart

	default:
		s.stats.Faults++
		s.report(FaultInvalidPhase, s.index)
		s.skipGroup(StatusNotInitialized)
	}
}

// commitGroup fans the group result buffer out to every descriptor of the
// current run.
func (s *AnalogScheduler) commitGroup() {
	start, end := s.table.Run(s.index)
	for i := start; i < end; i++ {
		d := s.table.Descriptor(i)
		s.results.Commit(i, d.ResultSlot[d.Position], StatusNoError)
	}
}

// markGroup sets status on every descriptor of the current run.
func (s *AnalogScheduler) markGroup(status ConversionStatus) {
	start, end := s.table.Run(s.index)
	for i := start; i < end; i++ {
		s.results.SetStatus(i, status)
	}
}

// skipGroup marks the current group, moves to the next one and re-anchors
// the timer on the absolute time-trigger offset of the new group, measured
// from cycle tick 0.
func (s *AnalogScheduler) skipGroup(status ConversionStatus) {
	s.markGroup(status)
	s.index = s.table.NextGroupStart(s.index)
	s.ocu.ArmAbsolute(s.channel, 0, s.table.Offset(s.index))
	s.phase = PhaseStart
}

func (s *AnalogScheduler) report(code FaultCode, index int) {
	f := Fault{Code: code, Index: uint8(index), Clock: GetTime()}
	if s.table != nil && index >= 0 && index < s.table.Len() {
		f.Group = uint8(s.table.Descriptor(index).Group)
	}
	s.diag.ReportFault(f)
}
