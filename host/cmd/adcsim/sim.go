package main

import (
	"fmt"

	"iohwab/config"
	"iohwab/core"
)

// groupMux routes each conversion group to its driver
type groupMux struct {
	fallback core.ADCGroupDriver
	groups   map[core.ADCGroupID]core.ADCGroupDriver
}

func newGroupMux(fallback core.ADCGroupDriver) *groupMux {
	return &groupMux{fallback: fallback, groups: make(map[core.ADCGroupID]core.ADCGroupDriver)}
}

func (m *groupMux) route(g core.ADCGroupID, d core.ADCGroupDriver) {
	m.groups[g] = d
}

func (m *groupMux) driver(g core.ADCGroupID) core.ADCGroupDriver {
	if d, ok := m.groups[g]; ok {
		return d
	}
	return m.fallback
}

func (m *groupMux) SetupResultBuffer(g core.ADCGroupID, buf []core.ADCValue) error {
	return m.driver(g).SetupResultBuffer(g, buf)
}

func (m *groupMux) StartGroupConversion(g core.ADCGroupID) { m.driver(g).StartGroupConversion(g) }
func (m *groupMux) StopGroupConversion(g core.ADCGroupID)  { m.driver(g).StopGroupConversion(g) }

func (m *groupMux) GroupStatus(g core.ADCGroupID) core.GroupStatus {
	return m.driver(g).GroupStatus(g)
}

type runResult struct {
	results  []core.ConversionResult
	stats    core.AnalogStats
	lateArms uint32
	trace    []string
}

// run drives the scheduler on the software output-compare channel for the
// given number of cycles, in simulated time.
func run(cfg *config.Config, adc core.ADCGroupDriver, diag core.DiagnosticReporter, cycles int, verbose bool) runResult {
	core.ResetTimers()
	core.SetTime(0)

	ch := core.OCUChannel(cfg.TriggerChannel)
	ocu := core.NewSoftOCU(cfg.CycleTicks)
	s := core.NewAnalogScheduler(adc, ocu, diag)

	var res runResult
	ocu.Attach(ch, func() {
		phase, idx := s.Phase(), s.Index()
		s.OnTimerFired()
		line := fmt.Sprintf("%10d  %-5s idx=%d -> %-5s idx=%d", core.GetTime(), phase, idx, s.Phase(), s.Index())
		res.trace = append(res.trace, line)
		if verbose {
			fmt.Println(line)
		}
	})

	ac := cfg.AnalogConfig()
	if err := s.Init(ac); err != nil {
		res.trace = append(res.trace, "init: "+err.Error())
		return res
	}
	for c := 0; c < cycles; c++ {
		core.AdvanceTime(cfg.CycleTicks)
	}
	for i := range ac.Descriptors {
		res.results = append(res.results, s.ReadResult(uint8(i)))
	}
	res.stats = s.Stats()
	res.lateArms = ocu.LateArms(ch)
	s.Deinit()
	return res
}
