package core

import (
	"errors"
	"math/rand"
	"testing"
)

const (
	groupA ADCGroupID = 1
	groupB ADCGroupID = 2
	groupC ADCGroupID = 3

	testTrigger OCUChannel = 2
)

type ocuCall struct {
	op   string
	ch   OCUChannel
	a, b uint32
}

// fakeOCU records every call made by the scheduler
type fakeOCU struct {
	calls []ocuCall
}

func (o *fakeOCU) ArmAbsolute(ch OCUChannel, reference, target uint32) {
	o.calls = append(o.calls, ocuCall{"abs", ch, reference, target})
}
func (o *fakeOCU) ArmRelative(ch OCUChannel, ticks uint32) {
	o.calls = append(o.calls, ocuCall{"rel", ch, ticks, 0})
}
func (o *fakeOCU) StartChannel(ch OCUChannel) { o.calls = append(o.calls, ocuCall{"start", ch, 0, 0}) }
func (o *fakeOCU) StopChannel(ch OCUChannel)  { o.calls = append(o.calls, ocuCall{"stop", ch, 0, 0}) }
func (o *fakeOCU) EnableNotification(ch OCUChannel) {
	o.calls = append(o.calls, ocuCall{"enable", ch, 0, 0})
}
func (o *fakeOCU) DisableNotification(ch OCUChannel) {
	o.calls = append(o.calls, ocuCall{"disable", ch, 0, 0})
}

func (o *fakeOCU) last() ocuCall {
	if len(o.calls) == 0 {
		return ocuCall{}
	}
	return o.calls[len(o.calls)-1]
}

// fakeADC deposits preset values into the registered buffer on start and
// reports whatever status the test sets
type fakeADC struct {
	status   map[ADCGroupID]GroupStatus
	values   map[ADCGroupID][]ADCValue
	bufs     map[ADCGroupID][]ADCValue
	starts   map[ADCGroupID]int
	stops    map[ADCGroupID]int
	setupErr error
}

func newFakeADC() *fakeADC {
	return &fakeADC{
		status: make(map[ADCGroupID]GroupStatus),
		values: make(map[ADCGroupID][]ADCValue),
		bufs:   make(map[ADCGroupID][]ADCValue),
		starts: make(map[ADCGroupID]int),
		stops:  make(map[ADCGroupID]int),
	}
}

func (a *fakeADC) SetupResultBuffer(group ADCGroupID, buf []ADCValue) error {
	if a.setupErr != nil {
		return a.setupErr
	}
	a.bufs[group] = buf
	return nil
}

func (a *fakeADC) StartGroupConversion(group ADCGroupID) {
	a.starts[group]++
	copy(a.bufs[group], a.values[group])
}

func (a *fakeADC) StopGroupConversion(group ADCGroupID) {
	a.stops[group]++
}

func (a *fakeADC) GroupStatus(group ADCGroupID) GroupStatus {
	return a.status[group]
}

// scenarioConfig: D0 alone in group A, D1 and D2 share group B
func scenarioConfig() *AnalogConfig {
	return &AnalogConfig{
		Descriptors: []AnalogDescriptor{
			{Group: groupA, Position: 0, ConversionTicks: 50, TriggerSlot: 0},
			{Group: groupB, Position: 0, ConversionTicks: 50, TriggerSlot: 1},
			{Group: groupB, Position: 1, ConversionTicks: 50, TriggerSlot: 1},
		},
		Triggers: []TriggerChannelConfig{
			{Channel: testTrigger, Offsets: []uint32{6250, 12500}},
		},
		TriggerChannel: testTrigger,
	}
}

func newTestScheduler(t *testing.T, cfg *AnalogConfig) (*AnalogScheduler, *fakeADC, *fakeOCU, *FaultRing) {
	t.Helper()
	adc := newFakeADC()
	ocu := &fakeOCU{}
	ring := &FaultRing{}
	s := NewAnalogScheduler(adc, ocu, ring)
	if cfg != nil {
		if err := s.Init(cfg); err != nil {
			t.Fatalf("Init failed: %v", err)
		}
	}
	return s, adc, ocu, ring
}

func expectCall(t *testing.T, got, want ocuCall) {
	t.Helper()
	if got != want {
		t.Errorf("Expected OCU call %+v, got %+v", want, got)
	}
}

func expectStatus(t *testing.T, s *AnalogScheduler, id uint8, want ConversionStatus) {
	t.Helper()
	if got := s.ReadResult(id).Status; got != want {
		t.Errorf("Channel %d: expected status %v, got %v", id, want, got)
	}
}

func TestInitArmsFirstOffset(t *testing.T) {
	s, adc, ocu, _ := newTestScheduler(t, scenarioConfig())

	if len(ocu.calls) != 3 {
		t.Fatalf("Expected 3 OCU calls, got %+v", ocu.calls)
	}
	expectCall(t, ocu.calls[0], ocuCall{"abs", testTrigger, 0, 6250})
	expectCall(t, ocu.calls[1], ocuCall{"start", testTrigger, 0, 0})
	expectCall(t, ocu.calls[2], ocuCall{"enable", testTrigger, 0, 0})

	if len(adc.bufs) != 2 {
		t.Errorf("Expected one result buffer per group, got %d", len(adc.bufs))
	}
	if len(adc.bufs[groupB]) != 2 {
		t.Errorf("Expected group B buffer of 2, got %d", len(adc.bufs[groupB]))
	}
	for id := uint8(0); id < 3; id++ {
		expectStatus(t, s, id, StatusInitializing)
		if v, valid := s.Read(id); v != 0 || valid {
			t.Errorf("Channel %d: expected (0, false) before first conversion, got (%d, %v)", id, v, valid)
		}
	}
	if s.Phase() != PhaseStart || s.Index() != 0 {
		t.Errorf("Expected start phase at index 0, got %v at %d", s.Phase(), s.Index())
	}
}

func TestSchedulerNominalCycle(t *testing.T) {
	s, adc, ocu, _ := newTestScheduler(t, scenarioConfig())
	adc.values[groupA] = []ADCValue{100}
	adc.values[groupB] = []ADCValue{200, 300}

	// Firing 1: start group A, re-arm relative to its conversion time
	s.OnTimerFired()
	if adc.starts[groupA] != 1 {
		t.Fatalf("Expected group A started once, got %d", adc.starts[groupA])
	}
	expectCall(t, ocu.last(), ocuCall{"rel", testTrigger, 50, 0})
	if s.Phase() != PhaseRead || s.Index() != 0 {
		t.Fatalf("Expected read phase at index 0, got %v at %d", s.Phase(), s.Index())
	}

	// Firing 2: harvest group A, advance to group B
	s.OnTimerFired()
	if v, valid := s.Read(0); v != 100 || !valid {
		t.Errorf("Channel 0: expected (100, true), got (%d, %v)", v, valid)
	}
	if adc.stops[groupA] != 1 {
		t.Errorf("Expected group A stopped once, got %d", adc.stops[groupA])
	}
	expectCall(t, ocu.last(), ocuCall{"abs", testTrigger, 6250, 12500})
	if s.Phase() != PhaseStart || s.Index() != 1 {
		t.Fatalf("Expected start phase at index 1, got %v at %d", s.Phase(), s.Index())
	}

	// Firing 3: start group B
	s.OnTimerFired()
	if adc.starts[groupB] != 1 {
		t.Fatalf("Expected group B started once, got %d", adc.starts[groupB])
	}
	expectCall(t, ocu.last(), ocuCall{"rel", testTrigger, 50, 0})

	// Firing 4: one conversion fans out to D1 and D2, index wraps
	s.OnTimerFired()
	if v, valid := s.Read(1); v != 200 || !valid {
		t.Errorf("Channel 1: expected (200, true), got (%d, %v)", v, valid)
	}
	if v, valid := s.Read(2); v != 300 || !valid {
		t.Errorf("Channel 2: expected (300, true), got (%d, %v)", v, valid)
	}
	if adc.starts[groupB] != 1 {
		t.Errorf("Group B must be converted once for both channels, got %d starts", adc.starts[groupB])
	}
	expectCall(t, ocu.last(), ocuCall{"abs", testTrigger, 12500, 6250})
	if s.Phase() != PhaseStart || s.Index() != 0 {
		t.Errorf("Expected start phase at index 0, got %v at %d", s.Phase(), s.Index())
	}

	st := s.Stats()
	if st.Fires != 4 || st.Started != 2 || st.Completed != 2 {
		t.Errorf("Unexpected stats %+v", st)
	}
}

func TestSchedulerStartWhileBusy(t *testing.T) {
	s, adc, ocu, _ := newTestScheduler(t, scenarioConfig())

	s.OnTimerFired() // start A
	s.OnTimerFired() // read A

	adc.status[groupB] = GroupBusy
	s.OnTimerFired()

	if adc.starts[groupB] != 0 {
		t.Errorf("Busy group must not be started, got %d starts", adc.starts[groupB])
	}
	expectStatus(t, s, 1, StatusNotStarted)
	expectStatus(t, s, 2, StatusNotStarted)
	expectStatus(t, s, 0, StatusNoError)

	// Re-anchored on the absolute offset of the wrapped index
	expectCall(t, ocu.last(), ocuCall{"abs", testTrigger, 0, 6250})
	if s.Phase() != PhaseStart || s.Index() != 0 {
		t.Errorf("Expected start phase at index 0, got %v at %d", s.Phase(), s.Index())
	}
	if s.Stats().NotStarted != 1 {
		t.Errorf("Expected 1 NotStarted skip, got %d", s.Stats().NotStarted)
	}
}

func TestSchedulerReadOverrun(t *testing.T) {
	s, adc, ocu, _ := newTestScheduler(t, scenarioConfig())
	adc.values[groupB] = []ADCValue{11, 22}

	// One good cycle so group B holds valid values
	for i := 0; i < 4; i++ {
		s.OnTimerFired()
	}
	adc.values[groupB] = []ADCValue{99, 99}

	s.OnTimerFired() // start A
	s.OnTimerFired() // read A
	s.OnTimerFired() // start B
	adc.status[groupB] = GroupBusy
	s.OnTimerFired() // read B, still busy

	expectStatus(t, s, 1, StatusErrorState)
	expectStatus(t, s, 2, StatusErrorState)
	if r := s.ReadResult(1); r.Value != 11 {
		t.Errorf("Overrun must keep the previous value, got %d", r.Value)
	}
	if adc.stops[groupB] != 2 {
		t.Errorf("Expected overrunning group to be stopped, got %d stops", adc.stops[groupB])
	}
	expectCall(t, ocu.last(), ocuCall{"abs", testTrigger, 0, 6250})
	if s.Stats().Overruns != 1 {
		t.Errorf("Expected 1 overrun, got %d", s.Stats().Overruns)
	}
}

func TestSchedulerInvalidPhaseRecovers(t *testing.T) {
	s, _, ocu, ring := newTestScheduler(t, scenarioConfig())

	s.OnTimerFired() // start A
	s.OnTimerFired() // read A -> index 1
	s.phase = SchedPhase(7)

	s.OnTimerFired()

	f, ok := ring.Last()
	if !ok || f.Code != FaultInvalidPhase || f.Index != 1 || f.Group != uint8(groupB) {
		t.Errorf("Expected INVALID_PHASE fault for index 1 group B, got %+v", f)
	}
	expectStatus(t, s, 1, StatusNotInitialized)
	expectStatus(t, s, 2, StatusNotInitialized)
	expectCall(t, ocu.last(), ocuCall{"abs", testTrigger, 0, 6250})
	if s.Phase() != PhaseStart || s.Index() != 0 {
		t.Errorf("Expected start phase at index 0, got %v at %d", s.Phase(), s.Index())
	}
}

func TestFanOutSharedPosition(t *testing.T) {
	cfg := &AnalogConfig{
		Descriptors: []AnalogDescriptor{
			{Group: groupA, Position: 0, ConversionTicks: 10, TriggerSlot: 0},
			{Group: groupA, Position: 0, ConversionTicks: 10, TriggerSlot: 0},
		},
		Triggers:       []TriggerChannelConfig{{Channel: testTrigger, Offsets: []uint32{1000}}},
		TriggerChannel: testTrigger,
	}
	s, adc, ocu, _ := newTestScheduler(t, cfg)
	adc.values[groupA] = []ADCValue{4095}

	s.OnTimerFired()
	s.OnTimerFired()

	v1, ok1 := s.Read(0)
	v2, ok2 := s.Read(1)
	if v1 != v2 || !ok1 || !ok2 {
		t.Errorf("Aliased channels differ: (%d, %v) vs (%d, %v)", v1, ok1, v2, ok2)
	}
	// Single group: the next trigger is the same offset in the next cycle
	expectCall(t, ocu.last(), ocuCall{"abs", testTrigger, 1000, 1000})
}

func TestIndexAlwaysAtGroupStart(t *testing.T) {
	cfg := &AnalogConfig{
		Descriptors: []AnalogDescriptor{
			{Group: groupA, Position: 0, ConversionTicks: 10, TriggerSlot: 0},
			{Group: groupA, Position: 1, ConversionTicks: 10, TriggerSlot: 0},
			{Group: groupB, Position: 0, ConversionTicks: 10, TriggerSlot: 1},
			{Group: groupC, Position: 2, ConversionTicks: 10, TriggerSlot: 2},
			{Group: groupC, Position: 0, ConversionTicks: 10, TriggerSlot: 2},
			{Group: groupC, Position: 1, ConversionTicks: 10, TriggerSlot: 2},
		},
		Triggers:       []TriggerChannelConfig{{Channel: testTrigger, Offsets: []uint32{100, 200, 300}}},
		TriggerChannel: testTrigger,
	}
	s, adc, _, _ := newTestScheduler(t, cfg)

	rng := rand.New(rand.NewSource(1))
	groups := []ADCGroupID{groupA, groupB, groupC}
	for i := 0; i < 1000; i++ {
		for _, g := range groups {
			if rng.Intn(4) == 0 {
				adc.status[g] = GroupBusy
			} else {
				adc.status[g] = GroupIdle
			}
		}
		if i%97 == 0 {
			s.phase = SchedPhase(rng.Intn(4))
		}
		s.OnTimerFired()
		if !s.Table().IsGroupStart(s.Index()) {
			t.Fatalf("Firing %d left index %d inside a group", i, s.Index())
		}
	}
}

func TestReadIsIdempotent(t *testing.T) {
	s, adc, _, _ := newTestScheduler(t, scenarioConfig())
	adc.values[groupA] = []ADCValue{1234}
	s.OnTimerFired()
	s.OnTimerFired()

	r1 := s.ReadResult(0)
	r2 := s.ReadResult(0)
	if r1 != r2 {
		t.Errorf("Two reads without a firing differ: %+v vs %+v", r1, r2)
	}
}

func TestReadInvalidChannel(t *testing.T) {
	s, _, _, ring := newTestScheduler(t, scenarioConfig())

	if v, valid := s.Read(3); v != 0 || valid {
		t.Errorf("Expected (0, false) for unknown channel, got (%d, %v)", v, valid)
	}
	expectStatus(t, s, 200, StatusInvalid)
	if f, _ := ring.Last(); f.Code != FaultInvalidChannel || f.Index != 200 {
		t.Errorf("Expected INVALID_CHANNEL fault for 200, got %+v", f)
	}
}

func TestInitNilConfig(t *testing.T) {
	s, _, ocu, ring := newTestScheduler(t, nil)

	if err := s.Init(nil); err != ErrNilConfig {
		t.Fatalf("Expected ErrNilConfig, got %v", err)
	}
	if len(ocu.calls) != 0 {
		t.Errorf("Timer must not be touched on a nil config, got %+v", ocu.calls)
	}
	if s.Initialized() {
		t.Error("Scheduler reports initialized after a failed Init")
	}
	if f, _ := ring.Last(); f.Code != FaultNilConfig {
		t.Errorf("Expected NIL_CONFIG fault, got %+v", f)
	}
	if r := s.ReadResult(0); r.Status != StatusNotInitialized {
		t.Errorf("Expected NotInitialized before Init, got %v", r.Status)
	}
}

func TestInitRejectsBadConfig(t *testing.T) {
	testCases := []struct {
		name string
		edit func(cfg *AnalogConfig)
		err  error
	}{
		{"unknown trigger channel", func(cfg *AnalogConfig) { cfg.TriggerChannel = 9 }, ErrUnknownTrigger},
		{"empty table", func(cfg *AnalogConfig) { cfg.Descriptors = nil }, ErrEmptyTable},
		{"slot out of range", func(cfg *AnalogConfig) { cfg.Descriptors[0].TriggerSlot = 5 }, ErrTriggerSlotRange},
		{"split group", func(cfg *AnalogConfig) { cfg.Descriptors[2].Group = groupA }, ErrGroupNotContiguous},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := scenarioConfig()
			tc.edit(cfg)
			s, _, ocu, ring := newTestScheduler(t, nil)

			if err := s.Init(cfg); err != tc.err {
				t.Fatalf("Expected %v, got %v", tc.err, err)
			}
			if len(ocu.calls) != 0 {
				t.Errorf("Timer must not be touched, got %+v", ocu.calls)
			}
			if f, _ := ring.Last(); f.Code != FaultInvalidConfig {
				t.Errorf("Expected INVALID_CONFIG fault, got %+v", f)
			}
		})
	}
}

func TestInitBufferSetupFailure(t *testing.T) {
	s, adc, ocu, ring := newTestScheduler(t, nil)
	adc.setupErr = errors.New("dma busy")

	if err := s.Init(scenarioConfig()); err != adc.setupErr {
		t.Fatalf("Expected setup error, got %v", err)
	}
	if len(ocu.calls) != 0 {
		t.Errorf("Timer must not be touched, got %+v", ocu.calls)
	}
	if f, _ := ring.Last(); f.Code != FaultBufferSetup {
		t.Errorf("Expected BUFFER_SETUP fault, got %+v", f)
	}
	expectStatus(t, s, 0, StatusNotInitialized)
}

func TestInitSetupFailureAfterDeinit(t *testing.T) {
	s, adc, _, _ := newTestScheduler(t, scenarioConfig())
	if err := s.Deinit(); err != nil {
		t.Fatal(err)
	}

	adc.setupErr = errors.New("dma busy")
	small := &AnalogConfig{
		Descriptors: []AnalogDescriptor{{Group: groupA, ConversionTicks: 10}},
		Triggers:    []TriggerChannelConfig{{Channel: 0, Offsets: []uint32{100}}},
	}
	if err := s.Init(small); err != adc.setupErr {
		t.Fatalf("Expected setup error, got %v", err)
	}

	if s.Table().Len() != 1 || s.Table().Groups() != 1 {
		t.Errorf("Table must describe the failed config, got %d channels in %d groups",
			s.Table().Len(), s.Table().Groups())
	}
	expectStatus(t, s, 0, StatusNotInitialized)
	expectStatus(t, s, 2, StatusInvalid)
	if s.Initialized() {
		t.Error("Scheduler must not be initialized after a setup failure")
	}
}

func TestInitTwice(t *testing.T) {
	s, _, _, ring := newTestScheduler(t, scenarioConfig())

	if err := s.Init(scenarioConfig()); err != ErrAlreadyInitialized {
		t.Errorf("Expected ErrAlreadyInitialized, got %v", err)
	}
	if f, _ := ring.Last(); f.Code != FaultAlreadyInitialized {
		t.Errorf("Expected ALREADY_INIT fault, got %+v", f)
	}
}

func TestDeinit(t *testing.T) {
	s, adc, ocu, ring := newTestScheduler(t, scenarioConfig())
	adc.values[groupA] = []ADCValue{77}

	s.OnTimerFired()
	s.OnTimerFired()
	s.OnTimerFired() // group B in flight
	ocu.calls = nil

	if err := s.Deinit(); err != nil {
		t.Fatalf("Deinit failed: %v", err)
	}
	if len(ocu.calls) != 2 {
		t.Fatalf("Expected disable and stop, got %+v", ocu.calls)
	}
	expectCall(t, ocu.calls[0], ocuCall{"disable", testTrigger, 0, 0})
	expectCall(t, ocu.calls[1], ocuCall{"stop", testTrigger, 0, 0})
	if adc.stops[groupB] != 1 {
		t.Errorf("Expected conversion in flight to be stopped, got %d stops", adc.stops[groupB])
	}
	for id := uint8(0); id < 3; id++ {
		expectStatus(t, s, id, StatusInitializing)
		if r := s.ReadResult(id); r.Value != 0 {
			t.Errorf("Channel %d: expected value 0 after Deinit, got %d", id, r.Value)
		}
	}
	if s.Phase() != PhaseStart || s.Index() != 0 {
		t.Errorf("Expected reset state, got %v at %d", s.Phase(), s.Index())
	}

	if err := s.Deinit(); err != ErrNotInitialized {
		t.Errorf("Expected ErrNotInitialized on second Deinit, got %v", err)
	}
	if f, _ := ring.Last(); f.Code != FaultNotInitialized {
		t.Errorf("Expected NOT_INIT fault, got %+v", f)
	}

	// Firing after teardown does nothing but report
	starts := adc.starts[groupA]
	s.OnTimerFired()
	if adc.starts[groupA] != starts {
		t.Error("Scheduler ran after Deinit")
	}
	if f, _ := ring.Last(); f.Code != FaultSpuriousTimer {
		t.Errorf("Expected SPURIOUS_TIMER fault, got %+v", f)
	}

	if err := s.Init(scenarioConfig()); err != nil {
		t.Errorf("Re-Init after Deinit failed: %v", err)
	}
}
