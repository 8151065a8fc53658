package core

// SampleFunc produces the value of one channel of a simulated group.
type SampleFunc func(group ADCGroupID, position int, clock uint32) ADCValue

type simGroup struct {
	buf       []ADCValue
	running   bool
	doneAt    uint32
	forceBusy bool
}

// SimADC implements ADCGroupDriver for host builds. A started group stays
// busy for ConvTicks and then deposits Sample values into its buffer.
type SimADC struct {
	ConvTicks uint32
	Sample    SampleFunc

	groups map[ADCGroupID]*simGroup
	starts map[ADCGroupID]uint32
}

// NewSimADC creates a simulated converter with the given conversion time.
func NewSimADC(convTicks uint32, sample SampleFunc) *SimADC {
	if sample == nil {
		sample = func(ADCGroupID, int, uint32) ADCValue { return 0 }
	}
	return &SimADC{
		ConvTicks: convTicks,
		Sample:    sample,
		groups:    make(map[ADCGroupID]*simGroup),
		starts:    make(map[ADCGroupID]uint32),
	}
}

func (a *SimADC) group(g ADCGroupID) *simGroup {
	sg, ok := a.groups[g]
	if !ok {
		sg = &simGroup{}
		a.groups[g] = sg
	}
	return sg
}

func (a *SimADC) SetupResultBuffer(group ADCGroupID, buf []ADCValue) error {
	a.group(group).buf = buf
	return nil
}

func (a *SimADC) StartGroupConversion(group ADCGroupID) {
	sg := a.group(group)
	sg.running = true
	sg.doneAt = GetTime() + a.ConvTicks
	a.starts[group]++
}

func (a *SimADC) StopGroupConversion(group ADCGroupID) {
	sg := a.group(group)
	sg.running = false
}

func (a *SimADC) GroupStatus(group ADCGroupID) GroupStatus {
	sg := a.group(group)
	if sg.forceBusy {
		return GroupBusy
	}
	if !sg.running {
		return GroupIdle
	}
	now := GetTime()
	if timeBefore(now, sg.doneAt) {
		return GroupBusy
	}
	// Conversion finished: deposit the values once.
	for i := range sg.buf {
		sg.buf[i] = a.Sample(group, i, sg.doneAt)
	}
	sg.running = false
	return GroupIdle
}

// ForceBusy makes a group report busy until cleared, as a stuck converter would.
func (a *SimADC) ForceBusy(group ADCGroupID, busy bool) {
	a.group(group).forceBusy = busy
}

// Starts returns how many conversions of group were started.
func (a *SimADC) Starts(group ADCGroupID) uint32 {
	return a.starts[group]
}
