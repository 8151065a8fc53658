package core

import "errors"

var (
	ErrNilConfig          = errors.New("analog config is nil")
	ErrEmptyTable         = errors.New("analog descriptor table is empty")
	ErrTableTooLarge      = errors.New("analog descriptor table exceeds 255 entries")
	ErrGroupNotContiguous = errors.New("descriptors of a conversion group are not contiguous")
	ErrTriggerSlotRange   = errors.New("trigger slot index outside time-trigger table")
	ErrTriggerSlotMixed   = errors.New("descriptors of one group use different trigger slots")
	ErrTriggerSlotShared  = errors.New("conversion groups share a trigger slot")
	ErrZeroConvTicks      = errors.New("conversion ticks must be greater than 0")
	ErrPositionRange      = errors.New("position outside the group result buffer")
	ErrResultSlotMixed    = errors.New("descriptors of one group use different result buffers")
	ErrUnknownTrigger     = errors.New("trigger channel not found in configuration")
)

// AnalogDescriptor is the static configuration of one logical analog channel.
// The logical channel id is the descriptor's index in the table.
type AnalogDescriptor struct {
	Group           ADCGroupID // Physical conversion group
	Position        uint8      // Index of this channel in the group result
	ConversionTicks uint32     // Worst-case conversion time in timer ticks
	ResultSlot      []ADCValue // Group result buffer, shared by the group (nil = allocated)
	TriggerSlot     uint8      // Index into the time-trigger table
}

// TriggerChannelConfig binds an output-compare channel to its time-trigger table.
type TriggerChannelConfig struct {
	Channel OCUChannel
	Offsets []uint32 // Start offset of each group, in ticks from cycle start
}

// AnalogConfig is the complete static analog input configuration.
type AnalogConfig struct {
	Descriptors    []AnalogDescriptor
	Triggers       []TriggerChannelConfig
	TriggerChannel OCUChannel // Channel dedicated to the scheduler
}

// Trigger resolves the time-trigger table of the configured trigger channel.
func (c *AnalogConfig) Trigger() (*TriggerChannelConfig, error) {
	for i := range c.Triggers {
		if c.Triggers[i].Channel == c.TriggerChannel {
			return &c.Triggers[i], nil
		}
	}
	return nil, ErrUnknownTrigger
}

// AnalogTable is a read-only view over the descriptor and time-trigger
// tables. Group runs are resolved once so the interrupt path never
// re-derives group boundaries.
type AnalogTable struct {
	descs   []AnalogDescriptor
	offsets []uint32

	// runStart[i] is the first index of the run containing i,
	// runEnd[i] is one past its last index.
	runStart []uint8
	runEnd   []uint8
	runs     int
}

// NewAnalogTable validates the descriptors against the time-trigger offsets
// and builds the group-run view. Descriptors without a ResultSlot get a
// buffer allocated per group.
func NewAnalogTable(descs []AnalogDescriptor, offsets []uint32) (*AnalogTable, error) {
	n := len(descs)
	if n == 0 {
		return nil, ErrEmptyTable
	}
	if n > 255 {
		return nil, ErrTableTooLarge
	}

	t := &AnalogTable{
		descs:    make([]AnalogDescriptor, n),
		offsets:  offsets,
		runStart: make([]uint8, n),
		runEnd:   make([]uint8, n),
	}
	copy(t.descs, descs)

	seen := make(map[ADCGroupID]bool)
	claimed := make(map[uint8]bool)
	for start := 0; start < n; {
		group := t.descs[start].Group
		if seen[group] {
			return nil, ErrGroupNotContiguous
		}
		seen[group] = true

		end := start + 1
		for end < n && t.descs[end].Group == group {
			end++
		}
		if err := t.resolveRun(start, end); err != nil {
			return nil, err
		}
		slot := t.descs[start].TriggerSlot
		if claimed[slot] {
			return nil, ErrTriggerSlotShared
		}
		claimed[slot] = true
		for i := start; i < end; i++ {
			t.runStart[i] = uint8(start)
			t.runEnd[i] = uint8(end)
		}
		t.runs++
		start = end
	}
	return t, nil
}

// resolveRun checks one group run and attaches its shared result buffer.
func (t *AnalogTable) resolveRun(start, end int) error {
	first := &t.descs[start]
	var buf []ADCValue
	maxPos := 0
	for i := start; i < end; i++ {
		d := &t.descs[i]
		if int(d.TriggerSlot) >= len(t.offsets) {
			return ErrTriggerSlotRange
		}
		if d.TriggerSlot != first.TriggerSlot {
			return ErrTriggerSlotMixed
		}
		if d.ConversionTicks == 0 {
			return ErrZeroConvTicks
		}
		if int(d.Position) > maxPos {
			maxPos = int(d.Position)
		}
		if d.ResultSlot == nil {
			continue
		}
		if buf == nil {
			buf = d.ResultSlot
		} else if !sameBuffer(buf, d.ResultSlot) {
			return ErrResultSlotMixed
		}
	}

	if buf == nil {
		buf = make([]ADCValue, maxPos+1)
	}
	if maxPos >= len(buf) {
		return ErrPositionRange
	}
	for i := start; i < end; i++ {
		if t.descs[i].ResultSlot != nil && !sameBuffer(buf, t.descs[i].ResultSlot) {
			return ErrResultSlotMixed
		}
		t.descs[i].ResultSlot = buf
	}
	return nil
}

func sameBuffer(a, b []ADCValue) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	return &a[0] == &b[0]
}

// Len returns the number of logical channels.
func (t *AnalogTable) Len() int {
	return len(t.descs)
}

// Groups returns the number of distinct conversion groups.
func (t *AnalogTable) Groups() int {
	return t.runs
}

// Descriptor returns the descriptor of logical channel i.
func (t *AnalogTable) Descriptor(i int) *AnalogDescriptor {
	return &t.descs[i]
}

// Run returns the bounds [start, end) of the group run containing i.
func (t *AnalogTable) Run(i int) (start, end int) {
	return int(t.runStart[i]), int(t.runEnd[i])
}

// IsGroupStart reports whether i is the first descriptor of its group.
func (t *AnalogTable) IsGroupStart(i int) bool {
	return i >= 0 && i < len(t.descs) && int(t.runStart[i]) == i
}

// NextGroupStart returns the first index of the group after the one
// containing i, wrapping to 0 past the end of the table.
func (t *AnalogTable) NextGroupStart(i int) int {
	next := int(t.runEnd[i])
	if next >= len(t.descs) {
		return 0
	}
	return next
}

// Offset returns the time-trigger offset of the group containing i.
func (t *AnalogTable) Offset(i int) uint32 {
	return t.offsets[t.descs[i].TriggerSlot]
}

// ForEachGroup calls fn with the first descriptor index of every group.
func (t *AnalogTable) ForEachGroup(fn func(start int, d *AnalogDescriptor)) {
	for i := 0; i < len(t.descs); i = int(t.runEnd[i]) {
		fn(i, &t.descs[i])
	}
}
