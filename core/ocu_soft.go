package core

// softChannel is one output-compare channel emulated on the timer list.
type softChannel struct {
	timer   Timer
	clock   CycleClock
	handler func()
	started bool
	enabled bool
	armed   bool
	pending uint32 // offset armed before the channel was started
	late    uint32
}

// SoftOCU implements OCUDriver on the software timer list. Host builds and
// tests drive it with ProcessTimers or AdvanceTime.
type SoftOCU struct {
	channels map[OCUChannel]*softChannel
	period   uint32
}

// NewSoftOCU creates a driver whose cycles are period ticks long.
func NewSoftOCU(period uint32) *SoftOCU {
	return &SoftOCU{
		channels: make(map[OCUChannel]*softChannel),
		period:   period,
	}
}

// Attach binds the compare-match handler of ch.
func (o *SoftOCU) Attach(ch OCUChannel, handler func()) {
	o.channel(ch).handler = handler
}

func (o *SoftOCU) channel(ch OCUChannel) *softChannel {
	c, ok := o.channels[ch]
	if !ok {
		c = &softChannel{clock: CycleClock{Period: o.period}}
		c.timer.Handler = func(*Timer) uint8 {
			c.armed = false
			if c.started && c.enabled && c.handler != nil {
				c.handler()
			}
			return SF_DONE
		}
		o.channels[ch] = c
	}
	return c
}

func (o *SoftOCU) ArmAbsolute(ch OCUChannel, reference, target uint32) {
	c := o.channel(ch)
	if !c.started {
		c.pending, c.armed = target, true
		return
	}
	deadline, late := c.clock.Absolute(GetTime(), reference, target)
	if late {
		c.late++
	}
	c.arm(deadline)
}

func (o *SoftOCU) ArmRelative(ch OCUChannel, ticks uint32) {
	c := o.channel(ch)
	if !c.started {
		c.pending, c.armed = ticks, true
		return
	}
	c.arm(c.clock.Relative(GetTime(), ticks))
}

func (c *softChannel) arm(deadline uint32) {
	c.timer.WakeTime = deadline
	c.armed = true
	ScheduleTimer(&c.timer)
}

func (o *SoftOCU) StartChannel(ch OCUChannel) {
	c := o.channel(ch)
	if c.started {
		return
	}
	now := GetTime()
	c.started = true
	if !c.armed {
		c.clock.Start(now)
		return
	}
	c.arm(c.clock.Begin(now, c.pending))
}

func (o *SoftOCU) StopChannel(ch OCUChannel) {
	c := o.channel(ch)
	c.started = false
	c.armed = false
	CancelTimer(&c.timer)
}

func (o *SoftOCU) EnableNotification(ch OCUChannel) {
	o.channel(ch).enabled = true
}

func (o *SoftOCU) DisableNotification(ch OCUChannel) {
	o.channel(ch).enabled = false
}

// Deadline returns the armed compare value of ch.
func (o *SoftOCU) Deadline(ch OCUChannel) (uint32, bool) {
	c := o.channel(ch)
	return c.timer.WakeTime, c.armed
}

// LateArms returns how many absolute arms of ch had to skip a cycle.
func (o *SoftOCU) LateArms(ch OCUChannel) uint32 {
	return o.channel(ch).late
}

// CycleStart returns the counter value of tick 0 of the current cycle of ch.
func (o *SoftOCU) CycleStart(ch OCUChannel) uint32 {
	return o.channel(ch).clock.CycleStart()
}
