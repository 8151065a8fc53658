package core

// CycleClock maps time-trigger offsets onto a free-running 32-bit tick
// counter. Offsets are measured from the start of a repeating cycle of
// Period ticks; the clock remembers where the current cycle began.
type CycleClock struct {
	Period uint32
	start  uint32
}

// Start anchors cycle tick 0 at now.
func (c *CycleClock) Start(now uint32) {
	c.start = now
}

// Begin starts the first cycle for a channel armed at offset and returns
// its first deadline. A compare cannot match at now, so an offset of 0
// moves tick 0 to now+1 and the first firing still lands on tick 0.
func (c *CycleClock) Begin(now, offset uint32) uint32 {
	if offset == 0 {
		now++
	}
	c.start = now
	return now + offset
}

// CycleStart returns the counter value of the current cycle's tick 0.
func (c *CycleClock) CycleStart() uint32 {
	return c.start
}

// Absolute returns the counter value at which offset target is reached.
// A target at or before reference lies in the next cycle. If the deadline
// has already passed it moves forward whole cycles; late reports that.
func (c *CycleClock) Absolute(now, reference, target uint32) (deadline uint32, late bool) {
	if c.Period == 0 {
		return now + 1, true
	}
	if target <= reference {
		c.start += c.Period
	}
	deadline = c.start + target
	for !timeBefore(now, deadline) {
		c.start += c.Period
		deadline = c.start + target
		late = true
	}
	return deadline, late
}

// Relative returns the counter value ticks after now.
func (c *CycleClock) Relative(now, ticks uint32) uint32 {
	if ticks == 0 {
		ticks = 1
	}
	return now + ticks
}
