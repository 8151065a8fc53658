//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"

	"iohwab/core"
)

// alarmBit is TIMER alarm 3; the TinyGo runtime keeps alarm 0 for sleep
const alarmBit = 1 << 3

// alarmOCU implements core.OCUDriver on TIMER alarm 3. It serves a
// single output-compare channel.
type alarmOCU struct {
	ch      core.OCUChannel
	clock   core.CycleClock
	started bool
	enabled bool
	pending uint32
	armed   bool
}

var boardOCU *alarmOCU

func newAlarmOCU(ch core.OCUChannel, cycleTicks uint32) *alarmOCU {
	o := &alarmOCU{ch: ch, clock: core.CycleClock{Period: cycleTicks}}
	boardOCU = o

	intr := interrupt.New(rp.IRQ_TIMER_IRQ_3, func(interrupt.Interrupt) {
		timerIntr.Set(alarmBit)
		UpdateSystemTime()
		if boardOCU.started && boardOCU.enabled {
			core.AnalogTimerISR()
		}
	})
	intr.Enable()
	return o
}

func (o *alarmOCU) arm(deadline uint32) {
	// Writing the alarm register arms it
	timerAlarm.Set(deadline)
}

func (o *alarmOCU) ArmAbsolute(ch core.OCUChannel, reference, target uint32) {
	if ch != o.ch {
		return
	}
	if !o.started {
		o.pending, o.armed = target, true
		return
	}
	deadline, _ := o.clock.Absolute(GetHardwareTime(), reference, target)
	o.arm(deadline)
}

func (o *alarmOCU) ArmRelative(ch core.OCUChannel, ticks uint32) {
	if ch != o.ch {
		return
	}
	if !o.started {
		o.pending, o.armed = ticks, true
		return
	}
	o.arm(o.clock.Relative(GetHardwareTime(), ticks))
}

func (o *alarmOCU) StartChannel(ch core.OCUChannel) {
	if ch != o.ch {
		return
	}
	now := GetHardwareTime()
	o.started = true
	if !o.armed {
		o.clock.Start(now)
		return
	}
	o.armed = false
	o.arm(o.clock.Begin(now, o.pending))
}

func (o *alarmOCU) StopChannel(ch core.OCUChannel) {
	if ch != o.ch {
		return
	}
	o.started = false
	o.armed = false
	timerArmed.Set(alarmBit) // write 1 to disarm
	timerIntr.Set(alarmBit)
}

func (o *alarmOCU) EnableNotification(ch core.OCUChannel) {
	if ch != o.ch {
		return
	}
	o.enabled = true
	timerInte.SetBits(alarmBit)
}

func (o *alarmOCU) DisableNotification(ch core.OCUChannel) {
	if ch != o.ch {
		return
	}
	o.enabled = false
	timerInte.ClearBits(alarmBit)
}
