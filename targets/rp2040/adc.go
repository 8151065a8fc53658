//go:build rp2040

package main

import (
	"device/rp"
	"machine"

	"iohwab/core"
)

// rpGroup is one conversion group on the internal ADC: the inputs are
// sampled round robin into the FIFO, one per position.
type rpGroup struct {
	inputs  []uint8 // ADC input per position, ascending
	buf     []core.ADCValue
	running bool
}

// RpAdcDriver implements core.ADCGroupDriver on the RP2040 ADC. Only one
// group converts at a time because the FIFO is shared.
type RpAdcDriver struct {
	groups map[core.ADCGroupID]*rpGroup
	active *rpGroup
	spi    *spiGroup
	spiID  core.ADCGroupID
}

// NewRPAdcDriver powers the ADC and binds each internal group to its inputs
func NewRPAdcDriver(groups map[core.ADCGroupID][]uint8) *RpAdcDriver {
	machine.InitADC()

	d := &RpAdcDriver{groups: make(map[core.ADCGroupID]*rpGroup)}
	for id, inputs := range groups {
		for _, in := range inputs {
			if in == 4 {
				rp.ADC.CS.SetBits(rp.ADC_CS_TS_EN) // Temperature sensor
			} else if in < 4 {
				adc := machine.ADC{Pin: machine.ADC0 + machine.Pin(in)}
				adc.Configure(machine.ADCConfig{})
			}
		}
		d.groups[id] = &rpGroup{inputs: inputs}
	}
	return d
}

// AttachSPI serves group id from an external SPI converter
func (d *RpAdcDriver) AttachSPI(id core.ADCGroupID, g *spiGroup) {
	d.spiID, d.spi = id, g
}

func (d *RpAdcDriver) SetupResultBuffer(group core.ADCGroupID, buf []core.ADCValue) error {
	if d.spi != nil && group == d.spiID {
		return d.spi.setup(buf)
	}
	g, ok := d.groups[group]
	if !ok || len(buf) > len(g.inputs) {
		return errUnknownGroup
	}
	g.buf = buf
	return nil
}

func (d *RpAdcDriver) StartGroupConversion(group core.ADCGroupID) {
	if d.spi != nil && group == d.spiID {
		d.spi.convert()
		return
	}
	g, ok := d.groups[group]
	if !ok || d.active != nil || len(g.buf) == 0 {
		return
	}

	var mask uint32
	for _, in := range g.inputs[:len(g.buf)] {
		mask |= 1 << in
	}
	drainFIFO()
	rp.ADC.FCS.SetBits(rp.ADC_FCS_EN)
	rp.ADC.CS.ReplaceBits(uint32(g.inputs[0])<<rp.ADC_CS_AINSEL_Pos, rp.ADC_CS_AINSEL_Msk, 0)
	rp.ADC.CS.ReplaceBits(mask<<rp.ADC_CS_RROBIN_Pos, rp.ADC_CS_RROBIN_Msk, 0)
	rp.ADC.CS.SetBits(rp.ADC_CS_START_MANY)

	g.running = true
	d.active = g
}

func (d *RpAdcDriver) StopGroupConversion(group core.ADCGroupID) {
	if d.spi != nil && group == d.spiID {
		d.spi.stop()
		return
	}
	g, ok := d.groups[group]
	if !ok || !g.running {
		return
	}
	d.halt(g)
}

// GroupStatus collects the FIFO once every position has a sample
func (d *RpAdcDriver) GroupStatus(group core.ADCGroupID) core.GroupStatus {
	if d.spi != nil && group == d.spiID {
		return d.spi.status()
	}
	g, ok := d.groups[group]
	if !ok || !g.running {
		return core.GroupIdle
	}
	level := (rp.ADC.FCS.Get() & rp.ADC_FCS_LEVEL_Msk) >> rp.ADC_FCS_LEVEL_Pos
	if int(level) < len(g.buf) {
		return core.GroupBusy
	}
	for i := range g.buf {
		g.buf[i] = core.ADCValue(rp.ADC.FIFO.Get() & 0x0FFF)
	}
	d.halt(g)
	return core.GroupIdle
}

func (d *RpAdcDriver) halt(g *rpGroup) {
	rp.ADC.CS.ClearBits(rp.ADC_CS_START_MANY)
	for !rp.ADC.CS.HasBits(rp.ADC_CS_READY) {
	}
	rp.ADC.CS.ReplaceBits(0, rp.ADC_CS_RROBIN_Msk, 0)
	drainFIFO()
	g.running = false
	d.active = nil
}

func drainFIFO() {
	for rp.ADC.FCS.Get()&rp.ADC_FCS_EMPTY == 0 {
		rp.ADC.FIFO.Get()
	}
}
