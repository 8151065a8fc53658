//go:build rp2040

package main

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers/mcp3008"

	"iohwab/core"
)

var errUnknownGroup = errors.New("no converter serves this group")

// spiBusConfig selects the SPI controller and pins of the external converter
type spiBusConfig struct {
	spi  *machine.SPI
	sck  machine.Pin
	mosi machine.Pin
	miso machine.Pin
	cs   machine.Pin
	freq uint32
}

// spiGroup is a conversion group on an MCP3008. Conversions complete
// inside StartGroupConversion; a failed one stays busy until stopped.
type spiGroup struct {
	dev    *mcp3008.Device
	inputs []int // MCP3008 input per position
	buf    []core.ADCValue
	errors uint32
	failed bool
}

func newSPIGroup(bus spiBusConfig, inputs []int) (*spiGroup, error) {
	err := bus.spi.Configure(machine.SPIConfig{
		Frequency: bus.freq,
		SCK:       bus.sck,
		SDO:       bus.mosi,
		SDI:       bus.miso,
		Mode:      0,
	})
	if err != nil {
		return nil, err
	}
	dev := mcp3008.New(bus.spi, bus.cs)
	dev.Configure()
	return &spiGroup{dev: dev, inputs: inputs}, nil
}

func (g *spiGroup) setup(buf []core.ADCValue) error {
	if len(buf) > len(g.inputs) {
		return errUnknownGroup
	}
	g.buf = buf
	return nil
}

// convert reads every position; the driver scales results to 16 bits
func (g *spiGroup) convert() {
	g.failed = false
	for pos := range g.buf {
		v, err := g.dev.Read(g.inputs[pos])
		if err != nil {
			g.errors++
			g.failed = true
			return
		}
		g.buf[pos] = core.ADCValue(v)
	}
}

func (g *spiGroup) stop() {
	g.failed = false
}

func (g *spiGroup) status() core.GroupStatus {
	if g.failed {
		return core.GroupBusy
	}
	return core.GroupIdle
}
