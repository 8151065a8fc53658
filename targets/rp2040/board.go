//go:build rp2040

package main

import (
	"machine"

	"iohwab/core"
)

//go:generate go run ../../host/cmd/adcgen -tags rp2040 -o board_tables.go board.yaml

// Conversion groups of the board
const (
	groupInternal core.ADCGroupID = 1
	groupExternal core.ADCGroupID = 2
)

// Internal ADC inputs per position; input 4 is the temperature sensor
var internalInputs = map[core.ADCGroupID][]uint8{
	groupInternal: {0, 1, 2, 4},
}

// MCP3008 on spi0a with chip select on GPIO5
var externalBus = spiBusConfig{
	spi:  machine.SPI0,
	sck:  machine.GPIO2,
	mosi: machine.GPIO3,
	miso: machine.GPIO0,
	cs:   machine.GPIO5,
	freq: 1000000,
}

var externalInputs = []int{0, 1}
