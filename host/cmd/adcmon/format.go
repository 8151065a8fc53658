package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3/physic"

	"iohwab/core"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiGray   = "\x1b[90m"
)

// printer writes channel reports, colored when stdout is a terminal
type printer struct {
	out   io.Writer
	color bool

	vrefMV    uint32
	fullScale uint32
	names     []string
}

func newPrinter(vrefMV uint32, bits uint8, names []string, noColor bool) *printer {
	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return &printer{
		out:       colorable.NewColorableStdout(),
		color:     tty && !noColor,
		vrefMV:    vrefMV,
		fullScale: 1<<bits - 1,
		names:     names,
	}
}

func (p *printer) paint(color, s string) string {
	if !p.color {
		return s
	}
	return color + s + ansiReset
}

func statusColor(s core.ConversionStatus) string {
	switch s {
	case core.StatusNoError:
		return ansiGreen
	case core.StatusNotStarted, core.StatusInitializing:
		return ansiYellow
	case core.StatusNotInitialized:
		return ansiGray
	default:
		return ansiRed
	}
}

// voltage converts a raw value to an electric potential
func voltage(raw uint32, vrefMV, fullScale uint32) physic.ElectricPotential {
	if fullScale == 0 {
		return 0
	}
	return physic.ElectricPotential(uint64(raw)*uint64(vrefMV)*uint64(physic.MilliVolt)/uint64(fullScale))
}

func (p *printer) name(oid uint32) string {
	if int(oid) < len(p.names) {
		return p.names[oid]
	}
	return fmt.Sprintf("ch%d", oid)
}

// channel prints one analog_channel_state line
func (p *printer) channel(oid, value uint32, status core.ConversionStatus) {
	line := fmt.Sprintf("%-20s %5d", p.name(oid), value)
	if status == core.StatusNoError {
		line += fmt.Sprintf("  %9s", voltage(value, p.vrefMV, p.fullScale))
	} else {
		line += fmt.Sprintf("  %9s", "-")
	}
	fmt.Fprintf(p.out, "%s  %s\n", line, p.paint(statusColor(status), status.String()))
}

func (p *printer) fault(code core.FaultCode, idx, group, clock uint32) {
	fmt.Fprintf(p.out, "%s idx=%d group=%d clock=%d\n", p.paint(ansiRed, code.String()), idx, group, clock)
}

func (p *printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}
