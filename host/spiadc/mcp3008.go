// Package spiadc runs an MCP3008 on a Linux SPI bus as one conversion group,
// so the analog scheduler can be exercised on a single-board computer.
package spiadc

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"iohwab/core"
)

var (
	ErrUnknownGroup = errors.New("group not served by this converter")
	ErrInputRange   = errors.New("MCP3008 input must be 0-7")
	ErrBufferSize   = errors.New("result buffer larger than the input map")
)

// Transfer is the part of spi.Conn the converter needs
type Transfer interface {
	Tx(w, r []byte) error
}

// MCP3008Group implements core.ADCGroupDriver. Conversions run
// synchronously inside StartGroupConversion. A conversion whose transfer
// failed reports busy until it is stopped, so its buffer is never committed.
type MCP3008Group struct {
	conn   Transfer
	group  core.ADCGroupID
	inputs []uint8 // position -> MCP3008 single-ended input
	buf    []core.ADCValue
	err    error
	failed bool
	reads  uint32
}

// New serves group on conn. inputs maps each group position to an input.
func New(conn Transfer, group core.ADCGroupID, inputs []uint8) (*MCP3008Group, error) {
	for _, in := range inputs {
		if in > 7 {
			return nil, fmt.Errorf("%w: %d", ErrInputRange, in)
		}
	}
	return &MCP3008Group{conn: conn, group: group, inputs: inputs}, nil
}

func (m *MCP3008Group) SetupResultBuffer(group core.ADCGroupID, buf []core.ADCValue) error {
	if group != m.group {
		return fmt.Errorf("%w: %d", ErrUnknownGroup, group)
	}
	if len(buf) > len(m.inputs) {
		return fmt.Errorf("%w: %d positions, %d inputs", ErrBufferSize, len(buf), len(m.inputs))
	}
	m.buf = buf
	return nil
}

func (m *MCP3008Group) StartGroupConversion(group core.ADCGroupID) {
	if group != m.group {
		return
	}
	m.failed = false
	for pos := range m.buf {
		v, err := m.read(m.inputs[pos])
		if err != nil {
			m.err = err
			m.failed = true
			return
		}
		m.buf[pos] = v
	}
	m.reads++
}

func (m *MCP3008Group) StopGroupConversion(group core.ADCGroupID) {
	if group == m.group {
		m.failed = false
	}
}

func (m *MCP3008Group) GroupStatus(group core.ADCGroupID) core.GroupStatus {
	if group == m.group && m.failed {
		return core.GroupBusy
	}
	return core.GroupIdle
}

// read performs one single-ended conversion
func (m *MCP3008Group) read(input uint8) (core.ADCValue, error) {
	w := [3]byte{0x01, 0x80 | input<<4, 0x00}
	var r [3]byte
	if err := m.conn.Tx(w[:], r[:]); err != nil {
		return 0, err
	}
	return core.ADCValue(r[1]&0x03)<<8 | core.ADCValue(r[2]), nil
}

// Err returns the last SPI transfer error
func (m *MCP3008Group) Err() error {
	return m.err
}

// Reads returns the number of completed group conversions
func (m *MCP3008Group) Reads() uint32 {
	return m.reads
}

// Open initializes the host drivers and connects to an SPI port
// ("" = first available) in mode 0.
func Open(port string, freq physic.Frequency) (spi.PortCloser, spi.Conn, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, nil, fmt.Errorf("open spi port %q: %w", port, err)
	}
	c, err := p.Connect(freq, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, nil, fmt.Errorf("connect spi port %q: %w", port, err)
	}
	return p, c, nil
}
