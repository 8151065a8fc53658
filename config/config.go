// Package config loads the YAML description of an analog input setup and
// turns it into the static tables used by the firmware.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"iohwab/core"
)

var (
	ErrNoGroups        = errors.New("no conversion groups configured")
	ErrEmptyGroup      = errors.New("conversion group has no channels")
	ErrDuplicateGroup  = errors.New("conversion group id used twice")
	ErrDuplicateName   = errors.New("channel name used twice")
	ErrOffsetRange     = errors.New("group offset outside the scheduling cycle")
	ErrResolutionRange = errors.New("resolution must be between 1 and 16 bits")
)

// Defaults used when the YAML leaves a value out
const (
	DefaultCycleTicks      = 25000 // 25ms at 1MHz
	DefaultConversionTicks = 50
	DefaultTriggerChannel  = 0
	DefaultVRefMillivolts  = 3300
	DefaultResolutionBits  = 12
)

// Channel is one logical analog channel.
type Channel struct {
	Name            string `yaml:"name"`
	Position        uint8  `yaml:"position"`
	ConversionTicks uint32 `yaml:"conversion_ticks,omitempty"`
}

// Group is one physical conversion group and its start offset in the cycle.
type Group struct {
	Name     string    `yaml:"name"`
	ID       uint8     `yaml:"id"`
	Offset   uint32    `yaml:"offset"`
	Channels []Channel `yaml:"channels"`
}

// Config describes a complete analog input setup.
type Config struct {
	Name            string  `yaml:"name"`
	CycleTicks      uint32  `yaml:"cycle_ticks,omitempty"`
	TriggerChannel  uint8   `yaml:"trigger_channel,omitempty"`
	ConversionTicks uint32  `yaml:"conversion_ticks,omitempty"`
	VRefMillivolts  uint32  `yaml:"vref_mv,omitempty"`
	ResolutionBits  uint8   `yaml:"resolution_bits,omitempty"`
	Groups          []Group `yaml:"groups"`
}

// Load parses a YAML configuration, applies defaults and validates it.
func Load(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse analog config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads and parses the configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analog config: %w", err)
	}
	return Load(data)
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *Config) {
	if cfg.Name == "" {
		cfg.Name = "analog"
	}
	if cfg.CycleTicks == 0 {
		cfg.CycleTicks = DefaultCycleTicks
	}
	if cfg.ConversionTicks == 0 {
		cfg.ConversionTicks = DefaultConversionTicks
	}
	if cfg.VRefMillivolts == 0 {
		cfg.VRefMillivolts = DefaultVRefMillivolts
	}
	if cfg.ResolutionBits == 0 {
		cfg.ResolutionBits = DefaultResolutionBits
	}

	for gi := range cfg.Groups {
		g := &cfg.Groups[gi]
		if g.Name == "" {
			g.Name = fmt.Sprintf("group%d", g.ID)
		}
		for ci := range g.Channels {
			ch := &g.Channels[ci]
			if ch.ConversionTicks == 0 {
				ch.ConversionTicks = cfg.ConversionTicks
			}
			if ch.Name == "" {
				ch.Name = fmt.Sprintf("%s_%d", g.Name, ch.Position)
			}
		}
	}
}

// Validate checks the parts of the configuration the core table does not
// know about, then builds the table to check the rest.
func (c *Config) Validate() error {
	if len(c.Groups) == 0 {
		return ErrNoGroups
	}
	if c.ResolutionBits > 16 {
		return ErrResolutionRange
	}

	groups := make(map[uint8]bool)
	names := make(map[string]bool)
	for _, g := range c.Groups {
		if len(g.Channels) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyGroup, g.Name)
		}
		if groups[g.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicateGroup, g.ID)
		}
		groups[g.ID] = true
		if g.Offset >= c.CycleTicks {
			return fmt.Errorf("%w: %s offset %d, cycle %d", ErrOffsetRange, g.Name, g.Offset, c.CycleTicks)
		}
		for _, ch := range g.Channels {
			if names[ch.Name] {
				return fmt.Errorf("%w: %s", ErrDuplicateName, ch.Name)
			}
			names[ch.Name] = true
		}
	}

	ac := c.AnalogConfig()
	trigger, err := ac.Trigger()
	if err != nil {
		return err
	}
	if _, err := core.NewAnalogTable(ac.Descriptors, trigger.Offsets); err != nil {
		return fmt.Errorf("invalid analog table: %w", err)
	}
	return nil
}

// AnalogConfig converts the configuration to the core tables. Logical
// channel ids follow the order of the channels in the file; each group
// gets its own trigger slot.
func (c *Config) AnalogConfig() *core.AnalogConfig {
	trigger := core.TriggerChannelConfig{Channel: core.OCUChannel(c.TriggerChannel)}
	var descs []core.AnalogDescriptor
	for slot, g := range c.Groups {
		trigger.Offsets = append(trigger.Offsets, g.Offset)
		for _, ch := range g.Channels {
			descs = append(descs, core.AnalogDescriptor{
				Group:           core.ADCGroupID(g.ID),
				Position:        ch.Position,
				ConversionTicks: ch.ConversionTicks,
				TriggerSlot:     uint8(slot),
			})
		}
	}
	return &core.AnalogConfig{
		Descriptors:    descs,
		Triggers:       []core.TriggerChannelConfig{trigger},
		TriggerChannel: trigger.Channel,
	}
}

// ChannelNames returns the channel names indexed by logical channel id.
func (c *Config) ChannelNames() []string {
	var names []string
	for _, g := range c.Groups {
		for _, ch := range g.Channels {
			names = append(names, ch.Name)
		}
	}
	return names
}

// FullScale returns the largest raw value of a conversion.
func (c *Config) FullScale() uint32 {
	return 1<<c.ResolutionBits - 1
}

// Millivolts converts a raw conversion value to millivolts.
func (c *Config) Millivolts(v core.ADCValue) uint32 {
	return uint32(uint64(v) * uint64(c.VRefMillivolts) / uint64(c.FullScale()))
}
