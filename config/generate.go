package config

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"strings"
	"text/template"
	"unicode"
)

var tableTemplate = template.Must(template.New("table").Parse(`// Code generated by adcgen from {{.Source}}. DO NOT EDIT.

{{if .BuildTag}}//go:build {{.BuildTag}}

{{end}}package {{.Package}}

import "iohwab/core"

// {{.Var}}CycleTicks is the scheduling cycle length in timer ticks
const {{.Var}}CycleTicks = {{.Config.CycleTicks}}

// Logical analog channels
const (
{{- range .Channels}}
	{{.Const}} = {{.ID}}
{{- end}}
)

var {{.Var}} = core.AnalogConfig{
	Descriptors: []core.AnalogDescriptor{
{{- range .Channels}}
		{Group: {{.Group}}, Position: {{.Position}}, ConversionTicks: {{.ConversionTicks}}, TriggerSlot: {{.Slot}}}, // {{.Name}}
{{- end}}
	},
	Triggers: []core.TriggerChannelConfig{
		{Channel: {{.Config.TriggerChannel}}, Offsets: []uint32{ {{- .Offsets -}} }},
	},
	TriggerChannel: {{.Config.TriggerChannel}},
}
`))

type genChannel struct {
	ID              int
	Name            string
	Const           string
	Group           uint8
	Position        uint8
	ConversionTicks uint32
	Slot            int
}

type genData struct {
	Source   string
	BuildTag string
	Package  string
	Var      string
	Config   *Config
	Channels []genChannel
	Offsets  string
}

// GenerateOptions controls the generated file.
type GenerateOptions struct {
	Package  string // Go package name (default "main")
	Var      string // Name of the AnalogConfig variable (default "analogConfig")
	Source   string // Input file name quoted in the header
	BuildTag string // Build constraint of the generated file, if any
}

// Generate writes a gofmt'ed Go file declaring cfg as static core tables.
func Generate(w io.Writer, cfg *Config, opts GenerateOptions) error {
	if opts.Package == "" {
		opts.Package = "main"
	}
	if opts.Var == "" {
		opts.Var = "analogConfig"
	}
	if opts.Source == "" {
		opts.Source = cfg.Name
	}

	data := genData{
		Source:   opts.Source,
		BuildTag: opts.BuildTag,
		Package:  opts.Package,
		Var:      opts.Var,
		Config:   cfg,
	}
	var offsets []string
	id := 0
	for slot, g := range cfg.Groups {
		offsets = append(offsets, fmt.Sprint(g.Offset))
		for _, ch := range g.Channels {
			data.Channels = append(data.Channels, genChannel{
				ID:              id,
				Name:            ch.Name,
				Const:           channelConst(ch.Name),
				Group:           g.ID,
				Position:        ch.Position,
				ConversionTicks: ch.ConversionTicks,
				Slot:            slot,
			})
			id++
		}
	}
	data.Offsets = strings.Join(offsets, ", ")

	var buf bytes.Buffer
	if err := tableTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render analog tables: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("format analog tables: %w", err)
	}
	_, err = w.Write(src)
	return err
}

// channelConst turns a channel name like "bed_thermistor" into "ChanBedThermistor"
func channelConst(name string) string {
	var b strings.Builder
	b.WriteString("Chan")
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
