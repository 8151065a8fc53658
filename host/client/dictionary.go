package client

import (
	"fmt"
	"strconv"
	"strings"

	"iohwab/protocol"
)

// Field is one "name=%type" parameter of a message format
type Field struct {
	Name string
	Type string // %c, %u, %i, %hu, %hi or %*s
}

// Message is one dictionary entry
type Message struct {
	ID     uint16
	Name   string
	Format string
	Fields []Field
}

// Dictionary maps message names to IDs and formats, as reported by identify
type Dictionary struct {
	Raw    string
	byName map[string]*Message
	byID   map[uint16]*Message
}

// ParseDictionary parses the firmware dictionary text: one
// "id name [field=%type ...]" line per message.
func ParseDictionary(text string) (*Dictionary, error) {
	d := &Dictionary{
		Raw:    text,
		byName: make(map[string]*Message),
		byID:   make(map[uint16]*Message),
	}
	for lineNo, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			return nil, fmt.Errorf("dictionary line %d: %q: missing name", lineNo+1, line)
		}
		id, err := strconv.ParseUint(parts[0], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("dictionary line %d: bad id: %w", lineNo+1, err)
		}
		msg := &Message{
			ID:     uint16(id),
			Name:   parts[1],
			Format: strings.Join(parts[2:], " "),
		}
		for _, p := range parts[2:] {
			name, typ, ok := strings.Cut(p, "=")
			if !ok || !strings.HasPrefix(typ, "%") {
				return nil, fmt.Errorf("dictionary line %d: bad field %q", lineNo+1, p)
			}
			msg.Fields = append(msg.Fields, Field{Name: name, Type: typ})
		}
		d.byName[msg.Name] = msg
		d.byID[msg.ID] = msg
	}
	return d, nil
}

// Lookup finds a message by name
func (d *Dictionary) Lookup(name string) (*Message, bool) {
	m, ok := d.byName[name]
	return m, ok
}

// Len returns the number of messages
func (d *Dictionary) Len() int {
	return len(d.byID)
}

// Response is a decoded firmware message
type Response struct {
	Name   string
	Params map[string]uint32
	Data   map[string][]byte
}

// Uint returns an unsigned parameter
func (r *Response) Uint(name string) uint32 {
	return r.Params[name]
}

// Int returns a signed parameter
func (r *Response) Int(name string) int32 {
	return int32(r.Params[name])
}

// Decode decodes one message from the front of payload and advances it
func (d *Dictionary) Decode(payload *[]byte) (*Response, error) {
	id, err := protocol.DecodeVLQUint(payload)
	if err != nil {
		return nil, fmt.Errorf("decode message id: %w", err)
	}
	msg, ok := d.byID[uint16(id)]
	if !ok {
		return nil, fmt.Errorf("unknown message id %d", id)
	}

	r := &Response{Name: msg.Name, Params: make(map[string]uint32)}
	for _, f := range msg.Fields {
		switch f.Type {
		case "%*s", "%.*s":
			b, err := protocol.DecodeVLQBytes(payload)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", msg.Name, f.Name, err)
			}
			if r.Data == nil {
				r.Data = make(map[string][]byte)
			}
			r.Data[f.Name] = append([]byte(nil), b...)
		case "%i", "%hi":
			v, err := protocol.DecodeVLQInt(payload)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", msg.Name, f.Name, err)
			}
			r.Params[f.Name] = uint32(v)
		default:
			v, err := protocol.DecodeVLQUint(payload)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", msg.Name, f.Name, err)
			}
			r.Params[f.Name] = v
		}
	}
	return r, nil
}

// Encode appends a command and its arguments, in format order
func (d *Dictionary) Encode(output protocol.OutputBuffer, name string, args ...uint32) error {
	msg, ok := d.byName[name]
	if !ok {
		return fmt.Errorf("unknown command: %s", name)
	}
	if len(args) != len(msg.Fields) {
		return fmt.Errorf("%s takes %d arguments, got %d", name, len(msg.Fields), len(args))
	}
	protocol.EncodeVLQUint(output, uint32(msg.ID))
	for i, f := range msg.Fields {
		switch f.Type {
		case "%i", "%hi":
			protocol.EncodeVLQInt(output, int32(args[i]))
		case "%*s", "%.*s":
			return fmt.Errorf("%s.%s: byte arguments are not supported", name, f.Name)
		default:
			protocol.EncodeVLQUint(output, args[i])
		}
	}
	return nil
}
