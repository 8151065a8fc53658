// Package client talks to the analog firmware over a framed serial link.
package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"iohwab/protocol"
)

var (
	ErrTimeout      = errors.New("timed out waiting for response")
	ErrNoDictionary = errors.New("dictionary not loaded")
)

// IDs fixed by the firmware so identify works before the dictionary is known
const (
	IdentifyResponseID = 0
	IdentifyID         = 1

	identifyChunk     = 40
	identifyMaxChunks = 1000
)

// Client sends framed commands and decodes framed responses
type Client struct {
	rw      io.ReadWriter
	dec     protocol.FrameDecoder
	seq     uint8
	dict    *Dictionary
	pending [][]byte
	readBuf [256]byte

	// Timeout bounds every wait for a response
	Timeout time.Duration
}

// New creates a client on an open port
func New(rw io.ReadWriter) *Client {
	return &Client{
		rw:      rw,
		Timeout: time.Second,
	}
}

// Dictionary returns the dictionary loaded by Identify
func (c *Client) Dictionary() *Dictionary {
	return c.dict
}

// SendRaw frames and writes one payload
func (c *Client) SendRaw(payload []byte) error {
	out := protocol.NewScratchOutput()
	if err := protocol.EncodeFrame(out, c.seq, payload); err != nil {
		return err
	}
	c.seq = (c.seq + 1) & protocol.FrameSeqMask
	_, err := c.rw.Write(out.Result())
	return err
}

// Send encodes a command by name and sends it
func (c *Client) Send(name string, args ...uint32) error {
	if c.dict == nil {
		return ErrNoDictionary
	}
	out := protocol.NewScratchOutput()
	if err := c.dict.Encode(out, name, args...); err != nil {
		return err
	}
	return c.SendRaw(out.Result())
}

// ReceiveRaw returns the payload of the next frame from the firmware
func (c *Client) ReceiveRaw() ([]byte, error) {
	deadline := time.Now().Add(c.Timeout)
	for {
		if f, ok := c.dec.Next(); ok {
			return append([]byte(nil), f.Payload...), nil
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		n, err := c.rw.Read(c.readBuf[:])
		if n > 0 {
			c.dec.Feed(c.readBuf[:n])
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read: %w", err)
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}

// Receive returns the next decoded message. A frame may carry several
// messages; they are returned one at a time.
func (c *Client) Receive() (*Response, error) {
	if c.dict == nil {
		return nil, ErrNoDictionary
	}
	for len(c.pending) == 0 {
		payload, err := c.ReceiveRaw()
		if err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			c.pending = append(c.pending, payload)
		}
	}

	resp, err := c.dict.Decode(&c.pending[0])
	if err != nil {
		c.pending = c.pending[1:]
		return nil, err
	}
	if len(c.pending[0]) == 0 {
		c.pending = c.pending[1:]
	}
	return resp, nil
}

// Call sends a command and waits for the named response, skipping others
func (c *Client) Call(response, name string, args ...uint32) (*Response, error) {
	if err := c.Send(name, args...); err != nil {
		return nil, err
	}
	return c.Expect(response)
}

// Expect waits for the named response, skipping others
func (c *Client) Expect(response string) (*Response, error) {
	deadline := time.Now().Add(c.Timeout)
	for time.Now().Before(deadline) {
		resp, err := c.Receive()
		if err != nil {
			return nil, err
		}
		if resp.Name == response {
			return resp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTimeout, response)
}

// Identify retrieves and parses the firmware dictionary
func (c *Client) Identify() error {
	var dict bytes.Buffer
	for i := 0; i < identifyMaxChunks; i++ {
		chunk, err := c.identifyChunk(uint32(dict.Len()))
		if err != nil {
			return fmt.Errorf("identify at offset %d: %w", dict.Len(), err)
		}
		if len(chunk) == 0 {
			break
		}
		dict.Write(chunk)
		if len(chunk) < identifyChunk {
			break
		}
	}

	d, err := ParseDictionary(dict.String())
	if err != nil {
		return fmt.Errorf("parse dictionary: %w", err)
	}
	c.dict = d
	return nil
}

// identifyChunk sends identify and decodes identify_response by its fixed ID
func (c *Client) identifyChunk(offset uint32) ([]byte, error) {
	out := protocol.NewScratchOutput()
	protocol.EncodeVLQUint(out, IdentifyID)
	protocol.EncodeVLQUint(out, offset)
	protocol.EncodeVLQUint(out, identifyChunk)
	if err := c.SendRaw(out.Result()); err != nil {
		return nil, err
	}

	for {
		payload, err := c.ReceiveRaw()
		if err != nil {
			return nil, err
		}
		id, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return nil, err
		}
		if id != IdentifyResponseID {
			continue
		}
		respOffset, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return nil, err
		}
		if respOffset != offset {
			return nil, fmt.Errorf("offset mismatch: expected %d, got %d", offset, respOffset)
		}
		return protocol.DecodeVLQBytes(&payload)
	}
}
