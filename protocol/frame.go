package protocol

import (
	"errors"

	"github.com/sigurn/crc16"
)

var ErrPayloadTooLarge = errors.New("payload exceeds frame size")

// crcTable is CRC-16/MCRF4XX, the checksum Klipper frames carry.
var crcTable = crc16.MakeTable(crc16.CRC16_MCRF4XX)

// CRC16 calculates the frame checksum of data
func CRC16(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// EncodeFrame wraps payload into a frame with sequence seq
func EncodeFrame(output OutputBuffer, seq uint8, payload []byte) error {
	if len(payload) > FramePayloadMax {
		return ErrPayloadTooLarge
	}
	var frame [FrameMax]byte
	n := len(payload) + FrameMin
	frame[0] = byte(n)
	frame[1] = FrameDest | seq&FrameSeqMask
	copy(frame[FrameHeaderSize:], payload)
	crc := CRC16(frame[:n-FrameTrailerSize])
	frame[n-3] = byte(crc >> 8)
	frame[n-2] = byte(crc)
	frame[n-1] = FrameSync
	output.Output(frame[:n])
	return nil
}

// Frame is one decoded message block
type Frame struct {
	Seq     uint8
	Payload []byte
}

// FrameDecoder extracts frames from a byte stream, resynchronizing on the
// sync byte after garbage or a checksum failure.
type FrameDecoder struct {
	buf     []byte
	dropped uint32
}

// Feed appends received bytes
func (d *FrameDecoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Dropped returns the number of bytes discarded while resynchronizing
func (d *FrameDecoder) Dropped() uint32 {
	return d.dropped
}

// Next returns the next complete frame. ok is false when more data is needed.
// The returned payload is only valid until the next call to Feed.
func (d *FrameDecoder) Next() (f Frame, ok bool) {
	for {
		for len(d.buf) > 0 && d.buf[0] == FrameSync {
			d.buf = d.buf[1:]
		}
		if len(d.buf) < FrameMin {
			return Frame{}, false
		}

		n := int(d.buf[0])
		if n < FrameMin || n > FrameMax || d.buf[1]&^FrameSeqMask != FrameDest {
			d.skip()
			continue
		}
		if len(d.buf) < n {
			return Frame{}, false
		}
		want := uint16(d.buf[n-3])<<8 | uint16(d.buf[n-2])
		if d.buf[n-1] != FrameSync || CRC16(d.buf[:n-FrameTrailerSize]) != want {
			d.skip()
			continue
		}

		f = Frame{
			Seq:     d.buf[1] & FrameSeqMask,
			Payload: d.buf[FrameHeaderSize : n-FrameTrailerSize],
		}
		d.buf = d.buf[n:]
		return f, true
	}
}

// skip drops bytes up to and including the next sync byte
func (d *FrameDecoder) skip() {
	for i, b := range d.buf {
		if b == FrameSync {
			d.dropped += uint32(i + 1)
			d.buf = d.buf[i+1:]
			return
		}
	}
	d.dropped += uint32(len(d.buf))
	d.buf = d.buf[:0]
}

// Reset discards any buffered data
func (d *FrameDecoder) Reset() {
	d.buf = d.buf[:0]
}
