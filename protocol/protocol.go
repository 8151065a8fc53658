// Package protocol implements the framed message format spoken between the
// firmware and the host tools: VLQ-encoded integers inside frames carrying
// a length, a sequence number, a CRC16 and a sync byte.
package protocol

// Version represents the firmware protocol version
const Version = "0.1.0"

// Frame layout: [len][seq][payload...][crc hi][crc lo][sync]
const (
	FrameHeaderSize  = 2
	FrameTrailerSize = 3
	FrameMin         = FrameHeaderSize + FrameTrailerSize
	FrameMax         = 64
	FramePayloadMax  = FrameMax - FrameMin

	FrameSync    = 0x7E
	FrameDest    = 0x10 // High nibble of every sequence byte
	FrameSeqMask = 0x0F

	MessageMax = 512 // Maximum scratch output size
)
