package protocol

import (
	"bytes"
	"testing"
)

func TestCRC16CheckValue(t *testing.T) {
	// CRC-16/MCRF4XX check value
	if crc := CRC16([]byte("123456789")); crc != 0x6F91 {
		t.Errorf("CRC16(\"123456789\") = 0x%04X, expected 0x6F91", crc)
	}
	if crc := CRC16(nil); crc != 0xFFFF {
		t.Errorf("CRC16(empty) = 0x%04X, expected 0xFFFF", crc)
	}
}

func TestEncodeFrameLayout(t *testing.T) {
	output := NewScratchOutput()
	if err := EncodeFrame(output, 3, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	frame := output.Result()

	if len(frame) != 7 {
		t.Fatalf("Expected 7 byte frame, got %d", len(frame))
	}
	if frame[0] != 7 || frame[1] != FrameDest|3 {
		t.Errorf("Bad header % X", frame[:2])
	}
	crc := CRC16(frame[:4])
	if frame[4] != byte(crc>>8) || frame[5] != byte(crc) {
		t.Errorf("Bad CRC bytes % X, expected %04X", frame[4:6], crc)
	}
	if frame[6] != FrameSync {
		t.Errorf("Expected sync byte, got 0x%02X", frame[6])
	}
}

func TestEncodeFrameTooLarge(t *testing.T) {
	output := NewScratchOutput()
	if err := EncodeFrame(output, 0, make([]byte, FramePayloadMax+1)); err != ErrPayloadTooLarge {
		t.Errorf("Expected ErrPayloadTooLarge, got %v", err)
	}
	if len(output.Result()) != 0 {
		t.Error("Nothing should be written for a rejected payload")
	}
}

func TestFrameDecoderStream(t *testing.T) {
	output := NewScratchOutput()
	EncodeFrame(output, 1, []byte("abc"))
	EncodeFrame(output, 2, []byte("de"))
	stream := output.Result()

	var dec FrameDecoder
	// Feed in two pieces split inside the first frame
	dec.Feed(stream[:4])
	if _, ok := dec.Next(); ok {
		t.Fatal("Frame returned before it was complete")
	}
	dec.Feed(stream[4:])

	f, ok := dec.Next()
	if !ok || f.Seq != 1 || string(f.Payload) != "abc" {
		t.Fatalf("Expected seq 1 \"abc\", got %v %q ok=%v", f.Seq, f.Payload, ok)
	}
	f, ok = dec.Next()
	if !ok || f.Seq != 2 || string(f.Payload) != "de" {
		t.Fatalf("Expected seq 2 \"de\", got %v %q ok=%v", f.Seq, f.Payload, ok)
	}
	if _, ok := dec.Next(); ok {
		t.Error("Unexpected extra frame")
	}
}

func TestFrameDecoderResync(t *testing.T) {
	good := NewScratchOutput()
	EncodeFrame(good, 5, []byte{0x42})

	corrupt := append([]byte(nil), good.Result()...)
	corrupt[2] ^= 0xFF // payload no longer matches CRC

	var stream bytes.Buffer
	stream.Write([]byte{0x00, 0x99})
	stream.Write(corrupt)
	stream.Write(good.Result())

	var dec FrameDecoder
	dec.Feed(stream.Bytes())

	f, ok := dec.Next()
	if !ok {
		t.Fatal("Decoder did not recover the good frame")
	}
	if f.Seq != 5 || len(f.Payload) != 1 || f.Payload[0] != 0x42 {
		t.Errorf("Unexpected frame %+v", f)
	}
	if dec.Dropped() == 0 {
		t.Error("Expected dropped bytes to be counted")
	}
}
