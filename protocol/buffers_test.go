package protocol

import "testing"

func TestScratchOutput(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output([]byte{1, 2, 3})
	scratch.Output([]byte{4, 5})

	result := scratch.Result()
	if len(result) != 5 || result[4] != 5 {
		t.Errorf("Expected 5 bytes ending in 5, got %v", result)
	}

	scratch.Reset()
	if len(scratch.Result()) != 0 {
		t.Errorf("Expected empty result after reset, got %d bytes", len(scratch.Result()))
	}
}

func TestScratchOutputOverflow(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output(make([]byte, MessageMax-1))
	if scratch.Overflow() {
		t.Fatal("Overflow reported before the buffer was full")
	}

	scratch.Output([]byte{1, 2})
	if !scratch.Overflow() {
		t.Error("Expected overflow after writing past MessageMax")
	}
	if len(scratch.Result()) != MessageMax {
		t.Errorf("Expected %d bytes kept, got %d", MessageMax, len(scratch.Result()))
	}
}

func TestFifoBuffer(t *testing.T) {
	fifo := NewFifoBuffer(8)

	// Capacity is size-1
	if n := fifo.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9}); n != 7 {
		t.Errorf("Expected 7 bytes written, got %d", n)
	}
	if fifo.Available() != 7 {
		t.Errorf("Expected 7 bytes available, got %d", fifo.Available())
	}

	out := make([]byte, 4)
	if n := fifo.Read(out); n != 4 || out[0] != 1 || out[3] != 4 {
		t.Errorf("Expected to read 1..4, got %v (%d)", out, n)
	}

	// Wrap around
	fifo.Write([]byte{10, 11, 12})
	rest := make([]byte, 16)
	n := fifo.Read(rest)
	expected := []byte{5, 6, 7, 10, 11, 12}
	if n != len(expected) {
		t.Fatalf("Expected %d bytes after wrap, got %d", len(expected), n)
	}
	for i, b := range expected {
		if rest[i] != b {
			t.Errorf("Byte %d: expected %d, got %d", i, b, rest[i])
		}
	}

	fifo.Write([]byte{1})
	fifo.Reset()
	if fifo.Available() != 0 {
		t.Errorf("Expected empty FIFO after reset, got %d", fifo.Available())
	}
}
