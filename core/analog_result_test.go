package core

import "testing"

func TestResultTableCommit(t *testing.T) {
	r := NewResultTable(2)
	if got := r.Load(0); got.Status != StatusNotInitialized || got.Value != 0 {
		t.Errorf("Expected fresh entry to be not_initialized/0, got %v/%d", got.Status, got.Value)
	}

	r.Commit(1, 0xFFFF, StatusNoError)
	got := r.Load(1)
	if got.Value != 0xFFFF || got.Status != StatusNoError || !got.Valid() {
		t.Errorf("Expected 0xFFFF ok, got 0x%X %v", got.Value, got.Status)
	}

	r.SetStatus(1, StatusErrorState)
	got = r.Load(1)
	if got.Value != 0xFFFF || got.Status != StatusErrorState || got.Valid() {
		t.Errorf("SetStatus must keep the value, got 0x%X %v", got.Value, got.Status)
	}

	r.Reset(StatusInitializing)
	for i := 0; i < r.Len(); i++ {
		if got := r.Load(i); got.Value != 0 || got.Status != StatusInitializing {
			t.Errorf("Entry %d after Reset: %d %v", i, got.Value, got.Status)
		}
	}
}

func TestConversionStatusString(t *testing.T) {
	testCases := []struct {
		status ConversionStatus
		want   string
	}{
		{StatusNotInitialized, "not_initialized"},
		{StatusNoError, "ok"},
		{StatusNotStarted, "not_started"},
		{StatusErrorState, "error"},
		{ConversionStatus(42), "unknown(42)"},
	}
	for _, tc := range testCases {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("String(%d) = %q, expected %q", tc.status, got, tc.want)
		}
	}
}
