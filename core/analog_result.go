package core

import "sync/atomic"

// ConversionStatus is the per-channel result state.
type ConversionStatus uint8

const (
	StatusNotInitialized ConversionStatus = iota // never configured
	StatusInitializing                           // configured, no conversion yet
	StatusNoError                                // last conversion valid
	StatusBusy                                   // conversion in flight
	StatusNotStarted                             // start skipped, group was busy
	StatusErrorState                             // conversion overran its estimate
	StatusInvalid                                // unknown channel
)

var statusNames = [...]string{
	StatusNotInitialized: "not_initialized",
	StatusInitializing:   "initializing",
	StatusNoError:        "ok",
	StatusBusy:           "busy",
	StatusNotStarted:     "not_started",
	StatusErrorState:     "error",
	StatusInvalid:        "invalid",
}

func (s ConversionStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown(" + itoa(int(s)) + ")"
}

// ConversionResult is the last value and status of one logical channel.
type ConversionResult struct {
	Value  ADCValue
	Status ConversionStatus
}

// Valid reports whether Value holds a completed conversion.
func (r ConversionResult) Valid() bool {
	return r.Status == StatusNoError
}

// ResultTable holds one result per logical channel. The scheduler
// interrupt is the only writer; each entry packs value and status in a
// single word so readers in task context never see a torn pair.
type ResultTable struct {
	entries []atomic.Uint32
}

// NewResultTable creates n entries in the NotInitialized state.
func NewResultTable(n int) *ResultTable {
	return &ResultTable{entries: make([]atomic.Uint32, n)}
}

func packResult(v ADCValue, s ConversionStatus) uint32 {
	return uint32(v) | uint32(s)<<16
}

func unpackResult(w uint32) ConversionResult {
	return ConversionResult{Value: ADCValue(w), Status: ConversionStatus(w >> 16)}
}

// Len returns the number of entries.
func (r *ResultTable) Len() int {
	return len(r.entries)
}

// Load returns the committed result of channel i.
func (r *ResultTable) Load(i int) ConversionResult {
	return unpackResult(r.entries[i].Load())
}

// Commit stores a value together with its status.
func (r *ResultTable) Commit(i int, v ADCValue, s ConversionStatus) {
	r.entries[i].Store(packResult(v, s))
}

// SetStatus replaces the status and keeps the stored value.
func (r *ResultTable) SetStatus(i int, s ConversionStatus) {
	w := r.entries[i].Load()
	r.entries[i].Store(w&0xFFFF | uint32(s)<<16)
}

// Reset sets every entry to value 0 with the given status.
func (r *ResultTable) Reset(s ConversionStatus) {
	for i := range r.entries {
		r.entries[i].Store(packResult(0, s))
	}
}
