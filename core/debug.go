package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// FaultCode identifies a diagnostic event.
type FaultCode uint8

const (
	FaultNone FaultCode = iota
	FaultNilConfig
	FaultInvalidConfig
	FaultAlreadyInitialized
	FaultNotInitialized
	FaultInvalidPhase
	FaultInvalidChannel
	FaultBufferSetup
	FaultSpuriousTimer
)

var faultNames = [...]string{
	FaultNone:               "NONE",
	FaultNilConfig:          "NIL_CONFIG",
	FaultInvalidConfig:      "INVALID_CONFIG",
	FaultAlreadyInitialized: "ALREADY_INIT",
	FaultNotInitialized:     "NOT_INIT",
	FaultInvalidPhase:       "INVALID_PHASE",
	FaultInvalidChannel:     "INVALID_CHANNEL",
	FaultBufferSetup:        "BUFFER_SETUP",
	FaultSpuriousTimer:      "SPURIOUS_TIMER",
}

func (c FaultCode) String() string {
	if int(c) < len(faultNames) {
		return faultNames[c]
	}
	return "UNKNOWN"
}

// Fault captures a non-fatal diagnostic event for post-mortem analysis
type Fault struct {
	Code  FaultCode
	Index uint8  // Descriptor index or logical channel
	Group uint8  // Conversion group, if any
	Clock uint32 // System clock at event
}

// DiagnosticReporter receives faults from the analog scheduler.
// ReportFault may be called from interrupt context and must not block.
type DiagnosticReporter interface {
	ReportFault(f Fault)
}

const (
	FaultRingSize = 32 // Keep last 32 faults for post-mortem
)

// FaultRing is the default DiagnosticReporter: a fixed ring of the most
// recent faults. Writes never allocate.
type FaultRing struct {
	events [FaultRingSize]Fault
	head   uint8 // Next write position
	total  uint32
}

// ReportFault records f, overwriting the oldest entry when full. It may be
// called from task context and from the scheduler interrupt.
func (r *FaultRing) ReportFault(f Fault) {
	state := disableInterrupts()
	idx := r.head
	r.events[idx] = f
	r.head = (idx + 1) % FaultRingSize
	r.total++
	restoreInterrupts(state)
}

// Total returns the number of faults reported since the last Clear.
func (r *FaultRing) Total() uint32 {
	return r.total
}

// Last returns the most recent fault.
func (r *FaultRing) Last() (Fault, bool) {
	if r.total == 0 {
		return Fault{}, false
	}
	return r.events[(r.head+FaultRingSize-1)%FaultRingSize], true
}

// Snapshot returns the recorded faults, oldest first.
func (r *FaultRing) Snapshot() []Fault {
	out := make([]Fault, 0, FaultRingSize)
	start := r.head
	for i := uint8(0); i < FaultRingSize; i++ {
		evt := r.events[(start+i)%FaultRingSize]
		if evt.Code == FaultNone {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// Clear empties the ring.
func (r *FaultRing) Clear() {
	state := disableInterrupts()
	for i := range r.events {
		r.events[i] = Fault{}
	}
	r.head = 0
	r.total = 0
	restoreInterrupts(state)
}

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// faultRing collects faults of the default scheduler
	faultRing FaultRing
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// GlobalFaultRing returns the ring used by the default scheduler.
func GlobalFaultRing() *FaultRing {
	return &faultRing
}

// DumpFaultRing outputs the fault ring (call on shutdown/error)
func DumpFaultRing(r *FaultRing) {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[FAULT] === Fault Ring Dump ===")
	debugPrintln("[FAULT] Total faults: " + utoa(r.Total()))
	for _, evt := range r.Snapshot() {
		debugPrintln("[FAULT] " + evt.Code.String() +
			" idx=" + itoa(int(evt.Index)) +
			" group=" + itoa(int(evt.Group)) +
			" clock=" + utoa(evt.Clock))
	}
	debugPrintln("[FAULT] === End Dump ===")
}
