package activation

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTraceCapacity bounds the trace log when none is configured.
const DefaultTraceCapacity = 1024

const traceTimeLayout = "20060102_150405"

// TraceEntry is one record of the activation trace: when, which glyph,
// what happened, and the field state right after.
type TraceEntry struct {
	Timestamp time.Time
	RunID     string
	GlyphID   string
	Operation string
	State     FieldState
}

// TraceLog is an append-only bounded sequence of entries. Appends beyond
// capacity are dropped and counted rather than refused, so a long
// inheritance walk never fails because its diagnostics filled up.
// Single-writer by contract, like the rest of an activation.
type TraceLog struct {
	capacity int
	entries  []TraceEntry
	dropped  int
	enabled  bool
	now      func() time.Time
}

// NewTraceLog returns an enabled log bounded at capacity; a non-positive
// capacity falls back to DefaultTraceCapacity.
func NewTraceLog(capacity int) *TraceLog {
	if capacity <= 0 {
		capacity = DefaultTraceCapacity
	}
	return &TraceLog{
		capacity: capacity,
		entries:  make([]TraceEntry, 0, capacity),
		enabled:  true,
		now:      time.Now,
	}
}

// SetEnabled toggles recording. A disabled log drops silently without
// counting, matching the --no-trace contract.
func (l *TraceLog) SetEnabled(enabled bool) {
	l.enabled = enabled
}

// Append records one entry, or counts a drop once the log is full.
func (l *TraceLog) Append(runID, glyphID, operation string, state FieldState) {
	if !l.enabled {
		return
	}
	if len(l.entries) >= l.capacity {
		l.dropped++
		return
	}
	l.entries = append(l.entries, TraceEntry{
		Timestamp: l.now(),
		RunID:     runID,
		GlyphID:   glyphID,
		Operation: operation,
		State:     state,
	})
}

// Entries returns the recorded entries in order.
func (l *TraceLog) Entries() []TraceEntry {
	out := make([]TraceEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded entries.
func (l *TraceLog) Len() int {
	return len(l.entries)
}

// Dropped returns how many entries overflowed the capacity.
func (l *TraceLog) Dropped() int {
	return l.dropped
}

// Reset clears the log and its drop counter.
func (l *TraceLog) Reset() {
	l.entries = l.entries[:0]
	l.dropped = 0
}

// String renders the full trace in the reference's report layout.
func (l *TraceLog) String() string {
	var b strings.Builder
	b.WriteString("=== SYMBOLIC TRACE OUTPUT ===\n")
	fmt.Fprintf(&b, "Total trace entries: %d\n", len(l.entries))
	if l.dropped > 0 {
		fmt.Fprintf(&b, "Dropped beyond capacity: %d\n", l.dropped)
	}
	b.WriteString("\n")
	for _, e := range l.entries {
		fmt.Fprintf(&b, "[%s] Glyph:%s | %s\n", e.Timestamp.Format(traceTimeLayout),
			e.GlyphID, e.Operation)
		fmt.Fprintf(&b, "  State: R=%.2fHz M=%.3f P=%.2f C=%d E=%.3f D=%d\n\n",
			e.State.Resonance, e.State.Magnitude, e.State.Phase,
			e.State.Coherence, e.State.Entanglement, e.State.Depth)
	}
	return b.String()
}
