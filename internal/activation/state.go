// Package activation implements the inheritance resolver, the activation
// command interpreter and the bounded trace log. One activation owns a
// private FieldState and visited-set; the shared registry is only read.
package activation

import "fmt"

// FieldState is the per-activation accumulator threaded through the
// inheritance walk and the command sequence. It is created fresh for each
// top-level activation and discarded once the caller reads the final
// snapshot.
type FieldState struct {
	Resonance    float64
	Magnitude    float64
	Phase        float64
	Coherence    int
	Entanglement float64
	Depth        int
	ActiveGlyph  string
}

// String renders the state in the reference's final-state layout.
func (s FieldState) String() string {
	return fmt.Sprintf(
		"Resonance: %.2f Hz\nMagnitude: %.3f\nPhase: %.2f\nCoherence: %d%%\nEntanglement: %.3f\nDepth: %d",
		s.Resonance, s.Magnitude, s.Phase, s.Coherence, s.Entanglement, s.Depth)
}
