// Package glyph holds the glyph definition record, the GDF text parser
// and the bounded in-memory registry.
package glyph

// Limits on identifier and parent-list sizes. A record exceeding them is
// rejected as malformed rather than silently truncated.
const (
	MaxIDLen   = 64
	MaxParents = 16
)

// Parser defaults for fields absent from a record.
const (
	DefaultResonance    = 440.0
	DefaultMagnitude    = 1.0
	DefaultCoherence    = 100
	DefaultEntanglement = 1.0
	DefaultPhaseOffset  = 0.0
)

// Definition is one parsed GDF record. Immutable after load; re-loading
// the same id overwrites the registered copy (last load wins).
type Definition struct {
	ID         string
	Chronocode string
	Parents    []string

	ResonanceFreq  float64
	FieldMagnitude float64
	Coherence      int
	Entanglement   float64
	PhaseOffset    float64
	QuantumState   int

	// Activation is the pipe-separated command sequence executed after
	// the inheritance walk.
	Activation string

	// Carried but not interpreted.
	Contributor        string
	MaterialSpec       string
	FrequencySignature string
	Metadata           string
	Dependencies       string
	Outputs            string
	Constraints        string
}

// NewDefinition returns a definition carrying the parser defaults.
func NewDefinition() *Definition {
	return &Definition{
		ResonanceFreq:  DefaultResonance,
		FieldMagnitude: DefaultMagnitude,
		Coherence:      DefaultCoherence,
		Entanglement:   DefaultEntanglement,
		PhaseOffset:    DefaultPhaseOffset,
	}
}

// ValidID reports whether id is 1-64 characters of alphanumerics,
// underscore or hyphen.
func ValidID(id string) bool {
	if len(id) == 0 || len(id) > MaxIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}
