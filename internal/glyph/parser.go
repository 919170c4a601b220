package glyph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrMalformedRecord is returned for records the parser cannot accept:
	// non-numeric values in numeric fields, oversized parent lists, or a
	// missing/invalid glyph id.
	ErrMalformedRecord = errors.New("malformed GDF record")
	// ErrValueOutOfRange is returned when a numeric field parses but falls
	// outside its documented range (or is NaN/Inf).
	ErrValueOutOfRange = errors.New("GDF value out of range")
)

// Documented numeric ranges per field. Values outside them are rejected,
// never coerced or clamped.
type numericRange struct{ min, max float64 }

var fieldRanges = map[string]numericRange{
	"resonance_freq":     {0, 100000},
	"field_magnitude":    {0, 1000},
	"coherence":          {0, 1000},
	"entanglement_coeff": {0, 100},
	"phase_offset":       {-1000, 1000},
	"quantum_state":      {0, 7},
}

// Parser converts the line-oriented GDF format into Definition records.
// Unknown keys are logged and skipped; numeric garbage is fatal to the
// record, not to the process.
type Parser struct {
	logger *zap.Logger
}

// NewParser returns a parser logging through logger, or silently when
// logger is nil.
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Parse reads one GDF record from r. Blank lines and lines starting with
// '#' are skipped; each remaining line splits on the first ':'.
func (p *Parser) Parse(r io.Reader) (*Definition, error) {
	def := NewDefinition()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("%w: line %d has no key separator: %q",
				ErrMalformedRecord, lineNum, line)
		}
		if err := p.applyField(def, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading GDF record: %w", err)
	}

	if def.ID == "" {
		return nil, fmt.Errorf("%w: record has no glyph_id", ErrMalformedRecord)
	}
	return def, nil
}

// ParseString parses a GDF record held in a string.
func (p *Parser) ParseString(text string) (*Definition, error) {
	return p.Parse(strings.NewReader(text))
}

func (p *Parser) applyField(def *Definition, key, value string) error {
	switch key {
	case "glyph_id":
		if !ValidID(value) {
			return fmt.Errorf("%w: invalid glyph_id %q", ErrMalformedRecord, value)
		}
		def.ID = value
	case "chronocode":
		def.Chronocode = value
	case "parent", "parent_glyphs":
		parents, err := parseParentList(value)
		if err != nil {
			return err
		}
		def.Parents = parents
	case "resonance", "resonance_freq":
		return setFloat(&def.ResonanceFreq, "resonance_freq", value)
	case "magnitude", "field_magnitude":
		return setFloat(&def.FieldMagnitude, "field_magnitude", value)
	case "coherence":
		return setInt(&def.Coherence, "coherence", value)
	case "entanglement", "entanglement_coeff":
		return setFloat(&def.Entanglement, "entanglement_coeff", value)
	case "phase", "phase_offset":
		return setFloat(&def.PhaseOffset, "phase_offset", value)
	case "quantum_state":
		return setInt(&def.QuantumState, "quantum_state", value)
	case "activation", "activation_simulation":
		def.Activation = value
	case "contributor", "contributor_inheritance":
		def.Contributor = value
	case "material", "material_spec":
		def.MaterialSpec = value
	case "freq_sig", "frequency_signature":
		def.FrequencySignature = value
	case "metadata":
		def.Metadata = value
	case "dependencies":
		def.Dependencies = value
	case "outputs":
		def.Outputs = value
	case "constraints":
		def.Constraints = value
	default:
		p.logger.Warn("unknown GDF field", zap.String("key", key))
	}
	return nil
}

func parseParentList(value string) ([]string, error) {
	var parents []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !ValidID(part) {
			return nil, fmt.Errorf("%w: invalid parent id %q", ErrMalformedRecord, part)
		}
		parents = append(parents, part)
	}
	if len(parents) > MaxParents {
		return nil, fmt.Errorf("%w: %d parent glyphs exceeds limit of %d",
			ErrMalformedRecord, len(parents), MaxParents)
	}
	return parents, nil
}

func parseNumeric(field, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not numeric", ErrMalformedRecord, field, value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s=%q is not finite", ErrValueOutOfRange, field, value)
	}
	r, ok := fieldRanges[field]
	if !ok {
		return f, nil
	}
	if f < r.min || f > r.max {
		return 0, fmt.Errorf("%w: %s=%g outside [%g, %g]", ErrValueOutOfRange,
			field, f, r.min, r.max)
	}
	return f, nil
}

func setFloat(dst *float64, field, value string) error {
	f, err := parseNumeric(field, value)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func setInt(dst *int, field, value string) error {
	f, err := parseNumeric(field, value)
	if err != nil {
		return err
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("%w: %s=%q is not an integer", ErrMalformedRecord, field, value)
	}
	*dst = int(f)
	return nil
}
