package activation

import (
	"fmt"
	"math"

	"glyphos/internal/glyph"
)

// entangleResonanceWeight scales the entangle target's resonance
// contribution.
const entangleResonanceWeight = 0.2

// execute runs one command against the field state and traces the result.
// Unknown opcodes and missing arguments are no-ops on the state; both are
// still traced so the sequence remains auditable.
func (e *Engine) execute(runID string, cmd Command, state *FieldState, def *glyph.Definition) {
	var op string

	switch cmd.Op {
	case OpResonate:
		if !cmd.HasArg {
			op = "resonate(): missing argument"
			break
		}
		state.Resonance *= cmd.Arg
		op = fmt.Sprintf("resonate(%.2f): R=%.2fHz", cmd.Arg, state.Resonance)

	case OpAmplify:
		if !cmd.HasArg {
			op = "amplify(): missing argument"
			break
		}
		state.Magnitude *= cmd.Arg
		op = fmt.Sprintf("amplify(%.2f): M=%.3f", cmd.Arg, state.Magnitude)

	case OpPhaseShift:
		if !cmd.HasArg {
			op = "phase_shift(): missing argument"
			break
		}
		state.Phase += cmd.Arg
		op = fmt.Sprintf("phase_shift(%.2f): P=%.2f", cmd.Arg, state.Phase)

	case OpDecay:
		if !cmd.HasArg {
			op = "decay(): missing argument"
			break
		}
		state.Magnitude *= 1.0 - cmd.Arg
		state.Coherence -= int(math.Round(cmd.Arg * 10))
		op = fmt.Sprintf("decay(%.2f): M=%.3f C=%d", cmd.Arg, state.Magnitude, state.Coherence)

	case OpStabilize:
		// Saturating: coherence caps at 100, it never grows unbounded.
		if state.Coherence > 90 {
			state.Coherence = 100
		} else {
			state.Coherence += 10
		}
		op = fmt.Sprintf("stabilize(): C=%d", state.Coherence)

	case OpEntangle:
		if !cmd.HasTarget {
			op = "entangle(): missing target"
			break
		}
		target, ok := e.registry.Find(cmd.Target)
		if !ok {
			op = fmt.Sprintf("entangle(%s): target not found", cmd.Target)
			break
		}
		state.Entanglement += target.Entanglement
		state.Resonance += target.ResonanceFreq * entangleResonanceWeight
		op = fmt.Sprintf("entangle(%s): E=%.3f", cmd.Target, state.Entanglement)

	default:
		op = fmt.Sprintf("unknown_command(%s)", cmd.Name)
	}

	e.trace.Append(runID, def.ID, op, *state)
}
