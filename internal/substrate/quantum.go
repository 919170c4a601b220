package substrate

import (
	"errors"
	"fmt"
)

// MaxSuperpositionStates bounds the size of a superposition.
const MaxSuperpositionStates = 8

// ErrSuperpositionTooLarge is returned when a superposition carries more
// than MaxSuperpositionStates weighted pairs.
var ErrSuperpositionTooLarge = errors.New("too many superposition states")

// Superposition is a weighted list of amplitude/phase pairs owned by the
// caller. Projecting one into a cell and back is intentionally lossy: the
// store folds the pairs into a single field reading, and retrieval
// reconstructs a one-sample approximation, not the original list.
type Superposition struct {
	Amplitudes []float64
	Phases     []float64
	Collapsed  bool
}

func (q Superposition) validate() error {
	if len(q.Amplitudes) != len(q.Phases) {
		return fmt.Errorf("superposition has %d amplitudes but %d phases",
			len(q.Amplitudes), len(q.Phases))
	}
	if len(q.Amplitudes) > MaxSuperpositionStates {
		return fmt.Errorf("%w: %d > %d", ErrSuperpositionTooLarge,
			len(q.Amplitudes), MaxSuperpositionStates)
	}
	return nil
}

// StoreSuperposition folds a superposition into one cell as a weighted
// average: magnitude is the amplitude-weighted mean scaled to the grid
// domain, phase is the mean phase, and coherence collapses to zero when
// the superposition is marked collapsed. The cell is flagged as quantum.
func (s *Substrate) StoreSuperposition(index int, q Superposition) error {
	if err := s.check(index); err != nil {
		return err
	}
	if err := q.validate(); err != nil {
		return err
	}

	var avgMagnitude, avgPhase, totalAmplitude float64
	for i, amp := range q.Amplitudes {
		totalAmplitude += amp
		avgMagnitude += amp * 100.0 // scale to the substrate magnitude domain
		avgPhase += q.Phases[i]
	}
	if totalAmplitude > 0 {
		avgMagnitude /= totalAmplitude
		avgPhase /= float64(len(q.Phases))
	}

	cell := &s.cells[index]
	cell.Magnitude = clamp(avgMagnitude, MagnitudeMin, MagnitudeMax)
	cell.Phase = normalizePhase(avgPhase)
	if q.Collapsed {
		cell.Coherence = CoherenceMin
	} else {
		cell.Coherence = CoherenceMax
	}
	cell.Flags |= FlagQuantum
	cell.LastUpdate = uint32(s.globalTime)
	return nil
}

// RetrieveSuperposition reconstructs a single-sample superposition from a
// cell's field reading. Retrieval is not the inverse of storing; the
// weighted pairs folded in cannot be recovered.
func (s *Substrate) RetrieveSuperposition(index int) (Superposition, error) {
	if err := s.check(index); err != nil {
		return Superposition{}, err
	}
	cell := &s.cells[index]
	return Superposition{
		Amplitudes: []float64{cell.Magnitude / 100.0},
		Phases:     []float64{cell.Phase},
		Collapsed:  cell.Coherence < 1.0,
	}, nil
}

// IsQuantum reports whether a cell holds a projected superposition.
func (s *Substrate) IsQuantum(index int) (bool, error) {
	if err := s.check(index); err != nil {
		return false, err
	}
	return s.cells[index].Flags&FlagQuantum != 0, nil
}
