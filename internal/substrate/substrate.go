// Package substrate implements the deterministic field-state memory model:
// a fixed 64x64 grid of cells carrying magnitude, phase, coherence and a
// decay rate. Every mutating operation funnels through the same clamp/wrap
// helpers, so the per-cell domain invariants hold after any public call and
// Sync is a no-op repair pass on a healthy grid.
package substrate

import (
	"errors"
	"fmt"
	"math"
)

const (
	// GridWidth is the edge length of the square cell grid.
	GridWidth = 64
	// CellCount is the total number of cells (GridWidth squared).
	CellCount = GridWidth * GridWidth

	MagnitudeMin = 0.0
	MagnitudeMax = 1000.0
	CoherenceMin = 0.0
	CoherenceMax = 1000.0
	PhaseMin     = 0.0
	PhaseMax     = 2.0 * math.Pi
	DecayRateMin = 0.0
	DecayRateMax = 1.0

	// Wave propagation constants.
	waveSpeed     = 1.0
	waveDamping   = 0.95
	waveHopRadius = 10.0

	// Ferrofluid response to an applied force vector.
	fluidViscosity = 0.1

	// Tick never decays a cell below this floor.
	magnitudeFloor = 0.01

	// Initial cell state after Init.
	defaultMagnitude = 100.0
	defaultCoherence = 500.0
	defaultDecayRate = 0.01
)

// Cell status flags.
const (
	// FlagQuantum marks a cell holding a projected superposition.
	FlagQuantum uint8 = 0x01
)

var (
	// ErrNotInitialized is returned when an operation runs before Init.
	ErrNotInitialized = errors.New("substrate not initialized")
	// ErrOutOfRange is returned for a cell index outside the grid.
	ErrOutOfRange = errors.New("cell index out of range")
)

// Cell is one element of the field grid. All numeric fields stay inside
// their documented domains after every public Substrate operation.
type Cell struct {
	Magnitude  float64
	Phase      float64
	Coherence  float64
	DecayRate  float64
	LastUpdate uint32
	Flags      uint8
}

// Substrate owns the full cell grid plus the logical clock, rolling
// checksum and operation counters. The zero value is unusable until Init;
// use New for a ready instance. Substrate is not safe for concurrent use.
type Substrate struct {
	cells       [CellCount]Cell
	globalTime  uint64
	checksum    uint32
	readCount   uint32
	writeCount  uint32
	initialized bool
}

// New returns an initialized substrate.
func New() *Substrate {
	s := &Substrate{}
	s.Init()
	return s
}

// Init resets every cell to the default state and zeroes the clock and
// counters. It is idempotent and doubles as a hard reset at any point.
func (s *Substrate) Init() {
	*s = Substrate{}
	for i := range s.cells {
		s.cells[i] = Cell{
			Magnitude: defaultMagnitude,
			Coherence: defaultCoherence,
			DecayRate: defaultDecayRate,
		}
	}
	s.initialized = true
	s.checksum = s.computeChecksum()
}

// Reset is an alias for Init kept for callers that want reset semantics.
func (s *Substrate) Reset() {
	s.Init()
}

// Initialized reports whether Init has run.
func (s *Substrate) Initialized() bool {
	return s.initialized
}

// GlobalTime returns the current logical tick.
func (s *Substrate) GlobalTime() uint64 {
	return s.globalTime
}

// Checksum returns the rolling integrity checksum.
func (s *Substrate) Checksum() uint32 {
	return s.checksum
}

func (s *Substrate) check(index int) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if index < 0 || index >= CellCount {
		return fmt.Errorf("%w: %d (grid holds %d cells)", ErrOutOfRange, index, CellCount)
	}
	return nil
}

// Read returns the magnitude, phase and coherence of a cell.
func (s *Substrate) Read(index int) (magnitude, phase, coherence float64, err error) {
	if err := s.check(index); err != nil {
		return 0, 0, 0, err
	}
	cell := &s.cells[index]
	s.readCount++
	return cell.Magnitude, cell.Phase, cell.Coherence, nil
}

// Write stores magnitude, phase and coherence into a cell, clamping and
// wrapping into their domains first, and refreshes the checksum.
func (s *Substrate) Write(index int, magnitude, phase, coherence float64) error {
	if err := s.check(index); err != nil {
		return err
	}
	cell := &s.cells[index]
	cell.Magnitude = clamp(magnitude, MagnitudeMin, MagnitudeMax)
	cell.Phase = normalizePhase(phase)
	cell.Coherence = clamp(coherence, CoherenceMin, CoherenceMax)
	cell.LastUpdate = uint32(s.globalTime)

	s.writeCount++
	s.checksum = s.computeChecksum()
	return nil
}

// Sync re-applies every per-cell invariant and recomputes the checksum.
// It reports whether the checksum changed; on a healthy grid it is a no-op.
func (s *Substrate) Sync() (changed bool, err error) {
	if !s.initialized {
		return false, ErrNotInitialized
	}
	for i := range s.cells {
		cell := &s.cells[i]
		if cell.Phase < PhaseMin || cell.Phase >= PhaseMax {
			cell.Phase = normalizePhase(cell.Phase)
		}
		if cell.Coherence < CoherenceMin || cell.Coherence > CoherenceMax {
			cell.Coherence = clamp(cell.Coherence, CoherenceMin, CoherenceMax)
		}
		if cell.Magnitude < MagnitudeMin || cell.Magnitude > MagnitudeMax {
			cell.Magnitude = clamp(cell.Magnitude, MagnitudeMin, MagnitudeMax)
		}
		if cell.DecayRate < DecayRateMin || cell.DecayRate > DecayRateMax {
			cell.DecayRate = clamp(cell.DecayRate, DecayRateMin, DecayRateMax)
		}
	}
	old := s.checksum
	s.checksum = s.computeChecksum()
	return s.checksum != old, nil
}

// Tick advances the logical clock by one unit and applies each cell's
// decay rate to its magnitude, floored at a small positive epsilon.
func (s *Substrate) Tick() error {
	if !s.initialized {
		return ErrNotInitialized
	}
	s.globalTime++
	for i := range s.cells {
		cell := &s.cells[i]
		cell.Magnitude *= 1.0 - cell.DecayRate
		if cell.Magnitude < magnitudeFloor {
			cell.Magnitude = magnitudeFloor
		}
	}
	return nil
}

// ApplyForce injects a force vector into one cell: magnitude rises by the
// force magnitude scaled by one minus viscosity, the phase rotates by a
// tenth of the planar force angle, and coherence rises by half the force
// magnitude. All fields are clamped or wrapped afterwards.
func (s *Substrate) ApplyForce(index int, fx, fy, fz float64) error {
	if err := s.check(index); err != nil {
		return err
	}
	cell := &s.cells[index]
	forceMag := math.Sqrt(fx*fx + fy*fy + fz*fz)

	cell.Magnitude = clamp(cell.Magnitude+forceMag*(1.0-fluidViscosity), MagnitudeMin, MagnitudeMax)
	cell.Phase = normalizePhase(cell.Phase + math.Atan2(fy, fx)*0.1)
	cell.Coherence = clamp(cell.Coherence+forceMag*0.5, CoherenceMin, CoherenceMax)
	cell.LastUpdate = uint32(s.globalTime)
	return nil
}

// PropagateWave runs a breadth-first traversal over the 4-neighbor grid
// topology from origin, applying a geometrically damped, phase-shifted
// contribution to every visited cell. Each cell is visited at most once
// and the frontier stops expanding past a fixed hop radius, so the
// traversal always terminates. The result is a pure function of the grid
// state, the arguments and the current global tick.
func (s *Substrate) PropagateWave(origin int, amplitude, frequency float64) error {
	if err := s.check(origin); err != nil {
		return err
	}

	wavelength := waveSpeed / frequency

	var visited [CellCount]bool
	var distances [CellCount]float64
	queue := make([]int, 0, CellCount)
	queue = append(queue, origin)
	visited[origin] = true

	for head := 0; head < len(queue); head++ {
		current := queue[head]
		distance := distances[current]

		attenuation := math.Pow(waveDamping, distance)
		phaseShift := 2.0 * math.Pi * distance / wavelength

		cell := &s.cells[current]
		contribution := amplitude * attenuation *
			math.Cos(frequency*float64(s.globalTime)+phaseShift)

		cell.Magnitude = clamp(cell.Magnitude+math.Abs(contribution), MagnitudeMin, MagnitudeMax)
		cell.Phase = normalizePhase(cell.Phase + phaseShift)

		if distance >= waveHopRadius {
			continue
		}
		for _, neighbor := range neighbors(current) {
			if !visited[neighbor] {
				visited[neighbor] = true
				distances[neighbor] = distance + 1.0
				queue = append(queue, neighbor)
			}
		}
	}
	return nil
}

// neighbors returns the 4-neighbor grid adjacency of a cell index.
func neighbors(index int) []int {
	x := index % GridWidth
	y := index / GridWidth

	out := make([]int, 0, 4)
	if x > 0 {
		out = append(out, index-1)
	}
	if x < GridWidth-1 {
		out = append(out, index+1)
	}
	if y > 0 {
		out = append(out, index-GridWidth)
	}
	if y < GridWidth-1 {
		out = append(out, index+GridWidth)
	}
	return out
}

// computeChecksum mixes magnitude, phase and coherence of every cell into
// a rolling 32-bit sum with a rotate-left per cell.
func (s *Substrate) computeChecksum() uint32 {
	var sum uint32
	for i := range s.cells {
		mag := uint32(s.cells[i].Magnitude * 1000.0)
		phs := uint32(s.cells[i].Phase * 1000.0)
		coh := uint32(s.cells[i].Coherence * 1000.0)
		sum += mag ^ phs ^ coh
		sum = sum<<1 | sum>>31
	}
	return sum
}

func normalizePhase(phase float64) float64 {
	for phase < PhaseMin {
		phase += PhaseMax
	}
	for phase >= PhaseMax {
		phase -= PhaseMax
	}
	return phase
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
