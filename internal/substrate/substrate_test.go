package substrate

import (
	"errors"
	"math"
	"testing"
)

func TestInitDefaults(t *testing.T) {
	s := New()
	if !s.Initialized() {
		t.Fatal("substrate not marked initialized")
	}
	if s.GlobalTime() != 0 {
		t.Errorf("expected global time 0, got %d", s.GlobalTime())
	}
	mag, phase, coh, err := s.Read(0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if mag != 100.0 || phase != 0.0 || coh != 500.0 {
		t.Errorf("unexpected defaults: mag=%v phase=%v coh=%v", mag, phase, coh)
	}
}

func TestNotInitialized(t *testing.T) {
	var s Substrate
	if _, _, _, err := s.Read(0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Read before Init: expected ErrNotInitialized, got %v", err)
	}
	if err := s.Write(0, 1, 0, 1); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Write before Init: expected ErrNotInitialized, got %v", err)
	}
	if err := s.Tick(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Tick before Init: expected ErrNotInitialized, got %v", err)
	}
	if _, err := s.Sync(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Sync before Init: expected ErrNotInitialized, got %v", err)
	}
}

func TestOutOfRange(t *testing.T) {
	s := New()
	for _, idx := range []int{-1, CellCount, CellCount + 5} {
		if _, _, _, err := s.Read(idx); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Read(%d): expected ErrOutOfRange, got %v", idx, err)
		}
		if err := s.Write(idx, 1, 0, 1); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Write(%d): expected ErrOutOfRange, got %v", idx, err)
		}
		if err := s.ApplyForce(idx, 1, 1, 1); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ApplyForce(%d): expected ErrOutOfRange, got %v", idx, err)
		}
		if err := s.PropagateWave(idx, 1, 1); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("PropagateWave(%d): expected ErrOutOfRange, got %v", idx, err)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := New()
	if err := s.Write(100, 250.0, math.Pi, 750.0); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	mag, phase, coh, err := s.Read(100)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if mag != 250.0 || coh != 750.0 {
		t.Errorf("round trip mismatch: mag=%v coh=%v", mag, coh)
	}
	if math.Abs(phase-math.Pi) > 1e-9 {
		t.Errorf("phase mismatch: %v", phase)
	}
}

func TestWriteClampsAndWraps(t *testing.T) {
	s := New()

	// Magnitude 2000 clamps to 1000, phase 3pi wraps to pi, coherence clamps.
	if err := s.Write(200, 2000.0, 3.0*math.Pi, -5.0); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	mag, phase, coh, _ := s.Read(200)
	if mag != MagnitudeMax {
		t.Errorf("magnitude not clamped: %v", mag)
	}
	if math.Abs(phase-math.Pi) > 1e-9 {
		t.Errorf("phase not wrapped to pi: %v", phase)
	}
	if coh != CoherenceMin {
		t.Errorf("coherence not clamped: %v", coh)
	}
}

func TestSyncIdempotent(t *testing.T) {
	s := New()
	if err := s.Write(7, 321.5, 1.25, 900.0); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	changed, err := s.Sync()
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if changed {
		t.Error("first Sync on a healthy grid changed the checksum")
	}
	first := s.Checksum()
	changed, err = s.Sync()
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if changed || s.Checksum() != first {
		t.Errorf("Sync not idempotent: changed=%v checksum %08x -> %08x",
			changed, first, s.Checksum())
	}
}

func TestTickDecayAndFloor(t *testing.T) {
	s := New()
	if err := s.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if s.GlobalTime() != 1 {
		t.Errorf("expected global time 1, got %d", s.GlobalTime())
	}
	mag, _, _, _ := s.Read(0)
	if math.Abs(mag-100.0*0.99) > 1e-9 {
		t.Errorf("decay not applied: %v", mag)
	}

	// A cell driven to the floor never decays to zero.
	if err := s.Write(1, 0.005, 0, 500); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	mag, _, _, _ = s.Read(1)
	if mag != 0.01 {
		t.Errorf("expected magnitude floor 0.01, got %v", mag)
	}
}

func TestApplyForce(t *testing.T) {
	s := New()
	before, _, cohBefore, _ := s.Read(500)
	if err := s.ApplyForce(500, 10.0, 10.0, 10.0); err != nil {
		t.Fatalf("ApplyForce failed: %v", err)
	}
	after, phase, cohAfter, _ := s.Read(500)
	if after <= before {
		t.Errorf("magnitude did not rise: %v <= %v", after, before)
	}
	if cohAfter <= cohBefore {
		t.Errorf("coherence did not rise: %v <= %v", cohAfter, cohBefore)
	}
	if phase < PhaseMin || phase >= PhaseMax {
		t.Errorf("phase left its domain: %v", phase)
	}

	forceMag := math.Sqrt(300.0)
	wantMag := before + forceMag*0.9
	if math.Abs(after-wantMag) > 1e-9 {
		t.Errorf("expected magnitude %v, got %v", wantMag, after)
	}
}

func TestPropagateWaveAffectsOriginAndNeighbors(t *testing.T) {
	s := New()
	origin := 2048 // center of the grid
	before, _, _, _ := s.Read(origin)
	if err := s.PropagateWave(origin, 50.0, 1.0); err != nil {
		t.Fatalf("PropagateWave failed: %v", err)
	}
	after, _, _, _ := s.Read(origin)
	if after <= before {
		t.Errorf("origin not affected: %v <= %v", after, before)
	}

	affected := false
	for _, n := range neighbors(origin) {
		mag, _, _, _ := s.Read(n)
		if mag > 100.0 {
			affected = true
			break
		}
	}
	if !affected {
		t.Error("no neighbor affected by wave")
	}
}

func TestPropagateWaveDeterministic(t *testing.T) {
	run := func() [CellCount]Cell {
		s := New()
		if err := s.Tick(); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
		if err := s.PropagateWave(100, 42.0, 2.5); err != nil {
			t.Fatalf("PropagateWave failed: %v", err)
		}
		return s.cells
	}
	a, b := run(), run()
	for i := range a {
		if a[i].Magnitude != b[i].Magnitude || a[i].Phase != b[i].Phase {
			t.Fatalf("cell %d differs between identical runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

// Invariant: after any sequence of public mutations, every cell stays
// inside its documented domains.
func TestDomainInvariantHolds(t *testing.T) {
	s := New()
	ops := []func() error{
		func() error { return s.Write(0, 5000, -12.5, 9999) },
		func() error { return s.ApplyForce(63, 800, -800, 400) },
		func() error { return s.PropagateWave(4032, 900, 0.25) },
		func() error { return s.Tick() },
		func() error { return s.ApplyForce(0, -3, -4, 0) },
		func() error { return s.PropagateWave(0, 75, 3.0) },
	}
	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("op %d failed: %v", i, err)
		}
		for idx := range s.cells {
			c := &s.cells[idx]
			if c.Magnitude < MagnitudeMin || c.Magnitude > MagnitudeMax {
				t.Fatalf("op %d: cell %d magnitude out of domain: %v", i, idx, c.Magnitude)
			}
			if c.Coherence < CoherenceMin || c.Coherence > CoherenceMax {
				t.Fatalf("op %d: cell %d coherence out of domain: %v", i, idx, c.Coherence)
			}
			if c.Phase < PhaseMin || c.Phase >= PhaseMax {
				t.Fatalf("op %d: cell %d phase out of domain: %v", i, idx, c.Phase)
			}
		}
	}
}

func TestStatusSummary(t *testing.T) {
	s := New()
	if err := s.Write(3, 400, 0, 800); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, _, _, err := s.Read(3); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	st := s.Status()
	if st.ReadCount != 1 || st.WriteCount != 1 {
		t.Errorf("unexpected op counts: reads=%d writes=%d", st.ReadCount, st.WriteCount)
	}
	if st.MaxMagnitude != 400 {
		t.Errorf("expected max magnitude 400, got %v", st.MaxMagnitude)
	}
	if st.AvgMagnitude <= 0 || st.AvgCoherence <= 0 {
		t.Errorf("averages not computed: %+v", st)
	}

	var uninit Substrate
	if got := uninit.Status().String(); got != "Substrate Status: NOT INITIALIZED" {
		t.Errorf("unexpected uninitialized status: %q", got)
	}
}

func TestNeighborsEdges(t *testing.T) {
	cases := []struct {
		index int
		count int
	}{
		{0, 2},                 // corner
		{GridWidth - 1, 2},     // corner
		{CellCount - 1, 2},     // corner
		{1, 3},                 // top edge
		{GridWidth, 3},         // left edge
		{GridWidth + 1, 4},     // interior
		{CellCount - 2, 3},     // bottom edge
	}
	for _, c := range cases {
		if got := len(neighbors(c.index)); got != c.count {
			t.Errorf("neighbors(%d): expected %d, got %d", c.index, c.count, got)
		}
	}
}
