// Package selftest runs the built-in verification suite behind the
// --test flag. It exercises the substrate and the activation engine
// against known fixtures and prints a pass/fail report in the classic
// banner format.
package selftest

import (
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"

	"glyphos/internal/activation"
	"glyphos/internal/glyph"
	"glyphos/internal/substrate"
)

// Result summarizes a suite run.
type Result struct {
	Passed int
	Failed int
}

// OK reports whether every check passed.
func (r Result) OK() bool { return r.Failed == 0 }

type runner struct {
	w      io.Writer
	logger *zap.Logger
	result Result
}

func (r *runner) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *runner) check(ok bool, passMsg, failMsg string) {
	if ok {
		r.printf("  PASS: %s\n", passMsg)
		r.result.Passed++
	} else {
		r.printf("  FAIL: %s\n", failMsg)
		r.result.Failed++
	}
}

// fixtureRegistry builds the canonical four-glyph test lineage.
func fixtureRegistry() *glyph.Registry {
	reg := glyph.NewRegistry(glyph.DefaultCapacity)

	root := glyph.NewDefinition()
	root.ID = "000"
	root.Chronocode = "20250101_000000"
	root.ResonanceFreq = 440.0
	root.FieldMagnitude = 1.0
	root.Coherence = 100
	root.Entanglement = 1.0
	root.Activation = "resonate(1.5) | stabilize()"
	reg.Register(root)

	child1 := glyph.NewDefinition()
	child1.ID = "001"
	child1.Chronocode = "20250101_120000"
	child1.Parents = []string{"000"}
	child1.ResonanceFreq = 880.0
	child1.FieldMagnitude = 1.2
	child1.Coherence = 95
	child1.Entanglement = 1.5
	child1.PhaseOffset = 45.0
	child1.Activation = "resonate(2.0) | entangle(000) | amplify(1.5)"
	reg.Register(child1)

	child2 := glyph.NewDefinition()
	child2.ID = "002"
	child2.Chronocode = "20250101_130000"
	child2.Parents = []string{"001", "000"}
	child2.ResonanceFreq = 1320.0
	child2.FieldMagnitude = 0.8
	child2.Coherence = 85
	child2.Entanglement = 2.0
	child2.PhaseOffset = 90.0
	child2.Activation = "resonate(1.5) | entangle(001) | phase_shift(30) | stabilize()"
	reg.Register(child2)

	decay := glyph.NewDefinition()
	decay.ID = "003"
	decay.Chronocode = "20250101_140000"
	decay.Parents = []string{"000"}
	decay.ResonanceFreq = 220.0
	decay.FieldMagnitude = 2.0
	decay.Coherence = 100
	decay.Entanglement = 1.0
	decay.Activation = "amplify(3.0) | decay(0.2) | stabilize()"
	reg.Register(decay)

	return reg
}

// Run executes the full suite, writing the report to w.
func Run(w io.Writer, logger *zap.Logger) Result {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &runner{w: w, logger: logger}

	r.printf("\n========================================\n")
	r.printf("  SUBSTRATE TEST SUITE\n")
	r.printf("========================================\n\n")
	r.substrateSuite()

	r.printf("\n========================================\n")
	r.printf("  GLYPH INTERPRETER TEST SUITE\n")
	r.printf("========================================\n\n")
	r.interpreterSuite()

	total := r.result.Passed + r.result.Failed
	r.printf("\n========================================\n")
	r.printf("  TEST RESULTS\n")
	r.printf("========================================\n")
	r.printf("Tests Passed: %d\n", r.result.Passed)
	r.printf("Tests Failed: %d\n", r.result.Failed)
	if total > 0 {
		r.printf("Success Rate: %.1f%%\n", float64(r.result.Passed)/float64(total)*100)
	}
	r.printf("========================================\n\n")

	logger.Info("self test complete",
		zap.Int("passed", r.result.Passed), zap.Int("failed", r.result.Failed))
	return r.result
}

func (r *runner) substrateSuite() {
	s := substrate.New()

	r.printf("[TEST 1] Substrate Initialization\n")
	s.Init()
	mag, _, coh, readErr := s.Read(0)
	r.check(readErr == nil && mag == 100 && coh == 500,
		"substrate initialized with default field",
		"initialization defaults incorrect")

	r.printf("\n[TEST 2] Cell Read/Write\n")
	writeErr := s.Write(100, 750, 1.5, 600)
	mag, phase, coh, readErr := s.Read(100)
	r.check(writeErr == nil && readErr == nil && mag == 750 && coh == 600 && math.Abs(phase-1.5) < 1e-9,
		"cell round trip preserved values",
		"cell round trip lost values")

	r.printf("\n[TEST 3] Parity Checks and Normalization\n")
	s.Write(200, 100, 3*math.Pi, 500)
	_, phase, _, _ = s.Read(200)
	wrapped := phase >= 0 && phase < 2*math.Pi
	s.Write(200, 2000, 0, 500)
	mag, _, _, _ = s.Read(200)
	s.Write(200, 100, 0, 2000)
	_, _, coh, _ = s.Read(200)
	r.check(wrapped && mag == substrate.MagnitudeMax && coh == substrate.CoherenceMax,
		"out-of-range writes clamped and phase wrapped",
		"normalization failed")

	r.printf("\n[TEST 4] Wave Propagation\n")
	origin := 2048
	before, _, _, _ := s.Read(origin)
	waveErr := s.PropagateWave(origin, 10.0, 5.0)
	after, _, _, _ := s.Read(origin)
	neighborAfter, _, _, _ := s.Read(origin + 1)
	r.check(waveErr == nil && after >= before && neighborAfter > 0,
		"wave propagated from origin",
		"wave propagation had no effect")

	r.printf("\n[TEST 5] Force Application\n")
	before, _, _, _ = s.Read(500)
	forceErr := s.ApplyForce(500, 10.0, 10.0, 10.0)
	after, _, _, _ = s.Read(500)
	r.check(forceErr == nil && after > before,
		"force increased cell magnitude",
		"force application had no effect")

	r.printf("\n[TEST 6] Quantum Superposition Store\n")
	sp := substrate.Superposition{
		Amplitudes: []float64{0.5, 0.3, 0.2},
		Phases:     []float64{0.0, 1.0, 2.0},
	}
	storeErr := s.StoreSuperposition(1000, sp)
	got, retrErr := s.RetrieveSuperposition(1000)
	quantum, _ := s.IsQuantum(1000)
	r.check(storeErr == nil && retrErr == nil && quantum && !got.Collapsed,
		"superposition stored and retrieved",
		"quantum slot store failed")
}

func (r *runner) interpreterSuite() {
	reg := fixtureRegistry()
	engine := activation.NewEngine(reg, activation.NewTraceLog(activation.DefaultTraceCapacity), 0, r.logger)

	r.printf("[TEST 1] GDF Parser - field schema\n")
	parsed, parseErr := glyph.NewParser(r.logger).ParseString(
		"glyph_id: tmp\nresonance_freq: 440\nfield_magnitude: 1.0\n")
	r.check(parseErr == nil && parsed.ID == "tmp" && reg.Len() == 4,
		fmt.Sprintf("loaded %d test glyphs", reg.Len()),
		"registry fixture incomplete")

	r.printf("\n[TEST 2] Glyph Registry Lookup\n")
	found, ok := reg.Find("001")
	r.check(ok && found.ID == "001",
		"found glyph 001",
		"could not find glyph 001")

	r.printf("\n[TEST 3] Parent Chain Resolution\n")
	child, ok := reg.Find("002")
	r.check(ok && len(child.Parents) == 2,
		fmt.Sprintf("glyph 002 has %d parents", len(child.Parents)),
		"parent chain parsing error")

	r.printf("\n[TEST 4] Activation Command Parsing\n")
	cmds := activation.ParseSequence("resonate(2.5)")
	r.check(len(cmds) == 1 && cmds[0].Op == activation.OpResonate &&
		cmds[0].HasArg && cmds[0].Arg == 2.5,
		"parsed resonate(2.5) correctly",
		"command parsing error")

	r.printf("\n[TEST 5] Simple Glyph Activation (no parents)\n")
	state1, actErr := engine.Activate("000")
	r.check(actErr == nil && state1.Resonance > 0 && state1.Magnitude > 0,
		fmt.Sprintf("glyph 000 activated (R=%.2f, M=%.3f)", state1.Resonance, state1.Magnitude),
		"invalid state after activation")

	r.printf("\n[TEST 6] Inheritance Chain Execution\n")
	state2, actErr := engine.Activate("002")
	r.check(actErr == nil && state2.Entanglement > 0,
		fmt.Sprintf("glyph 002 activated with inheritance (E=%.3f)", state2.Entanglement),
		"inheritance chain not executed")

	r.printf("\n[TEST 7] Entanglement Command Execution\n")
	state3, actErr := engine.Activate("001")
	r.check(actErr == nil && state3.Entanglement > 1.0,
		fmt.Sprintf("entanglement applied (E=%.3f)", state3.Entanglement),
		"entanglement not applied correctly")

	r.printf("\n[TEST 8] Decay Command Execution\n")
	state4, actErr := engine.Activate("003")
	r.check(actErr == nil && state4.Magnitude >= 8.0 && state4.Magnitude <= 11.0,
		fmt.Sprintf("decay applied (M=%.3f)", state4.Magnitude),
		fmt.Sprintf("decay not applied correctly (M=%.3f, expected 8.0-11.0)", state4.Magnitude))

	r.printf("\n[TEST 9] Symbolic Trace Output\n")
	r.check(engine.Trace().Len() > 0,
		fmt.Sprintf("generated %d trace entries", engine.Trace().Len()),
		"no trace entries generated")

	r.printf("\n[TEST 10] Field State Evolution\n")
	r.check(state2.Resonance != state1.Resonance || state2.Magnitude != state1.Magnitude,
		"field state evolved across activations",
		"field state did not evolve")
}
