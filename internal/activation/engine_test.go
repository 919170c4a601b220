package activation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glyphos/internal/glyph"
)

func testDef(id string, parents []string, resonance, magnitude float64, coherence int,
	entanglement, phase float64, activation string) *glyph.Definition {
	def := glyph.NewDefinition()
	def.ID = id
	def.Parents = parents
	def.ResonanceFreq = resonance
	def.FieldMagnitude = magnitude
	def.Coherence = coherence
	def.Entanglement = entanglement
	def.PhaseOffset = phase
	def.Activation = activation
	return def
}

// newTestRegistry mirrors the reference self-test glyph set.
func newTestRegistry(t *testing.T) *glyph.Registry {
	t.Helper()
	r := glyph.NewRegistry(glyph.DefaultCapacity)
	defs := []*glyph.Definition{
		testDef("000", nil, 440.0, 1.0, 100, 1.0, 0.0, "resonate(1.5) | stabilize()"),
		testDef("001", []string{"000"}, 880.0, 1.2, 95, 1.5, 45.0,
			"resonate(2.0) | entangle(000) | amplify(1.5)"),
		testDef("002", []string{"001", "000"}, 1320.0, 0.8, 85, 2.0, 90.0,
			"resonate(1.5) | entangle(001) | phase_shift(30) | stabilize()"),
		testDef("003", []string{"000"}, 220.0, 2.0, 100, 1.0, 0.0,
			"amplify(3.0) | decay(0.2) | stabilize()"),
	}
	for _, d := range defs {
		require.NoError(t, r.Register(d))
	}
	return r
}

func TestActivateRootGlyphAlone(t *testing.T) {
	r := glyph.NewRegistry(8)
	require.NoError(t, r.Register(testDef("000", nil, 440.0, 1.0, 100, 1.0, 0.0, "")))

	e := NewEngine(r, nil, 0, nil)
	state, err := e.Activate("000")
	require.NoError(t, err)

	// No parents, no sequence: the state is the glyph's own properties.
	assert.Equal(t, 440.0, state.Resonance)
	assert.Equal(t, 1.0, state.Magnitude)
	assert.Equal(t, 100, state.Coherence)
	assert.Equal(t, 0, state.Depth)
}

func TestActivateDecayGlyphNumericChain(t *testing.T) {
	e := NewEngine(newTestRegistry(t), nil, 0, nil)
	state, err := e.Activate("003")
	require.NoError(t, err)

	// init 2.0, local fold x2.0, amplify x3.0, decay x0.8 = 9.6.
	assert.InDelta(t, 9.6, state.Magnitude, 1e-9)
	// decay(0.2) drops coherence by 2, stabilize() saturates back to 100.
	assert.Equal(t, 100, state.Coherence)
}

func TestActivateEntanglement(t *testing.T) {
	e := NewEngine(newTestRegistry(t), nil, 0, nil)
	state, err := e.Activate("001")
	require.NoError(t, err)

	// Fold parent 000 (R 1320 final, E 1.5 final), re-apply own props,
	// then resonate(2.0) | entangle(000) | amplify(1.5). The entangle
	// argument starts with a digit, so it parses as numeric and entangles
	// nothing; the entanglement factor comes from the inheritance fold.
	assert.InDelta(t, 2.925, state.Entanglement, 1e-9)
	assert.InDelta(t, 4840.0, state.Resonance, 1e-9)
	assert.InDelta(t, 2.16, state.Magnitude, 1e-9)
	assert.Greater(t, state.Entanglement, 1.0)
}

func TestEntangleAppliesTarget(t *testing.T) {
	r := glyph.NewRegistry(8)
	require.NoError(t, r.Register(testDef("anchor", nil, 500, 1.0, 100, 2.5, 0, "")))
	require.NoError(t, r.Register(testDef("weaver", nil, 440, 1.0, 100, 1.0, 0,
		"entangle(anchor)")))

	e := NewEngine(r, nil, 0, nil)
	state, err := e.Activate("weaver")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, state.Entanglement, 1e-9)
	assert.InDelta(t, 440.0+500.0*0.2, state.Resonance, 1e-9)
}

func TestActivateUnknownGlyph(t *testing.T) {
	e := NewEngine(newTestRegistry(t), nil, 0, nil)
	_, err := e.Activate("missing")
	require.ErrorIs(t, err, ErrGlyphNotFound)
}

func TestCycleResolvesWithoutHanging(t *testing.T) {
	r := glyph.NewRegistry(8)
	require.NoError(t, r.Register(testDef("A", []string{"B"}, 100, 1.0, 100, 1.0, 0, "")))
	require.NoError(t, r.Register(testDef("B", []string{"A"}, 200, 1.0, 100, 1.0, 0, "")))

	e := NewEngine(r, NewTraceLog(256), 0, nil)
	state, err := e.Activate("A")
	require.NoError(t, err, "a cyclic glyph set must still activate")
	assert.Greater(t, state.Resonance, 0.0)

	found := false
	for _, entry := range e.Trace().Entries() {
		if strings.Contains(entry.Operation, "Cycle detected") {
			found = true
		}
	}
	assert.True(t, found, "cycle event must be traced")
}

func TestDepthLimitFailsBranchOnly(t *testing.T) {
	r := glyph.NewRegistry(128)
	// d0 -> d1 -> ... -> d40, deeper than the limit of 32.
	const chain = 40
	for i := 0; i < chain; i++ {
		var parents []string
		if i < chain-1 {
			parents = []string{id(i + 1)}
		}
		require.NoError(t, r.Register(testDef(id(i), parents, 10, 1.0, 100, 1.0, 0, "")))
	}

	e := NewEngine(r, NewTraceLog(1024), DefaultMaxDepth, nil)
	_, err := e.Activate(id(0))
	require.NoError(t, err, "depth overflow fails the branch, not the activation")

	found := false
	for _, entry := range e.Trace().Entries() {
		if strings.Contains(entry.Operation, "Depth limit") {
			found = true
		}
	}
	assert.True(t, found, "depth event must be traced")
}

func id(i int) string {
	return "d" + string(rune('A'+i/26)) + string(rune('a'+i%26))
}

func TestDiamondFoldsSharedAncestorOnce(t *testing.T) {
	r := glyph.NewRegistry(8)
	require.NoError(t, r.Register(testDef("A", nil, 100, 1.0, 100, 1.0, 0, "")))
	require.NoError(t, r.Register(testDef("B", []string{"A"}, 10, 1.0, 100, 1.0, 0, "")))
	require.NoError(t, r.Register(testDef("C", []string{"A"}, 20, 1.0, 100, 1.0, 0, "")))
	require.NoError(t, r.Register(testDef("D", []string{"B", "C"}, 1, 1.0, 100, 1.0, 0, "")))

	e := NewEngine(r, NewTraceLog(256), 0, nil)
	_, err := e.Activate("D")
	require.NoError(t, err)

	folds := 0
	for _, entry := range e.Trace().Entries() {
		if entry.Operation == "Inherited from parent A" {
			folds++
		}
	}
	assert.Equal(t, 1, folds, "a shared ancestor contributes exactly once")
}

func TestMissingParentIsBranchFailure(t *testing.T) {
	r := glyph.NewRegistry(8)
	require.NoError(t, r.Register(testDef("kid", []string{"ghost"}, 300, 1.0, 100, 1.0, 0, "")))

	e := NewEngine(r, NewTraceLog(64), 0, nil)
	state, err := e.Activate("kid")
	require.NoError(t, err)
	// Own properties still applied after the failed branch.
	assert.Equal(t, 600.0, state.Resonance)

	found := false
	for _, entry := range e.Trace().Entries() {
		if strings.Contains(entry.Operation, "not found in registry") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEntangleMissingTargetIsTracedNoOp(t *testing.T) {
	r := glyph.NewRegistry(8)
	require.NoError(t, r.Register(testDef("solo", nil, 440, 1.0, 100, 1.0, 0, "entangle(nobody)")))

	e := NewEngine(r, NewTraceLog(64), 0, nil)
	state, err := e.Activate("solo")
	require.NoError(t, err)
	assert.Equal(t, 1.0, state.Entanglement, "missing target must not change state")

	found := false
	for _, entry := range e.Trace().Entries() {
		if entry.Operation == "entangle(nobody): target not found" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestUnknownCommandIsTracedNoOp(t *testing.T) {
	r := glyph.NewRegistry(8)
	require.NoError(t, r.Register(testDef("odd", nil, 440, 1.0, 100, 1.0, 0,
		"frobnicate(2.0) | resonate(2.0)")))

	e := NewEngine(r, NewTraceLog(64), 0, nil)
	state, err := e.Activate("odd")
	require.NoError(t, err)
	assert.Equal(t, 880.0, state.Resonance, "only the known command applies")

	found := false
	for _, entry := range e.Trace().Entries() {
		if entry.Operation == "unknown_command(frobnicate)" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestStabilizeSaturates(t *testing.T) {
	r := glyph.NewRegistry(8)
	require.NoError(t, r.Register(testDef("low", nil, 440, 1.0, 40, 1.0, 0,
		"stabilize() | stabilize()")))
	require.NoError(t, r.Register(testDef("high", nil, 440, 1.0, 95, 1.0, 0,
		"stabilize() | stabilize() | stabilize()")))

	e := NewEngine(r, nil, 0, nil)
	state, err := e.Activate("low")
	require.NoError(t, err)
	assert.Equal(t, 60, state.Coherence)

	state, err = e.Activate("high")
	require.NoError(t, err)
	assert.Equal(t, 100, state.Coherence, "stabilize saturates at 100")
}
