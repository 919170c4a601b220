// Package dynamics applies deterministic evolution rules to glyph
// energy: exponential decay over elapsed time, an activation threshold,
// and energy-precedence merging. The engine performs no I/O; callers
// feed it times explicitly so runs are reproducible.
package dynamics

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"
)

// Glyph is the evolving unit the rule engine acts on. Content is opaque
// here; only energy and bookkeeping fields are interpreted.
type Glyph struct {
	ID              string
	Content         string
	Energy          float64
	ActivationCount int
	LastUpdate      time.Time
	MergedFrom      []string
}

// Engine holds the rule parameters. Zero value is unusable; use New.
type Engine struct {
	threshold float64
	decayRate float64
}

// New returns an engine with the given activation threshold and decay
// rate. The rate is clamped to [0,1]; outside that range decay would
// amplify or flip sign.
func New(threshold, decayRate float64) *Engine {
	if decayRate < 0 {
		decayRate = 0
	}
	if decayRate > 1 {
		decayRate = 1
	}
	return &Engine{threshold: threshold, decayRate: decayRate}
}

// Threshold returns the activation threshold.
func (e *Engine) Threshold() float64 { return e.threshold }

// DecayRate returns the clamped decay rate.
func (e *Engine) DecayRate() float64 { return e.decayRate }

// ApplyDecay decays the glyph's energy for the time elapsed since its
// last update: energy ×= (1−rate)^Δt, with Δt in seconds. The glyph's
// LastUpdate advances to now. A now before LastUpdate is a no-op.
func (e *Engine) ApplyDecay(g *Glyph, now time.Time) {
	dt := now.Sub(g.LastUpdate).Seconds()
	if dt <= 0 {
		return
	}
	g.Energy *= math.Pow(1-e.decayRate, dt)
	g.LastUpdate = now
}

// ApplyThreshold checks the glyph against the activation threshold,
// incrementing its activation count when energy meets it. Reports
// whether the glyph activated.
func (e *Engine) ApplyThreshold(g *Glyph) bool {
	if g.Energy < e.threshold {
		return false
	}
	g.ActivationCount++
	return true
}

// Merge combines two glyphs. The higher-energy glyph is primary and its
// content leads; on equal energy the receiver order decides. The merged
// id is the SHA-256 of the combined content, energies sum, counters and
// timestamps take the maximum, and both source ids are recorded.
func (e *Engine) Merge(a, b *Glyph) *Glyph {
	primary, secondary := a, b
	if b.Energy > a.Energy {
		primary, secondary = b, a
	}

	content := fmt.Sprintf("%s + %s", primary.Content, secondary.Content)
	sum := sha256.Sum256([]byte(content))

	merged := &Glyph{
		ID:              hex.EncodeToString(sum[:]),
		Content:         content,
		Energy:          primary.Energy + secondary.Energy,
		ActivationCount: primary.ActivationCount,
		LastUpdate:      primary.LastUpdate,
		MergedFrom:      []string{primary.ID, secondary.ID},
	}
	if secondary.ActivationCount > merged.ActivationCount {
		merged.ActivationCount = secondary.ActivationCount
	}
	if secondary.LastUpdate.After(merged.LastUpdate) {
		merged.LastUpdate = secondary.LastUpdate
	}
	return merged
}

// StepReport records what one Step did to a glyph.
type StepReport struct {
	GlyphID      string
	EnergyBefore float64
	EnergyAfter  float64
	Activated    bool
}

// Step runs one evolution step: decay for the elapsed interval, then the
// threshold check.
func (e *Engine) Step(g *Glyph, now time.Time) StepReport {
	report := StepReport{GlyphID: g.ID, EnergyBefore: g.Energy}
	e.ApplyDecay(g, now)
	report.Activated = e.ApplyThreshold(g)
	report.EnergyAfter = g.Energy
	return report
}
