package activation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"glyphos/internal/glyph"
)

// DefaultMaxDepth bounds the inheritance recursion when none is configured.
const DefaultMaxDepth = 32

// Inheritance fold coefficients: each resolved parent contributes half its
// final resonance and 0.3 of its final entanglement to the child.
const (
	parentResonanceWeight    = 0.5
	parentEntanglementWeight = 0.3
)

var (
	// ErrGlyphNotFound is returned when activating an unregistered id.
	ErrGlyphNotFound = errors.New("glyph not found")
	// ErrCycleDetected marks a parent branch already visited in this
	// activation. The branch contributes nothing; the walk continues.
	ErrCycleDetected = errors.New("inheritance cycle detected")
	// ErrDepthExceeded marks a parent branch past the recursion limit.
	ErrDepthExceeded = errors.New("inheritance depth exceeded")
)

// inheritanceContext is the visited-set for one top-level activation. It
// travels down every recursive call, so a short cycle is caught as a data
// condition on the first revisit instead of exhausting the call stack.
type inheritanceContext struct {
	visited map[string]struct{}
}

func newInheritanceContext() *inheritanceContext {
	return &inheritanceContext{visited: make(map[string]struct{})}
}

func (c *inheritanceContext) mark(id string) {
	c.visited[id] = struct{}{}
}

func (c *inheritanceContext) seen(id string) bool {
	_, ok := c.visited[id]
	return ok
}

// Engine resolves inheritance chains and executes activation sequences
// against a registry it only reads. Not safe for concurrent activations;
// run one activation at a time or give each goroutine its own Engine and
// TraceLog.
type Engine struct {
	registry *glyph.Registry
	trace    *TraceLog
	maxDepth int
	logger   *zap.Logger
}

// NewEngine wires an engine to a registry and trace log. A nil trace log
// gets a default-capacity one; maxDepth <= 0 falls back to DefaultMaxDepth.
func NewEngine(registry *glyph.Registry, trace *TraceLog, maxDepth int, logger *zap.Logger) *Engine {
	if trace == nil {
		trace = NewTraceLog(DefaultTraceCapacity)
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{registry: registry, trace: trace, maxDepth: maxDepth, logger: logger}
}

// Trace returns the engine's trace log.
func (e *Engine) Trace() *TraceLog {
	return e.trace
}

// Activate resolves and executes one glyph: the state is initialized from
// the glyph's own static properties, the inheritance chain is folded in
// (when the glyph declares parents), and the activation sequence runs
// left to right. The terminal state and any error fatal to the call are
// returned; branch failures inside the walk are traced and recovered.
//
// The numeric chain is the reference one: for a glyph with parents the
// resolver re-applies the glyph's own properties after folding parents,
// so its field magnitude multiplies in twice. The canonical decay glyph
// (own magnitude 2.0, sequence amplify(3.0)|decay(0.2)) therefore ends at
// 2.0 * 2.0 * 3.0 * 0.8 = 9.6 exactly.
func (e *Engine) Activate(id string) (FieldState, error) {
	def, ok := e.registry.Find(id)
	if !ok {
		return FieldState{}, fmt.Errorf("%w: %q", ErrGlyphNotFound, id)
	}

	runID := uuid.NewString()
	state := FieldState{
		Resonance:    def.ResonanceFreq,
		Magnitude:    def.FieldMagnitude,
		Phase:        def.PhaseOffset,
		Coherence:    def.Coherence,
		Entanglement: def.Entanglement,
		ActiveGlyph:  id,
	}
	e.trace.Append(runID, id, "Field state initialized", state)

	if len(def.Parents) > 0 {
		ctx := newInheritanceContext()
		if err := e.resolve(runID, id, &state, ctx, 0); err != nil {
			// The top-level glyph exists and depth starts at zero, so a
			// failure here means the walk itself is unusable.
			return FieldState{}, err
		}
	}

	if def.Activation != "" {
		for _, cmd := range ParseSequence(def.Activation) {
			e.execute(runID, cmd, &state, def)
		}
	}
	return state, nil
}

// resolve walks one glyph's inheritance depth-first, parents in declared
// order, folding each successfully resolved parent into state and then
// applying the glyph's own properties. Cyclic, too-deep, or unregistered
// parents fail only their branch: the event is traced and the remaining
// parents still fold.
func (e *Engine) resolve(runID, id string, state *FieldState, ctx *inheritanceContext, depth int) error {
	if depth >= e.maxDepth {
		return fmt.Errorf("%w: %q at depth %d", ErrDepthExceeded, id, depth)
	}
	def, ok := e.registry.Find(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrGlyphNotFound, id)
	}

	ctx.mark(id)
	state.Depth = depth
	state.ActiveGlyph = id

	for _, parent := range def.Parents {
		if ctx.seen(parent) {
			e.logger.Warn("inheritance cycle",
				zap.String("glyph", id), zap.String("parent", parent))
			e.trace.Append(runID, id,
				fmt.Sprintf("Cycle detected: parent %s already visited", parent), *state)
			continue
		}

		parentState := *state
		if err := e.resolve(runID, parent, &parentState, ctx, depth+1); err != nil {
			switch {
			case errors.Is(err, ErrDepthExceeded):
				e.logger.Warn("inheritance depth limit",
					zap.String("glyph", id), zap.String("parent", parent),
					zap.Int("depth", depth+1))
				e.trace.Append(runID, id,
					fmt.Sprintf("Depth limit reached at parent %s", parent), *state)
			case errors.Is(err, ErrGlyphNotFound):
				e.logger.Warn("parent glyph not registered",
					zap.String("glyph", id), zap.String("parent", parent))
				e.trace.Append(runID, id,
					fmt.Sprintf("Parent %s not found in registry", parent), *state)
			default:
				return err
			}
			continue
		}

		state.Resonance += parentState.Resonance * parentResonanceWeight
		state.Entanglement += parentState.Entanglement * parentEntanglementWeight
		e.trace.Append(runID, id, fmt.Sprintf("Inherited from parent %s", parent), *state)
	}

	state.Resonance += def.ResonanceFreq
	state.Magnitude *= def.FieldMagnitude
	state.Coherence = (state.Coherence + def.Coherence) / 2
	state.Phase += def.PhaseOffset
	state.Entanglement *= def.Entanglement
	e.trace.Append(runID, id, "Applied local field properties", *state)

	return nil
}
