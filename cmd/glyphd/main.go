package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"glyphos/internal/activation"
	"glyphos/internal/config"
	"glyphos/internal/dynamics"
	"glyphos/internal/glyph"
	"glyphos/internal/selftest"
	"glyphos/internal/substrate"
	"glyphos/internal/vault"
)

var (
	// Global flags
	cfgPath    string
	verbose    bool
	noTrace    bool
	testMode   bool
	vaultPath  string
	loadFile   string
	activateID string
	listMode   bool
	statusMode bool
	watchMode  bool
	dynamicsID string
	steps      int

	logger *zap.Logger
)

// rootCmd drives every operation off flags, in a fixed composition
// order: test, vault, load, list, dynamics, activate, status. With no
// flags it prints usage.
var rootCmd = &cobra.Command{
	Use:   "glyphd",
	Short: "glyphd - symbolic glyph interpreter over a ferrofluid field substrate",
	Long: `glyphd loads Glyph Definition Format (GDF) records, resolves their
inheritance chains and interprets activation sequences into evolving
field states, with a 64x64 cell substrate simulation underneath.

Run with --test for the built-in verification suite.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgPath, "config", "glyphd.yaml", "Configuration file")
	rootCmd.Flags().BoolVar(&testMode, "test", false, "Run comprehensive test suite")
	rootCmd.Flags().StringVar(&vaultPath, "vault", "", "Load all *.gdf files from directory")
	rootCmd.Flags().StringVar(&loadFile, "load", "", "Load a single GDF file from the vault")
	rootCmd.Flags().StringVar(&activateID, "activate", "", "Activate glyph by ID")
	rootCmd.Flags().BoolVar(&listMode, "list", false, "List loaded glyphs")
	rootCmd.Flags().BoolVar(&statusMode, "status", false, "Print substrate health summary")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&noTrace, "no-trace", false, "Suppress trace output on activation")
	rootCmd.Flags().BoolVar(&watchMode, "watch", false, "Watch the vault and reload changed files")
	rootCmd.Flags().StringVar(&dynamicsID, "dynamics", "", "Run the evolution rules over a glyph's energy")
	rootCmd.Flags().IntVar(&steps, "steps", 5, "Number of dynamics steps")
}

func run(cmd *cobra.Command, args []string) error {
	if testMode {
		result := selftest.Run(os.Stdout, logger)
		if !result.OK() {
			os.Exit(1)
		}
		return nil
	}

	anyOp := vaultPath != "" || loadFile != "" || activateID != "" ||
		listMode || statusMode || watchMode || dynamicsID != ""
	if !anyOp {
		return cmd.Usage()
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if vaultPath == "" {
		vaultPath = cfg.Vault.Path
	}

	registry := glyph.NewRegistry(cfg.Registry.Capacity)
	trace := activation.NewTraceLog(cfg.Trace.Capacity)
	trace.SetEnabled(cfg.Trace.Enabled && !noTrace)
	engine := activation.NewEngine(registry, trace, cfg.Inheritance.MaxDepth, logger)

	var loader *vault.Loader
	needVault := loadFile != "" || watchMode ||
		cmd.Flags().Changed("vault") || activateID != "" || listMode || dynamicsID != ""
	if needVault {
		loader, err = vault.NewLoader(vaultPath, registry, logger)
		if err != nil {
			return err
		}
		if loadFile == "" {
			loaded, failed, err := loader.LoadDir()
			if err != nil {
				return err
			}
			logger.Info("vault loaded",
				zap.Int("loaded", loaded), zap.Int("failed", failed))
		}
	}

	if loadFile != "" {
		if _, err := loader.LoadFile(loadFile); err != nil {
			return err
		}
	}

	if listMode {
		printList(registry)
	}

	if dynamicsID != "" {
		if err := runDynamics(cfg, registry, dynamicsID, steps); err != nil {
			return err
		}
	}

	if activateID != "" {
		state, err := engine.Activate(activateID)
		if err != nil {
			return fmt.Errorf("activation failed for glyph %s: %w", activateID, err)
		}
		fmt.Printf("\n--- FINAL FIELD STATE ---\n%s\n", state)
		if trace.Len() > 0 && !noTrace {
			fmt.Printf("\n%s", trace)
		}
		fmt.Printf("\nActivation completed successfully.\n")
	}

	if statusMode {
		s := substrate.New()
		s.Init()
		fmt.Println(s.Status())
	}

	if watchMode {
		return watchVault(cmd, loader)
	}
	return nil
}

func printList(registry *glyph.Registry) {
	defs := registry.List()
	fmt.Printf("\n=== LOADED GLYPHS ===\n")
	for i, g := range defs {
		fmt.Printf("[%d] ID:%s | R:%.2fHz | M:%.2f | C:%d%% | Parents:%d\n",
			i, g.ID, g.ResonanceFreq, g.FieldMagnitude, g.Coherence, len(g.Parents))
	}
	fmt.Printf("Total: %d glyph(s)\n\n", len(defs))
}

// runDynamics seeds an energy glyph from a registered definition and
// steps the rule engine over it, one second per step.
func runDynamics(cfg *config.Config, registry *glyph.Registry, id string, steps int) error {
	def, ok := registry.Find(id)
	if !ok {
		return fmt.Errorf("glyph %q not found in registry", id)
	}

	engine := dynamics.New(cfg.Dynamics.ActivationThreshold, cfg.Dynamics.DecayRate)
	g := &dynamics.Glyph{
		ID:         def.ID,
		Content:    def.Activation,
		Energy:     def.FieldMagnitude * 100,
		LastUpdate: time.Now(),
	}

	fmt.Printf("\n=== DYNAMICS: %s ===\n", g.ID)
	fmt.Printf("Threshold: %.2f | Decay rate: %.3f | Initial energy: %.3f\n",
		engine.Threshold(), engine.DecayRate(), g.Energy)
	for i := 0; i < steps; i++ {
		report := engine.Step(g, g.LastUpdate.Add(time.Second))
		mark := " "
		if report.Activated {
			mark = "*"
		}
		fmt.Printf("[%d]%s E: %.3f -> %.3f\n", i, mark, report.EnergyBefore, report.EnergyAfter)
	}
	fmt.Printf("Activations: %d\n\n", g.ActivationCount)
	return nil
}

func watchVault(cmd *cobra.Command, loader *vault.Loader) error {
	w, err := vault.NewWatcher(loader, logger)
	if err != nil {
		return err
	}
	if err := w.Start(cmd.Context()); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", loader.Root())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-cmd.Context().Done():
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
