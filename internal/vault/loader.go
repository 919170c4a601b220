// Package vault loads GDF records from disk into the glyph registry.
// All file access is confined here; activations never touch the
// filesystem. Every path is validated against the vault root before a
// byte is read, so traversal names and symlink escapes fail with
// ErrPathUnsafe instead of being silently skipped.
package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"glyphos/internal/glyph"
)

// Extension is the recognized glyph record suffix.
const Extension = ".gdf"

// ErrPathUnsafe is returned when a requested file escapes the vault root,
// either textually (.. or separators) or through a symlink.
var ErrPathUnsafe = errors.New("path escapes vault")

// Loader reads GDF files under one permitted root directory and registers
// the parsed definitions.
type Loader struct {
	root     string
	registry *glyph.Registry
	parser   *glyph.Parser
	logger   *zap.Logger
}

// NewLoader returns a loader rooted at dir. The root itself is resolved
// eagerly so later containment checks compare real paths.
func NewLoader(dir string, registry *glyph.Registry, logger *zap.Logger) (*Loader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving vault root %q: %w", dir, err)
	}
	return &Loader{
		root:     resolved,
		registry: registry,
		parser:   glyph.NewParser(logger),
		logger:   logger,
	}, nil
}

// Root returns the resolved vault root.
func (l *Loader) Root() string {
	return l.root
}

// LoadFile validates and loads a single file, named relative to the
// vault root, into the registry.
func (l *Loader) LoadFile(name string) (*glyph.Definition, error) {
	path, err := l.safePath(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	def, err := l.parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	if err := l.registry.Register(def); err != nil {
		return nil, fmt.Errorf("registering %s: %w", name, err)
	}
	l.logger.Info("glyph loaded",
		zap.String("file", name), zap.String("glyph", def.ID))
	return def, nil
}

// LoadDir loads every *.gdf file directly under the root, in directory
// order. A file that fails validation, parsing or registration is logged
// and skipped; loading continues. The counts of loaded and failed files
// are returned, with a non-nil error only when the directory itself is
// unreadable.
func (l *Loader) LoadDir() (loaded, failed int, err error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return 0, 0, fmt.Errorf("reading vault %s: %w", l.root, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}
		if _, err := l.LoadFile(entry.Name()); err != nil {
			l.logger.Warn("skipping vault file",
				zap.String("file", entry.Name()), zap.Error(err))
			failed++
			continue
		}
		loaded++
	}
	return loaded, failed, nil
}

// safePath resolves name against the root and rejects anything that would
// read outside it. The file must already exist: symlink resolution is the
// containment proof, and a dangling name has nothing to prove.
func (l *Loader) safePath(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %q", ErrPathUnsafe, name)
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrPathUnsafe, name)
	}

	resolved, err := filepath.EvalSymlinks(filepath.Join(l.root, name))
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", name, err)
	}
	if resolved != l.root && !strings.HasPrefix(resolved, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q resolves to %q outside %q",
			ErrPathUnsafe, name, resolved, l.root)
	}
	return resolved, nil
}
