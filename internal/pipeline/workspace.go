package pipeline

import (
	"os"
	"path/filepath"

	"github.com/fardiff/pkg/config"
)

// Workspace holds the on-disk locations one run works in.
type Workspace struct {
	// ScratchDir receives dumps, extracted libraries and diagnostic trees.
	ScratchDir string

	// AssetsDir overrides the embedded report assets; empty uses them.
	AssetsDir string

	// KeepScratch keeps extracted libraries after the run.
	KeepScratch bool
}

// WorkspaceFromConfig builds a Workspace from the workspace config section.
func WorkspaceFromConfig(cfg *config.WorkspaceConfig) Workspace {
	return Workspace{
		ScratchDir:  cfg.ScratchDir,
		AssetsDir:   cfg.AssetsDir,
		KeepScratch: cfg.KeepScratch,
	}
}

// ExtractDir is where archive entries are extracted.
func (w Workspace) ExtractDir() string {
	return filepath.Join(w.ScratchDir, "extracted")
}

// Path joins name onto the scratch directory.
func (w Workspace) Path(name string) string {
	return filepath.Join(w.ScratchDir, name)
}

// Ensure creates the scratch directory.
func (w Workspace) Ensure() error {
	return os.MkdirAll(w.ScratchDir, 0755)
}
