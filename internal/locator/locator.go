package locator

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/fardiff/pkg/errors"
	"github.com/fardiff/pkg/utils"
)

// Options configures candidate discovery.
type Options struct {
	// LibrarySuffix selects candidates, e.g. ".so".
	LibrarySuffix string

	// ArchiveExtensions are treated as zip containers.
	ArchiveExtensions []string

	// Hints mark candidates of likely interest in the listing.
	Hints []string

	// ExtractDir receives archive entries.
	ExtractDir string
}

// DefaultOptions returns the Android defaults.
func DefaultOptions() *Options {
	return &Options{
		LibrarySuffix:     ".so",
		ArchiveExtensions: []string{".zip", ".aar", ".apk"},
		Hints:             []string{"renderer", "libfilament-jni"},
		ExtractDir:        filepath.Join(os.TempDir(), "fardiff", "extracted"),
	}
}

// Resolved is the library chosen for analysis.
type Resolved struct {
	// Path is the library on local disk.
	Path string

	Target Target

	// Candidate is nil when the input was a library.
	Candidate *Candidate

	// Extracted is true when Path was written from an archive.
	Extracted bool

	// ExtractRoot is the directory this archive was extracted under. Empty
	// unless Extracted.
	ExtractRoot string
}

// Locator turns an input path into a Resolved library.
type Locator struct {
	opts    *Options
	chooser Chooser
	logger  utils.Logger
}

// New creates a locator. A nil opts uses DefaultOptions.
func New(opts *Options, chooser Chooser, logger utils.Logger) *Locator {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Locator{opts: opts, chooser: chooser, logger: logger}
}

// Classify resolves path to its Target variant.
func (l *Locator) Classify(path string) (Target, error) {
	return Classify(path, l.opts.ArchiveExtensions)
}

// Locate classifies path once and resolves it to a single library.
func (l *Locator) Locate(ctx context.Context, path string) (*Resolved, error) {
	target, err := l.Classify(path)
	if err != nil {
		return nil, err
	}

	switch t := target.(type) {
	case Library:
		if !strings.HasSuffix(t.path, l.opts.LibrarySuffix) {
			l.logger.Warn("%s does not end in %s, analyzing it anyway", t.path, l.opts.LibrarySuffix)
		}
		return &Resolved{Path: t.path, Target: t}, nil

	case Directory:
		candidates, paths, err := l.scanDirectory(ctx, t.path)
		if err != nil {
			return nil, err
		}
		idx, err := l.choose(candidates, t)
		if err != nil {
			return nil, err
		}
		return &Resolved{Path: paths[idx], Target: t, Candidate: &candidates[idx]}, nil

	case Archive:
		return l.resolveArchive(ctx, t)
	}

	return nil, apperrors.Newf(apperrors.CodeUnknown, "unsupported target %T", target)
}

// choose asks the chooser unless there is exactly one candidate.
func (l *Locator) choose(candidates []Candidate, t Target) (int, error) {
	switch len(candidates) {
	case 0:
		return 0, apperrors.Newf(apperrors.CodeNoCandidates, "no %s file found in %s", l.opts.LibrarySuffix, t.Path())
	case 1:
		l.logger.Info("Found a single candidate: %s", candidates[0].Name)
		return 0, nil
	}
	if l.chooser == nil {
		return 0, apperrors.Newf(apperrors.CodeInvalidSelection, "%d candidates found in %s and no way to choose", len(candidates), t.Path())
	}
	idx, err := l.chooser.Choose(candidates)
	if err != nil {
		return 0, err
	}
	return checkRange(idx, len(candidates))
}

// scanDirectory walks dir in lexical order collecting libraries.
func (l *Locator) scanDirectory(ctx context.Context, dir string) ([]Candidate, []string, error) {
	var candidates []Candidate
	var paths []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), l.opts.LibrarySuffix) {
			return nil
		}

		info, err := os.Stat(path)
		if err != nil {
			l.logger.Debug("skipping %s: %v", path, err)
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		candidates = append(candidates, Candidate{
			Index:  len(candidates),
			Name:   path,
			Size:   info.Size(),
			Hinted: matchesHint(path, l.opts.Hints),
		})
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return candidates, paths, nil
}
