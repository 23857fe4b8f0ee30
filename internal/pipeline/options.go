package pipeline

import (
	"github.com/fardiff/internal/inspect"
	"github.com/fardiff/internal/locator"
	"github.com/fardiff/internal/parser"
	"github.com/fardiff/internal/repository"
	"github.com/fardiff/internal/storage"
	"github.com/fardiff/internal/treemap"
	"github.com/fardiff/pkg/config"
	"github.com/fardiff/pkg/utils"
)

// Settings are the per-stage options of an Analyzer.
type Settings struct {
	Workspace Workspace
	Locator   locator.Options
	Inspect   inspect.Options
	Parser    parser.Options
	Builder   treemap.BuilderOptions

	// PublishPrefix is the storage key prefix for published runs.
	PublishPrefix string
}

// SettingsFromConfig maps the application config onto stage options.
func SettingsFromConfig(cfg *config.Config) (*Settings, error) {
	grouping, err := treemap.ParseGrouping(cfg.Treemap.Grouping)
	if err != nil {
		return nil, err
	}
	sortMode, err := treemap.ParseSortMode(cfg.Treemap.Sort)
	if err != nil {
		return nil, err
	}

	return &Settings{
		Workspace: WorkspaceFromConfig(&cfg.Workspace),
		Locator: locator.Options{
			LibrarySuffix:     cfg.Locator.LibrarySuffix,
			ArchiveExtensions: cfg.Locator.ArchiveExtensions,
			Hints:             cfg.Locator.Hints,
		},
		Inspect: inspect.Options{
			NM:          cfg.Tools.NM,
			NMArgs:      cfg.Tools.NMArgs,
			Objdump:     cfg.Tools.Objdump,
			ObjdumpArgs: cfg.Tools.ObjdumpArgs,
			Timeout:     cfg.Tools.Timeout,
			Concurrent:  cfg.Tools.Concurrent,
		},
		Parser: parser.Options{ExcludeBSS: cfg.Treemap.ExcludeBSS},
		Builder: treemap.BuilderOptions{
			Grouping: grouping,
			Sort:     sortMode,
		},
		PublishPrefix: cfg.Storage.Prefix,
	}, nil
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithRunner replaces the process runner used for nm and objdump.
func WithRunner(r inspect.Runner) Option {
	return func(a *Analyzer) {
		a.runner = r
	}
}

// WithChooser sets how one candidate is picked from many.
func WithChooser(c locator.Chooser) Option {
	return func(a *Analyzer) {
		a.chooser = c
	}
}

// WithStorage enables publishing through s.
func WithStorage(s storage.Storage) Option {
	return func(a *Analyzer) {
		a.storage = s
	}
}

// WithHistory records each successful run in repo.
func WithHistory(repo repository.RunRepository) Option {
	return func(a *Analyzer) {
		a.history = repo
	}
}

// WithLogger sets the logger.
func WithLogger(l utils.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithClock sets the clock used for phase timing.
func WithClock(c utils.Clock) Option {
	return func(a *Analyzer) {
		a.clock = c
	}
}

// WithRunIDFunc overrides run id generation.
func WithRunIDFunc(fn func() string) Option {
	return func(a *Analyzer) {
		a.newRunID = fn
	}
}
