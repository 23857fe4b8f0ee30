// Package pipeline runs one analysis end to end: locate the library, dump
// it, parse the dumps, build the trees and write the report.
package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fardiff/internal/inspect"
	"github.com/fardiff/internal/locator"
	"github.com/fardiff/internal/parser"
	"github.com/fardiff/internal/parser/nm"
	"github.com/fardiff/internal/parser/objdump"
	"github.com/fardiff/internal/report"
	"github.com/fardiff/internal/repository"
	"github.com/fardiff/internal/storage"
	"github.com/fardiff/internal/treemap"
	"github.com/fardiff/pkg/telemetry"
	"github.com/fardiff/pkg/utils"
)

// Tree root names.
const (
	SymbolsRoot  = "symbols"
	SectionsRoot = "sections"
)

// Diagnostic artifacts written to the scratch directory.
const (
	SymbolsTreeFile  = "symbols.json"
	SectionsTreeFile = "sections.json"
	FoldedFile       = "symbols.folded"
)

// Phase names, in run order.
const (
	PhaseLocate   = "locate"
	PhaseInspect  = "inspect"
	PhaseParse    = "parse"
	PhaseBuild    = "build"
	PhaseAssemble = "assemble"
	PhasePublish  = "publish"
	PhaseRecord   = "record"
)

// Request is one analysis.
type Request struct {
	// Path is a library, a directory or an archive.
	Path string

	// Output is the report file. Empty means index.html.
	Output string

	// Title defaults to "fardiff: <library name>".
	Title string

	// Publish uploads the report when a storage backend is configured.
	Publish bool
}

// Result describes a finished run.
type Result struct {
	RunID   string
	Binary  string // resolved library path
	Output  string
	Report  *report.Report
	Phases  []utils.Phase
	Publish *Publication
}

// Analyzer wires the stages together. It is safe to reuse across runs but
// not to call Run concurrently on the same scratch directory.
type Analyzer struct {
	settings  *Settings
	assembler *report.Assembler

	runner   inspect.Runner
	chooser  locator.Chooser
	storage  storage.Storage
	history  repository.RunRepository
	logger   utils.Logger
	clock    utils.Clock
	newRunID func() string
}

// NewAnalyzer loads the report assets and validates the template.
func NewAnalyzer(settings *Settings, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		settings: settings,
		logger:   &utils.NullLogger{},
		clock:    utils.NewRealClock(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}

	assets, err := report.LoadAssets(settings.Workspace.AssetsDir)
	if err != nil {
		return nil, err
	}
	if a.assembler, err = report.NewAssembler(assets); err != nil {
		return nil, err
	}
	return a, nil
}

// Run executes every stage. Publishing and history only run when enabled.
func (a *Analyzer) Run(ctx context.Context, req *Request) (res *Result, err error) {
	runID := a.newRunID()
	output := req.Output
	if output == "" {
		output = "index.html"
	}

	ctx, span := telemetry.StartSpan(ctx, "fardiff.run",
		attribute.String("run.id", runID),
		attribute.String("run.input", req.Path),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	timer := utils.NewTimer("fardiff", utils.WithLogger(a.logger), utils.WithClock(a.clock))
	defer timer.PrintSummary()

	ws := a.settings.Workspace
	if err := ws.Ensure(); err != nil {
		return nil, err
	}

	var resolved *locator.Resolved
	if err := a.stage(ctx, timer, PhaseLocate, func(ctx context.Context) error {
		lopts := a.settings.Locator
		lopts.ExtractDir = ws.ExtractDir()
		r, err := locator.New(&lopts, a.chooser, a.logger).Locate(ctx, req.Path)
		if err != nil {
			return err
		}
		resolved = r
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("binary.path", r.Path))
		return nil
	}); err != nil {
		return nil, err
	}
	if resolved.Extracted && !ws.KeepScratch {
		defer os.RemoveAll(resolved.ExtractRoot)
	}

	var dumps *inspect.Dumps
	if err := a.stage(ctx, timer, PhaseInspect, func(ctx context.Context) error {
		iopts := a.settings.Inspect
		iopts.ScratchDir = ws.ScratchDir
		d, err := inspect.NewInvoker(a.runner, &iopts, a.logger).Inspect(ctx, resolved.Path)
		dumps = d
		return err
	}); err != nil {
		return nil, err
	}

	var symbols *nm.Result
	var sections *objdump.Result
	if err := a.stage(ctx, timer, PhaseParse, func(ctx context.Context) error {
		popts := a.settings.Parser
		var err error
		if symbols, err = nm.NewParser(&popts).Parse(ctx, bytes.NewReader(dumps.Symbols.Output)); err != nil {
			return err
		}
		if sections, err = objdump.NewParser(&popts).Parse(ctx, bytes.NewReader(dumps.Sections.Output)); err != nil {
			return err
		}
		a.logStats("nm", symbols.Stats)
		a.logStats("objdump", sections.Stats)
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int("symbols.count", len(symbols.Symbols)),
			attribute.Int("sections.count", len(sections.Sections)),
			attribute.Int("lines.skipped", symbols.Stats.Skipped+sections.Stats.Skipped),
		)
		return nil
	}); err != nil {
		return nil, err
	}

	rep := &report.Report{
		Title:        req.Title,
		Binary:       filepath.Base(resolved.Path),
		SymbolStats:  symbols.Stats,
		SectionStats: sections.Stats,
	}
	if rep.Title == "" {
		rep.Title = "fardiff: " + rep.Binary
	}

	if err := a.stage(ctx, timer, PhaseBuild, func(ctx context.Context) error {
		a.logger.Info("Generating treemap JSON...")
		b := treemap.NewBuilder(&a.settings.Builder)
		var err error
		if rep.Symbols, err = b.BuildSymbols(ctx, SymbolsRoot, symbols.Symbols); err != nil {
			return err
		}
		if rep.Sections, err = b.BuildSections(ctx, SectionsRoot, sections.Sections); err != nil {
			return err
		}
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int64("symbols.bytes", rep.Symbols.TotalSize()),
			attribute.Int64("sections.bytes", rep.Sections.TotalSize()),
		)
		return a.writeDiagnostics(ws, rep)
	}); err != nil {
		return nil, err
	}

	if err := a.stage(ctx, timer, PhaseAssemble, func(ctx context.Context) error {
		a.logger.Info("Generating %s...", output)
		return a.assembler.WriteFile(rep, output)
	}); err != nil {
		return nil, err
	}

	res = &Result{RunID: runID, Binary: resolved.Path, Output: output, Report: rep}

	if req.Publish && a.storage != nil {
		if err := a.stage(ctx, timer, PhasePublish, func(ctx context.Context) error {
			pub, err := a.publish(ctx, runID, rep, output)
			res.Publish = pub
			return err
		}); err != nil {
			return nil, err
		}
	} else if req.Publish {
		a.logger.Warn("Publishing requested but storage is not enabled")
	}

	if a.history != nil {
		if err := a.stage(ctx, timer, PhaseRecord, func(ctx context.Context) error {
			return a.record(ctx, req, res, timer)
		}); err != nil {
			// The report is already on disk.
			a.logger.Warn("Failed to record run %s: %v", runID, err)
		}
	}

	res.Phases = timer.Phases()
	a.logger.Info("Wrote %s (%s)", output, rep.Summary())
	return res, nil
}

// stage times fn and wraps it in a span named after the phase.
func (a *Analyzer) stage(ctx context.Context, timer *utils.Timer, name string, fn func(ctx context.Context) error) error {
	defer timer.Start(name).Stop()

	ctx, span := telemetry.StartSpan(ctx, "fardiff."+name)
	err := fn(ctx)
	telemetry.EndSpan(span, err)
	return err
}

func (a *Analyzer) logStats(tool string, s parser.Stats) {
	a.logger.Debug("%s: %s", tool, s)
	if s.Skipped > 0 {
		a.logger.Warn("Skipped %d unparseable %s lines", s.Skipped, tool)
	}
}
