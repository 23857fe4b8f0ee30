package inspect

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/fardiff/pkg/errors"
	"github.com/fardiff/pkg/utils"
	"github.com/fardiff/pkg/writer"
)

// Scratch file names for the raw dumps.
const (
	SymbolsDumpFile  = "nm.out"
	SectionsDumpFile = "objdump.out"
)

// Options configures the two dumps.
type Options struct {
	NM          string
	NMArgs      []string
	Objdump     string
	ObjdumpArgs []string

	// Timeout bounds each dump separately.
	Timeout time.Duration

	// Concurrent runs both dumps at once.
	Concurrent bool

	// ScratchDir receives nm.out and objdump.out.
	ScratchDir string
}

// DefaultOptions returns the GNU binutils conventions.
func DefaultOptions() *Options {
	return &Options{
		NM:          "nm",
		NMArgs:      []string{"-C", "-S", "-l"},
		Objdump:     "objdump",
		ObjdumpArgs: []string{"-h"},
		Timeout:     10 * time.Minute,
		Concurrent:  true,
	}
}

// Dump is the captured output of one tool.
type Dump struct {
	Invocation *ProcessInvocation
	Output     []byte

	// Path is the scratch copy of Output.
	Path     string
	Duration time.Duration
}

// Dumps holds both captured outputs.
type Dumps struct {
	Binary   string
	Symbols  *Dump
	Sections *Dump
}

// Invoker runs the symbol-table and section-header dumps.
type Invoker struct {
	runner Runner
	opts   *Options
	logger utils.Logger
}

// NewInvoker creates an invoker. A nil runner uses ExecRunner.
func NewInvoker(runner Runner, opts *Options, logger utils.Logger) *Invoker {
	if runner == nil {
		runner = NewExecRunner()
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Invoker{runner: runner, opts: opts, logger: logger}
}

// Invocations returns the two commands for binary. The path is made absolute
// so that a name starting with '-' cannot be read as an option.
func (i *Invoker) Invocations(binary string) (nm, objdump *ProcessInvocation, err error) {
	abs, err := filepath.Abs(binary)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve %s: %w", binary, err)
	}
	nm = &ProcessInvocation{
		Tool:    i.opts.NM,
		Args:    append(append([]string{}, i.opts.NMArgs...), abs),
		Timeout: i.opts.Timeout,
	}
	objdump = &ProcessInvocation{
		Tool:    i.opts.Objdump,
		Args:    append(append([]string{}, i.opts.ObjdumpArgs...), abs),
		Timeout: i.opts.Timeout,
	}
	return nm, objdump, nil
}

// Inspect runs both dumps and writes them to the scratch directory. Either
// tool exiting non-zero or printing nothing fails the whole inspection.
func (i *Invoker) Inspect(ctx context.Context, binary string) (*Dumps, error) {
	nmInv, objdumpInv, err := i.Invocations(binary)
	if err != nil {
		return nil, err
	}

	dumps := &Dumps{Binary: binary}
	runNM := func(ctx context.Context) error {
		i.logger.Info("Running nm... (this might take a while)")
		d, err := i.run(ctx, nmInv, SymbolsDumpFile)
		dumps.Symbols = d
		return err
	}
	runObjdump := func(ctx context.Context) error {
		i.logger.Info("Running objdump...")
		d, err := i.run(ctx, objdumpInv, SectionsDumpFile)
		dumps.Sections = d
		return err
	}

	if i.opts.Concurrent {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return runNM(gctx) })
		g.Go(func() error { return runObjdump(gctx) })
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return dumps, nil
	}

	if err := runNM(ctx); err != nil {
		return nil, err
	}
	if err := runObjdump(ctx); err != nil {
		return nil, err
	}
	return dumps, nil
}

func (i *Invoker) run(ctx context.Context, inv *ProcessInvocation, scratchName string) (*Dump, error) {
	i.logger.Debug("exec: %s", inv)

	res, err := i.runner.Run(ctx, inv)
	if err != nil {
		return nil, err
	}

	if res.ExitCode != 0 {
		return nil, apperrors.Newf(apperrors.CodeInspectionTool, "%s exited with status %d: %s",
			inv.Tool, res.ExitCode, firstLine(res.Stderr))
	}
	if len(strings.TrimSpace(string(res.Stdout))) == 0 {
		return nil, apperrors.Newf(apperrors.CodeInspectionTool, "%s produced no output", inv.Tool)
	}

	d := &Dump{Invocation: inv, Output: res.Stdout, Duration: res.Duration}
	if i.opts.ScratchDir != "" {
		d.Path = filepath.Join(i.opts.ScratchDir, scratchName)
		if err := writer.WriteFileAtomic(d.Path, res.Stdout, 0644); err != nil {
			return nil, err
		}
	}
	i.logger.Debug("%s finished in %v (%d bytes)", inv.Tool, res.Duration, len(res.Stdout))
	return d, nil
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "no diagnostics"
	}
	return s
}
