// Package parser holds what the symbol-table and section-header parsers
// share: options, per-run statistics and line scanning.
package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/fardiff/pkg/errors"
)

// maxLineBytes bounds a single dump line. Demangled template names can run to
// tens of kilobytes.
const maxLineBytes = 4 << 20

// Options configures a dump parser.
type Options struct {
	// StrictMode fails on the first malformed line instead of skipping it.
	StrictMode bool

	// ExcludeBSS drops zero-initialized symbols, which take no file space.
	ExcludeBSS bool
}

// DefaultOptions returns the lenient defaults.
func DefaultOptions() *Options {
	return &Options{}
}

// Stats summarizes one parse.
type Stats struct {
	Lines    int `json:"lines"`
	Records  int `json:"records"`
	Skipped  int `json:"skipped"`
	External int `json:"external"`
	Excluded int `json:"excluded"`
}

// String renders the stats for the run summary.
func (s Stats) String() string {
	return fmt.Sprintf("%d records, %d skipped, %d external, %d excluded", s.Records, s.Skipped, s.External, s.Excluded)
}

// LineError reports a malformed line in strict mode.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// LineFunc handles one non-blank line. Returning an error marks the line as
// malformed.
type LineFunc func(lineNum int, line string) error

// ScanLines feeds every non-blank line of r to fn, counting malformed ones in
// stats. In strict mode the first malformed line aborts the scan.
func ScanLines(ctx context.Context, r io.Reader, opts *Options, stats *Stats, fn LineFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNum := 0
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.Lines++

		if err := fn(lineNum, line); err != nil {
			if opts.StrictMode {
				return apperrors.Wrap(apperrors.CodeParseError, "malformed dump",
					&LineError{Line: lineNum, Text: line, Err: err})
			}
			stats.Skipped++
		}
	}

	if err := scanner.Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeParseError, "failed to read dump", err)
	}
	return nil
}
