package locator

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "github.com/fardiff/pkg/errors"
)

// Chooser picks one of several candidates.
type Chooser interface {
	Choose(candidates []Candidate) (int, error)
}

// DefaultPrompt is printed after the candidate listing.
const DefaultPrompt = "Which dso should be analyzed? Type a number. "

// TerminalChooser prints the listing to Out and reads an index from In.
type TerminalChooser struct {
	In     io.Reader
	Out    io.Writer
	Prompt string
}

// NewTerminalChooser creates a chooser on the given streams.
func NewTerminalChooser(in io.Reader, out io.Writer) *TerminalChooser {
	return &TerminalChooser{In: in, Out: out, Prompt: DefaultPrompt}
}

// Choose prompts once. A non-numeric or out-of-range answer is an
// invalid-selection error.
func (c *TerminalChooser) Choose(candidates []Candidate) (int, error) {
	if err := WriteListing(c.Out, candidates); err != nil {
		return 0, err
	}
	fmt.Fprint(c.Out, c.Prompt)

	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return 0, apperrors.Wrap(apperrors.CodeInvalidSelection, "no selection was entered", err)
	}
	return parseSelection(strings.TrimSpace(line), len(candidates))
}

// FixedChooser always picks Index; used for scripted runs.
type FixedChooser struct {
	Index int
}

// Choose validates and returns the fixed index.
func (c FixedChooser) Choose(candidates []Candidate) (int, error) {
	return checkRange(c.Index, len(candidates))
}

// NameChooser picks the first candidate whose name contains Substring.
type NameChooser struct {
	Substring string
}

// Choose returns the first match.
func (c NameChooser) Choose(candidates []Candidate) (int, error) {
	for i, cand := range candidates {
		if strings.Contains(cand.Name, c.Substring) {
			return i, nil
		}
	}
	return 0, apperrors.Newf(apperrors.CodeInvalidSelection, "no candidate matches %q", c.Substring)
}

// ChooserFor maps a --select value to a chooser: a number picks by index,
// anything else by name.
func ChooserFor(selection string) Chooser {
	if n, err := strconv.Atoi(selection); err == nil {
		return FixedChooser{Index: n}
	}
	return NameChooser{Substring: selection}
}

func parseSelection(s string, n int) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.Newf(apperrors.CodeInvalidSelection, "%q is not a number", s)
	}
	return checkRange(idx, n)
}

func checkRange(idx, n int) (int, error) {
	if idx < 0 || idx >= n {
		return 0, apperrors.Newf(apperrors.CodeInvalidSelection, "selection %d is out of range [0, %d)", idx, n)
	}
	return idx, nil
}
