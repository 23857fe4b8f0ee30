// Package objdump parses the section headers printed by `objdump -h`.
//
//	Idx Name          Size      VMA               LMA               File off  Algn
//	  1 .text         0004f2d0  0000000000012a40  0000000000012a40  00012a40  2**6
//	                  CONTENTS, ALLOC, LOAD, READONLY, CODE
package objdump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fardiff/internal/parser"
	"github.com/fardiff/pkg/model"
)

const sectionFields = 7

var errFieldCount = errors.New("unexpected field count")

// Result holds the sections in header order.
type Result struct {
	Sections []*model.SectionRecord
	Stats    parser.Stats
}

// TotalSize sums the sizes of all sections.
func (r *Result) TotalSize() int64 {
	var total int64
	for _, s := range r.Sections {
		total += s.Size
	}
	return total
}

// Parser parses objdump -h output.
type Parser struct {
	opts *parser.Options
}

// NewParser creates a parser. A nil opts uses parser.DefaultOptions.
func NewParser(opts *parser.Options) *Parser {
	if opts == nil {
		opts = parser.DefaultOptions()
	}
	return &Parser{opts: opts}
}

// Parse reads the dump. Banner and column-header lines are ignored; only rows
// that start with a section index but fail to parse count as skipped. With
// ExcludeBSS, sections without file contents are counted as excluded.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Result, error) {
	result := &Result{}
	var last *model.SectionRecord

	err := parser.ScanLines(ctx, r, p.opts, &result.Stats, func(_ int, line string) error {
		fields := strings.Fields(line)
		if !isIndex(fields[0]) {
			if last != nil && isFlagsLine(line) {
				last.Flags = parseFlags(line)
				if p.opts.ExcludeBSS && !last.OccupiesFile() {
					result.Sections = result.Sections[:len(result.Sections)-1]
					result.Stats.Records--
					result.Stats.Excluded++
				}
			}
			last = nil
			return nil
		}

		last = nil
		rec, err := parseRow(fields)
		if err != nil {
			return err
		}
		result.Sections = append(result.Sections, rec)
		result.Stats.Records++
		last = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func parseRow(fields []string) (*model.SectionRecord, error) {
	if len(fields) != sectionFields {
		return nil, errFieldCount
	}

	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	size, err := strconv.ParseInt(fields[2], 16, 64)
	if err != nil || size < 0 {
		return nil, fmt.Errorf("size %q: invalid", fields[2])
	}

	var nums [3]uint64
	for i, f := range fields[3:6] {
		n, err := strconv.ParseUint(f, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+3, err)
		}
		nums[i] = n
	}

	return &model.SectionRecord{
		Index:      idx,
		Name:       fields[1],
		Size:       size,
		VMA:        nums[0],
		LMA:        nums[1],
		FileOffset: nums[2],
		Alignment:  fields[6],
	}, nil
}

func isIndex(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// isFlagsLine reports whether an indented line lists only upper-case flags.
func isFlagsLine(line string) bool {
	if line == "" || (line[0] != ' ' && line[0] != '\t') {
		return false
	}
	for _, f := range parseFlags(line) {
		for _, c := range f {
			if (c < 'A' || c > 'Z') && c != '_' {
				return false
			}
		}
	}
	return true
}

func parseFlags(line string) []string {
	var flags []string
	for _, f := range strings.Split(line, ",") {
		if f = strings.TrimSpace(f); f != "" {
			flags = append(flags, f)
		}
	}
	return flags
}
