// Package nm parses the symbol table printed by `nm -C -S -l`.
//
// Three line layouts occur:
//
//	0000000000012a40 0000000000000124 T filament::Engine::create(filament::Backend)	/src/Engine.cpp:88
//	0000000000012b80 t local_helper
//	                 U memcpy
//
// The name is everything after the type letter and may contain spaces. The
// optional tab-separated suffix is the defining source location.
package nm

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/fardiff/internal/parser"
	"github.com/fardiff/pkg/model"
)

var (
	errNoName    = errors.New("missing symbol name")
	errNoType    = errors.New("missing symbol type")
	errBadAddr   = errors.New("invalid address")
	errTruncated = errors.New("truncated line")
)

// Result holds the defined symbols in dump order.
type Result struct {
	Symbols []*model.SymbolRecord
	Stats   parser.Stats
}

// TotalSize sums the sizes of all symbols.
func (r *Result) TotalSize() int64 {
	var total int64
	for _, s := range r.Symbols {
		total += s.Size
	}
	return total
}

// Parser parses nm output.
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

// Parse reads the dump. Undefined references are counted as external and
// not returned; BSS symbols are counted as excluded when ExcludeBSS is set.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Result, error) {
	result := &Result{Symbols: make([]*model.SymbolRecord, 0, 1024)}

	err := parser.ScanLines(ctx, r, p.opts, &result.Stats, func(_ int, line string) error {
		rec, err := ParseLine(line)
		if err != nil {
			return err
		}
		switch {
		case rec.IsExternal():
			result.Stats.External++
		case p.opts.ExcludeBSS && rec.Type.IsBSS():
			result.Stats.Excluded++
		default:
			result.Symbols = append(result.Symbols, rec)
			result.Stats.Records++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ParseLine parses one nm line. A size that is present but not hexadecimal
// yields a zero-size record with SizeKnown unset.
func ParseLine(line string) (*model.SymbolRecord, error) {
	var loc *model.SourceLocation
	if i := strings.LastIndexByte(line, '\t'); i >= 0 {
		loc = parseLocation(line[i+1:])
		line = line[:i]
	}

	first, rest := nextField(line)
	if first == "" {
		return nil, errTruncated
	}

	rec := &model.SymbolRecord{Location: loc}

	if isTypeField(first) {
		// "U name": no address, no size.
		rec.Type = model.SymbolType(first[0])
		return withName(rec, rest)
	}

	addr, err := strconv.ParseUint(first, 16, 64)
	if err != nil {
		return nil, errBadAddr
	}
	rec.Address = addr
	rec.HasAddress = true

	second, rest := nextField(rest)
	if second == "" {
		return nil, errTruncated
	}
	if isTypeField(second) {
		rec.Type = model.SymbolType(second[0])
		return withName(rec, rest)
	}

	if size, err := strconv.ParseInt(second, 16, 64); err == nil && size >= 0 {
		rec.Size = size
		rec.SizeKnown = true
	}

	third, rest := nextField(rest)
	if !isTypeField(third) {
		return nil, errNoType
	}
	rec.Type = model.SymbolType(third[0])
	return withName(rec, rest)
}

func withName(rec *model.SymbolRecord, name string) (*model.SymbolRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errNoName
	}
	rec.Name = name
	rec.Section = rec.Type.Section()
	return rec, nil
}

// nextField splits off the first space-delimited field.
func nextField(s string) (field, rest string) {
	s = strings.TrimLeft(s, " ")
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

func isTypeField(f string) bool {
	if len(f) != 1 {
		return false
	}
	c := f[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '?' || c == '-'
}

// parseLocation parses "file:line". A missing or non-numeric line keeps the
// whole text as the file.
func parseLocation(s string) *model.SourceLocation {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i := strings.LastIndexByte(s, ':'); i > 0 {
		if n, err := strconv.Atoi(s[i+1:]); err == nil {
			return &model.SourceLocation{File: s[:i], Line: n}
		}
	}
	return &model.SourceLocation{File: s}
}
