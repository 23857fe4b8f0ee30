// Package report assembles the self-contained HTML treemap document.
package report

import (
	"fmt"
	"html"
	"io"

	"github.com/fardiff/internal/parser"
	"github.com/fardiff/internal/treemap"
	"github.com/fardiff/pkg/utils"
	"github.com/fardiff/pkg/writer"
)

// Report is everything rendered into one document. A nil tree is embedded
// as null.
type Report struct {
	Title    string
	Binary   string
	Symbols  *treemap.Tree
	Sections *treemap.Tree

	SymbolStats  parser.Stats
	SectionStats parser.Stats
}

// TotalSize is the uncompressed size the report accounts for: the section
// total when available, otherwise the symbol total.
func (r *Report) TotalSize() int64 {
	if r.Sections != nil {
		return r.Sections.TotalSize()
	}
	return r.Symbols.TotalSize()
}

// Summary returns the one-line description shown under the title.
func (r *Report) Summary() string {
	s := fmt.Sprintf("%s total", utils.FormatBytes(r.TotalSize()))
	if r.Symbols != nil {
		s += fmt.Sprintf(", %s in %d symbols", utils.FormatBytes(r.Symbols.TotalSize()), r.Symbols.Leaves)
	}
	if r.Sections != nil {
		s += fmt.Sprintf(", %d sections", r.Sections.Leaves)
	}
	if skipped := r.SymbolStats.Skipped + r.SectionStats.Skipped; skipped > 0 {
		s += fmt.Sprintf(", %d unparsed lines", skipped)
	}
	return s
}

// Assembler renders reports from a fixed asset bundle.
type Assembler struct {
	assets   *Assets
	template *Template
}

// NewAssembler validates the bundle's template once up front.
func NewAssembler(assets *Assets) (*Assembler, error) {
	tmpl, err := ParseTemplate(assets.Template, RequiredPlaceholders)
	if err != nil {
		return nil, err
	}
	return &Assembler{assets: assets, template: tmpl}, nil
}

// Assemble writes the document for r to w. The tree payloads are embedded as
// script literals; their JSON encoding escapes '<' so no markup can close
// the surrounding element.
func (a *Assembler) Assemble(r *Report, w io.Writer) error {
	doc, err := a.Render(r)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, doc)
	return err
}

// Render returns the document for r.
func (a *Assembler) Render(r *Report) (string, error) {
	symbols, err := treeJSON(r.Symbols)
	if err != nil {
		return "", err
	}
	sections, err := treeJSON(r.Sections)
	if err != nil {
		return "", err
	}

	title := r.Title
	if title == "" {
		title = r.Binary
	}

	return a.template.Render(map[string]string{
		PlaceholderTitle:        html.EscapeString(title),
		PlaceholderSummary:      html.EscapeString(r.Summary()),
		PlaceholderSymbolsJSON:  symbols,
		PlaceholderSectionsJSON: sections,
		PlaceholderCSS:          a.assets.CSS,
		PlaceholderJS:           a.assets.JS,
	})
}

// WriteFile renders r and atomically replaces path with it. Nothing is
// written when rendering fails.
func (a *Assembler) WriteFile(r *Report, path string) error {
	doc, err := a.Render(r)
	if err != nil {
		return err
	}
	return writer.WriteFileAtomic(path, []byte(doc), 0644)
}

func treeJSON(t *treemap.Tree) (string, error) {
	if t == nil || t.Root == nil {
		return "null", nil
	}
	data, err := treemap.Marshal(t.Root)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s tree: %w", t.Root.Name, err)
	}
	return string(data), nil
}
