package pipeline

import (
	"bytes"

	"github.com/fardiff/internal/parser"
	"github.com/fardiff/internal/report"
	"github.com/fardiff/internal/treemap"
	"github.com/fardiff/pkg/writer"
)

// Bundle is the published machine-readable form of a report.
type Bundle struct {
	RunID        string        `json:"run_id"`
	Title        string        `json:"title"`
	Binary       string        `json:"binary"`
	TotalSize    int64         `json:"total_size"`
	Symbols      *treemap.Node `json:"symbols"`
	Sections     *treemap.Node `json:"sections"`
	SymbolStats  parser.Stats  `json:"symbol_stats"`
	SectionStats parser.Stats  `json:"section_stats"`
}

func newBundle(runID string, rep *report.Report) *Bundle {
	b := &Bundle{
		RunID:        runID,
		Title:        rep.Title,
		Binary:       rep.Binary,
		TotalSize:    rep.TotalSize(),
		SymbolStats:  rep.SymbolStats,
		SectionStats: rep.SectionStats,
	}
	if rep.Symbols != nil {
		b.Symbols = rep.Symbols.Root
	}
	if rep.Sections != nil {
		b.Sections = rep.Sections.Root
	}
	return b
}

// writeDiagnostics leaves the serialized trees next to the raw dumps.
func (a *Analyzer) writeDiagnostics(ws Workspace, rep *report.Report) error {
	w := writer.NewPrettyJSONWriter[*treemap.Node]()
	if err := w.WriteToFile(rep.Symbols.Root, ws.Path(SymbolsTreeFile)); err != nil {
		return err
	}
	if err := w.WriteToFile(rep.Sections.Root, ws.Path(SectionsTreeFile)); err != nil {
		return err
	}

	var folded bytes.Buffer
	if err := treemap.WriteFolded(rep.Symbols.Root, &folded); err != nil {
		return err
	}
	if err := writer.WriteFileAtomic(ws.Path(FoldedFile), folded.Bytes(), 0644); err != nil {
		return err
	}

	a.logger.Debug("Wrote %s, %s and %s to %s", SymbolsTreeFile, SectionsTreeFile, FoldedFile, ws.ScratchDir)
	return nil
}
