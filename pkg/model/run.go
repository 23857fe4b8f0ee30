package model

import "time"

// Run summarizes one completed analysis for the run history.
type Run struct {
	RunID        string                   `json:"run_id"`
	Binary       string                   `json:"binary"`      // base name of the analyzed binary
	SourcePath   string                   `json:"source_path"` // path given on the command line
	Digest       string                   `json:"digest"`      // hex sha256 of the analyzed binary
	SymbolCount  int                      `json:"symbol_count"`
	SymbolBytes  int64                    `json:"symbol_bytes"`
	SectionBytes int64                    `json:"section_bytes"`
	Skipped      int                      `json:"skipped_lines"`
	ReportPath   string                   `json:"report_path"`
	PublishedURL string                   `json:"published_url,omitempty"`
	Phases       map[string]time.Duration `json:"phases,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}
