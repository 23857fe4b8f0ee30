package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"time"

	"github.com/fardiff/pkg/model"
	"github.com/fardiff/pkg/utils"
)

// record saves a summary of the run to the history repository.
func (a *Analyzer) record(ctx context.Context, req *Request, res *Result, timer *utils.Timer) error {
	digest, err := fileDigest(res.Binary)
	if err != nil {
		return err
	}

	rep := res.Report
	run := &model.Run{
		RunID:        res.RunID,
		Binary:       rep.Binary,
		SourcePath:   req.Path,
		Digest:       digest,
		SymbolCount:  rep.Symbols.Leaves,
		SymbolBytes:  rep.Symbols.TotalSize(),
		SectionBytes: rep.Sections.TotalSize(),
		Skipped:      rep.SymbolStats.Skipped + rep.SectionStats.Skipped,
		ReportPath:   res.Output,
		Phases:       make(map[string]time.Duration),
		CreatedAt:    a.clock.Now(),
	}
	if res.Publish != nil {
		run.PublishedURL = res.Publish.ReportURL
	}
	for _, p := range timer.Phases() {
		run.Phases[p.Name] = p.Duration
	}

	return a.history.Save(ctx, run)
}

// fileDigest returns the hex sha256 of the file at path.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
