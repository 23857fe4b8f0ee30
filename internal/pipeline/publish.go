package pipeline

import (
	"bytes"
	"context"
	"path/filepath"

	"github.com/fardiff/internal/report"
	"github.com/fardiff/internal/storage"
	"github.com/fardiff/pkg/compression"
	"github.com/fardiff/pkg/writer"
)

// BundleFile is the published tree bundle name.
const BundleFile = "trees.json.zst"

// Publication records where a run was published.
type Publication struct {
	ReportKey string
	ReportURL string
	BundleKey string
	BundleURL string
	Bundle    *writer.WriteResult
}

// publish uploads the report and a zstd tree bundle under <prefix>/<run id>/.
func (a *Analyzer) publish(ctx context.Context, runID string, rep *report.Report, output string) (*Publication, error) {
	pub := &Publication{
		ReportKey: storage.JoinKey(a.settings.PublishPrefix, runID, filepath.Base(output)),
		BundleKey: storage.JoinKey(a.settings.PublishPrefix, runID, BundleFile),
	}

	if err := a.storage.UploadFile(ctx, pub.ReportKey, output); err != nil {
		return nil, err
	}

	data, stats, err := writer.NewCompressedWriter[*Bundle](compression.TypeZstd).Encode(newBundle(runID, rep))
	if err != nil {
		return nil, err
	}
	if err := a.storage.Upload(ctx, pub.BundleKey, bytes.NewReader(data), storage.ContentType(BundleFile)); err != nil {
		return nil, err
	}
	pub.Bundle = stats
	pub.ReportURL = a.storage.GetURL(pub.ReportKey)
	pub.BundleURL = a.storage.GetURL(pub.BundleKey)

	a.logger.Info("Published %s (bundle %d -> %d bytes)", pub.ReportURL, stats.JSONSize, stats.CompressedSize)
	return pub, nil
}
