package locator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

func (l *Locator) resolveArchive(ctx context.Context, t Archive) (*Resolved, error) {
	zr, err := zip.OpenReader(t.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", t.path, err)
	}
	defer zr.Close()

	var candidates []Candidate
	var entries []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, l.opts.LibrarySuffix) {
			continue
		}
		candidates = append(candidates, Candidate{
			Index:          len(candidates),
			Name:           f.Name,
			Size:           int64(f.UncompressedSize64),
			CompressedSize: int64(f.CompressedSize64),
			InArchive:      true,
			Hinted:         matchesHint(f.Name, l.opts.Hints),
		})
		entries = append(entries, f)
	}

	idx, err := l.choose(candidates, t)
	if err != nil {
		return nil, err
	}

	dest, err := l.extractPath(t.path, entries[idx].Name)
	if err != nil {
		return nil, err
	}
	l.logger.Info("Extracting %s to %s", entries[idx].Name, dest)
	if err := extract(ctx, entries[idx], dest); err != nil {
		return nil, err
	}

	return &Resolved{
		Path:        dest,
		Target:      t,
		Candidate:   &candidates[idx],
		Extracted:   true,
		ExtractRoot: l.extractRoot(t.path),
	}, nil
}

// extractPath places entry under ExtractDir/<archive base name>/. Entry
// names that would escape that directory are rejected.
func (l *Locator) extractPath(archive, entry string) (string, error) {
	rel := filepath.FromSlash(entry)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("archive entry %q has an unsafe path", entry)
	}
	return filepath.Join(l.extractRoot(archive), rel), nil
}

func (l *Locator) extractRoot(archive string) string {
	return filepath.Join(l.opts.ExtractDir, filepath.Base(archive))
}

func extract(ctx context.Context, f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	_, err = io.Copy(out, &ctxReader{ctx: ctx, r: rc})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
