// Package writer provides generic JSON writers for serialized trees.
package writer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fardiff/pkg/compression"
)

// JSONWriter writes data as JSON.
//
// HTML escaping stays on: '<', '>' and '&' are emitted as \u003c, \u003e
// and \u0026 so the output can be embedded verbatim inside a <script> element.
type JSONWriter[T any] struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
}

// NewJSONWriter creates a new JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write writes the data as JSON to the writer.
func (w *JSONWriter[T]) Write(data T, out io.Writer) error {
	encoder := json.NewEncoder(out)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(data)
}

// Marshal returns the encoded bytes without the trailing newline.
func (w *JSONWriter[T]) Marshal(data T) ([]byte, error) {
	var buf bytes.Buffer
	if err := w.Write(data, &buf); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// WriteToFile writes the data as JSON to a file.
func (w *JSONWriter[T]) WriteToFile(data T, path string) error {
	var buf bytes.Buffer
	if err := w.Write(data, &buf); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}
	return WriteFileAtomic(path, buf.Bytes(), 0644)
}

// CompressedWriter writes JSON through a compression codec.
type CompressedWriter[T any] struct {
	Type compression.Type
}

// NewCompressedWriter creates a compressed JSON writer.
func NewCompressedWriter[T any](t compression.Type) *CompressedWriter[T] {
	return &CompressedWriter[T]{Type: t}
}

// WriteResult contains statistics about a compressed write.
type WriteResult struct {
	JSONSize       int64
	CompressedSize int64
	CompressionPct float64
}

// Encode marshals and compresses data.
func (w *CompressedWriter[T]) Encode(data T) ([]byte, *WriteResult, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal data: %w", err)
	}

	c, err := compression.New(w.Type)
	if err != nil {
		return nil, nil, err
	}
	defer compression.Close(c)

	compressed, err := c.Compress(jsonData)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compress data: %w", err)
	}

	result := &WriteResult{
		JSONSize:       int64(len(jsonData)),
		CompressedSize: int64(len(compressed)),
	}
	if result.JSONSize > 0 {
		result.CompressionPct = float64(result.CompressedSize) / float64(result.JSONSize) * 100
	}
	return compressed, result, nil
}

// WriteToFile writes the compressed JSON to path and returns size statistics.
func (w *CompressedWriter[T]) WriteToFile(data T, path string) (*WriteResult, error) {
	compressed, result, err := w.Encode(data)
	if err != nil {
		return nil, err
	}
	if err := WriteFileAtomic(path, compressed, 0644); err != nil {
		return nil, err
	}
	return result, nil
}

// WriteFileAtomic writes data to a temporary file in the target directory and
// renames it into place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
