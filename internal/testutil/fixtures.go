// Package testutil provides fixture loading and scratch-file helpers for tests.
package testutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/klauspost/compress/zip"
)

// GetTestDataPath returns the absolute path to a file in the nearest testdata
// directory, searching from the caller's directory upwards.
func GetTestDataPath(t *testing.T, filename string) string {
	t.Helper()

	_, callerFile, _, ok := runtime.Caller(1)
	if !ok {
		t.Fatal("failed to get caller file path")
	}

	dir := filepath.Dir(callerFile)
	for i := 0; i < 5; i++ {
		testdataPath := filepath.Join(dir, "testdata", filename)
		if _, err := os.Stat(testdataPath); err == nil {
			return testdataPath
		}
		dir = filepath.Dir(dir)
	}

	return filepath.Join("testdata", filename)
}

// LoadFixture loads a test fixture file and returns its contents.
func LoadFixture(t *testing.T, filename string) []byte {
	t.Helper()
	path := GetTestDataPath(t, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", filename, err)
	}
	return data
}

// LoadFixtureReader loads a test fixture file and returns an io.Reader.
func LoadFixtureReader(t *testing.T, filename string) io.Reader {
	t.Helper()
	return bytes.NewReader(LoadFixture(t, filename))
}

// WriteFile writes content to dir/name, creating parent directories.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

// ZipEntry is one member written by WriteZip.
type ZipEntry struct {
	Name    string
	Content string
}

// WriteZip writes an archive at dir/name holding entries in the given order.
func WriteZip(t *testing.T, dir, name string, entries ...ZipEntry) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("failed to add %s: %v", e.Name, err)
		}
		if _, err := io.WriteString(w, e.Content); err != nil {
			t.Fatalf("failed to write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish archive: %v", err)
	}

	return WriteFile(t, dir, name, buf.String())
}

// ReadFile reads a file and returns its contents.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	return string(data)
}
