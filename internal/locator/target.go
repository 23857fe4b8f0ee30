// Package locator resolves a user-supplied path to one native library on
// local disk, prompting through a Chooser when several candidates exist.
package locator

import (
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/fardiff/pkg/errors"
)

// TargetKind names the variant of a Target.
type TargetKind int

const (
	KindLibrary TargetKind = iota
	KindDirectory
	KindArchive
)

func (k TargetKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindArchive:
		return "archive"
	default:
		return "library"
	}
}

// Target is the classified input path. The set of implementations is closed:
// Archive, Directory and Library.
type Target interface {
	Path() string
	Kind() TargetKind
	isTarget()
}

// Archive is a zip container (zip, aar, apk) holding libraries as entries.
type Archive struct{ path string }

// Directory is a tree searched recursively for libraries.
type Directory struct{ path string }

// Library is a file analyzed as-is.
type Library struct{ path string }

func (t Archive) Path() string   { return t.path }
func (t Directory) Path() string { return t.path }
func (t Library) Path() string   { return t.path }

func (Archive) Kind() TargetKind   { return KindArchive }
func (Directory) Kind() TargetKind { return KindDirectory }
func (Library) Kind() TargetKind   { return KindLibrary }

func (Archive) isTarget()   {}
func (Directory) isTarget() {}
func (Library) isTarget()   {}

// Classify resolves path to its Target variant. Any regular file that is not
// an archive is treated as a library.
func Classify(path string, archiveExtensions []string) (Target, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, "no file or folder at "+path, err)
		}
		return nil, err
	}

	if info.IsDir() {
		return Directory{path: path}, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range archiveExtensions {
		if ext == strings.ToLower(a) {
			return Archive{path: path}, nil
		}
	}
	return Library{path: path}, nil
}
