package locator

import (
	"fmt"
	"io"
	"strings"

	"github.com/fardiff/pkg/utils"
)

// Candidate is one library found in a directory or archive.
type Candidate struct {
	Index int

	// Name is the archive entry name or the file path.
	Name string

	Size int64

	// CompressedSize is set for archive entries only.
	CompressedSize int64
	InArchive      bool

	// Hinted marks names containing one of the configured hint substrings.
	Hinted bool
}

// Marker returns "*" for hinted candidates and " " otherwise.
func (c Candidate) Marker() string {
	if c.Hinted {
		return "*"
	}
	return " "
}

// String renders the candidate as a listing row.
func (c Candidate) String() string {
	if c.InArchive {
		return fmt.Sprintf("%3d %s %s (%s) %s", c.Index, c.Marker(),
			utils.FormatKiB(c.Size), utils.FormatKiB(c.CompressedSize), c.Name)
	}
	return fmt.Sprintf("%3d %s %s %s", c.Index, c.Marker(), utils.FormatKiB(c.Size), c.Name)
}

// WriteListing prints one row per candidate.
func WriteListing(w io.Writer, candidates []Candidate) error {
	for _, c := range candidates {
		if _, err := fmt.Fprintln(w, c.String()); err != nil {
			return err
		}
	}
	return nil
}

func matchesHint(name string, hints []string) bool {
	for _, h := range hints {
		if h != "" && strings.Contains(name, h) {
			return true
		}
	}
	return false
}
