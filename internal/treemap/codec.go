package treemap

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/fardiff/pkg/errors"
	"github.com/fardiff/pkg/writer"
)

// Encode writes the tree as compact {name, size, children} JSON.
func Encode(root *Node, w io.Writer) error {
	return writer.NewJSONWriter[*Node]().Write(root, w)
}

// Marshal returns the compact JSON encoding of the tree without a trailing
// newline, ready for inline embedding.
func Marshal(root *Node) ([]byte, error) {
	return writer.NewJSONWriter[*Node]().Marshal(root)
}

// Decode reads a tree and checks it with Validate.
func Decode(r io.Reader) (*Node, error) {
	var root Node
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParseError, "failed to decode tree", err)
	}
	if err := root.Validate(); err != nil {
		return nil, err
	}
	return &root, nil
}

// Validate checks that sizes are non-negative, that every group's size is the
// sum of its children and that sibling names are unique.
func (n *Node) Validate() error {
	var err error
	n.Walk(func(path []string, node *Node) bool {
		if err != nil {
			return false
		}
		err = validateNode(path, node)
		return err == nil
	})
	return err
}

func validateNode(path []string, node *Node) error {
	where := strings.Join(path, "/")
	if node.Size < 0 {
		return apperrors.Newf(apperrors.CodeParseError, "%s: negative size %d", where, node.Size)
	}
	if node.IsLeaf() {
		return nil
	}

	seen := make(map[string]struct{}, len(node.Children))
	var sum int64
	for _, c := range node.Children {
		if _, dup := seen[c.Name]; dup {
			return apperrors.Newf(apperrors.CodeParseError, "%s: duplicate child %q", where, c.Name)
		}
		seen[c.Name] = struct{}{}
		sum += c.Size
	}
	if sum != node.Size {
		return apperrors.Newf(apperrors.CodeParseError, "%s: size %d does not equal children sum %d", where, node.Size, sum)
	}
	return nil
}

// WriteFolded writes one "a;b;c size" line per leaf, the collapsed format
// understood by flamegraph.pl and similar tools. The root name is omitted.
func WriteFolded(root *Node, w io.Writer) error {
	var err error
	root.Walk(func(path []string, node *Node) bool {
		if err != nil {
			return false
		}
		if node.IsLeaf() && len(path) > 1 {
			_, err = fmt.Fprintf(w, "%s %d\n", strings.Join(path[1:], ";"), node.Size)
		}
		return true
	})
	return err
}
