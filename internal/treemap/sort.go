package treemap

import (
	"fmt"
	"sort"
	"strings"
)

// SortMode orders children within each group.
type SortMode string

const (
	// SortInsertion keeps first-seen order.
	SortInsertion SortMode = "insertion"

	// SortSize orders by descending size, then by name.
	SortSize SortMode = "size"

	// SortName orders by name.
	SortName SortMode = "name"
)

// ParseSortMode validates a sort mode name. Empty means insertion order.
func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(strings.ToLower(s)); m {
	case "":
		return SortInsertion, nil
	case SortInsertion, SortSize, SortName:
		return m, nil
	default:
		return "", fmt.Errorf("unknown sort mode %q", s)
	}
}

// Sort reorders every group's children. Sorting is stable, so ties keep
// their insertion order.
func (t *Tree) Sort(mode SortMode) {
	if t == nil || t.Root == nil || mode == SortInsertion || mode == "" {
		return
	}
	sortNode(t.Root, less(mode))
}

func less(mode SortMode) func(a, b *Node) bool {
	if mode == SortName {
		return func(a, b *Node) bool { return a.Name < b.Name }
	}
	return func(a, b *Node) bool {
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		return a.Name < b.Name
	}
}

func sortNode(n *Node, lessFn func(a, b *Node) bool) {
	if len(n.Children) == 0 {
		return
	}
	sort.SliceStable(n.Children, func(i, j int) bool {
		return lessFn(n.Children[i], n.Children[j])
	})
	for _, c := range n.Children {
		sortNode(c, lessFn)
	}
}
