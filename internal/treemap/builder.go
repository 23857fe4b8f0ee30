package treemap

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/fardiff/internal/parser/nm"
	apperrors "github.com/fardiff/pkg/errors"
	"github.com/fardiff/pkg/model"
)

// Grouping selects how symbol names become tree paths.
type Grouping string

const (
	// GroupByNamespace splits demangled names on scope separators.
	GroupByNamespace Grouping = "namespace"

	// GroupBySource nests symbols under their defining source file.
	GroupBySource Grouping = "source"
)

// NoPathGroup collects symbols without a source location under GroupBySource.
const NoPathGroup = "symbols without paths"

// ParseGrouping validates a grouping name. Empty means namespace.
func ParseGrouping(s string) (Grouping, error) {
	switch g := Grouping(strings.ToLower(s)); g {
	case "", GroupByNamespace:
		return GroupByNamespace, nil
	case GroupBySource:
		return g, nil
	default:
		return "", fmt.Errorf("unknown grouping %q", s)
	}
}

// Item is one sized entry to place in a tree.
type Item struct {
	Path []string
	Size int64
}

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	Grouping Grouping
	Sort     SortMode
}

// DefaultBuilderOptions returns namespace grouping in insertion order.
func DefaultBuilderOptions() *BuilderOptions {
	return &BuilderOptions{
		Grouping: GroupByNamespace,
		Sort:     SortInsertion,
	}
}

// Builder turns records into trees. The symbols and sections trees are built
// independently and never merged.
type Builder struct {
	opts *BuilderOptions
}

// NewBuilder creates a builder. A nil opts uses DefaultBuilderOptions.
func NewBuilder(opts *BuilderOptions) *Builder {
	if opts == nil {
		opts = DefaultBuilderOptions()
	}
	return &Builder{opts: opts}
}

// BuildSymbols builds the symbols tree.
func (b *Builder) BuildSymbols(ctx context.Context, rootName string, symbols []*model.SymbolRecord) (*Tree, error) {
	decompose := b.Decomposer()
	items := make([]Item, 0, len(symbols))
	for _, s := range symbols {
		items = append(items, Item{Path: decompose(s), Size: s.Size})
	}
	return b.Build(ctx, rootName, items)
}

// BuildSections builds a flat tree with one leaf per section.
func (b *Builder) BuildSections(ctx context.Context, rootName string, sections []*model.SectionRecord) (*Tree, error) {
	items := make([]Item, 0, len(sections))
	for _, s := range sections {
		items = append(items, Item{Path: []string{s.Name}, Size: s.Size})
	}
	return b.Build(ctx, rootName, items)
}

// Build inserts items in order, folds duplicate paths together and computes
// every group size bottom-up. It fails with an empty-tree error when no leaf
// results.
func (b *Builder) Build(ctx context.Context, rootName string, items []Item) (*Tree, error) {
	root := NewNode(rootName)

	for i, item := range items {
		if i%4096 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		insert(root, item)
	}

	if len(root.Children) == 0 {
		return nil, apperrors.Newf(apperrors.CodeEmptyTree, "no records to build the %s tree from", rootName)
	}

	finalize(root)

	tree := &Tree{Root: root, Leaves: root.LeafCount()}
	tree.Sort(b.opts.Sort)
	return tree, nil
}

func insert(root *Node, item Item) {
	node := root
	placed := false
	for _, comp := range item.Path {
		if comp == "" {
			continue
		}
		node = node.childOrCreate(comp)
		placed = true
	}
	if !placed {
		node = root.childOrCreate(UnnamedName)
	}
	node.own += item.Size
	node.hasOwn = true
}

// finalize moves sizes recorded on groups into a trailing SelfName child,
// computes group sizes post-order and drops construction state.
func finalize(n *Node) int64 {
	if n.hasOwn && len(n.Children) > 0 {
		self := n.childOrCreate(SelfName)
		self.own += n.own
		self.hasOwn = true
		n.own, n.hasOwn = 0, false
	}

	if len(n.Children) == 0 {
		n.Size = n.own
	} else {
		var sum int64
		for _, c := range n.Children {
			sum += finalize(c)
		}
		n.Size = sum
	}

	n.childIndex = nil
	n.own, n.hasOwn = 0, false
	return n.Size
}

// Decomposer maps a symbol to its tree path.
type Decomposer func(s *model.SymbolRecord) []string

// DecomposeNamespace splits the demangled name on top-level scope separators.
func DecomposeNamespace(s *model.SymbolRecord) []string {
	return nm.SplitScope(s.Name)
}

// DecomposeSource nests the symbol under the components of its source path.
func DecomposeSource(s *model.SymbolRecord) []string {
	if s.Location == nil || s.Location.File == "" {
		return []string{NoPathGroup, s.Name}
	}
	file := strings.TrimPrefix(path.Clean(strings.ReplaceAll(s.Location.File, "\\", "/")), "/")
	return append(strings.Split(file, "/"), s.Name)
}

// Decomposer returns the decomposer for the configured grouping.
func (b *Builder) Decomposer() Decomposer {
	if b.opts.Grouping == GroupBySource {
		return DecomposeSource
	}
	return DecomposeNamespace
}
