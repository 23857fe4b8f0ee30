// Package treemap builds size hierarchies from symbol and section records.
package treemap

// SelfName names the synthetic child that carries a group's own size when a
// record lands on a path that also has children.
const SelfName = "<self>"

// UnnamedName replaces a path that decomposes to nothing.
const UnnamedName = "<unnamed>"

// Node is one treemap node. A node without children is a leaf.
type Node struct {
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	Children []*Node `json:"children,omitempty"`

	// Construction state, not serialized.
	childIndex map[string]int
	own        int64
	hasOwn     bool
}

// NewNode creates a node with no children.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Child returns the child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	if n.childIndex == nil {
		for _, c := range n.Children {
			if c.Name == name {
				return c
			}
		}
		return nil
	}
	if idx, ok := n.childIndex[name]; ok {
		return n.Children[idx]
	}
	return nil
}

// childOrCreate returns the named child, appending it in first-seen order.
func (n *Node) childOrCreate(name string) *Node {
	if n.childIndex == nil {
		n.childIndex = make(map[string]int)
	}
	if idx, ok := n.childIndex[name]; ok {
		return n.Children[idx]
	}
	child := NewNode(name)
	n.childIndex[name] = len(n.Children)
	n.Children = append(n.Children, child)
	return child
}

// Walk visits n and its descendants depth-first in child order. path holds
// the names from the root to the visited node. Returning false skips the
// node's children.
func (n *Node) Walk(fn func(path []string, node *Node) bool) {
	n.walk(nil, fn)
}

func (n *Node) walk(path []string, fn func([]string, *Node) bool) {
	path = append(path, n.Name)
	if !fn(path, n) {
		return
	}
	for _, c := range n.Children {
		c.walk(path, fn)
	}
}

// LeafCount returns the number of leaves under n.
func (n *Node) LeafCount() int {
	if n.IsLeaf() {
		return 1
	}
	count := 0
	for _, c := range n.Children {
		count += c.LeafCount()
	}
	return count
}

// Depth returns the number of levels below n.
func (n *Node) Depth() int {
	deepest := 0
	for _, c := range n.Children {
		if d := c.Depth() + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}

// Tree is a built hierarchy.
type Tree struct {
	Root   *Node `json:"root"`
	Leaves int   `json:"leaves"`
}

// TotalSize returns the root size.
func (t *Tree) TotalSize() int64 {
	if t == nil || t.Root == nil {
		return 0
	}
	return t.Root.Size
}
