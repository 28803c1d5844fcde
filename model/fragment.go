package model

import (
	"fmt"
	"strings"
)

// A fragment represents a node's collection of child nodes.
//
// Like nodes, fragments are persistent data structures, and you should not
// mutate them or their content. Rather, you create new instances whenever
// needed. The API tries to make this easy.
type Fragment struct {
	Content []*Node
	// The size of the fragment, which is the total of the size of its
	// content nodes.
	Size int
}

// NewFragment creates a fragment from a slice of nodes, computing its size
// when it is not given.
func NewFragment(content []*Node, size ...int) *Fragment {
	f := &Fragment{Content: content}
	if len(size) > 0 {
		f.Size = size[0]
	} else {
		for _, child := range content {
			f.Size += child.NodeSize()
		}
	}
	return f
}

// EmptyFragment is an empty fragment. Intended to be reused whenever a node
// doesn't contain anything (rather than allocating a new empty fragment for
// each leaf node).
var EmptyFragment = &Fragment{Content: []*Node{}}

// FragmentFromArray builds a fragment from an array of nodes. Ensures that
// adjacent text nodes with the same marks are joined together.
func FragmentFromArray(array []*Node) *Fragment {
	if len(array) == 0 {
		return EmptyFragment
	}
	var joined []*Node
	size := 0
	for i, node := range array {
		size += node.NodeSize()
		if i > 0 && node.IsText() && array[i-1].SameMarkup(node) {
			if joined == nil {
				joined = append([]*Node{}, array[:i]...)
			}
			last := joined[len(joined)-1]
			joined[len(joined)-1] = node.WithText(*last.Text + *node.Text)
		} else if joined != nil {
			joined = append(joined, node)
		}
	}
	if joined == nil {
		joined = array
	}
	return NewFragment(joined, size)
}

// FragmentFrom creates a fragment from something that can be interpreted as
// a set of nodes. For nil, it returns the empty fragment. For a fragment, the
// fragment itself. For a node or slice of nodes, a fragment containing
// those nodes.
func FragmentFrom(nodes interface{}) (*Fragment, error) {
	switch n := nodes.(type) {
	case nil:
		return EmptyFragment, nil
	case *Fragment:
		if n == nil {
			return EmptyFragment, nil
		}
		return n, nil
	case *Node:
		if n == nil {
			return EmptyFragment, nil
		}
		return NewFragment([]*Node{n}, n.NodeSize()), nil
	case []*Node:
		return FragmentFromArray(n), nil
	}
	return nil, fmt.Errorf("can not convert %v to a Fragment", nodes)
}

// NBCallback is the callback used by NodesBetween and Descendants. Returning
// false prevents the children of the node from being visited.
type NBCallback func(node *Node, pos int, parent *Node, index int) bool

// NodesBetween invokes a callback for all descendant nodes between the given
// two positions (relative to start of this fragment). Doesn't descend into a
// node when the callback returns false.
func (f *Fragment) NodesBetween(from, to int, fn NBCallback, nodeStart int, parent *Node) {
	pos := 0
	for i := 0; pos < to; i++ {
		if i >= len(f.Content) {
			return
		}
		child := f.Content[i]
		end := pos + child.NodeSize()
		if end > from && fn(child, nodeStart+pos, parent, i) && child.Content.Size > 0 {
			start := pos + 1
			cfrom := from - start
			if cfrom < 0 {
				cfrom = 0
			}
			cto := to - start
			if cto > child.Content.Size {
				cto = child.Content.Size
			}
			child.NodesBetween(cfrom, cto, fn, nodeStart+start)
		}
		pos = end
	}
}

// Descendants calls the given callback for every descendant node.
func (f *Fragment) Descendants(fn NBCallback) {
	f.NodesBetween(0, f.Size, fn, 0, nil)
}

// TextBetween extracts the text between from and to. The optional arguments
// are the block separator and the text inserted for non-text leaf nodes.
func (f *Fragment) TextBetween(from, to int, args ...string) string {
	var blockSeparator, leafText string
	if len(args) > 0 {
		blockSeparator = args[0]
	}
	if len(args) > 1 {
		leafText = args[1]
	}
	var text strings.Builder
	first := true
	f.NodesBetween(from, to, func(node *Node, pos int, _ *Node, _ int) bool {
		nodeText := ""
		if node.IsText() {
			start := from - pos
			if start < 0 {
				start = 0
			}
			end := to - pos
			if end > len(*node.Text) {
				end = len(*node.Text)
			}
			nodeText = (*node.Text)[start:end]
		} else if node.IsLeaf() {
			nodeText = leafText
		}
		if ((node.IsBlock() && node.IsLeaf() && nodeText != "") || node.IsTextblock()) && blockSeparator != "" {
			if first {
				first = false
			} else {
				text.WriteString(blockSeparator)
			}
		}
		text.WriteString(nodeText)
		return true
	}, 0, nil)
	return text.String()
}

// Append creates a new fragment containing the combined content of this
// fragment and the other.
func (f *Fragment) Append(other *Fragment) *Fragment {
	if other.Size == 0 {
		return f
	}
	if f.Size == 0 {
		return other
	}
	last := f.Content[len(f.Content)-1]
	first := other.Content[0]
	content := append([]*Node{}, f.Content...)
	i := 0
	if last.IsText() && last.SameMarkup(first) {
		content[len(content)-1] = last.WithText(*last.Text + *first.Text)
		i = 1
	}
	content = append(content, other.Content[i:]...)
	return NewFragment(content, f.Size+other.Size)
}

// Cut cuts out the sub-fragment between the two given positions.
func (f *Fragment) Cut(from int, to ...int) *Fragment {
	t := f.Size
	if len(to) > 0 {
		t = to[0]
	}
	if from == 0 && t == f.Size {
		return f
	}
	var result []*Node
	size := 0
	if t > from {
		pos := 0
		for i := 0; pos < t; i++ {
			child := f.Content[i]
			end := pos + child.NodeSize()
			if end > from {
				if pos < from || end > t {
					if child.IsText() {
						start := from - pos
						if start < 0 {
							start = 0
						}
						stop := len(*child.Text)
						if t-pos < stop {
							stop = t - pos
						}
						child = child.Cut(start, stop)
					} else {
						start := from - pos - 1
						if start < 0 {
							start = 0
						}
						stop := child.Content.Size
						if t-pos-1 < stop {
							stop = t - pos - 1
						}
						child = child.Cut(start, stop)
					}
				}
				result = append(result, child)
				size += child.NodeSize()
			}
			pos = end
		}
	}
	return NewFragment(result, size)
}

func (f *Fragment) cutByIndex(from, to int) *Fragment {
	if from == to {
		return EmptyFragment
	}
	if from == 0 && to == len(f.Content) {
		return f
	}
	return NewFragment(f.Content[from:to])
}

// ReplaceChild creates a new fragment in which the node at the given index is
// replaced by the given node.
func (f *Fragment) ReplaceChild(index int, node *Node) *Fragment {
	current := f.Content[index]
	if current == node {
		return f
	}
	cpy := append([]*Node{}, f.Content...)
	size := f.Size + node.NodeSize() - current.NodeSize()
	cpy[index] = node
	return NewFragment(cpy, size)
}

// AddToStart creates a new fragment by prepending the given node to this
// fragment.
func (f *Fragment) AddToStart(node *Node) *Fragment {
	return NewFragment(append([]*Node{node}, f.Content...), f.Size+node.NodeSize())
}

// AddToEnd creates a new fragment by appending the given node to this
// fragment.
func (f *Fragment) AddToEnd(node *Node) *Fragment {
	content := append(append([]*Node{}, f.Content...), node)
	return NewFragment(content, f.Size+node.NodeSize())
}

// Eq compares this fragment to another one.
func (f *Fragment) Eq(other *Fragment) bool {
	if len(f.Content) != len(other.Content) {
		return false
	}
	for i, child := range f.Content {
		if !child.Eq(other.Content[i]) {
			return false
		}
	}
	return true
}

// FirstChild returns the first child of the fragment, or nil if it is empty.
func (f *Fragment) FirstChild() *Node {
	if len(f.Content) > 0 {
		return f.Content[0]
	}
	return nil
}

// LastChild returns the last child of the fragment, or nil if it is empty.
func (f *Fragment) LastChild() *Node {
	if len(f.Content) > 0 {
		return f.Content[len(f.Content)-1]
	}
	return nil
}

// ChildCount returns the number of child nodes in this fragment.
func (f *Fragment) ChildCount() int {
	return len(f.Content)
}

// Child gets the child node at the given index. Returns an error when the
// index is out of range.
func (f *Fragment) Child(index int) (*Node, error) {
	if index < 0 || index >= len(f.Content) {
		return nil, fmt.Errorf("index %d out of range for %s", index, f)
	}
	return f.Content[index], nil
}

// MaybeChild gets the child node at the given index, if it exists.
func (f *Fragment) MaybeChild(index int) *Node {
	if index < 0 || index >= len(f.Content) {
		return nil
	}
	return f.Content[index]
}

// ForEach calls fn for every child node, passing the node, its offset into
// this parent node, and its index.
func (f *Fragment) ForEach(fn func(node *Node, offset, index int)) {
	p := 0
	for i, child := range f.Content {
		fn(child, p, i)
		p += child.NodeSize()
	}
}

// FindDiffStart finds the first position at which this fragment and another
// fragment differ, or nil if they are the same.
func (f *Fragment) FindDiffStart(other *Fragment, pos ...int) *int {
	p := 0
	if len(pos) > 0 {
		p = pos[0]
	}
	return findDiffStart(f, other, p)
}

// FindDiffEnd finds the first position, searching from the end, at which this
// fragment and the given fragment differ, or nil if they are the same. Since
// this position will not be the same in both nodes, a pair with positions in
// both fragments is returned.
func (f *Fragment) FindDiffEnd(other *Fragment) *DiffEnd {
	return findDiffEnd(f, other, f.Size, other.Size)
}

// findIndex finds the index and inner offset corresponding to a given
// relative position in this fragment. With round > 0, a position in the
// middle of a child rounds to the index after it.
func (f *Fragment) findIndex(pos int, round ...int) (int, int, error) {
	if pos == 0 {
		return 0, pos, nil
	}
	if pos == f.Size {
		return len(f.Content), pos, nil
	}
	if pos > f.Size || pos < 0 {
		return 0, 0, fmt.Errorf("position %d outside of fragment (%s)", pos, f)
	}
	r := -1
	if len(round) > 0 {
		r = round[0]
	}
	curPos := 0
	for i, cur := range f.Content {
		end := curPos + cur.NodeSize()
		if end >= pos {
			if end == pos || r > 0 {
				return i + 1, end, nil
			}
			return i, curPos, nil
		}
		curPos = end
	}
	return 0, 0, fmt.Errorf("position %d outside of fragment (%s)", pos, f)
}

// String returns a debugging string that describes this fragment.
func (f *Fragment) String() string {
	return "<" + f.toStringInner() + ">"
}

func (f *Fragment) toStringInner() string {
	parts := make([]string, len(f.Content))
	for i, child := range f.Content {
		parts[i] = child.String()
	}
	return strings.Join(parts, ", ")
}
