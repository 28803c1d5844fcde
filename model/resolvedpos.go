package model

import (
	"errors"
	"fmt"
	"sync"
)

// ResolvedPos means resolved position. You can resolve a position to get more
// information about it. Objects of this class represent such a resolved
// position, providing various pieces of context information, and some helper
// methods.
//
// Throughout this interface, methods that take an optional depth parameter
// will interpret a missing value as r.Depth and negative numbers as r.Depth +
// value.
type ResolvedPos struct {
	// The position that was resolved.
	Pos  int
	path []pathStep
	// The number of levels the parent node is from the root. If this
	// position points directly into the root node, it is 0. If it
	// points into a top-level paragraph, 1, and so on.
	Depth int
	// The offset this position has into its parent node.
	ParentOffset int
}

// pathStep records, for one level of a resolved position, the ancestor
// node, the index into it, and the absolute offset of that index.
type pathStep struct {
	node   *Node
	index  int
	offset int
}

func newResolvedPos(pos int, path []pathStep, parentOffset int) *ResolvedPos {
	return &ResolvedPos{
		Pos:          pos,
		path:         path,
		Depth:        len(path) - 1,
		ParentOffset: parentOffset,
	}
}

func (r *ResolvedPos) resolveDepth(depth []int) int {
	if len(depth) == 0 {
		return r.Depth
	}
	if depth[0] < 0 {
		return r.Depth + depth[0]
	}
	return depth[0]
}

// Parent returns the parent node that the position points into. Note that even
// if a position points into a text node, that node is not considered the
// parent; text nodes are ‘flat’ in this model, and have no content.
func (r *ResolvedPos) Parent() *Node {
	return r.Node(r.Depth)
}

// Doc is the root node in which the position was resolved.
func (r *ResolvedPos) Doc() *Node {
	return r.Node(0)
}

// Node returns the ancestor node at the given level. r.Node(r.Depth) is the
// same as r.Parent().
func (r *ResolvedPos) Node(depth ...int) *Node {
	return r.path[r.resolveDepth(depth)].node
}

// Index returns the index into the ancestor at the given level. If this points
// at the 3rd node in the 2nd paragraph on the top level, for example,
// r.Index(0) is 1 and r.Index(1) is 2.
func (r *ResolvedPos) Index(depth ...int) int {
	return r.path[r.resolveDepth(depth)].index
}

// IndexAfter returns the index pointing after this position into the ancestor
// at the given level.
func (r *ResolvedPos) IndexAfter(depth ...int) int {
	rd := r.resolveDepth(depth)
	if rd == r.Depth && r.TextOffset() == 0 {
		return r.Index(rd)
	}
	return r.Index(rd) + 1
}

// Start is the (absolute) position at the start of the node at the given
// level.
func (r *ResolvedPos) Start(depth ...int) int {
	rd := r.resolveDepth(depth)
	if rd == 0 {
		return 0
	}
	return r.path[rd-1].offset + 1
}

// End is the (absolute) position at the end of the node at the given level.
func (r *ResolvedPos) End(depth ...int) int {
	rd := r.resolveDepth(depth)
	return r.Start(rd) + r.Node(rd).Content.Size
}

// Before is the (absolute) position directly before the wrapping node at the
// given level, or, when depth is r.Depth + 1, the original position.
func (r *ResolvedPos) Before(depth ...int) (int, error) {
	rd := r.resolveDepth(depth)
	if rd == 0 {
		return 0, errors.New("there is no position before the top-level node")
	}
	if rd == r.Depth+1 {
		return r.Pos, nil
	}
	return r.path[rd-1].offset, nil
}

// After is the (absolute) position directly after the wrapping node at the
// given level, or the original position when depth is r.Depth + 1.
func (r *ResolvedPos) After(depth ...int) (int, error) {
	rd := r.resolveDepth(depth)
	if rd == 0 {
		return 0, errors.New("there is no position after the top-level node")
	}
	if rd == r.Depth+1 {
		return r.Pos, nil
	}
	return r.path[rd-1].offset + r.path[rd].node.NodeSize(), nil
}

// TextOffset returns, when this position points into a text node, the distance
// between the position and the start of the text node. Will be zero for
// positions that point between nodes.
func (r *ResolvedPos) TextOffset() int {
	return r.Pos - r.path[len(r.path)-1].offset
}

// NodeAfter gets the node directly after the position, if any. If the position
// points into a text node, only the part of that node after the position is
// returned.
func (r *ResolvedPos) NodeAfter() (*Node, error) {
	parent := r.Parent()
	index := r.Index(r.Depth)
	if index == parent.ChildCount() {
		return nil, nil
	}
	dOff := r.TextOffset()
	child, err := parent.Child(index)
	if err != nil {
		return nil, err
	}
	if dOff > 0 {
		return child.Cut(dOff), nil
	}
	return child, nil
}

// NodeBefore gets the node directly before the position, if any. If the
// position points into a text node, only the part of that node before the
// position is returned.
func (r *ResolvedPos) NodeBefore() (*Node, error) {
	index := r.Index(r.Depth)
	dOff := r.TextOffset()
	if dOff > 0 {
		child, err := r.Parent().Child(index)
		if err != nil {
			return nil, err
		}
		return child.Cut(0, dOff), nil
	}
	if index == 0 {
		return nil, nil
	}
	return r.Parent().Child(index - 1)
}

// PosAtIndex gets the position at the given index in the parent node at the
// given depth (which defaults to r.Depth).
func (r *ResolvedPos) PosAtIndex(index int, depth ...int) int {
	rd := r.resolveDepth(depth)
	node := r.path[rd].node
	pos := 0
	if rd > 0 {
		pos = r.path[rd-1].offset + 1
	}
	for i := 0; i < index; i++ {
		pos += node.Content.Content[i].NodeSize()
	}
	return pos
}

// Marks gets the marks at this position, factoring in the surrounding marks'
// inclusive property. If the position is at the start of a non-empty node, the
// marks of the node after it (if any) are returned.
func (r *ResolvedPos) Marks() []*Mark {
	parent := r.Parent()
	index := r.Index()

	// In an empty parent, return the empty array
	if parent.Content.Size == 0 {
		return NoMarks
	}

	// When inside a text node, just return the text node's marks
	if r.TextOffset() > 0 {
		return parent.Content.Content[index].Marks
	}

	main := parent.MaybeChild(index - 1)
	other := parent.MaybeChild(index)
	// If there is no node before, make the node after this position the main
	// reference.
	if main == nil {
		main, other = other, main
	}

	// Use all marks in the main node, except those that have inclusive set to
	// false and are not present in the other node.
	marks := main.Marks
	for _, m := range main.Marks {
		if (m.Type.Spec.Inclusive != nil && !*m.Type.Spec.Inclusive) &&
			(other == nil || !m.IsInSet(other.Marks)) {
			marks = m.RemoveFromSet(marks)
		}
	}
	return marks
}

// SharedDepth is the depth up to which this position and the given
// (non-resolved) position share the same parent nodes.
func (r *ResolvedPos) SharedDepth(pos int) int {
	for depth := r.Depth; depth > 0; depth-- {
		if r.Start(depth) <= pos && r.End(depth) >= pos {
			return depth
		}
	}
	return 0
}

// SameParent queries whether the given position shares the same parent node.
func (r *ResolvedPos) SameParent(other *ResolvedPos) bool {
	return r.Depth == other.Depth && r.Pos-r.ParentOffset == other.Pos-other.ParentOffset
}

// String returns a debugging representation of the position.
func (r *ResolvedPos) String() string {
	str := ""
	for i := 1; i <= r.Depth; i++ {
		if str != "" {
			str += "/"
		}
		str += fmt.Sprintf("%s_%d", r.Node(i).Type.Name, r.Index(i-1))
	}
	return fmt.Sprintf("%s:%d", str, r.ParentOffset)
}

func resolvePos(doc *Node, pos int) (*ResolvedPos, error) {
	if !(pos >= 0 && pos <= doc.Content.Size) {
		return nil, fmt.Errorf("position %d out of range", pos)
	}
	var path []pathStep
	start := 0
	parentOffset := pos
	node := doc
	for {
		index, offset, err := node.Content.findIndex(parentOffset)
		if err != nil {
			return nil, err
		}
		rem := parentOffset - offset
		path = append(path, pathStep{node: node, index: index, offset: start + offset})
		if rem == 0 {
			break
		}
		node = node.Content.Content[index]
		if node.IsText() {
			break
		}
		parentOffset = rem - 1
		start += offset + 1
	}
	return newResolvedPos(pos, path, parentOffset), nil
}

func resolvePosCached(doc *Node, pos int) (*ResolvedPos, error) {
	resolveCacheMutex.Lock()
	defer resolveCacheMutex.Unlock()
	for _, entry := range resolveCache {
		if entry.doc == doc && entry.pos.Pos == pos {
			return entry.pos, nil
		}
	}
	result, err := resolvePos(doc, pos)
	if err != nil {
		return nil, err
	}
	resolveCache[resolveCachePos] = resolveEntry{doc, result}
	resolveCachePos = (resolveCachePos + 1) % len(resolveCache)
	return result, nil
}

type resolveEntry struct {
	doc *Node
	pos *ResolvedPos
}

var (
	resolveCacheMutex sync.Mutex
	resolveCache      = make([]resolveEntry, 12)
	resolveCachePos   = 0
)
