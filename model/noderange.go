package model

// NodeRange represents a flat range of content, i.e. one that starts and
// ends in the same node.
type NodeRange struct {
	// A resolved position along the start of the content. May have a Depth
	// greater than this object's Depth property, since these are the
	// positions that were used to compute the range, not re-resolved
	// positions directly at its boundaries.
	From *ResolvedPos
	// A position along the end of the content.
	To *ResolvedPos
	// The depth of the node that this range points into.
	Depth int
}

// Start is the position at the start of the range.
func (r *NodeRange) Start() int {
	pos, _ := r.From.Before(r.Depth + 1)
	return pos
}

// End is the position at the end of the range.
func (r *NodeRange) End() int {
	pos, _ := r.To.After(r.Depth + 1)
	return pos
}

// Parent is the parent node that the range points into.
func (r *NodeRange) Parent() *Node {
	return r.From.Node(r.Depth)
}

// StartIndex is the start index of the range in the parent node.
func (r *NodeRange) StartIndex() int {
	return r.From.Index(r.Depth)
}

// EndIndex is the end index of the range in the parent node.
func (r *NodeRange) EndIndex() int {
	return r.To.IndexAfter(r.Depth)
}

// BlockRange returns a range based on the place where this position and the
// given position diverge around block content. If both point into the same
// textblock, for example, a range around that textblock will be returned. If
// they point into different blocks, the range around those blocks in their
// shared ancestor is returned. You can pass in an optional predicate that
// will be called with a parent node to see if a range into that parent is
// acceptable.
func (r *ResolvedPos) BlockRange(other *ResolvedPos, pred func(*Node) bool) *NodeRange {
	if other == nil {
		other = r
	}
	if other.Pos < r.Pos {
		return other.BlockRange(r, pred)
	}
	d := r.Depth
	if r.Parent().InlineContent() || r.Pos == other.Pos {
		d--
	}
	for ; d >= 0; d-- {
		if other.Pos <= r.End(d) && (pred == nil || pred(r.Node(d))) {
			return &NodeRange{From: r, To: other, Depth: d}
		}
	}
	return nil
}
