package state

import (
	"fmt"

	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/transform"
)

// Selection is a text selection, between two positions that point into
// textblocks. When Anchor and Head are equal it is a cursor.
type Selection struct {
	// The side of the selection that stays in place when the selection is
	// extended.
	Anchor int
	// The side of the selection that moves.
	Head int
}

// NewSelection creates a selection. When head is omitted it is a cursor at
// anchor.
func NewSelection(anchor int, head ...int) Selection {
	h := anchor
	if len(head) > 0 {
		h = head[0]
	}
	return Selection{Anchor: anchor, Head: h}
}

// From is the lower bound of the selection.
func (s Selection) From() int {
	if s.Anchor < s.Head {
		return s.Anchor
	}
	return s.Head
}

// To is the upper bound of the selection.
func (s Selection) To() int {
	if s.Anchor > s.Head {
		return s.Anchor
	}
	return s.Head
}

// Empty is true when the selection is a cursor.
func (s Selection) Empty() bool {
	return s.Anchor == s.Head
}

// Eq tests whether two selections cover the same positions.
func (s Selection) Eq(other Selection) bool {
	return s.Anchor == other.Anchor && s.Head == other.Head
}

// String returns a debugging representation of the selection.
func (s Selection) String() string {
	if s.Empty() {
		return fmt.Sprintf("<%d>", s.Head)
	}
	return fmt.Sprintf("<%d-%d>", s.Anchor, s.Head)
}

// ResolveFrom resolves the lower bound of the selection in doc.
func (s Selection) ResolveFrom(doc *model.Node) (*model.ResolvedPos, error) {
	return doc.Resolve(s.From())
}

// ResolveTo resolves the upper bound of the selection in doc.
func (s Selection) ResolveTo(doc *model.Node) (*model.ResolvedPos, error) {
	return doc.Resolve(s.To())
}

// Map maps the selection through a mapping, the result pointing into doc.
// When an end ends up outside of a textblock, the nearest valid position is
// used instead.
func (s Selection) Map(doc *model.Node, mapping transform.Mappable) Selection {
	head := clampPos(doc, mapping.Map(s.Head))
	rhead, err := doc.Resolve(head)
	if err != nil || !rhead.Parent().InlineContent() {
		return Near(doc, head, 1)
	}
	anchor := clampPos(doc, mapping.Map(s.Anchor))
	ranchor, err := doc.Resolve(anchor)
	if err != nil || !ranchor.Parent().InlineContent() {
		return NewSelection(head)
	}
	return NewSelection(anchor, head)
}

// Valid reports whether both ends of the selection point into textblocks of
// doc.
func (s Selection) Valid(doc *model.Node) bool {
	for _, pos := range []int{s.Anchor, s.Head} {
		rpos, err := doc.Resolve(pos)
		if err != nil || !rpos.Parent().InlineContent() {
			return false
		}
	}
	return true
}

func clampPos(doc *model.Node, pos int) int {
	if pos < 0 {
		return 0
	}
	if pos > doc.Content.Size {
		return doc.Content.Size
	}
	return pos
}

// textPositions lists the start and end positions of every textblock in doc,
// in document order.
func textPositions(doc *model.Node) []int {
	var positions []int
	doc.Descendants(func(node *model.Node, pos int, _ *model.Node, _ int) bool {
		if node.IsTextblock() {
			positions = append(positions, pos+1, pos+1+node.Content.Size)
			return false
		}
		return !node.IsLeaf()
	})
	return positions
}

// Near finds a valid cursor position near pos. It searches in the direction
// given by bias first (negative for backwards), then in the other direction.
// A document without textblocks yields a cursor at 0.
func Near(doc *model.Node, pos, bias int) Selection {
	pos = clampPos(doc, pos)
	if rpos, err := doc.Resolve(pos); err == nil && rpos.Parent().InlineContent() {
		return NewSelection(pos)
	}
	positions := textPositions(doc)
	if len(positions) == 0 {
		return NewSelection(0)
	}
	forward := func() (int, bool) {
		for _, p := range positions {
			if p >= pos {
				return p, true
			}
		}
		return 0, false
	}
	backward := func() (int, bool) {
		for i := len(positions) - 1; i >= 0; i-- {
			if positions[i] <= pos {
				return positions[i], true
			}
		}
		return 0, false
	}
	first, second := forward, backward
	if bias < 0 {
		first, second = backward, forward
	}
	if p, ok := first(); ok {
		return NewSelection(p)
	}
	p, _ := second()
	return NewSelection(p)
}

// AtStart returns a cursor at the start of the first textblock in doc.
func AtStart(doc *model.Node) Selection {
	return Near(doc, 0, 1)
}

// AtEnd returns a cursor at the end of the last textblock in doc.
func AtEnd(doc *model.Node) Selection {
	return Near(doc, doc.Content.Size, -1)
}

// All returns a selection spanning from the start of the first textblock to
// the end of the last one.
func All(doc *model.Node) Selection {
	return NewSelection(AtStart(doc).Head, AtEnd(doc).Head)
}
