package model

import (
	"sort"
)

// A mark is a piece of information that can be attached to a node, such as it
// being emphasized, in code font, or a link. It has a type and optionally a
// set of attributes that provide further information (such as the target of
// the link). Marks are created through a Schema, which controls which types
// exist and which attributes they have.
type Mark struct {
	Type  *MarkType
	Attrs map[string]interface{}
}

// NoMarks is the empty set of marks.
var NoMarks = []*Mark{}

// Given a set of marks, create a new set which contains this one as well, in
// the right position. If this mark is already in the set, the set itself is
// returned. If any marks that are set to be exclusive with this mark are
// present, those are replaced by this one.
func (m *Mark) AddToSet(set []*Mark) []*Mark {
	var cpy []*Mark
	placed := false
	for i, other := range set {
		if m.Eq(other) {
			return set
		}
		if m.Type.Excludes(other.Type) {
			if cpy == nil {
				cpy = append([]*Mark{}, set[:i]...)
			}
		} else if other.Type.Excludes(m.Type) {
			return set
		} else {
			if !placed && other.Type.Rank > m.Type.Rank {
				if cpy == nil {
					cpy = append([]*Mark{}, set[:i]...)
				}
				cpy = append(cpy, m)
				placed = true
			}
			if cpy != nil {
				cpy = append(cpy, other)
			}
		}
	}
	if cpy == nil {
		cpy = append([]*Mark{}, set...)
	}
	if !placed {
		cpy = append(cpy, m)
	}
	return cpy
}

// Remove this mark from the given set, returning a new set. If this mark is
// not in the set, the set itself is returned.
func (m *Mark) RemoveFromSet(set []*Mark) []*Mark {
	for i, other := range set {
		if m.Eq(other) {
			cpy := make([]*Mark, 0, len(set)-1)
			cpy = append(cpy, set[:i]...)
			return append(cpy, set[i+1:]...)
		}
	}
	return set
}

// Test whether this mark is in the given set of marks.
func (m *Mark) IsInSet(set []*Mark) bool {
	for _, other := range set {
		if m.Eq(other) {
			return true
		}
	}
	return false
}

// Test whether this mark has the same type and attributes as another mark.
func (m *Mark) Eq(other *Mark) bool {
	if m == other {
		return true
	}
	if other == nil || m.Type != other.Type {
		return false
	}
	return sameAttrs(m.Attrs, other.Attrs)
}

// String returns the name of the mark, for debugging.
func (m *Mark) String() string {
	return m.Type.Name
}

// Test whether two sets of marks are identical.
func SameMarkSet(a, b []*Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Eq(b[i]) {
			return false
		}
	}
	return true
}

// Create a properly sorted mark set from nil, a single mark, or an unsorted
// array of marks.
func MarkSetFrom(marks []*Mark) []*Mark {
	if len(marks) == 0 {
		return NoMarks
	}
	if len(marks) == 1 {
		return marks
	}
	set := make([]*Mark, len(marks))
	copy(set, marks)
	sort.SliceStable(set, func(i, j int) bool {
		return set[i].Type.Rank < set[j].Type.Rank
	})
	return set
}
