package model

// DiffEnd is the result of FindDiffEnd with the positions in both fragments.
type DiffEnd struct {
	A int
	B int
}

// DiffRange is the part of two fragments that differs: From to ToA in the
// first fragment, From to ToB in the second.
type DiffRange struct {
	From int
	ToA  int
	ToB  int
}

// Diff compares two fragments. It reports false when they are the same.
// The end positions never come before From, even when the differing content
// repeats what precedes it.
func (f *Fragment) Diff(other *Fragment) (DiffRange, bool) {
	start := f.FindDiffStart(other)
	if start == nil {
		return DiffRange{}, false
	}
	r := DiffRange{From: *start, ToA: f.Size, ToB: other.Size}
	if end := f.FindDiffEnd(other); end != nil {
		r.ToA, r.ToB = end.A, end.B
	}
	if overlap := r.From - min(r.ToA, r.ToB); overlap > 0 {
		r.ToA += overlap
		r.ToB += overlap
	}
	return r, true
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func commonSuffix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-n-1] == b[len(b)-n-1] {
		n++
	}
	return n
}

func findDiffStart(a, b *Fragment, pos int) *int {
	for i := 0; ; i++ {
		if i == a.ChildCount() || i == b.ChildCount() {
			if a.ChildCount() == b.ChildCount() {
				return nil
			}
			return &pos
		}

		childA, childB := a.Content[i], b.Content[i]
		if childA == childB {
			pos += childA.NodeSize()
			continue
		}
		if !childA.SameMarkup(childB) {
			return &pos
		}
		if childA.IsText() && *childA.Text != *childB.Text {
			pos += commonPrefix(*childA.Text, *childB.Text)
			return &pos
		}
		if childA.Content.Size > 0 || childB.Content.Size > 0 {
			if inner := findDiffStart(childA.Content, childB.Content, pos+1); inner != nil {
				return inner
			}
		}
		pos += childA.NodeSize()
	}
}

func findDiffEnd(a, b *Fragment, posA, posB int) *DiffEnd {
	for ia, ib := a.ChildCount(), b.ChildCount(); ; {
		if ia == 0 || ib == 0 {
			if ia == ib {
				return nil
			}
			return &DiffEnd{A: posA, B: posB}
		}

		ia--
		ib--
		childA, childB := a.Content[ia], b.Content[ib]
		size := childA.NodeSize()
		if childA == childB {
			posA -= size
			posB -= size
			continue
		}
		if !childA.SameMarkup(childB) {
			return &DiffEnd{A: posA, B: posB}
		}
		if childA.IsText() && *childA.Text != *childB.Text {
			same := commonSuffix(*childA.Text, *childB.Text)
			return &DiffEnd{A: posA - same, B: posB - same}
		}
		if childA.Content.Size > 0 || childB.Content.Size > 0 {
			if inner := findDiffEnd(childA.Content, childB.Content, posA-1, posB-1); inner != nil {
				return inner
			}
		}
		posA -= size
		posB -= size
	}
}
