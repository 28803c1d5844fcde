package transform

import (
	"fmt"

	"github.com/shodgson/proseeditor/model"
)

// NodeTypeWithAttrs is a node type paired with the attributes to create it
// with, as used by Wrap and Split.
type NodeTypeWithAttrs struct {
	Type  *model.NodeType
	Attrs map[string]interface{}
}

func canCut(node *model.Node, start, end int) bool {
	return (start == 0 || node.CanReplace(start, node.ChildCount(), nil)) &&
		(end == node.ChildCount() || node.CanReplace(0, end, nil))
}

func childrenBetween(node *model.Node, start, end int) *model.Fragment {
	return model.FragmentFromArray(node.Content.Content[start:end])
}

// LiftTarget tries to find a target depth to which the content in the given
// range can be lifted. Will not go across isolating parent nodes. ok is
// false when no target exists.
func LiftTarget(r *model.NodeRange) (depth int, ok bool) {
	parent := r.Parent()
	content := childrenBetween(parent, r.StartIndex(), r.EndIndex())
	for depth := r.Depth; ; depth-- {
		node := r.From.Node(depth)
		index, endIndex := r.From.Index(depth), r.To.IndexAfter(depth)
		if depth < r.Depth && node.CanReplace(index, endIndex, content) {
			return depth, true
		}
		if depth == 0 || node.Type.Spec.Isolating || !canCut(node, index, endIndex) {
			return 0, false
		}
	}
}

// Lift splits the content in the given range off from its parent, if there
// is sibling content before or after it, and moves it up the tree to the
// depth specified by target. You'll probably want to use LiftTarget to
// compute target, to make sure the lift is valid.
func (t *Transform) Lift(r *model.NodeRange, target int) *Transform {
	if t.err != nil {
		return t
	}
	from, to, depth := r.From, r.To, r.Depth
	gapStart, err := from.Before(depth + 1)
	if err != nil {
		return t.Fail(err)
	}
	gapEnd, err := to.After(depth + 1)
	if err != nil {
		return t.Fail(err)
	}
	start, end := gapStart, gapEnd

	before := model.EmptyFragment
	openStart := 0
	splitting := false
	for d := depth; d > target; d-- {
		if splitting || from.Index(d) > 0 {
			splitting = true
			before = model.NewFragment([]*model.Node{from.Node(d).Copy(before)})
			openStart++
		} else {
			start--
		}
	}
	after := model.EmptyFragment
	openEnd := 0
	splitting = false
	for d := depth; d > target; d-- {
		afterPos, err := to.After(d + 1)
		if err != nil {
			return t.Fail(err)
		}
		if splitting || afterPos < to.End(d) {
			splitting = true
			after = model.NewFragment([]*model.Node{to.Node(d).Copy(after)})
			openEnd++
		} else {
			end++
		}
	}
	slice := model.NewSlice(before.Append(after), openStart, openEnd)
	return t.Step(NewReplaceAroundStep(start, end, gapStart, gapEnd, slice, before.Size-openStart, true))
}

// FindWrapping tries to find a valid way to wrap the content in the given
// range in a node of the given type. May introduce extra nodes around and
// inside the wrapper node, if necessary.
func FindWrapping(r *model.NodeRange, nodeType *model.NodeType, attrs map[string]interface{}) ([]NodeTypeWithAttrs, bool) {
	around, ok := findWrappingOutside(r, nodeType)
	if !ok {
		return nil, false
	}
	inner, ok := findWrappingInside(r, nodeType)
	if !ok {
		return nil, false
	}
	result := make([]NodeTypeWithAttrs, 0, len(around)+1+len(inner))
	for _, typ := range around {
		result = append(result, NodeTypeWithAttrs{Type: typ})
	}
	result = append(result, NodeTypeWithAttrs{Type: nodeType, Attrs: attrs})
	for _, typ := range inner {
		result = append(result, NodeTypeWithAttrs{Type: typ})
	}
	return result, true
}

func findWrappingOutside(r *model.NodeRange, typ *model.NodeType) ([]*model.NodeType, bool) {
	parent := r.Parent()
	match, err := parent.ContentMatchAt(r.StartIndex())
	if err != nil {
		return nil, false
	}
	around, ok := match.FindWrapping(typ)
	if !ok {
		return nil, false
	}
	outer := typ
	if len(around) > 0 {
		outer = around[0]
	}
	if !parent.CanReplaceWith(r.StartIndex(), r.EndIndex(), outer) {
		return nil, false
	}
	return around, true
}

func findWrappingInside(r *model.NodeRange, typ *model.NodeType) ([]*model.NodeType, bool) {
	parent := r.Parent()
	inner := parent.MaybeChild(r.StartIndex())
	if inner == nil {
		return nil, false
	}
	inside, ok := typ.ContentMatch.FindWrapping(inner.Type)
	if !ok {
		return nil, false
	}
	lastType := typ
	if len(inside) > 0 {
		lastType = inside[len(inside)-1]
	}
	innerMatch := lastType.ContentMatch
	for i := r.StartIndex(); innerMatch != nil && i < r.EndIndex(); i++ {
		innerMatch = innerMatch.MatchType(parent.MaybeChild(i).Type)
	}
	if innerMatch == nil || !innerMatch.ValidEnd {
		return nil, false
	}
	return inside, true
}

// Wrap the given range in the given set of wrappers. The wrappers are
// assumed to be valid in this position, and should probably be computed
// with FindWrapping.
func (t *Transform) Wrap(r *model.NodeRange, wrappers []NodeTypeWithAttrs) *Transform {
	if t.err != nil {
		return t
	}
	content := model.EmptyFragment
	for i := len(wrappers) - 1; i >= 0; i-- {
		if content.Size > 0 {
			match := wrappers[i].Type.ContentMatch.MatchFragment(content)
			if match == nil || !match.ValidEnd {
				return t.Fail(fmt.Errorf("%w: wrapper type %s not valid in this position", ErrStepFailed, wrappers[i].Type.Name))
			}
		}
		node, err := wrappers[i].Type.Create(wrappers[i].Attrs, content, nil)
		if err != nil {
			return t.Fail(err)
		}
		content = model.NewFragment([]*model.Node{node})
	}
	start, end := r.Start(), r.End()
	return t.Step(NewReplaceAroundStep(start, end, start, end, model.NewSlice(content, 0, 0), len(wrappers), true))
}

func canChangeType(doc *model.Node, pos int, typ *model.NodeType) bool {
	rpos, err := doc.Resolve(pos)
	if err != nil {
		return false
	}
	index := rpos.Index()
	return rpos.Parent().CanReplaceWith(index, index+1, typ)
}

// SetBlockType sets the type of all textblocks (partly) between from and to
// to the given node type with the given attributes.
func (t *Transform) SetBlockType(from, to int, typ *model.NodeType, attrs map[string]interface{}) *Transform {
	if t.err != nil {
		return t
	}
	if !typ.IsTextblock() {
		return t.Fail(fmt.Errorf("%w: type given to SetBlockType should be a textblock", ErrStepFailed))
	}
	mapFrom := len(t.Steps)
	doc := t.Doc
	doc.NodesBetween(from, to, func(node *model.Node, pos int, _ *model.Node, _ int) bool {
		if t.err != nil {
			return false
		}
		if !node.IsTextblock() || node.HasMarkup(typ, attrs) {
			return true
		}
		if !canChangeType(t.Doc, t.Mapping.Slice(mapFrom).Map(pos), typ) {
			return true
		}
		t.ClearIncompatible(t.Mapping.Slice(mapFrom).Map(pos, 1), typ)
		mapping := t.Mapping.Slice(mapFrom)
		startM := mapping.Map(pos, 1)
		endM := mapping.Map(pos+node.NodeSize(), 1)
		created, err := typ.Create(attrs, nil, node.Marks)
		if err != nil {
			t.Fail(err)
			return false
		}
		slice := model.NewSlice(model.NewFragment([]*model.Node{created}), 0, 0)
		t.Step(NewReplaceAroundStep(startM, endM, startM+1, endM-1, slice, 1, true))
		return false
	})
	return t
}

// SetNodeMarkup changes the type, attributes, and/or marks of the node at
// pos. When typ is nil, the existing node type is preserved. When marks is
// nil, the existing marks are kept.
func (t *Transform) SetNodeMarkup(pos int, typ *model.NodeType, attrs map[string]interface{}, marks []*model.Mark) *Transform {
	if t.err != nil {
		return t
	}
	node := t.Doc.NodeAt(pos)
	if node == nil {
		return t.Fail(fmt.Errorf("%w: no node at given position", ErrStepFailed))
	}
	if typ == nil {
		typ = node.Type
	}
	if marks == nil {
		marks = node.Marks
	}
	newNode, err := typ.Create(attrs, nil, marks)
	if err != nil {
		return t.Fail(err)
	}
	if node.IsLeaf() {
		return t.ReplaceWith(pos, pos+node.NodeSize(), newNode)
	}
	if !typ.ValidContent(node.Content) {
		return t.Fail(fmt.Errorf("%w: invalid content for node type %s", ErrStepFailed, typ.Name))
	}
	slice := model.NewSlice(model.NewFragment([]*model.Node{newNode}), 0, 0)
	return t.Step(NewReplaceAroundStep(pos, pos+node.NodeSize(), pos+1, pos+node.NodeSize()-1, slice, 1, true))
}

// SetNodeAttrs merges attrs into the attributes of the node at pos.
func (t *Transform) SetNodeAttrs(pos int, attrs map[string]interface{}) *Transform {
	return t.Step(NewSetAttrsStep(pos, attrs))
}

// Split the node at the given position, and optionally, if depth is greater
// than one, any number of nodes above that. By default, the parts split off
// will inherit the node type of the original node. This can be changed by
// passing typesAfter, where a zero entry keeps the original type.
func (t *Transform) Split(pos, depth int, typesAfter []NodeTypeWithAttrs) *Transform {
	if t.err != nil {
		return t
	}
	rpos, err := t.Doc.Resolve(pos)
	if err != nil {
		return t.Fail(err)
	}
	before, after := model.EmptyFragment, model.EmptyFragment
	for d, e, i := rpos.Depth, rpos.Depth-depth, depth-1; d > e; d, i = d-1, i-1 {
		before = model.NewFragment([]*model.Node{rpos.Node(d).Copy(before)})
		var typeAfter NodeTypeWithAttrs
		if i < len(typesAfter) {
			typeAfter = typesAfter[i]
		}
		if typeAfter.Type != nil {
			node, err := typeAfter.Type.Create(typeAfter.Attrs, after, nil)
			if err != nil {
				return t.Fail(err)
			}
			after = model.NewFragment([]*model.Node{node})
		} else {
			after = model.NewFragment([]*model.Node{rpos.Node(d).Copy(after)})
		}
	}
	return t.Step(NewReplaceStep(pos, pos, model.NewSlice(before.Append(after), depth, depth), true))
}

// Join the blocks around the given position. If depth is 2, their last and
// first siblings are also joined, and so on.
func (t *Transform) Join(pos, depth int) *Transform {
	return t.Step(NewReplaceStep(pos-depth, pos+depth, model.EmptySlice, true))
}

// CanJoin tests whether the blocks before and after a given position can be
// joined.
func CanJoin(doc *model.Node, pos int) bool {
	rpos, err := doc.Resolve(pos)
	if err != nil {
		return false
	}
	index := rpos.Index()
	a, err := rpos.NodeBefore()
	if err != nil || a == nil {
		return false
	}
	b, err := rpos.NodeAfter()
	if err != nil || b == nil {
		return false
	}
	return !a.IsLeaf() && !b.IsLeaf() && !a.IsText() && a.Type.CompatibleContent(b.Type) &&
		rpos.Parent().CanReplace(index, index+1, nil) && joinableContent(a, b)
}

func joinableContent(a, b *model.Node) bool {
	match, err := a.ContentMatchAt(a.ChildCount())
	if err != nil {
		return false
	}
	match = match.MatchFragment(b.Content)
	return match != nil && match.ValidEnd
}

// InsertPoint tries to find a point where a node of the given type can be
// inserted near pos, by searching up the node hierarchy when pos itself
// isn't a valid place but is at the start or end of a node. ok is false when
// no position was found.
func InsertPoint(doc *model.Node, pos int, nodeType *model.NodeType) (point int, ok bool) {
	rpos, err := doc.Resolve(pos)
	if err != nil {
		return 0, false
	}
	if rpos.Parent().CanReplaceWith(rpos.Index(), rpos.Index(), nodeType) {
		return pos, true
	}
	if rpos.ParentOffset == 0 {
		for d := rpos.Depth - 1; d >= 0; d-- {
			index := rpos.Index(d)
			if rpos.Node(d).CanReplaceWith(index, index, nodeType) {
				before, err := rpos.Before(d + 1)
				return before, err == nil
			}
			if index > 0 {
				return 0, false
			}
		}
	}
	if rpos.ParentOffset == rpos.Parent().Content.Size {
		for d := rpos.Depth - 1; d >= 0; d-- {
			index := rpos.IndexAfter(d)
			if rpos.Node(d).CanReplaceWith(index, index, nodeType) {
				after, err := rpos.After(d + 1)
				return after, err == nil
			}
			if index < rpos.Node(d).ChildCount() {
				return 0, false
			}
		}
	}
	return 0, false
}

// CanSplit checks whether splitting at the given position is allowed.
func CanSplit(doc *model.Node, pos, depth int, typesAfter []NodeTypeWithAttrs) bool {
	rpos, err := doc.Resolve(pos)
	if err != nil {
		return false
	}
	typeAt := func(i int) *NodeTypeWithAttrs {
		if i >= 0 && i < len(typesAfter) && typesAfter[i].Type != nil {
			return &typesAfter[i]
		}
		return nil
	}
	base := rpos.Depth - depth
	parent := rpos.Parent()
	innerType := parent.Type
	if inner := typeAt(len(typesAfter) - 1); inner != nil {
		innerType = inner.Type
	}
	if base < 0 || parent.Type.Spec.Isolating ||
		!parent.CanReplace(rpos.Index(), parent.ChildCount(), nil) ||
		!innerType.ValidContent(childrenBetween(parent, rpos.Index(), parent.ChildCount())) {
		return false
	}
	for d, i := rpos.Depth-1, depth-2; d > base; d, i = d-1, i-1 {
		node := rpos.Node(d)
		index := rpos.Index(d)
		if node.Type.Spec.Isolating {
			return false
		}
		rest := childrenBetween(node, index, node.ChildCount())
		if override := typeAt(i + 1); override != nil {
			child, err := override.Type.Create(override.Attrs, nil, nil)
			if err != nil {
				return false
			}
			rest = rest.ReplaceChild(0, child)
		}
		after := node.Type
		if t := typeAt(i); t != nil {
			after = t.Type
		}
		if !node.CanReplace(index+1, node.ChildCount(), nil) || !after.ValidContent(rest) {
			return false
		}
	}
	index := rpos.IndexAfter(base)
	baseType := rpos.Node(base + 1).Type
	if t := typeAt(0); t != nil {
		baseType = t.Type
	}
	return rpos.Node(base).CanReplaceWith(index, index, baseType)
}
