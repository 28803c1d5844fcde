package commands

import (
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/state"
	"github.com/shodgson/proseeditor/transform"
)

// SetBlockType turns the textblocks in the selection into the named type.
// Marks the new type does not allow are dropped.
func SetBlockType(name string, attrs map[string]interface{}) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		typ := nodeType(s, name)
		if typ == nil || !typ.IsTextblock() {
			return false
		}
		from, to := s.Selection.From(), s.Selection.To()
		applicable := false
		s.Doc.NodesBetween(from, to, func(node *model.Node, pos int, _ *model.Node, _ int) bool {
			if applicable {
				return false
			}
			if !node.IsTextblock() || node.HasMarkup(typ, attrs) {
				return true
			}
			if node.Type == typ {
				applicable = true
				return false
			}
			rpos, err := s.Doc.Resolve(pos)
			if err != nil {
				return false
			}
			index := rpos.Index()
			applicable = rpos.Parent().CanReplaceWith(index, index+1, typ)
			return false
		})
		if !applicable {
			return false
		}
		tr := s.Tr()
		tr.SetBlockType(from, to, typ, attrs)
		return finish(tr, dispatch)
	}
}

// ToggleBlockType sets the named block type, or converts back to a
// paragraph when the selection is already in such a block.
func ToggleBlockType(name string, attrs map[string]interface{}) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		if IsNodeActive(name, attrs)(s) {
			return SetBlockType("paragraph", nil)(s, dispatch)
		}
		return SetBlockType(name, attrs)(s, dispatch)
	}
}

func selectionRange(s *state.EditorState, pred func(*model.Node) bool) *model.NodeRange {
	rfrom, err := s.Selection.ResolveFrom(s.Doc)
	if err != nil {
		return nil
	}
	rto, err := s.Selection.ResolveTo(s.Doc)
	if err != nil {
		return nil
	}
	return rfrom.BlockRange(rto, pred)
}

// WrapIn wraps the selection in a node of the named type, adding the inner
// and outer nodes its content expression requires.
func WrapIn(name string, attrs map[string]interface{}) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		typ := nodeType(s, name)
		if typ == nil {
			return false
		}
		r := selectionRange(s, nil)
		if r == nil {
			return false
		}
		wrapping, ok := transform.FindWrapping(r, typ, attrs)
		if !ok {
			return false
		}
		tr := s.Tr()
		tr.Wrap(r, wrapping)
		return finish(tr, dispatch)
	}
}

// Lift moves the selected blocks out of their parent.
func Lift(s *state.EditorState, dispatch state.Dispatch) bool {
	r := selectionRange(s, nil)
	if r == nil {
		return false
	}
	target, ok := transform.LiftTarget(r)
	if !ok {
		return false
	}
	tr := s.Tr()
	tr.Lift(r, target)
	return finish(tr, dispatch)
}

// ToggleWrap wraps the selection in the named node, or lifts it out when it
// is already inside one.
func ToggleWrap(name string, attrs map[string]interface{}) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		if IsNodeActive(name, nil)(s) {
			return Lift(s, dispatch)
		}
		return WrapIn(name, attrs)(s, dispatch)
	}
}

// LiftEmptyBlock lifts an empty textblock out of its parent, splitting the
// parent when the block is in the middle of it.
func LiftEmptyBlock(s *state.EditorState, dispatch state.Dispatch) bool {
	if !s.Selection.Empty() {
		return false
	}
	rpos, err := s.Doc.Resolve(s.Selection.Head)
	if err != nil || rpos.Parent().Content.Size > 0 || rpos.Depth < 2 {
		return false
	}
	after, _ := rpos.After()
	if after != rpos.End(-1) {
		before, _ := rpos.Before()
		if transform.CanSplit(s.Doc, before, 1, nil) {
			tr := s.Tr()
			tr.Split(before, 1, nil)
			return finish(tr, dispatch)
		}
	}
	return Lift(s, dispatch)
}

// NewlineInCode inserts a newline when the cursor is in a code block.
func NewlineInCode(s *state.EditorState, dispatch state.Dispatch) bool {
	rfrom, err := s.Selection.ResolveFrom(s.Doc)
	if err != nil || !rfrom.Parent().Type.Spec.Code {
		return false
	}
	rto, err := s.Selection.ResolveTo(s.Doc)
	if err != nil || !rfrom.SameParent(rto) {
		return false
	}
	tr := s.Tr()
	tr.InsertText("\n")
	return finish(tr, dispatch)
}

// ExitCode leaves a code block, putting the cursor in a new default
// textblock after it.
func ExitCode(s *state.EditorState, dispatch state.Dispatch) bool {
	rhead, err := s.Doc.Resolve(s.Selection.Head)
	if err != nil || !rhead.Parent().Type.Spec.Code || rhead.Depth < 1 {
		return false
	}
	ranchor, err := s.Doc.Resolve(s.Selection.Anchor)
	if err != nil || !rhead.SameParent(ranchor) {
		return false
	}
	above := rhead.Node(-1)
	after := rhead.IndexAfter(-1)
	match, err := above.ContentMatchAt(after)
	if err != nil {
		return false
	}
	typ := defaultBlockAt(match)
	if typ == nil || !above.CanReplaceWith(after, after, typ) {
		return false
	}
	if dispatch != nil {
		pos, _ := rhead.After()
		node := typ.CreateAndFill(nil, nil, nil)
		if node == nil {
			return false
		}
		tr := s.Tr()
		tr.Insert(pos, node)
		if tr.Err() != nil {
			return false
		}
		tr.SetSelection(state.Near(tr.Doc, pos+1, 1))
		dispatch(tr)
	}
	return true
}

func defaultBlockAt(match *model.ContentMatch) *model.NodeType {
	for i := 0; i < match.EdgeCount(); i++ {
		edge, _ := match.Edge(i)
		if edge.Type.IsTextblock() && !edge.Type.HasRequiredAttrs() {
			return edge.Type
		}
	}
	return nil
}

// SplitBlock splits the parent block of the selection. At the end of a block
// the new block gets the default textblock type of its position.
func SplitBlock(s *state.EditorState, dispatch state.Dispatch) bool {
	rfrom, err := s.Selection.ResolveFrom(s.Doc)
	if err != nil || !rfrom.Parent().IsBlock() {
		return false
	}
	rto, err := s.Selection.ResolveTo(s.Doc)
	if err != nil {
		return false
	}
	atEnd := rto.ParentOffset == rto.Parent().Content.Size
	tr := s.Tr()
	tr.DeleteSelection()
	var deflt *model.NodeType
	if rfrom.Depth > 0 {
		if match, err := rfrom.Node(-1).ContentMatchAt(rfrom.IndexAfter(-1)); err == nil {
			deflt = defaultBlockAt(match)
		}
	}
	var types []transform.NodeTypeWithAttrs
	if atEnd && deflt != nil {
		types = []transform.NodeTypeWithAttrs{{Type: deflt}}
	}
	pos := tr.Mapping.Map(rfrom.Pos)
	can := transform.CanSplit(tr.Doc, pos, 1, types)
	if types == nil && !can && deflt != nil {
		alt := []transform.NodeTypeWithAttrs{{Type: deflt}}
		if transform.CanSplit(tr.Doc, pos, 1, alt) {
			types, can = alt, true
		}
	}
	if !can {
		return false
	}
	tr.Split(pos, 1, types)
	if !atEnd && rfrom.ParentOffset == 0 && deflt != nil && rfrom.Parent().Type != deflt {
		if before, err := rfrom.Before(); err == nil {
			first := tr.Mapping.Map(before, 1)
			if canChange(tr.Doc, first, deflt) {
				tr.SetNodeMarkup(first, deflt, nil, nil)
			}
		}
	}
	return finish(tr, dispatch)
}

func canChange(doc *model.Node, pos int, typ *model.NodeType) bool {
	rpos, err := doc.Resolve(pos)
	if err != nil {
		return false
	}
	index := rpos.Index()
	return rpos.Parent().CanReplaceWith(index, index+1, typ)
}

// cutBefore finds the position before the closest ancestor block of rpos that
// has a sibling before it.
func cutBefore(rpos *model.ResolvedPos) (int, bool) {
	if rpos.Parent().Type.Spec.Isolating {
		return 0, false
	}
	for d := rpos.Depth - 1; d >= 0; d-- {
		if rpos.Index(d) > 0 {
			pos, err := rpos.Before(d + 1)
			return pos, err == nil
		}
		if rpos.Node(d).Type.Spec.Isolating {
			break
		}
	}
	return 0, false
}

// cutAfter finds the position after the closest ancestor block of rpos that
// has a sibling after it.
func cutAfter(rpos *model.ResolvedPos) (int, bool) {
	if rpos.Parent().Type.Spec.Isolating {
		return 0, false
	}
	for d := rpos.Depth - 1; d >= 0; d-- {
		parent := rpos.Node(d)
		if rpos.Index(d)+1 < parent.ChildCount() {
			pos, err := rpos.After(d + 1)
			return pos, err == nil
		}
		if parent.Type.Spec.Isolating {
			break
		}
	}
	return 0, false
}

func joinAt(s *state.EditorState, cut int, dispatch state.Dispatch) bool {
	rcut, err := s.Doc.Resolve(cut)
	if err != nil {
		return false
	}
	before, _ := rcut.NodeBefore()
	after, _ := rcut.NodeAfter()
	if before == nil || after == nil {
		return false
	}
	tr := s.Tr()
	switch {
	case before.IsAtom() && !before.IsInline():
		tr.Delete(cut-before.NodeSize(), cut)
	case after.IsAtom() && !after.IsInline():
		tr.Delete(cut, cut+after.NodeSize())
	case before.Content.Size == 0 && before.IsTextblock():
		tr.Delete(cut-before.NodeSize(), cut)
	case transform.CanJoin(s.Doc, cut):
		tr.ClearIncompatible(cut, before.Type)
		tr.Join(tr.Mapping.Map(cut), 1)
	default:
		return false
	}
	return finish(tr, dispatch)
}

// JoinBackward joins the textblock holding the cursor with the block before
// it, when the cursor is at the start of the textblock. A block without a
// preceding sibling is lifted out of its parent instead.
func JoinBackward(s *state.EditorState, dispatch state.Dispatch) bool {
	if !s.Selection.Empty() {
		return false
	}
	rpos, err := s.Doc.Resolve(s.Selection.Head)
	if err != nil || rpos.ParentOffset > 0 || !rpos.Parent().IsTextblock() {
		return false
	}
	cut, ok := cutBefore(rpos)
	if !ok {
		return Lift(s, dispatch)
	}
	return joinAt(s, cut, dispatch)
}

// JoinForward joins the textblock holding the cursor with the block after
// it, when the cursor is at the end of the textblock.
func JoinForward(s *state.EditorState, dispatch state.Dispatch) bool {
	if !s.Selection.Empty() {
		return false
	}
	rpos, err := s.Doc.Resolve(s.Selection.Head)
	if err != nil || rpos.ParentOffset < rpos.Parent().Content.Size || !rpos.Parent().IsTextblock() {
		return false
	}
	cut, ok := cutAfter(rpos)
	if !ok {
		return false
	}
	return joinAt(s, cut, dispatch)
}

// DeleteSelection deletes a non-empty selection.
func DeleteSelection(s *state.EditorState, dispatch state.Dispatch) bool {
	if s.Selection.Empty() {
		return false
	}
	tr := s.Tr()
	tr.DeleteSelection()
	return finish(tr, dispatch)
}

// SelectAll selects the whole document.
func SelectAll(s *state.EditorState, dispatch state.Dispatch) bool {
	tr := s.Tr()
	tr.SetSelection(state.All(s.Doc))
	return finish(tr, dispatch)
}

// InsertHardBreak replaces the selection with a node of the named inline
// type.
func InsertHardBreak(name string) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		typ := nodeType(s, name)
		if typ == nil {
			return false
		}
		rfrom, err := s.Selection.ResolveFrom(s.Doc)
		if err != nil || !rfrom.Parent().Type.AllowsMarks(nil) {
			return false
		}
		index := rfrom.Index()
		if !rfrom.Parent().CanReplaceWith(index, index, typ) {
			return false
		}
		node, err := typ.Create(nil, nil, nil)
		if err != nil {
			return false
		}
		tr := s.Tr()
		tr.ReplaceSelectionWith(node, false)
		return finish(tr, dispatch)
	}
}

// InsertNode replaces the selection with a new node of the named type. Block
// nodes are placed next to the textblock holding the selection, splitting
// it when needed.
func InsertNode(name string, attrs map[string]interface{}) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		typ := nodeType(s, name)
		if typ == nil {
			return false
		}
		node := typ.CreateAndFill(attrs, nil, nil)
		if node == nil {
			return false
		}
		tr := s.Tr()
		tr.ReplaceSelectionWith(node, true)
		if len(tr.Steps) == 0 {
			return false
		}
		return finish(tr, dispatch)
	}
}
