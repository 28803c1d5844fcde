package commands

import (
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/state"
	"github.com/shodgson/proseeditor/transform"
)

// Direction is the way MoveNode moves a node.
type Direction int

const (
	Up Direction = iota
	Down
)

// Placement tells InsertEmpty where to put the new node.
type Placement int

const (
	Above Placement = iota
	Below
)

// MoveNode swaps the closest ancestor of the named type with its previous
// or next sibling. The selection moves along with the node.
func MoveNode(name string, dir Direction) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		p, ok := FindParentNodeOfType(s, name)
		if !ok {
			return false
		}
		rpos, err := s.Doc.Resolve(p.Pos)
		if err != nil {
			return false
		}
		parent, index := rpos.Parent(), rpos.Index()
		var sibling *model.Node
		if dir == Up {
			sibling = parent.MaybeChild(index - 1)
		} else {
			sibling = parent.MaybeChild(index + 1)
		}
		if sibling == nil {
			return false
		}
		size := p.Node.NodeSize()
		tr := s.Tr()
		shift := 0
		if dir == Up {
			shift = -sibling.NodeSize()
			tr.ReplaceWith(p.Pos+shift, p.Pos+size, []*model.Node{p.Node, sibling})
		} else {
			shift = sibling.NodeSize()
			tr.ReplaceWith(p.Pos, p.Pos+size+shift, []*model.Node{sibling, p.Node})
		}
		if tr.Err() != nil {
			return false
		}
		sel := s.Selection
		if sel.From() >= p.Pos && sel.To() <= p.Pos+size {
			tr.SetSelection(state.NewSelection(sel.Anchor+shift, sel.Head+shift))
		} else {
			tr.SetSelection(state.Near(tr.Doc, p.Pos+shift+1, 1))
		}
		return finish(tr, dispatch)
	}
}

// InsertEmpty inserts an empty node of the named type above or below the
// block holding the selection. With nestable, it goes next to the parent of
// that block instead, for nodes like list items that wrap their textblock.
// The cursor is put in the new node.
func InsertEmpty(name string, placement Placement, nestable bool, attrs map[string]interface{}) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		typ := nodeType(s, name)
		if typ == nil {
			return false
		}
		rfrom, err := s.Selection.ResolveFrom(s.Doc)
		if err != nil {
			return false
		}
		depth := rfrom.Depth
		if nestable {
			depth--
		}
		if depth < 1 {
			return false
		}
		var pos int
		if placement == Above {
			pos, err = rfrom.Before(depth)
		} else {
			pos, err = rfrom.After(depth)
		}
		if err != nil {
			return false
		}
		node := typ.CreateAndFill(attrs, nil, nil)
		if node == nil {
			return false
		}
		point, ok := transform.InsertPoint(s.Doc, pos, typ)
		if !ok {
			return false
		}
		tr := s.Tr()
		tr.Insert(point, node)
		if tr.Err() != nil {
			return false
		}
		tr.SetSelection(state.Near(tr.Doc, point+1, 1))
		return finish(tr, dispatch)
	}
}

// JumpToStartOfNode puts the cursor at the start of the closest ancestor of
// the named type.
func JumpToStartOfNode(name string) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		p, ok := FindParentNodeOfType(s, name)
		if !ok {
			return false
		}
		tr := s.Tr()
		tr.SetSelection(state.Near(s.Doc, p.Start, 1))
		return finish(tr, dispatch)
	}
}

// JumpToEndOfNode puts the cursor at the end of the closest ancestor of the
// named type.
func JumpToEndOfNode(name string) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		p, ok := FindParentNodeOfType(s, name)
		if !ok {
			return false
		}
		tr := s.Tr()
		tr.SetSelection(state.Near(s.Doc, p.Start+p.Node.Content.Size, -1))
		return finish(tr, dispatch)
	}
}

// UpdateNodeAttrs replaces the attributes of the grandparent of the cursor,
// when it has the named type, with the result of fn.
func UpdateNodeAttrs(name string, fn func(attrs map[string]interface{}) map[string]interface{}) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		rfrom, err := s.Selection.ResolveFrom(s.Doc)
		if err != nil || rfrom.Depth < 2 {
			return false
		}
		current := rfrom.Node(-1)
		if current.Type.Name != name {
			return false
		}
		pos, err := rfrom.Before(-1)
		if err != nil {
			return false
		}
		tr := s.Tr()
		tr.SetNodeAttrs(pos, fn(copyAttrs(current.Attrs)))
		return finish(tr, dispatch)
	}
}

// ToggleTodo turns a regular list item into an unchecked todo, and flips the
// checked state of a todo item.
func ToggleTodo(itemName string) state.Command {
	return UpdateNodeAttrs(itemName, func(attrs map[string]interface{}) map[string]interface{} {
		checked, isTodo := attrs[TodoAttr].(bool)
		if !isTodo {
			attrs[TodoAttr] = false
		} else {
			attrs[TodoAttr] = !checked
		}
		return attrs
	})
}
