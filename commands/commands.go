// Package commands implements the generic editing commands shared by the
// node and mark descriptors, and the base keymap.
//
// Commands follow the state.Command contract: they return false when they
// don't apply, and only build and dispatch a transaction when dispatch is
// not nil. Node and mark types are looked up by name in the state's schema,
// so a command bound to a type the schema lacks simply doesn't apply.
package commands

import (
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/state"
)

// Predicate is a query over the editor state.
type Predicate func(s *state.EditorState) bool

// Chain combines commands into one that runs them in turn until one of them
// returns true.
func Chain(cmds ...state.Command) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		for _, cmd := range cmds {
			if cmd != nil && cmd(s, dispatch) {
				return true
			}
		}
		return false
	}
}

// Conditional runs cmd only when every predicate holds.
func Conditional(cmd state.Command, preds ...Predicate) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		if cmd == nil {
			return false
		}
		for _, pred := range preds {
			if !pred(s) {
				return false
			}
		}
		return cmd(s, dispatch)
	}
}

// Never is a command that never applies.
func Never(*state.EditorState, state.Dispatch) bool {
	return false
}

// finish dispatches tr when it succeeded. It reports whether the command
// applies.
func finish(tr *state.Transaction, dispatch state.Dispatch) bool {
	if tr.Err() != nil {
		return false
	}
	if dispatch != nil {
		dispatch(tr)
	}
	return true
}

func nodeType(s *state.EditorState, name string) *model.NodeType {
	return s.Schema().Nodes[name]
}

func markType(s *state.EditorState, name string) *model.MarkType {
	return s.Schema().Marks[name]
}

// ParentNode is an ancestor of a position.
type ParentNode struct {
	// Pos points directly before the node.
	Pos int
	// Start points at the start of the node's content.
	Start int
	// Depth is the depth of the node.
	Depth int
	Node  *model.Node
}

// FindParentNode returns the closest ancestor of the selection start that
// satisfies pred. The document itself is never returned.
func FindParentNode(s *state.EditorState, pred func(*model.Node) bool) (ParentNode, bool) {
	rpos, err := s.Selection.ResolveFrom(s.Doc)
	if err != nil {
		return ParentNode{}, false
	}
	return findParentAt(rpos, pred)
}

func findParentAt(rpos *model.ResolvedPos, pred func(*model.Node) bool) (ParentNode, bool) {
	for d := rpos.Depth; d > 0; d-- {
		node := rpos.Node(d)
		if pred(node) {
			pos, _ := rpos.Before(d)
			return ParentNode{Pos: pos, Start: rpos.Start(d), Depth: d, Node: node}, true
		}
	}
	return ParentNode{}, false
}

// FindParentNodeOfType returns the closest ancestor of the selection start
// that has one of the named types.
func FindParentNodeOfType(s *state.EditorState, names ...string) (ParentNode, bool) {
	return FindParentNode(s, func(n *model.Node) bool {
		for _, name := range names {
			if n.Type.Name == name {
				return true
			}
		}
		return false
	})
}

// IsNodeActive is true when the selection is inside a node of the named type.
// When attrs is given, the node's attributes must contain those values.
func IsNodeActive(name string, attrs map[string]interface{}) Predicate {
	return func(s *state.EditorState) bool {
		_, ok := FindParentNode(s, func(n *model.Node) bool {
			if n.Type.Name != name {
				return false
			}
			for k, v := range attrs {
				if n.Attrs[k] != v {
					return false
				}
			}
			return true
		})
		return ok
	}
}

// ParentHasDirectParentOfType is true when the selection is in a node of the
// named type whose own parent has one of the parent types.
func ParentHasDirectParentOfType(name string, parents ...string) Predicate {
	return func(s *state.EditorState) bool {
		rpos, err := s.Selection.ResolveFrom(s.Doc)
		if err != nil {
			return false
		}
		for d := rpos.Depth; d > 0; d-- {
			if rpos.Node(d).Type.Name != name {
				continue
			}
			parent := rpos.Node(d - 1).Type.Name
			for _, p := range parents {
				if parent == p {
					return true
				}
			}
			return false
		}
		return false
	}
}
