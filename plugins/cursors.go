package plugins

import (
	"github.com/shodgson/proseeditor/keymap"
	"github.com/shodgson/proseeditor/state"
	"github.com/shodgson/proseeditor/transform"
)

// DropCursorKey is the key of the drop cursor plugin. Its state is the
// position dragged content would be dropped at, or -1.
var DropCursorKey = state.NewPluginKey("dropCursor")

// DropCursor tracks the drop target of a drag. Hosts set it with SetDropPos
// and it follows document changes until it is cleared.
func DropCursor() *state.Plugin {
	return state.NewPlugin(state.PluginSpec{
		Name: "dropCursor",
		Key:  DropCursorKey,
		State: &state.StateField{
			Init: func(state.Config, *state.EditorState) interface{} { return -1 },
			Apply: func(tr *state.Transaction, value interface{}, _, _ *state.EditorState) interface{} {
				if pos, ok := tr.GetMeta(DropCursorKey).(int); ok {
					return pos
				}
				pos, _ := value.(int)
				if pos < 0 || !tr.DocChanged() {
					return pos
				}
				mapped := tr.Mapping.MapResult(pos, 1)
				if mapped.Deleted {
					return -1
				}
				return mapped.Pos
			},
		},
	})
}

// SetDropPos sets the drop target. A negative position clears it.
func SetDropPos(tr *state.Transaction, pos int) *state.Transaction {
	if pos < 0 {
		pos = -1
	}
	return tr.SetMeta(DropCursorKey, pos)
}

// DropPos returns the drop target, or -1.
func DropPos(s *state.EditorState) int {
	if pos, ok := DropCursorKey.GetState(s).(int); ok {
		return pos
	}
	return -1
}

// gapArrow moves the cursor past a block that can't hold it, like a rule
// ending the document, by adding an empty textblock there.
func gapArrow(dir int) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		if !s.Selection.Empty() {
			return false
		}
		pos, child, last := 0, s.Doc.FirstChild(), state.AtStart(s.Doc)
		if dir > 0 {
			pos, child, last = s.Doc.Content.Size, s.Doc.LastChild(), state.AtEnd(s.Doc)
		}
		if child == nil || child.IsTextblock() || s.Selection.Head != last.Head {
			return false
		}
		match, err := s.Doc.ContentMatchAt(0)
		if dir > 0 {
			match, err = s.Doc.ContentMatchAt(s.Doc.ChildCount())
		}
		if err != nil || match == nil {
			return false
		}
		typ := match.DefaultType()
		if typ == nil || !typ.IsTextblock() {
			return false
		}
		point, ok := transform.InsertPoint(s.Doc, pos, typ)
		if !ok {
			return false
		}
		tr := s.Tr()
		tr.Insert(point, typ.CreateAndFill(nil, nil, nil))
		if tr.Err() != nil {
			return false
		}
		tr.SetSelection(state.NewSelection(point + 1))
		if dispatch != nil {
			dispatch(tr)
		}
		return true
	}
}

// GapCursor lets the arrow keys leave the document past blocks that can't
// hold the cursor.
func GapCursor() (*state.Plugin, error) {
	return keymap.Plugin("gapCursor", keymap.NewBindings().
		Bind("ArrowDown", gapArrow(1)).
		Bind("ArrowRight", gapArrow(1)).
		Bind("ArrowUp", gapArrow(-1)).
		Bind("ArrowLeft", gapArrow(-1)))
}
