package commands

import (
	"strings"
	"unicode"

	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/state"
)

func markApplies(doc *model.Node, from, to int, typ *model.MarkType) bool {
	rfrom, err := doc.Resolve(from)
	if err != nil {
		return false
	}
	can := rfrom.Depth == 0 && doc.InlineContent() && doc.Type.AllowsMarkType(typ)
	doc.NodesBetween(from, to, func(node *model.Node, _ int, _ *model.Node, _ int) bool {
		if can {
			return false
		}
		can = node.InlineContent() && node.Type.AllowsMarkType(typ)
		return true
	})
	return can
}

// ToggleMark adds the named mark to the selection when it isn't there and
// removes it otherwise. With a cursor, it toggles the stored marks. Leading
// and trailing whitespace of the selection is left unmarked.
func ToggleMark(name string, attrs map[string]interface{}) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		typ := markType(s, name)
		if typ == nil {
			return false
		}
		sel := s.Selection
		if !markApplies(s.Doc, sel.From(), sel.To(), typ) {
			return false
		}
		tr := s.Tr()
		if sel.Empty() {
			if typ.IsInSet(activeMarks(s)) != nil {
				tr.RemoveStoredMark(typ)
			} else {
				tr.AddStoredMark(typ.Create(attrs))
			}
			return finish(tr, dispatch)
		}
		from, to := sel.From(), sel.To()
		if s.Doc.RangeHasMark(from, to, typ) {
			tr.RemoveMarkType(from, to, typ)
			return finish(tr, dispatch)
		}
		spaceStart, spaceEnd := edgeSpaces(s.Doc, from, to)
		if from+spaceStart < to {
			from += spaceStart
			to -= spaceEnd
		}
		tr.AddMark(from, to, typ.Create(attrs))
		return finish(tr, dispatch)
	}
}

func edgeSpaces(doc *model.Node, from, to int) (int, int) {
	var spaceStart, spaceEnd int
	if rfrom, err := doc.Resolve(from); err == nil {
		if start, _ := rfrom.NodeAfter(); start != nil && start.IsText() {
			text := *start.Text
			spaceStart = len(text) - len(strings.TrimLeftFunc(text, unicode.IsSpace))
		}
	}
	if rto, err := doc.Resolve(to); err == nil {
		if end, _ := rto.NodeBefore(); end != nil && end.IsText() {
			text := *end.Text
			spaceEnd = len(text) - len(strings.TrimRightFunc(text, unicode.IsSpace))
		}
	}
	return spaceStart, spaceEnd
}

func activeMarks(s *state.EditorState) []*model.Mark {
	if s.StoredMarks != nil {
		return s.StoredMarks
	}
	rpos, err := s.Doc.Resolve(s.Selection.Head)
	if err != nil {
		return model.NoMarks
	}
	return rpos.Marks()
}

// IsMarkActive is true when the named mark is stored or present at the
// cursor, or when it occurs anywhere in the selected range.
func IsMarkActive(name string) Predicate {
	return func(s *state.EditorState) bool {
		typ := markType(s, name)
		if typ == nil {
			return false
		}
		if s.Selection.Empty() {
			return typ.IsInSet(activeMarks(s)) != nil
		}
		return s.Doc.RangeHasMark(s.Selection.From(), s.Selection.To(), typ)
	}
}

// RemoveMark removes the named mark from the selection, or from the stored
// marks when the selection is empty.
func RemoveMark(name string) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		typ := markType(s, name)
		if typ == nil || !IsMarkActive(name)(s) {
			return false
		}
		tr := s.Tr()
		if s.Selection.Empty() {
			tr.RemoveStoredMark(typ)
		} else {
			tr.RemoveMarkType(s.Selection.From(), s.Selection.To(), typ)
		}
		return finish(tr, dispatch)
	}
}
