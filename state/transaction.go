package state

import (
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/transform"
)

// Transaction is a transform that also tracks the selection, the stored
// marks and metadata. Transactions are created with EditorState.Tr.
type Transaction struct {
	*transform.Transform

	curSelection    Selection
	curSelectionFor int
	selectionSet    bool
	storedMarks     []*model.Mark
	storedMarksFor  int
	storedMarksSet  bool
	meta            map[interface{}]interface{}
}

func newTransaction(s *EditorState) *Transaction {
	return &Transaction{
		Transform:    transform.NewTransform(s.Doc),
		curSelection: s.Selection,
		storedMarks:  s.StoredMarks,
		meta:         map[interface{}]interface{}{},
	}
}

// Selection returns the transaction's current selection, mapped through the
// steps added since it was set.
func (tr *Transaction) Selection() Selection {
	if tr.curSelectionFor < len(tr.Steps) {
		tr.curSelection = tr.curSelection.Map(tr.Doc, tr.Mapping.Slice(tr.curSelectionFor))
		tr.curSelectionFor = len(tr.Steps)
	}
	return tr.curSelection
}

// SetSelection updates the transaction's current selection. This clears the
// stored marks.
func (tr *Transaction) SetSelection(sel Selection) *Transaction {
	tr.curSelection = sel
	tr.curSelectionFor = len(tr.Steps)
	tr.selectionSet = true
	tr.storedMarks = nil
	tr.storedMarksSet = false
	return tr
}

// SelectionSet tells whether the selection was explicitly updated by this
// transaction.
func (tr *Transaction) SelectionSet() bool {
	return tr.selectionSet
}

// StoredMarks returns the marks to apply to the next typed text. Any step
// added after the marks were set clears them.
func (tr *Transaction) StoredMarks() []*model.Mark {
	if tr.storedMarksFor < len(tr.Steps) {
		return nil
	}
	return tr.storedMarks
}

// SetStoredMarks sets the stored marks.
func (tr *Transaction) SetStoredMarks(marks []*model.Mark) *Transaction {
	tr.storedMarks = marks
	tr.storedMarksFor = len(tr.Steps)
	tr.storedMarksSet = true
	return tr
}

// StoredMarksSet tells whether the stored marks were explicitly set by this
// transaction.
func (tr *Transaction) StoredMarksSet() bool {
	return tr.storedMarksSet && tr.storedMarksFor == len(tr.Steps)
}

// EnsureMarks makes sure the stored marks or, if nil, the marks at the
// selection, match the given set of marks. Does nothing if this is already
// the case.
func (tr *Transaction) EnsureMarks(marks []*model.Mark) *Transaction {
	current := tr.StoredMarks()
	if current == nil {
		current = tr.marksAtSelection()
	}
	if !model.SameMarkSet(current, marks) {
		tr.SetStoredMarks(marks)
	}
	return tr
}

// AddStoredMark adds a mark to the set of stored marks.
func (tr *Transaction) AddStoredMark(mark *model.Mark) *Transaction {
	current := tr.StoredMarks()
	if current == nil {
		current = tr.marksAtSelection()
	}
	return tr.EnsureMarks(mark.AddToSet(current))
}

// RemoveStoredMark removes marks of the given type from the set of stored
// marks.
func (tr *Transaction) RemoveStoredMark(typ *model.MarkType) *Transaction {
	current := tr.StoredMarks()
	if current == nil {
		current = tr.marksAtSelection()
	}
	return tr.EnsureMarks(typ.RemoveFromSet(current))
}

func (tr *Transaction) marksAtSelection() []*model.Mark {
	rpos, err := tr.Doc.Resolve(tr.Selection().Head)
	if err != nil {
		return model.NoMarks
	}
	return rpos.Marks()
}

// SetMeta stores a metadata property in this transaction.
func (tr *Transaction) SetMeta(key, value interface{}) *Transaction {
	tr.meta[key] = value
	return tr
}

// GetMeta retrieves a metadata property for the given key.
func (tr *Transaction) GetMeta(key interface{}) interface{} {
	return tr.meta[key]
}

// DeleteSelection deletes the selection.
func (tr *Transaction) DeleteSelection() *Transaction {
	sel := tr.Selection()
	if sel.Empty() {
		return tr
	}
	tr.Delete(sel.From(), sel.To())
	if tr.Err() == nil {
		tr.SetSelection(Near(tr.Doc, tr.Mapping.Map(sel.From(), -1), -1))
	}
	return tr
}

// ReplaceSelectionWith replaces the selection with the given node. When
// inheritMarks is true and the node is inline, it inherits the marks from
// the place where it is inserted.
func (tr *Transaction) ReplaceSelectionWith(node *model.Node, inheritMarks bool) *Transaction {
	sel := tr.Selection()
	if inheritMarks && node.IsInline() {
		marks := tr.StoredMarks()
		if marks == nil {
			marks = tr.marksAtSelection()
		}
		node = node.Mark(marks)
	}
	mapFrom := len(tr.Steps)
	tr.replaceRangeWith(sel.From(), sel.To(), node)
	if tr.Err() != nil || len(tr.Steps) == mapFrom {
		return tr
	}
	bias := 1
	if node.IsInline() {
		bias = -1
	}
	tr.selectionToInsertionEnd(mapFrom, bias)
	return tr
}

// InsertText inserts text at the selection, replacing it, and moves the
// cursor after the text. Stored marks or the marks at the selection are
// applied to the text.
func (tr *Transaction) InsertText(text string) *Transaction {
	if text == "" {
		return tr.DeleteSelection()
	}
	return tr.ReplaceSelectionWith(tr.Doc.Type.Schema.Text(text), true)
}

// InsertTextAt inserts text in the range between from and to, with the
// stored marks or the marks found at from.
func (tr *Transaction) InsertTextAt(text string, from, to int) *Transaction {
	if text == "" {
		tr.Delete(from, to)
		return tr
	}
	marks := tr.StoredMarks()
	if marks == nil {
		rpos, err := tr.Doc.Resolve(from)
		if err != nil {
			tr.Fail(err)
			return tr
		}
		marks = rpos.Marks()
	}
	tr.ReplaceWith(from, to, tr.Doc.Type.Schema.Text(text, marks))
	return tr
}

func (tr *Transaction) replaceRangeWith(from, to int, node *model.Node) {
	if !node.IsInline() && from == to {
		if point, ok := transform.InsertPoint(tr.Doc, from, node.Type); ok {
			from, to = point, point
		} else if rpos, err := tr.Doc.Resolve(from); err == nil && rpos.Parent().IsTextblock() {
			tr.Split(from, 1, nil)
			from, to = from+1, from+1
		}
	}
	tr.ReplaceWith(from, to, node)
}

func (tr *Transaction) selectionToInsertionEnd(startLen, bias int) {
	last := len(tr.Steps) - 1
	if last < startLen {
		return
	}
	end := -1
	tr.Steps[last].GetMap().ForEach(func(_, _, _, newTo int) {
		if end == -1 {
			end = newTo
		}
	})
	if end == -1 {
		return
	}
	tr.SetSelection(Near(tr.Doc, end, bias))
}
