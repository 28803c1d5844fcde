package commands

import (
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/state"
	"github.com/shodgson/proseeditor/transform"
)

// TodoAttr is the list item attribute that turns an item into a todo item.
// Nil means a regular item, a boolean tells whether the todo is done.
const TodoAttr = "todoChecked"

func listItemRange(s *state.EditorState, itemType *model.NodeType) *model.NodeRange {
	return selectionRange(s, func(n *model.Node) bool {
		return n.ChildCount() > 0 && n.FirstChild().Type == itemType
	})
}

func fragmentOf(nodes ...*model.Node) *model.Fragment {
	return model.NewFragment(nodes)
}

// IndentListItem sinks the selected list items into an inner list nested in
// the item before them.
func IndentListItem(itemName string) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		itemType := nodeType(s, itemName)
		if itemType == nil {
			return false
		}
		r := listItemRange(s, itemType)
		if r == nil || r.StartIndex() == 0 {
			return false
		}
		parent := r.Parent()
		nodeBefore := parent.MaybeChild(r.StartIndex() - 1)
		if nodeBefore == nil || nodeBefore.Type != itemType {
			return false
		}
		last := nodeBefore.LastChild()
		nestedBefore := last != nil && last.Type == parent.Type
		inner := model.EmptyFragment
		if nestedBefore {
			item, err := itemType.Create(nil, nil, nil)
			if err != nil {
				return false
			}
			inner = fragmentOf(item)
		}
		list, err := parent.Type.Create(nil, inner, nil)
		if err != nil {
			return false
		}
		item, err := itemType.Create(nil, list, nil)
		if err != nil {
			return false
		}
		open := 1
		if nestedBefore {
			open = 3
		}
		before, after := r.Start(), r.End()
		tr := s.Tr()
		tr.Step(transform.NewReplaceAroundStep(before-open, after, before, after,
			model.NewSlice(fragmentOf(item), open, 0), 1, true))
		return finish(tr, dispatch)
	}
}

// OutdentListItem lifts the selected list items out of their list. Items of
// a nested list move into the outer list, items of a top level list become
// plain blocks.
func OutdentListItem(itemName string) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		itemType := nodeType(s, itemName)
		if itemType == nil {
			return false
		}
		r := listItemRange(s, itemType)
		if r == nil {
			return false
		}
		if r.Depth > 0 && r.From.Node(r.Depth-1).Type == itemType {
			return liftToOuterList(s, dispatch, itemType, r)
		}
		return liftOutOfList(s, dispatch, r)
	}
}

func liftToOuterList(s *state.EditorState, dispatch state.Dispatch, itemType *model.NodeType, r *model.NodeRange) bool {
	tr := s.Tr()
	end := r.End()
	endOfList := r.To.End(r.Depth)
	if end < endOfList {
		// Siblings after the lifted items become children of the last one.
		item, err := itemType.Create(nil, r.Parent().Copy(), nil)
		if err != nil {
			return false
		}
		tr.Step(transform.NewReplaceAroundStep(end-1, endOfList, end, endOfList,
			model.NewSlice(fragmentOf(item), 1, 0), 1, true))
		if tr.Err() != nil {
			return false
		}
		from, err := tr.Doc.Resolve(r.From.Pos)
		if err != nil {
			return false
		}
		to, err := tr.Doc.Resolve(endOfList)
		if err != nil {
			return false
		}
		r = &model.NodeRange{From: from, To: to, Depth: r.Depth}
	}
	target, ok := transform.LiftTarget(r)
	if !ok {
		return false
	}
	tr.Lift(r, target)
	if tr.Err() != nil {
		return false
	}
	after := tr.Mapping.Map(end, -1) - 1
	if transform.CanJoin(tr.Doc, after) {
		if rafter, err := tr.Doc.Resolve(after); err == nil {
			before, _ := rafter.NodeBefore()
			next, _ := rafter.NodeAfter()
			if before.Type == next.Type {
				tr.Join(after, 1)
			}
		}
	}
	return finish(tr, dispatch)
}

func liftOutOfList(s *state.EditorState, dispatch state.Dispatch, r *model.NodeRange) bool {
	tr := s.Tr()
	list := r.Parent()
	// Merge the selected items into a single one.
	pos := r.End()
	for i := r.EndIndex() - 1; i > r.StartIndex(); i-- {
		pos -= list.MaybeChild(i).NodeSize()
		tr.Delete(pos-1, pos+1)
	}
	if tr.Err() != nil {
		return false
	}
	rstart, err := tr.Doc.Resolve(r.Start())
	if err != nil {
		return false
	}
	item, _ := rstart.NodeAfter()
	if item == nil || tr.Mapping.Map(r.End()) != r.Start()+item.NodeSize() {
		return false
	}
	atStart := r.StartIndex() == 0
	atEnd := r.EndIndex() == list.ChildCount()
	parent := rstart.Node(-1)
	indexBefore := rstart.Index(-1)
	replacement := item.Content
	if !atEnd {
		replacement = replacement.Append(fragmentOf(list))
	}
	replaceFrom := indexBefore
	if !atStart {
		replaceFrom++
	}
	if !parent.CanReplace(replaceFrom, indexBefore+1, replacement) {
		return false
	}
	start := rstart.Pos
	end := start + item.NodeSize()
	// Strip off the surrounding list. Sides that aren't at the end of the
	// list close the existing list there.
	content := model.EmptyFragment
	sliceFrom, sliceTo := start, end
	openStart, openEnd := 0, 0
	if atStart {
		sliceFrom--
	} else {
		content = content.Append(fragmentOf(list.Copy(model.EmptyFragment)))
		openStart = 1
	}
	if atEnd {
		sliceTo++
	} else {
		content = content.Append(fragmentOf(list.Copy(model.EmptyFragment)))
		openEnd = 1
	}
	tr.Step(transform.NewReplaceAroundStep(sliceFrom, sliceTo, start+1, end-1,
		model.NewSlice(content, openStart, openEnd), openStart, false))
	return finish(tr, dispatch)
}

// SplitListItem splits the list item holding the selection. At the end of
// the item, the new item starts with a fresh paragraph, and a todo item
// gives an unchecked todo. It doesn't apply in an empty last paragraph, so
// that a chained OutdentListItem can lift the item instead.
func SplitListItem(itemName string) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		itemType := nodeType(s, itemName)
		if itemType == nil {
			return false
		}
		rfrom, err := s.Selection.ResolveFrom(s.Doc)
		if err != nil || rfrom.Depth < 2 {
			return false
		}
		rto, err := s.Selection.ResolveTo(s.Doc)
		if err != nil || !rfrom.SameParent(rto) {
			return false
		}
		grandParent := rfrom.Node(-1)
		if grandParent.Type != itemType {
			return false
		}
		if rfrom.Parent().Content.Size == 0 && grandParent.ChildCount() == rfrom.IndexAfter(-1) {
			return false
		}
		var types []transform.NodeTypeWithAttrs
		if rto.Pos == rfrom.End() {
			if match, err := grandParent.ContentMatchAt(0); err == nil && match.DefaultType() != nil {
				types = []transform.NodeTypeWithAttrs{{}, {Type: match.DefaultType()}}
				if grandParent.Attrs[TodoAttr] != nil {
					itemAttrs := copyAttrs(grandParent.Attrs)
					itemAttrs[TodoAttr] = false
					types[0] = transform.NodeTypeWithAttrs{Type: itemType, Attrs: itemAttrs}
				}
			}
		}
		tr := s.Tr()
		tr.Delete(rfrom.Pos, rto.Pos)
		if !transform.CanSplit(tr.Doc, rfrom.Pos, 2, types) {
			return false
		}
		tr.Split(rfrom.Pos, 2, types)
		return finish(tr, dispatch)
	}
}

func copyAttrs(attrs map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// WrapInList wraps the selected blocks in a list of the named type, one item
// per block. itemAttrs are given to the new items.
func WrapInList(listName string, attrs, itemAttrs map[string]interface{}) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		listType := nodeType(s, listName)
		if listType == nil {
			return false
		}
		r := selectionRange(s, nil)
		if r == nil {
			return false
		}
		wrappers, ok := transform.FindWrapping(r, listType, attrs)
		if !ok {
			return false
		}
		if itemAttrs != nil {
			for i := range wrappers {
				if i > 0 && wrappers[i-1].Type == listType {
					wrappers[i].Attrs = itemAttrs
				}
			}
		}
		tr := s.Tr()
		doWrapInList(tr, r, wrappers, listType)
		return finish(tr, dispatch)
	}
}

func doWrapInList(tr *state.Transaction, r *model.NodeRange, wrappers []transform.NodeTypeWithAttrs, listType *model.NodeType) {
	content := model.EmptyFragment
	for i := len(wrappers) - 1; i >= 0; i-- {
		node, err := wrappers[i].Type.Create(wrappers[i].Attrs, content, nil)
		if err != nil {
			tr.Fail(err)
			return
		}
		content = fragmentOf(node)
	}
	tr.Step(transform.NewReplaceAroundStep(r.Start(), r.End(), r.Start(), r.End(),
		model.NewSlice(content, 0, 0), len(wrappers), true))
	found := 0
	for i, w := range wrappers {
		if w.Type == listType {
			found = i + 1
		}
	}
	splitDepth := len(wrappers) - found
	splitPos := r.Start() + len(wrappers)
	parent := r.Parent()
	for i := r.StartIndex(); i < r.EndIndex(); i++ {
		if i > r.StartIndex() && transform.CanSplit(tr.Doc, splitPos, splitDepth, nil) {
			tr.Split(splitPos, splitDepth, nil)
			splitPos += 2 * splitDepth
		}
		splitPos += parent.MaybeChild(i).NodeSize()
	}
}

func setItemsTodo(tr *state.Transaction, listPos int, todo bool) {
	list := tr.Doc.NodeAt(listPos)
	if list == nil {
		return
	}
	list.ForEach(func(item *model.Node, offset, _ int) {
		if _, ok := item.Type.Attrs[TodoAttr]; !ok {
			return
		}
		checked := item.Attrs[TodoAttr]
		switch {
		case todo && checked == nil:
			tr.SetNodeAttrs(listPos+1+offset, map[string]interface{}{TodoAttr: false})
		case !todo && checked != nil:
			tr.SetNodeAttrs(listPos+1+offset, map[string]interface{}{TodoAttr: nil})
		}
	})
}

func isTodoList(list *model.Node) bool {
	first := list.FirstChild()
	return first != nil && first.Attrs[TodoAttr] != nil
}

// ToggleList toggles the selection between the named list type and plain
// blocks. When the selection is in a list of another kind, that list is
// converted instead. With todo, the list items are todo items.
func ToggleList(listName, itemName string, todo bool) state.Command {
	return func(s *state.EditorState, dispatch state.Dispatch) bool {
		listType := nodeType(s, listName)
		itemType := nodeType(s, itemName)
		if listType == nil || itemType == nil {
			return false
		}
		r := listItemRange(s, itemType)
		if r == nil || r.Depth < 1 || r.Parent().Type.ContentMatch.DefaultType() != itemType {
			var itemAttrs map[string]interface{}
			if todo {
				itemAttrs = map[string]interface{}{TodoAttr: false}
			}
			return WrapInList(listName, nil, itemAttrs)(s, dispatch)
		}
		list := r.Parent()
		if list.Type == listType && isTodoList(list) == todo {
			return OutdentListItem(itemName)(s, dispatch)
		}
		listPos, err := r.From.Before(r.Depth)
		if err != nil {
			return false
		}
		tr := s.Tr()
		if list.Type != listType {
			tr.SetNodeMarkup(listPos, listType, nil, nil)
		}
		setItemsTodo(tr, listPos, todo)
		return finish(tr, dispatch)
	}
}
