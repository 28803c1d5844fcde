package nodes

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/shodgson/proseeditor/commands"
	"github.com/shodgson/proseeditor/inputrules"
	"github.com/shodgson/proseeditor/markdown"
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/plugins"
	"github.com/shodgson/proseeditor/registry"
	"github.com/shodgson/proseeditor/state"
)

// A nil tight attribute defers to the serializer's TightLists option.
var tightAttr = &model.AttributeSpec{Default: nil}

func parseTight(tok *markdown.Token) interface{} {
	switch tok.AttrGet("tight") {
	case "true":
		return true
	case "false":
		return false
	}
	return nil
}

func isList(s *state.EditorState) bool {
	return commands.ParentHasDirectParentOfType(ListItemName, BulletListName, OrderedListName)(s)
}

// BulletList is an unordered list, written with "- " items. Its items may
// be todos.
func BulletList() *registry.Descriptor {
	toggle := commands.ToggleList(BulletListName, ListItemName, false)
	toggleTodo := commands.ToggleList(BulletListName, ListItemName, true)
	d := &registry.Descriptor{
		Name: BulletListName,
		Kind: registry.NodeKind,
		Node: &model.NodeSpec{
			Content: ListItemName + "+",
			Group:   "block",
			Attrs:   map[string]*model.AttributeSpec{"tight": tightAttr},
			ToDOM:   model.ElementToDOM(atom.Ul),
		},
		Markdown: &markdown.Spec{
			Node: func(s *markdown.SerializerState, node, _ *model.Node, _ int) {
				s.RenderList(node, "  ", func(int) string { return "- " })
			},
			Parse: map[string]*markdown.ParseSpec{
				"bullet_list": {
					Block: BulletListName,
					GetAttrs: func(tok *markdown.Token) map[string]interface{} {
						return map[string]interface{}{"tight": parseTight(tok)}
					},
				},
			},
		},
		Keys: map[string]string{
			"toggle":     "Shift-Ctrl-8",
			"toggleTodo": "Shift-Ctrl-7",
		},
		Commands: registry.Commands{
			Toggle:   toggle,
			IsActive: commands.ParentHasDirectParentOfType(ListItemName, BulletListName),
			Extra:    map[string]state.Command{"toggleTodo": toggleTodo},
		},
	}
	d.Plugins = func(opts registry.PluginOptions) plugins.Spec {
		var list plugins.List
		if opts.Shortcuts() {
			list = append(list,
				plugins.Of(inputrules.WrappingRule(`^\s*([-+*])\s$`, BulletListName, inputrules.WrappingOptions{
					Join: func(_ []string, before *model.Node) bool { return !isTodo(before.LastChild()) },
				})),
				plugins.Of(inputrules.New(`^\s*(\[ \])\s$`, todoHandler)),
			)
		}
		return append(list, d.Keymap(opts,
			registry.Binding{Name: "toggle", Command: toggle},
			registry.Binding{Name: "toggleTodo", Command: toggleTodo},
		))
	}
	return d
}

func isTodo(item *model.Node) bool {
	return item != nil && item.Attrs[commands.TodoAttr] != nil
}

var todoWrap = inputrules.WrappingRule(`^\s*(\[ \])\s$`, BulletListName, inputrules.WrappingOptions{
	ItemAttrs: map[string]interface{}{commands.TodoAttr: false},
	Join:      func(_ []string, before *model.Node) bool { return isTodo(before.LastChild()) },
})

// todoHandler turns the list item into an unchecked todo when "[ ] " is
// typed at its start, and wraps the textblock in a todo list otherwise.
func todoHandler(s *state.EditorState, match []string, start, end int) *state.Transaction {
	rstart, err := s.Doc.Resolve(start)
	if err != nil {
		return nil
	}
	if rstart.Depth >= 2 && rstart.Node(-1).Type.Name == ListItemName && rstart.Index(-1) == 0 {
		item := rstart.Node(-1)
		if isTodo(item) {
			return nil
		}
		pos, _ := rstart.Before(-1)
		attrs := make(map[string]interface{}, len(item.Attrs))
		for k, v := range item.Attrs {
			attrs[k] = v
		}
		attrs[commands.TodoAttr] = false
		tr := s.Tr()
		tr.Delete(start, end)
		tr.SetNodeAttrs(pos, attrs)
		if tr.Err() != nil {
			return nil
		}
		return tr
	}
	return todoWrap.Handler(s, match, start, end)
}

// OrderedList is a numbered list. Its order attribute is the number of the
// first item.
func OrderedList() *registry.Descriptor {
	toggle := commands.ToggleList(OrderedListName, ListItemName, false)
	d := &registry.Descriptor{
		Name: OrderedListName,
		Kind: registry.NodeKind,
		Node: &model.NodeSpec{
			Content: ListItemName + "+",
			Group:   "block",
			Attrs: map[string]*model.AttributeSpec{
				"order": {Default: 1},
				"tight": tightAttr,
			},
			ToDOM: orderedListToDOM,
		},
		Markdown: &markdown.Spec{
			Node: func(s *markdown.SerializerState, node, _ *model.Node, _ int) {
				start := markdown.AttrInt(node.Attrs, "order", 1)
				width := len(strconv.Itoa(start + node.ChildCount() - 1))
				s.RenderList(node, strings.Repeat(" ", width+2), func(i int) string {
					n := strconv.Itoa(start + i)
					return strings.Repeat(" ", width-len(n)) + n + ". "
				})
			},
			Parse: map[string]*markdown.ParseSpec{
				"ordered_list": {
					Block: OrderedListName,
					GetAttrs: func(tok *markdown.Token) map[string]interface{} {
						order, err := strconv.Atoi(tok.AttrGet("start"))
						if err != nil {
							order = 1
						}
						return map[string]interface{}{"order": order, "tight": parseTight(tok)}
					},
				},
			},
		},
		Keys: map[string]string{"toggle": "Shift-Ctrl-9"},
		Commands: registry.Commands{
			Toggle:   toggle,
			IsActive: commands.ParentHasDirectParentOfType(ListItemName, OrderedListName),
		},
	}
	d.Plugins = func(opts registry.PluginOptions) plugins.Spec {
		var list plugins.List
		if opts.Shortcuts() {
			list = append(list, plugins.Of(inputrules.WrappingRule(`^(\d+)[.)]\s$`, OrderedListName, inputrules.WrappingOptions{
				Attrs: func(match []string) map[string]interface{} {
					order, _ := strconv.Atoi(match[1])
					return map[string]interface{}{"order": order}
				},
				Join: func(match []string, before *model.Node) bool {
					order, _ := strconv.Atoi(match[1])
					return before.ChildCount()+markdown.AttrInt(before.Attrs, "order", 1) == order
				},
			})))
		}
		return append(list, d.Keymap(opts, registry.Binding{Name: "toggle", Command: toggle}))
	}
	return d
}

func orderedListToDOM(n model.NodeOrMark) *html.Node {
	ol := model.ElementToDOM(atom.Ol)(n)
	if node, ok := n.(*model.Node); ok {
		if order := markdown.AttrInt(node.Attrs, "order", 1); order != 1 {
			ol.Attr = append(ol.Attr, html.Attribute{Key: "start", Val: strconv.Itoa(order)})
		}
	}
	return ol
}

// ListItem is an item of a bullet or ordered list. Its first child is a
// paragraph. A todoChecked attribute holding a boolean makes it a todo.
func ListItem() *registry.Descriptor {
	indent := commands.Conditional(commands.IndentListItem(ListItemName), isList)
	outdent := commands.Conditional(commands.OutdentListItem(ListItemName), isList)
	toggleDone := commands.Conditional(commands.ToggleTodo(ListItemName), isList)
	split := commands.Chain(commands.SplitListItem(ListItemName), outdent)
	backspace := commands.Conditional(commands.OutdentListItem(ListItemName), isList, atItemStart)
	inserter := func(placement commands.Placement) state.Command {
		return commands.Chain(
			commands.Conditional(commands.InsertEmpty(ListItemName, placement, true, map[string]interface{}{commands.TodoAttr: false}), inTodo),
			commands.Conditional(commands.InsertEmpty(ListItemName, placement, true, nil), isList),
		)
	}
	d := &registry.Descriptor{
		Name: ListItemName,
		Kind: registry.NodeKind,
		Node: &model.NodeSpec{
			Content:   "paragraph (paragraph | " + BulletListName + " | " + OrderedListName + ")*",
			Attrs:     map[string]*model.AttributeSpec{commands.TodoAttr: {Default: nil}},
			Defining:  true,
			Draggable: true,
			ToDOM:     model.ElementToDOM(atom.Li),
		},
		Markdown: &markdown.Spec{
			Node: func(s *markdown.SerializerState, node, _ *model.Node, _ int) {
				if checked, ok := node.Attrs[commands.TodoAttr].(bool); ok {
					if checked {
						s.Write("[x] ")
					} else {
						s.Write("[ ] ")
					}
				}
				// An empty first paragraph stays out of the output: a blank
				// line right after the marker would end the item.
				if first := node.FirstChild(); node.ChildCount() > 1 && first.Content.Size == 0 {
					s.EnsureNewLine()
					node.ForEach(func(child *model.Node, _, i int) {
						if i > 0 {
							s.Render(child, node, i)
						}
					})
					return
				}
				s.RenderContent(node)
			},
			Parse: map[string]*markdown.ParseSpec{
				"list_item": {
					Block: ListItemName,
					GetAttrs: func(tok *markdown.Token) map[string]interface{} {
						var done interface{}
						switch tok.AttrGet("isDone") {
						case "true":
							done = true
						case "false":
							done = false
						}
						return map[string]interface{}{commands.TodoAttr: done}
					},
				},
			},
		},
		Keys: map[string]string{
			"toggleDone":           "Ctrl-i",
			"indent":               "Tab",
			"outdent":              "Shift-Tab",
			"split":                "Enter",
			"backspace":            "Backspace",
			"moveUp":               "Alt-ArrowUp",
			"moveDown":             "Alt-ArrowDown",
			"insertEmptyListAbove": "Mod-Shift-Enter",
			"insertEmptyListBelow": "Mod-Enter",
		},
		MacKeys: map[string]string{"toggleDone": "Ctrl-Enter"},
		Commands: registry.Commands{
			Toggle:   commands.Never,
			IsActive: isList,
			Extra: map[string]state.Command{
				"indent":               indent,
				"outdent":              outdent,
				"toggleDone":           toggleDone,
				"insertEmptyListAbove": inserter(commands.Above),
				"insertEmptyListBelow": inserter(commands.Below),
			},
		},
	}
	d.Plugins = func(opts registry.PluginOptions) plugins.Spec {
		var list plugins.List
		if opts.NodeViews() {
			list = append(list, plugins.Of(state.NewPlugin(state.PluginSpec{
				Name:  "todoView",
				Props: state.Props{NodeViews: map[string]model.ToDOM{ListItemName: todoItemView}},
			})))
		}
		return append(list, d.Keymap(opts,
			registry.Binding{Name: "toggleDone", Command: toggleDone},
			registry.Binding{Name: "split", Command: split},
			registry.Binding{Name: "backspace", Command: backspace},
			registry.Binding{Name: "indent", Command: indent},
			registry.Binding{Name: "outdent", Command: outdent},
			registry.Binding{Name: "moveUp", Command: commands.Conditional(commands.MoveNode(ListItemName, commands.Up), isList)},
			registry.Binding{Name: "moveDown", Command: commands.Conditional(commands.MoveNode(ListItemName, commands.Down), isList)},
			registry.Binding{Name: "insertEmptyListAbove", Command: d.Commands.Extra["insertEmptyListAbove"]},
			registry.Binding{Name: "insertEmptyListBelow", Command: d.Commands.Extra["insertEmptyListBelow"]},
		))
	}
	return d
}

func inTodo(s *state.EditorState) bool {
	p, ok := commands.FindParentNodeOfType(s, ListItemName)
	return ok && isTodo(p.Node)
}

// atItemStart is true for a cursor at the start of the first paragraph of a
// list item.
func atItemStart(s *state.EditorState) bool {
	if !s.Selection.Empty() {
		return false
	}
	rpos, err := s.Doc.Resolve(s.Selection.Head)
	if err != nil || rpos.Depth < 2 {
		return false
	}
	return rpos.ParentOffset == 0 && rpos.Index(-1) == 0 && rpos.Node(-1).Type.Name == ListItemName
}

// todoItemView renders todo items with a check box before their content.
func todoItemView(n model.NodeOrMark) *html.Node {
	li := model.ElementToDOM(atom.Li)(n)
	node, ok := n.(*model.Node)
	if !ok {
		return li
	}
	checked, todo := node.Attrs[commands.TodoAttr].(bool)
	if !todo {
		return li
	}
	li.Attr = append(li.Attr, html.Attribute{Key: "data-todo-checked", Val: strconv.FormatBool(checked)})
	box := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Input,
		Data:     atom.Input.String(),
		Attr:     []html.Attribute{{Key: "type", Val: "checkbox"}},
	}
	if checked {
		box.Attr = append(box.Attr, html.Attribute{Key: "checked"})
	}
	wrapper := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Span,
		Data:     atom.Span.String(),
		Attr:     []html.Attribute{{Key: "contenteditable", Val: "false"}},
	}
	wrapper.AppendChild(box)
	content := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Span,
		Data:     atom.Span.String(),
		Attr:     []html.Attribute{{Key: model.ContentHole}},
	}
	li.AppendChild(wrapper)
	li.AppendChild(content)
	return li
}
