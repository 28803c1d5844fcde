package nodes

import (
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/shodgson/proseeditor/commands"
	"github.com/shodgson/proseeditor/inputrules"
	"github.com/shodgson/proseeditor/markdown"
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/plugins"
	"github.com/shodgson/proseeditor/registry"
	"github.com/shodgson/proseeditor/state"
)

// Blockquote quotes blocks, written with a leading "> ".
func Blockquote() *registry.Descriptor {
	toggle := commands.ToggleWrap(BlockquoteName, nil)
	d := &registry.Descriptor{
		Name: BlockquoteName,
		Kind: registry.NodeKind,
		Node: &model.NodeSpec{
			Content:  "block*",
			Group:    "block",
			Defining: true,
			ToDOM:    model.ElementToDOM(atom.Blockquote),
		},
		Markdown: &markdown.Spec{
			Node: func(s *markdown.SerializerState, node, _ *model.Node, _ int) {
				s.WrapBlock("> ", nil, node, func() { s.RenderContent(node) })
			},
			Parse: map[string]*markdown.ParseSpec{
				"blockquote": {Block: BlockquoteName},
			},
		},
		Keys: keys(map[string]string{"wrapInBlockquote": "Ctrl-ArrowRight"}),
		Commands: registry.Commands{
			Toggle:   toggle,
			IsActive: commands.IsNodeActive(BlockquoteName, nil),
			Extra:    map[string]state.Command{"wrapInBlockquote": toggle},
		},
	}
	d.Plugins = func(opts registry.PluginOptions) plugins.Spec {
		var list plugins.List
		if opts.Shortcuts() {
			list = append(list, plugins.Of(inputrules.WrappingRule(`^\s*>\s$`, BlockquoteName, inputrules.WrappingOptions{})))
		}
		bindings := append([]registry.Binding{{Name: "wrapInBlockquote", Command: toggle}}, movers(BlockquoteName)...)
		bindings = append(bindings, paraInserters(BlockquoteName, true)...)
		return append(list, d.Keymap(opts, bindings...))
	}
	return d
}

// CodeBlock is a block of preformatted code with an optional language,
// written as a fenced block.
func CodeBlock() *registry.Descriptor {
	toggle := commands.ToggleBlockType(CodeBlockName, nil)
	noMarks := ""
	language := func(tok *markdown.Token) map[string]interface{} {
		return map[string]interface{}{"language": strings.TrimSpace(tok.Info)}
	}
	d := &registry.Descriptor{
		Name: CodeBlockName,
		Kind: registry.NodeKind,
		Node: &model.NodeSpec{
			Attrs:    map[string]*model.AttributeSpec{"language": {Default: ""}},
			Content:  "text*",
			Marks:    &noMarks,
			Group:    "block",
			Code:     true,
			Defining: true,
			ToDOM:    model.NestedToDOM(atom.Pre, atom.Code, "language"),
		},
		Markdown: &markdown.Spec{
			Node: func(s *markdown.SerializerState, node, _ *model.Node, _ int) {
				lang, _ := node.Attrs["language"].(string)
				fence := markdown.FenceFor(node.TextContent())
				s.Write(fence + lang + "\n")
				s.Text(node.TextContent(), false)
				s.EnsureNewLine()
				s.Write(fence)
				s.CloseBlock(node)
			},
			Parse: map[string]*markdown.ParseSpec{
				"code_block": {Block: CodeBlockName, NoCloseToken: true},
				"fence":      {Block: CodeBlockName, NoCloseToken: true, GetAttrs: language},
			},
		},
		Keys: keys(map[string]string{"toCodeBlock": "Shift-Ctrl-\\"}),
		Commands: registry.Commands{
			Toggle:   toggle,
			IsActive: commands.IsNodeActive(CodeBlockName, nil),
			Extra:    map[string]state.Command{"toCodeBlock": toggle},
		},
	}
	d.Plugins = func(opts registry.PluginOptions) plugins.Spec {
		var list plugins.List
		if opts.Shortcuts() {
			list = append(list, plugins.Of(inputrules.TextblockTypeRule("^```$", CodeBlockName, nil)))
		}
		bindings := append([]registry.Binding{{Name: "toCodeBlock", Command: toggle}}, movers(CodeBlockName)...)
		bindings = append(bindings, paraInserters(CodeBlockName, false)...)
		return append(list, d.Keymap(opts, bindings...))
	}
	return d
}

// HardBreak is a line break inside a textblock, written as a backslash at
// the end of the line.
func HardBreak() *registry.Descriptor {
	insert := commands.Chain(commands.ExitCode, commands.InsertHardBreak(HardBreakName))
	d := &registry.Descriptor{
		Name: HardBreakName,
		Kind: registry.NodeKind,
		Node: &model.NodeSpec{
			Inline: true,
			Group:  "inline",
			ToDOM:  model.ElementToDOM(atom.Br),
		},
		Markdown: &markdown.Spec{
			Node: func(s *markdown.SerializerState, node, parent *model.Node, index int) {
				// Trailing breaks would read as blank lines.
				for i := index + 1; i < parent.ChildCount(); i++ {
					if parent.MaybeChild(i).Type != node.Type {
						s.Write("\\\n")
						return
					}
				}
			},
			Parse: map[string]*markdown.ParseSpec{
				"hardbreak": {Node: HardBreakName},
			},
			LineBreak: true,
		},
		Keys: map[string]string{"insertHardBreak": "Shift-Enter"},
		Commands: registry.Commands{
			Toggle:   insert,
			IsActive: commands.IsNodeActive(HardBreakName, nil),
			Extra:    map[string]state.Command{"insertHardBreak": insert},
		},
	}
	d.Plugins = func(opts registry.PluginOptions) plugins.Spec {
		return d.Keymap(opts, registry.Binding{Name: "insertHardBreak", Command: insert})
	}
	return d
}

// HorizontalRule is a thematic break, written "---".
func HorizontalRule() *registry.Descriptor {
	insert := commands.InsertNode(HorizontalRuleName, nil)
	d := &registry.Descriptor{
		Name: HorizontalRuleName,
		Kind: registry.NodeKind,
		Node: &model.NodeSpec{
			Group: "block",
			ToDOM: model.ElementToDOM(atom.Hr),
		},
		Markdown: &markdown.Spec{
			Node: func(s *markdown.SerializerState, node, _ *model.Node, _ int) {
				s.Write("---")
				s.CloseBlock(node)
			},
			Parse: map[string]*markdown.ParseSpec{
				"hr": {Node: HorizontalRuleName},
			},
		},
		Commands: registry.Commands{
			Toggle:   insert,
			IsActive: commands.IsNodeActive(HorizontalRuleName, nil),
		},
	}
	d.Plugins = func(opts registry.PluginOptions) plugins.Spec {
		if !opts.Shortcuts() {
			return nil
		}
		return plugins.Of(inputrules.New(`^(?:---|___\s|\*\*\*\s)$`, ruleHandler))
	}
	return d
}

// ruleHandler replaces the textblock the rule was typed in with a
// horizontal rule. Text after the typed rule stays in the textblock, below
// the rule. An empty paragraph follows the rule when nothing else could
// take the cursor.
func ruleHandler(s *state.EditorState, _ []string, start, end int) *state.Transaction {
	typ := s.Schema().Nodes[HorizontalRuleName]
	para := s.Schema().Nodes[registry.ParagraphName]
	if typ == nil {
		return nil
	}
	rstart, err := s.Doc.Resolve(start)
	if err != nil || rstart.Depth < 1 || rstart.Parent().Type.Spec.Code {
		return nil
	}
	rest := rstart.Parent().Content.Size > end-start
	index, upto := rstart.Index(-1), rstart.IndexAfter(-1)
	if rest {
		upto = index
	}
	if !rstart.Node(-1).CanReplaceWith(index, upto, typ) {
		return nil
	}
	hr, err := typ.Create(nil, nil, nil)
	if err != nil {
		return nil
	}
	before, _ := rstart.Before()
	after, _ := rstart.After()

	tr := s.Tr()
	tr.Delete(start, end)
	if rest {
		tr.Insert(before, hr)
		if tr.Err() != nil {
			return nil
		}
		return tr
	}
	tr.ReplaceWith(before, tr.Mapping.Map(after), hr)
	next := tr.Doc.NodeAt(before + hr.NodeSize())
	if (next == nil || !next.IsTextblock()) && para != nil {
		if p := para.CreateAndFill(nil, nil, nil); p != nil {
			tr.Insert(before+hr.NodeSize(), p)
		}
	}
	if tr.Err() != nil {
		return nil
	}
	tr.SetSelection(state.Near(tr.Doc, before+hr.NodeSize()+1, 1))
	return tr
}

// Image is an inline image, written ![alt](src "title").
func Image() *registry.Descriptor {
	return &registry.Descriptor{
		Name: ImageName,
		Kind: registry.NodeKind,
		Node: &model.NodeSpec{
			Inline: true,
			Group:  "inline",
			Attrs: map[string]*model.AttributeSpec{
				"src":   {Required: true},
				"alt":   {Default: nil},
				"title": {Default: nil},
			},
			Draggable: true,
			ToDOM:     model.ElementToDOM(atom.Img, "src", "alt", "title"),
		},
		Markdown: &markdown.Spec{
			Node: func(s *markdown.SerializerState, node, _ *model.Node, _ int) {
				alt, _ := node.Attrs["alt"].(string)
				src, _ := node.Attrs["src"].(string)
				out := "![" + s.Esc(alt) + "](" + imageEscaper.Replace(src)
				if title, _ := node.Attrs["title"].(string); title != "" {
					out += " " + s.Quote(title)
				}
				s.Write(out + ")")
			},
			Parse: map[string]*markdown.ParseSpec{
				"image": {
					Node: ImageName,
					GetAttrs: func(tok *markdown.Token) map[string]interface{} {
						attrs := map[string]interface{}{"src": tok.AttrGet("src"), "alt": nil, "title": nil}
						if tok.Content != "" {
							attrs["alt"] = tok.Content
						}
						if title := tok.AttrGet("title"); title != "" {
							attrs["title"] = title
						}
						return attrs
					},
				},
			},
		},
		Commands: registry.Commands{
			Toggle:   commands.Never,
			IsActive: commands.IsNodeActive(ImageName, nil),
		},
	}
}

var imageEscaper = strings.NewReplacer("(", `\(`, ")", `\)`)
