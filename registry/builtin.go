package registry

import (
	"golang.org/x/net/html/atom"

	"github.com/shodgson/proseeditor/commands"
	"github.com/shodgson/proseeditor/markdown"
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/plugins"
	"github.com/shodgson/proseeditor/state"
)

// Names of the built-in types.
const (
	DocName       = "doc"
	TextName      = "text"
	ParagraphName = "paragraph"
)

// Doc describes the document node, holding one or more blocks.
func Doc(top bool) *Descriptor {
	return &Descriptor{
		Name:    DocName,
		Kind:    NodeKind,
		TopNode: top,
		Node:    &model.NodeSpec{Content: "block+"},
	}
}

// Text describes text nodes.
func Text() *Descriptor {
	return &Descriptor{
		Name: TextName,
		Kind: NodeKind,
		Node: &model.NodeSpec{Group: "inline"},
		Markdown: &markdown.Spec{
			Node: func(state *markdown.SerializerState, node, _ *model.Node, _ int) {
				state.Text(*node.Text, !state.InAutoLink)
			},
		},
	}
}

// Paragraph describes paragraphs. Moving and inserting paragraphs only
// applies to paragraphs directly in the document.
func Paragraph() *Descriptor {
	isTopLevel := commands.ParentHasDirectParentOfType(ParagraphName, DocName)
	convert := commands.SetBlockType(ParagraphName, nil)
	d := &Descriptor{
		Name: ParagraphName,
		Kind: NodeKind,
		Node: &model.NodeSpec{
			Content: "inline*",
			Group:   "block",
			ToDOM:   model.ElementToDOM(atom.P),
		},
		Markdown: &markdown.Spec{
			Node: func(state *markdown.SerializerState, node, _ *model.Node, _ int) {
				state.RenderInline(node)
				state.CloseBlock(node)
			},
			Parse: map[string]*markdown.ParseSpec{
				"paragraph": {Block: ParagraphName},
			},
		},
		Keys: map[string]string{
			"jumpToEndOfParagraph":   "Ctrl-End",
			"jumpToStartOfParagraph": "Ctrl-Home",
			"moveDown":               "Alt-ArrowDown",
			"moveUp":                 "Alt-ArrowUp",
			"insertEmptyParaAbove":   "Mod-Shift-Enter",
			"insertEmptyParaBelow":   "Mod-Enter",
			"convertToParagraph":     "Ctrl-Shift-0",
		},
		MacKeys: map[string]string{
			"jumpToEndOfParagraph":   "Ctrl-e",
			"jumpToStartOfParagraph": "Ctrl-a",
		},
		Commands: Commands{
			Toggle:   convert,
			IsActive: commands.IsNodeActive(ParagraphName, nil),
			Extra: map[string]state.Command{
				"convertToParagraph":   convert,
				"insertEmptyParaAbove": commands.Conditional(commands.InsertEmpty(ParagraphName, commands.Above, false, nil), isTopLevel),
				"insertEmptyParaBelow": commands.Conditional(commands.InsertEmpty(ParagraphName, commands.Below, false, nil), isTopLevel),
			},
		},
	}
	d.Plugins = func(opts PluginOptions) plugins.Spec {
		return d.Keymap(opts,
			Binding{"convertToParagraph", convert},
			Binding{"moveUp", commands.Conditional(commands.MoveNode(ParagraphName, commands.Up), isTopLevel)},
			Binding{"moveDown", commands.Conditional(commands.MoveNode(ParagraphName, commands.Down), isTopLevel)},
			Binding{"jumpToStartOfParagraph", commands.JumpToStartOfNode(ParagraphName)},
			Binding{"jumpToEndOfParagraph", commands.JumpToEndOfNode(ParagraphName)},
			Binding{"insertEmptyParaAbove", d.Commands.Extra["insertEmptyParaAbove"]},
			Binding{"insertEmptyParaBelow", d.Commands.Extra["insertEmptyParaBelow"]},
		)
	}
	return d
}
