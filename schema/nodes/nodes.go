// Package nodes describes the block and inline nodes of the editor beyond
// paragraphs: their schema, how they round-trip through Markdown, their
// input rules and their shortcuts.
package nodes

import (
	"github.com/shodgson/proseeditor/commands"
	"github.com/shodgson/proseeditor/registry"
	"github.com/shodgson/proseeditor/state"
)

// Names of the nodes.
const (
	BlockquoteName     = "blockquote"
	BulletListName     = "bulletList"
	CodeBlockName      = "codeBlock"
	HardBreakName      = "hardBreak"
	HeadingName        = "heading"
	HorizontalRuleName = "horizontalRule"
	ImageName          = "image"
	ListItemName       = "listItem"
	OrderedListName    = "orderedList"
)

// All returns the descriptors of every node, in schema order.
func All() []*registry.Descriptor {
	return []*registry.Descriptor{
		Blockquote(), BulletList(), CodeBlock(), HardBreak(), Heading(),
		HorizontalRule(), Image(), ListItem(), OrderedList(),
	}
}

// movers binds moveUp and moveDown to moving the closest ancestor of the
// named type.
func movers(name string) []registry.Binding {
	return []registry.Binding{
		{Name: "moveUp", Command: commands.MoveNode(name, commands.Up)},
		{Name: "moveDown", Command: commands.MoveNode(name, commands.Down)},
	}
}

// insertEmptyPara inserts an empty paragraph next to the closest ancestor
// of the named type.
func insertEmptyPara(name string, placement commands.Placement, nestable bool) state.Command {
	return commands.Conditional(
		commands.InsertEmpty(registry.ParagraphName, placement, nestable, nil),
		commands.IsNodeActive(name, nil),
	)
}

func paraInserters(name string, nestable bool) []registry.Binding {
	return []registry.Binding{
		{Name: "insertEmptyParaAbove", Command: insertEmptyPara(name, commands.Above, nestable)},
		{Name: "insertEmptyParaBelow", Command: insertEmptyPara(name, commands.Below, nestable)},
	}
}

var commonKeys = map[string]string{
	"moveDown":             "Alt-ArrowDown",
	"moveUp":               "Alt-ArrowUp",
	"insertEmptyParaAbove": "Mod-Shift-Enter",
	"insertEmptyParaBelow": "Mod-Enter",
}

// keys merges the shortcuts shared by movable blocks with more.
func keys(more map[string]string) map[string]string {
	out := make(map[string]string, len(commonKeys)+len(more))
	for k, v := range commonKeys {
		out[k] = v
	}
	for k, v := range more {
		out[k] = v
	}
	return out
}
