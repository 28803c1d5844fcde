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

// MaxHeadingLevel is the deepest heading level.
const MaxHeadingLevel = 6

var headingAtoms = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

func headingLevel(attrs map[string]interface{}) int {
	level := markdown.AttrInt(attrs, "level", 1)
	if level < 1 || level > MaxHeadingLevel {
		return 1
	}
	return level
}

func headingToDOM(n model.NodeOrMark) *html.Node {
	level := 1
	if node, ok := n.(*model.Node); ok {
		level = headingLevel(node.Attrs)
	}
	return model.ElementToDOM(headingAtoms[level-1])(n)
}

// ToggleHeading turns the textblock into a heading of the given level, or
// back into a paragraph when it already is one.
func ToggleHeading(level int) state.Command {
	return commands.ToggleBlockType(HeadingName, map[string]interface{}{"level": level})
}

// IsHeadingActive tells whether the selection is in a heading of the given
// level.
func IsHeadingActive(level int) commands.Predicate {
	return commands.IsNodeActive(HeadingName, map[string]interface{}{"level": level})
}

// Heading is a section heading of level 1 to 6, written with as many #.
func Heading() *registry.Descriptor {
	hotkeys := map[string]string{
		"jumpToStartOfHeading": "Ctrl-Home",
		"jumpToEndOfHeading":   "Ctrl-End",
	}
	extra := map[string]state.Command{}
	for level := 1; level <= MaxHeadingLevel; level++ {
		name := "toH" + strconv.Itoa(level)
		hotkeys[name] = "Shift-Ctrl-" + strconv.Itoa(level)
		extra[name] = ToggleHeading(level)
	}
	d := &registry.Descriptor{
		Name: HeadingName,
		Kind: registry.NodeKind,
		Node: &model.NodeSpec{
			Attrs:    map[string]*model.AttributeSpec{"level": {Default: 1}},
			Content:  "inline*",
			Group:    "block",
			Defining: true,
			ToDOM:    headingToDOM,
		},
		Markdown: &markdown.Spec{
			Node: func(s *markdown.SerializerState, node, _ *model.Node, _ int) {
				s.Write(strings.Repeat("#", headingLevel(node.Attrs)) + " ")
				s.RenderInline(node)
				s.CloseBlock(node)
			},
			Parse: map[string]*markdown.ParseSpec{
				"heading": {
					Block: HeadingName,
					GetAttrs: func(tok *markdown.Token) map[string]interface{} {
						level, _ := strconv.Atoi(strings.TrimPrefix(tok.Tag, "h"))
						return map[string]interface{}{"level": level}
					},
				},
			},
		},
		Keys: keys(hotkeys),
		MacKeys: map[string]string{
			"jumpToStartOfHeading": "Ctrl-a",
			"jumpToEndOfHeading":   "Ctrl-e",
		},
		Commands: registry.Commands{
			Toggle:   ToggleHeading(1),
			IsActive: commands.IsNodeActive(HeadingName, nil),
			Extra:    extra,
		},
	}
	d.Plugins = func(opts registry.PluginOptions) plugins.Spec {
		var list plugins.List
		if opts.Shortcuts() {
			list = append(list, plugins.Of(inputrules.TextblockTypeRule(`^(#{1,6})\s$`, HeadingName, func(match []string) map[string]interface{} {
				return map[string]interface{}{"level": len(match[1])}
			})))
		}
		var bindings []registry.Binding
		for level := 1; level <= MaxHeadingLevel; level++ {
			name := "toH" + strconv.Itoa(level)
			bindings = append(bindings, registry.Binding{Name: name, Command: extra[name]})
		}
		bindings = append(bindings, movers(HeadingName)...)
		bindings = append(bindings,
			registry.Binding{Name: "jumpToStartOfHeading", Command: commands.JumpToStartOfNode(HeadingName)},
			registry.Binding{Name: "jumpToEndOfHeading", Command: commands.JumpToEndOfNode(HeadingName)},
		)
		bindings = append(bindings, paraInserters(HeadingName, false)...)
		return append(list, d.Keymap(opts, bindings...))
	}
	return d
}
