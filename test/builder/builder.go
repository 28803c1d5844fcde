// Package builder builds documents of the default schema for tests.
//
// Node builders take text, other nodes, marked text and attribute maps.
// Text may hold tags like "<a>", which are removed and recorded as
// positions in the Tag map of the result. The tags of a document are
// absolute positions.
package builder

import (
	"regexp"

	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/registry"
	"github.com/shodgson/proseeditor/schema/core"
	"github.com/shodgson/proseeditor/schema/marks"
	"github.com/shodgson/proseeditor/schema/nodes"
)

// Tags are named positions.
type Tags map[string]int

// NodeWithTag is a built node and the positions of the tags in its
// content. The zero value stands for no node.
type NodeWithTag struct {
	*model.Node
	Tag Tags
}

// Marked is text, or inline nodes, with a mark.
type Marked struct {
	Nodes []*model.Node
	Tag   Tags
}

type NodeBuilder func(args ...interface{}) NodeWithTag
type MarkBuilder func(args ...interface{}) *Marked

var tagRegexp = regexp.MustCompile(`<(\w+)>`)

// flatten turns builder arguments into content nodes, recording tags
// relative to the start of the content.
func flatten(schema *model.Schema, args []interface{}, wrap func(*model.Node) *model.Node) ([]*model.Node, Tags, map[string]interface{}) {
	var result []*model.Node
	tags := Tags{}
	var attrs map[string]interface{}
	pos := 0
	for _, arg := range args {
		switch arg := arg.(type) {
		case map[string]interface{}:
			attrs = arg
		case string:
			text := ""
			last := 0
			for _, m := range tagRegexp.FindAllStringSubmatchIndex(arg, -1) {
				text += arg[last:m[0]]
				tags[arg[m[2]:m[3]]] = pos + len(text)
				last = m[1]
			}
			text += arg[last:]
			if text != "" {
				result = append(result, wrap(schema.Text(text)))
				pos += len(text)
			}
		case NodeBuilder:
			n := arg()
			result = append(result, wrap(n.Node))
			pos += n.NodeSize()
		case NodeWithTag:
			if arg.Node == nil {
				continue
			}
			for k, v := range arg.Tag {
				tags[k] = pos + v + 1
			}
			result = append(result, wrap(arg.Node))
			pos += arg.NodeSize()
		case *Marked:
			for k, v := range arg.Tag {
				tags[k] = pos + v
			}
			for _, n := range arg.Nodes {
				result = append(result, wrap(n))
				pos += n.NodeSize()
			}
		default:
			panic("builder: unsupported argument")
		}
	}
	return result, tags, attrs
}

func identity(n *model.Node) *model.Node { return n }

// Block creates a builder of nodes of the type, with default attributes.
// Content isn't checked, so that tests can build invalid nodes.
func Block(schema *model.Schema, name string, attrs map[string]interface{}) NodeBuilder {
	typ, err := schema.NodeType(name)
	if err != nil {
		panic(err)
	}
	return func(args ...interface{}) NodeWithTag {
		content, tags, given := flatten(schema, args, identity)
		merged := map[string]interface{}{}
		for k, v := range attrs {
			merged[k] = v
		}
		for k, v := range given {
			merged[k] = v
		}
		node, err := typ.Create(merged, content, nil)
		if err != nil {
			panic(err)
		}
		return NodeWithTag{Node: node, Tag: tags}
	}
}

// Mark creates a builder applying a mark of the type to its content.
func Mark(schema *model.Schema, name string, attrs map[string]interface{}) MarkBuilder {
	typ, err := schema.MarkType(name)
	if err != nil {
		panic(err)
	}
	return func(args ...interface{}) *Marked {
		var mark *model.Mark
		wrap := func(n *model.Node) *model.Node {
			return n.Mark(mark.AddToSet(n.Marks))
		}
		var given map[string]interface{}
		for _, arg := range args {
			if a, ok := arg.(map[string]interface{}); ok {
				given = a
			}
		}
		merged := map[string]interface{}{}
		for k, v := range attrs {
			merged[k] = v
		}
		for k, v := range given {
			merged[k] = v
		}
		mark = typ.Create(merged)
		content, tags, _ := flatten(schema, args, wrap)
		return &Marked{Nodes: content, Tag: tags}
	}
}

func mustBuild() *registry.Registry {
	reg, err := core.Build()
	if err != nil {
		panic(err)
	}
	return reg
}

var (
	// Registry holds the default descriptors.
	Registry = mustBuild()
	// Schema is the schema of the default descriptors.
	Schema = Registry.Schema
)

var (
	Doc        = Block(Schema, "doc", nil)
	P          = Block(Schema, "paragraph", nil)
	Blockquote = Block(Schema, nodes.BlockquoteName, nil)
	Pre        = Block(Schema, nodes.CodeBlockName, nil)
	H1         = Block(Schema, nodes.HeadingName, map[string]interface{}{"level": 1})
	H2         = Block(Schema, nodes.HeadingName, map[string]interface{}{"level": 2})
	H3         = Block(Schema, nodes.HeadingName, map[string]interface{}{"level": 3})
	Li         = Block(Schema, nodes.ListItemName, nil)
	Todo       = Block(Schema, nodes.ListItemName, map[string]interface{}{"todoChecked": false})
	Done       = Block(Schema, nodes.ListItemName, map[string]interface{}{"todoChecked": true})
	Ul         = Block(Schema, nodes.BulletListName, nil)
	Ol         = Block(Schema, nodes.OrderedListName, nil)
	Br         = Block(Schema, nodes.HardBreakName, nil)
	Img        = Block(Schema, nodes.ImageName, map[string]interface{}{"src": "img.png"})
	Hr         = Block(Schema, nodes.HorizontalRuleName, nil)

	Bold      = Mark(Schema, marks.BoldName, nil)
	Italic    = Mark(Schema, marks.ItalicName, nil)
	Strike    = Mark(Schema, marks.StrikeName, nil)
	Code      = Mark(Schema, marks.CodeName, nil)
	Underline = Mark(Schema, marks.UnderlineName, nil)
	Highlight = Mark(Schema, marks.HighlightName, nil)
	Sup       = Mark(Schema, marks.SuperscriptName, nil)
	Sub       = Mark(Schema, marks.SubscriptName, nil)
	A         = Mark(Schema, marks.LinkName, map[string]interface{}{"href": "foo"})
)
