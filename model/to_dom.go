package model

import (
	"bytes"
	"sort"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ToDOM function type
type ToDOM = func(NodeOrMark) *html.Node

// NodeOrMark is implemented by nodes and marks, the two things that can be
// rendered to DOM.
type NodeOrMark interface {
	GetAttrs([]string) []html.Attribute
}

// GetAttrs returns the selected attributes of the node as HTML attributes.
// When no attribute names are given, all of them are returned.
func (n *Node) GetAttrs(selected []string) []html.Attribute {
	return htmlAttrs(n.Attrs, selected)
}

// GetAttrs returns the selected attributes of the mark as HTML attributes.
func (m *Mark) GetAttrs(selected []string) []html.Attribute {
	return htmlAttrs(m.Attrs, selected)
}

func htmlAttrs(attrs map[string]interface{}, selected []string) []html.Attribute {
	keys := selected
	if keys == nil {
		for key := range attrs {
			keys = append(keys, key)
		}
		sort.Strings(keys)
	}
	result := []html.Attribute{}
	for _, key := range keys {
		value, ok := attrs[key]
		if !ok {
			continue
		}
		result = addAttr(key, value, result)
	}
	return result
}

func addAttr(key string, value interface{}, attrs []html.Attribute) []html.Attribute {
	newAttr := html.Attribute{Key: key}
	switch v := value.(type) {
	case int:
		newAttr.Val = strconv.Itoa(v)
	case string:
		if v == "" {
			return attrs
		}
		newAttr.Val = v
	case bool:
		newAttr.Val = strconv.FormatBool(v)
	default:
		return attrs
	}
	return append(attrs, newAttr)
}

// ElementToDOM returns a ToDOM function rendering a single element with the
// given attributes copied from the node or mark.
func ElementToDOM(a atom.Atom, attrs ...string) ToDOM {
	if attrs == nil {
		attrs = []string{}
	}
	return func(n NodeOrMark) *html.Node {
		return &html.Node{
			Type:     html.ElementNode,
			DataAtom: a,
			Data:     a.String(),
			Attr:     n.GetAttrs(attrs),
		}
	}
}

// NestedToDOM renders an outer element wrapping an inner one, the inner one
// receiving the content (as in <pre><code>).
func NestedToDOM(outer, inner atom.Atom, attrs ...string) ToDOM {
	return func(n NodeOrMark) *html.Node {
		outerNode := ElementToDOM(outer, attrs...)(n)
		outerNode.AppendChild(&html.Node{
			Type:     html.ElementNode,
			DataAtom: inner,
			Data:     inner.String(),
		})
		return outerNode
	}
}

// A DOM serializer knows how to convert nodes and marks of various types to
// DOM nodes.
type DOMSerializer struct {
	// The node serialization functions.
	Nodes map[string]ToDOM

	// The mark serialization functions. A mark serializer may be nil to
	// indicate that marks of that type should not be serialized.
	Marks map[string]ToDOM
}

// Build a serializer using the properties in a schema's node and
// mark specs.
func DOMSerializerFromSchema(schema *Schema) *DOMSerializer {
	return &DOMSerializer{
		Nodes: nodesFromSchema(schema),
		Marks: marksFromSchema(schema),
	}
}

func (d *DOMSerializer) hasMark(markName string) bool {
	return d.Marks[markName] != nil
}

// Serialize the content of this fragment to HTML.
func (d *DOMSerializer) SerializeFragment(fragment *Fragment, target *html.Node) *html.Node {
	if target == nil {
		target = &html.Node{
			Type: html.DocumentNode,
		}
	}
	type activeMark struct {
		mark *Mark
		top  *html.Node
	}
	var active []activeMark
	top := target
	fragment.ForEach(func(node *Node, offset, index int) {
		if active != nil || len(node.Marks) > 0 {
			keep, rendered := 0, 0
			for keep < len(active) && rendered < len(node.Marks) {
				next := node.Marks[rendered]
				if !d.hasMark(next.Type.Name) {
					rendered++
					continue
				}
				if !next.Eq(active[keep].mark) || (next.Type.Spec.Spanning != nil && !*next.Type.Spec.Spanning) {
					break
				}
				keep++
				rendered++
			}
			for keep < len(active) {
				n := len(active)
				top, active = active[n-1].top, active[:n-1]
			}
			for rendered < len(node.Marks) {
				add := node.Marks[rendered]
				rendered++
				markDOM := d.serializeMark(add)
				if markDOM != nil {
					active = append(active, activeMark{mark: add, top: top})
					top.AppendChild(markDOM)
					top = markDOM
				}
			}
		}
		if child := d.SerializeNode(node); child != nil {
			top.AppendChild(child)
		}
	})
	return target
}

func (d *DOMSerializer) serializeMark(mark *Mark) *html.Node {
	toDOM := d.Marks[mark.Type.Name]
	if toDOM == nil {
		return nil
	}
	return toDOM(mark)
}

// Serialize this node to a DOM node. This can be useful when you
// need to serialize a part of a document, as opposed to the whole
// document. To serialize a whole document, use SerializeFragment.
func (d *DOMSerializer) SerializeNode(node *Node) *html.Node {
	domFn := d.Nodes[node.Type.Name]
	if domFn == nil {
		return nil
	}
	topNode := domFn(node)
	contentNode := findContentHole(topNode)
	if contentNode == nil {
		contentNode = topNode
		for contentNode.FirstChild != nil && contentNode.FirstChild.Type == html.ElementNode {
			contentNode = contentNode.FirstChild
		}
	}
	d.SerializeFragment(node.Content, contentNode)
	return topNode
}

// ContentHole marks the element receiving the content of a node, when it
// isn't the innermost first child. The attribute is removed on rendering.
const ContentHole = "data-content"

func findContentHole(n *html.Node) *html.Node {
	for i, attr := range n.Attr {
		if attr.Key == ContentHole {
			n.Attr = append(n.Attr[:i:i], n.Attr[i+1:]...)
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if hole := findContentHole(c); hole != nil {
			return hole
		}
	}
	return nil
}

// RenderHTML serializes a fragment and renders it as an HTML string.
func (d *DOMSerializer) RenderHTML(fragment *Fragment) (string, error) {
	var buf bytes.Buffer
	root := d.SerializeFragment(fragment, nil)
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Gather the serializers in a schema's node specs into an object.
// This can be useful as a base to build a custom serializer from.
func nodesFromSchema(schema *Schema) map[string]ToDOM {
	result := make(map[string]ToDOM)
	for _, n := range schema.nodeList {
		if n.Spec.ToDOM != nil {
			result[n.Name] = n.Spec.ToDOM
		}
	}
	if _, ok := result["text"]; !ok {
		result["text"] = func(n NodeOrMark) *html.Node {
			node, _ := n.(*Node)
			return &html.Node{
				Type: html.TextNode,
				Data: *node.Text,
			}
		}
	}
	return result
}

// Gather the serializers in a schema's mark specs into an object.
func marksFromSchema(schema *Schema) map[string]ToDOM {
	result := make(map[string]ToDOM)
	for _, m := range schema.markList {
		if m.Spec.ToDOM != nil {
			result[m.Name] = m.Spec.ToDOM
		}
	}
	return result
}
