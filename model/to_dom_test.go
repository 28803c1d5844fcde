package model_test

import (
	"testing"

	. "github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/test/builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func render(t *testing.T, serializer *DOMSerializer, doc builder.NodeWithTag) string {
	out, err := serializer.RenderHTML(doc.Content)
	require.NoError(t, err)
	return out
}

func TestDOMSerializer(t *testing.T) {
	serializer := DOMSerializerFromSchema(schema)
	test := func(doc builder.NodeWithTag, expected string, msg string) {
		assert.Equal(t, expected, render(t, serializer, doc), msg)
	}

	test(doc(p("hello")),
		"<p>hello</p>",
		"Should represent simple node")

	test(doc(p("hi", br, "there")),
		"<p>hi<br/>there</p>",
		"Should represent a line break")

	imgNode, err := schema.Node("image", map[string]interface{}{"alt": "x", "src": "img.png"}, nil)
	require.NoError(t, err)
	test(doc(p("hi", builder.NodeWithTag{Node: imgNode}, "there")),
		`<p>hi<img src="img.png" alt="x"/>there</p>`,
		"Should represent an image")

	test(doc(p(em("emphasis"))),
		"<p><em>emphasis</em></p>",
		"Should represent simple marks")

	test(doc(p("one", strong("two", em("three")), em("four"), "five")),
		"<p>one<strong>two<em>three</em></strong><em>four</em>five</p>",
		"Should nest marks of lower rank outside")

	test(doc(p("a ", a("link"))),
		`<p>a <a href="foo">link</a></p>`,
		"Should represent links")

	test(doc(ul(li(p("one")), li(p("two")), li(p("three", strong("!")))), p("after")),
		"<ul><li><p>one</p></li><li><p>two</p></li><li><p>three<strong>!</strong></p></li></ul><p>after</p>",
		"Should represent an unordered list")

	test(doc(ol(li(p("one")), li(p("two")), li(p("three", strong("!")))), p("after")),
		"<ol><li><p>one</p></li><li><p>two</p></li><li><p>three<strong>!</strong></p></li></ol><p>after</p>",
		"Should represent an ordered list")

	test(doc(ol(map[string]interface{}{"order": 3}, li(p("one")))),
		`<ol start="3"><li><p>one</p></li></ol>`,
		"Should represent the start of an ordered list")

	test(doc(blockquote(p("hello"), p("bye"))),
		"<blockquote><p>hello</p><p>bye</p></blockquote>",
		"Should represent a blockquote")

	test(doc(blockquote(blockquote(blockquote(p("he said"))), p("i said"))),
		"<blockquote><blockquote><blockquote><p>he said</p></blockquote></blockquote><p>i said</p></blockquote>",
		"Should represent a nested blockquote")

	test(doc(h1("one"), h2("two"), p("text")),
		"<h1>one</h1><h2>two</h2><p>text</p>",
		"Should represent headings")

	test(doc(p("text and ", code("code"))),
		"<p>text and <code>code</code></p>",
		"Should represent inline code")

	test(doc(blockquote(pre("some code")), p("and")),
		"<blockquote><pre><code>some code</code></pre></blockquote><p>and</p>",
		"Should represent a code block")

	test(doc(p(em("hi", br, "x"))),
		"<p><em>hi<br/>x</em></p>",
		"Supports leaf nodes in marks")

	test(doc(p("\u00a0 \u00a0hello\u00a0")),
		"<p>\u00a0 \u00a0hello\u00a0</p>",
		"Should not collapse non-breaking spaces")
}

func TestDOMSerializerContentHole(t *testing.T) {
	serializer := DOMSerializerFromSchema(schema)
	serializer.Nodes["blockquote"] = func(NodeOrMark) *html.Node {
		outer := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
		outer.AppendChild(&html.Node{Type: html.ElementNode, DataAtom: atom.Span, Data: "span"})
		outer.AppendChild(&html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Section,
			Data:     "section",
			Attr:     []html.Attribute{{Key: ContentHole}},
		})
		return outer
	}
	assert.Equal(t,
		"<div><span></span><section><p>x</p></section></div>",
		render(t, serializer, doc(blockquote(p("x")))))
}

func TestMarksOnBlockNodes(t *testing.T) {
	commentToDOM := func(n NodeOrMark) *html.Node {
		return &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Div,
			Data:     "div",
			Attr:     []html.Attribute{{Key: "class", Val: "comment"}},
		}
	}
	commentSchema, err := NewSchema(&SchemaSpec{
		Nodes: []*NodeSpec{
			{Key: "doc", Content: "block+"},
			{Key: "paragraph", Content: "text*", Group: "block", ToDOM: ElementToDOM(atom.P)},
			{Key: "text", Group: "inline"},
		},
		Marks: []*MarkSpec{
			{Key: "comment", ToDOM: commentToDOM},
			{Key: "strong", ToDOM: ElementToDOM(atom.Strong)},
		},
	})
	require.NoError(t, err)

	bDoc := builder.Block(commentSchema, "doc", nil)
	bParagraph := builder.Block(commentSchema, "paragraph", nil)
	bComment := builder.Mark(commentSchema, "comment", nil)
	bStrong := builder.Mark(commentSchema, "strong", nil)

	assert.Equal(t,
		`<p>one</p><div class="comment"><p>two</p><p><strong>three</strong></p></div><p>four</p>`,
		render(t, DOMSerializerFromSchema(commentSchema),
			bDoc(bParagraph("one"), bComment(bParagraph("two"), bParagraph(bStrong("three"))), bParagraph("four"))))
}
