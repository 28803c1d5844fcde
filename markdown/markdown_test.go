package markdown_test

import (
	"testing"

	"github.com/shodgson/proseeditor/markdown"
	"github.com/shodgson/proseeditor/test/builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	doc        = builder.Doc
	p          = builder.P
	blockquote = builder.Blockquote
	h1         = builder.H1
	h2         = builder.H2
	pre        = builder.Pre
	ul         = builder.Ul
	ol         = builder.Ol
	li         = builder.Li
	todo       = builder.Todo
	done       = builder.Done
	br         = builder.Br
	img        = builder.Img
	hr         = builder.Hr
	a          = builder.A
	em         = builder.Italic
	strong     = builder.Bold
	code       = builder.Code

	tight = map[string]interface{}{"tight": true}
	loose = map[string]interface{}{"tight": false}
)

func build(t *testing.T, opts markdown.SerializerOptions) (*markdown.Parser, *markdown.Serializer) {
	entries := builder.Registry.MarkdownEntries()
	parser, err := markdown.BuildParser(builder.Schema, entries)
	require.NoError(t, err)
	return parser, markdown.BuildSerializer(entries, opts)
}

func TestMarkdown(t *testing.T) {
	parser, serializer := build(t, markdown.SerializerOptions{})

	parse := func(text string, expected builder.NodeWithTag) {
		t.Helper()
		actual, err := parser.Parse(text)
		require.NoError(t, err, text)
		require.True(t, actual.Eq(expected.Node), "%s != %s", actual.String(), expected.String())
	}
	serialize := func(d builder.NodeWithTag, text string) {
		t.Helper()
		assert.Equal(t, text, serializer.Serialize(d.Node))
	}
	same := func(text string, d builder.NodeWithTag) {
		t.Helper()
		parse(text, d)
		serialize(d, text)
	}

	// parses a paragraph
	same("hello!",
		doc(p("hello!")))

	// parses headings
	same("# one\n\n## two\n\nthree",
		doc(h1("one"), h2("two"), p("three")))

	// parses a blockquote
	same("> once\n\n> > twice",
		doc(blockquote(p("once")), blockquote(blockquote(p("twice")))))

	// parses a bullet list
	same("- foo\n\n  - bar\n\n  - baz\n\n- quux",
		doc(ul(loose, li(p("foo"), ul(loose, li(p("bar")), li(p("baz")))), li(p("quux")))))

	// parses a tight bullet list
	same("- a\n- b",
		doc(ul(tight, li(p("a")), li(p("b")))))

	// parses an ordered list
	same("1. Hello\n\n2. Goodbye\n\n3. Nest\n\n   1. Hey\n\n   2. Aye",
		doc(ol(loose, li(p("Hello")), li(p("Goodbye")), li(p("Nest"), ol(loose, li(p("Hey")), li(p("Aye")))))))

	// preserves ordered list start number
	same("3. Foo\n\n4. Bar",
		doc(ol(map[string]interface{}{"order": 3, "tight": false}, li(p("Foo")), li(p("Bar")))))

	// pads the numbers of long lists
	serialize(doc(ol(map[string]interface{}{"order": 9, "tight": true}, li(p("a")), li(p("b")))),
		" 9. a\n10. b")

	// parses todo items
	same("- [ ] todo\n- [x] done",
		doc(ul(tight, todo(p("todo")), done(p("done")))))

	// parses a code block
	same("Some code:\n\n```\nHere it is\n```\n\nPara",
		doc(p("Some code:"), pre("Here it is"), p("Para")))

	// parses an indented code block
	parse("Some code:\n\n    Here it is\n\nPara",
		doc(p("Some code:"), pre("Here it is"), p("Para")))

	// parses a fenced code block with info string
	same("foo\n\n```javascript\n1\n```",
		doc(p("foo"), pre(map[string]interface{}{"language": "javascript"}, "1")))

	// code block fence adjusts to content
	same("````\n```\ncode\n```\n````", doc(pre("```\ncode\n```")))

	// parses inline marks
	same("Hello. Some *em* text, some **strong** text, and some `code`",
		doc(p("Hello. Some ", em("em"), " text, some ", strong("strong"), " text, and some ", code("code"))))

	// parses links inside strong text
	same("**[link](foo) is bold**",
		doc(p(strong(a("link"), " is bold"))))

	// parses code mark inside strong text
	same("**`code` is bold**",
		doc(p(strong(code("code"), " is bold"))))

	// parses code mark containing backticks
	same("``` one backtick: ` two backticks: `` ```",
		doc(p(code("one backtick: ` two backticks: ``"))))

	// parses hard breaks
	same("foo\\\nbar", doc(p("foo", br(), "bar")))

	// drops trailing hard breaks
	serialize(doc(p("a", br(), br())), "a")

	// parses links
	same("My [link](foo) goes to foo",
		doc(p("My ", a("link"), " goes to foo")))

	// parses urls
	same("Link to <https://prosemirror.net>",
		doc(p("Link to ", a(map[string]interface{}{"href": "https://prosemirror.net"}, "https://prosemirror.net"))))

	// can handle link titles
	same(`[a](x.html "title \"quoted\"")`,
		doc(p(a(map[string]interface{}{"href": "x.html", "title": `title "quoted"`}, "a"))))

	// parses an image
	same("Here's an image: ![x](img.png)",
		doc(p("Here's an image: ", img(map[string]interface{}{"alt": "x"}))))

	// parses a horizontal rule
	same("one two\n\n---\n\nthree",
		doc(p("one two"), hr(), p("three")))

	// keeps inline HTML as text
	parse("a <span>b</span>",
		doc(p("a <span>b</span>")))

	// escapes special characters
	same("Foo \\*bar",
		doc(p("Foo *bar")))

	// doesn't accidentally generate list markup
	same("1\\. foo",
		doc(p("1. foo")))

	// doesn't accidentally generate headings
	same("\\# not a heading",
		doc(p("# not a heading")))

	// escapes every underscore, since underscores delimit underlines
	same("abc\\_def",
		doc(p("abc_def")))
	same("\\_abc\\_",
		doc(p("_abc_")))

	// keeps leading indentation from reading as a code block
	same("&#32;   x",
		doc(p("    x")))
	same("&#9;^x^",
		doc(p("\t", builder.Sup("x"))))
	serialize(doc(p(builder.Sup("\tx"))), "&#9;^x^")
	same("# &#32;x",
		doc(h1(" x")))

	// keeps an item with an empty paragraph and a nested list together
	same("- \n  1. a",
		doc(ul(tight, li(p(), ol(tight, li(p("a")))))))

	// doesn't escape characters in code
	same("foo`*`", doc(p("foo", code("*"))))

	// doesn't put a code block after a list item inside the list item
	serialize(doc(ul(li(p("list item"))), pre("code")),
		"- list item\n\n```\ncode\n```")
}

func TestMarkSyntax(t *testing.T) {
	parser, serializer := build(t, markdown.SerializerOptions{})

	cases := []struct {
		name string
		text string
		doc  builder.NodeWithTag
	}{
		{"bold", "**hello** world", doc(p(strong("hello"), " world"))},
		{"italic", "*hello* world", doc(p(em("hello"), " world"))},
		{"strike", "~~gone~~ now", doc(p(builder.Strike("gone"), " now"))},
		{"underline", "_under_ line", doc(p(builder.Underline("under"), " line"))},
		{"highlight", "==multi word mark==", doc(p(builder.Highlight("multi word mark")))},
		{"superscript", "x^2^", doc(p("x", builder.Sup("2")))},
		{"subscript", "H~2~O", doc(p("H", builder.Sub("2"), "O"))},
		{"escaped delimiters", "\\*\\*not bold\\*\\*", doc(p("**not bold**"))},
		{"escaped highlight", "\\=\\=plain\\=\\=", doc(p("==plain=="))},
		{"strike then subscript", "~~x~~<!-- -->~y~", doc(p(builder.Strike("x"), builder.Sub("y")))},
		{"subscript then strike", "~x~<!-- -->~~y~~", doc(p(builder.Sub("x"), builder.Strike("y")))},
		{"highlight around a break", "==a==\\\n==b==", doc(p(builder.Highlight("a"), br(), builder.Highlight("b")))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := parser.Parse(tc.text)
			require.NoError(t, err)
			assert.True(t, actual.Eq(tc.doc.Node), "%s != %s", actual.String(), tc.doc.String())
			assert.Equal(t, tc.text, serializer.Serialize(tc.doc.Node))
		})
	}

	// A break inside a synthesized mark closes it and opens it again.
	assert.Equal(t, "==a==\\\n==b==", serializer.Serialize(doc(p(builder.Highlight("a", br(), "b"))).Node))
}

func TestTightLists(t *testing.T) {
	items := func(attrs ...interface{}) builder.NodeWithTag {
		return doc(ul(append(attrs, li(p("a")), li(p("b")))...))
	}

	_, looseSerializer := build(t, markdown.SerializerOptions{})
	_, tightSerializer := build(t, markdown.SerializerOptions{TightLists: true})

	assert.Equal(t, "- a\n\n- b", looseSerializer.Serialize(items().Node))
	assert.Equal(t, "- a\n- b", tightSerializer.Serialize(items().Node))
	assert.Equal(t, "- a\n- b", looseSerializer.Serialize(items(tight).Node))
	assert.Equal(t, "- a\n\n- b", tightSerializer.Serialize(items(loose).Node))

	// Parsed lists record how they were written, so a list without the
	// attribute reads back with it.
	parser, _ := build(t, markdown.SerializerOptions{})
	parsed, err := parser.Parse(looseSerializer.Serialize(items().Node))
	require.NoError(t, err)
	assert.False(t, parsed.Eq(items().Node))
	assert.True(t, parsed.Eq(items(loose).Node))
}

func TestParseErrors(t *testing.T) {
	parser, _ := build(t, markdown.SerializerOptions{})

	for _, text := range []string{"", "  \n\t\n"} {
		_, err := parser.Parse(text)
		assert.ErrorIs(t, err, markdown.ErrNoContent)
	}

	entries := append(builder.Registry.MarkdownEntries(), markdown.Entry{
		Name: "widget",
		Spec: &markdown.Spec{Parse: map[string]*markdown.ParseSpec{"widget": {Node: "widget"}}},
	})
	_, err := markdown.BuildParser(builder.Schema, entries)
	assert.ErrorIs(t, err, markdown.ErrUnknownType)

	entries = append(builder.Registry.MarkdownEntries(), markdown.Entry{
		Name: "widget",
		Spec: &markdown.Spec{Parse: map[string]*markdown.ParseSpec{"widget": {}}},
	})
	_, err = markdown.BuildParser(builder.Schema, entries)
	assert.ErrorIs(t, err, markdown.ErrInvalidMarkdownDeclaration)
}

func TestRules(t *testing.T) {
	parser, _ := build(t, markdown.SerializerOptions{})
	assert.Equal(t, []string{
		"tasklist", "backticks", "subscript", "superscript", "strikethrough",
		"underline", "mark", "emphasis", "link", "autolink", "html_inline",
	}, parser.Rules())

	var types []string
	for _, tok := range parser.Tokenize("==hi==") {
		types = append(types, tok.Type)
		if tok.Type == "inline" {
			for _, child := range tok.Children {
				types = append(types, child.Type)
			}
		}
	}
	assert.Equal(t, []string{"paragraph_open", "inline", "mark_open", "text", "mark_close", "paragraph_close"}, types)
}

func TestBackticksFor(t *testing.T) {
	plain := builder.Schema.Text("x")
	ticked := builder.Schema.Text("a `` b")
	assert.Equal(t, "`", markdown.BackticksFor(plain, -1))
	assert.Equal(t, "`", markdown.BackticksFor(plain, 1))
	assert.Equal(t, "``` ", markdown.BackticksFor(ticked, -1))
	assert.Equal(t, " ```", markdown.BackticksFor(ticked, 1))
}
