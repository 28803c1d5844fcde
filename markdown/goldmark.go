package markdown

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindMarkSpan is the kind of MarkSpan nodes.
var KindMarkSpan = ast.NewNodeKind("MarkSpan")

// MarkSpan is the AST node of a span matched by a synthesized rule. It keeps
// the tokens the rule emitted.
type MarkSpan struct {
	ast.BaseInline
	Rule   string
	Tokens []*Token
}

// Kind implements ast.Node.
func (n *MarkSpan) Kind() ast.NodeKind {
	return KindMarkSpan
}

// Dump implements ast.Node.
func (n *MarkSpan) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Rule": n.Rule}, nil)
}

// ruleParser runs a synthesized rule inside goldmark. Spans end on the line
// they start on.
type ruleParser struct {
	rule *Rule
}

func (p *ruleParser) Trigger() []byte {
	return []byte{p.rule.Delimiter[0]}
}

func (p *ruleParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	s := NewInlineState(strings.TrimRight(string(line), "\r\n"))
	if !p.rule.Fn(s, false) {
		return nil
	}
	block.Advance(s.Pos)
	return &MarkSpan{Rule: p.rule.Name, Tokens: s.Tokens}
}

// tokenizer turns a goldmark AST into the token stream.
type tokenizer struct {
	source []byte
	tokens []*Token
}

func tokenize(p parser.Parser, source []byte) []*Token {
	doc := p.Parse(text.NewReader(source))
	t := &tokenizer{source: source}
	t.blocks(doc)
	return t.tokens
}

func (t *tokenizer) push(tok *Token) {
	t.tokens = append(t.tokens, tok)
}

func (t *tokenizer) wrap(open *Token, inner func()) {
	open.Nesting = 1
	typ := strings.TrimSuffix(open.Type, "_open")
	t.push(open)
	inner()
	t.push(&Token{Type: typ + "_close", Tag: open.Tag, Nesting: -1, Markup: open.Markup})
}

func (t *tokenizer) blocks(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		t.block(n)
	}
}

func (t *tokenizer) lines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(t.source))
	}
	return sb.String()
}

func (t *tokenizer) block(n ast.Node) {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		t.wrap(&Token{Type: "paragraph_open", Tag: "p"}, func() { t.inline(n) })
	case *ast.Heading:
		open := &Token{Type: "heading_open", Tag: "h" + strconv.Itoa(n.Level), Markup: strings.Repeat("#", n.Level)}
		t.wrap(open, func() { t.inline(n) })
	case *ast.Blockquote:
		t.wrap(&Token{Type: "blockquote_open", Tag: "blockquote", Markup: ">"}, func() { t.blocks(n) })
	case *ast.ThematicBreak:
		t.push(&Token{Type: "hr", Tag: "hr", Markup: "---"})
	case *ast.FencedCodeBlock:
		info := ""
		if n.Info != nil {
			info = string(n.Info.Segment.Value(t.source))
		}
		t.push(&Token{Type: "fence", Tag: "code", Content: t.lines(n), Info: info, Markup: "```"})
	case *ast.CodeBlock:
		t.push(&Token{Type: "code_block", Tag: "code", Content: t.lines(n)})
	case *ast.List:
		open := &Token{Type: "bullet_list_open", Tag: "ul", Markup: string(n.Marker)}
		open.Attrs = map[string]string{"tight": strconv.FormatBool(n.IsTight)}
		if n.IsOrdered() {
			open.Type, open.Tag = "ordered_list_open", "ol"
			open.Attrs["start"] = strconv.Itoa(n.Start)
		}
		t.wrap(open, func() { t.blocks(n) })
	case *ast.ListItem:
		open := &Token{Type: "list_item_open", Tag: "li"}
		if box := taskCheckBox(n); box != nil {
			open.Attrs = map[string]string{"isDone": strconv.FormatBool(box.IsChecked)}
		}
		t.wrap(open, func() { t.blocks(n) })
	case *ast.HTMLBlock:
		content := t.lines(n)
		if n.HasClosure() {
			content += string(n.ClosureLine.Value(t.source))
		}
		t.push(&Token{Type: "html_block", Content: content})
	default:
		t.blocks(n)
	}
}

// taskCheckBox returns the check box at the start of a task list item.
func taskCheckBox(item *ast.ListItem) *east.TaskCheckBox {
	first := item.FirstChild()
	if first == nil {
		return nil
	}
	box, _ := first.FirstChild().(*east.TaskCheckBox)
	return box
}

func (t *tokenizer) inline(n ast.Node) {
	t.push(&Token{Type: "inline", Children: t.inlines(n, nil)})
}

func (t *tokenizer) inlines(parent ast.Node, out []*Token) []*Token {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = t.inlineNode(n, out)
	}
	return out
}

func (t *tokenizer) inlineNode(n ast.Node, out []*Token) []*Token {
	switch n := n.(type) {
	case *ast.Text:
		value := n.Segment.Value(t.source)
		if n.SoftLineBreak() || n.HardLineBreak() {
			value = util.TrimRightSpace(value)
		}
		if !n.IsRaw() {
			value = util.UnescapePunctuations(value)
			value = util.ResolveNumericReferences(value)
			value = util.ResolveEntityNames(value)
		}
		out = appendText(out, string(value))
		switch {
		case n.HardLineBreak():
			out = append(out, &Token{Type: "hardbreak", Tag: "br"})
		case n.SoftLineBreak():
			out = append(out, &Token{Type: "softbreak", Tag: "br"})
		}
	case *ast.String:
		out = appendText(out, string(n.Value))
	case *ast.Emphasis:
		typ, markup := "em", "*"
		if n.Level == 2 {
			typ, markup = "strong", "**"
		}
		out = append(out, &Token{Type: typ + "_open", Tag: typ, Nesting: 1, Markup: markup})
		out = t.inlines(n, out)
		out = append(out, &Token{Type: typ + "_close", Tag: typ, Nesting: -1, Markup: markup})
	case *east.Strikethrough:
		out = append(out, &Token{Type: "s_open", Tag: "s", Nesting: 1, Markup: "~~"})
		out = t.inlines(n, out)
		out = append(out, &Token{Type: "s_close", Tag: "s", Nesting: -1, Markup: "~~"})
	case *ast.CodeSpan:
		var sb strings.Builder
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if txt, ok := c.(*ast.Text); ok {
				sb.Write(txt.Segment.Value(t.source))
				if txt.SoftLineBreak() {
					sb.WriteByte(' ')
				}
			}
		}
		out = append(out, &Token{Type: "code_inline", Tag: "code", Content: sb.String(), Markup: "`"})
	case *ast.Link:
		open := &Token{Type: "link_open", Tag: "a", Nesting: 1, Attrs: map[string]string{"href": string(n.Destination)}}
		if len(n.Title) > 0 {
			open.Attrs["title"] = string(n.Title)
		}
		out = append(out, open)
		out = t.inlines(n, out)
		out = append(out, &Token{Type: "link_close", Tag: "a", Nesting: -1})
	case *ast.AutoLink:
		href := string(n.URL(t.source))
		out = append(out, &Token{Type: "link_open", Tag: "a", Nesting: 1, Markup: "autolink", Attrs: map[string]string{"href": href}})
		out = appendText(out, string(n.Label(t.source)))
		out = append(out, &Token{Type: "link_close", Tag: "a", Nesting: -1, Markup: "autolink"})
	case *ast.Image:
		alt := t.plainText(n)
		tok := &Token{Type: "image", Tag: "img", Content: alt, Attrs: map[string]string{"src": string(n.Destination), "alt": alt}}
		if len(n.Title) > 0 {
			tok.Attrs["title"] = string(n.Title)
		}
		out = append(out, tok)
	case *ast.RawHTML:
		var sb strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			sb.Write(seg.Value(t.source))
		}
		if raw := sb.String(); raw != MarkSeparator {
			out = append(out, &Token{Type: "html_inline", Content: raw})
		}
	case *east.TaskCheckBox:
		// Carried by the list item.
	case *MarkSpan:
		out = append(out, n.Tokens...)
	default:
		out = t.inlines(n, out)
	}
	return out
}

func (t *tokenizer) plainText(n ast.Node) string {
	var sb strings.Builder
	for _, tok := range t.inlines(n, nil) {
		if tok.Type == "text" || tok.Type == "code_inline" {
			sb.WriteString(tok.Content)
		}
	}
	return sb.String()
}

func appendText(out []*Token, content string) []*Token {
	if content == "" {
		return out
	}
	return append(out, &Token{Type: "text", Content: content})
}
