package markdown

import "strings"

// Token is a unit of the token stream the parser builds documents from. Its
// shape follows markdown-it: block structure comes as _open and _close pairs
// with Nesting 1 and -1, and the inline content of a block is held in the
// Children of an "inline" token.
type Token struct {
	Type     string
	Tag      string
	Nesting  int
	Content  string
	Markup   string
	Info     string
	Attrs    map[string]string
	Children []*Token
}

// AttrGet returns the value of an attribute, or "" when the token doesn't
// have it.
func (t *Token) AttrGet(name string) string {
	return t.Attrs[name]
}

func (t *Token) String() string {
	var sb strings.Builder
	sb.WriteString(t.Type)
	if t.Content != "" {
		sb.WriteString("(")
		sb.WriteString(t.Content)
		sb.WriteString(")")
	}
	for _, child := range t.Children {
		sb.WriteString(" ")
		sb.WriteString(child.String())
	}
	return sb.String()
}
