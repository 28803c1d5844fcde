package marks

import (
	"golang.org/x/net/html/atom"

	"github.com/shodgson/proseeditor/markdown"
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/registry"
)

// The marks below have no CommonMark syntax. Their delimiters are scanned
// by synthesized tokenizer rules, ordered so that they win over the
// built-in rules sharing their first character.

// Underline is underlined text, written _underline_.
func Underline() *registry.Descriptor {
	return rules{
		name:     UnderlineName,
		spec:     &model.MarkSpec{ToDOM: model.ElementToDOM(atom.U)},
		markdown: delimited(UnderlineName, "_", "underline", "u", true, markdown.Where{Before: "emphasis"}),
		toggle:   "Mod-u",
		inputs:   []string{`(?:^|\s)((?:_)((?:[^_]+))(?:_))$`},
	}.descriptor()
}

// Highlight is highlighted text, written ==highlight==.
func Highlight() *registry.Descriptor {
	return rules{
		name:     HighlightName,
		spec:     &model.MarkSpec{ToDOM: model.ElementToDOM(atom.Mark)},
		markdown: delimited(HighlightName, "==", "mark", "mark", true, markdown.Where{Before: "emphasis"}),
		toggle:   "Mod-=",
		inputs:   []string{`(?:^|\s)((?:==)((?:[^=]+))(?:==))$`},
	}.descriptor()
}

// Superscript is raised text, written ^superscript^.
func Superscript() *registry.Descriptor {
	return rules{
		name:     SuperscriptName,
		spec:     &model.MarkSpec{ToDOM: model.ElementToDOM(atom.Sup)},
		markdown: delimited(SuperscriptName, "^", "superscript", "sup", true, markdown.Where{Before: "strikethrough"}),
		toggle:   "Mod-^",
		inputs:   []string{`(?:^|\s)((?:\^)((?:[^^]+))(?:\^))$`},
	}.descriptor()
}

// Subscript is lowered text, written ~subscript~. Its rule runs before
// strikethrough so that a single tilde isn't read as a strike.
func Subscript() *registry.Descriptor {
	return rules{
		name:     SubscriptName,
		spec:     &model.MarkSpec{ToDOM: model.ElementToDOM(atom.Sub)},
		markdown: delimited(SubscriptName, "~", "subscript", "sub", true, markdown.Where{Before: "strikethrough"}),
		toggle:   "Mod-_",
		inputs:   []string{`(?:^|[^~])((?:~)((?:[^~]+))(?:~))$`},
	}.descriptor()
}
