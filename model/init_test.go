package model_test

import (
	. "github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/test/builder"
)

var (
	schema     = builder.Schema
	doc        = builder.Doc
	blockquote = builder.Blockquote
	h1         = builder.H1
	h2         = builder.H2
	p          = builder.P
	pre        = builder.Pre
	em         = builder.Italic
	strong     = builder.Bold
	code       = builder.Code
	a          = builder.A
	ul         = builder.Ul
	ol         = builder.Ol
	li         = builder.Li
	img        = builder.Img
	br         = builder.Br

	strong2 = schema.Mark("bold")
	em2     = schema.Mark("italic")
	code2   = schema.Mark("code")
	strike2 = schema.Mark("strike")
	link    = func(href string, title ...string) *Mark {
		attrs := map[string]interface{}{"href": href}
		if len(title) > 0 {
			attrs["title"] = title[0]
		}
		return schema.Mark("link", attrs)
	}
)
