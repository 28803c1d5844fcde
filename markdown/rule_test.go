package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shodgson/proseeditor/model"
)

func underlineRule(t *testing.T, delim string) *Rule {
	rule, err := SynthesizeMarkRule("underline", &Spec{
		Mark:  &MarkSerializerSpec{Open: delim, Close: delim},
		Parse: map[string]*ParseSpec{"underline": {Mark: "underline"}},
		Tag:   "u",
	})
	require.NoError(t, err)
	return rule
}

func tokenTypes(toks []*Token) []string {
	types := make([]string, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestSynthesizedRule(t *testing.T) {
	rule := underlineRule(t, "__")
	assert.Equal(t, "underline", rule.Name)
	assert.Equal(t, "__", rule.Delimiter)

	t.Run("matches a span", func(t *testing.T) {
		s := NewInlineState("the __quick__ brown")
		s.Pos = 4
		require.True(t, rule.Fn(s, false))
		assert.Equal(t, []string{"underline_open", "text", "underline_close"}, tokenTypes(s.Tokens))
		assert.Equal(t, "u", s.Tokens[0].Tag)
		assert.Equal(t, "__", s.Tokens[0].Markup)
		assert.Equal(t, "quick", s.Tokens[1].Content)
		assert.Equal(t, "__", s.Tokens[2].Markup)
		assert.Equal(t, 13, s.Pos)
		assert.Equal(t, len(s.Src), s.PosMax)
	})

	t.Run("declines", func(t *testing.T) {
		for _, src := range []string{"__unterminated", "____", "__", "no delimiter"} {
			s := NewInlineState(src)
			assert.False(t, rule.Fn(s, false), src)
			assert.Empty(t, s.Tokens, src)
			assert.Equal(t, 0, s.Pos, src)
		}
	})

	t.Run("declines in silent mode", func(t *testing.T) {
		s := NewInlineState("__quick__")
		assert.False(t, rule.Fn(s, true))
		assert.Empty(t, s.Tokens)
		assert.Equal(t, 0, s.Pos)
	})

	t.Run("allows whitespace", func(t *testing.T) {
		s := NewInlineState("__multi word mark__")
		require.True(t, rule.Fn(s, false))
		assert.Equal(t, "multi word mark", s.Tokens[1].Content)
	})
}

func TestSynthesizedRuleSkipsTokens(t *testing.T) {
	rule := underlineRule(t, "==")

	s := NewInlineState(`==a \== b==`)
	require.True(t, rule.Fn(s, false))
	assert.Equal(t, "a == b", s.Tokens[1].Content)
	assert.Equal(t, len(s.Src), s.Pos)

	s = NewInlineState("==a `==` b== c")
	require.True(t, rule.Fn(s, false))
	assert.Equal(t, "a `==` b", s.Tokens[1].Content)
	assert.Equal(t, 12, s.Pos)
}

func TestSkipToken(t *testing.T) {
	s := NewInlineState("\\*x")
	s.SkipToken()
	assert.Equal(t, 2, s.Pos)

	s = NewInlineState("\\a")
	s.SkipToken()
	assert.Equal(t, 1, s.Pos)

	s = NewInlineState("``a`b`` c")
	s.SkipToken()
	assert.Equal(t, 7, s.Pos)

	s = NewInlineState("``a")
	s.SkipToken()
	assert.Equal(t, 2, s.Pos)
}

func TestSynthesizeMarkRuleErrors(t *testing.T) {
	delim := MarkDelimiterFunc(func(*SerializerState, *model.Mark, *model.Node, int) string { return "=" })
	cases := map[string]*Spec{
		"nil spec":  nil,
		"no parse":  {Mark: &MarkSerializerSpec{Open: "=="}},
		"no mark":   {Parse: map[string]*ParseSpec{"mark": {Mark: "mark"}}},
		"func open": {Mark: &MarkSerializerSpec{Open: delim}, Parse: map[string]*ParseSpec{"mark": {Mark: "mark"}}},
		"empty":     {Mark: &MarkSerializerSpec{Open: ""}, Parse: map[string]*ParseSpec{"mark": {Mark: "mark"}}},
		"no target": {Mark: &MarkSerializerSpec{Open: "=="}, Parse: map[string]*ParseSpec{"mark": {Node: "image"}}},
	}
	for name, spec := range cases {
		_, err := SynthesizeMarkRule("mark", spec)
		assert.ErrorIs(t, err, ErrInvalidMarkdownDeclaration, name)
	}
}

func TestRuler(t *testing.T) {
	r := NewRuler()
	assert.Equal(t, []string{"tasklist", "backticks", "strikethrough", "emphasis", "link", "autolink", "html_inline"}, r.Names())

	require.NoError(t, r.Insert(underlineRule(t, "==")))
	sub, err := SynthesizeMarkRule("subscript", &Spec{
		Mark:  &MarkSerializerSpec{Open: "~"},
		Parse: map[string]*ParseSpec{"subscript": {Mark: "subscript"}},
		Where: Where{Before: "strikethrough"},
	})
	require.NoError(t, err)
	require.NoError(t, r.Insert(sub))
	sup, err := SynthesizeMarkRule("superscript", &Spec{
		Mark:  &MarkSerializerSpec{Open: "^"},
		Parse: map[string]*ParseSpec{"superscript": {Mark: "superscript"}},
		Where: Where{After: "link"},
	})
	require.NoError(t, err)
	require.NoError(t, r.Insert(sup))
	assert.Equal(t, []string{
		"tasklist", "backticks", "subscript", "strikethrough", "emphasis",
		"underline", "link", "superscript", "autolink", "html_inline",
	}, r.Names())

	bad, err := SynthesizeMarkRule("mark", &Spec{
		Mark:  &MarkSerializerSpec{Open: "=="},
		Parse: map[string]*ParseSpec{"mark": {Mark: "mark"}},
		Where: Where{Before: "nope"},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, r.Insert(bad), ErrUnknownRule)
	assert.ErrorIs(t, r.After("nope", "x", nil), ErrUnknownRule)
	assert.NotNil(t, r.Parser())
}

func TestFenceFor(t *testing.T) {
	assert.Equal(t, "```", FenceFor("plain"))
	assert.Equal(t, "```", FenceFor("a `b` ``c``"))
	assert.Equal(t, "````", FenceFor("```\ncode\n```"))
	assert.Equal(t, "`````", FenceFor("a ```` b"))
}

func TestAttrInt(t *testing.T) {
	attrs := map[string]interface{}{"a": 3, "b": 4.0, "c": int64(5), "d": "6"}
	assert.Equal(t, 3, AttrInt(attrs, "a", 1))
	assert.Equal(t, 4, AttrInt(attrs, "b", 1))
	assert.Equal(t, 5, AttrInt(attrs, "c", 1))
	assert.Equal(t, 1, AttrInt(attrs, "d", 1))
	assert.Equal(t, 7, AttrInt(attrs, "missing", 7))
}
