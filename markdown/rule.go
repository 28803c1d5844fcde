package markdown

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// escapable holds the characters a backslash escapes.
const escapable = "\\!\"#$%&'()*+,./:;<=>?@[]^_`{|}~-"

// unescapeRegexp also unescapes spaces.
var unescapeRegexp = regexp.MustCompile("\\\\([ \\\\!\"#$%&'()*+,./:;<=>?@[\\]^_`{|}~-])")

// InlineState is the scanner state inline rules run on: the source of a
// line, the scan cursor and the tokens emitted so far.
type InlineState struct {
	Src string
	// Pos is the scan cursor.
	Pos int
	// PosMax is the end of the text the rule may look at.
	PosMax int
	Tokens []*Token
}

// NewInlineState returns a state scanning src from its start.
func NewInlineState(src string) *InlineState {
	return &InlineState{Src: src, PosMax: len(src)}
}

// Push appends a token.
func (s *InlineState) Push(typ, tag string, nesting int) *Token {
	tok := &Token{Type: typ, Tag: tag, Nesting: nesting}
	s.Tokens = append(s.Tokens, tok)
	return tok
}

// SkipToken moves the cursor past the token starting at the cursor: a
// backslash escape, a code span, or a single byte of text.
func (s *InlineState) SkipToken() {
	switch s.Src[s.Pos] {
	case '\\':
		if s.Pos+1 < s.PosMax && strings.IndexByte(escapable, s.Src[s.Pos+1]) >= 0 {
			s.Pos += 2
			return
		}
	case '`':
		opener := s.backtickRun(s.Pos)
		for i := s.Pos + opener; i < s.PosMax; {
			if s.Src[i] != '`' {
				i++
				continue
			}
			closer := s.backtickRun(i)
			if closer == opener {
				s.Pos = i + closer
				return
			}
			i += closer
		}
		// An unmatched run of backticks is literal text.
		s.Pos += opener
		return
	}
	s.Pos++
}

func (s *InlineState) backtickRun(pos int) int {
	n := 0
	for pos+n < s.PosMax && s.Src[pos+n] == '`' {
		n++
	}
	return n
}

// RuleFunc is an inline rule. It looks at the text at the cursor and either
// emits tokens, moves the cursor past them and returns true, or leaves the
// state alone and returns false. In silent mode a rule only tells whether it
// would match, without emitting anything.
type RuleFunc func(s *InlineState, silent bool) bool

// Rule is a named inline rule scanning for a fixed delimiter.
type Rule struct {
	// Name is the rule name, which is also the base name of the tokens it
	// emits: Name_open, text, Name_close.
	Name string
	// Delimiter opens and closes the span.
	Delimiter string
	Where     Where
	Fn        RuleFunc
}

// SynthesizeMarkRule builds the rule recognizing a mark written between two
// copies of its literal Open delimiter, like ==highlight==. The rule is
// named after the mark's parse rule. Whitespace is allowed inside the span.
//
// Synthesized rules never match in silent mode, so other rules cannot look
// ahead into them.
func SynthesizeMarkRule(name string, spec *Spec) (*Rule, error) {
	if spec == nil || len(spec.Parse) == 0 {
		return nil, fmt.Errorf("%w: mark %q has no parse rules", ErrInvalidMarkdownDeclaration, name)
	}
	if spec.Mark == nil {
		return nil, fmt.Errorf("%w: mark %q has no serializer", ErrInvalidMarkdownDeclaration, name)
	}
	delim, ok := spec.Mark.Open.(string)
	if !ok || delim == "" {
		return nil, fmt.Errorf("%w: mark %q needs a literal opening delimiter", ErrInvalidMarkdownDeclaration, name)
	}
	tokenName := ""
	keys := make([]string, 0, len(spec.Parse))
	for key := range spec.Parse {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if spec.Parse[key] != nil && spec.Parse[key].Mark != "" {
			tokenName = key
			break
		}
	}
	if tokenName == "" {
		return nil, fmt.Errorf("%w: mark %q has no parse rule producing a mark", ErrInvalidMarkdownDeclaration, name)
	}
	tag := spec.Tag

	fn := func(s *InlineState, silent bool) bool {
		start, max := s.Pos, s.PosMax
		if !strings.HasPrefix(s.Src[start:max], delim) {
			return false
		}
		if silent {
			return false
		}
		contentStart := start + len(delim)
		if contentStart >= max {
			return false
		}

		s.Pos = contentStart
		found := false
		for s.Pos < max {
			if strings.HasPrefix(s.Src[s.Pos:max], delim) {
				found = true
				break
			}
			s.SkipToken()
		}
		if !found || s.Pos == contentStart {
			s.Pos = start
			return false
		}

		content := s.Src[contentStart:s.Pos]
		s.PosMax = s.Pos
		s.Pos = contentStart

		open := s.Push(tokenName+"_open", tag, 1)
		open.Markup = delim
		text := s.Push("text", "", 0)
		text.Content = unescapeRegexp.ReplaceAllString(content, "$1")
		closing := s.Push(tokenName+"_close", tag, -1)
		closing.Markup = delim

		s.Pos = s.PosMax + len(delim)
		s.PosMax = max
		return true
	}
	return &Rule{Name: tokenName, Delimiter: delim, Where: spec.Where, Fn: fn}, nil
}
