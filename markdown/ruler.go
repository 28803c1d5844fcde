package markdown

import (
	"fmt"

	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"
)

type namedParser struct {
	name   string
	parser parser.InlineParser
}

// Ruler is the ordered list of named inline rules. When several rules
// trigger on the same character, the one registered first is tried first.
type Ruler struct {
	rules []namedParser
}

// NewRuler returns a ruler holding the built-in rules: tasklist, backticks,
// strikethrough, emphasis, link, autolink and html_inline.
func NewRuler() *Ruler {
	return &Ruler{rules: []namedParser{
		{"tasklist", extension.NewTaskCheckBoxParser()},
		{"backticks", parser.NewCodeSpanParser()},
		{"strikethrough", extension.NewStrikethroughParser()},
		{"emphasis", parser.NewEmphasisParser()},
		{"link", parser.NewLinkParser()},
		{"autolink", parser.NewAutoLinkParser()},
		{"html_inline", parser.NewRawHTMLParser()},
	}}
}

func (r *Ruler) index(name string) int {
	for i, rule := range r.rules {
		if rule.name == name {
			return i
		}
	}
	return -1
}

func (r *Ruler) insertAt(i int, name string, p parser.InlineParser) {
	r.rules = append(r.rules, namedParser{})
	copy(r.rules[i+1:], r.rules[i:])
	r.rules[i] = namedParser{name, p}
}

// Before inserts a rule right before the anchor rule.
func (r *Ruler) Before(anchor, name string, p parser.InlineParser) error {
	i := r.index(anchor)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRule, anchor)
	}
	r.insertAt(i, name, p)
	return nil
}

// After inserts a rule right after the anchor rule.
func (r *Ruler) After(anchor, name string, p parser.InlineParser) error {
	i := r.index(anchor)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRule, anchor)
	}
	r.insertAt(i+1, name, p)
	return nil
}

// Insert places a synthesized rule where it asks to be, after "emphasis"
// by default.
func (r *Ruler) Insert(rule *Rule) error {
	p := &ruleParser{rule: rule}
	switch {
	case rule.Where.Before != "":
		return r.Before(rule.Where.Before, rule.Name, p)
	case rule.Where.After != "":
		return r.After(rule.Where.After, rule.Name, p)
	default:
		return r.After("emphasis", rule.Name, p)
	}
}

// Names lists the rules in order.
func (r *Ruler) Names() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.name
	}
	return names
}

// Parser builds the goldmark parser running the rules. Lower priorities run
// first, so priorities follow the order of the rules.
func (r *Ruler) Parser() parser.Parser {
	inline := make([]util.PrioritizedValue, len(r.rules))
	for i, rule := range r.rules {
		inline[i] = util.Prioritized(rule.parser, (i+1)*100)
	}
	return parser.NewParser(
		parser.WithBlockParsers(parser.DefaultBlockParsers()...),
		parser.WithInlineParsers(inline...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
	)
}
