package markdown

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shodgson/proseeditor/model"
	"github.com/yuin/goldmark/parser"
)

type tokenHandler func(state *parseState, tok *Token) error

// Parser turns Markdown text into documents of a schema. It is safe for
// concurrent use.
type Parser struct {
	schema   *model.Schema
	parser   parser.Parser
	rules    []string
	handlers map[string]tokenHandler
}

// BuildParser assembles the parser for a schema. The marks of entries asking
// for it get a synthesized tokenizer rule, and the parse rules of all the
// entries are merged into one table, later entries winning.
func BuildParser(schema *model.Schema, entries []Entry) (*Parser, error) {
	ruler := NewRuler()
	specs := map[string]*ParseSpec{}
	for _, entry := range entries {
		if entry.Spec == nil {
			continue
		}
		if entry.Spec.Synthesize {
			rule, err := SynthesizeMarkRule(entry.Name, entry.Spec)
			if err != nil {
				return nil, err
			}
			if err := ruler.Insert(rule); err != nil {
				return nil, fmt.Errorf("mark %q: %w", entry.Name, err)
			}
		}
		for name, spec := range entry.Spec.Parse {
			specs[name] = spec
		}
	}
	handlers, err := tokenHandlers(schema, specs)
	if err != nil {
		return nil, err
	}
	return &Parser{
		schema:   schema,
		parser:   ruler.Parser(),
		rules:    ruler.Names(),
		handlers: handlers,
	}, nil
}

// Rules lists the names of the inline rules in the order they are tried.
func (p *Parser) Rules() []string {
	return p.rules
}

// Tokenize returns the token stream of a text.
func (p *Parser) Tokenize(text string) []*Token {
	return tokenize(p.parser, []byte(text))
}

// Parse parses a text. It returns ErrNoContent when the text is blank or
// yields no valid document.
func (p *Parser) Parse(text string) (*model.Node, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoContent
	}
	state := newParseState(p.schema, p.handlers)
	if err := state.parseTokens(p.Tokenize(text)); err != nil {
		return nil, err
	}
	var doc *model.Node
	for len(state.stack) > 0 {
		doc = state.closeNode()
	}
	if doc == nil {
		return nil, ErrNoContent
	}
	return doc, nil
}

func noCloseToken(spec *ParseSpec, typ string) bool {
	return spec.NoCloseToken || typ == "code_inline" || typ == "code_block" || typ == "fence"
}

func withoutTrailingNewline(str string) string {
	return strings.TrimSuffix(str, "\n")
}

func tokenHandlers(schema *model.Schema, specs map[string]*ParseSpec) (map[string]tokenHandler, error) {
	handlers := map[string]tokenHandler{}
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, typ := range names {
		spec := specs[typ]
		switch {
		case spec.Block != "":
			nodeType := schema.Nodes[spec.Block]
			if nodeType == nil {
				return nil, fmt.Errorf("%w: %s (token %s)", ErrUnknownType, spec.Block, typ)
			}
			if noCloseToken(spec, typ) {
				handlers[typ] = func(state *parseState, tok *Token) error {
					state.openNode(nodeType, spec.attrs(tok))
					state.addText(withoutTrailingNewline(tok.Content))
					state.closeNode()
					return nil
				}
			} else {
				handlers[typ+"_open"] = func(state *parseState, tok *Token) error {
					state.openNode(nodeType, spec.attrs(tok))
					return nil
				}
				handlers[typ+"_close"] = func(state *parseState, tok *Token) error {
					state.closeNode()
					return nil
				}
			}
		case spec.Node != "":
			nodeType := schema.Nodes[spec.Node]
			if nodeType == nil {
				return nil, fmt.Errorf("%w: %s (token %s)", ErrUnknownType, spec.Node, typ)
			}
			handlers[typ] = func(state *parseState, tok *Token) error {
				state.addNode(nodeType, spec.attrs(tok), nil)
				return nil
			}
		case spec.Mark != "":
			markType := schema.Marks[spec.Mark]
			if markType == nil {
				return nil, fmt.Errorf("%w: %s (token %s)", ErrUnknownType, spec.Mark, typ)
			}
			if noCloseToken(spec, typ) {
				handlers[typ] = func(state *parseState, tok *Token) error {
					state.openMark(markType.Create(spec.attrs(tok)))
					state.addText(withoutTrailingNewline(tok.Content))
					state.closeMark(markType)
					return nil
				}
			} else {
				handlers[typ+"_open"] = func(state *parseState, tok *Token) error {
					state.openMark(markType.Create(spec.attrs(tok)))
					return nil
				}
				handlers[typ+"_close"] = func(state *parseState, tok *Token) error {
					state.closeMark(markType)
					return nil
				}
			}
		case spec.Ignore:
			noop := func(*parseState, *Token) error { return nil }
			if noCloseToken(spec, typ) {
				handlers[typ] = noop
			} else {
				handlers[typ+"_open"] = noop
				handlers[typ+"_close"] = noop
			}
		default:
			return nil, fmt.Errorf("%w: parse rule for token %s has no target", ErrInvalidMarkdownDeclaration, typ)
		}
	}

	handlers["text"] = func(state *parseState, tok *Token) error {
		state.addText(tok.Content)
		return nil
	}
	handlers["inline"] = func(state *parseState, tok *Token) error {
		return state.parseTokens(tok.Children)
	}
	if _, ok := handlers["softbreak"]; !ok {
		handlers["softbreak"] = func(state *parseState, _ *Token) error {
			state.addText(" ")
			return nil
		}
	}
	// Raw HTML is kept as literal text, or dropped for whole blocks, unless
	// a parse rule claims it.
	if _, ok := handlers["html_inline"]; !ok {
		handlers["html_inline"] = func(state *parseState, tok *Token) error {
			state.addText(tok.Content)
			return nil
		}
	}
	if _, ok := handlers["html_block"]; !ok {
		handlers["html_block"] = func(*parseState, *Token) error { return nil }
	}
	return handlers, nil
}

type stackEntry struct {
	typ     *model.NodeType
	attrs   map[string]interface{}
	content []*model.Node
	marks   []*model.Mark
}

// parseState builds a document out of tokens, keeping a stack of the nodes
// that are open.
type parseState struct {
	schema   *model.Schema
	handlers map[string]tokenHandler
	stack    []*stackEntry
}

func newParseState(schema *model.Schema, handlers map[string]tokenHandler) *parseState {
	return &parseState{
		schema:   schema,
		handlers: handlers,
		stack:    []*stackEntry{{typ: schema.TopNodeType, marks: model.NoMarks}},
	}
}

func (s *parseState) top() *stackEntry {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

func (s *parseState) push(node *model.Node) {
	if top := s.top(); top != nil {
		top.content = append(top.content, node)
	}
}

// addText adds text to the current node, merging it with the text before it
// when they have the same marks.
func (s *parseState) addText(text string) {
	if text == "" {
		return
	}
	top := s.top()
	node := s.schema.Text(text, top.marks)
	if n := len(top.content); n > 0 {
		last := top.content[n-1]
		if last.IsText() && model.SameMarkSet(last.Marks, node.Marks) {
			top.content[n-1] = last.WithText(*last.Text + text)
			return
		}
	}
	top.content = append(top.content, node)
}

func (s *parseState) openMark(mark *model.Mark) {
	top := s.top()
	top.marks = mark.AddToSet(top.marks)
}

func (s *parseState) closeMark(typ *model.MarkType) {
	top := s.top()
	top.marks = typ.RemoveFromSet(top.marks)
}

func (s *parseState) parseTokens(toks []*Token) error {
	for _, tok := range toks {
		handler, ok := s.handlers[tok.Type]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedToken, tok.Type)
		}
		if err := handler(s, tok); err != nil {
			return err
		}
	}
	return nil
}

// addNode adds a node at the current position. It returns nil when the
// content isn't valid for the type.
func (s *parseState) addNode(typ *model.NodeType, attrs map[string]interface{}, content []*model.Node) *model.Node {
	marks := model.NoMarks
	if top := s.top(); top != nil {
		marks = top.marks
	}
	node := typ.CreateAndFill(attrs, content, marks)
	if node == nil {
		return nil
	}
	s.push(node)
	return node
}

func (s *parseState) openNode(typ *model.NodeType, attrs map[string]interface{}) {
	s.stack = append(s.stack, &stackEntry{typ: typ, attrs: attrs, marks: model.NoMarks})
}

func (s *parseState) closeNode() *model.Node {
	info := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return s.addNode(info.typ, info.attrs, info.content)
}
