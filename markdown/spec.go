// Package markdown converts documents to and from Markdown. Node and mark
// descriptors declare how they round-trip with a Spec; BuildParser and
// BuildSerializer assemble those declarations into the two halves of the
// conversion.
package markdown

import "errors"

var (
	// ErrInvalidMarkdownDeclaration is returned when a mark asks for a
	// synthesized tokenizer rule without parse rules or a literal opening
	// delimiter.
	ErrInvalidMarkdownDeclaration = errors.New("invalid markdown declaration")
	// ErrUnknownRule is returned when a rule is ordered relative to a rule
	// that isn't registered.
	ErrUnknownRule = errors.New("unknown tokenizer rule")
	// ErrUnknownType is returned when a parse rule refers to a node or mark
	// type missing from the schema.
	ErrUnknownType = errors.New("unknown node or mark type")
	// ErrUnsupportedToken is returned when the tokenizer produces a token no
	// parse rule handles.
	ErrUnsupportedToken = errors.New("token not supported by markdown parser")
	// ErrNoContent is returned by Parse when the text yields no document.
	// Callers fall back to an empty document of the schema.
	ErrNoContent = errors.New("markdown has no content")
)

// Spec describes how a node or a mark round-trips through Markdown.
type Spec struct {
	// Node serializes a node. Only set for nodes.
	Node NodeSerializerFunc
	// Mark serializes a mark. Only set for marks.
	Mark *MarkSerializerSpec
	// Parse maps token names to the node or mark they produce.
	Parse map[string]*ParseSpec
	// Tag is the tag of the tokens emitted by a synthesized rule, like "u"
	// or "sup".
	Tag string
	// Where orders the synthesized rule among the tokenizer rules. The zero
	// value puts it right after "emphasis".
	Where Where
	// LineBreak marks inline nodes written as a line break. Marks ending on
	// such a node are closed before it.
	LineBreak bool
	// Synthesize asks for a tokenizer rule scanning for the literal Open
	// delimiter of the mark, for syntax the tokenizer doesn't know.
	Synthesize bool
}

// Where orders a rule relative to another. Before wins when both are set.
type Where struct {
	Before string
	After  string
}

// ParseSpec describes what a token, or a pair of _open and _close tokens,
// turns into. Exactly one of Block, Node, Mark and Ignore should be set.
type ParseSpec struct {
	// Block wraps the content between the _open and _close tokens in a node
	// of this type.
	Block string
	// Node creates a leaf node of this type for a single token.
	Node string
	// Mark applies a mark of this type to the content between the _open and
	// _close tokens.
	Mark string
	// Attrs are the attributes of the node or mark.
	Attrs map[string]interface{}
	// GetAttrs computes the attributes from the token. It takes precedence
	// over Attrs.
	GetAttrs func(tok *Token) map[string]interface{}
	// NoCloseToken marks tokens carrying their content in Content, like
	// code_inline or fence, instead of being a pair of _open and _close
	// tokens.
	NoCloseToken bool
	// Ignore drops the token.
	Ignore bool
}

func (p *ParseSpec) attrs(tok *Token) map[string]interface{} {
	if p.GetAttrs != nil {
		return p.GetAttrs(tok)
	}
	return p.Attrs
}

// Entry names a Spec. The name is the node or mark type it belongs to.
type Entry struct {
	Name string
	Spec *Spec
}
