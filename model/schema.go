package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrInvalidSchema is returned when a schema specification cannot be turned
// into a schema: unknown types in content expressions, a missing top node,
// and so on.
var ErrInvalidSchema = errors.New("invalid schema")

// AttributeSpec is used to define attributes on nodes or marks.
type AttributeSpec struct {
	// The default value for this attribute, to use when no explicit value is
	// provided.
	Default interface{}
	// Attributes that are required must be given a value when creating a
	// node or mark of that type.
	Required bool
}

// NodeSpec is an object describing a node type.
type NodeSpec struct {
	// The name of the node type.
	Key string
	// The content expression for this node, as described in the schema
	// guide. When not given, the node does not allow any content.
	Content string
	// The marks that are allowed inside of this node. May be a
	// space-separated string referring to mark names or groups, "_" to
	// explicitly allow all marks, or "" to disallow marks. When not given,
	// nodes with inline content default to allowing all marks, other nodes
	// default to not allowing marks.
	Marks *string
	// The group or space-separated groups to which this node belongs, which
	// can be referred to in the content expressions for the schema.
	Group string
	// Should be set to true for inline nodes. (Implied for text nodes.)
	Inline bool
	// Can be set to true to indicate that, though this isn't a leaf node, it
	// doesn't have directly editable content and should be treated as a
	// single unit in the view.
	Atom bool
	// The attributes that nodes of this type get.
	Attrs map[string]*AttributeSpec
	// Controls whether nodes of this type can be selected as a node
	// selection.
	Selectable bool
	// Determines whether nodes of this type can be dragged.
	Draggable bool
	// Can be used to indicate that this node contains code.
	Code bool
	// Determines whether this node is considered an important parent node
	// during replace operations (such as paste).
	Defining bool
	// When enabled, the sides of nodes of this type count as boundaries
	// that regular editing operations won't cross.
	Isolating bool
	// Defines the default way a node of this type should be serialized to
	// DOM/HTML.
	ToDOM ToDOM
	// Defines the default way a node of this type should be serialized to a
	// string representation for debugging.
	ToDebugString func(node *Node) string
}

// MarkSpec is an object describing a mark type.
type MarkSpec struct {
	// The name of the mark type.
	Key string
	// The attributes that marks of this type get.
	Attrs map[string]*AttributeSpec
	// Whether this mark should be active when the cursor is positioned at
	// its end. Defaults to true.
	Inclusive *bool
	// Determines which other marks this mark can coexist with. Should be a
	// space-separated string naming other marks or groups of marks. When not
	// given, only marks of the same type are excluded. An empty string
	// allows all marks to coexist.
	Excludes *string
	// The group or space-separated groups to which this mark belongs.
	Group string
	// Determines whether marks of this type can span multiple adjacent
	// nodes when serialized to DOM/HTML. Defaults to true.
	Spanning *bool
	// Defines the default way marks of this type should be serialized to
	// DOM/HTML.
	ToDOM ToDOM
}

// SchemaSpec is an object describing a schema.
type SchemaSpec struct {
	// The node types in this schema. Order is significant: it determines
	// which parse rules take precedence and which type is the default for a
	// given group.
	Nodes []*NodeSpec
	// The mark types that exist in this schema. The order in which they are
	// provided determines the order in which mark sets are sorted.
	Marks []*MarkSpec
	// The name of the default top-level node for the schema. Defaults to
	// "doc".
	TopNode string
}

// Schema holds the node and mark types, which together describe the
// structure that documents using it can have.
type Schema struct {
	// The spec on which the schema is based.
	Spec *SchemaSpec
	// An object mapping the schema's node names to node type objects.
	Nodes map[string]*NodeType
	// A map from mark names to mark type objects.
	Marks map[string]*MarkType
	// The type of the default top node for this schema.
	TopNodeType *NodeType

	nodeList []*NodeType
	markList []*MarkType
}

// NewSchema constructs a schema from a schema specification.
func NewSchema(spec *SchemaSpec) (*Schema, error) {
	schema := &Schema{
		Spec:  spec,
		Nodes: map[string]*NodeType{},
		Marks: map[string]*MarkType{},
	}
	for _, ns := range spec.Nodes {
		if _, ok := schema.Nodes[ns.Key]; ok {
			return nil, fmt.Errorf("%w: node type %q is defined twice", ErrInvalidSchema, ns.Key)
		}
		typ := newNodeType(ns.Key, schema, ns)
		schema.Nodes[ns.Key] = typ
		schema.nodeList = append(schema.nodeList, typ)
	}
	for i, ms := range spec.Marks {
		if _, ok := schema.Marks[ms.Key]; ok {
			return nil, fmt.Errorf("%w: mark type %q is defined twice", ErrInvalidSchema, ms.Key)
		}
		typ := newMarkType(ms.Key, i, schema, ms)
		schema.Marks[ms.Key] = typ
		schema.markList = append(schema.markList, typ)
	}

	top := spec.TopNode
	if top == "" {
		top = "doc"
	}
	schema.TopNodeType = schema.Nodes[top]
	if schema.TopNodeType == nil {
		return nil, fmt.Errorf("%w: schema is missing its top node type (%q)", ErrInvalidSchema, top)
	}
	text, ok := schema.Nodes["text"]
	if !ok {
		return nil, fmt.Errorf("%w: every schema needs a 'text' type", ErrInvalidSchema)
	}
	if len(text.Attrs) > 0 {
		return nil, fmt.Errorf("%w: the text node type should not have attributes", ErrInvalidSchema)
	}

	contentExprCache := map[string]*ContentMatch{}
	for _, typ := range schema.nodeList {
		expr := typ.Spec.Content
		match, ok := contentExprCache[expr]
		if !ok {
			var err error
			match, err = ParseContentMatch(expr, schema.nodeList)
			if err != nil {
				return nil, fmt.Errorf("%w: node %q: %s", ErrInvalidSchema, typ.Name, err)
			}
			contentExprCache[expr] = match
		}
		typ.ContentMatch = match
		typ.InlineContent = match.inlineContent()

		markExpr := typ.Spec.Marks
		switch {
		case markExpr == nil && typ.InlineContent:
			typ.MarkSet = nil
		case markExpr == nil:
			typ.MarkSet = []*MarkType{}
		case *markExpr == "_":
			typ.MarkSet = nil
		case *markExpr == "":
			typ.MarkSet = []*MarkType{}
		default:
			set, err := gatherMarks(schema, strings.Fields(*markExpr))
			if err != nil {
				return nil, err
			}
			typ.MarkSet = set
		}
	}
	for _, typ := range schema.markList {
		excl := typ.Spec.Excludes
		switch {
		case excl == nil:
			typ.excluded = []*MarkType{typ}
		case *excl == "":
			typ.excluded = []*MarkType{}
		default:
			set, err := gatherMarks(schema, strings.Fields(*excl))
			if err != nil {
				return nil, err
			}
			typ.excluded = set
		}
	}
	return schema, nil
}

// NodeList returns the node types in the order they were declared.
func (s *Schema) NodeList() []*NodeType {
	return s.nodeList
}

// MarkList returns the mark types ordered by rank.
func (s *Schema) MarkList() []*MarkType {
	return s.markList
}

// NodeType returns the node type with the given name.
func (s *Schema) NodeType(name string) (*NodeType, error) {
	if typ, ok := s.Nodes[name]; ok {
		return typ, nil
	}
	return nil, fmt.Errorf("unknown node type: %s", name)
}

// MarkType returns the mark type with the given name.
func (s *Schema) MarkType(name string) (*MarkType, error) {
	if typ, ok := s.Marks[name]; ok {
		return typ, nil
	}
	return nil, fmt.Errorf("unknown mark type: %s", name)
}

// Node creates a node in this schema. The type may be a string or a NodeType
// instance. Attributes will be extended with defaults, content may be a
// Fragment, a node, a slice of nodes, or nil.
func (s *Schema) Node(typ interface{}, attrs map[string]interface{}, content interface{}, marks ...[]*Mark) (*Node, error) {
	var nodeType *NodeType
	switch t := typ.(type) {
	case *NodeType:
		if t.Schema != s {
			return nil, fmt.Errorf("node type from different schema used (%s)", t.Name)
		}
		nodeType = t
	case string:
		var err error
		if nodeType, err = s.NodeType(t); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid node type: %v (%T)", typ, typ)
	}
	var ms []*Mark
	if len(marks) > 0 {
		ms = marks[0]
	}
	return nodeType.CreateChecked(attrs, content, ms)
}

// Text creates a text node in the schema. Empty text nodes are not allowed.
func (s *Schema) Text(text string, marks ...[]*Mark) *Node {
	typ := s.Nodes["text"]
	var set []*Mark
	if len(marks) > 0 {
		set = MarkSetFrom(marks[0])
	}
	return NewTextNode(typ, typ.DefaultAttrs, text, set)
}

// Mark creates a mark with the given type and attributes.
func (s *Schema) Mark(name string, attrs ...map[string]interface{}) *Mark {
	typ := s.Marks[name]
	if typ == nil {
		return nil
	}
	var a map[string]interface{}
	if len(attrs) > 0 {
		a = attrs[0]
	}
	return typ.Create(a)
}

// NodeType objects are allocated once per Schema and used to tag Node
// instances. They contain information about the node type, such as its name
// and what kind of node it represents.
type NodeType struct {
	// The name the node type has in this schema.
	Name string
	// A link back to the Schema the node type belongs to.
	Schema *Schema
	// The spec that this type is based on
	Spec *NodeSpec
	// The starting match of the node type's content expression.
	ContentMatch *ContentMatch
	// True if this node type has inline content.
	InlineContent bool
	// The set of marks allowed in this node. nil means that all marks are
	// allowed.
	MarkSet []*MarkType
	// The groups this node type belongs to.
	Groups []string
	// The attribute specs, keyed by name.
	Attrs map[string]*AttributeSpec
	// The attributes used when none are given.
	DefaultAttrs map[string]interface{}
}

func newNodeType(name string, schema *Schema, spec *NodeSpec) *NodeType {
	return &NodeType{
		Name:         name,
		Schema:       schema,
		Spec:         spec,
		Groups:       strings.Fields(spec.Group),
		Attrs:        spec.Attrs,
		DefaultAttrs: defaultAttrs(spec.Attrs),
		ContentMatch: EmptyContentMatch,
	}
}

// IsBlock is true if this is a block type.
func (nt *NodeType) IsBlock() bool {
	return !(nt.Spec.Inline || nt.Name == "text")
}

// IsInline is true if this is an inline type.
func (nt *NodeType) IsInline() bool {
	return !nt.IsBlock()
}

// IsText is true if this is the text node type.
func (nt *NodeType) IsText() bool {
	return nt.Name == "text"
}

// IsTextblock is true if this is a textblock type, a block that contains
// inline content.
func (nt *NodeType) IsTextblock() bool {
	return nt.IsBlock() && nt.InlineContent
}

// IsLeaf is true for node types that allow no content.
func (nt *NodeType) IsLeaf() bool {
	return nt.ContentMatch == EmptyContentMatch
}

// IsAtom is true when this node is an atom, i.e. when it does not have
// directly editable content.
func (nt *NodeType) IsAtom() bool {
	return nt.IsLeaf() || nt.Spec.Atom
}

// HasRequiredAttrs tells you whether this node type has any required
// attributes.
func (nt *NodeType) HasRequiredAttrs() bool {
	for _, attr := range nt.Attrs {
		if attr.Required {
			return true
		}
	}
	return false
}

// CompatibleContent indicates whether this node allows some of the same
// content as the given node type.
func (nt *NodeType) CompatibleContent(other *NodeType) bool {
	return nt == other || nt.ContentMatch.compatible(other.ContentMatch)
}

func (nt *NodeType) computeAttrs(attrs map[string]interface{}) (map[string]interface{}, error) {
	if attrs == nil && !nt.HasRequiredAttrs() {
		return nt.DefaultAttrs, nil
	}
	return computeAttrs(nt.Attrs, attrs)
}

// Create a Node of this type. The given attributes are checked and
// defaulted (you can pass nil to use the type's defaults entirely, if no
// required attributes exist). content may be a Fragment, a node, a slice of
// nodes, or nil. Similarly marks may be nil to default to the empty set of
// marks.
func (nt *NodeType) Create(attrs map[string]interface{}, content interface{}, marks []*Mark) (*Node, error) {
	if nt.IsText() {
		return nil, errors.New("NodeType.create can't construct text nodes")
	}
	computed, err := nt.computeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	frag, err := FragmentFrom(content)
	if err != nil {
		return nil, err
	}
	return NewNode(nt, computed, frag, MarkSetFrom(marks)), nil
}

// CreateChecked is like Create, but checks the given content against the
// node type's content restrictions, and returns an error if it doesn't match.
func (nt *NodeType) CreateChecked(attrs map[string]interface{}, content interface{}, marks []*Mark) (*Node, error) {
	frag, err := FragmentFrom(content)
	if err != nil {
		return nil, err
	}
	if !nt.ValidContent(frag) {
		return nil, fmt.Errorf("invalid content for node %s", nt.Name)
	}
	return nt.Create(attrs, frag, marks)
}

// CreateAndFill is like Create, but sees if it is necessary to add nodes to
// the start or end of the given fragment to make it fit the node. If no
// fitting wrapping can be found, it returns nil. Note that, due to the fact
// that required nodes can always be created, this will always succeed if
// you pass nil or an empty fragment as content.
func (nt *NodeType) CreateAndFill(attrs map[string]interface{}, content interface{}, marks []*Mark) *Node {
	computed, err := nt.computeAttrs(attrs)
	if err != nil {
		return nil
	}
	frag, err := FragmentFrom(content)
	if err != nil {
		return nil
	}
	if frag.Size > 0 {
		before := nt.ContentMatch.FillBefore(frag, false, 0)
		if before == nil {
			return nil
		}
		frag = before.Append(frag)
	}
	matched := nt.ContentMatch.MatchFragment(frag)
	if matched == nil {
		return nil
	}
	after := matched.FillBefore(EmptyFragment, true, 0)
	if after == nil {
		return nil
	}
	return NewNode(nt, computed, frag.Append(after), MarkSetFrom(marks))
}

// ValidContent returns true if the given fragment is valid content for this
// node type with the given attributes.
func (nt *NodeType) ValidContent(content *Fragment) bool {
	result := nt.ContentMatch.MatchFragment(content)
	if result == nil || !result.ValidEnd {
		return false
	}
	for _, child := range content.Content {
		if !nt.AllowsMarks(child.Marks) {
			return false
		}
	}
	return true
}

// AllowsMarkType checks whether the given mark type is allowed in this node.
func (nt *NodeType) AllowsMarkType(markType *MarkType) bool {
	if nt.MarkSet == nil {
		return true
	}
	for _, mt := range nt.MarkSet {
		if mt == markType {
			return true
		}
	}
	return false
}

// AllowsMarks tests whether the given set of marks are allowed in this node.
func (nt *NodeType) AllowsMarks(marks []*Mark) bool {
	if nt.MarkSet == nil {
		return true
	}
	for _, mark := range marks {
		if !nt.AllowsMarkType(mark.Type) {
			return false
		}
	}
	return true
}

// AllowedMarks removes the marks that are not allowed in this node from the
// given set.
func (nt *NodeType) AllowedMarks(marks []*Mark) []*Mark {
	if nt.MarkSet == nil {
		return marks
	}
	var cpy []*Mark
	for i, mark := range marks {
		if !nt.AllowsMarkType(mark.Type) {
			if cpy == nil {
				cpy = append([]*Mark{}, marks[:i]...)
			}
		} else if cpy != nil {
			cpy = append(cpy, mark)
		}
	}
	if cpy == nil {
		return marks
	}
	if len(cpy) == 0 {
		return NoMarks
	}
	return cpy
}

// MarkType is the type object for marks. Like nodes, marks (which are
// associated with nodes to signify things like emphasis or being part of a
// link) are tagged with type objects, which are instantiated once per Schema.
type MarkType struct {
	// The name of the mark type.
	Name string
	// Position of the mark type in the schema, used to sort mark sets.
	Rank int
	// The schema that this mark type instance is part of.
	Schema *Schema
	// The spec on which the type is based.
	Spec *MarkSpec
	// The attribute specs, keyed by name.
	Attrs map[string]*AttributeSpec

	excluded []*MarkType
	instance *Mark
}

func newMarkType(name string, rank int, schema *Schema, spec *MarkSpec) *MarkType {
	mt := &MarkType{
		Name:   name,
		Rank:   rank,
		Schema: schema,
		Spec:   spec,
		Attrs:  spec.Attrs,
	}
	defaults := defaultAttrs(spec.Attrs)
	if defaults != nil {
		mt.instance = &Mark{Type: mt, Attrs: defaults}
	}
	return mt
}

// Create a mark of this type. attrs may be nil or an object containing only
// some of the mark's attributes. The others, if they have defaults, will be
// added.
func (mt *MarkType) Create(attrs map[string]interface{}) *Mark {
	if attrs == nil && mt.instance != nil {
		return mt.instance
	}
	computed, err := computeAttrs(mt.Attrs, attrs)
	if err != nil {
		computed = attrs
	}
	return &Mark{Type: mt, Attrs: computed}
}

// RemoveFromSet returns a set of marks with any instances of this mark type
// removed.
func (mt *MarkType) RemoveFromSet(set []*Mark) []*Mark {
	var result []*Mark
	for i, mark := range set {
		if mark.Type == mt {
			if result == nil {
				result = append([]*Mark{}, set[:i]...)
			}
			continue
		}
		if result != nil {
			result = append(result, mark)
		}
	}
	if result == nil {
		return set
	}
	return result
}

// IsInSet tests whether there is a mark of this type in the given set.
func (mt *MarkType) IsInSet(set []*Mark) *Mark {
	for _, mark := range set {
		if mark.Type == mt {
			return mark
		}
	}
	return nil
}

// Excludes queries whether a given mark type is excluded by this one.
func (mt *MarkType) Excludes(other *MarkType) bool {
	for _, ex := range mt.excluded {
		if ex == other {
			return true
		}
	}
	return false
}

func defaultAttrs(attrs map[string]*AttributeSpec) map[string]interface{} {
	defaults := map[string]interface{}{}
	for name, attr := range attrs {
		if attr.Required {
			return nil
		}
		defaults[name] = attr.Default
	}
	return defaults
}

func computeAttrs(attrs map[string]*AttributeSpec, value map[string]interface{}) (map[string]interface{}, error) {
	built := map[string]interface{}{}
	for name, attr := range attrs {
		given, ok := value[name]
		if !ok {
			if attr.Required {
				return nil, fmt.Errorf("no value supplied for attribute %s", name)
			}
			given = attr.Default
		}
		built[name] = given
	}
	return built, nil
}

func gatherMarks(schema *Schema, names []string) ([]*MarkType, error) {
	found := []*MarkType{}
	for _, name := range names {
		if mark, ok := schema.Marks[name]; ok {
			found = append(found, mark)
			continue
		}
		ok := false
		for _, mark := range schema.markList {
			if name == "_" || hasGroup(mark.Spec.Group, name) {
				found = append(found, mark)
				ok = true
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: unknown mark type: %q", ErrInvalidSchema, name)
		}
	}
	return found, nil
}

func hasGroup(groups, name string) bool {
	for _, g := range strings.Fields(groups) {
		if g == name {
			return true
		}
	}
	return false
}

func sameAttrs(a, b map[string]interface{}) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
