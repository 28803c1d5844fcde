package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// ContentMatch represents a match state of a node type's content expression,
// and can be used to find out whether further content matches here, and
// whether a given position is a valid end of the node.
type ContentMatch struct {
	// True when this match state represents a valid end of the node.
	ValidEnd bool
	next     []MatchEdge
}

// MatchEdge is an outgoing edge of a content match state.
type MatchEdge struct {
	Type *NodeType
	Next *ContentMatch
}

// NewContentMatch is the constructor for ContentMatch.
func NewContentMatch(validEnd bool) *ContentMatch {
	return &ContentMatch{ValidEnd: validEnd}
}

// EmptyContentMatch is an empty ContentMatch.
var EmptyContentMatch = NewContentMatch(true)

// ParseContentMatch compiles a content expression into a match automaton.
// Node and group names are resolved against nodeTypes, in order.
func ParseContentMatch(str string, nodeTypes []*NodeType) (*ContentMatch, error) {
	stream := newTokenStream(str, nodeTypes)
	if stream.next() == "" {
		return EmptyContentMatch, nil
	}
	expr, err := parseExpr(stream)
	if err != nil {
		return nil, err
	}
	if stream.next() != "" {
		return nil, stream.err("Unexpected trailing text")
	}
	return dfa(nfa(expr)), nil
}

// MatchType matches a node type, returning a match after that node if
// successful.
func (cm *ContentMatch) MatchType(typ *NodeType) *ContentMatch {
	for _, edge := range cm.next {
		if edge.Type == typ {
			return edge.Next
		}
	}
	return nil
}

// MatchFragment tries to match a fragment. Returns the resulting match when
// successful. The optional arguments are the start and end child indexes.
func (cm *ContentMatch) MatchFragment(frag *Fragment, args ...int) *ContentMatch {
	cur := cm
	start := 0
	if len(args) > 0 {
		start = args[0]
	}
	end := frag.ChildCount()
	if len(args) > 1 {
		end = args[1]
	}
	for i := start; cur != nil && i < end; i++ {
		cur = cur.MatchType(frag.Content[i].Type)
	}
	return cur
}

// EdgeCount is the number of outgoing edges this node has in the finite
// automaton that describes the content expression.
func (cm *ContentMatch) EdgeCount() int {
	return len(cm.next)
}

// Edge gets the nth outgoing edge from this node in the finite automaton
// that describes the content expression.
func (cm *ContentMatch) Edge(n int) (MatchEdge, error) {
	if n < 0 || n >= len(cm.next) {
		return MatchEdge{}, fmt.Errorf("there's no %dth edge in this content match", n)
	}
	return cm.next[n], nil
}

// DefaultType gets the first matching node type at this match position that
// can be generated.
func (cm *ContentMatch) DefaultType() *NodeType {
	for _, edge := range cm.next {
		if !(edge.Type.IsText() || edge.Type.HasRequiredAttrs()) {
			return edge.Type
		}
	}
	return nil
}

// FillBefore tries to match the given fragment, and if that fails, sees if
// it can be made to match by inserting nodes in front of it. When
// successful, returns a fragment of inserted nodes (which may be empty if
// nothing had to be inserted). When toEnd is true, only returns a fragment
// if the resulting match goes to the end of the content expression.
func (cm *ContentMatch) FillBefore(after *Fragment, toEnd bool, startIndex int) *Fragment {
	seen := []*ContentMatch{cm}
	var search func(match *ContentMatch, types []*NodeType) *Fragment
	search = func(match *ContentMatch, types []*NodeType) *Fragment {
		finished := match.MatchFragment(after, startIndex)
		if finished != nil && (!toEnd || finished.ValidEnd) {
			nodes := make([]*Node, 0, len(types))
			for _, tp := range types {
				node := tp.CreateAndFill(nil, nil, nil)
				if node == nil {
					return nil
				}
				nodes = append(nodes, node)
			}
			return FragmentFromArray(nodes)
		}
		for _, edge := range match.next {
			if edge.Type.IsText() || edge.Type.HasRequiredAttrs() || containsMatch(seen, edge.Next) {
				continue
			}
			seen = append(seen, edge.Next)
			if found := search(edge.Next, append(append([]*NodeType{}, types...), edge.Type)); found != nil {
				return found
			}
		}
		return nil
	}
	return search(cm, nil)
}

// FindWrapping finds a set of wrapping node types that would allow a node of
// the given type to appear at this position. The result may be empty (when
// it fits directly) and ok is false when no valid wrapping exists.
func (cm *ContentMatch) FindWrapping(target *NodeType) (types []*NodeType, ok bool) {
	type candidate struct {
		match *ContentMatch
		typ   *NodeType
		via   *candidate
	}
	seen := map[string]bool{}
	active := []*candidate{{match: cm}}
	for len(active) > 0 {
		current := active[0]
		active = active[1:]
		if current.match.MatchType(target) != nil {
			result := []*NodeType{}
			for obj := current; obj.typ != nil; obj = obj.via {
				result = append([]*NodeType{obj.typ}, result...)
			}
			return result, true
		}
		for _, edge := range current.match.next {
			typ := edge.Type
			if typ.IsLeaf() || typ.HasRequiredAttrs() || seen[typ.Name] {
				continue
			}
			if current.typ != nil && !edge.Next.ValidEnd {
				continue
			}
			active = append(active, &candidate{match: typ.ContentMatch, typ: typ, via: current})
			seen[typ.Name] = true
		}
	}
	return nil, false
}

func containsMatch(list []*ContentMatch, m *ContentMatch) bool {
	for _, x := range list {
		if x == m {
			return true
		}
	}
	return false
}

func (cm *ContentMatch) inlineContent() bool {
	return len(cm.next) > 0 && cm.next[0].Type.IsInline()
}

func (cm *ContentMatch) compatible(other *ContentMatch) bool {
	for _, a := range cm.next {
		for _, b := range other.next {
			if a.Type == b.Type {
				return true
			}
		}
	}
	return false
}

// String returns a description of the automaton, for debugging.
func (cm *ContentMatch) String() string {
	var seen []*ContentMatch
	var scan func(m *ContentMatch)
	scan = func(m *ContentMatch) {
		seen = append(seen, m)
		for _, edge := range m.next {
			if !containsMatch(seen, edge.Next) {
				scan(edge.Next)
			}
		}
	}
	scan(cm)
	index := func(m *ContentMatch) int {
		for i, x := range seen {
			if x == m {
				return i
			}
		}
		return -1
	}
	lines := make([]string, len(seen))
	for i, m := range seen {
		out := strconv.Itoa(i)
		if m.ValidEnd {
			out += "*"
		}
		out += " "
		for j, edge := range m.next {
			if j > 0 {
				out += ", "
			}
			out += edge.Type.Name + "->" + strconv.Itoa(index(edge.Next))
		}
		lines[i] = out
	}
	return strings.Join(lines, "\n")
}

type tokenStream struct {
	str       string
	nodeTypes []*NodeType
	inline    *bool
	pos       int
	tokens    []string
}

func newTokenStream(str string, nodeTypes []*NodeType) *tokenStream {
	return &tokenStream{
		str:       str,
		nodeTypes: nodeTypes,
		tokens:    tokenizeExpr(str),
	}
}

// tokenizeExpr splits a content expression into words and single
// punctuation characters.
func tokenizeExpr(str string) []string {
	var tokens []string
	runes := []rune(str)
	for i := 0; i < len(runes); {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case isWordRune(c):
			j := i
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
			tokens = append(tokens, string(runes[i:j]))
			i = j
		default:
			tokens = append(tokens, string(c))
			i++
		}
	}
	return tokens
}

func isWordRune(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func (ts *tokenStream) next() string {
	if ts.pos >= len(ts.tokens) {
		return ""
	}
	return ts.tokens[ts.pos]
}

func (ts *tokenStream) eat(tok string) bool {
	if ts.next() != tok {
		return false
	}
	ts.pos++
	return true
}

func (ts *tokenStream) err(format string, args ...interface{}) error {
	str := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s (in content expression %q)", str, ts.str)
}

type exprKind int

const (
	exprChoice exprKind = iota
	exprSeq
	exprPlus
	exprStar
	exprOpt
	exprRange
	exprName
)

type expr struct {
	kind  exprKind
	exprs []*expr
	expr  *expr
	min   int
	max   int
	value *NodeType
}

func parseExpr(stream *tokenStream) (*expr, error) {
	var exprs []*expr
	for {
		seq, err := parseExprSeq(stream)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, seq)
		if !stream.eat("|") {
			break
		}
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &expr{kind: exprChoice, exprs: exprs}, nil
}

func parseExprSeq(stream *tokenStream) (*expr, error) {
	var exprs []*expr
	for {
		sub, err := parseExprSubscript(stream)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, sub)
		if s := stream.next(); s == "" || s == ")" || s == "|" {
			break
		}
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &expr{kind: exprSeq, exprs: exprs}, nil
}

func parseExprSubscript(stream *tokenStream) (*expr, error) {
	e, err := parseExprAtom(stream)
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case stream.eat("+"):
			e = &expr{kind: exprPlus, expr: e}
		case stream.eat("*"):
			e = &expr{kind: exprStar, expr: e}
		case stream.eat("?"):
			e = &expr{kind: exprOpt, expr: e}
		case stream.eat("{"):
			if e, err = parseExprRange(stream, e); err != nil {
				return nil, err
			}
		default:
			return e, nil
		}
	}
}

func parseNum(stream *tokenStream) (int, error) {
	s := stream.next()
	result, err := strconv.Atoi(s)
	if err != nil {
		return 0, stream.err("Expected number, got %q", s)
	}
	stream.pos++
	return result, nil
}

func parseExprRange(stream *tokenStream, e *expr) (*expr, error) {
	min, err := parseNum(stream)
	if err != nil {
		return nil, err
	}
	max := min
	if stream.eat(",") {
		if stream.next() != "}" {
			if max, err = parseNum(stream); err != nil {
				return nil, err
			}
		} else {
			max = -1
		}
	}
	if !stream.eat("}") {
		return nil, stream.err("Unclosed braced range")
	}
	return &expr{kind: exprRange, min: min, max: max, expr: e}, nil
}

func resolveName(stream *tokenStream, name string) ([]*NodeType, error) {
	for _, typ := range stream.nodeTypes {
		if typ.Name == name {
			return []*NodeType{typ}, nil
		}
	}
	var result []*NodeType
	for _, typ := range stream.nodeTypes {
		for _, g := range typ.Groups {
			if g == name {
				result = append(result, typ)
				break
			}
		}
	}
	if len(result) == 0 {
		return nil, stream.err("No node type or group %q found", name)
	}
	return result, nil
}

func parseExprAtom(stream *tokenStream) (*expr, error) {
	if stream.eat("(") {
		e, err := parseExpr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.eat(")") {
			return nil, stream.err("Missing closing paren")
		}
		return e, nil
	}

	s := stream.next()
	if s == "" || !isWordRune([]rune(s)[0]) {
		return nil, stream.err("Unexpected token %q", s)
	}
	types, err := resolveName(stream, s)
	if err != nil {
		return nil, err
	}
	var exprs []*expr
	for _, typ := range types {
		inline := typ.IsInline()
		if stream.inline == nil {
			stream.inline = &inline
		} else if *stream.inline != inline {
			return nil, stream.err("Mixing inline and block content")
		}
		exprs = append(exprs, &expr{kind: exprName, value: typ})
	}
	stream.pos++
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &expr{kind: exprChoice, exprs: exprs}, nil
}

// The content expression is compiled to a finite automaton: first a
// non-deterministic one, which is then turned into a deterministic one.

type nfaEdge struct {
	term *NodeType
	to   int
}

type nfaBuilder struct {
	states [][]*nfaEdge
}

func nfa(e *expr) [][]*nfaEdge {
	b := &nfaBuilder{states: [][]*nfaEdge{{}}}
	b.connect(b.compile(e, 0), b.node())
	return b.states
}

func (b *nfaBuilder) node() int {
	b.states = append(b.states, []*nfaEdge{})
	return len(b.states) - 1
}

func (b *nfaBuilder) edge(from int, to int, term *NodeType) *nfaEdge {
	e := &nfaEdge{term: term, to: to}
	b.states[from] = append(b.states[from], e)
	return e
}

func (b *nfaBuilder) connect(edges []*nfaEdge, to int) {
	for _, e := range edges {
		e.to = to
	}
}

func (b *nfaBuilder) compile(e *expr, from int) []*nfaEdge {
	switch e.kind {
	case exprChoice:
		var out []*nfaEdge
		for _, sub := range e.exprs {
			out = append(out, b.compile(sub, from)...)
		}
		return out
	case exprSeq:
		for i := 0; ; i++ {
			next := b.compile(e.exprs[i], from)
			if i == len(e.exprs)-1 {
				return next
			}
			from = b.node()
			b.connect(next, from)
		}
	case exprStar:
		loop := b.node()
		b.edge(from, loop, nil)
		b.connect(b.compile(e.expr, loop), loop)
		return []*nfaEdge{b.edge(loop, -1, nil)}
	case exprPlus:
		loop := b.node()
		b.connect(b.compile(e.expr, from), loop)
		b.connect(b.compile(e.expr, loop), loop)
		return []*nfaEdge{b.edge(loop, -1, nil)}
	case exprOpt:
		return append([]*nfaEdge{b.edge(from, -1, nil)}, b.compile(e.expr, from)...)
	case exprRange:
		cur := from
		for i := 0; i < e.min; i++ {
			next := b.node()
			b.connect(b.compile(e.expr, cur), next)
			cur = next
		}
		if e.max == -1 {
			b.connect(b.compile(e.expr, cur), cur)
		} else {
			for i := e.min; i < e.max; i++ {
				next := b.node()
				b.edge(cur, next, nil)
				b.connect(b.compile(e.expr, cur), next)
				cur = next
			}
		}
		return []*nfaEdge{b.edge(cur, -1, nil)}
	default:
		return []*nfaEdge{b.edge(from, -1, e.value)}
	}
}

// nullFrom returns the set of states reachable from node through
// non-consuming edges, sorted in descending order.
func nullFrom(states [][]*nfaEdge, node int) []int {
	var result []int
	var scan func(n int)
	scan = func(n int) {
		edges := states[n]
		if len(edges) == 1 && edges[0].term == nil {
			scan(edges[0].to)
			return
		}
		result = append(result, n)
		for _, e := range edges {
			if e.term == nil && !containsInt(result, e.to) {
				scan(e.to)
			}
		}
	}
	scan(node)
	sort.Sort(sort.Reverse(sort.IntSlice(result)))
	return result
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func stateKey(states []int) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

func dfa(states [][]*nfaEdge) *ContentMatch {
	labeled := map[string]*ContentMatch{}
	var explore func(set []int) *ContentMatch
	explore = func(set []int) *ContentMatch {
		type termSet struct {
			term  *NodeType
			nodes []int
		}
		var out []*termSet
		for _, node := range set {
			for _, e := range states[node] {
				if e.term == nil {
					continue
				}
				var ts *termSet
				for _, o := range out {
					if o.term == e.term {
						ts = o
					}
				}
				for _, n := range nullFrom(states, e.to) {
					if ts == nil {
						ts = &termSet{term: e.term}
						out = append(out, ts)
					}
					if !containsInt(ts.nodes, n) {
						ts.nodes = append(ts.nodes, n)
					}
				}
			}
		}
		state := NewContentMatch(containsInt(set, len(states)-1))
		labeled[stateKey(set)] = state
		for _, o := range out {
			sort.Sort(sort.Reverse(sort.IntSlice(o.nodes)))
			next, ok := labeled[stateKey(o.nodes)]
			if !ok {
				next = explore(o.nodes)
			}
			state.next = append(state.next, MatchEdge{Type: o.term, Next: next})
		}
		return state
	}
	return explore(nullFrom(states, 0))
}
