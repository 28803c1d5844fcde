package markdown

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shodgson/proseeditor/model"
)

// NodeSerializerFunc is the function to serialize a node.
type NodeSerializerFunc func(state *SerializerState, node, parent *model.Node, index int)

// MarkDelimiterFunc computes a mark delimiter from the context of the mark.
// parent and index point at the node the mark opens or closes at.
type MarkDelimiterFunc func(state *SerializerState, mark *model.Mark, parent *model.Node, index int) string

// MarkSerializerSpec is the serializer info for a mark.
//
// Open and Close hold the strings that appear before and after a piece of
// text marked that way, either directly or as a MarkDelimiterFunc.
//
// Mixable marks may be opened and closed in a different order relative to
// other mixable marks. (For example, you can say `**a *b***` and
// `*a **b***`, but not “ `a *b*` “.)
//
// NoEscape disables character escaping in the marked text. Such a mark has
// to have the highest precedence (must always be the innermost mark).
//
// ExpelEnclosingWhitespace moves whitespace from inside the marks to outside
// the marks. CommonMark does not permit enclosing whitespace inside emphasis
// marks, see: http://spec.commonmark.org/0.26/#example-330
type MarkSerializerSpec struct {
	Open                     interface{} // string or MarkDelimiterFunc
	Close                    interface{} // string or MarkDelimiterFunc
	Mixable                  bool
	ExpelEnclosingWhitespace bool
	NoEscape                 bool
}

var emptyMarkSpec = &MarkSerializerSpec{}

// MarkSeparator is written between the delimiters of two marks when they
// would run together into a single delimiter run, like the ~~ of a strike
// and the ~ of a subscript. The tokenizer drops it.
const MarkSeparator = "<!-- -->"

// SerializerOptions are the options of BuildSerializer.
type SerializerOptions struct {
	// TightLists renders lists without blank lines between items. A list
	// node can override it with a boolean "tight" attribute.
	TightLists bool
}

// Serializer is a specification for serializing a document as
// Markdown/CommonMark text. It is safe for concurrent use.
type Serializer struct {
	Nodes      map[string]NodeSerializerFunc
	Marks      map[string]*MarkSerializerSpec
	lineBreaks map[string]bool
	escape     *regexp.Regexp
	escapeAll  bool
	tightLists bool

	// synthesized marks have no CommonMark syntax, so their spans end at
	// hard breaks.
	synthesized map[string]bool
}

// BuildSerializer assembles the serializer of the nodes and marks of the
// entries. The characters of the delimiters of synthesized marks are
// escaped in text, so that text never reads as such a mark.
func BuildSerializer(entries []Entry, opts SerializerOptions) *Serializer {
	s := &Serializer{
		Nodes:      map[string]NodeSerializerFunc{},
		Marks:      map[string]*MarkSerializerSpec{},
		lineBreaks: map[string]bool{},
		tightLists: opts.TightLists,

		synthesized: map[string]bool{},
	}
	chars := "`*\\~[]"
	for _, entry := range entries {
		spec := entry.Spec
		if spec == nil {
			continue
		}
		if spec.Node != nil {
			s.Nodes[entry.Name] = spec.Node
		}
		if spec.Mark != nil {
			s.Marks[entry.Name] = spec.Mark
		}
		if spec.LineBreak {
			s.lineBreaks[entry.Name] = true
		}
		if delim, ok := spec.Mark.openString(); ok && spec.Synthesize {
			s.synthesized[entry.Name] = true
			for _, c := range delim {
				if !strings.ContainsRune(chars, c) {
					chars += string(c)
				}
			}
		}
	}
	var class strings.Builder
	for _, c := range chars {
		if c < unicode.MaxASCII && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			class.WriteByte('\\')
		}
		class.WriteRune(c)
	}
	s.escape = regexp.MustCompile("([" + class.String() + "])")
	s.escapeAll = strings.ContainsRune(chars, '_')
	return s
}

func (m *MarkSerializerSpec) openString() (string, bool) {
	if m == nil {
		return "", false
	}
	open, ok := m.Open.(string)
	return open, ok
}

// Serialize the content of the given node to
// [CommonMark](http://commonmark.org/).
func (s *Serializer) Serialize(content *model.Node) string {
	state := &SerializerState{serializer: s, tightLists: s.tightLists}
	state.RenderContent(content)
	return state.Out
}

// AttrInt reads an integer attribute, whether it holds an int or a float.
func AttrInt(attrs map[string]interface{}, name string, defaultValue int) int {
	value := defaultValue
	switch v := attrs[name].(type) {
	case int:
		value = v
	case float64:
		value = int(v)
	case int64:
		value = int(v)
	}
	return value
}

// BackticksFor returns the backticks delimiting inline code holding the text
// of node: one more than its longest run of backticks, padded with a space
// on the inner side when the text has backticks.
func BackticksFor(node *model.Node, side int) string {
	length := 0
	if node.IsText() {
		ticks := strings.FieldsFunc(*node.Text, func(r rune) bool { return r != '`' })
		for _, t := range ticks {
			if l := len(t); l > length {
				length = l
			}
		}
	}
	result := "`"
	if length > 0 && side > 0 {
		result = " `"
	}
	for i := 0; i < length; i++ {
		result += "`"
	}
	if length > 0 && side < 0 {
		result += " "
	}
	return result
}

// FenceFor returns the fence of a code block holding text: three backticks,
// or one more than the longest run of backticks in text.
func FenceFor(text string) string {
	length := 2
	for _, run := range strings.FieldsFunc(text, func(r rune) bool { return r != '`' }) {
		if len(run) > length {
			length = len(run)
		}
	}
	return strings.Repeat("`", length+1)
}

// IsPlainURL tells whether a link can be written as an autolink: its text
// is its href, and it has no title.
func IsPlainURL(link *model.Mark, parent *model.Node, index int) bool {
	if title, _ := link.Attrs["title"].(string); title != "" {
		return false
	}
	href, _ := link.Attrs["href"].(string)
	if !strings.Contains(href, ":") {
		return false
	}
	content, err := parent.Child(index)
	if err != nil {
		return true
	}
	if !content.IsText() || *content.Text != href || content.Marks[len(content.Marks)-1] != link {
		return false
	}
	if index == parent.ChildCount()-1 {
		return true
	}
	next, err := parent.Child(index + 1)
	if err != nil {
		return true
	}
	return !link.IsInSet(next.Marks)
}

// SerializerState is an object used to track state and expose methods related
// to markdown serialization. Instances are passed to node and mark
// serialization methods.
type SerializerState struct {
	Delim        string
	Out          string
	Closed       *model.Node
	InAutoLink   bool
	AtBlockStart bool
	InTightList  bool

	serializer *Serializer
	tightLists bool
}

func (s *SerializerState) markSpec(name string) *MarkSerializerSpec {
	if spec := s.serializer.Marks[name]; spec != nil {
		return spec
	}
	return emptyMarkSpec
}

func (s *SerializerState) flushClose(size ...int) {
	if s.Closed == nil {
		return
	}
	s.EnsureNewLine()
	siz := 2
	if len(size) > 0 {
		siz = size[0]
	}
	if siz > 1 {
		delimMin := strings.TrimRightFunc(s.Delim, unicode.IsSpace)
		for i := 1; i < siz; i++ {
			s.Out += delimMin + "\n"
		}
	}
	s.Closed = nil
}

// WrapBlock renders a block, prefixing each line with `delim`, and the first
// line in `firstDelim`. `node` should be the node that is closed at the end of
// the block, and `f` is a function that renders the content of the block.
func (s *SerializerState) WrapBlock(delim string, firstDelim *string, node *model.Node, f func()) {
	old := s.Delim
	d := delim
	if firstDelim != nil {
		d = *firstDelim
	}
	s.Write(d)
	s.Delim += delim
	f()
	s.Delim = old
	s.CloseBlock(node)
}

func (s *SerializerState) atBlank() bool {
	if len(s.Out) == 0 {
		return true
	}
	return s.Out[len(s.Out)-1] == '\n'
}

// EnsureNewLine ensures the current content ends with a newline.
func (s *SerializerState) EnsureNewLine() {
	if !s.atBlank() {
		s.Out += "\n"
	}
}

// Write prepares the state for writing output (closing closed paragraphs,
// adding delimiters, and so on), and then optionally add content
// (unescaped) to the output.
func (s *SerializerState) Write(content ...string) {
	s.flushClose()
	if s.Delim != "" && s.atBlank() {
		s.Out += s.Delim
	}
	if len(content) > 0 {
		s.Out += content[0]
	}
}

// CloseBlock closes the block for the given node.
func (s *SerializerState) CloseBlock(node *model.Node) {
	s.Closed = node
}

var bangRegexp = regexp.MustCompile(`(^|[^\\])\!$`)

// Text adds the given text to the document. When escape is not `false`, it
// will be escaped.
func (s *SerializerState) Text(text string, escape ...bool) {
	lines := strings.Split(text, "\n")
	esc := true
	if len(escape) > 0 {
		esc = escape[0]
	}
	for i, line := range lines {
		s.Write()
		// Escape exclamation marks in front of links
		if !esc && strings.HasPrefix(line, "[") && bangRegexp.MatchString(s.Out) {
			s.Out = s.Out[:len(s.Out)-1] + "\\!"
		}
		if esc {
			s.Out += s.Esc(line, s.AtBlockStart)
		} else {
			s.Out += line
		}
		if i != len(lines)-1 {
			s.Out += "\n"
		}
	}
}

// Render the given node as a block.
func (s *SerializerState) Render(node, parent *model.Node, index int) {
	if fn, ok := s.serializer.Nodes[node.Type.Name]; ok {
		fn(s, node, parent, index)
	}
}

// RenderContent renders the contents of `parent` as block nodes.
func (s *SerializerState) RenderContent(parent *model.Node) {
	parent.ForEach(func(node *model.Node, _ int, i int) {
		s.Render(node, parent, i)
	})
}

// opensExpelling tells whether a mark expelling whitespace opens here.
func (s *SerializerState) opensExpelling(marks, active []*model.Mark) bool {
	for _, mark := range marks {
		if s.markSpec(mark.Type.Name).ExpelEnclosingWhitespace && !mark.IsInSet(active) {
			return true
		}
	}
	return false
}

// closesExpelling tells whether a mark expelling whitespace closes after the
// node at index.
func (s *SerializerState) closesExpelling(marks []*model.Mark, parent *model.Node, index int) bool {
	next := parent.MaybeChild(index + 1)
	for _, mark := range marks {
		if s.markSpec(mark.Type.Name).ExpelEnclosingWhitespace && (next == nil || !mark.IsInSet(next.Marks)) {
			return true
		}
	}
	return false
}

// RenderInline renders the contents of `parent` as inline content.
func (s *SerializerState) RenderInline(parent *model.Node) {
	s.AtBlockStart = true
	var active []*model.Mark
	var trailing string
	// lastMark is the mark whose delimiter was written last, while nothing
	// else followed it.
	var lastMark *model.Mark
	writeMark := func(mark *model.Mark, open bool, index int) {
		delim := s.MarkString(mark, open, parent, index)
		if lastMark != nil && s.runsTogether(lastMark, mark, delim) {
			s.Text(MarkSeparator, false)
		}
		s.Text(delim, false)
		lastMark = mark
	}

	progress := func(node *model.Node, _offset, index int) {
		var marks []*model.Mark
		if node != nil {
			marks = node.Marks
		}

		// Remove marks from line breaks that are the last node inside
		// that mark to prevent parser edge cases with new lines just
		// before closing marks. Synthesized marks can't span lines, so they
		// close before the break and open again after it.
		if node != nil && s.serializer.lineBreaks[node.Type.Name] {
			var filtered []*model.Mark
			for _, m := range marks {
				if index+1 == parent.ChildCount() {
					continue
				}
				next, err := parent.Child(index + 1)
				if err != nil {
					continue
				}
				if !m.IsInSet(next.Marks) || s.serializer.synthesized[m.Type.Name] {
					continue
				}
				if !next.IsText() || strings.TrimSpace(*next.Text) != "" {
					filtered = append(filtered, m)
				}
			}
			marks = filtered
		}

		leading := trailing
		trailing = ""
		// If whitespace has to be expelled from the node, adjust
		// leading and trailing accordingly.
		if node != nil && node.IsText() && s.opensExpelling(marks, active) {
			rest := strings.TrimLeftFunc(*node.Text, unicode.IsSpace)
			if lead := (*node.Text)[:len(*node.Text)-len(rest)]; lead != "" {
				leading += lead
				if rest != "" {
					node = node.WithText(rest)
				} else {
					node = nil
					marks = active
				}
			}
		}
		if node != nil && node.IsText() && s.closesExpelling(marks, parent, index) {
			rest := strings.TrimRightFunc(*node.Text, unicode.IsSpace)
			if trail := (*node.Text)[len(rest):]; trail != "" {
				trailing = trail
				if rest != "" {
					node = node.WithText(rest)
				} else {
					node = nil
					marks = active
				}
			}
		}

		var inner *model.Mark
		if len(marks) > 0 {
			inner = marks[len(marks)-1]
		}
		noEsc := inner != nil && s.markSpec(inner.Type.Name).NoEscape
		length := len(marks)
		if noEsc {
			length--
		}

		// Try to reorder 'mixable' marks, such as em and strong, which
		// in Markdown may be opened and closed in different order, so
		// that order of the marks for the token matches the order in
		// active.
	outer:
		for i := 0; i < len(marks); i++ {
			mark := marks[i]
			if !s.markSpec(mark.Type.Name).Mixable {
				break
			}
			for j, other := range active {
				if !s.markSpec(other.Type.Name).Mixable {
					break
				}
				if !mark.Eq(other) {
					continue
				}
				if i == j {
					continue outer
				}
				mixed := make([]*model.Mark, 0, len(marks))
				if i > j {
					mixed = append(mixed, marks[:j]...)
					mixed = append(mixed, mark)
					mixed = append(mixed, marks[j:i]...)
					mixed = append(mixed, marks[i+1:]...)
				} else {
					mixed = append(mixed, marks[:i]...)
					mixed = append(mixed, marks[i+1:j]...)
					mixed = append(mixed, mark)
					mixed = append(mixed, marks[j:]...)
				}
				marks = mixed
				continue outer
			}
		}

		// Find the prefix of the mark set that didn't change
		keep := 0
		for keep < len(marks) && keep < len(active) && marks[keep].Eq(active[keep]) {
			keep++
		}

		// Close the marks that need to be closed
		for keep < len(active) {
			writeMark(active[len(active)-1], false, index)
			active = active[:len(active)-1]
		}

		// Output any previously expelled trailing whitespace outside the marks
		if leading != "" {
			s.Text(leading)
			lastMark = nil
		}

		// Open the marks that need to be opened
		if node != nil {
			for len(active) < length {
				add := marks[len(active)]
				active = append(active, add)
				writeMark(add, true, index)
			}

			// Render the node. Special case code marks, since their content
			// may not be escaped.
			if noEsc && node.IsText() {
				writeMark(inner, true, index)
				s.Text(*node.Text, false)
				lastMark = nil
				writeMark(inner, false, index+1)
			} else {
				s.Render(node, parent, index)
				lastMark = nil
			}
			s.AtBlockStart = false
		}
	}

	parent.ForEach(progress)
	progress(nil, 0, parent.ChildCount())
	s.AtBlockStart = false
}

// runsTogether tells whether delim, written right after a delimiter of
// prev, would merge with it into one delimiter run.
func (s *SerializerState) runsTogether(prev, mark *model.Mark, delim string) bool {
	if delim == "" || prev.Type == mark.Type || len(s.Out) == 0 || s.Out[len(s.Out)-1] != delim[0] {
		return false
	}
	return s.serializer.synthesized[prev.Type.Name] || s.serializer.synthesized[mark.Type.Name]
}

// RenderList renders a node's content as a list. `delim` should be the extra
// indentation added to all lines except the first in an item, `firstDelim` is
// a function going from an item index to a delimiter for the first line of the
// item.
func (s *SerializerState) RenderList(node *model.Node, delim string, firstDelim func(i int) string) {
	if s.Closed != nil && s.Closed.Type == node.Type {
		s.flushClose(3)
	} else if s.InTightList {
		s.flushClose(1)
	}

	isTight := s.tightLists
	if t, ok := node.Attrs["tight"].(bool); ok {
		isTight = t
	}
	prevTight := s.InTightList
	s.InTightList = isTight
	node.ForEach(func(child *model.Node, _, i int) {
		if i > 0 && isTight {
			s.flushClose(1)
		}
		first := firstDelim(i)
		s.WrapBlock(delim, &first, node, func() { s.Render(child, node, i) })
	})
	s.InTightList = prevTight
}

var (
	wordUnderscoreRegexp = regexp.MustCompile(`(\b_)|(_\b)`)
	lineStartRegexp      = regexp.MustCompile(`^([#\-*+>])`)
	orderedRegexp        = regexp.MustCompile(`^(\s*\d+)\.`)
)

// Esc escapes the given string so that it can safely appear in Markdown
// content. If `startOfLine` is true, also escape characters that have special
// meaning only at the start of the line.
func (s *SerializerState) Esc(str string, startOfLine ...bool) string {
	start := false
	if len(startOfLine) > 0 {
		start = startOfLine[0]
	}
	str = s.serializer.escape.ReplaceAllString(str, "\\$1")
	if !s.serializer.escapeAll {
		str = wordUnderscoreRegexp.ReplaceAllString(str, "\\_")
	}
	if start {
		str = escapeIndent(str)
		str = lineStartRegexp.ReplaceAllString(str, "\\$1")
		str = orderedRegexp.ReplaceAllString(str, "$1\\.")
	}
	return str
}

// escapeIndent writes the first character of leading indentation as a
// character reference, so the line can't read as an indented code block.
func escapeIndent(str string) string {
	switch {
	case strings.HasPrefix(str, " "):
		return "&#32;" + str[1:]
	case strings.HasPrefix(str, "\t"):
		return "&#9;" + str[1:]
	}
	return str
}

// Quote wraps the string as a quote.
func (s *SerializerState) Quote(str string) string {
	wrap := `()`
	if !strings.Contains(str, `"`) {
		wrap = `""`
	} else if !strings.Contains(str, "'") {
		wrap = "''"
	}
	return wrap[:1] + str + wrap[1:]
}

// MarkString gets the markdown string for a given opening or closing mark.
func (s *SerializerState) MarkString(mark *model.Mark, open bool, parent *model.Node, index int) string {
	info := s.markSpec(mark.Type.Name)
	value := info.Open
	if !open {
		value = info.Close
	}
	switch value := value.(type) {
	case string:
		return value
	case MarkDelimiterFunc:
		return value(s, mark, parent, index)
	case func(state *SerializerState, mark *model.Mark, parent *model.Node, index int) string:
		return value(s, mark, parent, index)
	}
	return ""
}
