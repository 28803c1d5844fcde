package marks

import (
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/shodgson/proseeditor/commands"
	"github.com/shodgson/proseeditor/markdown"
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/registry"
	"github.com/shodgson/proseeditor/state"
)

// Names of the marks.
const (
	BoldName        = "bold"
	ItalicName      = "italic"
	StrikeName      = "strike"
	CodeName        = "code"
	LinkName        = "link"
	UnderlineName   = "underline"
	HighlightName   = "mark"
	SuperscriptName = "superscript"
	SubscriptName   = "subscript"
)

// Bold is strong text, written **bold**.
func Bold() *registry.Descriptor {
	return rules{
		name:     BoldName,
		spec:     &model.MarkSpec{ToDOM: model.ElementToDOM(atom.Strong)},
		markdown: delimited(BoldName, "**", "strong", "b", false, markdown.Where{}),
		toggle:   "Mod-b",
		inputs: []string{
			`(?:^|\s)((?:__)((?:[^_]+))(?:__))$`,
			`(?:^|\s)((?:\*\*)((?:[^*]+))(?:\*\*))$`,
		},
	}.descriptor()
}

// Italic is emphasized text, written *italic*.
func Italic() *registry.Descriptor {
	return rules{
		name:     ItalicName,
		spec:     &model.MarkSpec{ToDOM: model.ElementToDOM(atom.Em)},
		markdown: delimited(ItalicName, "*", "em", "em", false, markdown.Where{}),
		toggle:   "Mod-i",
		inputs:   []string{`(?:^|\s)((?:\*)((?:[^*]+))(?:\*))$`},
	}.descriptor()
}

// Strike is struck through text, written ~~strike~~.
func Strike() *registry.Descriptor {
	return rules{
		name:     StrikeName,
		spec:     &model.MarkSpec{ToDOM: model.ElementToDOM(atom.S)},
		markdown: delimited(StrikeName, "~~", "s", "s", false, markdown.Where{}),
		toggle:   "Mod-d",
		inputs:   []string{`(?:^|\s)((?:~~)((?:[^~]+))(?:~~))$`},
	}.descriptor()
}

var excludeAll = "_"

// Code is inline code. It excludes every other mark, and its text is
// written as is between as many backticks as needed.
func Code() *registry.Descriptor {
	return rules{
		name: CodeName,
		spec: &model.MarkSpec{Excludes: &excludeAll, ToDOM: model.ElementToDOM(atom.Code)},
		markdown: &markdown.Spec{
			Mark: &markdown.MarkSerializerSpec{
				Open: markdown.MarkDelimiterFunc(func(_ *markdown.SerializerState, _ *model.Mark, parent *model.Node, index int) string {
					return markdown.BackticksFor(parent.MaybeChild(index), -1)
				}),
				Close: markdown.MarkDelimiterFunc(func(_ *markdown.SerializerState, _ *model.Mark, parent *model.Node, index int) string {
					return markdown.BackticksFor(parent.MaybeChild(index-1), 1)
				}),
				NoEscape: true,
			},
			Parse: map[string]*markdown.ParseSpec{
				"code_inline": {Mark: CodeName, NoCloseToken: true},
			},
			Tag: "`",
		},
		toggle: "Alt-`",
		inputs: []string{"(?:`)([^`]+)(?:`)$"},
		keys:   map[string]string{"exitRight": "ArrowRight", "exitLeft": "ArrowLeft"},
		bindings: []registry.Binding{
			{Name: "exitRight", Command: commands.Conditional(codeArrowRight, cursorOnly)},
			{Name: "exitLeft", Command: commands.Conditional(codeArrowLeft, cursorOnly)},
		},
	}.descriptor()
}

func cursorOnly(s *state.EditorState) bool {
	return s.Selection.Empty()
}

func posHasCode(s *state.EditorState, typ *model.MarkType, pos int) bool {
	if pos < 0 || pos > s.Doc.Content.Size {
		return false
	}
	node := s.Doc.NodeAt(pos)
	return node != nil && typ.IsInSet(node.Marks) != nil
}

// codeArrowRight lets the cursor step in and out of code at its right
// edge: the first press toggles the stored code mark without moving.
func codeArrowRight(s *state.EditorState, dispatch state.Dispatch) bool {
	typ := s.Schema().Marks[CodeName]
	if typ == nil {
		return false
	}
	pos := s.Selection.Head
	inside := commands.IsMarkActive(CodeName)(s)
	next := s.Doc.RangeHasMark(pos, pos+1, typ)
	stored := s.StoredMarks
	switch {
	case !inside && next && len(stored) == 0:
		if dispatch != nil {
			dispatch(s.Tr().AddStoredMark(typ.Create(nil)))
		}
		return true
	case inside && !next && (stored == nil || len(stored) > 0):
		if dispatch != nil {
			dispatch(s.Tr().RemoveStoredMark(typ))
		}
		return true
	}
	return false
}

// codeArrowLeft is codeArrowRight for the left edge.
func codeArrowLeft(s *state.EditorState, dispatch state.Dispatch) bool {
	typ := s.Schema().Marks[CodeName]
	if typ == nil {
		return false
	}
	pos := s.Selection.Head
	inside := commands.IsMarkActive(CodeName)(s)
	stored := s.StoredMarks
	current := posHasCode(s, typ, pos)
	left := posHasCode(s, typ, pos-1)
	leftLeft := posHasCode(s, typ, pos-2)
	exiting := current && !left && stored != nil

	run := func(build func(tr *state.Transaction)) bool {
		if dispatch != nil {
			tr := s.Tr()
			build(tr)
			dispatch(tr)
		}
		return true
	}
	if !inside {
		atRightEdge := !left && leftLeft && ((exiting && len(stored) == 0) || (!exiting && stored == nil))
		if atRightEdge {
			return run(func(tr *state.Transaction) {
				tr.SetSelection(state.Near(s.Doc, pos-1, 1))
				tr.RemoveStoredMark(typ)
			})
		}
		if !current && left && stored != nil && len(stored) == 0 {
			return run(func(tr *state.Transaction) { tr.AddStoredMark(typ.Create(nil)) })
		}
		return false
	}
	if left && !leftLeft && (stored == nil || len(stored) > 0) {
		return run(func(tr *state.Transaction) {
			tr.SetSelection(state.Near(s.Doc, pos-1, 1))
			tr.AddStoredMark(typ.Create(nil))
		})
	}
	rpos, err := s.Doc.Resolve(pos)
	if err != nil {
		return false
	}
	before, _ := rpos.NodeBefore()
	if exiting || (before == nil && rpos.Index(rpos.Depth-1) == 0) {
		return run(func(tr *state.Transaction) { tr.RemoveStoredMark(typ) })
	}
	return false
}

var linkAttrs = map[string]*model.AttributeSpec{
	"href":  {},
	"title": {Default: nil},
}

var notInclusive = false

// Link is a link with an href and an optional title. Links whose text is
// their href are written as autolinks.
func Link() *registry.Descriptor {
	remove := commands.RemoveMark(LinkName)
	return &registry.Descriptor{
		Name: LinkName,
		Kind: registry.MarkKind,
		Mark: &model.MarkSpec{
			Attrs:     linkAttrs,
			Inclusive: &notInclusive,
			ToDOM:     model.ElementToDOM(atom.A, "href", "title"),
		},
		Markdown: &markdown.Spec{
			Mark: &markdown.MarkSerializerSpec{
				Open: markdown.MarkDelimiterFunc(func(s *markdown.SerializerState, mark *model.Mark, parent *model.Node, index int) string {
					s.InAutoLink = markdown.IsPlainURL(mark, parent, index)
					if s.InAutoLink {
						return "<"
					}
					return "["
				}),
				Close: markdown.MarkDelimiterFunc(func(s *markdown.SerializerState, mark *model.Mark, _ *model.Node, _ int) string {
					if s.InAutoLink {
						s.InAutoLink = false
						return ">"
					}
					href, _ := mark.Attrs["href"].(string)
					out := "](" + linkEscaper.Replace(href)
					if title, _ := mark.Attrs["title"].(string); title != "" {
						out += ` "` + strings.ReplaceAll(title, `"`, `\"`) + `"`
					}
					return out + ")"
				}),
			},
			Parse: map[string]*markdown.ParseSpec{
				"link": {
					Mark: LinkName,
					GetAttrs: func(tok *markdown.Token) map[string]interface{} {
						var title interface{}
						if t := tok.AttrGet("title"); t != "" {
							title = t
						}
						return map[string]interface{}{"href": tok.AttrGet("href"), "title": title}
					},
				},
			},
			Tag: "a",
		},
		Keys: map[string]string{"toggle": "Mod-Shift-k"},
		Commands: registry.Commands{
			Toggle:   remove,
			IsActive: commands.IsMarkActive(LinkName),
		},
	}
}

var linkEscaper = strings.NewReplacer("(", `\(`, ")", `\)`, `"`, `\"`)

// SetLink links the selection to href.
func SetLink(href string) state.Command {
	return commands.ToggleMark(LinkName, map[string]interface{}{"href": href})
}
