// Package inputrules runs regular expressions against the text typed before
// the cursor, and turns matches into edits: Markdown shortcuts such as
// "# " for a heading or "**bold**" for strong text.
package inputrules

import (
	"regexp"

	"github.com/shodgson/proseeditor/state"
)

// maxMatch is how far back from the cursor rules look.
const maxMatch = 500

// Handler builds the transaction for a match between start and end, the
// range of the matched text already in the document. It returns nil when
// the match should be ignored.
type Handler func(s *state.EditorState, match []string, start, end int) *state.Transaction

// Rule is an input rule. Its pattern should end with $ so that it only
// matches text directly before the cursor.
type Rule struct {
	Pattern *regexp.Regexp
	Handler Handler
	// Undoable rules can be reverted with UndoInputRule right after they
	// fired.
	Undoable bool
	// InCode allows the rule to fire in code blocks.
	InCode bool
}

// New creates an undoable rule from a pattern. It panics when the pattern
// doesn't compile, like regexp.MustCompile.
func New(pattern string, handler Handler) *Rule {
	return &Rule{Pattern: regexp.MustCompile(pattern), Handler: handler, Undoable: true}
}

type undoable struct {
	tr       *state.Transaction
	from, to int
	text     string
}

// PluginKey is the key of the input rule plugin. Its state is set right
// after a rule fired, for UndoInputRule.
var PluginKey = state.NewPluginKey("inputRules")

// Plugin creates the plugin running rules on text input. Rules are tried in
// order and the first that returns a transaction wins.
func Plugin(rules ...*Rule) *state.Plugin {
	return state.NewPlugin(state.PluginSpec{
		Name: "inputRules",
		Key:  PluginKey,
		State: &state.StateField{
			Init: func(state.Config, *state.EditorState) interface{} { return nil },
			Apply: func(tr *state.Transaction, prev interface{}, _, _ *state.EditorState) interface{} {
				if stored := tr.GetMeta(PluginKey); stored != nil {
					return stored
				}
				if tr.SelectionSet() || tr.DocChanged() {
					return nil
				}
				return prev
			},
		},
		Props: state.Props{
			HandleTextInput: func(s *state.EditorState, from, to int, text string, dispatch state.Dispatch) bool {
				return run(s, from, to, text, rules, dispatch)
			},
		},
	})
}

func run(s *state.EditorState, from, to int, text string, rules []*Rule, dispatch state.Dispatch) bool {
	rfrom, err := s.Doc.Resolve(from)
	if err != nil {
		return false
	}
	parent := rfrom.Parent()
	if !parent.InlineContent() {
		return false
	}
	start := rfrom.ParentOffset - maxMatch
	if start < 0 {
		start = 0
	}
	// Leaf nodes count as one byte so that offsets in the text match
	// document positions.
	before := parent.TextBetween(start, rfrom.ParentOffset, "", "\x00") + text
	inCode := parent.Type.Spec.Code
	for _, rule := range rules {
		if inCode && !rule.InCode {
			continue
		}
		match := rule.Pattern.FindStringSubmatch(before)
		if match == nil {
			continue
		}
		tr := rule.Handler(s, match, from-(len(match[0])-len(text)), to)
		if tr == nil || tr.Err() != nil {
			continue
		}
		if rule.Undoable {
			tr.SetMeta(PluginKey, &undoable{tr: tr, from: from, to: to, text: text})
		}
		if dispatch != nil {
			dispatch(tr)
		}
		return true
	}
	return false
}

// UndoInputRule reverts the edit of the input rule that fired last, if it
// was the last change, and inserts the typed text instead.
func UndoInputRule(s *state.EditorState, dispatch state.Dispatch) bool {
	for _, p := range s.Plugins() {
		if p.Key != PluginKey {
			continue
		}
		u, ok := p.GetState(s).(*undoable)
		if !ok || u == nil {
			return false
		}
		if dispatch != nil {
			tr := s.Tr()
			for j := len(u.tr.Steps) - 1; j >= 0; j-- {
				if inverted := u.tr.Steps[j].Invert(u.tr.Docs[j]); inverted != nil {
					tr.Step(inverted)
				}
			}
			if u.text != "" {
				tr.InsertTextAt(u.text, u.from, u.to)
			} else {
				tr.Delete(u.from, u.to)
			}
			if tr.Err() != nil {
				return false
			}
			dispatch(tr)
		}
		return true
	}
	return false
}
