package builder

import (
	"github.com/shodgson/proseeditor/state"
)

// Selection returns the selection between the tags "a" and "b" of doc, the
// cursor at "a", or nil when doc has no "a" tag.
func Selection(doc NodeWithTag) *state.Selection {
	a, ok := doc.Tag["a"]
	if !ok {
		return nil
	}
	sel := state.NewSelection(a)
	if b, ok := doc.Tag["b"]; ok {
		sel = state.NewSelection(a, b)
	}
	return &sel
}

// State creates an editor state holding doc, selected as Selection tells.
func State(doc NodeWithTag, plugins ...*state.Plugin) (*state.EditorState, error) {
	return state.Create(state.Config{
		Schema:    Schema,
		Doc:       doc.Node,
		Selection: Selection(doc),
		Plugins:   plugins,
	})
}

// Run runs cmd and applies what it dispatches. It reports whether the
// command applied. The state is returned unchanged when it didn't.
func Run(s *state.EditorState, cmd state.Command) (*state.EditorState, bool, error) {
	next := s
	var err error
	ok := cmd(s, func(tr *state.Transaction) {
		if err == nil {
			next, err = next.Apply(tr)
		}
	})
	if err != nil {
		return s, ok, err
	}
	return next, ok, nil
}
