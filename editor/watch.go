package editor

import (
	"github.com/shodgson/proseeditor/state"
)

var (
	// ContentKey is the key of the plugin counting document changes.
	ContentKey = state.NewPluginKey("changedContent")
	// SelectionKey is the key of the plugin counting selection changes.
	SelectionKey = state.NewPluginKey("changedSelection")
)

// counter is a plugin whose state counts the transactions that satisfy
// changed.
func counter(name string, key *state.PluginKey, changed func(tr *state.Transaction, old, next *state.EditorState) bool) *state.Plugin {
	return state.NewPlugin(state.PluginSpec{
		Name: name,
		Key:  key,
		State: &state.StateField{
			Init: func(state.Config, *state.EditorState) interface{} { return 0 },
			Apply: func(tr *state.Transaction, value interface{}, old, next *state.EditorState) interface{} {
				n, _ := value.(int)
				if changed(tr, old, next) {
					n++
				}
				return n
			},
		},
	})
}

// WatchPlugins returns the plugins counting changes of the document and of
// the selection. Editors use them to notify subscribers.
func WatchPlugins() []*state.Plugin {
	return []*state.Plugin{
		counter("changedContent", ContentKey, func(tr *state.Transaction, _, _ *state.EditorState) bool {
			return tr.DocChanged()
		}),
		counter("changedSelection", SelectionKey, func(tr *state.Transaction, old, _ *state.EditorState) bool {
			return !tr.Selection().Eq(old.Selection)
		}),
	}
}

// WatchPlugin returns the counter of one of the watch plugins in s, or 0
// when the plugin isn't active.
func WatchPlugin(s *state.EditorState, key *state.PluginKey) int {
	n, _ := key.GetState(s).(int)
	return n
}

// Update is sent to subscribers after a transaction was applied.
type Update struct {
	State            *state.EditorState
	ContentChanged   bool
	SelectionChanged bool
}
