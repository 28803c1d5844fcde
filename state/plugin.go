package state

import (
	"fmt"
	"sync/atomic"

	"github.com/shodgson/proseeditor/model"
)

// KeyEvent is a key press, described by its key name ("Ctrl-b", "Enter",
// "Shift-Tab") and the platform it happened on.
type KeyEvent struct {
	Name string
	Mac  bool
}

// Props are the hooks a plugin can provide to the host of the editor.
type Props struct {
	// HandleKeyDown is called for key presses. Returning true stops the
	// event from reaching later plugins.
	HandleKeyDown func(state *EditorState, event KeyEvent, dispatch Dispatch) bool
	// HandleTextInput is called when the user types text replacing the range
	// between from and to.
	HandleTextInput func(state *EditorState, from, to int, text string, dispatch Dispatch) bool
	// NodeViews overrides how nodes of the given types are rendered.
	NodeViews map[string]model.ToDOM
}

// StateField describes the state a plugin keeps in the editor state.
type StateField struct {
	// Init computes the initial value of the field.
	Init func(config Config, state *EditorState) interface{}
	// Apply computes the new value of the field from the transaction and
	// the previous value. It must not mutate value.
	Apply func(tr *Transaction, value interface{}, oldState, newState *EditorState) interface{}
}

// PluginSpec is the description of a plugin.
type PluginSpec struct {
	// Name identifies the plugin for debugging and for idempotence checks.
	Name string
	// Key is the plugin key. When nil, a unique key is derived from Name.
	Key *PluginKey
	// State is the optional state field of the plugin.
	State *StateField
	// Props are the hooks of the plugin.
	Props Props
	// FilterTransaction can reject a transaction before it is applied.
	FilterTransaction func(tr *Transaction, state *EditorState) bool
	// AppendTransaction lets the plugin react to applied transactions by
	// returning a follow-up transaction, or nil.
	AppendTransaction func(trs []*Transaction, oldState, newState *EditorState) *Transaction
}

// Plugin bundles functionality that can be added to an editor.
type Plugin struct {
	Spec  PluginSpec
	Key   *PluginKey
	Props Props
}

// NewPlugin creates a plugin.
func NewPlugin(spec PluginSpec) *Plugin {
	key := spec.Key
	if key == nil {
		name := spec.Name
		if name == "" {
			name = "plugin"
		}
		key = NewPluginKey(name)
	}
	return &Plugin{Spec: spec, Key: key, Props: spec.Props}
}

// Name returns the name of the plugin, or the name of its key when it has
// none.
func (p *Plugin) Name() string {
	if p.Spec.Name != "" {
		return p.Spec.Name
	}
	return p.Key.name
}

// GetState extracts the plugin's state field from an editor state.
func (p *Plugin) GetState(state *EditorState) interface{} {
	return state.fields[p.Key]
}

var keyCount int64

// PluginKey is used to tag plugins in a way that makes it possible to find
// them, given an editor state. Keys are compared by identity.
type PluginKey struct {
	name string
	id   string
}

// NewPluginKey creates a plugin key.
func NewPluginKey(name string) *PluginKey {
	n := atomic.AddInt64(&keyCount, 1)
	return &PluginKey{name: name, id: fmt.Sprintf("%s$%d", name, n)}
}

// Name returns the name the key was created with.
func (k *PluginKey) Name() string {
	return k.name
}

// String returns the unique identifier of the key.
func (k *PluginKey) String() string {
	return k.id
}

// Get gets the active plugin with this key, if any, from an editor state.
func (k *PluginKey) Get(state *EditorState) *Plugin {
	for _, p := range state.config.plugins {
		if p.Key == k {
			return p
		}
	}
	return nil
}

// GetState gets the plugin's state from an editor state.
func (k *PluginKey) GetState(state *EditorState) interface{} {
	return state.fields[k]
}
