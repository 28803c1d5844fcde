package keymap

import "github.com/shodgson/proseeditor/state"

// Bindings is an ordered shortcut to command table. Binding a shortcut again
// replaces the earlier command but keeps its first position.
type Bindings struct {
	keys     []string
	commands map[string]state.Command
}

// NewBindings returns an empty table.
func NewBindings() *Bindings {
	return &Bindings{commands: map[string]state.Command{}}
}

// Bind binds key to cmd. Empty keys and nil commands are ignored.
func (b *Bindings) Bind(key string, cmd state.Command) *Bindings {
	if key == "" || cmd == nil {
		return b
	}
	if _, ok := b.commands[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.commands[key] = cmd
	return b
}

// Merge binds every entry of other, in order, on top of b.
func (b *Bindings) Merge(other *Bindings) *Bindings {
	if other == nil {
		return b
	}
	for _, key := range other.keys {
		b.Bind(key, other.commands[key])
	}
	return b
}

// Keys returns the bound shortcuts in binding order.
func (b *Bindings) Keys() []string {
	return append([]string(nil), b.keys...)
}

// Get returns the command bound to key.
func (b *Bindings) Get(key string) state.Command {
	return b.commands[key]
}

// Len is the number of bound shortcuts.
func (b *Bindings) Len() int {
	return len(b.keys)
}
