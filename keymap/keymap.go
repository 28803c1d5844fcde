// Package keymap binds key names to commands.
//
// Key names are strings like "Shift-Ctrl-Enter": zero or more modifiers
// (Alt, Ctrl, Meta, Shift, or Mod, which is Meta on macOS and Ctrl
// elsewhere) followed by a key. Modifier names may be abbreviated (a, c, m,
// s) and "Space" stands for " ".
package keymap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shodgson/proseeditor/state"
)

// ErrUnknownModifier is returned for key names with an unrecognized modifier.
var ErrUnknownModifier = errors.New("unrecognized modifier name")

func splitKeyName(name string) []string {
	var parts []string
	for {
		i := strings.Index(name, "-")
		if i < 0 || i == len(name)-1 {
			return append(parts, name)
		}
		parts = append(parts, name[:i])
		name = name[i+1:]
	}
}

// NormalizeKeyName puts the modifiers of a key name in canonical order
// (Shift, Meta, Ctrl, Alt) and resolves Mod for the given platform.
func NormalizeKeyName(name string, mac bool) (string, error) {
	parts := splitKeyName(name)
	result := parts[len(parts)-1]
	if result == "Space" {
		result = " "
	}
	var alt, ctrl, shift, meta bool
	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(mod) {
		case "cmd", "meta", "m":
			meta = true
		case "a", "alt":
			alt = true
		case "c", "ctrl", "control":
			ctrl = true
		case "s", "shift":
			shift = true
		case "mod":
			if mac {
				meta = true
			} else {
				ctrl = true
			}
		default:
			return "", fmt.Errorf("%w: %s", ErrUnknownModifier, mod)
		}
	}
	if alt {
		result = "Alt-" + result
	}
	if ctrl {
		result = "Ctrl-" + result
	}
	if meta {
		result = "Meta-" + result
	}
	if shift {
		result = "Shift-" + result
	}
	return result, nil
}

// Keymap is a set of normalized bindings for both platforms.
type Keymap struct {
	mac   map[string]state.Command
	other map[string]state.Command
}

// New normalizes the given bindings. Bindings that normalize to the same
// name keep the last one in b.
func New(b *Bindings) (*Keymap, error) {
	k := &Keymap{mac: map[string]state.Command{}, other: map[string]state.Command{}}
	for _, key := range b.Keys() {
		cmd := b.commands[key]
		mac, err := NormalizeKeyName(key, true)
		if err != nil {
			return nil, err
		}
		other, err := NormalizeKeyName(key, false)
		if err != nil {
			return nil, err
		}
		k.mac[mac] = cmd
		k.other[other] = cmd
	}
	return k, nil
}

// Lookup finds the command bound to a key event. A shifted single character
// falls back to its unshifted binding.
func (k *Keymap) Lookup(event state.KeyEvent) state.Command {
	bindings := k.other
	if event.Mac {
		bindings = k.mac
	}
	name, err := NormalizeKeyName(event.Name, event.Mac)
	if err != nil {
		return nil
	}
	if cmd, ok := bindings[name]; ok {
		return cmd
	}
	if strings.HasPrefix(name, "Shift-") {
		base := strings.TrimPrefix(name, "Shift-")
		key := base[strings.LastIndex(base, "-")+1:]
		if len(key) == 1 && key != " " {
			return bindings[base]
		}
	}
	return nil
}

// HandleKeyDown runs the command bound to the event, if any.
func (k *Keymap) HandleKeyDown(s *state.EditorState, event state.KeyEvent, dispatch state.Dispatch) bool {
	cmd := k.Lookup(event)
	return cmd != nil && cmd(s, dispatch)
}

// Plugin creates a plugin that handles key presses with the given bindings.
func Plugin(name string, b *Bindings) (*state.Plugin, error) {
	k, err := New(b)
	if err != nil {
		return nil, err
	}
	return state.NewPlugin(state.PluginSpec{
		Name:  name,
		Props: state.Props{HandleKeyDown: k.HandleKeyDown},
	}), nil
}
