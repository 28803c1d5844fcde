package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shodgson/proseeditor/state"
)

func TestNormalizeKeyName(t *testing.T) {
	cases := []struct {
		name  string
		mac   bool
		final string
	}{
		{"Enter", false, "Enter"},
		{"Mod-b", false, "Ctrl-b"},
		{"Mod-b", true, "Meta-b"},
		{"Alt-Ctrl-Shift-Meta-x", false, "Shift-Meta-Ctrl-Alt-x"},
		{"s-a-Backspace", false, "Shift-Alt-Backspace"},
		{"Cmd-z", false, "Meta-z"},
		{"Control-Space", false, "Ctrl- "},
		{"Ctrl--", false, "Ctrl--"},
		{"-", false, "-"},
	}
	for _, tc := range cases {
		got, err := NormalizeKeyName(tc.name, tc.mac)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.final, got, tc.name)
	}

	_, err := NormalizeKeyName("Hyper-x", false)
	assert.ErrorIs(t, err, ErrUnknownModifier)
}

func TestBindings(t *testing.T) {
	noop := func(*state.EditorState, state.Dispatch) bool { return true }
	never := func(*state.EditorState, state.Dispatch) bool { return false }

	b := NewBindings().Bind("Mod-b", noop).Bind("Enter", noop).Bind("", noop).Bind("Tab", nil)
	assert.Equal(t, []string{"Mod-b", "Enter"}, b.Keys())
	assert.Equal(t, 2, b.Len())

	b.Bind("Mod-b", never)
	assert.Equal(t, []string{"Mod-b", "Enter"}, b.Keys())
	assert.False(t, b.Get("Mod-b")(nil, nil))

	other := NewBindings().Bind("Tab", noop).Bind("Enter", never)
	b.Merge(other).Merge(nil)
	assert.Equal(t, []string{"Mod-b", "Enter", "Tab"}, b.Keys())
	assert.False(t, b.Get("Enter")(nil, nil))
	assert.Nil(t, b.Get("Escape"))
}

func TestLookup(t *testing.T) {
	var ran []string
	cmd := func(name string) state.Command {
		return func(*state.EditorState, state.Dispatch) bool {
			ran = append(ran, name)
			return true
		}
	}
	k, err := New(NewBindings().
		Bind("Mod-z", cmd("undo")).
		Bind("Shift-Mod-z", cmd("redo")).
		Bind("Mod-b", cmd("bold")).
		Bind("Space", cmd("space")).
		Bind("Enter", cmd("enter")))
	require.NoError(t, err)

	assert.True(t, k.HandleKeyDown(nil, state.KeyEvent{Name: "Ctrl-z"}, nil))
	assert.True(t, k.HandleKeyDown(nil, state.KeyEvent{Name: "Meta-z", Mac: true}, nil))
	assert.False(t, k.HandleKeyDown(nil, state.KeyEvent{Name: "Meta-z"}, nil))
	assert.True(t, k.HandleKeyDown(nil, state.KeyEvent{Name: "Ctrl-Shift-z"}, nil))
	assert.Equal(t, []string{"undo", "undo", "redo"}, ran)

	// Shifted single characters fall back to the unshifted binding.
	assert.NotNil(t, k.Lookup(state.KeyEvent{Name: "Shift-Ctrl-b"}))
	assert.Nil(t, k.Lookup(state.KeyEvent{Name: "Shift-Enter"}))
	assert.Nil(t, k.Lookup(state.KeyEvent{Name: "Shift-Space"}))
	assert.NotNil(t, k.Lookup(state.KeyEvent{Name: " "}))
	assert.Nil(t, k.Lookup(state.KeyEvent{Name: "Bogus-x"}))

	_, err = New(NewBindings().Bind("Bogus-x", cmd("x")))
	assert.ErrorIs(t, err, ErrUnknownModifier)
}

func TestPlugin(t *testing.T) {
	p, err := Plugin("myKeymap", NewBindings().Bind("Enter", func(*state.EditorState, state.Dispatch) bool { return true }))
	require.NoError(t, err)
	assert.Equal(t, "myKeymap", p.Name())
	assert.True(t, p.Props.HandleKeyDown(nil, state.KeyEvent{Name: "Enter"}, nil))

	_, err = Plugin("bad", NewBindings().Bind("Nope-x", func(*state.EditorState, state.Dispatch) bool { return true }))
	assert.Error(t, err)
}
