package commands

import "github.com/shodgson/proseeditor/keymap"

// BaseKeymap returns the basic editing bindings: Enter splits blocks,
// Backspace and Delete remove the selection or join blocks, Mod-a selects
// everything.
func BaseKeymap() *keymap.Bindings {
	backspace := Chain(DeleteSelection, JoinBackward)
	del := Chain(DeleteSelection, JoinForward)
	return keymap.NewBindings().
		Bind("Enter", Chain(NewlineInCode, LiftEmptyBlock, SplitBlock)).
		Bind("Backspace", backspace).
		Bind("Mod-Backspace", backspace).
		Bind("Shift-Backspace", backspace).
		Bind("Delete", del).
		Bind("Mod-Delete", del).
		Bind("Mod-a", SelectAll)
}
