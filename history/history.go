// Package history implements undo and redo. Changes are grouped into
// events: transactions that follow each other within a short delay are
// undone together.
package history

import (
	"time"

	"github.com/shodgson/proseeditor/keymap"
	"github.com/shodgson/proseeditor/state"
	"github.com/shodgson/proseeditor/transform"
)

// GroupName is the name of the plugin group holding the history plugin and
// its keymap.
const GroupName = "history"

const (
	// AddToHistoryMeta set to false on a transaction keeps it out of the
	// history.
	AddToHistoryMeta = "addToHistory"
	// CloseHistoryMeta set to true on a transaction starts a new event even
	// within the group delay.
	CloseHistoryMeta = "closeHistory"
)

// PluginKey is the key of the history plugin.
var PluginKey = state.NewPluginKey("history")

// Config configures the history plugin.
type Config struct {
	// Depth is the number of events kept. Defaults to 100.
	Depth int
	// NewGroupDelay is the delay after which a change starts a new event.
	// Defaults to 500ms.
	NewGroupDelay time.Duration
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

type event struct {
	// steps undo the event when applied in order.
	steps []transform.Step
	// selection is the selection before the event.
	selection state.Selection
}

type historyState struct {
	done     []*event
	undone   []*event
	prevTime time.Time
}

// invertSteps returns the steps that undo tr, in the order to apply them.
func invertSteps(tr *transform.Transform) []transform.Step {
	var out []transform.Step
	for i := len(tr.Steps) - 1; i >= 0; i-- {
		if inv := tr.Steps[i].Invert(tr.Docs[i]); inv != nil {
			out = append(out, inv)
		}
	}
	return out
}

// mapEvents rebases the stored events over a change that isn't part of the
// history. Steps that no longer apply are dropped, and so are events left
// without steps.
func mapEvents(events []*event, mapping transform.Mappable, mapSel func(state.Selection) state.Selection) []*event {
	var out []*event
	for _, ev := range events {
		var steps []transform.Step
		for _, st := range ev.steps {
			if mapped := st.Map(mapping); mapped != nil {
				steps = append(steps, mapped)
			}
		}
		if len(steps) > 0 {
			out = append(out, &event{steps: steps, selection: mapSel(ev.selection)})
		}
	}
	return out
}

func trim(events []*event, depth int) []*event {
	if len(events) > depth {
		return append([]*event(nil), events[len(events)-depth:]...)
	}
	return events
}

// Plugin creates the history plugin.
func Plugin(cfg Config) *state.Plugin {
	if cfg.Depth <= 0 {
		cfg.Depth = 100
	}
	if cfg.NewGroupDelay <= 0 {
		cfg.NewGroupDelay = 500 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return state.NewPlugin(state.PluginSpec{
		Name: "history",
		Key:  PluginKey,
		State: &state.StateField{
			Init: func(state.Config, *state.EditorState) interface{} {
				return &historyState{}
			},
			Apply: func(tr *state.Transaction, value interface{}, oldState, _ *state.EditorState) interface{} {
				return apply(cfg, tr, value.(*historyState), oldState)
			},
		},
	})
}

func apply(cfg Config, tr *state.Transaction, h *historyState, oldState *state.EditorState) *historyState {
	if stored, ok := tr.GetMeta(PluginKey).(*historyState); ok {
		return stored
	}
	if !tr.DocChanged() {
		return h
	}
	if add, ok := tr.GetMeta(AddToHistoryMeta).(bool); ok && !add {
		remap := func(sel state.Selection) state.Selection { return sel.Map(tr.Doc, tr.Mapping) }
		return &historyState{
			done:     mapEvents(h.done, tr.Mapping, remap),
			undone:   mapEvents(h.undone, tr.Mapping, remap),
			prevTime: h.prevTime,
		}
	}
	now := cfg.Clock()
	steps := invertSteps(tr.Transform)
	closed, _ := tr.GetMeta(CloseHistoryMeta).(bool)
	done := h.done
	if n := len(done); n > 0 && !closed && now.Sub(h.prevTime) < cfg.NewGroupDelay {
		last := done[n-1]
		merged := &event{steps: append(append([]transform.Step(nil), steps...), last.steps...), selection: last.selection}
		done = append(append([]*event(nil), done[:n-1]...), merged)
	} else {
		done = append(append([]*event(nil), done...), &event{steps: steps, selection: oldState.Selection})
	}
	return &historyState{done: trim(done, cfg.Depth), prevTime: now}
}

func getState(s *state.EditorState) *historyState {
	h, _ := PluginKey.GetState(s).(*historyState)
	return h
}

// histTransaction applies the last event of from and records the inverse on
// the other stack.
func histTransaction(s *state.EditorState, dispatch state.Dispatch, redo bool) bool {
	h := getState(s)
	if h == nil {
		return false
	}
	from, to := h.done, h.undone
	if redo {
		from, to = h.undone, h.done
	}
	if len(from) == 0 {
		return false
	}
	if dispatch == nil {
		return true
	}
	ev := from[len(from)-1]
	tr := s.Tr()
	for _, st := range ev.steps {
		tr.MaybeStep(st)
	}
	if !tr.DocChanged() {
		return false
	}
	inverse := &event{steps: invertSteps(tr.Transform), selection: s.Selection}
	sel := ev.selection
	if !sel.Valid(tr.Doc) {
		sel = state.Near(tr.Doc, sel.Head, 1)
	}
	tr.SetSelection(sel)
	rest := append([]*event(nil), from[:len(from)-1]...)
	other := append(append([]*event(nil), to...), inverse)
	next := &historyState{done: rest, undone: other}
	if redo {
		next = &historyState{done: other, undone: rest}
	}
	tr.SetMeta(PluginKey, next)
	tr.SetMeta(AddToHistoryMeta, false)
	dispatch(tr)
	return true
}

// Undo undoes the last event.
func Undo(s *state.EditorState, dispatch state.Dispatch) bool {
	return histTransaction(s, dispatch, false)
}

// Redo redoes the last undone event.
func Redo(s *state.EditorState, dispatch state.Dispatch) bool {
	return histTransaction(s, dispatch, true)
}

// UndoDepth is the number of undoable events.
func UndoDepth(s *state.EditorState) int {
	if h := getState(s); h != nil {
		return len(h.done)
	}
	return 0
}

// RedoDepth is the number of redoable events.
func RedoDepth(s *state.EditorState) int {
	if h := getState(s); h != nil {
		return len(h.undone)
	}
	return 0
}

// Keymap binds Mod-z to Undo, and Mod-y and Shift-Mod-z to Redo.
func Keymap() *keymap.Bindings {
	return keymap.NewBindings().
		Bind("Mod-z", Undo).
		Bind("Mod-y", Redo).
		Bind("Shift-Mod-z", Redo)
}
