package history_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shodgson/proseeditor/history"
	"github.com/shodgson/proseeditor/state"
	"github.com/shodgson/proseeditor/test/builder"
)

var (
	doc = builder.Doc
	p   = builder.P
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func setup(t *testing.T, cfg history.Config, d builder.NodeWithTag) (*state.EditorState, *clock) {
	c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cfg.Clock = c.Now
	s, err := builder.State(d, history.Plugin(cfg))
	require.NoError(t, err)
	return s, c
}

func typeText(t *testing.T, s *state.EditorState, text string) *state.EditorState {
	s, err := s.Apply(s.Tr().InsertText(text))
	require.NoError(t, err)
	return s
}

func run(t *testing.T, s *state.EditorState, cmd state.Command) *state.EditorState {
	s, ok, err := builder.Run(s, cmd)
	require.NoError(t, err)
	require.True(t, ok)
	return s
}

func assertDoc(t *testing.T, s *state.EditorState, expected builder.NodeWithTag) {
	t.Helper()
	assert.True(t, s.Doc.Eq(expected.Node), "%s != %s", s.Doc.String(), expected.String())
}

func TestUndoRedo(t *testing.T) {
	s, _ := setup(t, history.Config{}, doc(p("<a>")))
	assert.False(t, history.Undo(s, nil))
	assert.False(t, history.Redo(s, nil))

	s = typeText(t, s, "a")
	s = typeText(t, s, "b")
	assert.Equal(t, 1, history.UndoDepth(s))
	assert.True(t, history.Undo(s, nil))

	s = run(t, s, history.Undo)
	assertDoc(t, s, doc(p()))
	assert.Equal(t, state.NewSelection(1), s.Selection)
	assert.Equal(t, 0, history.UndoDepth(s))
	assert.Equal(t, 1, history.RedoDepth(s))

	s = run(t, s, history.Redo)
	assertDoc(t, s, doc(p("ab")))
	assert.Equal(t, 1, history.UndoDepth(s))
	assert.Equal(t, 0, history.RedoDepth(s))
}

func TestGroupDelay(t *testing.T) {
	s, c := setup(t, history.Config{NewGroupDelay: time.Second}, doc(p("<a>")))
	s = typeText(t, s, "a")
	c.Advance(2 * time.Second)
	s = typeText(t, s, "b")
	assert.Equal(t, 2, history.UndoDepth(s))

	s = run(t, s, history.Undo)
	assertDoc(t, s, doc(p("a")))
	s = run(t, s, history.Undo)
	assertDoc(t, s, doc(p()))
}

func TestCloseHistory(t *testing.T) {
	s, _ := setup(t, history.Config{}, doc(p("<a>")))
	s = typeText(t, s, "a")
	s, err := s.Apply(s.Tr().InsertText("b").SetMeta(history.CloseHistoryMeta, true))
	require.NoError(t, err)
	assert.Equal(t, 2, history.UndoDepth(s))
}

func TestNewChangeClearsRedo(t *testing.T) {
	s, c := setup(t, history.Config{}, doc(p("<a>")))
	s = typeText(t, s, "a")
	s = run(t, s, history.Undo)
	require.Equal(t, 1, history.RedoDepth(s))

	c.Advance(time.Minute)
	s = typeText(t, s, "b")
	assert.Equal(t, 0, history.RedoDepth(s))
	assert.False(t, history.Redo(s, nil))
}

func TestChangesOutsideHistory(t *testing.T) {
	s, _ := setup(t, history.Config{}, doc(p("<a>")))
	s = typeText(t, s, "ab")

	tr := s.Tr()
	tr.Insert(1, builder.Schema.Text("X"))
	tr.SetMeta(history.AddToHistoryMeta, false)
	s, err := s.Apply(tr)
	require.NoError(t, err)
	assertDoc(t, s, doc(p("Xab")))
	assert.Equal(t, 1, history.UndoDepth(s))

	s = run(t, s, history.Undo)
	assertDoc(t, s, doc(p("X")))
}

func TestDepth(t *testing.T) {
	s, c := setup(t, history.Config{Depth: 2}, doc(p("<a>")))
	for _, text := range []string{"a", "b", "c"} {
		c.Advance(time.Minute)
		s = typeText(t, s, text)
	}
	assert.Equal(t, 2, history.UndoDepth(s))
	s = run(t, s, history.Undo)
	s = run(t, s, history.Undo)
	assertDoc(t, s, doc(p("a")))
	assert.False(t, history.Undo(s, nil))
}

func TestWithoutPlugin(t *testing.T) {
	s, err := builder.State(doc(p("a")))
	require.NoError(t, err)
	assert.False(t, history.Undo(s, nil))
	assert.Equal(t, 0, history.UndoDepth(s))
	assert.Equal(t, 0, history.RedoDepth(s))
}

func TestKeymap(t *testing.T) {
	assert.Equal(t, []string{"Mod-z", "Mod-y", "Shift-Mod-z"}, history.Keymap().Keys())
}
