package state_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shodgson/proseeditor/state"
	"github.com/shodgson/proseeditor/test/builder"
)

var (
	doc = builder.Doc
	p   = builder.P
	hr  = builder.Hr
)

func counter(name string) *state.Plugin {
	return state.NewPlugin(state.PluginSpec{
		Name: name,
		State: &state.StateField{
			Init: func(state.Config, *state.EditorState) interface{} { return 0 },
			Apply: func(_ *state.Transaction, value interface{}, _, _ *state.EditorState) interface{} {
				return value.(int) + 1
			},
		},
	})
}

func TestCreate(t *testing.T) {
	s, err := state.Create(state.Config{Schema: builder.Schema})
	require.NoError(t, err)
	assert.True(t, s.Doc.Eq(doc(p()).Node), s.Doc.String())
	assert.Equal(t, state.NewSelection(1), s.Selection)
	assert.Same(t, builder.Schema, s.Schema())

	d := doc(p("hello"))
	s, err = state.Create(state.Config{Doc: d.Node})
	require.NoError(t, err)
	assert.Same(t, builder.Schema, s.Schema())

	_, err = state.Create(state.Config{})
	assert.ErrorIs(t, err, state.ErrMissingSchema)

	bad := state.NewSelection(0)
	_, err = state.Create(state.Config{Doc: d.Node, Selection: &bad})
	assert.ErrorIs(t, err, state.ErrInvalidTransaction)

	plugin := counter("count")
	_, err = state.Create(state.Config{Doc: d.Node, Plugins: []*state.Plugin{plugin, plugin}})
	assert.ErrorIs(t, err, state.ErrDuplicatePlugin)
}

func TestApply(t *testing.T) {
	s, err := builder.State(doc(p("ab<a>")))
	require.NoError(t, err)

	next, err := s.Apply(s.Tr().InsertText("c"))
	require.NoError(t, err)
	assert.True(t, next.Doc.Eq(doc(p("abc")).Node), next.Doc.String())
	assert.Equal(t, state.NewSelection(4), next.Selection)
	// The old state is untouched.
	assert.True(t, s.Doc.Eq(doc(p("ab")).Node))

	failed := s.Tr()
	failed.Fail(errors.New("boom"))
	same, err := s.Apply(failed)
	assert.ErrorIs(t, err, state.ErrInvalidTransaction)
	assert.Same(t, s, same)

	_, err = next.Apply(s.Tr().InsertText("x"))
	assert.ErrorIs(t, err, state.ErrInvalidTransaction)

	_, err = s.Apply(s.Tr().SetSelection(state.NewSelection(0)))
	assert.ErrorIs(t, err, state.ErrInvalidTransaction)
}

func TestStoredMarks(t *testing.T) {
	s, err := builder.State(doc(p("ab<a>")))
	require.NoError(t, err)

	tr := s.Tr().AddStoredMark(builder.Schema.Mark("bold"))
	s, err = s.Apply(tr)
	require.NoError(t, err)
	require.Len(t, s.StoredMarks, 1)

	s, err = s.Apply(s.Tr().InsertText("c"))
	require.NoError(t, err)
	assert.True(t, s.Doc.Eq(doc(p("ab", builder.Bold("c"))).Node), s.Doc.String())
	assert.Nil(t, s.StoredMarks)

	tr = s.Tr().RemoveStoredMark(builder.Schema.Marks["bold"])
	s, err = s.Apply(tr.InsertText("d"))
	require.NoError(t, err)
	assert.True(t, s.Doc.Eq(doc(p("ab", builder.Bold("c"), "d")).Node), s.Doc.String())
}

func TestDeleteSelection(t *testing.T) {
	s, err := builder.State(doc(p("a<a>bc<b>d")))
	require.NoError(t, err)
	s, err = s.Apply(s.Tr().DeleteSelection())
	require.NoError(t, err)
	assert.True(t, s.Doc.Eq(doc(p("ad")).Node), s.Doc.String())
	assert.Equal(t, state.NewSelection(2), s.Selection)
}

func TestPluginState(t *testing.T) {
	count := counter("count")
	s, err := builder.State(doc(p("<a>")), count)
	require.NoError(t, err)
	assert.Equal(t, 0, count.GetState(s))
	assert.Same(t, count, count.Key.Get(s))
	assert.Equal(t, "count", count.Key.Name())

	s, err = s.Apply(s.Tr().InsertText("a"))
	require.NoError(t, err)
	s, err = s.Apply(s.Tr().InsertText("b"))
	require.NoError(t, err)
	assert.Equal(t, 2, count.Key.GetState(s))

	other := counter("other")
	s, err = s.Reconfigure([]*state.Plugin{count, other})
	require.NoError(t, err)
	assert.Equal(t, 2, count.GetState(s))
	assert.Equal(t, 0, other.GetState(s))
	assert.Len(t, s.Plugins(), 2)

	s, err = s.Reconfigure([]*state.Plugin{other})
	require.NoError(t, err)
	assert.Nil(t, count.GetState(s))
	assert.Nil(t, count.Key.Get(s))

	_, err = s.Reconfigure([]*state.Plugin{other, other})
	assert.ErrorIs(t, err, state.ErrDuplicatePlugin)
}

func TestFilterTransaction(t *testing.T) {
	filter := state.NewPlugin(state.PluginSpec{
		Name: "filter",
		FilterTransaction: func(tr *state.Transaction, _ *state.EditorState) bool {
			return tr.GetMeta("blocked") == nil
		},
	})
	s, err := builder.State(doc(p("<a>")), filter)
	require.NoError(t, err)

	next, trs, err := s.ApplyTransaction(s.Tr().InsertText("x").SetMeta("blocked", true))
	require.NoError(t, err)
	assert.Same(t, s, next)
	assert.Empty(t, trs)
}

func TestAppendTransaction(t *testing.T) {
	bang := state.NewPlugin(state.PluginSpec{
		Name: "bang",
		AppendTransaction: func(trs []*state.Transaction, _, newState *state.EditorState) *state.Transaction {
			for _, tr := range trs {
				if tr.GetMeta("appendedTransaction") != nil || !tr.DocChanged() {
					return nil
				}
			}
			return newState.Tr().InsertText("!")
		},
	})
	s, err := builder.State(doc(p("<a>")), bang)
	require.NoError(t, err)

	root := s.Tr().InsertText("hi")
	s, trs, err := s.ApplyTransaction(root)
	require.NoError(t, err)
	assert.True(t, s.Doc.Eq(doc(p("hi!")).Node), s.Doc.String())
	require.Len(t, trs, 2)
	assert.Same(t, root, trs[1].GetMeta("appendedTransaction"))
}

func TestSelections(t *testing.T) {
	d := doc(p("ab"), hr(), p("cd")).Node

	assert.Equal(t, state.NewSelection(1), state.AtStart(d))
	assert.Equal(t, state.NewSelection(8), state.AtEnd(d))
	assert.Equal(t, state.NewSelection(1, 8), state.All(d))
	assert.Equal(t, state.NewSelection(6), state.Near(d, 4, 1))
	assert.Equal(t, state.NewSelection(3), state.Near(d, 4, -1))
	assert.Equal(t, state.NewSelection(1), state.Near(d, 0, -1))
	assert.Equal(t, state.NewSelection(2), state.Near(d, 2, -1))

	sel := state.NewSelection(3, 1)
	assert.Equal(t, 1, sel.From())
	assert.Equal(t, 3, sel.To())
	assert.False(t, sel.Empty())
	assert.Equal(t, "<3-1>", sel.String())
	assert.Equal(t, "<2>", state.NewSelection(2).String())
	assert.True(t, sel.Valid(d))
	assert.False(t, state.NewSelection(4).Valid(d))
	assert.False(t, state.NewSelection(42).Valid(d))
}

func TestSelectionMapping(t *testing.T) {
	s, err := builder.State(doc(p("a<a>b<b>c")))
	require.NoError(t, err)

	tr := s.Tr()
	tr.Insert(1, builder.Schema.Text("xy"))
	assert.Equal(t, state.NewSelection(4, 5), tr.Selection())

	tr = s.Tr()
	tr.Delete(1, 4)
	assert.Equal(t, state.NewSelection(1), tr.Selection())
}
