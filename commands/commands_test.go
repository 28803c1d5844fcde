package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shodgson/proseeditor/commands"
	"github.com/shodgson/proseeditor/state"
	"github.com/shodgson/proseeditor/test/builder"
)

var (
	doc        = builder.Doc
	p          = builder.P
	blockquote = builder.Blockquote
	pre        = builder.Pre
	h1         = builder.H1
	ul         = builder.Ul
	ol         = builder.Ol
	li         = builder.Li
	todo       = builder.Todo
	done       = builder.Done
	br         = builder.Br
	hr         = builder.Hr
	strong     = builder.Bold
)

var none builder.NodeWithTag

// apply runs cmd on d and checks the resulting document, and the cursor when
// expected has an "a" tag. A zero expected means the command must not apply.
func apply(t *testing.T, d builder.NodeWithTag, cmd state.Command, expected builder.NodeWithTag) *state.EditorState {
	t.Helper()
	s, err := builder.State(d)
	require.NoError(t, err)
	dry := cmd(s, nil)
	next, ok, err := builder.Run(s, cmd)
	require.NoError(t, err)
	assert.Equal(t, dry, ok, "dry run disagrees")
	if expected.Node == nil {
		assert.False(t, ok, "command applied: %s", next.Doc.String())
		return next
	}
	require.True(t, ok, "command didn't apply")
	assert.True(t, next.Doc.Eq(expected.Node), "%s != %s", next.Doc.String(), expected.String())
	if a, has := expected.Tag["a"]; has {
		assert.Equal(t, a, next.Selection.Head)
	}
	return next
}

func TestToggleMark(t *testing.T) {
	bold := commands.ToggleMark("bold", nil)

	apply(t, doc(p("<a>foo<b> bar")), bold, doc(p(strong("foo"), " bar")))
	apply(t, doc(p("<a> foo <b>bar")), bold, doc(p(" ", strong("foo"), " bar")))
	apply(t, doc(p(strong("<a>foo<b>"), " bar")), bold, doc(p("foo bar")))
	apply(t, doc(pre("<a>foo<b>")), bold, none)
	apply(t, doc(p("<a>foo<b>")), commands.ToggleMark("nope", nil), none)

	// With a cursor, the stored marks are toggled.
	s := apply(t, doc(p("foo<a>")), bold, doc(p("foo")))
	assert.True(t, commands.IsMarkActive("bold")(s))
	s, ok, err := builder.Run(s, bold)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, commands.IsMarkActive("bold")(s))
}

func TestIsMarkActive(t *testing.T) {
	active := func(d builder.NodeWithTag) bool {
		s, err := builder.State(d)
		require.NoError(t, err)
		return commands.IsMarkActive("bold")(s)
	}
	assert.True(t, active(doc(p(strong("fo<a>o")))))
	assert.True(t, active(doc(p("<a>a", strong("b<b>")))))
	assert.False(t, active(doc(p("<a>a<b>", strong("b")))))
	assert.False(t, active(doc(p("fo<a>o"))))
}

func TestRemoveMark(t *testing.T) {
	apply(t, doc(p(strong("<a>foo<b>"))), commands.RemoveMark("bold"), doc(p("foo")))
	apply(t, doc(p("<a>foo<b>")), commands.RemoveMark("bold"), none)
	apply(t, doc(p("<a>foo<b>")), commands.RemoveMark("nope"), none)
}

func TestSetBlockType(t *testing.T) {
	heading := map[string]interface{}{"level": 1}
	apply(t, doc(p("<a>foo")), commands.SetBlockType("heading", heading), doc(h1("foo")))
	apply(t, doc(h1("<a>foo")), commands.SetBlockType("heading", heading), none)
	apply(t, doc(p("<a>foo")), commands.SetBlockType("codeBlock", nil), doc(pre("foo")))
	apply(t, doc(p("<a>foo")), commands.SetBlockType("blockquote", nil), none)

	apply(t, doc(h1("<a>foo")), commands.ToggleBlockType("heading", heading), doc(p("foo")))
	apply(t, doc(p("<a>foo")), commands.ToggleBlockType("heading", heading), doc(h1("foo")))
}

func TestWrapAndLift(t *testing.T) {
	apply(t, doc(p("<a>foo")), commands.WrapIn("blockquote", nil), doc(blockquote(p("foo"))))
	apply(t, doc(blockquote(p("<a>foo"))), commands.Lift, doc(p("foo")))
	apply(t, doc(p("<a>foo")), commands.Lift, none)

	toggle := commands.ToggleWrap("blockquote", nil)
	apply(t, doc(p("<a>foo")), toggle, doc(blockquote(p("foo"))))
	apply(t, doc(blockquote(p("<a>foo"))), toggle, doc(p("foo")))
}

func TestCodeBlocks(t *testing.T) {
	apply(t, doc(pre("foo<a>bar")), commands.NewlineInCode, doc(pre("foo\nbar")))
	apply(t, doc(p("foo<a>bar")), commands.NewlineInCode, none)

	apply(t, doc(pre("foo<a>")), commands.ExitCode, doc(pre("foo"), p("<a>")))
	apply(t, doc(p("foo<a>")), commands.ExitCode, none)
}

func TestSplitBlock(t *testing.T) {
	apply(t, doc(p("foo<a>bar")), commands.SplitBlock, doc(p("foo"), p("<a>bar")))
	apply(t, doc(h1("foo<a>")), commands.SplitBlock, doc(h1("foo"), p("<a>")))
	apply(t, doc(h1("<a>foo")), commands.SplitBlock, doc(p(), h1("<a>foo")))
	apply(t, doc(p("f<a>oo<b>bar")), commands.SplitBlock, doc(p("f"), p("<a>bar")))
}

func TestLiftEmptyBlock(t *testing.T) {
	apply(t, doc(blockquote(p("<a>"))), commands.LiftEmptyBlock, doc(p()))
	apply(t, doc(blockquote(p("foo<a>"))), commands.LiftEmptyBlock, none)
	apply(t, doc(p("<a>")), commands.LiftEmptyBlock, none)
}

func TestJoin(t *testing.T) {
	apply(t, doc(p("foo"), p("<a>bar")), commands.JoinBackward, doc(p("foo<a>bar")))
	apply(t, doc(hr(), p("<a>bar")), commands.JoinBackward, doc(p("bar")))
	apply(t, doc(p("<a>foo")), commands.JoinBackward, none)
	apply(t, doc(blockquote(p("<a>foo"))), commands.JoinBackward, doc(p("foo")))
	apply(t, doc(p("f<a>oo"), p("bar")), commands.JoinBackward, none)

	apply(t, doc(p("foo<a>"), p("bar")), commands.JoinForward, doc(p("foo<a>bar")))
	apply(t, doc(p("foo<a>")), commands.JoinForward, none)
}

func TestSelectionCommands(t *testing.T) {
	apply(t, doc(p("f<a>oo<b>")), commands.DeleteSelection, doc(p("f<a>")))
	apply(t, doc(p("f<a>oo")), commands.DeleteSelection, none)

	s := apply(t, doc(p("foo"), p("bar")), commands.SelectAll, doc(p("foo"), p("bar")))
	assert.Equal(t, state.NewSelection(1, 9), s.Selection)
}

func TestInsert(t *testing.T) {
	apply(t, doc(p("foo<a>bar")), commands.InsertHardBreak("hardBreak"), doc(p("foo", br(), "<a>bar")))
	apply(t, doc(pre("foo<a>")), commands.InsertHardBreak("hardBreak"), none)
	apply(t, doc(p("foo<a>")), commands.InsertHardBreak("nope"), none)

	apply(t, doc(p("foo<a>")), commands.InsertNode("horizontalRule", nil), doc(p("foo"), hr()))
}

func TestWrapInList(t *testing.T) {
	apply(t, doc(p("<a>foo")), commands.WrapInList("bulletList", nil, nil), doc(ul(li(p("foo")))))
	apply(t, doc(p("<a>foo"), p("bar<b>")), commands.WrapInList("orderedList", nil, nil),
		doc(ol(li(p("foo")), li(p("bar")))))
}

func TestToggleList(t *testing.T) {
	bullets := commands.ToggleList("bulletList", "listItem", false)
	todos := commands.ToggleList("bulletList", "listItem", true)
	numbers := commands.ToggleList("orderedList", "listItem", false)

	apply(t, doc(p("<a>foo")), bullets, doc(ul(li(p("foo")))))
	apply(t, doc(p("<a>foo")), todos, doc(ul(todo(p("foo")))))
	apply(t, doc(ul(li(p("<a>foo")))), bullets, doc(p("foo")))
	apply(t, doc(ul(li(p("<a>foo")))), numbers, doc(ol(li(p("foo")))))
	apply(t, doc(ul(li(p("<a>foo")))), todos, doc(ul(todo(p("foo")))))
	apply(t, doc(ul(done(p("<a>foo")))), bullets, doc(ul(li(p("foo")))))
}

func TestListItems(t *testing.T) {
	indent := commands.IndentListItem("listItem")
	outdent := commands.OutdentListItem("listItem")
	split := commands.SplitListItem("listItem")

	apply(t, doc(ul(li(p("a")), li(p("<a>b")))), indent, doc(ul(li(p("a"), ul(li(p("b")))))))
	apply(t, doc(ul(li(p("<a>a")), li(p("b")))), indent, none)

	apply(t, doc(ul(li(p("a"), ul(li(p("<a>b")))))), outdent, doc(ul(li(p("a")), li(p("b")))))
	apply(t, doc(ul(li(p("<a>a")))), outdent, doc(p("a")))

	apply(t, doc(ul(li(p("foo<a>bar")))), split, doc(ul(li(p("foo")), li(p("bar")))))
	apply(t, doc(ul(done(p("foo<a>")))), split, doc(ul(done(p("foo")), todo(p()))))
	apply(t, doc(ul(li(p("foo")), li(p("<a>")))), split, none)
	apply(t, doc(p("foo<a>")), split, none)

	toggle := commands.ToggleTodo("listItem")
	s := apply(t, doc(ul(li(p("<a>a")))), toggle, doc(ul(todo(p("a")))))
	s, ok, err := builder.Run(s, toggle)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, s.Doc.Eq(doc(ul(done(p("a")))).Node), s.Doc.String())
	apply(t, doc(p("<a>a")), toggle, none)
}

func TestNodeCommands(t *testing.T) {
	down := commands.MoveNode("listItem", commands.Down)
	up := commands.MoveNode("listItem", commands.Up)
	apply(t, doc(ul(li(p("<a>a")), li(p("b")))), down, doc(ul(li(p("b")), li(p("<a>a")))))
	apply(t, doc(ul(li(p("a")), li(p("<a>b")))), up, doc(ul(li(p("<a>b")), li(p("a")))))
	apply(t, doc(ul(li(p("<a>a")), li(p("b")))), up, none)
	apply(t, doc(p("<a>a")), down, none)

	apply(t, doc(p("<a>foo")), commands.InsertEmpty("paragraph", commands.Below, false, nil), doc(p("foo"), p("<a>")))
	apply(t, doc(p("foo<a>")), commands.InsertEmpty("paragraph", commands.Above, false, nil), doc(p("<a>"), p("foo")))
	apply(t, doc(ul(li(p("<a>a")))), commands.InsertEmpty("listItem", commands.Below, true, nil), doc(ul(li(p("a")), li(p()))))

	apply(t, doc(blockquote(p("a"), p("b<a>"))), commands.JumpToStartOfNode("blockquote"), doc(blockquote(p("<a>a"), p("b"))))
	apply(t, doc(blockquote(p("<a>a"), p("b"))), commands.JumpToEndOfNode("blockquote"), doc(blockquote(p("a"), p("b<a>"))))
	apply(t, doc(p("<a>a")), commands.JumpToStartOfNode("blockquote"), none)
}

func TestPredicates(t *testing.T) {
	s, err := builder.State(doc(ul(li(p("<a>a")))))
	require.NoError(t, err)

	assert.True(t, commands.ParentHasDirectParentOfType("paragraph", "listItem")(s))
	assert.False(t, commands.ParentHasDirectParentOfType("paragraph", "blockquote")(s))
	assert.True(t, commands.IsNodeActive("listItem", nil)(s))
	assert.False(t, commands.IsNodeActive("listItem", map[string]interface{}{"todoChecked": true})(s))

	found, ok := commands.FindParentNodeOfType(s, "bulletList", "orderedList")
	require.True(t, ok)
	assert.Equal(t, 0, found.Pos)
	assert.Equal(t, 1, found.Start)
	assert.Equal(t, 1, found.Depth)
	_, ok = commands.FindParentNodeOfType(s, "blockquote")
	assert.False(t, ok)
}

func TestCombinators(t *testing.T) {
	s, err := builder.State(doc(p("<a>a")))
	require.NoError(t, err)

	var ran []string
	cmd := func(name string, result bool) state.Command {
		return func(*state.EditorState, state.Dispatch) bool {
			ran = append(ran, name)
			return result
		}
	}
	assert.True(t, commands.Chain(nil, cmd("a", false), cmd("b", true), cmd("c", true))(s, nil))
	assert.Equal(t, []string{"a", "b"}, ran)
	assert.False(t, commands.Chain()(s, nil))
	assert.False(t, commands.Never(s, nil))

	yes := func(*state.EditorState) bool { return true }
	no := func(*state.EditorState) bool { return false }
	assert.True(t, commands.Conditional(cmd("d", true), yes)(s, nil))
	assert.False(t, commands.Conditional(cmd("e", true), yes, no)(s, nil))
	assert.False(t, commands.Conditional(nil)(s, nil))
	assert.Equal(t, []string{"a", "b", "d"}, ran)
}

func TestBaseKeymap(t *testing.T) {
	b := commands.BaseKeymap()
	assert.Equal(t, []string{"Enter", "Backspace", "Mod-Backspace", "Shift-Backspace", "Delete", "Mod-Delete", "Mod-a"}, b.Keys())

	s, err := builder.State(doc(pre("a<a>")))
	require.NoError(t, err)
	s, ok, err := builder.Run(s, b.Get("Enter"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, s.Doc.Eq(doc(pre("a\n")).Node), s.Doc.String())
}
