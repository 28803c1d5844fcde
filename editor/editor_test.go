package editor_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/shodgson/proseeditor/editor"
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/plugins"
	"github.com/shodgson/proseeditor/registry"
	"github.com/shodgson/proseeditor/schema/core"
	"github.com/shodgson/proseeditor/state"
)

func newKit(t *testing.T, opts ...editor.Option) *editor.Kit {
	t.Helper()
	kit, err := editor.NewKit(core.Descriptors(), opts...)
	require.NoError(t, err)
	return kit
}

func newEditor(t *testing.T, text string, opts ...editor.Option) *editor.Editor {
	t.Helper()
	e, err := newKit(t, opts...).New(text)
	require.NoError(t, err)
	return e
}

func TestNewKit(t *testing.T) {
	kit := newKit(t)
	for _, name := range []string{"doc", "paragraph", "text", "heading", "listItem", "image"} {
		assert.NotNil(t, kit.Schema().Nodes[name], name)
	}
	assert.NotNil(t, kit.Schema().Marks["mark"])
	assert.Equal(t, "doc", kit.Schema().TopNodeType.Name)

	_, err := editor.NewKit([]*registry.Descriptor{{Name: "widget", Kind: registry.NodeKind}})
	assert.ErrorIs(t, err, registry.ErrInvalidDescriptor)

	_, err = editor.NewKit(core.Descriptors(), editor.WithConfig(editor.Config{
		History: editor.HistoryConfig{Depth: -1},
	}))
	assert.ErrorIs(t, err, editor.ErrInvalidConfig)

	_, err = editor.NewKit(core.Descriptors(), editor.WithConfig(editor.Config{
		Plugins: map[string]registry.PluginOptions{"widget": {}},
	}))
	assert.ErrorIs(t, err, editor.ErrInvalidConfig)
}

func TestParse(t *testing.T) {
	kit := newKit(t)

	for _, text := range []string{"", "\n\n  "} {
		doc, err := kit.Parse(text)
		require.NoError(t, err)
		require.Equal(t, 1, doc.ChildCount())
		assert.Equal(t, "paragraph", doc.FirstChild().Type.Name)
		assert.Equal(t, 0, doc.FirstChild().Content.Size)
	}

	text := "# Title\n\nSome **bold** text"
	doc, err := kit.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "heading", doc.FirstChild().Type.Name)
	assert.Equal(t, text, kit.Serialize(doc))
}

func TestTightListsConfig(t *testing.T) {
	doc := func(kit *editor.Kit) *model.Node {
		typ := kit.Schema().Nodes
		item := func(text string) *model.Node {
			p, err := typ["paragraph"].Create(nil, kit.Schema().Text(text), nil)
			require.NoError(t, err)
			li, err := typ["listItem"].Create(nil, p, nil)
			require.NoError(t, err)
			return li
		}
		list, err := typ["bulletList"].Create(nil, []*model.Node{item("a"), item("b")}, nil)
		require.NoError(t, err)
		d, err := typ["doc"].Create(nil, list, nil)
		require.NoError(t, err)
		return d
	}
	loose := newKit(t)
	tight := newKit(t, editor.WithConfig(editor.Config{TightLists: true}))
	assert.Equal(t, "- a\n\n- b", loose.Serialize(doc(loose)))
	assert.Equal(t, "- a\n- b", tight.Serialize(doc(tight)))
}

func TestDispatch(t *testing.T) {
	logCore, logs := observer.New(zapcore.WarnLevel)
	e := newEditor(t, "ab", editor.WithLogger(zap.New(logCore)))
	before := e.State()

	tr := before.Tr()
	tr.Fail(errors.New("boom"))
	e.Dispatch(tr)
	assert.Same(t, before, e.State())
	assert.Equal(t, 1, logs.FilterMessage("transaction dropped").Len())

	// Transactions started from an older state are refused.
	e.InsertText("c")
	e.Dispatch(before.Tr().InsertText("x"))
	assert.Equal(t, "cab", e.Markdown())
	assert.Equal(t, 1, logs.FilterMessage("transaction failed").Len())
}

func TestSubscribe(t *testing.T) {
	e := newEditor(t, "")
	var updates []editor.Update
	cancel := e.Subscribe(func(u editor.Update) { updates = append(updates, u) })

	e.InsertText("ab")
	require.Len(t, updates, 2)
	for _, u := range updates {
		assert.True(t, u.ContentChanged)
		assert.True(t, u.SelectionChanged)
	}
	assert.Same(t, e.State(), updates[1].State)

	require.NoError(t, e.SetSelection(1))
	require.Len(t, updates, 3)
	assert.False(t, updates[2].ContentChanged)
	assert.True(t, updates[2].SelectionChanged)

	// Nothing changes, nothing is sent.
	require.NoError(t, e.SetSelection(1))
	assert.Len(t, updates, 3)

	cancel()
	e.InsertText("c")
	assert.Len(t, updates, 3)
	assert.Equal(t, editor.WatchPlugin(updates[2].State, editor.SelectionKey)+1, editor.WatchPlugin(e.State(), editor.SelectionKey))
}

func TestSetSelection(t *testing.T) {
	e := newEditor(t, "abc")
	require.NoError(t, e.SetSelection(1, 3))
	assert.Equal(t, state.NewSelection(1, 3), e.State().Selection)

	err := e.SetSelection(0)
	assert.ErrorIs(t, err, state.ErrInvalidTransaction)
	assert.Equal(t, state.NewSelection(1, 3), e.State().Selection)
}

func TestCommands(t *testing.T) {
	e := newEditor(t, "hello")
	require.NoError(t, e.SetSelection(1, 6))

	bold, err := e.Command("bold", "toggle")
	require.NoError(t, err)
	assert.True(t, e.Exec(bold))
	assert.True(t, e.IsActive("bold"))
	assert.Equal(t, "**hello**", e.Markdown())

	toH2, err := e.Command("heading", "toH2")
	require.NoError(t, err)
	assert.True(t, e.Exec(toH2))
	assert.True(t, e.IsActive("heading"))
	assert.Equal(t, "## **hello**", e.Markdown())

	_, err = e.Command("widget", "toggle")
	assert.ErrorIs(t, err, editor.ErrUnknownCommand)
	_, err = e.Command("bold", "explode")
	assert.ErrorIs(t, err, editor.ErrUnknownCommand)
	assert.False(t, e.IsActive("widget"))
	assert.False(t, e.IsActive("doc"))
}

func TestHandleKey(t *testing.T) {
	e := newEditor(t, "")
	e.InsertText("ab")
	require.True(t, e.HandleKey("Ctrl-z"))
	assert.Equal(t, "", e.Markdown())

	require.True(t, e.HandleKey("Ctrl-y"))
	assert.Equal(t, "ab", e.Markdown())

	assert.False(t, e.HandleKey("Ctrl-F13"))
}

func TestKeybindingOverride(t *testing.T) {
	e := newEditor(t, "title", editor.WithConfig(editor.Config{
		Plugins: map[string]registry.PluginOptions{
			"heading": {Keybindings: map[string]string{"toH1": "Alt-1"}},
		},
	}))
	require.NoError(t, e.SetSelection(1))
	assert.False(t, e.HandleKey("Shift-Ctrl-1"))
	require.True(t, e.HandleKey("Alt-1"))
	assert.Equal(t, "# title", e.Markdown())
}

func TestExtraPlugins(t *testing.T) {
	seen := 0
	counter := state.NewPlugin(state.PluginSpec{
		Name: "seen",
		Props: state.Props{
			HandleTextInput: func(*state.EditorState, int, int, string, state.Dispatch) bool {
				seen++
				return false
			},
		},
	})
	kit := newKit(t)
	e, err := kit.New("", plugins.Of(counter))
	require.NoError(t, err)
	e.InsertText("xyz")
	assert.Equal(t, 3, seen)
	assert.Equal(t, "xyz", e.Markdown())

	_, err = kit.New("", plugins.Of(errors.New("broken")))
	assert.Error(t, err)
}

func TestHTML(t *testing.T) {
	e := newEditor(t, "# Hi\n\n*a* `b`")
	out, err := e.HTML()
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hi</h1><p><em>a</em> <code>b</code></p>", out)
}

func TestConfig(t *testing.T) {
	cfg, err := editor.ParseConfig([]byte(`
mac: true
tightLists: true
history:
  depth: 50
  newGroupDelay: 250
plugins:
  heading:
    keybindings:
      toH1: Alt-1
    markdownShortcut: false
`))
	require.NoError(t, err)
	assert.True(t, cfg.Mac)
	assert.True(t, cfg.TightLists)
	assert.Equal(t, 50, cfg.History.Depth)
	assert.Equal(t, 250, cfg.History.NewGroupDelay)
	require.Contains(t, cfg.Plugins, "heading")
	assert.Equal(t, "Alt-1", cfg.Plugins["heading"].Keybindings["toH1"])
	assert.False(t, cfg.Plugins["heading"].Shortcuts())
	assert.True(t, cfg.Plugins["heading"].NodeViews())

	for _, bad := range []string{
		"unknown: 1",
		"history:\n  depth: -3",
		"history:\n  depth: 100000",
		"plugins:\n  heading:\n    shortcut: false",
	} {
		_, err := editor.ParseConfig([]byte(bad))
		assert.ErrorIs(t, err, editor.ErrInvalidConfig, bad)
	}
	_, err = editor.ParseConfig(nil)
	assert.ErrorIs(t, err, editor.ErrInvalidConfig)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tightLists: true\n"), 0o600))
	cfg, err := editor.LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.TightLists)

	_, err = editor.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
