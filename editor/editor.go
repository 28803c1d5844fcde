// Package editor assembles descriptors into a Kit, the schema, Markdown
// parser and serializer shared by editors, and runs Editor instances: a
// state, its plugins and the dispatch loop applying transactions to it.
package editor

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/shodgson/proseeditor/markdown"
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/plugins"
	"github.com/shodgson/proseeditor/registry"
	"github.com/shodgson/proseeditor/state"
)

var (
	// ErrUnknownCommand is returned by Editor.Command for names no
	// descriptor exposes.
	ErrUnknownCommand = errors.New("unknown command")
)

// Kit holds what editors of the same descriptors share. It is immutable
// and safe for concurrent use.
type Kit struct {
	Registry   *registry.Registry
	Parser     *markdown.Parser
	Serializer *markdown.Serializer

	config Config
	logger *zap.Logger
}

// Option configures a Kit.
type Option func(*Kit)

// WithLogger sets the logger of the kit and its editors. The default logger
// discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(k *Kit) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// WithConfig sets the configuration of the kit.
func WithConfig(cfg Config) Option {
	return func(k *Kit) {
		k.config = cfg
	}
}

// NewKit builds the schema, parser and serializer of the descriptors.
func NewKit(descs []*registry.Descriptor, opts ...Option) (*Kit, error) {
	k := &Kit{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(k)
	}
	if err := k.config.Validate(); err != nil {
		return nil, err
	}
	reg, err := registry.BuildSchema(descs)
	if err != nil {
		return nil, err
	}
	for name := range k.config.Plugins {
		if _, ok := reg.Lookup(name); !ok {
			return nil, fmt.Errorf("%w: plugin options for unknown descriptor %q", ErrInvalidConfig, name)
		}
	}
	entries := reg.MarkdownEntries()
	parser, err := markdown.BuildParser(reg.Schema, entries)
	if err != nil {
		return nil, err
	}
	k.Registry = reg
	k.Parser = parser
	k.Serializer = markdown.BuildSerializer(entries, markdown.SerializerOptions{TightLists: k.config.TightLists})
	k.logger.Debug("kit built",
		zap.Int("descriptors", len(reg.Descriptors)),
		zap.Strings("rules", parser.Rules()),
	)
	return k, nil
}

// Schema returns the schema of the kit.
func (k *Kit) Schema() *model.Schema {
	return k.Registry.Schema
}

// Config returns the configuration of the kit.
func (k *Kit) Config() Config {
	return k.config
}

// Logger returns the logger of the kit.
func (k *Kit) Logger() *zap.Logger {
	return k.logger
}

// Parse parses Markdown into a document. Text without content gives the
// empty document of the schema.
func (k *Kit) Parse(text string) (*model.Node, error) {
	doc, err := k.Parser.Parse(text)
	if errors.Is(err, markdown.ErrNoContent) {
		return k.Schema().TopNodeType.CreateAndFill(nil, nil, nil), nil
	}
	return doc, err
}

// Serialize writes a document as Markdown.
func (k *Kit) Serialize(doc *model.Node) string {
	return k.Serializer.Serialize(doc)
}

// Plugins resolves the plugins of the descriptors followed by extra.
func (k *Kit) Plugins(extra ...plugins.Spec) ([]*state.Plugin, error) {
	spec := plugins.List{k.Registry.Plugins(k.config.Mac, k.config.Plugins)}
	spec = append(spec, extra...)
	for _, p := range WatchPlugins() {
		spec = append(spec, plugins.Of(p))
	}
	return plugins.Resolve(spec, &plugins.Context{Schema: k.Schema(), History: k.config.History.config()})
}

// New creates an editor holding the document parsed from text. extra
// plugins run after those of the descriptors.
func (k *Kit) New(text string, extra ...plugins.Spec) (*Editor, error) {
	doc, err := k.Parse(text)
	if err != nil {
		return nil, err
	}
	list, err := k.Plugins(extra...)
	if err != nil {
		return nil, err
	}
	s, err := state.Create(state.Config{Schema: k.Schema(), Doc: doc, Plugins: list})
	if err != nil {
		return nil, err
	}
	k.logger.Debug("editor created", zap.Strings("plugins", plugins.Names(list)))
	return &Editor{kit: k, state: s, subs: map[int]func(Update){}, logger: k.logger}, nil
}

// Editor is an editing session. It isn't safe for concurrent use.
type Editor struct {
	kit    *Kit
	state  *state.EditorState
	subs   map[int]func(Update)
	nextID int
	logger *zap.Logger
}

// State returns the current state.
func (e *Editor) State() *state.EditorState {
	return e.state
}

// Kit returns the kit the editor was created from.
func (e *Editor) Kit() *Kit {
	return e.kit
}

// Dispatch applies a transaction. A failing transaction is logged and the
// state is left untouched.
func (e *Editor) Dispatch(tr *state.Transaction) {
	if err := tr.Err(); err != nil {
		e.logger.Warn("transaction dropped", zap.Error(err))
		return
	}
	old := e.state
	next, err := old.Apply(tr)
	if err != nil {
		e.logger.Warn("transaction failed", zap.Error(err))
		return
	}
	e.state = next
	update := Update{
		State:            next,
		ContentChanged:   WatchPlugin(next, ContentKey) != WatchPlugin(old, ContentKey),
		SelectionChanged: WatchPlugin(next, SelectionKey) != WatchPlugin(old, SelectionKey),
	}
	if !update.ContentChanged && !update.SelectionChanged {
		return
	}
	ids := make([]int, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := e.subs[id]; ok {
			fn(update)
		}
	}
}

// Subscribe calls fn after every transaction changing the document or the
// selection. The returned function cancels the subscription.
func (e *Editor) Subscribe(fn func(Update)) (cancel func()) {
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	return func() { delete(e.subs, id) }
}

// Exec runs a command against the current state.
func (e *Editor) Exec(cmd state.Command) bool {
	return cmd(e.state, e.Dispatch)
}

// Command finds a command of a descriptor: "toggle" for its toggle
// command, or one of its extra commands.
func (e *Editor) Command(descriptor, name string) (state.Command, error) {
	d, ok := e.kit.Registry.Lookup(descriptor)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownCommand, descriptor, name)
	}
	if name == "toggle" && d.Commands.Toggle != nil {
		return d.Commands.Toggle, nil
	}
	if cmd, ok := d.Commands.Extra[name]; ok {
		return cmd, nil
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrUnknownCommand, descriptor, name)
}

// IsActive tells whether the selection is in the node or mark of the named
// descriptor.
func (e *Editor) IsActive(descriptor string) bool {
	d, ok := e.kit.Registry.Lookup(descriptor)
	return ok && d.Commands.IsActive != nil && d.Commands.IsActive(e.state)
}

// HandleKey runs the key handlers of the plugins, in order, until one
// handles the key.
func (e *Editor) HandleKey(name string) bool {
	event := state.KeyEvent{Name: name, Mac: e.kit.config.Mac}
	for _, p := range e.state.Plugins() {
		if p.Props.HandleKeyDown != nil && p.Props.HandleKeyDown(e.state, event, e.Dispatch) {
			e.logger.Debug("key handled", zap.String("key", name), zap.String("plugin", p.Name()))
			return true
		}
	}
	return false
}

// InsertText types text at the selection, one character at a time, so that
// input rules see it the way they would see typing.
func (e *Editor) InsertText(text string) {
	for len(text) > 0 {
		_, size := utf8.DecodeRuneInString(text)
		ch := text[:size]
		text = text[size:]
		from, to := e.state.Selection.From(), e.state.Selection.To()
		handled := false
		for _, p := range e.state.Plugins() {
			if p.Props.HandleTextInput != nil && p.Props.HandleTextInput(e.state, from, to, ch, e.Dispatch) {
				handled = true
				break
			}
		}
		if !handled {
			e.Dispatch(e.state.Tr().InsertText(ch))
		}
	}
}

// SetSelection selects from anchor to head, or puts the cursor at anchor.
func (e *Editor) SetSelection(anchor int, head ...int) error {
	sel := state.NewSelection(anchor, head...)
	if !sel.Valid(e.state.Doc) {
		return fmt.Errorf("%w: selection %s outside of textblocks", state.ErrInvalidTransaction, sel)
	}
	e.Dispatch(e.state.Tr().SetSelection(sel))
	return nil
}

// Markdown returns the document as Markdown.
func (e *Editor) Markdown() string {
	return e.kit.Serialize(e.state.Doc)
}

// HTML renders the document, with the node views of the plugins.
func (e *Editor) HTML() (string, error) {
	ser := model.DOMSerializerFromSchema(e.kit.Schema())
	for _, p := range e.state.Plugins() {
		for name, view := range p.Props.NodeViews {
			ser.Nodes[name] = view
		}
	}
	return ser.RenderHTML(e.state.Doc.Content)
}
