// Package registry turns descriptors of nodes and marks into a schema, and
// gathers their Markdown behaviour and plugins.
//
// A Descriptor bundles everything the editor knows about one node or mark
// type: its structural spec, how it round-trips through Markdown, the
// plugins it contributes and the commands it exposes.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/shodgson/proseeditor/commands"
	"github.com/shodgson/proseeditor/keymap"
	"github.com/shodgson/proseeditor/markdown"
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/plugins"
	"github.com/shodgson/proseeditor/state"
)

var (
	// ErrInvalidDescriptor is returned for descriptors without a name, with
	// an unknown kind or without a structural spec.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
	// ErrDuplicateName is returned when two descriptors share a name.
	ErrDuplicateName = errors.New("duplicate descriptor name")
)

// Kind tells whether a descriptor describes a node or a mark.
type Kind string

const (
	NodeKind Kind = "node"
	MarkKind Kind = "mark"
)

// PluginOptions tune the plugins of one descriptor.
type PluginOptions struct {
	// Keybindings override the shortcuts of commands, by command name. An
	// empty shortcut unbinds the command.
	Keybindings map[string]string `yaml:"keybindings"`
	// MarkdownShortcut enables the input rules of the descriptor. Defaults
	// to true.
	MarkdownShortcut *bool `yaml:"markdownShortcut"`
	// NodeView enables the custom rendering of the descriptor, if it has
	// one. Defaults to true.
	NodeView *bool `yaml:"nodeView"`
	// Mac selects the shortcuts of macOS.
	Mac bool `yaml:"-"`
}

// Shortcuts reports whether input rules are enabled.
func (o PluginOptions) Shortcuts() bool {
	return o.MarkdownShortcut == nil || *o.MarkdownShortcut
}

// NodeViews reports whether node views are enabled.
func (o PluginOptions) NodeViews() bool {
	return o.NodeView == nil || *o.NodeView
}

// PluginFactory builds the plugins of a descriptor. Plugins needing the
// schema are returned as a plugins.Deferred.
type PluginFactory func(opts PluginOptions) plugins.Spec

// Commands are the commands a descriptor exposes to menus and hosts.
type Commands struct {
	// Toggle applies or removes the node or mark at the selection.
	Toggle state.Command
	// IsActive tells whether the selection is inside the node or mark.
	IsActive commands.Predicate
	// Extra holds the other commands, by name.
	Extra map[string]state.Command
}

// Descriptor describes a node or a mark type.
type Descriptor struct {
	Name string
	Kind Kind
	// TopNode makes the node the top node of the schema.
	TopNode bool
	Node    *model.NodeSpec
	Mark    *model.MarkSpec
	// Markdown is how the type round-trips through Markdown, if it does.
	Markdown *markdown.Spec
	Plugins  PluginFactory
	// Keys maps command names to their default shortcut. MacKeys replace
	// some of them on macOS.
	Keys     map[string]string
	MacKeys  map[string]string
	Commands Commands
}

func (d *Descriptor) validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidDescriptor)
	case d.Kind != NodeKind && d.Kind != MarkKind:
		return fmt.Errorf("%w: %s: unknown kind %q", ErrInvalidDescriptor, d.Name, d.Kind)
	case d.Kind == NodeKind && d.Node == nil, d.Kind == MarkKind && d.Mark == nil:
		return fmt.Errorf("%w: %s: missing schema", ErrInvalidDescriptor, d.Name)
	}
	return nil
}

// Shortcut returns the shortcut of a command, or "" when it is unbound.
func (d *Descriptor) Shortcut(opts PluginOptions, command string) string {
	if key, ok := opts.Keybindings[command]; ok {
		return key
	}
	if opts.Mac {
		if key, ok := d.MacKeys[command]; ok {
			return key
		}
	}
	return d.Keys[command]
}

// Binding names a command of a descriptor.
type Binding struct {
	Name    string
	Command state.Command
}

// Keymap builds the keymap plugin binding each command to its shortcut.
// Commands without a shortcut are left out. When two commands share a
// shortcut the later one wins.
func (d *Descriptor) Keymap(opts PluginOptions, bindings ...Binding) plugins.Spec {
	b := keymap.NewBindings()
	for _, binding := range bindings {
		if key := d.Shortcut(opts, binding.Name); key != "" && binding.Command != nil {
			b.Bind(key, binding.Command)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	p, err := keymap.Plugin(d.Name+"Keymap", b)
	if err != nil {
		return plugins.Of(fmt.Errorf("%s keymap: %w", d.Name, err))
	}
	return plugins.Of(p)
}

// Registry is the result of BuildSchema.
type Registry struct {
	Schema *model.Schema
	// Descriptors are the descriptors of the schema, built-in ones first.
	Descriptors []*Descriptor

	byName map[string]*Descriptor
}

// BuildSchema validates the descriptors and builds their schema. Nil
// descriptors are skipped. Every invalid descriptor is reported. The doc,
// text and paragraph types are added first when missing.
func BuildSchema(descs []*Descriptor) (*Registry, error) {
	list := make([]*Descriptor, 0, len(descs)+3)
	for _, d := range descs {
		if d != nil {
			list = append(list, d)
		}
	}

	var errs error
	var top []string
	for _, d := range list {
		errs = multierr.Append(errs, d.validate())
		if d.Kind == NodeKind && d.TopNode {
			top = append(top, d.Name)
		}
	}
	if len(top) > 1 {
		errs = multierr.Append(errs, fmt.Errorf("%w: more than one top node: %v", ErrInvalidDescriptor, top))
	}
	if errs != nil {
		return nil, errs
	}

	byName := make(map[string]*Descriptor, len(list))
	for _, d := range list {
		if _, ok := byName[d.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, d.Name)
		}
		byName[d.Name] = d
	}
	var builtins []*Descriptor
	if _, ok := byName[DocName]; !ok {
		builtins = append(builtins, Doc(len(top) == 0))
	}
	if _, ok := byName[TextName]; !ok {
		builtins = append(builtins, Text())
	}
	if _, ok := byName[ParagraphName]; !ok {
		builtins = append(builtins, Paragraph())
	}
	for _, d := range builtins {
		byName[d.Name] = d
	}
	list = append(builtins, list...)

	spec := &model.SchemaSpec{TopNode: DocName}
	for _, d := range list {
		switch d.Kind {
		case NodeKind:
			node := *d.Node
			node.Key = d.Name
			spec.Nodes = append(spec.Nodes, &node)
			if d.TopNode {
				spec.TopNode = d.Name
			}
		case MarkKind:
			mark := *d.Mark
			mark.Key = d.Name
			spec.Marks = append(spec.Marks, &mark)
		}
	}
	schema, err := model.NewSchema(spec)
	if err != nil {
		return nil, err
	}
	return &Registry{Schema: schema, Descriptors: list, byName: byName}, nil
}

// Lookup finds a descriptor by name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names lists the names of the descriptors, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MarkdownEntries returns the Markdown behaviour of the descriptors, in
// order.
func (r *Registry) MarkdownEntries() []markdown.Entry {
	var entries []markdown.Entry
	for _, d := range r.Descriptors {
		if d.Markdown != nil {
			entries = append(entries, markdown.Entry{Name: d.Name, Spec: d.Markdown})
		}
	}
	return entries
}

// Plugins returns the plugins of every descriptor, in order. options holds
// the options of each descriptor by name.
func (r *Registry) Plugins(mac bool, options map[string]PluginOptions) plugins.Spec {
	var list plugins.List
	for _, d := range r.Descriptors {
		if d.Plugins == nil {
			continue
		}
		opts := options[d.Name]
		opts.Mac = mac
		list = append(list, d.Plugins(opts))
	}
	return list
}
