// Package marks describes the marks of the editor: their schema, how they
// round-trip through Markdown, their input rules and their shortcuts.
package marks

import (
	"github.com/shodgson/proseeditor/commands"
	"github.com/shodgson/proseeditor/inputrules"
	"github.com/shodgson/proseeditor/markdown"
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/plugins"
	"github.com/shodgson/proseeditor/registry"
)

// rules describe a mark the way most of them are built: a toggle command
// with a shortcut, and input rules typing the mark with its delimiters.
type rules struct {
	name     string
	spec     *model.MarkSpec
	markdown *markdown.Spec
	toggle   string
	inputs   []string
	// bindings are bound after the toggle command, to the shortcuts in
	// keys.
	bindings []registry.Binding
	keys     map[string]string
}

func (r rules) descriptor() *registry.Descriptor {
	toggle := commands.ToggleMark(r.name, nil)
	d := &registry.Descriptor{
		Name:     r.name,
		Kind:     registry.MarkKind,
		Mark:     r.spec,
		Markdown: r.markdown,
		Keys:     map[string]string{"toggle": r.toggle},
		Commands: registry.Commands{
			Toggle:   toggle,
			IsActive: commands.IsMarkActive(r.name),
		},
	}
	for name, key := range r.keys {
		d.Keys[name] = key
	}
	d.Plugins = func(opts registry.PluginOptions) plugins.Spec {
		var list plugins.List
		if opts.Shortcuts() {
			for _, pattern := range r.inputs {
				list = append(list, plugins.Of(inputrules.MarkRule(pattern, r.name)))
			}
		}
		bindings := append([]registry.Binding{{Name: "toggle", Command: toggle}}, r.bindings...)
		return append(list, d.Keymap(opts, bindings...))
	}
	return d
}

// delimited is the Markdown behaviour of a mark written between two copies
// of delim. token is the name of the tokens it is parsed from.
func delimited(name, delim, token, tag string, synthesize bool, where markdown.Where) *markdown.Spec {
	return &markdown.Spec{
		Mark: &markdown.MarkSerializerSpec{
			Open:                     delim,
			Close:                    delim,
			Mixable:                  true,
			ExpelEnclosingWhitespace: true,
		},
		Parse:      map[string]*markdown.ParseSpec{token: {Mark: name}},
		Tag:        tag,
		Where:      where,
		Synthesize: synthesize,
	}
}

// All returns the descriptors of every mark, in schema order.
func All() []*registry.Descriptor {
	return []*registry.Descriptor{
		Strike(), Subscript(), Superscript(), Bold(), Code(), Underline(), Italic(), Link(), Highlight(),
	}
}
