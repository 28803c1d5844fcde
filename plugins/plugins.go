// Package plugins resolves a tree of plugin specifications into the flat,
// validated list of plugins an editor state runs with.
package plugins

import (
	"errors"
	"fmt"

	"github.com/shodgson/proseeditor/commands"
	"github.com/shodgson/proseeditor/history"
	"github.com/shodgson/proseeditor/inputrules"
	"github.com/shodgson/proseeditor/keymap"
	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/state"
)

var (
	// ErrDuplicatePluginGroup is returned when two groups share a name.
	ErrDuplicatePluginGroup = errors.New("duplicate plugin group")
	// ErrMissingContext is returned when a deferred specification is met
	// without a context to call it with.
	ErrMissingContext = errors.New("deferred plugin without context")
	// ErrUnknownViewTarget is returned when a plugin overrides the view of a
	// node type the schema doesn't have.
	ErrUnknownViewTarget = errors.New("node view for unknown node type")
	// ErrDuplicateViewTarget is returned when two plugins override the view
	// of the same node type.
	ErrDuplicateViewTarget = errors.New("duplicate node view")
	// ErrInvalidBehavior is returned for leaves that are neither plugins nor
	// input rules.
	ErrInvalidBehavior = errors.New("invalid plugin")
)

// Spec is a plugin specification: a Behavior, a Group, a List or a Deferred.
// A nil Spec is dropped.
type Spec interface {
	spec()
}

// Behavior is a leaf: a *state.Plugin or an *inputrules.Rule. A nil or
// false value is dropped. An error aborts the resolution with that error,
// which lets deferred specifications report failures.
type Behavior struct {
	Value interface{}
}

// Group is a named list of specifications. Names are unique in a
// resolution.
type Group struct {
	Name    string
	Members []Spec
}

// List is a list of specifications.
type List []Spec

// Deferred is a specification computed once the schema is known.
type Deferred func(ctx *Context) Spec

func (Behavior) spec() {}
func (Group) spec()    {}
func (List) spec()     {}
func (Deferred) spec() {}

// Of wraps a plugin or an input rule.
func Of(v interface{}) Spec {
	return Behavior{Value: v}
}

// Rules wraps input rules.
func Rules(rules ...*inputrules.Rule) Spec {
	list := make(List, len(rules))
	for i, r := range rules {
		list[i] = Of(r)
	}
	return list
}

// Context is given to deferred specifications.
type Context struct {
	Schema  *model.Schema
	History history.Config
}

type resolver struct {
	ctx    *Context
	groups map[string]bool
	leaves []interface{}
}

func (r *resolver) flatten(spec Spec) error {
	switch spec := spec.(type) {
	case nil:
	case Behavior:
		if spec.Value == nil || spec.Value == false {
			return nil
		}
		switch v := spec.Value.(type) {
		case error:
			return v
		case *state.Plugin:
			if v == nil {
				return nil
			}
		case *inputrules.Rule:
			if v == nil {
				return nil
			}
		}
		r.leaves = append(r.leaves, spec.Value)
	case Group:
		if r.groups[spec.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicatePluginGroup, spec.Name)
		}
		r.groups[spec.Name] = true
		for _, member := range spec.Members {
			if err := r.flatten(member); err != nil {
				return err
			}
		}
	case List:
		for _, member := range spec {
			if err := r.flatten(member); err != nil {
				return err
			}
		}
	case Deferred:
		if spec == nil {
			return nil
		}
		if r.ctx == nil {
			return ErrMissingContext
		}
		return r.flatten(spec(r.ctx))
	default:
		return fmt.Errorf("%w: %T", ErrInvalidBehavior, spec)
	}
	return nil
}

func (r *resolver) hasHistory() bool {
	if r.groups[history.GroupName] {
		return true
	}
	for _, leaf := range r.leaves {
		if p, ok := leaf.(*state.Plugin); ok && p.Key == history.PluginKey {
			return true
		}
	}
	return false
}

// HistoryGroup is the default history group: the history plugin and its
// keymap.
func HistoryGroup(cfg history.Config) (Spec, error) {
	km, err := keymap.Plugin("historyKeymap", history.Keymap())
	if err != nil {
		return nil, err
	}
	return Group{Name: history.GroupName, Members: []Spec{Of(history.Plugin(cfg)), Of(km)}}, nil
}

// Resolve flattens spec depth-first, left to right, and completes it:
//   - a history group is added when there is none;
//   - input rules are collected into one input rule plugin, followed by a
//     keymap undoing them on Backspace;
//   - the base keymap, the drop cursor and the gap cursor come last.
//
// Node views must target node types of the schema, at most once each.
func Resolve(spec Spec, ctx *Context) ([]*state.Plugin, error) {
	r := &resolver{ctx: ctx, groups: map[string]bool{}}
	if err := r.flatten(spec); err != nil {
		return nil, err
	}
	if !r.hasHistory() {
		var cfg history.Config
		if ctx != nil {
			cfg = ctx.History
		}
		group, err := HistoryGroup(cfg)
		if err != nil {
			return nil, err
		}
		if err := r.flatten(group); err != nil {
			return nil, err
		}
	}

	var out []*state.Plugin
	var rules []*inputrules.Rule
	for _, leaf := range r.leaves {
		switch leaf := leaf.(type) {
		case *state.Plugin:
			out = append(out, leaf)
		case *inputrules.Rule:
			rules = append(rules, leaf)
		default:
			return nil, fmt.Errorf("%w: %T", ErrInvalidBehavior, leaf)
		}
	}

	undo, err := keymap.Plugin("undoInputRule", keymap.NewBindings().Bind("Backspace", inputrules.UndoInputRule))
	if err != nil {
		return nil, err
	}
	base, err := keymap.Plugin("baseKeymap", commands.BaseKeymap())
	if err != nil {
		return nil, err
	}
	gap, err := GapCursor()
	if err != nil {
		return nil, err
	}
	out = append(out, inputrules.Plugin(rules...), undo, base, DropCursor(), gap)

	var schema *model.Schema
	if ctx != nil {
		schema = ctx.Schema
	}
	if err := validateNodeViews(out, schema); err != nil {
		return nil, err
	}
	return out, nil
}

func validateNodeViews(plugins []*state.Plugin, schema *model.Schema) error {
	seen := map[string]string{}
	for _, p := range plugins {
		for name := range p.Props.NodeViews {
			if schema == nil || schema.Nodes[name] == nil {
				return fmt.Errorf("%w: %s (plugin %s)", ErrUnknownViewTarget, name, p.Name())
			}
			if other, ok := seen[name]; ok {
				return fmt.Errorf("%w: %s (plugins %s and %s)", ErrDuplicateViewTarget, name, other, p.Name())
			}
			seen[name] = p.Name()
		}
	}
	return nil
}

// Names lists the names of plugins.
func Names(plugins []*state.Plugin) []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name()
	}
	return names
}
