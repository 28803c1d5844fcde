// Package state holds the editor state: a document, a selection, stored
// marks and the state of the active plugins, updated by applying
// transactions.
package state

import (
	"errors"
	"fmt"

	"github.com/shodgson/proseeditor/model"
)

var (
	// ErrDuplicatePlugin is returned when two plugins share a key.
	ErrDuplicatePlugin = errors.New("duplicate plugin key")
	// ErrInvalidTransaction is returned when a transaction can't be applied.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrMissingSchema is returned by Create without a schema or document.
	ErrMissingSchema = errors.New("a schema or document is required")
)

// Dispatch receives the transactions built by commands.
type Dispatch func(tr *Transaction)

// Command is an editing command. It returns false when it doesn't apply. A
// nil dispatch asks whether the command is applicable without running it.
type Command func(state *EditorState, dispatch Dispatch) bool

// Config is the configuration of a new editor state.
type Config struct {
	// The schema to use. Taken from Doc when omitted.
	Schema *model.Schema
	// The starting document. Defaults to an empty top node.
	Doc *model.Node
	// A valid selection in the document. Defaults to the start.
	Selection *Selection
	// The initial set of stored marks.
	StoredMarks []*model.Mark
	// The plugins that should be active in this state.
	Plugins []*Plugin
}

type configuration struct {
	schema  *model.Schema
	plugins []*Plugin
}

func newConfiguration(schema *model.Schema, plugins []*Plugin) (*configuration, error) {
	seen := map[*PluginKey]bool{}
	for _, p := range plugins {
		if seen[p.Key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlugin, p.Key)
		}
		seen[p.Key] = true
	}
	return &configuration{schema: schema, plugins: plugins}, nil
}

// EditorState is the state of an editor. It is persistent: applying a
// transaction creates a new state and leaves the old one untouched.
type EditorState struct {
	Doc         *model.Node
	Selection   Selection
	StoredMarks []*model.Mark

	config *configuration
	fields map[*PluginKey]interface{}
}

// Create a new state.
func Create(config Config) (*EditorState, error) {
	schema := config.Schema
	if schema == nil && config.Doc != nil {
		schema = config.Doc.Type.Schema
	}
	if schema == nil {
		return nil, ErrMissingSchema
	}
	conf, err := newConfiguration(schema, config.Plugins)
	if err != nil {
		return nil, err
	}
	doc := config.Doc
	if doc == nil {
		doc = schema.TopNodeType.CreateAndFill(nil, nil, nil)
	}
	sel := AtStart(doc)
	if config.Selection != nil {
		sel = *config.Selection
		if !sel.Valid(doc) {
			return nil, fmt.Errorf("%w: selection %s outside of textblocks", ErrInvalidTransaction, sel)
		}
	}
	s := &EditorState{
		Doc:         doc,
		Selection:   sel,
		StoredMarks: config.StoredMarks,
		config:      conf,
		fields:      map[*PluginKey]interface{}{},
	}
	for _, p := range conf.plugins {
		if p.Spec.State != nil && p.Spec.State.Init != nil {
			s.fields[p.Key] = p.Spec.State.Init(config, s)
		}
	}
	return s, nil
}

// Schema returns the schema of the state's document.
func (s *EditorState) Schema() *model.Schema {
	return s.config.schema
}

// Plugins returns the plugins that are active in this state.
func (s *EditorState) Plugins() []*Plugin {
	return s.config.plugins
}

// Tr starts a transaction from this state.
func (s *EditorState) Tr() *Transaction {
	return newTransaction(s)
}

// Apply applies the given transaction to produce a new state. Transactions
// appended by plugins are applied too.
func (s *EditorState) Apply(tr *Transaction) (*EditorState, error) {
	next, _, err := s.ApplyTransaction(tr)
	return next, err
}

// ApplyTransaction is like Apply, but also returns the transactions that were
// actually applied, including those appended by plugins. A filtered
// transaction leaves the state unchanged.
func (s *EditorState) ApplyTransaction(root *Transaction) (*EditorState, []*Transaction, error) {
	if !s.filterTransaction(root, -1) {
		return s, nil, nil
	}
	trs := []*Transaction{root}
	newState, err := s.applyInner(root)
	if err != nil {
		return s, nil, err
	}
	seen := make([]int, len(s.config.plugins))
	for haveNew := true; haveNew; {
		haveNew = false
		for i, p := range s.config.plugins {
			if p.Spec.AppendTransaction == nil {
				continue
			}
			n := seen[i]
			if n >= len(trs) {
				continue
			}
			old := s
			if n > 0 {
				old = newState
			}
			tr := p.Spec.AppendTransaction(trs[n:], old, newState)
			seen[i] = len(trs)
			if tr == nil || !newState.filterTransaction(tr, i) {
				continue
			}
			tr.SetMeta("appendedTransaction", root)
			next, err := newState.applyInner(tr)
			if err != nil {
				return s, nil, err
			}
			newState = next
			trs = append(trs, tr)
			haveNew = true
		}
	}
	return newState, trs, nil
}

func (s *EditorState) filterTransaction(tr *Transaction, ignore int) bool {
	for i, p := range s.config.plugins {
		if i == ignore || p.Spec.FilterTransaction == nil {
			continue
		}
		if !p.Spec.FilterTransaction(tr, s) {
			return false
		}
	}
	return true
}

func (s *EditorState) applyInner(tr *Transaction) (*EditorState, error) {
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	if tr.Before() != s.Doc {
		return nil, fmt.Errorf("%w: applying a mismatched transaction", ErrInvalidTransaction)
	}
	sel := tr.Selection()
	if !sel.Valid(tr.Doc) {
		return nil, fmt.Errorf("%w: selection %s outside of textblocks", ErrInvalidTransaction, sel)
	}
	newState := &EditorState{
		Doc:         tr.Doc,
		Selection:   sel,
		StoredMarks: tr.StoredMarks(),
		config:      s.config,
		fields:      make(map[*PluginKey]interface{}, len(s.fields)),
	}
	for _, p := range s.config.plugins {
		field := p.Spec.State
		if field == nil {
			continue
		}
		value := s.fields[p.Key]
		if field.Apply != nil {
			value = field.Apply(tr, value, s, newState)
		}
		newState.fields[p.Key] = value
	}
	return newState, nil
}

// Reconfigure creates a new state based on this one, but with an adjusted
// set of active plugins. State fields that exist in both sets of plugins are
// kept unchanged. New ones are initialized.
func (s *EditorState) Reconfigure(plugins []*Plugin) (*EditorState, error) {
	conf, err := newConfiguration(s.config.schema, plugins)
	if err != nil {
		return nil, err
	}
	sel := s.Selection
	config := Config{Schema: s.config.schema, Doc: s.Doc, Selection: &sel, StoredMarks: s.StoredMarks, Plugins: plugins}
	newState := &EditorState{
		Doc:         s.Doc,
		Selection:   s.Selection,
		StoredMarks: s.StoredMarks,
		config:      conf,
		fields:      map[*PluginKey]interface{}{},
	}
	for _, p := range plugins {
		if value, ok := s.fields[p.Key]; ok {
			newState.fields[p.Key] = value
		} else if p.Spec.State != nil && p.Spec.State.Init != nil {
			newState.fields[p.Key] = p.Spec.State.Init(config, newState)
		}
	}
	return newState, nil
}
