package transform

import (
	"errors"
	"fmt"

	"github.com/shodgson/proseeditor/model"
)

// ErrStepFailed is returned (through Transform.Err) when a step could not be
// applied to the current document.
var ErrStepFailed = errors.New("step failed")

// Transform is an abstraction for building up and tracking an array of steps
// representing a document transformation.
//
// Most transforming methods return the Transform itself, so that they can be
// chained. The first failure is recorded and turns every later call into a
// no-op; check it with Err once the transform is built.
type Transform struct {
	// The current document (the result of applying the steps in the
	// transform).
	Doc *model.Node
	// The steps in this transform.
	Steps []Step
	// The documents before each of the steps.
	Docs []*model.Node
	// A mapping with the maps for each of the steps in this transform.
	Mapping *Mapping

	err error
}

// NewTransform creates a transform that starts with the given document.
func NewTransform(doc *model.Node) *Transform {
	return &Transform{Doc: doc, Mapping: NewMapping()}
}

// Before returns the starting document.
func (t *Transform) Before() *model.Node {
	if len(t.Docs) > 0 {
		return t.Docs[0]
	}
	return t.Doc
}

// Err returns the first error met while building the transform.
func (t *Transform) Err() error {
	return t.err
}

// Fail records err as the transform's error, unless one is already set.
func (t *Transform) Fail(err error) *Transform {
	if t.err == nil && err != nil {
		t.err = err
	}
	return t
}

// Step applies a new step in this transform, saving the result. A failing
// step sets the transform's error.
func (t *Transform) Step(step Step) *Transform {
	if t.err != nil {
		return t
	}
	result := t.MaybeStep(step)
	if result.Failed != "" {
		return t.Fail(fmt.Errorf("%w: %s", ErrStepFailed, result.Failed))
	}
	return t
}

// MaybeStep tries to apply a step in this transformation, ignoring it if it
// fails. Returns the step result.
func (t *Transform) MaybeStep(step Step) StepResult {
	result := step.Apply(t.Doc)
	if result.Failed == "" {
		t.addStep(step, result.Doc)
	}
	return result
}

// DocChanged is true when the document has been changed (when there are any
// steps).
func (t *Transform) DocChanged() bool {
	return len(t.Steps) > 0
}

func (t *Transform) addStep(step Step, doc *model.Node) {
	t.Docs = append(t.Docs, t.Doc)
	t.Steps = append(t.Steps, step)
	t.Mapping.AppendMap(step.GetMap())
	t.Doc = doc
}

// Replace the part of the document between from and to with the given slice.
func (t *Transform) Replace(from, to int, slice *model.Slice) *Transform {
	if slice == nil {
		slice = model.EmptySlice
	}
	if from == to && slice.Size() == 0 {
		return t
	}
	return t.Step(NewReplaceStep(from, to, slice))
}

// ReplaceWith replaces the given range with the given content, which may be
// a fragment, node, or slice of nodes.
func (t *Transform) ReplaceWith(from, to int, content interface{}) *Transform {
	frag, err := model.FragmentFrom(content)
	if err != nil {
		return t.Fail(err)
	}
	return t.Replace(from, to, model.NewSlice(frag, 0, 0))
}

// Delete the content between the given positions.
func (t *Transform) Delete(from, to int) *Transform {
	return t.Replace(from, to, model.EmptySlice)
}

// Insert the given content at the given position.
func (t *Transform) Insert(pos int, content interface{}) *Transform {
	return t.ReplaceWith(pos, pos, content)
}

// AddMark adds the given mark to the inline content between from and to.
func (t *Transform) AddMark(from, to int, mark *model.Mark) *Transform {
	if t.err != nil {
		return t
	}
	var removed, added []Step
	var removing *RemoveMarkStep
	var adding *AddMarkStep
	t.Doc.NodesBetween(from, to, func(node *model.Node, pos int, parent *model.Node, _ int) bool {
		if !node.IsInline() {
			return true
		}
		marks := node.Marks
		if mark.IsInSet(marks) || !parent.Type.AllowsMarkType(mark.Type) {
			return true
		}
		start, end := maxInt(pos, from), minInt(pos+node.NodeSize(), to)
		newSet := mark.AddToSet(marks)
		for _, m := range marks {
			if m.IsInSet(newSet) {
				continue
			}
			if removing != nil && removing.To == start && removing.Mark.Eq(m) {
				removing.To = end
			} else {
				removing = NewRemoveMarkStep(start, end, m)
				removed = append(removed, removing)
			}
		}
		if adding != nil && adding.To == start {
			adding.To = end
		} else {
			adding = NewAddMarkStep(start, end, mark)
			added = append(added, adding)
		}
		return true
	})
	for _, step := range removed {
		t.Step(step)
	}
	for _, step := range added {
		t.Step(step)
	}
	return t
}

// RemoveMark removes the given mark from the inline content between from
// and to.
func (t *Transform) RemoveMark(from, to int, mark *model.Mark) *Transform {
	return t.removeMarks(from, to, func(marks []*model.Mark) []*model.Mark {
		if mark.IsInSet(marks) {
			return []*model.Mark{mark}
		}
		return nil
	})
}

// RemoveMarkType removes all marks of the given type from the inline content
// between from and to. A nil type removes every mark.
func (t *Transform) RemoveMarkType(from, to int, typ *model.MarkType) *Transform {
	return t.removeMarks(from, to, func(marks []*model.Mark) []*model.Mark {
		if typ == nil {
			return marks
		}
		var found []*model.Mark
		set := marks
		for {
			m := typ.IsInSet(set)
			if m == nil {
				return found
			}
			found = append(found, m)
			set = m.RemoveFromSet(set)
		}
	})
}

func (t *Transform) removeMarks(from, to int, pick func([]*model.Mark) []*model.Mark) *Transform {
	if t.err != nil {
		return t
	}
	type match struct {
		style    *model.Mark
		from, to int
		step     int
	}
	var matched []*match
	step := 0
	t.Doc.NodesBetween(from, to, func(node *model.Node, pos int, _ *model.Node, _ int) bool {
		if !node.IsInline() {
			return true
		}
		step++
		toRemove := pick(node.Marks)
		end := minInt(pos+node.NodeSize(), to)
		for _, style := range toRemove {
			var found *match
			for _, m := range matched {
				if m.step == step-1 && style.Eq(m.style) {
					found = m
				}
			}
			if found != nil {
				found.to = end
				found.step = step
			} else {
				matched = append(matched, &match{style: style, from: maxInt(pos, from), to: end, step: step})
			}
		}
		return true
	})
	for _, m := range matched {
		t.Step(NewRemoveMarkStep(m.from, m.to, m.style))
	}
	return t
}

// ClearIncompatible removes all marks and nodes from the content of the node
// at pos that don't match the given new parent node type.
func (t *Transform) ClearIncompatible(pos int, parentType *model.NodeType) *Transform {
	if t.err != nil {
		return t
	}
	node := t.Doc.NodeAt(pos)
	if node == nil {
		return t.Fail(fmt.Errorf("%w: no node at %d", ErrStepFailed, pos))
	}
	match := parentType.ContentMatch
	var delSteps []Step
	cur := pos + 1
	for _, child := range node.Content.Content {
		end := cur + child.NodeSize()
		allowed := match.MatchType(child.Type)
		if allowed == nil {
			delSteps = append(delSteps, NewReplaceStep(cur, end, model.EmptySlice))
		} else {
			match = allowed
			for _, m := range child.Marks {
				if !parentType.AllowsMarkType(m.Type) {
					t.Step(NewRemoveMarkStep(cur, end, m))
				}
			}
		}
		cur = end
	}
	if !match.ValidEnd {
		fill := match.FillBefore(model.EmptyFragment, true, 0)
		if fill == nil {
			return t.Fail(fmt.Errorf("%w: cannot fill %s", ErrStepFailed, parentType.Name))
		}
		t.Replace(cur, cur, model.NewSlice(fill, 0, 0))
	}
	for i := len(delSteps) - 1; i >= 0; i-- {
		t.Step(delSteps[i])
	}
	return t
}
