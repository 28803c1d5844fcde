package transform

import (
	"github.com/shodgson/proseeditor/model"
)

// SetAttrsStep changes the attributes of the node at Pos, leaving its content
// alone. It is used for toggling task items and renumbering lists.
type SetAttrsStep struct {
	Pos   int
	Attrs map[string]interface{}
}

// NewSetAttrsStep is a constructor for SetAttrsStep
func NewSetAttrsStep(pos int, attrs map[string]interface{}) *SetAttrsStep {
	return &SetAttrsStep{Pos: pos, Attrs: attrs}
}

// Apply is a method of the Step interface.
func (s *SetAttrsStep) Apply(doc *model.Node) StepResult {
	target := doc.NodeAt(s.Pos)
	if target == nil {
		return Fail("no node at given position")
	}

	attrs := map[string]interface{}{}
	for k, v := range target.Attrs {
		attrs[k] = v
	}
	for k, v := range s.Attrs {
		attrs[k] = v
	}

	newNode, err := target.Type.Create(attrs, model.EmptyFragment, target.Marks)
	if err != nil {
		return Fail(err.Error())
	}
	leaf := 0
	if !target.IsLeaf() {
		leaf = 1
	}
	fragment, err := model.FragmentFrom(newNode)
	if err != nil {
		return Fail(err.Error())
	}
	slice := model.NewSlice(fragment, 0, leaf)
	return FromReplace(doc, s.Pos, s.Pos+1, slice)
}

// GetMap is a method of the Step interface.
func (s *SetAttrsStep) GetMap() *StepMap {
	return EmptyStepMap
}

// Invert is a method of the Step interface.
func (s *SetAttrsStep) Invert(doc *model.Node) Step {
	attrs := map[string]interface{}{}
	target := doc.NodeAt(s.Pos)
	if target != nil {
		attrs = target.Attrs
	}
	return NewSetAttrsStep(s.Pos, attrs)
}

// Map is a method of the Step interface.
func (s *SetAttrsStep) Map(mapping Mappable) Step {
	result := mapping.MapResult(s.Pos, 1)
	if result.Deleted {
		return nil
	}
	return NewSetAttrsStep(result.Pos, s.Attrs)
}

// Merge is a method of the Step interface.
func (s *SetAttrsStep) Merge(other Step) (Step, bool) {
	return nil, false
}

var _ Step = &SetAttrsStep{}
