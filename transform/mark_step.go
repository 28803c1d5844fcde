package transform

import "github.com/shodgson/proseeditor/model"

type mapFn func(node, parent *model.Node) *model.Node

func mapFragment(fragment *model.Fragment, f mapFn, parent *model.Node) (*model.Fragment, error) {
	mapped := make([]*model.Node, 0, fragment.ChildCount())
	for i := 0; i < fragment.ChildCount(); i++ {
		child, err := fragment.Child(i)
		if err != nil {
			return nil, err
		}
		if child.Content.Size > 0 {
			copied, err := mapFragment(child.Content, f, child)
			if err != nil {
				return nil, err
			}
			child = child.Copy(copied)
		}
		if child.IsInline() {
			child = f(child, parent)
		}
		mapped = append(mapped, child)
	}
	return model.FragmentFromArray(mapped), nil
}

// AddMarkStep adds a mark to all inline content between two positions.
type AddMarkStep struct {
	From int
	To   int
	Mark *model.Mark
}

// NewAddMarkStep is the constructor for AddMarkStep.
func NewAddMarkStep(from, to int, mark *model.Mark) *AddMarkStep {
	return &AddMarkStep{From: from, To: to, Mark: mark}
}

// Apply is a method of the Step interface.
func (s *AddMarkStep) Apply(doc *model.Node) StepResult {
	oldSlice, err := doc.Slice(s.From, s.To)
	if err != nil {
		return Fail(err.Error())
	}
	dFrom, err := doc.Resolve(s.From)
	if err != nil {
		return Fail(err.Error())
	}
	parent := dFrom.Node(dFrom.SharedDepth(s.To))
	fragment, err := mapFragment(oldSlice.Content, func(node, parent *model.Node) *model.Node {
		if !node.IsAtom() || !parent.Type.AllowsMarkType(s.Mark.Type) {
			return node
		}
		return node.Mark(s.Mark.AddToSet(node.Marks))
	}, parent)
	if err != nil {
		return Fail(err.Error())
	}
	slice := model.NewSlice(fragment, oldSlice.OpenStart, oldSlice.OpenEnd)
	return FromReplace(doc, s.From, s.To, slice)
}

// GetMap is a method of the Step interface.
func (s *AddMarkStep) GetMap() *StepMap {
	return EmptyStepMap
}

// Invert is a method of the Step interface.
func (s *AddMarkStep) Invert(doc *model.Node) Step {
	return NewRemoveMarkStep(s.From, s.To, s.Mark)
}

// Map is a method of the Step interface.
func (s *AddMarkStep) Map(mapping Mappable) Step {
	from := mapping.MapResult(s.From, 1)
	to := mapping.MapResult(s.To, -1)
	if from.Deleted && to.Deleted || from.Pos >= to.Pos {
		return nil
	}
	return NewAddMarkStep(from.Pos, to.Pos, s.Mark)
}

// Merge is a method of the Step interface. Adjacent or overlapping additions
// of the same mark merge into one step.
func (s *AddMarkStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*AddMarkStep)
	if !ok || !o.Mark.Eq(s.Mark) || s.From > o.To || s.To < o.From {
		return nil, false
	}
	return NewAddMarkStep(minInt(s.From, o.From), maxInt(s.To, o.To), s.Mark), true
}

var _ Step = &AddMarkStep{}

// RemoveMarkStep removes a mark from all inline content between two
// positions.
type RemoveMarkStep struct {
	From int
	To   int
	Mark *model.Mark
}

// NewRemoveMarkStep is the constructor for RemoveMarkStep.
func NewRemoveMarkStep(from, to int, mark *model.Mark) *RemoveMarkStep {
	return &RemoveMarkStep{From: from, To: to, Mark: mark}
}

// Apply is a method of the Step interface.
func (s *RemoveMarkStep) Apply(doc *model.Node) StepResult {
	oldSlice, err := doc.Slice(s.From, s.To)
	if err != nil {
		return Fail(err.Error())
	}
	fragment, err := mapFragment(oldSlice.Content, func(node, _ *model.Node) *model.Node {
		return node.Mark(s.Mark.RemoveFromSet(node.Marks))
	}, nil)
	if err != nil {
		return Fail(err.Error())
	}
	slice := model.NewSlice(fragment, oldSlice.OpenStart, oldSlice.OpenEnd)
	return FromReplace(doc, s.From, s.To, slice)
}

// GetMap is a method of the Step interface.
func (s *RemoveMarkStep) GetMap() *StepMap {
	return EmptyStepMap
}

// Invert is a method of the Step interface.
func (s *RemoveMarkStep) Invert(doc *model.Node) Step {
	return NewAddMarkStep(s.From, s.To, s.Mark)
}

// Map is a method of the Step interface.
func (s *RemoveMarkStep) Map(mapping Mappable) Step {
	from := mapping.MapResult(s.From, 1)
	to := mapping.MapResult(s.To, -1)
	if from.Deleted && to.Deleted || from.Pos >= to.Pos {
		return nil
	}
	return NewRemoveMarkStep(from.Pos, to.Pos, s.Mark)
}

// Merge is a method of the Step interface.
func (s *RemoveMarkStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*RemoveMarkStep)
	if !ok || !o.Mark.Eq(s.Mark) || s.From > o.To || s.To < o.From {
		return nil, false
	}
	return NewRemoveMarkStep(minInt(s.From, o.From), maxInt(s.To, o.To), s.Mark), true
}

var _ Step = &RemoveMarkStep{}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
