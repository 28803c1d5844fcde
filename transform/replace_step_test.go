package transform_test

import (
	"testing"

	"github.com/shodgson/proseeditor/model"
	. "github.com/shodgson/proseeditor/transform"
	"github.com/stretchr/testify/assert"
)

func TestReplaceAround(t *testing.T) {
	testDoc := doc(p("Ma super note")).Node

	frag := model.NewFragment([]*model.Node{h1().Node})
	slice := model.NewSlice(frag, 0, 0)
	step := NewReplaceAroundStep(0, 15, 1, 14, slice, 1, true)

	result := step.Apply(testDoc)
	if assert.Empty(t, result.Failed) {
		assert.True(t, result.Doc.Eq(doc(h1("Ma super note")).Node))
	}

	// the inverted step restores the paragraph
	inverted := step.Invert(testDoc).Apply(result.Doc)
	if assert.Empty(t, inverted.Failed) {
		assert.True(t, inverted.Doc.Eq(testDoc))
	}
}

func TestReplaceTwice(t *testing.T) {
	yes := func(from1, to1 int, txt1, expected1 string, from2, to2 int, txt2, expected2 string) {
		testDoc := doc(p("Numéro")).Node

		slice1 := model.EmptySlice
		if txt1 != "" {
			slice1 = model.NewSlice(model.NewFragment([]*model.Node{schema.Text(txt1)}), 0, 0)
		}
		result := NewReplaceStep(from1, to1, slice1).Apply(testDoc)
		assert.Empty(t, result.Failed)
		assert.Equal(t, expected1, result.Doc.TextContent())

		slice2 := model.EmptySlice
		if txt2 != "" {
			slice2 = model.NewSlice(model.NewFragment([]*model.Node{schema.Text(txt2)}), 0, 0)
		}
		result = NewReplaceStep(from2, to2, slice2).Apply(result.Doc)
		assert.Empty(t, result.Failed)
		assert.Equal(t, expected2, result.Doc.TextContent())
	}

	// Double backspace, positions count bytes
	yes(7, 8, "", "Numér", 6, 7, "", "Numé")

	// An emoji takes four bytes
	yes(2, 2, "👥", "N👥uméro", 6, 6, "🔎", "N👥🔎uméro")
}

func TestReplaceStepFails(t *testing.T) {
	testDoc := doc(p("one"), p("two")).Node

	// a structure step refuses to delete content
	result := NewReplaceStep(2, 7, model.EmptySlice, true).Apply(testDoc)
	assert.NotEmpty(t, result.Failed)

	// an out of range step fails instead of panicking
	result = NewReplaceStep(40, 41, model.EmptySlice).Apply(testDoc)
	assert.NotEmpty(t, result.Failed)
}
