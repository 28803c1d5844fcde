package model_test

import (
	"testing"

	. "github.com/shodgson/proseeditor/model"
	"github.com/stretchr/testify/assert"
)

func TestMarkSameSet(t *testing.T) {
	// returns true for two empty sets
	assert.True(t, SameMarkSet([]*Mark{}, []*Mark{}))

	// returns true for simple identical sets
	assert.True(t, SameMarkSet([]*Mark{strong2, em2}, []*Mark{strong2, em2}))

	// returns false for different sets
	assert.False(t, SameMarkSet([]*Mark{strong2, em2}, []*Mark{strong2, code2}))

	// returns false when set size differs
	assert.False(t, SameMarkSet([]*Mark{strong2, em2}, []*Mark{strong2, em2, strike2}))

	// recognizes identical links in set
	assert.True(t, SameMarkSet(
		[]*Mark{em2, link("http://foo")},
		[]*Mark{em2, link("http://foo")}))

	// recognizes different links in set
	assert.False(t, SameMarkSet(
		[]*Mark{em2, link("http://foo")},
		[]*Mark{em2, link("http://bar")}))
}

func TestMarkEq(t *testing.T) {
	// considers identical links to be the same
	assert.True(t, link("http://foo").Eq(link("http://foo")))

	// considers different links to differ
	assert.False(t, link("http://foo").Eq(link("http://bar")))

	// considers links with different titles to differ
	assert.False(t, link("http://foo").Eq(link("http://foo", "B")))
}

func TestMarkAddToSet(t *testing.T) {
	// can add to the empty set
	assert.True(t, SameMarkSet(em2.AddToSet([]*Mark{}), []*Mark{em2}))

	// is a no-op when the added thing is in set
	assert.True(t, SameMarkSet(em2.AddToSet([]*Mark{em2}), []*Mark{em2}))

	// adds marks with lower rank before others
	assert.True(t, SameMarkSet(strong2.AddToSet([]*Mark{em2}), []*Mark{strong2, em2}))

	// adds marks with higher rank after others
	assert.True(t, SameMarkSet(em2.AddToSet([]*Mark{strong2}), []*Mark{strong2, em2}))

	// replaces different marks with new attributes
	assert.True(t, SameMarkSet(
		link("http://bar").AddToSet([]*Mark{em2, link("http://foo")}),
		[]*Mark{em2, link("http://bar")},
	))

	// does nothing when adding an existing link
	assert.True(t, SameMarkSet(
		link("http://foo").AddToSet([]*Mark{em2, link("http://foo")}),
		[]*Mark{em2, link("http://foo")},
	))

	// puts marks with middle rank in the middle
	assert.True(t, SameMarkSet(
		strong2.AddToSet([]*Mark{strike2, em2}),
		[]*Mark{strike2, strong2, em2},
	))

	// clears all others when adding code
	assert.True(t, SameMarkSet(
		code2.AddToSet([]*Mark{strong2, em2, link("http://foo")}),
		[]*Mark{code2},
	))

	// does not add another mark to code
	assert.True(t, SameMarkSet(em2.AddToSet([]*Mark{code2}), []*Mark{code2}))
}

func TestMarkRemoveFromSet(t *testing.T) {
	// removes the mark
	assert.True(t, SameMarkSet(em2.RemoveFromSet([]*Mark{strong2, em2}), []*Mark{strong2}))

	// returns the set when the mark is absent
	set := []*Mark{strong2}
	assert.Equal(t, set, em2.RemoveFromSet(set))

	// tells whether a mark is in a set
	assert.True(t, em2.IsInSet([]*Mark{strong2, em2}))
	assert.False(t, link("http://foo").IsInSet([]*Mark{link("http://bar")}))
}
