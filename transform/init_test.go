package transform_test

import (
	"testing"

	"github.com/shodgson/proseeditor/test/builder"
	"github.com/shodgson/proseeditor/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	schema     = builder.Schema
	doc        = builder.Doc
	p          = builder.P
	h1         = builder.H1
	blockquote = builder.Blockquote
	ul         = builder.Ul
	li         = builder.Li
	em         = builder.Italic
	strong     = builder.Bold
	img        = builder.Img
	hr         = builder.Hr
	pre        = builder.Pre
	done       = builder.Done
)

// testTransform checks that tr turned start into expect, and that the tags
// of start are mapped onto the tags of the same name in expect.
func testTransform(t *testing.T, start builder.NodeWithTag, tr *transform.Transform, expect builder.NodeWithTag) {
	t.Helper()
	require.NoError(t, tr.Err())
	assert.True(t, tr.Doc.Eq(expect.Node), "%s != %s", tr.Doc.String(), expect.Node.String())
	for tag, pos := range expect.Tag {
		if from, ok := start.Tag[tag]; ok {
			assert.Equal(t, pos, tr.Mapping.Map(from), "tag %s", tag)
		}
	}
}
