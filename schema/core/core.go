// Package core lists the descriptors of the default editor.
package core

import (
	"github.com/shodgson/proseeditor/registry"
	"github.com/shodgson/proseeditor/schema/marks"
	"github.com/shodgson/proseeditor/schema/nodes"
)

// Descriptors returns the marks and then the nodes of the default editor.
// The built-in doc, text and paragraph are added by the registry.
func Descriptors() []*registry.Descriptor {
	return append(marks.All(), nodes.All()...)
}

// Build builds the registry of the default descriptors.
func Build() (*registry.Registry, error) {
	return registry.BuildSchema(Descriptors())
}
