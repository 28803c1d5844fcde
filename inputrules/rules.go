package inputrules

import (
	"strings"

	"github.com/shodgson/proseeditor/model"
	"github.com/shodgson/proseeditor/state"
	"github.com/shodgson/proseeditor/transform"
)

// MarkRule applies the named mark to text typed between delimiters. The
// pattern's last group is the marked text and the group before it the text
// including its delimiters, as in `(?:^|\s)(\*\*([^*]+)\*\*)$`. With a
// single group, the whole match holds the delimiters.
func MarkRule(pattern, markName string) *Rule {
	return New(pattern, func(s *state.EditorState, match []string, start, end int) *state.Transaction {
		typ := s.Schema().Marks[markName]
		if typ == nil {
			return nil
		}
		tr := s.Tr()
		markStart, markEnd := start, end
		if m := len(match) - 1; m >= 1 && match[m] != "" {
			outer, inner := match[m-1], match[m]
			matchStart := start + strings.Index(match[0], outer)
			// The closing delimiter's last character is being typed and isn't
			// in the document yet.
			matchEnd := matchStart + len(outer) - 1
			textStart := matchStart + strings.LastIndex(outer, inner)
			textEnd := textStart + len(inner)
			excluded := false
			s.Doc.NodesBetween(start, end, func(node *model.Node, pos int, _ *model.Node, _ int) bool {
				for _, mark := range node.Marks {
					if mark.Type.Excludes(typ) && pos+node.NodeSize() > matchStart {
						excluded = true
					}
				}
				return !excluded
			})
			if excluded {
				return nil
			}
			if textEnd < matchEnd {
				tr.Delete(textEnd, matchEnd)
			}
			if textStart > matchStart {
				tr.Delete(matchStart, textStart)
			}
			markStart = matchStart
			markEnd = markStart + len(inner)
		}
		tr.AddMark(markStart, markEnd, typ.Create(nil))
		tr.RemoveStoredMark(typ)
		return tr
	})
}

// WrappingOptions tune a WrappingRule.
type WrappingOptions struct {
	// Attrs computes the attributes of the wrapping node from the match.
	Attrs func(match []string) map[string]interface{}
	// ItemAttrs are given to the node directly inside the wrapper, such as
	// the first item of a list.
	ItemAttrs map[string]interface{}
	// Join tells whether the new wrapper may be joined with a node of the
	// same type right before it. Without it, such nodes are always joined.
	Join func(match []string, before *model.Node) bool
}

// WrappingRule wraps the textblock in a node of the named type when its
// start matches the pattern, like "> " for a blockquote or "- " for a list.
func WrappingRule(pattern, typeName string, opts WrappingOptions) *Rule {
	return New(pattern, func(s *state.EditorState, match []string, start, end int) *state.Transaction {
		typ := s.Schema().Nodes[typeName]
		if typ == nil {
			return nil
		}
		var attrs map[string]interface{}
		if opts.Attrs != nil {
			attrs = opts.Attrs(match)
		}
		tr := s.Tr()
		tr.Delete(start, end)
		rstart, err := tr.Doc.Resolve(start)
		if err != nil {
			return nil
		}
		r := rstart.BlockRange(rstart, nil)
		if r == nil {
			return nil
		}
		wrapping, ok := transform.FindWrapping(r, typ, attrs)
		if !ok {
			return nil
		}
		if opts.ItemAttrs != nil && len(wrapping) > 1 {
			wrapping[1].Attrs = opts.ItemAttrs
		}
		tr.Wrap(r, wrapping)
		if tr.Err() != nil {
			return nil
		}
		if rbefore, err := tr.Doc.Resolve(start - 1); err == nil {
			before, _ := rbefore.NodeBefore()
			if before != nil && before.Type == typ && transform.CanJoin(tr.Doc, start-1) &&
				(opts.Join == nil || opts.Join(match, before)) {
				tr.Join(start-1, 1)
			}
		}
		return tr
	})
}

// TextblockTypeRule changes the type of the textblock when its start
// matches the pattern, like "# " for a heading. attrs may be nil.
func TextblockTypeRule(pattern, typeName string, attrs func(match []string) map[string]interface{}) *Rule {
	return New(pattern, func(s *state.EditorState, match []string, start, end int) *state.Transaction {
		typ := s.Schema().Nodes[typeName]
		if typ == nil {
			return nil
		}
		rstart, err := s.Doc.Resolve(start)
		if err != nil || rstart.Depth < 1 {
			return nil
		}
		if !rstart.Node(-1).CanReplaceWith(rstart.Index(-1), rstart.IndexAfter(-1), typ) {
			return nil
		}
		var a map[string]interface{}
		if attrs != nil {
			a = attrs(match)
		}
		tr := s.Tr()
		tr.Delete(start, end)
		tr.SetBlockType(start, start, typ, a)
		return tr
	})
}
