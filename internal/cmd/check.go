package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shodgson/proseeditor/model"
)

// ErrNotStable is returned by check for documents that change when
// formatted twice.
var ErrNotStable = errors.New("formatting is not stable")

func checkCmd(opts *options) *cobra.Command {
	cmd := cobra.Command{
		Use:   "check <file>...",
		Short: "Check that Markdown files survive a round trip through the editor.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kit, err := opts.newKit()
			if err != nil {
				return err
			}
			var failed int
			for _, name := range args {
				data, err := readInput(cmd, name)
				if err != nil {
					return err
				}
				doc, err := kit.Parse(string(data))
				if err != nil {
					return fmt.Errorf("failed to parse %q: %w", name, err)
				}
				once := kit.Serialize(doc)
				again, err := kit.Parse(once)
				if err != nil {
					return fmt.Errorf("failed to parse %q after formatting: %w", name, err)
				}
				if !again.Eq(doc) || kit.Serialize(again) != once {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: not stable, %s\n", name, describeChange(doc, again))
					kit.Logger().Info("unstable document", zap.String("file", name), zap.String("once", once))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", name)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d files", ErrNotStable, failed, len(args))
			}
			return nil
		},
	}
	return &cmd
}

// describeChange tells which part of doc reads back differently after
// formatting.
func describeChange(doc, again *model.Node) string {
	r, ok := doc.Content.Diff(again.Content)
	if !ok {
		return "the output changes when formatted again"
	}
	return fmt.Sprintf("the document changes between positions %d and %d", r.From, r.ToA)
}
