package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func readInput(cmd *cobra.Command, fileName string) ([]byte, error) {
	if fileName == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", fileName, err)
	}
	return data, nil
}

func fmtCmd(opts *options) *cobra.Command {
	var write, html bool

	cmd := cobra.Command{
		Use:   "fmt <file|->",
		Short: "Format Markdown the way the editor writes it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			kit, err := opts.newKit()
			if err != nil {
				return err
			}
			ed, err := kit.New(string(data))
			if err != nil {
				return fmt.Errorf("failed to parse %q: %w", args[0], err)
			}
			out := ed.Markdown()
			if html {
				if out, err = ed.HTML(); err != nil {
					return fmt.Errorf("failed to render HTML: %w", err)
				}
			}
			kit.Logger().Debug("formatted", zap.String("file", args[0]), zap.Int("bytes", len(out)))
			if write && args[0] != "-" && !html {
				return os.WriteFile(args[0], []byte(out), 0o644)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result to the file instead of stdout.")
	cmd.Flags().BoolVar(&html, "html", false, "Render the document as HTML instead.")

	return &cmd
}
