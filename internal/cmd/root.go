// Package cmd implements the proseeditor command line.
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shodgson/proseeditor/editor"
	"github.com/shodgson/proseeditor/schema/core"
)

// options holds the values of the persistent flags of one command tree.
type options struct {
	configPath string
	verbose    bool
}

// Root returns the root command.
func Root() *cobra.Command {
	cmd := cobra.Command{
		Use:           "proseeditor",
		Short:         "Round-trip Markdown through the editor's document model",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	opts := &options{}
	pflags := cmd.PersistentFlags()
	pflags.StringVar(&opts.configPath, "config", "", "Path to a YAML editor configuration.")
	pflags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log what the editor does.")

	cmd.AddCommand(fmtCmd(opts))
	cmd.AddCommand(checkCmd(opts))
	cmd.AddCommand(configCmd(opts))

	return &cmd
}

func (o *options) newLogger() (*zap.Logger, error) {
	if !o.verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// newKit builds the kit of the default descriptors with the configuration
// given by flags.
func (o *options) newKit() (*editor.Kit, error) {
	logger, err := o.newLogger()
	if err != nil {
		return nil, err
	}
	opts := []editor.Option{editor.WithLogger(logger)}
	if o.configPath != "" {
		cfg, err := editor.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, editor.WithConfig(*cfg))
	}
	return editor.NewKit(core.Descriptors(), opts...)
}
