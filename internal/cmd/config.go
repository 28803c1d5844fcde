package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shodgson/proseeditor/internal/yamlutil"
)

func configCmd(opts *options) *cobra.Command {
	cmd := cobra.Command{
		Use:   "config",
		Short: "Print the editor configuration in effect, with the descriptors it applies to.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kit, err := opts.newKit()
			if err != nil {
				return err
			}
			out, err := yamlutil.Marshal(struct {
				Config      interface{} `yaml:"config"`
				Descriptors []string    `yaml:"descriptors"`
			}{kit.Config(), kit.Registry.Names()})
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	return &cmd
}
