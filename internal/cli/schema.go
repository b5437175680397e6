package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/rulesdoctor/pkg/config"
)

func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := config.Schema()
			if err != nil {
				return fmt.Errorf("generate schema: %w", err)
			}

			return writeLine(cmd.OutOrStdout(), "%s", b)
		},
	}
}
