package cli

import (
	"github.com/spf13/cobra"

	"github.com/kolah/covenant/internal/config"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "covenant",
		Short:         "Covenant - schema-driven API contracts",
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	config.BindCommonFlags(root)
	root.AddCommand(
		StubCommand(),
		CheckCommand(),
		OpenAPICommand(),
		GenerateCommand(),
	)

	return root
}
