package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kolah/covenant/internal/config"
	"github.com/kolah/covenant/internal/openapi"
)

func OpenAPICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Export the definitions of one API version as an OpenAPI 3.1 document",
		RunE:  runOpenAPI,
	}

	flags := cmd.Flags()
	flags.String("api-version", "", "API version to export (default: the static version)")
	flags.String("title", "", "Document title")
	flags.StringP("output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runOpenAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	version, _ := cmd.Flags().GetString("api-version")
	if version == "" {
		version = cfg.Version.Static
	}
	if version == "" {
		return fmt.Errorf("an API version is required (--api-version or version.static)")
	}

	reg, err := loadRegistry(cfg, cfg.NewLogger())
	if err != nil {
		return err
	}

	doc, err := openapi.Export(reg.Endpoints(), version, openapi.Info{Title: cfg.OpenAPI.Title})
	if err != nil {
		return err
	}
	result, err := openapi.Verify(doc)
	if err != nil {
		return fmt.Errorf("verifying exported document: %w", err)
	}
	paths := 0
	if p := result.Document.Model.Paths; p != nil && p.PathItems != nil {
		paths = p.PathItems.Len()
	}
	cmd.PrintErrf("Exported OpenAPI %s: %s v%s, %d paths\n", result.Version, cfg.OpenAPI.Title, version, paths)

	if cfg.OpenAPI.Output == "" {
		_, err := cmd.OutOrStdout().Write(doc)
		return err
	}
	if err := os.WriteFile(cfg.OpenAPI.Output, doc, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.OpenAPI.Output, err)
	}
	cmd.PrintErrf("Written: %s\n", cfg.OpenAPI.Output)
	return nil
}
