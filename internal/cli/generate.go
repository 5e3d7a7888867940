package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kolah/covenant/internal/codegen"
	"github.com/kolah/covenant/internal/config"
)

func GenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate code from endpoint definitions",
	}

	cmd.AddCommand(newGenerateTestsCmd())

	return cmd
}

func newGenerateTestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tests",
		Short: "Generate a Go test validating the examples of every endpoint",
		RunE:  runGenerateTests,
	}

	flags := cmd.Flags()
	flags.StringP("output-dir", "o", "", "Output directory for the generated test")
	flags.StringP("package", "p", "", "Go package name")
	flags.String("templates", "", "Custom templates directory")
	flags.Bool("dry-run", false, "Print output without writing files")

	return cmd
}

func runGenerateTests(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	reg, err := loadRegistry(cfg, cfg.NewLogger())
	if err != nil {
		return err
	}
	snapshot := reg.Snapshot()
	cmd.PrintErrf("Loaded %d endpoints from %d files\n", len(snapshot.Endpoints), len(snapshot.Files))

	gen, err := codegen.New(cfg)
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	outputs, err := gen.Generate(snapshot.Endpoints)
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		for _, out := range outputs {
			cmd.Printf("// %s\n%s\n", out.Filename, out.Content)
		}
		return nil
	}

	if err := os.MkdirAll(cfg.Generate.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for _, out := range outputs {
		path := filepath.Join(cfg.Generate.OutputDir, out.Filename)
		if err := os.WriteFile(path, []byte(out.Content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		cmd.PrintErrf("Written: %s\n", path)
	}

	return nil
}
