package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kolah/covenant/contracttest"
	"github.com/kolah/covenant/internal/config"
)

func CheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate every example against its schema",
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	reg, err := loadRegistry(cfg, cfg.NewLogger())
	if err != nil {
		return err
	}
	filters, err := exampleFilters(cfg)
	if err != nil {
		return err
	}

	results := contracttest.Check(reg.Endpoints(), filters...)
	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
			cmd.Printf("FAIL %s\n%v\n\n", result.Name, result.Err)
			continue
		}
		cmd.Printf("ok   %s\n", result.Name)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d examples are invalid", failed, len(results))
	}
	cmd.PrintErrf("%d examples of %d endpoints are valid\n", len(results), len(reg.Endpoints()))
	return nil
}
