package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfigCmd groups configuration tooling.
func NewConfigCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the scoring configuration",
	}
	cmd.AddCommand(newConfigCheckCmd(configPath))
	return cmd
}

func newConfigCheckCmd(configPath *string) *cobra.Command {
	var scoringPath string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the scoring table and print warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadScoringConfig(*configPath, scoringPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, w := range cfg.Warnings() {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			fmt.Fprintf(out, "%s %s: %d questions, %d categories, %d bands ok\n",
				cfg.Name, cfg.Version, len(cfg.Questions), len(cfg.Categories), len(cfg.Bands))
			return nil
		},
	}
	cmd.Flags().StringVar(&scoringPath, "scoring", "", "path to a YAML scoring table (overrides config)")
	return cmd
}
