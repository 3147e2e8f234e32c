// Package cli implements the articulate command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"articulate/internal/config"
)

var (
	cfgPath string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "articulate",
	Short: "AI-assisted comment writing for a social feed page",
	Long: `Articulate watches a feed page for comment boxes, injects a tone-picker
control into each, and writes AI-generated comments back into the editor.

The daemon owns stored credentials and serves the bridge; the agent runs
the page-side pipeline against a captured feed snapshot.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config YAML")
}

// Execute runs the CLI.
func Execute() {
	// Optional .env for API keys during development; absence is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
