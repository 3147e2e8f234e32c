package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"articulate/internal/agent"
)

var (
	agentPage    string
	agentTargets string
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the page-side pipeline against a feed snapshot",
	Long: `Loads a captured feed page, injects the articulation control into every
comment box, and keeps watching for new feed content. HTML fragments
dropped into the mutations directory are appended to the feed container
and processed like live page mutations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if agentPage != "" {
			cfg.Agent.Page = agentPage
		}
		if agentTargets != "" {
			cfg.Agent.TargetsPath = agentTargets
		}

		rt, err := agent.New(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return rt.Run(ctx)
	},
}

func init() {
	agentCmd.Flags().StringVar(&agentPage, "page", "", "feed page HTML snapshot")
	agentCmd.Flags().StringVar(&agentTargets, "targets", "", "selector registry override YAML")
	rootCmd.AddCommand(agentCmd)
}
