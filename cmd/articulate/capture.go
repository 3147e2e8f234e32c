package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"articulate/internal/capture"
)

var (
	captureOut     string
	captureWaitFor string
	captureTimeout time.Duration
	captureHeadful bool
)

var captureCmd = &cobra.Command{
	Use:   "capture <url>",
	Short: "Snapshot a rendered page to an HTML file",
	Long: `Loads the URL in a headless browser, waits for the page (and an
optional selector) to render, and writes the resulting DOM as HTML.
The snapshot can be fed to the agent with --page.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := capture.Options{
			URL:     args[0],
			OutPath: captureOut,
			WaitFor: captureWaitFor,
			Timeout: captureTimeout,
			Headful: captureHeadful,
		}
		if err := capture.Run(cmd.Context(), opts); err != nil {
			return err
		}
		fmt.Printf("Captured %s -> %s\n", opts.URL, opts.OutPath)
		return nil
	},
}

func init() {
	captureCmd.Flags().StringVarP(&captureOut, "out", "o", "page.html", "output file")
	captureCmd.Flags().StringVar(&captureWaitFor, "wait-for", "", "CSS selector to wait for before snapshotting")
	captureCmd.Flags().DurationVar(&captureTimeout, "timeout", 60*time.Second, "overall navigation timeout")
	captureCmd.Flags().BoolVar(&captureHeadful, "headful", false, "show the browser window")
	rootCmd.AddCommand(captureCmd)
}
