// Package capture snapshots a live feed page into a local HTML fixture the
// agent can run against.
package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// Options configures a capture run.
type Options struct {
	URL     string
	OutPath string
	// WaitFor is a CSS selector the page must render before the snapshot is
	// taken; typically the feed container. Empty waits for body only.
	WaitFor string
	Timeout time.Duration
	// Headful opens a visible browser, useful when the page needs a login.
	Headful bool
}

// Run navigates to the page and writes its serialized HTML to OutPath.
func Run(ctx context.Context, opts Options) error {
	if opts.URL == "" || opts.OutPath == "" {
		return fmt.Errorf("capture requires a url and an output path")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Minute
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !opts.Headful),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, opts.Timeout)
	defer cancelRun()

	actions := []chromedp.Action{
		chromedp.Navigate(opts.URL),
		chromedp.WaitReady("body"),
	}
	if opts.WaitFor != "" {
		actions = append(actions, chromedp.WaitVisible(opts.WaitFor))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return fmt.Errorf("capture %s: %w", opts.URL, err)
	}

	if err := os.WriteFile(opts.OutPath, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
