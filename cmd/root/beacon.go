package root

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/pingoo/pingoo-client/pkg/beacon"
	"github.com/pingoo/pingoo-client/pkg/cli"
)

type beaconFlags struct {
	clicks []string
	path   string
}

func newBeaconCmd(flags *rootFlags) *cobra.Command {
	var bFlags beaconFlags

	cmd := &cobra.Command{
		Use:   "beacon <page.html>",
		Short: "Load a page and report its analytics events",
		Long: `Load an HTML page, configure the beacon from its tracking script and report
a page view. Each --click reports a click on the element with that id, as if
the user had clicked it in a browser.`,
		Example: `  pingoo beacon ./index.html
  pingoo beacon ./pricing.html --path /pricing --click signup --click faq`,
		GroupID: "analytics",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBeaconCommand(cmd, flags, bFlags, args[0])
		},
	}

	cmd.Flags().StringArrayVar(&bFlags.clicks, "click", nil, "Id of an element to click (repeatable)")
	cmd.Flags().StringVar(&bFlags.path, "path", "/", "Path of the page, resolved against the configured base URL")

	return cmd
}

func runBeaconCommand(cmd *cobra.Command, flags *rootFlags, bFlags beaconFlags, pagePath string) error {
	ref, err := url.Parse(bFlags.path)
	if err != nil {
		return fmt.Errorf("invalid --path: %w", err)
	}

	file, err := os.Open(pagePath)
	if err != nil {
		return RuntimeError{Err: err}
	}
	doc, err := beacon.ParseDocument(file)
	file.Close()
	if err != nil {
		return RuntimeError{Err: err}
	}

	targets := make([]beacon.Node, 0, len(bFlags.clicks))
	for _, id := range bFlags.clicks {
		node, ok := doc.ByID(id)
		if !ok {
			return fmt.Errorf("no element with id %q in %s", id, pagePath)
		}
		targets = append(targets, node)
	}

	store, err := flags.openStore()
	if err != nil {
		return err
	}
	cfg := flags.config
	baseURL, err := cfg.ParsedBaseURL()
	if err != nil {
		return RuntimeError{Err: err}
	}
	width, height, err := cfg.ScreenSize()
	if err != nil {
		return RuntimeError{Err: err}
	}

	b := beacon.New(store, beacon.Page{
		URL:          baseURL.ResolveReference(ref),
		Referrer:     cfg.Beacon.Referrer,
		ScreenWidth:  width,
		ScreenHeight: height,
	})

	ctx := cmd.Context()
	b.Start(ctx, doc.Scripts)
	// Events are reported in order: each send finishes before the next click.
	b.Wait()

	out := cli.NewPrinter(cmd.OutOrStdout())
	bcfg, ok := b.Config()
	if !ok {
		out.PrintWarning("No tracking script with a site-id in %s, nothing reported", pagePath)
		return nil
	}

	out.PrintSuccess("Reported %s for site %s", beacon.EventPageView, bcfg.SiteID)
	out.PrintField("Endpoint", bcfg.Endpoint)

	for i, target := range targets {
		id := bFlags.clicks[i]
		tracked := beacon.Closest(target, beacon.AttrEvent)
		if tracked == nil {
			out.PrintField("click "+id, "not tracked")
			continue
		}
		b.HandleClick(ctx, target)
		b.Wait()

		eventType, _ := tracked.Attr(beacon.AttrEvent)
		out.PrintField("click "+id, eventType)
	}
	return nil
}
