package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spec-kit/miniticker/internal/app"
	"github.com/spec-kit/miniticker/internal/store"
)

func newActivityCommand(rt *runtime) *cobra.Command {
	var (
		global bool
		area   string
		user   string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the activity feed",
		Long: `activity prints the personal feed, or the global one with --global.
With --watch the feed is polled and new items are announced until
interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				if c.Stores.Auth.CurrentUser(ctx) == nil {
					return errNotSignedIn
				}
				feeds := c.Stores.Activity
				if area != "" || user != "" {
					feeds.SetGlobalFilters(area, user)
				}
				feed := feeds.Mine(ctx)
				if global {
					feed = feeds.Global(ctx)
				}
				if err := rt.print(out, feed, func(w io.Writer) { printFeed(w, feed) }); err != nil {
					return err
				}
				if !watch {
					return nil
				}
				feeds.Start()
				defer feeds.Stop()
				fmt.Fprintln(cmd.ErrOrStderr(), "Watching for new activity, Ctrl+C to stop")
				waitForShutdown(ctx, c.Logger)
				return nil
			}, terminalNotifier(out))
		},
	}
	f := cmd.Flags()
	f.BoolVarP(&global, "global", "g", false, "show the global feed")
	f.StringVar(&area, "area", "", "global feed area filter")
	f.StringVar(&user, "user", "", "global feed user filter")
	f.BoolVarP(&watch, "watch", "w", false, "keep polling and announce new items")
	return cmd
}

func printFeed(w io.Writer, feed store.FeedView) {
	if len(feed.Items) == 0 {
		fmt.Fprintln(w, "Sin actividad reciente.")
	}
	for _, item := range feed.Items {
		fmt.Fprintf(w, "%-12s %s\n", item.Config.Label, item.Titulo)
		if item.Mensaje != "" {
			fmt.Fprintf(w, "             %s\n", item.Mensaje)
		}
	}
	if feed.Err != nil {
		fmt.Fprintf(w, "Aviso: %v\n", feed.Err)
	}
}
