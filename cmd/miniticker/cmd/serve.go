package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/miniticker/internal/api/http"
	"github.com/spec-kit/miniticker/internal/app"
)

func newServeCommand(rt *runtime) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the console API on a local address",
		Long: `serve exposes the ticket list, detail, activity, catalog, dashboard and
document downloads as JSON over HTTP for a browser front-end. Activity
polling and dashboard auto-refresh run while the server is up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.run(cmd, func(ctx context.Context, c *app.Container) error {
				if addr == "" {
					addr = c.Config.App.Addr()
				}
				server := httptransport.NewServer(c)

				ln, err := net.Listen("tcp", addr)
				if err != nil {
					return fmt.Errorf("listen %s: %w", addr, err)
				}
				c.Stores.Activity.Start()
				c.Stores.Dashboard.Start()

				errCh := make(chan error, 1)
				go func() {
					errCh <- server.Listener(ln)
				}()
				c.Logger.Info("console API listening", zap.String("addr", ln.Addr().String()))
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", ln.Addr())

				serveCtx, cancel := context.WithCancel(ctx)
				defer cancel()
				go func() {
					select {
					case err := <-errCh:
						if err != nil {
							c.Logger.Error("fiber listen", zap.Error(err))
						}
						cancel()
					case <-serveCtx.Done():
					}
				}()
				waitForShutdown(serveCtx, c.Logger)

				if err := server.Shutdown(); err != nil && !errors.Is(err, net.ErrClosed) {
					return err
				}
				return nil
			}, terminalNotifier(cmd.ErrOrStderr()))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default APP_HOST:APP_PORT)")
	return cmd
}
