// Package cmd holds the miniticker command tree.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/app"
	"github.com/spec-kit/miniticker/internal/config"
	"github.com/spec-kit/miniticker/internal/observability"
	"github.com/spec-kit/miniticker/internal/service"
)

// Version information
var (
	Version = "dev"
	Commit  = "none"
)

var errNotSignedIn = errors.New("not signed in, run miniticker login")

// containerFactory builds the session container; replaced in tests.
type containerFactory func(cfg *config.Config, logger *zap.Logger, opts app.Options) (*app.Container, error)

type runtime struct {
	newContainer containerFactory
	loadConfig   func() (*config.Config, error)
	jsonOutput   bool
}

// NewRootCommand creates the root command for the miniticker CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&runtime{newContainer: app.New, loadConfig: config.Load})
}

func newRootCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "miniticker",
		Short: "MiniTicker helpdesk client",
		Long: `miniticker talks to a MiniTicker backend: sign in, browse and act on
tickets, follow the activity feed and export reports.

Configuration comes from the environment or a .env file (API_BASE_URL,
STORAGE_BACKEND, LOG_LEVEL, ...).`,
		Version:       fmt.Sprintf("%s (commit: %s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.PersistentFlags().BoolVar(&rt.jsonOutput, "json", false, "print JSON instead of text")

	cmd.AddCommand(newServeCommand(rt))
	cmd.AddCommand(newLoginCommand(rt))
	cmd.AddCommand(newLogoutCommand(rt))
	cmd.AddCommand(newWhoamiCommand(rt))
	cmd.AddCommand(newTicketsCommand(rt))
	cmd.AddCommand(newActivityCommand(rt))
	cmd.AddCommand(newCatalogCommand(rt))
	cmd.AddCommand(newUsersCommand(rt))
	cmd.AddCommand(newExportCommand(rt))
	cmd.AddCommand(newViewModeCommand(rt))
	return cmd
}

// run builds a container, hands it to fn and disposes it afterwards.
func (rt *runtime) run(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container) error, notifiers ...service.Notifier) error {
	cfg, err := rt.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	c, err := rt.newContainer(cfg, logger, app.Options{Notifiers: notifiers})
	if err != nil {
		return err
	}
	defer func() {
		if derr := c.Dispose(); derr != nil {
			logger.Warn("dispose container", zap.Error(derr))
		}
	}()
	return fn(cmd.Context(), c)
}

// print writes v as indented JSON when --json is set, otherwise calls text.
func (rt *runtime) print(w io.Writer, v any, text func(io.Writer)) error {
	if rt.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func waitForShutdown(ctx context.Context, logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}
}

func terminalNotifier(w io.Writer) service.Notifier {
	return service.NotifierFunc(func(_ context.Context, n service.Notification) error {
		_, err := fmt.Fprintf(w, "[%s] %s: %s\n", n.At.Format("15:04:05"), n.Title, n.Message)
		return err
	})
}
