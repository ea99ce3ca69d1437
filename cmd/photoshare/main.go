// Command photoshare is a terminal client for the photoshare API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photoshare/internal/api"
	"photoshare/internal/config"
	"photoshare/internal/guard"
	"photoshare/internal/observability"
	"photoshare/internal/screens"
	"photoshare/internal/session"
	"photoshare/internal/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app holds the components shared by every command.
type app struct {
	cfg     *config.Config
	logger  *observability.Logger
	store   *session.Store
	client  *api.Client
	nav     *guard.Navigator
	closers []io.Closer
	tracing func(context.Context) error
}

var current app

var cmdRoot = &cobra.Command{
	Use:           "photoshare",
	Short:         "Browse and share photos from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return current.init(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return current.close()
	},
}

func (a *app) init(ctx context.Context) error {
	// .env is optional.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.IsProduction())
	observability.GlobalLogger = a.logger

	a.tracing, err = observability.InitTracing(observability.TracingConfig{
		ServiceName:    "photoshare-cli",
		ServiceVersion: version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Writer:         os.Stderr,
	})
	if err != nil {
		return err
	}

	st, closer, err := storage.Open(ctx, cfg, a.logger)
	if err != nil {
		return fmt.Errorf("open session storage: %w", err)
	}
	a.closers = append(a.closers, closer)

	a.store = session.New(ctx, st, a.logger)
	a.client = api.NewFromConfig(cfg, a.store, a.logger)
	a.nav = guard.NewNavigator(a.store, guard.RoleHome(a.store.Role()), a.logger)
	return nil
}

func (a *app) close() error {
	var errs []error
	if a.nav != nil {
		a.nav.Close()
	}
	if a.tracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, a.tracing(ctx))
	}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) sizes() screens.Sizes {
	return screens.Sizes{Window: a.cfg.FeedPageSize, Page: a.cfg.DashboardPageSize}
}

var version = "dev"

func main() {
	cmdRoot.AddCommand(
		cmdLogin, cmdSignup, cmdLogout, cmdWhoami,
		cmdFeed, cmdDashboard, cmdSearch,
		cmdLike, cmdEdit, cmdDelete, cmdUpload, cmdDownload,
		cmdComments, cmdComment,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmdRoot.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		_ = current.close()
		os.Exit(1)
	}
}
