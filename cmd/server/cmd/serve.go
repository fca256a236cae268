package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/api"
	"github.com/beemailley/final-project-backend-bm/internal/config"
	"github.com/beemailley/final-project-backend-bm/internal/metrics"
	"github.com/beemailley/final-project-backend-bm/internal/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 10 * time.Second
	dbMetricsInterval = 15 * time.Second
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server and accept API requests until SIGINT or SIGTERM.

Examples:
  # Start with configuration from the environment
  server serve

  # Listen on a specific address
  server serve --host 127.0.0.1 --port 9090

  # Overlay a YAML config file
  server serve --config /etc/meetup/server.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "server port (default: 8080)")
	return cmd
}

// runServer serves until ctx is cancelled, then drains in-flight requests
// and closes the store.
func runServer(ctx context.Context, cfg config.Config) error {
	logger := config.NewLogger(cfg.Logging)
	logger.Info().
		Str("version", Version).
		Str("store_driver", cfg.Store.Driver).
		Str("environment", cfg.Environment).
		Msg("starting meetup server")

	metrics.Init(Version, GitCommit, BuildDate, cfg.Store.Driver)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	store, pool, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("store close error")
		}
	}()

	server := &http.Server{
		Addr: net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler: api.NewRouter(api.Deps{
			Config:    cfg,
			Logger:    logger,
			Store:     store,
			Pool:      pool,
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
		}),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if pool != nil {
		collector := metrics.NewDBCollector(pool)
		g.Go(func() error {
			return collector.Run(gctx, dbMetricsInterval)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
