// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/mindlap/mindlap/internal/auth"
	"github.com/mindlap/mindlap/internal/auth/postgres"
	"github.com/mindlap/mindlap/internal/config"
	"github.com/mindlap/mindlap/internal/observability"
	"github.com/mindlap/mindlap/internal/store"
	"github.com/mindlap/mindlap/internal/web"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type serveOptions struct {
	migrate bool
}

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server. The server connects to PostgreSQL, optionally
applies pending migrations, and serves the auth and admin API until it
receives SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	config.BindFlags(cmd.Flags())
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply pending migrations before serving")

	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := setupLogging(cfg)
	logger.Info("starting mindlap",
		"version", version,
		"environment", cfg.Environment,
	)

	if opts.migrate {
		if err := applyMigrations(cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	pool, err := store.Connect(ctx, cfg.Database.URL, store.ConnectOptions{
		Retries: cfg.Database.Retries,
		Timeout: cfg.Database.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	var (
		metrics   *observability.Metrics
		obsErrs   <-chan error
		obsServer *observability.Server
	)
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr, observability.PingReadiness(pool))
		obsErrs, err = obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		metrics = obsServer.Metrics()
		logger.Info("observability server listening", "addr", obsServer.Addr())
		defer stopObservability(obsServer, logger)
	}

	handler, err := buildHandler(cfg, postgres.NewUserRepository(pool), metrics, logger)
	if err != nil {
		return err
	}

	return serveHTTP(ctx, cfg.HTTP.Addr, handler, obsErrs, logger)
}

// buildHandler wires the auth services over users into the HTTP router.
func buildHandler(cfg *config.Config, users auth.UserRepository, metrics *observability.Metrics, logger *slog.Logger) (http.Handler, error) {
	hasher := auth.NewArgon2idHasher()

	authn, err := auth.NewAuthenticator(users, hasher, auth.WithLogger(logger))
	if err != nil {
		return nil, oops.With("operation", "create authenticator").Wrap(err)
	}

	notifier := &auth.LogNotifier{
		Logger:      logger,
		ResetURL:    cfg.Reset.URL,
		IncludeLink: cfg.Reset.Debug,
	}
	resets, err := auth.NewPasswordResetService(users, hasher, notifier, auth.WithLogger(logger))
	if err != nil {
		return nil, oops.With("operation", "create reset service").Wrap(err)
	}

	secure := cfg.Production()
	codec, err := auth.NewSessionCodec([]byte(cfg.Session.Secret), secure, auth.WithLogger(logger))
	if err != nil {
		return nil, oops.With("operation", "create session codec").Wrap(err)
	}
	gate, err := auth.NewSessionGate(codec)
	if err != nil {
		return nil, oops.With("operation", "create session gate").Wrap(err)
	}

	//nolint:wrapcheck // router errors are already coded
	return web.NewRouter(web.Config{
		Users:      authn,
		Resets:     resets,
		Gate:       gate,
		Metrics:    metrics,
		Logger:     logger,
		ResetURL:   cfg.Reset.URL,
		ResetDebug: cfg.Reset.Debug,
	})
}

// serveHTTP serves handler on addr until ctx is cancelled or a server fails,
// then shuts down gracefully.
func serveHTTP(ctx context.Context, addr string, handler http.Handler, obsErrs <-chan error, logger *slog.Logger) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", addr).Wrap(err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErrs := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrs <- err
		}
		close(serveErrs)
	}()
	logger.Info("http server listening", "addr", listener.Addr().String())

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err, ok := <-serveErrs:
		if ok {
			runErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	case err, ok := <-obsErrs:
		if ok {
			runErr = oops.Code("OBSERVABILITY_SERVE_FAILED").Wrap(err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", "error", err)
	}

	if runErr != nil {
		logger.Error("server failed", "error", runErr)
	}
	return runErr
}

func stopObservability(srv *observability.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Warn("observability server shutdown", "error", err)
	}
}

func applyMigrations(databaseURL string, logger *slog.Logger) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.Warn("closing migrator", "error", closeErr)
		}
	}()

	if err := m.Up(); err != nil {
		return oops.With("operation", "migrate up").Wrap(err)
	}
	logger.Info("migrations applied")
	return nil
}
