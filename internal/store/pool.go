// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

// Package store provides PostgreSQL connectivity and schema management.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// ConnectOptions controls the initial connection attempt.
type ConnectOptions struct {
	// Retries is the number of additional ping attempts after the first.
	Retries uint64
	// Timeout bounds the whole connect sequence, retries included.
	Timeout time.Duration
	// Logger receives one line per failed attempt.
	Logger *slog.Logger
}

// pinger is the part of *pgxpool.Pool Connect waits on.
type pinger interface {
	Ping(ctx context.Context) error
}

// Connect opens a pgx pool and pings it with exponential backoff until the
// database answers or the retry budget is spent.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := waitForDatabase(ctx, pool, opts); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func waitForDatabase(ctx context.Context, db pinger, opts ConnectOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	backoff := retry.WithMaxRetries(opts.Retries, retry.NewExponential(250*time.Millisecond))
	backoff = retry.WithCappedDuration(5*time.Second, backoff)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "database not ready",
				"attempt", attempt,
				"error", err.Error(),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}
	return nil
}
