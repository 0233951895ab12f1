// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package auth

import (
	"log/slog"
	"time"
)

// Option configures a service constructed by this package.
type Option func(*options)

type options struct {
	logger *slog.Logger
	now    func() time.Time
}

func defaultOptions() options {
	return options{
		logger: slog.Default(),
		now:    time.Now,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for best-effort failures and diagnostics.
// A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
