// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

// Package main is the entry point for the MindLap server and its
// administrative commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func formatVersion(version, commit, date string) string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	cmd.Version = formatVersion(version, commit, date)

	if err := cmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
