// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/mindlap/mindlap/internal/auth"
	"github.com/mindlap/mindlap/internal/auth/postgres"
	"github.com/mindlap/mindlap/internal/store"
)

// defaultOrganization is used when create-superuser is given no organization.
const defaultOrganization = "Performance In Mind"

// NewCreateSuperuserCmd creates the create-superuser command.
func NewCreateSuperuserCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "create-superuser <email> <password> [organization]",
		Short: "Create a superuser account",
		Long: `Create a superuser account directly in the database. The organization
defaults to "` + defaultOrganization + `".`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			org := defaultOrganization
			if len(args) == 3 {
				org = args[2]
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateDatabase(); err != nil {
				return err
			}
			logger := setupLogging(cfg)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			pool, err := store.Connect(ctx, cfg.Database.URL, store.ConnectOptions{
				Retries: cfg.Database.Retries,
				Timeout: cfg.Database.Timeout,
				Logger:  logger,
			})
			if err != nil {
				return oops.With("operation", "connect to database").Wrap(err)
			}
			defer pool.Close()

			return createSuperuser(ctx, postgres.NewUserRepository(pool), cmd.OutOrStdout(), args[0], args[1], org)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall timeout")

	return cmd
}

func createSuperuser(ctx context.Context, users auth.UserRepository, out io.Writer, email, password, org string) error {
	authn, err := auth.NewAuthenticator(users, auth.NewArgon2idHasher())
	if err != nil {
		return oops.With("operation", "create authenticator").Wrap(err)
	}

	user, err := authn.CreateSuperuser(ctx, email, password, org)
	if err != nil {
		return oops.With("operation", "create superuser").With("email", email).Wrap(err)
	}

	_, _ = fmt.Fprintf(out, "Created superuser %s (id %d)\n", user.Email, user.ID)
	return nil
}
