// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mindlap/mindlap/internal/store"
)

var _ = Describe("Migrator", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
		pool      *pgxpool.Pool
		migrator  *store.Migrator
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("mindlap_test"),
			postgres.WithUsername("mindlap"),
			postgres.WithPassword("mindlap"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		pool, err = store.Connect(ctx, connStr, store.ConnectOptions{Retries: 5, Timeout: 30 * time.Second})
		Expect(err).NotTo(HaveOccurred())

		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if migrator != nil {
			_ = migrator.Close()
		}
		if pool != nil {
			pool.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	It("starts with every migration pending", func() {
		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Version).To(BeZero())
		Expect(status.Pending).To(HaveLen(2))
		Expect(status.Pending[0].Name).To(Equal("000001_create_users"))
	})

	It("applies all migrations", func() {
		Expect(migrator.Up()).To(Succeed())

		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Version).To(Equal(uint(2)))
		Expect(status.Dirty).To(BeFalse())
		Expect(status.Pending).To(BeEmpty())
	})

	It("is idempotent", func() {
		Expect(migrator.Up()).To(Succeed())
	})

	It("enforces the role enumeration", func() {
		_, err := pool.Exec(ctx,
			`INSERT INTO users (email, password_hash, role) VALUES ('x@example.com', 'h', 'admin')`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("users_role_check"))
	})

	It("requires reset token and expiry together", func() {
		_, err := pool.Exec(ctx,
			`INSERT INTO users (email, password_hash, password_reset_token) VALUES ('y@example.com', 'h', 'tok')`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("users_reset_pair_check"))
	})

	It("defaults role to regular", func() {
		var role string
		err := pool.QueryRow(ctx,
			`INSERT INTO users (email, password_hash) VALUES ('z@example.com', 'h') RETURNING role`).Scan(&role)
		Expect(err).NotTo(HaveOccurred())
		Expect(role).To(Equal("regular"))
	})

	It("rolls everything back", func() {
		Expect(migrator.Down()).To(Succeed())

		var exists bool
		err := pool.QueryRow(ctx, `SELECT to_regclass('public.users') IS NOT NULL`).Scan(&exists)
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeFalse())
	})
})
