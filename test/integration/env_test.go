// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mindlap/mindlap/internal/auth"
	authpg "github.com/mindlap/mindlap/internal/auth/postgres"
	"github.com/mindlap/mindlap/internal/observability"
	"github.com/mindlap/mindlap/internal/store"
	"github.com/mindlap/mindlap/internal/web"
)

const sessionSecret = "integration-secret-0123456789abcdef"

// testEnv holds the resources shared by the integration specs.
type testEnv struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container testcontainers.Container
	pool      *pgxpool.Pool
	authn     *auth.Authenticator
	metrics   *observability.Metrics
	server    *httptest.Server
}

// setupTestEnv starts PostgreSQL, applies migrations and serves the API
// router on a local test server.
func setupTestEnv() (*testEnv, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	env := &testEnv{ctx: ctx, cancel: cancel}

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("mindlap_test"),
		postgres.WithUsername("mindlap"),
		postgres.WithPassword("mindlap"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	env.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		env.cleanup()
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		env.cleanup()
		return nil, err
	}
	_ = migrator.Close()

	env.pool, err = store.Connect(ctx, connStr, store.ConnectOptions{Retries: 3, Timeout: 30 * time.Second})
	if err != nil {
		env.cleanup()
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	users := authpg.NewUserRepository(env.pool)
	hasher := auth.NewArgon2idHasher()

	env.authn, err = auth.NewAuthenticator(users, hasher, auth.WithLogger(logger))
	if err != nil {
		env.cleanup()
		return nil, err
	}
	resets, err := auth.NewPasswordResetService(users, hasher,
		&auth.LogNotifier{Logger: logger, ResetURL: "http://localhost/reset", IncludeLink: true},
		auth.WithLogger(logger))
	if err != nil {
		env.cleanup()
		return nil, err
	}
	codec, err := auth.NewSessionCodec([]byte(sessionSecret), false, auth.WithLogger(logger))
	if err != nil {
		env.cleanup()
		return nil, err
	}
	gate, err := auth.NewSessionGate(codec)
	if err != nil {
		env.cleanup()
		return nil, err
	}

	env.metrics = observability.NewMetrics(prometheus.NewRegistry())
	router, err := web.NewRouter(web.Config{
		Users:      env.authn,
		Resets:     resets,
		Gate:       gate,
		Metrics:    env.metrics,
		Logger:     logger,
		ResetURL:   "http://localhost/reset",
		ResetDebug: true,
	})
	if err != nil {
		env.cleanup()
		return nil, err
	}
	env.server = httptest.NewServer(router)

	return env, nil
}

func (e *testEnv) cleanup() {
	if e.server != nil {
		e.server.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
	if e.container != nil {
		_ = e.container.Terminate(context.Background())
	}
	e.cancel()
}

// truncate removes every user between specs.
func (e *testEnv) truncate() error {
	_, err := e.pool.Exec(e.ctx, `TRUNCATE users RESTART IDENTITY`)
	return err
}

// client is a browser-like API client with its own cookie jar.
type client struct {
	base string
	http *http.Client
}

func (e *testEnv) newClient() *client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(err)
	}
	return &client{base: e.server.URL, http: &http.Client{Jar: jar, Timeout: 10 * time.Second}}
}

// do sends body as JSON and decodes the response into out when non-nil.
func (c *client) do(method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}
