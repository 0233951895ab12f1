// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/mindlap/mindlap/internal/auth"
	"github.com/mindlap/mindlap/internal/auth/authtest"
	"github.com/mindlap/mindlap/internal/observability"
)

var testSecret = []byte("web-test-secret-0123456789abcdef")

type testEnv struct {
	router  http.Handler
	repo    *authtest.MemoryUserRepository
	authn   *auth.Authenticator
	codec   *auth.SessionCodec
	metrics *observability.Metrics
	logs    *bytes.Buffer
}

type envOption func(*Config)

func withResetDebug(url string) envOption {
	return func(c *Config) {
		c.ResetDebug = true
		c.ResetURL = url
	}
}

func withUsers(users UserService) envOption {
	return func(c *Config) { c.Users = users }
}

func withResets(resets ResetService) envOption {
	return func(c *Config) { c.Resets = resets }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	repo := authtest.NewMemoryUserRepository()
	hasher := auth.NewArgon2idHasher()

	authn, err := auth.NewAuthenticator(repo, hasher, auth.WithLogger(logger))
	require.NoError(t, err)
	resets, err := auth.NewPasswordResetService(repo, hasher, &auth.LogNotifier{Logger: logger}, auth.WithLogger(logger))
	require.NoError(t, err)
	codec, err := auth.NewSessionCodec(testSecret, false, auth.WithLogger(logger))
	require.NoError(t, err)
	gate, err := auth.NewSessionGate(codec)
	require.NoError(t, err)

	metrics := observability.NewMetrics(prometheus.NewRegistry())

	cfg := Config{
		Users:   authn,
		Resets:  resets,
		Gate:    gate,
		Metrics: metrics,
		Logger:  logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	router, err := NewRouter(cfg)
	require.NoError(t, err)

	return &testEnv{
		router:  router,
		repo:    repo,
		authn:   authn,
		codec:   codec,
		metrics: metrics,
		logs:    logs,
	}
}

// do sends a JSON request through the router.
func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// sessionFor returns a valid session cookie for user.
func (e *testEnv) sessionFor(t *testing.T, user *auth.PublicUser) *http.Cookie {
	t.Helper()
	value, err := e.codec.Encode(user)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.SessionCookieName, Value: value}
}

// createUser stores a user through the authenticator and returns it.
func (e *testEnv) createUser(t *testing.T, email, password string, role auth.Role) *auth.PublicUser {
	t.Helper()
	ctx := context.Background()
	if role == auth.RoleSuperuser {
		u, err := e.authn.CreateSuperuser(ctx, email, password, "")
		require.NoError(t, err)
		return u
	}
	u, err := e.authn.CreateUser(ctx, email, password, auth.RoleRegular, "")
	require.NoError(t, err)
	if role != auth.RoleRegular {
		require.NoError(t, e.authn.UpdateRole(ctx, u.ID, role))
		u.Role = role
	}
	return u
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

// stubUsers is a UserService with overridable behaviour.
type stubUsers struct {
	UserService
	authenticateFn func(ctx context.Context, email, password string) (*auth.PublicUser, error)
	listFn         func(ctx context.Context) ([]auth.UserSummary, error)
}

func (s *stubUsers) Authenticate(ctx context.Context, email, password string) (*auth.PublicUser, error) {
	return s.authenticateFn(ctx, email, password)
}

func (s *stubUsers) ListUsers(ctx context.Context) ([]auth.UserSummary, error) {
	return s.listFn(ctx)
}

// stubResets is a ResetService with overridable behaviour.
type stubResets struct {
	requestFn func(ctx context.Context, email string) (string, error)
	resetFn   func(ctx context.Context, token, password string) error
}

func (s *stubResets) RequestReset(ctx context.Context, email string) (string, error) {
	return s.requestFn(ctx, email)
}

func (s *stubResets) ResetPassword(ctx context.Context, token, password string) error {
	return s.resetFn(ctx, token, password)
}
