// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

//go:build integration

package integration

import (
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mindlap/mindlap/internal/auth"
	"github.com/mindlap/mindlap/internal/observability"
	"github.com/mindlap/mindlap/internal/web"
)

var env *testEnv

var _ = BeforeSuite(func() {
	var err error
	env, err = setupTestEnv()
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if env != nil {
		env.cleanup()
	}
})

var _ = BeforeEach(func() {
	Expect(env.truncate()).To(Succeed())
})

func register(c *client, email, password, role string) *auth.PublicUser {
	var resp web.UserResponse
	status, err := c.do(http.MethodPost, "/api/auth/register", web.RegisterRequest{
		Email:        email,
		Password:     password,
		Role:         role,
		Organization: "Test Team",
	}, &resp)
	Expect(err).NotTo(HaveOccurred())
	Expect(status).To(Equal(http.StatusCreated))
	return resp.User
}

func login(c *client, email, password string) int {
	status, err := c.do(http.MethodPost, "/api/auth/login", web.LoginRequest{Email: email, Password: password}, nil)
	Expect(err).NotTo(HaveOccurred())
	return status
}

var _ = Describe("Account lifecycle", func() {
	It("registers, logs in, reads the session user and logs out", func() {
		c := env.newClient()
		user := register(c, "driver@example.com", "hunter22", "regular")
		Expect(user.Role).To(Equal(auth.RoleRegular))
		Expect(user.Organization).To(Equal("Test Team"))

		Expect(login(c, "driver@example.com", "hunter22")).To(Equal(http.StatusOK))

		var me web.UserResponse
		status, err := c.do(http.MethodGet, "/api/auth/me", nil, &me)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(me.User.ID).To(Equal(user.ID))

		status, err = c.do(http.MethodPost, "/api/auth/logout", nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))

		status, err = c.do(http.MethodGet, "/api/auth/me", nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusUnauthorized))
	})

	It("rejects a duplicate email", func() {
		c := env.newClient()
		register(c, "dup@example.com", "hunter22", "regular")

		var errResp web.ErrorResponse
		status, err := c.do(http.MethodPost, "/api/auth/register", web.RegisterRequest{
			Email: "dup@example.com", Password: "other", Role: "regular",
		}, &errResp)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusConflict))
		Expect(errResp.Code).To(Equal(web.CodeConflict))
	})

	It("rejects a wrong password without revealing which field was wrong", func() {
		c := env.newClient()
		register(c, "driver@example.com", "hunter22", "regular")

		Expect(login(c, "driver@example.com", "wrong")).To(Equal(http.StatusUnauthorized))
		Expect(login(c, "nobody@example.com", "hunter22")).To(Equal(http.StatusUnauthorized))

		failures := testutil.ToFloat64(env.metrics.LoginsTotal.WithLabelValues(observability.ResultFailure))
		Expect(failures).To(BeNumerically(">=", 2))
	})
})

var _ = Describe("Password reset", func() {
	It("replaces the password with a single-use token", func() {
		c := env.newClient()
		register(c, "driver@example.com", "hunter22", "regular")

		var forgot web.ForgotPasswordResponse
		status, err := c.do(http.MethodPost, "/api/auth/forgot-password",
			web.ForgotPasswordRequest{Email: "driver@example.com"}, &forgot)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(forgot.Debug).NotTo(BeNil())
		Expect(forgot.Debug.ResetLink).To(ContainSubstring(forgot.Debug.Token))

		reset := web.ResetPasswordRequest{Token: forgot.Debug.Token, Password: "new-password"}
		status, err = c.do(http.MethodPost, "/api/auth/reset-password", reset, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))

		status, err = c.do(http.MethodPost, "/api/auth/reset-password", reset, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusBadRequest), "token is single use")

		Expect(login(c, "driver@example.com", "hunter22")).To(Equal(http.StatusUnauthorized))
		Expect(login(c, "driver@example.com", "new-password")).To(Equal(http.StatusOK))
	})

	It("answers identically for unknown emails", func() {
		c := env.newClient()

		var forgot web.ForgotPasswordResponse
		status, err := c.do(http.MethodPost, "/api/auth/forgot-password",
			web.ForgotPasswordRequest{Email: "ghost@example.com"}, &forgot)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(forgot.Debug).To(BeNil())
	})
})

var _ = Describe("Administration", func() {
	var admin *client

	BeforeEach(func() {
		_, err := env.authn.CreateSuperuser(env.ctx, "admin@example.com", "admin-pass", "Performance In Mind")
		Expect(err).NotTo(HaveOccurred())

		admin = env.newClient()
		Expect(login(admin, "admin@example.com", "admin-pass")).To(Equal(http.StatusOK))
	})

	It("lists users and changes roles", func() {
		driver := register(env.newClient(), "driver@example.com", "hunter22", "regular")

		var users web.UsersResponse
		status, err := admin.do(http.MethodGet, "/api/admin/users", nil, &users)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(users.Users).To(HaveLen(2))

		status, err = admin.do(http.MethodPost, "/api/admin/users/update-role",
			web.UpdateRoleRequest{UserID: driver.ID, NewRole: "coach"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))

		var fetched web.UserResponse
		status, err = admin.do(http.MethodGet, fmt.Sprintf("/api/admin/users/%d", driver.ID), nil, &fetched)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(fetched.User.Role).To(Equal(auth.RoleCoach))
	})

	It("forbids non-superusers", func() {
		c := env.newClient()
		register(c, "coach@example.com", "hunter22", "regular")
		Expect(login(c, "coach@example.com", "hunter22")).To(Equal(http.StatusOK))

		status, err := c.do(http.MethodGet, "/api/admin/users", nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusForbidden))
	})
})
