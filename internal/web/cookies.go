// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package web

import (
	"net/http"

	"github.com/mindlap/mindlap/internal/auth"
)

// HTTPCookies adapts a response writer and request to auth.CookieJar.
type HTTPCookies struct {
	w     http.ResponseWriter
	r     *http.Request
	codec *auth.SessionCodec
}

// NewHTTPCookies creates a jar for one request. Deletion cookies come from
// codec so their attributes match the session cookie being removed.
func NewHTTPCookies(w http.ResponseWriter, r *http.Request, codec *auth.SessionCodec) *HTTPCookies {
	return &HTTPCookies{w: w, r: r, codec: codec}
}

// Cookie implements auth.CookieJar.
func (c *HTTPCookies) Cookie(name string) (string, bool) {
	cookie, err := c.r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// SetCookie implements auth.CookieJar.
func (c *HTTPCookies) SetCookie(cookie *http.Cookie) {
	http.SetCookie(c.w, cookie)
}

// DeleteCookie implements auth.CookieJar.
func (c *HTTPCookies) DeleteCookie(name string) {
	cookie := c.codec.ExpiredCookie()
	cookie.Name = name
	http.SetCookie(c.w, cookie)
}

var _ auth.CookieJar = (*HTTPCookies)(nil)
