// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package authtest

import (
	"net/http"

	"github.com/mindlap/mindlap/internal/auth"
)

// CookieJar is an auth.CookieJar that keeps cookies in memory, behaving like
// a browser that replays whatever the server last set.
type CookieJar struct {
	cookies map[string]*http.Cookie
	Set     []*http.Cookie
}

// NewCookieJar creates an empty jar.
func NewCookieJar() *CookieJar {
	return &CookieJar{cookies: make(map[string]*http.Cookie)}
}

// Cookie implements auth.CookieJar.
func (j *CookieJar) Cookie(name string) (string, bool) {
	c, ok := j.cookies[name]
	if !ok {
		return "", false
	}
	return c.Value, true
}

// SetCookie implements auth.CookieJar.
func (j *CookieJar) SetCookie(c *http.Cookie) {
	j.Set = append(j.Set, c)
	if c.MaxAge < 0 {
		delete(j.cookies, c.Name)
		return
	}
	j.cookies[c.Name] = c
}

// DeleteCookie implements auth.CookieJar.
func (j *CookieJar) DeleteCookie(name string) {
	delete(j.cookies, name)
}

// Put stores a raw inbound cookie value.
func (j *CookieJar) Put(name, value string) {
	j.cookies[name] = &http.Cookie{Name: name, Value: value}
}

var _ auth.CookieJar = (*CookieJar)(nil)
