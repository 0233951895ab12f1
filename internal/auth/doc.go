// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

// Package auth provides authentication and authorization for MindLap.
//
// # Components
//
//   - PasswordHasher - argon2id hashing, with verification of legacy bcrypt digests
//   - Authenticator - registration, login, user lookup and role administration
//   - SessionCodec - signed, stateless session cookie values
//   - SessionGate - resolves the caller of a request and enforces roles
//   - PasswordResetService - single-use, one hour password reset tokens
//
// Services are created with New* constructors that validate dependencies.
// Persistence is reached only through UserRepository.
//
// # Errors
//
// Every returned error is a coded oops error wrapping one of the sentinels in
// errors.go. Login failures are reported identically for unknown emails and
// wrong passwords, and reset tokens fail identically whether never issued,
// expired or already used.
//
// Sessions are not revocable server side: a cookie stays valid until its
// max-age elapses, even across a password reset.
package auth
