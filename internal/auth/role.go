// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package auth

import (
	"slices"
	"strings"

	"github.com/samber/oops"
)

// Role is a user's access level. The zero value is not a valid role.
type Role string

// Roles recognised by the system.
const (
	RoleRegular   Role = "regular"
	RoleSuperuser Role = "superuser"
	RoleCoach     Role = "coach"
	RoleDriver    Role = "driver"
)

// AllRoles lists every assignable role.
var AllRoles = []Role{RoleRegular, RoleSuperuser, RoleCoach, RoleDriver}

// RegistrationRoles lists the roles a user may pick when signing up.
// Coach and driver are assigned by an administrator.
var RegistrationRoles = []Role{RoleRegular, RoleSuperuser}

// ParseRole converts a stored or submitted string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.Valid() {
		return "", oops.Code("AUTH_INVALID_ROLE").
			With("role", s).
			Wrapf(ErrValidation, "invalid role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of AllRoles.
func (r Role) Valid() bool {
	return slices.Contains(AllRoles, r)
}

// In reports whether r is a member of allowed.
func (r Role) In(allowed ...Role) bool {
	return slices.Contains(allowed, r)
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// ValidateRegistrationRole checks that r may be chosen at self-registration.
func ValidateRegistrationRole(r Role) error {
	if !r.In(RegistrationRoles...) {
		return oops.Code("AUTH_INVALID_ROLE").
			With("role", string(r)).
			Wrapf(ErrValidation, "role %q cannot be self-registered", r)
	}
	return nil
}
