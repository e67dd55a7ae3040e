// Copyright © 2025 kindguard authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

// Package rbac decides what an authenticated principal may do. Roles form a
// strict hierarchy (parent < teacher < admin); a higher role implies every
// permission of the roles below it.
package rbac

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnknownRole indicates a role string outside the known hierarchy.
	ErrUnknownRole = errors.New("rbac: unknown role")
	// ErrInsufficientRole indicates the actor's role ranks below the requirement.
	ErrInsufficientRole = errors.New("rbac: insufficient role")
	// ErrAccessDenied indicates the actor may not touch another principal's resource.
	ErrAccessDenied = errors.New("rbac: access denied")
	// ErrPrivilegeEscalation indicates a request payload attempting to change
	// role or admin status through a non-administrative channel.
	ErrPrivilegeEscalation = errors.New("rbac: privilege escalation attempt")
)

// Role is a principal's position in the hierarchy.
type Role string

const (
	RoleParent  Role = "parent"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// roleRank orders the hierarchy. Unknown roles have rank zero and therefore
// satisfy nothing.
var roleRank = map[Role]int{
	RoleParent:  1,
	RoleTeacher: 2,
	RoleAdmin:   3,
}

// ParseRole normalizes a stored or transmitted role string. Matching is
// case-insensitive because legacy records carried mixed casing.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleRank[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Rank returns the role's position in the hierarchy, 0 for unknown roles.
func (r Role) Rank() int {
	return roleRank[r]
}

// Satisfies reports whether r grants at least the permissions of required.
func (r Role) Satisfies(required Role) bool {
	return roleRank[r] >= roleRank[required] && roleRank[r] > 0
}

// Authorize applies both access checks in order. The vertical check compares
// the actor's role against the required role; the horizontal check then
// confirms the actor owns the resource, with admins exempt. ownerID empty
// means the resource is not principal-scoped and only the vertical check
// applies.
func Authorize(actorRole Role, actorID string, required Role, ownerID string) error {
	if !actorRole.Satisfies(required) {
		return fmt.Errorf("%w: %s requires at least %s", ErrInsufficientRole, actorRole, required)
	}
	if ownerID == "" || actorRole == RoleAdmin || actorID == ownerID {
		return nil
	}
	return fmt.Errorf("%w: resource belongs to another user", ErrAccessDenied)
}

// escalationKeys are payload fields that only dedicated administrative flows
// may set. The check is case-insensitive on the key name.
var escalationKeys = map[string]bool{
	"role":     true,
	"isadmin":  true,
	"is_admin": true,
}

// CheckRolePayload rejects any request body that tries to set a role or admin
// flag. The rule has no admin exemption: role changes go through the dedicated
// administrative endpoint, never through a general update payload.
func CheckRolePayload(body map[string]interface{}) error {
	for key := range body {
		if escalationKeys[strings.ToLower(key)] {
			return fmt.Errorf("%w: field %q not allowed here", ErrPrivilegeEscalation, key)
		}
	}
	return nil
}

// IsStaleCache reports whether a permission snapshot refreshed at
// lastRefreshedAt has outlived ttl and must be re-read from the source of
// truth before the next decision.
func IsStaleCache(lastRefreshedAt time.Time, ttl time.Duration) bool {
	if lastRefreshedAt.IsZero() {
		return true
	}
	return time.Since(lastRefreshedAt) > ttl
}
