package identity

import (
	"context"
	"fmt"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Role is the kind of account an identity belongs to.
type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleInstructor    Role = "Instructor"
	RoleStudent       Role = "Student"

	// RoleAny matches every role when validating a token.
	RoleAny Role = ""
)

// Roles lists the concrete roles in cache load order.
var Roles = []Role{RoleAdministrator, RoleInstructor, RoleStudent}

// ParseRole returns the Role named by s.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Identity is an authenticatable account: an administrator, instructor or
// student. The ID is the row id within the role's table, so (Role, ID) is
// the identity key and Email is unique across all roles.
type Identity struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
