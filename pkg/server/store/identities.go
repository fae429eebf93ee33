package store

import (
	"context"

	"github.com/doodlesbykumbi/registrar/pkg/identity"
)

// IdentityStore abstracts the bulk identity scans behind the identity cache
type IdentityStore interface {
	// ListIdentities returns every identity of role, ordered by id
	ListIdentities(ctx context.Context, role identity.Role) ([]identity.Identity, error)
}
