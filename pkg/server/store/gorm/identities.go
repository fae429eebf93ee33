package gorm

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/registrar/pkg/entity"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
	"github.com/doodlesbykumbi/registrar/pkg/model"
	"github.com/doodlesbykumbi/registrar/pkg/server/store"
)

// Ensure IdentityStore implements store.IdentityStore and identity.Loader
var (
	_ store.IdentityStore = (*IdentityStore)(nil)
	_ identity.Loader     = (*IdentityStore)(nil)
)

// IdentityStore implements store.IdentityStore using GORM
type IdentityStore struct {
	db *gorm.DB
}

// NewIdentityStore creates a new IdentityStore
func NewIdentityStore(db *gorm.DB) *IdentityStore {
	return &IdentityStore{db: db}
}

// ListIdentities scans the table of role in one query
func (s *IdentityStore) ListIdentities(ctx context.Context, role identity.Role) ([]identity.Identity, error) {
	switch role {
	case identity.RoleAdministrator:
		return scanIdentities[model.Admin](ctx, s.db)
	case identity.RoleInstructor:
		return scanIdentities[model.Instructor](ctx, s.db)
	case identity.RoleStudent:
		return scanIdentities[model.Student](ctx, s.db)
	}
	return nil, fmt.Errorf("unknown role %q", role)
}

func scanIdentities[T any, PT interface {
	*T
	entity.Bearer
}](ctx context.Context, db *gorm.DB) ([]identity.Identity, error) {
	var rows []T
	if err := db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	out := make([]identity.Identity, 0, len(rows))
	for i := range rows {
		out = append(out, PT(&rows[i]).Identity())
	}
	return out, nil
}
