package entity

import (
	"sync"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
)

var (
	identityWrites sync.Mutex

	identityModelsMu sync.RWMutex
	identityModels   = map[identity.Role]Bearer{}
)

// LockIdentities serializes writes that add, rename or drop identities
// across every engine and loader in the process, and cache reloads with
// them. Call the returned func to release.
func LockIdentities() (unlock func()) {
	identityWrites.Lock()
	return identityWrites.Unlock
}

// RegisterIdentity declares model as the table holding identities of role.
func RegisterIdentity(role identity.Role, model Bearer) {
	identityModelsMu.Lock()
	defer identityModelsMu.Unlock()
	identityModels[role] = model
}

// EmailHolder finds the identity holding email in any registered identity
// table, reading through tx.
func EmailHolder(tx *gorm.DB, email string) (identity.Role, uint, bool, error) {
	identityModelsMu.RLock()
	defer identityModelsMu.RUnlock()

	for _, role := range identity.Roles {
		m, ok := identityModels[role]
		if !ok {
			continue
		}
		var ids []uint
		if err := tx.Model(m).Where("email = ?", email).Limit(1).Pluck("id", &ids).Error; err != nil {
			return "", 0, false, err
		}
		if len(ids) > 0 {
			return role, ids[0], true, nil
		}
	}
	return "", 0, false, nil
}

// claimEmail fails when an identity other than next holds next's email in
// the store.
func claimEmail(tx *gorm.DB, next identity.Identity) error {
	role, id, found, err := EmailHolder(tx, next.Email)
	if err != nil {
		return err
	}
	if found && (role != next.Role || id != next.ID) {
		return apperr.Validation("Email is already registered")
	}
	return nil
}
