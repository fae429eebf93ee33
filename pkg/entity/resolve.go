package entity

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
)

// RefID returns the id of a reference given either as a foreign key or as
// an embedded record carrying only its id.
func RefID[R any, PR interface {
	*R
	Entity
}](fk uint, ref PR) uint {
	if fk != 0 {
		return fk
	}
	if ref != nil {
		return ref.GetID()
	}
	return 0
}

// Resolve loads the record referenced as name. A zero id is a missing
// required reference; an id that does not exist is NotFound.
func Resolve[R any, PR interface {
	*R
	Entity
}](ctx context.Context, tx *gorm.DB, name string, id uint) (PR, error) {
	if id == 0 {
		return nil, apperr.Validation("%s is required", name)
	}
	out := PR(new(R))
	if err := tx.WithContext(ctx).First(out, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("%s %d not found", name, id)
		}
		return nil, apperr.Store(err)
	}
	return out, nil
}

// ResolveOptional is Resolve for references that may be absent.
func ResolveOptional[R any, PR interface {
	*R
	Entity
}](ctx context.Context, tx *gorm.DB, name string, id uint) (PR, error) {
	if id == 0 {
		return nil, nil
	}
	return Resolve[R, PR](ctx, tx, name, id)
}

// ResolveAll loads every record in ids, failing on the first that does not
// exist. Duplicate ids are collapsed.
func ResolveAll[R any, PR interface {
	*R
	Entity
}](ctx context.Context, tx *gorm.DB, name string, ids []uint) ([]R, error) {
	if len(ids) == 0 {
		return []R{}, nil
	}
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if id == 0 {
			return nil, apperr.Validation("%s id is required", name)
		}
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	var out []R
	if err := tx.WithContext(ctx).Order("id").Find(&out, unique).Error; err != nil {
		return nil, apperr.Store(err)
	}
	if len(out) != len(unique) {
		found := make(map[uint]bool, len(out))
		for i := range out {
			found[PR(&out[i]).GetID()] = true
		}
		for _, id := range unique {
			if !found[id] {
				return nil, apperr.NotFound("%s %d not found", name, id)
			}
		}
	}
	return out, nil
}
