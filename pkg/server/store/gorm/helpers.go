package gorm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
)

// first loads the row with id into dest, reporting a missing row as
// NotFound under name.
func first(tx *gorm.DB, dest interface{}, name string, id uint) error {
	if err := tx.First(dest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("%s %d not found", name, id)
		}
		return apperr.Store(err)
	}
	return nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}
