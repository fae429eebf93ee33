package model

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
)

type Department struct {
	Base
	Name        string       `gorm:"not null" json:"name" validate:"required"`
	Programs    []Program    `json:"programs,omitempty" validate:"-"`
	Instructors []Instructor `json:"instructors,omitempty" validate:"-"`
}

func (Department) TableName() string {
	return "departments"
}

func (d *Department) Edit(_ context.Context, _ *gorm.DB, from *Department) error {
	d.Name = from.Name
	return nil
}

func (d *Department) Unlink(ctx context.Context, tx *gorm.DB) error {
	if err := refuseIfReferenced(ctx, tx, &Program{}, "department_id", d.ID, "department still has programs"); err != nil {
		return err
	}
	return refuseIfReferenced(ctx, tx, &Instructor{}, "department_id", d.ID, "department still has instructors")
}

// refuseIfReferenced fails with a validation error when any row of model
// points at id through column.
func refuseIfReferenced(ctx context.Context, tx *gorm.DB, model interface{}, column string, id uint, msg string) error {
	var n int64
	if err := tx.WithContext(ctx).Model(model).Where(column+" = ?", id).Count(&n).Error; err != nil {
		return apperr.Store(err)
	}
	if n > 0 {
		return apperr.Validation("%s", msg)
	}
	return nil
}
