package model

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/registrar/pkg/entity"
)

type Course struct {
	Base
	Name      string    `gorm:"not null" json:"name" validate:"required"`
	Code      string    `gorm:"not null" json:"code" validate:"required"`
	Ects      float64   `json:"ects" validate:"gte=0"`
	ProgramID uint      `gorm:"not null;index" json:"programId"`
	Program   *Program  `json:"program,omitempty" validate:"-"`
	Sections  []Section `json:"sections,omitempty" validate:"-"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) Bind(ctx context.Context, tx *gorm.DB) error {
	prog, err := entity.Resolve[Program](ctx, tx, "program", entity.RefID(c.ProgramID, c.Program))
	if err != nil {
		return err
	}
	c.ProgramID, c.Program = prog.ID, prog
	return nil
}

func (c *Course) Edit(ctx context.Context, tx *gorm.DB, from *Course) error {
	c.Name = from.Name
	c.Code = from.Code
	c.Ects = from.Ects
	c.ProgramID, c.Program = from.ProgramID, from.Program
	return c.Bind(ctx, tx)
}

func (c *Course) Unlink(ctx context.Context, tx *gorm.DB) error {
	if err := refuseIfReferenced(ctx, tx, &Section{}, "course_id", c.ID, "course still has sections"); err != nil {
		return err
	}
	return tx.WithContext(ctx).Where("course_id = ?", c.ID).Delete(&CurriculumCourse{}).Error
}
