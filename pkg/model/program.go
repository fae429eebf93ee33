package model

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/registrar/pkg/entity"
)

type Program struct {
	Base
	Name         string             `gorm:"not null" json:"name" validate:"required"`
	DepartmentID uint               `gorm:"not null;index" json:"departmentId"`
	Department   *Department        `json:"department,omitempty" validate:"-"`
	Students     []Student          `json:"students,omitempty" validate:"-"`
	Courses      []Course           `json:"courses,omitempty" validate:"-"`
	Curriculum   []CurriculumCourse `json:"curriculum,omitempty" validate:"-"`
}

func (Program) TableName() string {
	return "programs"
}

func (p *Program) Bind(ctx context.Context, tx *gorm.DB) error {
	dept, err := entity.Resolve[Department](ctx, tx, "department", entity.RefID(p.DepartmentID, p.Department))
	if err != nil {
		return err
	}
	p.DepartmentID, p.Department = dept.ID, dept
	return nil
}

func (p *Program) Edit(ctx context.Context, tx *gorm.DB, from *Program) error {
	p.Name = from.Name
	p.DepartmentID, p.Department = from.DepartmentID, from.Department
	return p.Bind(ctx, tx)
}

func (p *Program) Unlink(ctx context.Context, tx *gorm.DB) error {
	if err := refuseIfReferenced(ctx, tx, &Student{}, "program_id", p.ID, "program still has students"); err != nil {
		return err
	}
	if err := refuseIfReferenced(ctx, tx, &Course{}, "program_id", p.ID, "program still has courses"); err != nil {
		return err
	}
	return tx.WithContext(ctx).Where("program_id = ?", p.ID).Delete(&CurriculumCourse{}).Error
}
