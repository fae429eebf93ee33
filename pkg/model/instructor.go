package model

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/registrar/pkg/entity"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
)

type Instructor struct {
	Base
	User
	EmployeeNumber string      `json:"employeeNumber"`
	DepartmentID   uint        `gorm:"not null;index" json:"departmentId"`
	Department     *Department `json:"department,omitempty" validate:"-"`
	Sections       []Section   `json:"sections,omitempty" validate:"-"`
}

func (Instructor) TableName() string {
	return "instructors"
}

func (i *Instructor) Bind(ctx context.Context, tx *gorm.DB) error {
	if err := i.bindDepartment(ctx, tx); err != nil {
		return err
	}
	return i.User.bind()
}

func (i *Instructor) Edit(ctx context.Context, tx *gorm.DB, from *Instructor) error {
	if err := i.User.edit(&from.User); err != nil {
		return err
	}
	i.EmployeeNumber = from.EmployeeNumber
	i.DepartmentID, i.Department = from.DepartmentID, from.Department
	return i.bindDepartment(ctx, tx)
}

func (i *Instructor) Unlink(ctx context.Context, tx *gorm.DB) error {
	return refuseIfReferenced(ctx, tx, &Section{}, "instructor_id", i.ID, "instructor still teaches sections")
}

func (i *Instructor) Identity() identity.Identity {
	return i.User.identity(i.ID, identity.RoleInstructor)
}

func (i *Instructor) bindDepartment(ctx context.Context, tx *gorm.DB) error {
	dept, err := entity.Resolve[Department](ctx, tx, "department", entity.RefID(i.DepartmentID, i.Department))
	if err != nil {
		return err
	}
	i.DepartmentID, i.Department = dept.ID, dept
	return nil
}
