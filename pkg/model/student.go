package model

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/registrar/pkg/entity"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
)

type Student struct {
	Base
	User
	StudentNumber string         `json:"studentNumber"`
	Semester      int            `json:"semester" validate:"gte=0"`
	Year          int            `json:"year" validate:"gte=0"`
	Cgpa          float64        `json:"cgpa" validate:"gte=0"`
	ProgramID     uint           `gorm:"not null;index" json:"programId"`
	Program       *Program       `json:"program,omitempty" validate:"-"`
	Grades        []StudentGrade `json:"grades,omitempty" validate:"-"`
	Sections      []Section      `gorm:"many2many:section_students" json:"sections,omitempty" validate:"-"`
}

func (Student) TableName() string {
	return "students"
}

func (s *Student) Bind(ctx context.Context, tx *gorm.DB) error {
	if err := s.bindProgram(ctx, tx); err != nil {
		return err
	}
	return s.User.bind()
}

func (s *Student) Edit(ctx context.Context, tx *gorm.DB, from *Student) error {
	if err := s.User.edit(&from.User); err != nil {
		return err
	}
	s.StudentNumber = from.StudentNumber
	s.Semester = from.Semester
	s.Year = from.Year
	s.Cgpa = from.Cgpa
	s.ProgramID, s.Program = from.ProgramID, from.Program
	return s.bindProgram(ctx, tx)
}

// Unlink drops the student's registrations and grades.
func (s *Student) Unlink(ctx context.Context, tx *gorm.DB) error {
	tx = tx.WithContext(ctx)
	if err := tx.Model(s).Association("Sections").Clear(); err != nil {
		return err
	}
	return tx.Where("student_id = ?", s.ID).Delete(&StudentGrade{}).Error
}

func (s *Student) Identity() identity.Identity {
	return s.User.identity(s.ID, identity.RoleStudent)
}

func (s *Student) bindProgram(ctx context.Context, tx *gorm.DB) error {
	prog, err := entity.Resolve[Program](ctx, tx, "program", entity.RefID(s.ProgramID, s.Program))
	if err != nil {
		return err
	}
	s.ProgramID, s.Program = prog.ID, prog
	return nil
}
