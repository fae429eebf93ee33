package model

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/registrar/pkg/entity"
)

// Elective kinds of a curriculum entry.
const (
	ElectiveNo         = "no"
	ElectiveUniversity = "university"
	ElectiveFaculty    = "faculty"
	ElectiveProgram    = "program"
)

// CurriculumCourse schedules a course of a program in a year and semester.
type CurriculumCourse struct {
	Base
	Year      int      `json:"year" validate:"gte=0"`
	Semester  int      `json:"semester" validate:"gte=0"`
	Elective  string   `gorm:"not null" json:"elective" validate:"omitempty,oneof=no university faculty program"`
	ProgramID uint     `gorm:"not null;index" json:"programId"`
	Program   *Program `json:"program,omitempty" validate:"-"`
	CourseID  uint     `gorm:"not null;index" json:"courseId"`
	Course    *Course  `json:"course,omitempty" validate:"-"`
}

func (CurriculumCourse) TableName() string {
	return "curriculum_courses"
}

// BindTo resolves the course and attaches the entry to programID.
func (c *CurriculumCourse) BindTo(ctx context.Context, tx *gorm.DB, programID uint) error {
	course, err := entity.Resolve[Course](ctx, tx, "course", entity.RefID(c.CourseID, c.Course))
	if err != nil {
		return err
	}
	if c.Elective == "" {
		c.Elective = ElectiveNo
	}
	c.ID = 0
	c.ProgramID, c.Program = programID, nil
	c.CourseID, c.Course = course.ID, course
	return nil
}

// Offered reports whether the entry is open to a student in year and
// semester: scheduled no later than that year, in a semester of the same
// parity.
func (c *CurriculumCourse) Offered(year, semester int) bool {
	return c.Year <= year && c.Semester%2 == semester%2
}
