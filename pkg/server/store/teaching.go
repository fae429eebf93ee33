package store

import (
	"context"

	"github.com/doodlesbykumbi/registrar/pkg/model"
)

// TeachingStore abstracts the operations an instructor performs on the
// sections they teach. Every section-scoped call fails with NotFound when
// the section belongs to another instructor.
type TeachingStore interface {
	// Sections returns the instructor's sections with course and time table
	Sections(ctx context.Context, instructorID uint) ([]model.Section, error)

	// SectionStudents returns the students registered with a section, with
	// their program and their grades in that section
	SectionStudents(ctx context.Context, instructorID, sectionID uint) ([]model.Student, error)

	// GradeTypes returns the grading scheme of a section
	GradeTypes(ctx context.Context, instructorID, sectionID uint) ([]model.GradeType, error)

	// SetGradeTypes updates the grade types that carry an id and adds the
	// ones that do not
	SetGradeTypes(ctx context.Context, instructorID, sectionID uint, types []model.GradeType) (*model.Section, error)

	// StudentGrades returns a student's grades in the instructor's sections
	StudentGrades(ctx context.Context, instructorID, studentID uint) ([]model.StudentGrade, error)

	// SetGrade updates the score of an existing grade, or records a new one
	SetGrade(ctx context.Context, instructorID, studentID uint, grade model.StudentGrade) (*model.StudentGrade, error)
}
