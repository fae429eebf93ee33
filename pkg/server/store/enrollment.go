package store

import (
	"context"

	"github.com/doodlesbykumbi/registrar/pkg/model"
)

// EnrollmentStore abstracts the operations a student performs on their own
// record
type EnrollmentStore interface {
	// RegisteredSections returns the sections the student is registered
	// with, including course, instructor and time table
	RegisteredSections(ctx context.Context, studentID uint) ([]model.Section, error)

	// Grades returns the student's grades with grade type, section and course
	Grades(ctx context.Context, studentID uint) ([]model.StudentGrade, error)

	// AvailableCourses returns the curriculum entries of the student's
	// program that are offered in the student's year and semester and whose
	// course the student is not already registered for
	AvailableCourses(ctx context.Context, studentID uint) ([]model.CurriculumCourse, error)

	// Register adds the student to a section that has room
	Register(ctx context.Context, studentID, sectionID uint) (*model.Section, error)

	// Unregister removes the student from a section they are registered with
	Unregister(ctx context.Context, studentID, sectionID uint) (*model.Section, error)
}
