package gorm

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
	"github.com/doodlesbykumbi/registrar/pkg/model"
	"github.com/doodlesbykumbi/registrar/pkg/server/store"
)

// Ensure EnrollmentStore implements store.EnrollmentStore
var _ store.EnrollmentStore = (*EnrollmentStore)(nil)

const registrations = "section_students"

// EnrollmentStore implements store.EnrollmentStore using GORM
type EnrollmentStore struct {
	db *gorm.DB
}

// NewEnrollmentStore creates a new EnrollmentStore
func NewEnrollmentStore(db *gorm.DB) *EnrollmentStore {
	return &EnrollmentStore{db: db}
}

// RegisteredSections returns the student's sections in id order
func (s *EnrollmentStore) RegisteredSections(ctx context.Context, studentID uint) ([]model.Section, error) {
	var student model.Student
	q := s.db.WithContext(ctx).
		Preload("Sections", orderByID).
		Preload("Sections.Course").
		Preload("Sections.Instructor").
		Preload("Sections.TimeTable", orderByID)
	if err := first(q, &student, "student", studentID); err != nil {
		return nil, err
	}
	if student.Sections == nil {
		return []model.Section{}, nil
	}
	return student.Sections, nil
}

// Grades returns the student's grades in id order
func (s *EnrollmentStore) Grades(ctx context.Context, studentID uint) ([]model.StudentGrade, error) {
	var student model.Student
	q := s.db.WithContext(ctx).
		Preload("Grades", orderByID).
		Preload("Grades.GradeType.Section.Course")
	if err := first(q, &student, "student", studentID); err != nil {
		return nil, err
	}
	if student.Grades == nil {
		return []model.StudentGrade{}, nil
	}
	return student.Grades, nil
}

// AvailableCourses filters the program curriculum by year, semester parity
// and the courses the student already has a section of
func (s *EnrollmentStore) AvailableCourses(ctx context.Context, studentID uint) ([]model.CurriculumCourse, error) {
	db := s.db.WithContext(ctx)

	var student model.Student
	if err := first(db.Preload("Sections"), &student, "student", studentID); err != nil {
		return nil, err
	}
	taken := make(map[uint]bool, len(student.Sections))
	for _, sec := range student.Sections {
		taken[sec.CourseID] = true
	}

	var entries []model.CurriculumCourse
	err := db.Where("program_id = ?", student.ProgramID).
		Order("id").
		Preload("Course.Sections", orderByID).
		Preload("Course.Sections.Instructor").
		Preload("Course.Sections.TimeTable", orderByID).
		Find(&entries).Error
	if err != nil {
		return nil, apperr.Store(err)
	}

	out := make([]model.CurriculumCourse, 0, len(entries))
	for _, cc := range entries {
		if cc.Offered(student.Year, student.Semester) && !taken[cc.CourseID] {
			out = append(out, cc)
		}
	}
	return out, nil
}

// Register adds the student to the section. The section row is locked for
// the capacity check where the database supports it.
func (s *EnrollmentStore) Register(ctx context.Context, studentID, sectionID uint) (*model.Section, error) {
	var section model.Section
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := first(tx, &model.Student{}, "student", studentID); err != nil {
			return err
		}
		if err := first(tx.Clauses(clause.Locking{Strength: "UPDATE"}), &section, "section", sectionID); err != nil {
			return err
		}

		registered, err := isRegistered(tx, studentID, sectionID)
		if err != nil {
			return err
		}
		if registered {
			return apperr.Validation("You are already registered with this section")
		}

		var count int64
		if err := tx.Table(registrations).Where("section_id = ?", sectionID).Count(&count).Error; err != nil {
			return apperr.Store(err)
		}
		if !section.HasRoom(int(count)) {
			return model.ErrSectionFull
		}

		row := map[string]interface{}{"section_id": sectionID, "student_id": studentID}
		if err := tx.Table(registrations).Create(row).Error; err != nil {
			return apperr.Store(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.section(ctx, sectionID)
}

// Unregister removes the student from the section
func (s *EnrollmentStore) Unregister(ctx context.Context, studentID, sectionID uint) (*model.Section, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := first(tx, &model.Student{}, "student", studentID); err != nil {
			return err
		}
		if err := first(tx, &model.Section{}, "section", sectionID); err != nil {
			return err
		}

		res := tx.Exec("DELETE FROM "+registrations+" WHERE section_id = ? AND student_id = ?", sectionID, studentID)
		if res.Error != nil {
			return apperr.Store(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Validation("You are not registered with this section")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.section(ctx, sectionID)
}

func (s *EnrollmentStore) section(ctx context.Context, id uint) (*model.Section, error) {
	var section model.Section
	q := s.db.WithContext(ctx).
		Preload("Course").
		Preload("Instructor").
		Preload("TimeTable", orderByID)
	if err := first(q, &section, "section", id); err != nil {
		return nil, err
	}
	return &section, nil
}

func isRegistered(tx *gorm.DB, studentID, sectionID uint) (bool, error) {
	var n int64
	err := tx.Table(registrations).
		Where("section_id = ? AND student_id = ?", sectionID, studentID).
		Count(&n).Error
	if err != nil {
		return false, apperr.Store(err)
	}
	return n > 0, nil
}
