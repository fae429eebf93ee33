package gorm

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
	"github.com/doodlesbykumbi/registrar/pkg/entity"
	"github.com/doodlesbykumbi/registrar/pkg/model"
	"github.com/doodlesbykumbi/registrar/pkg/server/store"
)

// Ensure TeachingStore implements store.TeachingStore
var _ store.TeachingStore = (*TeachingStore)(nil)

// TeachingStore implements store.TeachingStore using GORM
type TeachingStore struct {
	db *gorm.DB
}

// NewTeachingStore creates a new TeachingStore
func NewTeachingStore(db *gorm.DB) *TeachingStore {
	return &TeachingStore{db: db}
}

// Sections returns the instructor's sections in id order
func (s *TeachingStore) Sections(ctx context.Context, instructorID uint) ([]model.Section, error) {
	var instructor model.Instructor
	q := s.db.WithContext(ctx).
		Preload("Sections", orderByID).
		Preload("Sections.Course").
		Preload("Sections.TimeTable", orderByID)
	if err := first(q, &instructor, "instructor", instructorID); err != nil {
		return nil, err
	}
	if instructor.Sections == nil {
		return []model.Section{}, nil
	}
	return instructor.Sections, nil
}

// SectionStudents returns the registered students with only the grades given
// in this section
func (s *TeachingStore) SectionStudents(ctx context.Context, instructorID, sectionID uint) ([]model.Student, error) {
	db := s.db.WithContext(ctx)
	if _, err := ownSection(db, instructorID, sectionID); err != nil {
		return nil, err
	}

	gradeTypes := db.Model(&model.GradeType{}).Select("id").Where("section_id = ?", sectionID)
	var section model.Section
	q := db.
		Preload("Students", orderByID).
		Preload("Students.Program").
		Preload("Students.Grades", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("grade_type_id IN (?)", gradeTypes).Order("id")
		}).
		Preload("Students.Grades.GradeType")
	if err := first(q, &section, "section", sectionID); err != nil {
		return nil, err
	}
	if section.Students == nil {
		return []model.Student{}, nil
	}
	return section.Students, nil
}

// GradeTypes returns the grading scheme of the section in id order
func (s *TeachingStore) GradeTypes(ctx context.Context, instructorID, sectionID uint) ([]model.GradeType, error) {
	db := s.db.WithContext(ctx)
	if _, err := ownSection(db, instructorID, sectionID); err != nil {
		return nil, err
	}
	out := make([]model.GradeType, 0)
	if err := db.Where("section_id = ?", sectionID).Order("id").Find(&out).Error; err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

// SetGradeTypes renames and reweights the grade types that carry an id and
// adds the rest to the section
func (s *TeachingStore) SetGradeTypes(ctx context.Context, instructorID, sectionID uint, types []model.GradeType) (*model.Section, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownSection(tx, instructorID, sectionID); err != nil {
			return err
		}
		for _, gt := range types {
			if gt.ID == 0 {
				added := model.GradeType{Name: gt.Name, Value: gt.Value, SectionID: sectionID}
				if err := tx.Omit(clause.Associations).Create(&added).Error; err != nil {
					return apperr.Store(err)
				}
				continue
			}
			var existing model.GradeType
			if err := first(tx.Where("section_id = ?", sectionID), &existing, "grade type", gt.ID); err != nil {
				return err
			}
			existing.Name, existing.Value = gt.Name, gt.Value
			if err := tx.Omit(clause.Associations).Save(&existing).Error; err != nil {
				return apperr.Store(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var section model.Section
	q := s.db.WithContext(ctx).Preload("GradeTypes", orderByID)
	if err := first(q, &section, "section", sectionID); err != nil {
		return nil, err
	}
	return &section, nil
}

// StudentGrades returns the student's grades given in any of the
// instructor's sections
func (s *TeachingStore) StudentGrades(ctx context.Context, instructorID, studentID uint) ([]model.StudentGrade, error) {
	db := s.db.WithContext(ctx)
	if err := first(db, &model.Student{}, "student", studentID); err != nil {
		return nil, err
	}

	out := make([]model.StudentGrade, 0)
	err := db.Where("student_id = ? AND grade_type_id IN (?)", studentID, taughtGradeTypes(db, instructorID)).
		Order("id").
		Preload("GradeType").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

// SetGrade records a score. A grade with an id must already belong to the
// student; one without is added, provided the student is registered with the
// grade type's section.
func (s *TeachingStore) SetGrade(ctx context.Context, instructorID, studentID uint, grade model.StudentGrade) (*model.StudentGrade, error) {
	var saved model.StudentGrade
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := first(tx, &model.Student{}, "student", studentID); err != nil {
			return err
		}
		gradeType, err := entity.Resolve[model.GradeType](ctx, tx, "grade type", entity.RefID(grade.GradeTypeID, grade.GradeType))
		if err != nil {
			return err
		}
		if _, err := ownSection(tx, instructorID, gradeType.SectionID); err != nil {
			return err
		}

		if grade.ID != 0 {
			if err := first(tx.Where("student_id = ?", studentID), &saved, "grade", grade.ID); err != nil {
				return err
			}
			saved.Score = grade.Score
			saved.GradeTypeID = gradeType.ID
			if err := tx.Omit(clause.Associations).Save(&saved).Error; err != nil {
				return apperr.Store(err)
			}
			return nil
		}

		registered, err := isRegistered(tx, studentID, gradeType.SectionID)
		if err != nil {
			return err
		}
		if !registered {
			return apperr.Validation("student %d is not registered with section %d", studentID, gradeType.SectionID)
		}
		saved = model.StudentGrade{Score: grade.Score, GradeTypeID: gradeType.ID, StudentID: studentID}
		if err := tx.Omit(clause.Associations).Create(&saved).Error; err != nil {
			return apperr.Store(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := first(s.db.WithContext(ctx).Preload("GradeType"), &saved, "grade", saved.ID); err != nil {
		return nil, err
	}
	return &saved, nil
}

// ownSection loads the section and hides it from every instructor but its
// own.
func ownSection(tx *gorm.DB, instructorID, sectionID uint) (*model.Section, error) {
	var section model.Section
	if err := first(tx, &section, "section", sectionID); err != nil {
		return nil, err
	}
	if section.InstructorID != instructorID {
		return nil, apperr.NotFound("section %d not found", sectionID)
	}
	return &section, nil
}

func taughtGradeTypes(db *gorm.DB, instructorID uint) *gorm.DB {
	sections := db.Model(&model.Section{}).Select("id").Where("instructor_id = ?", instructorID)
	return db.Model(&model.GradeType{}).Select("id").Where("section_id IN (?)", sections)
}
