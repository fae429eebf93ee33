package model

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
	"github.com/doodlesbykumbi/registrar/pkg/entity"
)

type Section struct {
	Base
	Number       int         `json:"number" validate:"gte=0"`
	Capacity     int         `json:"capacity" validate:"gte=0"`
	CourseID     uint        `gorm:"not null;index" json:"courseId"`
	Course       *Course     `json:"course,omitempty" validate:"-"`
	InstructorID uint        `gorm:"not null;index" json:"instructorId"`
	Instructor   *Instructor `json:"instructor,omitempty" validate:"-"`
	GradeTypes   []GradeType `json:"gradeTypes,omitempty" validate:"-"`
	Students     []Student   `gorm:"many2many:section_students" json:"students,omitempty" validate:"-"`
	TimeTable    []TimeIndex `json:"timeTable,omitempty" validate:"-"`
}

func (Section) TableName() string {
	return "sections"
}

func (s *Section) Bind(ctx context.Context, tx *gorm.DB) error {
	course, err := entity.Resolve[Course](ctx, tx, "course", entity.RefID(s.CourseID, s.Course))
	if err != nil {
		return err
	}
	instructor, err := entity.Resolve[Instructor](ctx, tx, "instructor", entity.RefID(s.InstructorID, s.Instructor))
	if err != nil {
		return err
	}
	s.CourseID, s.Course = course.ID, course
	s.InstructorID, s.Instructor = instructor.ID, instructor
	return nil
}

// Edit copies the scalars and references of from. A nil time table in from
// leaves the stored one untouched; any other value replaces it.
func (s *Section) Edit(ctx context.Context, tx *gorm.DB, from *Section) error {
	s.Number = from.Number
	s.Capacity = from.Capacity
	s.CourseID, s.Course = from.CourseID, from.Course
	s.InstructorID, s.Instructor = from.InstructorID, from.Instructor
	s.TimeTable = from.TimeTable
	return s.Bind(ctx, tx)
}

// Attach stores the section's time table, replacing any previous slots.
func (s *Section) Attach(ctx context.Context, tx *gorm.DB) error {
	if s.TimeTable == nil {
		return nil
	}
	if err := tx.WithContext(ctx).Where("section_id = ?", s.ID).Delete(&TimeIndex{}).Error; err != nil {
		return err
	}
	if len(s.TimeTable) == 0 {
		return nil
	}
	for i := range s.TimeTable {
		if err := s.TimeTable[i].check(); err != nil {
			return err
		}
		s.TimeTable[i].ID = 0
		s.TimeTable[i].SectionID = s.ID
		s.TimeTable[i].Section = nil
	}
	return tx.WithContext(ctx).Create(&s.TimeTable).Error
}

// Unlink drops registrations, the time table and the grading scheme of the
// section along with every grade given under it.
func (s *Section) Unlink(ctx context.Context, tx *gorm.DB) error {
	tx = tx.WithContext(ctx)
	if err := tx.Model(s).Association("Students").Clear(); err != nil {
		return err
	}
	if err := tx.Where("section_id = ?", s.ID).Delete(&TimeIndex{}).Error; err != nil {
		return err
	}
	gradeTypes := tx.Model(&GradeType{}).Select("id").Where("section_id = ?", s.ID)
	if err := tx.Where("grade_type_id IN (?)", gradeTypes).Delete(&StudentGrade{}).Error; err != nil {
		return err
	}
	return tx.Where("section_id = ?", s.ID).Delete(&GradeType{}).Error
}

// HasRoom reports whether another student can register, given the current
// number of registrations.
func (s *Section) HasRoom(registered int) bool {
	return registered < s.Capacity
}

// ErrSectionFull is returned when registering with a section at capacity.
var ErrSectionFull = apperr.Validation("Section is full")
