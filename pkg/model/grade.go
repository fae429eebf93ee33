package model

import (
	"github.com/doodlesbykumbi/registrar/pkg/apperr"
)

// GradeType is one graded component of a section, such as a midterm, with
// its weight.
type GradeType struct {
	Base
	Name      string   `gorm:"not null" json:"name" validate:"required"`
	Value     int      `json:"value" validate:"gte=0"`
	SectionID uint     `gorm:"not null;index" json:"sectionId"`
	Section   *Section `json:"section,omitempty" validate:"-"`
}

func (GradeType) TableName() string {
	return "grade_types"
}

// StudentGrade is a student's score for one grade type.
type StudentGrade struct {
	Base
	Score       int        `json:"score"`
	GradeTypeID uint       `gorm:"not null;index" json:"gradeTypeId"`
	GradeType   *GradeType `json:"gradeType,omitempty" validate:"-"`
	StudentID   uint       `gorm:"not null;index" json:"studentId"`
	Student     *Student   `json:"student,omitempty" validate:"-"`
}

func (StudentGrade) TableName() string {
	return "student_grades"
}

// TimeIndex is a weekly slot of a section: a day of the week and a start
// and end hour.
type TimeIndex struct {
	Base
	Day       int      `json:"day" validate:"gte=0,lte=6"`
	StartTime int      `json:"startTime" validate:"gte=0"`
	EndTime   int      `json:"endTime" validate:"gte=0"`
	SectionID uint     `gorm:"not null;index" json:"sectionId"`
	Section   *Section `json:"section,omitempty" validate:"-"`
}

func (TimeIndex) TableName() string {
	return "time_indices"
}

func (t *TimeIndex) check() error {
	if t.Day < 0 || t.Day > 6 {
		return apperr.Validation("time table day %d is out of range", t.Day)
	}
	if t.EndTime < t.StartTime {
		return apperr.Validation("time table slot ends before it starts")
	}
	return nil
}
