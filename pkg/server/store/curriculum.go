package store

import (
	"context"

	"github.com/doodlesbykumbi/registrar/pkg/model"
)

// CurriculumStore abstracts curriculum maintenance
type CurriculumStore interface {
	// ReplaceCurriculum swaps a program's curriculum for entries and returns
	// the stored entries with their courses
	ReplaceCurriculum(ctx context.Context, programID uint, entries []model.CurriculumCourse) ([]model.CurriculumCourse, error)
}
