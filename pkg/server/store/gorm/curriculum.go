package gorm

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/registrar/pkg/apperr"
	"github.com/doodlesbykumbi/registrar/pkg/model"
	"github.com/doodlesbykumbi/registrar/pkg/server/store"
)

// Ensure CurriculumStore implements store.CurriculumStore
var _ store.CurriculumStore = (*CurriculumStore)(nil)

// CurriculumStore implements store.CurriculumStore using GORM
type CurriculumStore struct {
	db *gorm.DB
}

// NewCurriculumStore creates a new CurriculumStore
func NewCurriculumStore(db *gorm.DB) *CurriculumStore {
	return &CurriculumStore{db: db}
}

// ReplaceCurriculum deletes the program's entries and inserts entries in
// their place, all in one transaction
func (s *CurriculumStore) ReplaceCurriculum(ctx context.Context, programID uint, entries []model.CurriculumCourse) ([]model.CurriculumCourse, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := first(tx, &model.Program{}, "program", programID); err != nil {
			return err
		}
		for i := range entries {
			if err := entries[i].BindTo(ctx, tx, programID); err != nil {
				return err
			}
		}
		if err := tx.Where("program_id = ?", programID).Delete(&model.CurriculumCourse{}).Error; err != nil {
			return apperr.Store(err)
		}
		if len(entries) == 0 {
			return nil
		}
		if err := tx.Omit(clause.Associations).Create(&entries).Error; err != nil {
			return apperr.Store(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.CurriculumCourse, 0, len(entries))
	err = s.db.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("id").
		Preload("Course").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}
