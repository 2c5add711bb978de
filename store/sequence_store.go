package store

import (
	"gorm.io/gorm"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// SequenceStore is the GORM-backed sequence definition storage.
type SequenceStore struct {
	DB *gorm.DB
}

// NewSequenceStore creates a sequence store
func NewSequenceStore(db *gorm.DB) *SequenceStore {
	return &SequenceStore{DB: db}
}

// GetDefinition loads a definition with its steps ordered by step number.
func (s *SequenceStore) GetDefinition(id uint) (*models.SequenceDefinition, error) {
	var def models.SequenceDefinition
	err := s.DB.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_number ASC")
	}).First(&def, id).Error
	if err != nil {
		return nil, err
	}
	return &def, nil
}
