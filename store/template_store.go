package store

import (
	"gorm.io/gorm"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// TemplateStore is the GORM-backed template storage.
type TemplateStore struct {
	DB *gorm.DB
}

// NewTemplateStore creates a template store
func NewTemplateStore(db *gorm.DB) *TemplateStore {
	return &TemplateStore{DB: db}
}

func (s *TemplateStore) GetTemplate(id uint) (*models.Template, error) {
	var tpl models.Template
	if err := s.DB.First(&tpl, id).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (s *TemplateStore) FindActive(segment string, stepNumber int) ([]models.Template, error) {
	var templates []models.Template
	err := s.DB.Where("segment = ? AND step_number = ? AND active = ?", segment, stepNumber, true).
		Order("id ASC").Find(&templates).Error
	return templates, err
}

func (s *TemplateStore) FindAnyActive(stepNumber int) ([]models.Template, error) {
	var templates []models.Template
	err := s.DB.Where("step_number = ? AND active = ?", stepNumber, true).
		Order("id ASC").Find(&templates).Error
	return templates, err
}

func (s *TemplateStore) AddUsage(id uint) error {
	return s.DB.Model(&models.Template{}).Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}
