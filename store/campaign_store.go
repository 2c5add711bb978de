package store

import (
	"gorm.io/gorm"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// CampaignStore is the GORM-backed campaign storage.
type CampaignStore struct {
	DB *gorm.DB
}

// NewCampaignStore creates a campaign store
func NewCampaignStore(db *gorm.DB) *CampaignStore {
	return &CampaignStore{DB: db}
}

func (s *CampaignStore) GetCampaign(id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.DB.First(&campaign, id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (s *CampaignStore) AddEnrolled(id uint, n int) error {
	return s.bump(id, "total_enrolled", n)
}

func (s *CampaignStore) AddSent(id uint, n int) error {
	return s.bump(id, "sent_count", n)
}

func (s *CampaignStore) AddReplies(id uint, n int) error {
	return s.bump(id, "reply_count", n)
}

func (s *CampaignStore) AddBounces(id uint, n int) error {
	return s.bump(id, "bounce_count", n)
}

func (s *CampaignStore) FindAutoEnrollCampaigns() ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := s.DB.
		Where("auto_enroll = ? AND status IN ?", true,
			[]string{models.CampaignStatusActive, models.CampaignStatusDraft}).
		Find(&campaigns).Error
	return campaigns, err
}

func (s *CampaignStore) bump(id uint, column string, n int) error {
	return s.DB.Model(&models.Campaign{}).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", n)).Error
}
