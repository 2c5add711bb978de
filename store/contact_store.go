package store

import (
	"time"

	"gorm.io/gorm"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// ContactStore is the GORM-backed contact storage.
type ContactStore struct {
	DB *gorm.DB
}

// NewContactStore creates a contact store
func NewContactStore(db *gorm.DB) *ContactStore {
	return &ContactStore{DB: db}
}

func (s *ContactStore) GetContact(id uint) (*models.Contact, error) {
	var contact models.Contact
	if err := s.DB.First(&contact, id).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

func (s *ContactStore) GetContactByEmail(email string) (*models.Contact, error) {
	var contact models.Contact
	if err := s.DB.Where("email = ?", email).First(&contact).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

func (s *ContactStore) MarkBounced(id uint, bounceType string, at time.Time) error {
	return s.DB.Model(&models.Contact{}).Where("id = ? AND bounced_at IS NULL", id).
		Updates(map[string]interface{}{"bounced_at": at, "bounce_type": bounceType}).Error
}

func (s *ContactStore) MarkComplained(id uint, at time.Time) error {
	return s.DB.Model(&models.Contact{}).Where("id = ? AND complained_at IS NULL", id).
		Update("complained_at", at).Error
}

func (s *ContactStore) MarkResponded(id uint, at time.Time) error {
	return s.DB.Model(&models.Contact{}).Where("id = ? AND responded_at IS NULL", id).
		Update("responded_at", at).Error
}

func (s *ContactStore) MarkContacted(id uint, at time.Time) error {
	return s.DB.Model(&models.Contact{}).Where("id = ?", id).
		Update("last_contacted", at).Error
}

// AddOpen increments the open total atomically and returns the new value.
func (s *ContactStore) AddOpen(id uint) (int, error) {
	if err := s.DB.Model(&models.Contact{}).Where("id = ?", id).
		UpdateColumn("total_opens", gorm.Expr("total_opens + 1")).Error; err != nil {
		return 0, err
	}
	var contact models.Contact
	if err := s.DB.Select("total_opens").First(&contact, id).Error; err != nil {
		return 0, err
	}
	return contact.TotalOpens, nil
}

// FindEnrollable returns reachable contacts with no enrollment in the
// campaign yet.
func (s *ContactStore) FindEnrollable(campaignID uint, limit int) ([]models.Contact, error) {
	var contacts []models.Contact
	enrolled := s.DB.Model(&models.Enrollment{}).
		Select("contact_id").
		Where("campaign_id = ?", campaignID)
	q := s.DB.
		Where("is_active = ? AND unsubscribed = ?", true, false).
		Where("bounced_at IS NULL AND complained_at IS NULL").
		Where("id NOT IN (?)", enrolled).
		Order("id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&contacts).Error
	return contacts, err
}

func (s *ContactStore) AddClick(id uint) (int, error) {
	if err := s.DB.Model(&models.Contact{}).Where("id = ?", id).
		UpdateColumn("total_clicks", gorm.Expr("total_clicks + 1")).Error; err != nil {
		return 0, err
	}
	var contact models.Contact
	if err := s.DB.Select("total_clicks").First(&contact, id).Error; err != nil {
		return 0, err
	}
	return contact.TotalClicks, nil
}
