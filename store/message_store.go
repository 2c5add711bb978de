package store

import (
	"time"

	"gorm.io/gorm"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// MessageStore is the GORM-backed message and webhook-event storage.
type MessageStore struct {
	DB *gorm.DB
}

// NewMessageStore creates a message store
func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{DB: db}
}

func (s *MessageStore) CreateMessage(m *models.Message) error {
	return s.DB.Create(m).Error
}

func (s *MessageStore) GetMessage(id uint) (*models.Message, error) {
	var msg models.Message
	if err := s.DB.First(&msg, id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *MessageStore) GetMessageByProviderID(providerMessageID string) (*models.Message, error) {
	var msg models.Message
	if err := s.DB.Where("provider_message_id = ?", providerMessageID).First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *MessageStore) GetMessageByTrackingID(trackingID string) (*models.Message, error) {
	var msg models.Message
	if err := s.DB.Where("tracking_id = ?", trackingID).First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *MessageStore) LatestMessageForContact(contactID uint) (*models.Message, error) {
	var msg models.Message
	err := s.DB.Where("contact_id = ?", contactID).Order("sent_at DESC").First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *MessageStore) SetDeliveredAt(id uint, at time.Time) (bool, error) {
	return s.setIfNull(id, "delivered_at", at)
}

func (s *MessageStore) SetOpenedAt(id uint, at time.Time) (bool, error) {
	return s.setIfNull(id, "opened_at", at)
}

func (s *MessageStore) SetClickedAt(id uint, at time.Time) (bool, error) {
	return s.setIfNull(id, "clicked_at", at)
}

func (s *MessageStore) SetRepliedAt(id uint, at time.Time) (bool, error) {
	return s.setIfNull(id, "replied_at", at)
}

func (s *MessageStore) SetBouncedAt(id uint, bounceType string, at time.Time) (bool, error) {
	res := s.DB.Model(&models.Message{}).
		Where("id = ? AND bounced_at IS NULL", id).
		Updates(map[string]interface{}{"bounced_at": at, "bounce_type": bounceType})
	return res.RowsAffected == 1, res.Error
}

func (s *MessageStore) SetComplainedAt(id uint, at time.Time) (bool, error) {
	return s.setIfNull(id, "complained_at", at)
}

// setIfNull writes the timestamp only when the column is still null and
// reports whether it did. This is what makes repeat webhook deliveries
// idempotent on first-occurrence timestamps.
func (s *MessageStore) setIfNull(id uint, column string, at time.Time) (bool, error) {
	res := s.DB.Model(&models.Message{}).
		Where("id = ? AND "+column+" IS NULL", id).
		Update(column, at)
	return res.RowsAffected == 1, res.Error
}

func (s *MessageStore) AddOpenCount(id uint) error {
	return s.DB.Model(&models.Message{}).Where("id = ?", id).
		UpdateColumn("open_count", gorm.Expr("open_count + 1")).Error
}

func (s *MessageStore) AddClickCount(id uint) error {
	return s.DB.Model(&models.Message{}).Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + 1")).Error
}

func (s *MessageStore) CreateEvent(ev *models.WebhookEvent) error {
	return s.DB.Create(ev).Error
}
