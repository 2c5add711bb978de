package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is one email that actually went out. Engagement timestamps are
// first-occurrence only (set once, never overwritten); the counts keep
// incrementing for repeat events.
type Message struct {
	gorm.Model
	ContactID  uint `gorm:"not null;index" json:"contact_id"`
	CampaignID uint `gorm:"not null;index" json:"campaign_id"`
	SendID     uint `gorm:"not null;index" json:"send_id"`
	TemplateID uint `json:"template_id"`
	StepNumber int  `json:"step_number"`

	// ProviderMessageID is the delivery provider's identifier, the primary
	// key for matching inbound webhook events back to a message.
	ProviderMessageID string `gorm:"uniqueIndex" json:"provider_message_id"`

	// TrackingID is the id generated before the send and baked into the
	// tracking pixel and click URLs. It equals ProviderMessageID unless the
	// provider assigned its own id.
	TrackingID string `gorm:"uniqueIndex" json:"tracking_id"`

	Subject        string `json:"subject"`
	RecipientEmail string `gorm:"index" json:"recipient_email"`

	SentAt       time.Time  `gorm:"not null;index" json:"sent_at"`
	DeliveredAt  *time.Time `json:"delivered_at"`
	OpenedAt     *time.Time `json:"opened_at"`
	ClickedAt    *time.Time `json:"clicked_at"`
	RepliedAt    *time.Time `json:"replied_at"`
	BouncedAt    *time.Time `json:"bounced_at"`
	BounceType   string     `json:"bounce_type,omitempty"` // hard, soft
	ComplainedAt *time.Time `json:"complained_at"`

	OpenCount  int `gorm:"default:0" json:"open_count"`
	ClickCount int `gorm:"default:0" json:"click_count"`

	// Relations
	Contact Contact `json:"-"`
}

// Engaged reports whether the recipient interacted with the message at all.
func (m *Message) Engaged() bool {
	return m.OpenedAt != nil || m.ClickedAt != nil || m.RepliedAt != nil
}

// WebhookEvent is an append-only audit row for every provider event we
// accepted, kept even when the event was an idempotent repeat.
type WebhookEvent struct {
	gorm.Model
	MessageID  uint      `gorm:"not null;index" json:"message_id"`
	ContactID  uint      `gorm:"index" json:"contact_id"`
	EventType  string    `gorm:"not null;index" json:"event_type"`
	OccurredAt time.Time `gorm:"not null" json:"occurred_at"`
	Payload    string    `gorm:"type:text" json:"payload,omitempty"`
}
