package models

import (
	"time"

	"gorm.io/gorm"
)

// Campaign lifecycle statuses
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
)

// Campaign represents one outreach effort running a sequence against
// enrolled contacts
type Campaign struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	Status     string     `gorm:"default:'draft'" json:"status"` // draft, active, paused, completed
	StartedAt  *time.Time `json:"started_at"`
	PausedAt   *time.Time `json:"paused_at"`
	DailyLimit int        `gorm:"default:50" json:"daily_limit"`

	// Sender identity stamped on outgoing mail
	SenderEmail string `json:"sender_email"`
	SenderName  string `json:"sender_name"`

	// The sequence definition enrollments are materialized from
	SequenceID uint `gorm:"not null;index" json:"sequence_id"`

	// HaltOnHardBounce also skips the remaining scheduled sends of an
	// enrollment when a hard bounce comes in. Off by default: historically
	// only a reply halts a sequence, a bounce only blocks future
	// enrollments.
	HaltOnHardBounce bool `gorm:"default:false" json:"halt_on_hard_bounce"`

	// AutoEnroll opts the campaign into the hourly sweep that enrolls new
	// matching contacts without an explicit API call.
	AutoEnroll bool `gorm:"default:false;index" json:"auto_enroll"`

	// Counters (denormalized for dashboards, derived not authoritative)
	TotalEnrolled int `gorm:"default:0" json:"total_enrolled"`
	SentCount     int `gorm:"default:0" json:"sent_count"`
	ReplyCount    int `gorm:"default:0" json:"reply_count"`
	BounceCount   int `gorm:"default:0" json:"bounce_count"`

	// Relations
	Sequence    SequenceDefinition `json:"-"`
	Enrollments []Enrollment       `gorm:"foreignKey:CampaignID" json:"enrollments,omitempty"`
}

// Accepting reports whether the campaign takes new enrollments.
func (c *Campaign) Accepting() bool {
	return c.Status == CampaignStatusActive || c.Status == CampaignStatusDraft
}

// ReplyRate returns replies as a percentage of sent emails.
func (c *Campaign) ReplyRate() float64 {
	if c.SentCount == 0 {
		return 0
	}
	return float64(c.ReplyCount) / float64(c.SentCount) * 100
}
