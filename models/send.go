package models

import (
	"time"

	"gorm.io/gorm"
)

// SendStatus is the lifecycle state of one scheduled email.
type SendStatus string

// Send statuses. Scheduled rows are claimed into processing with a
// conditional update, then land in exactly one terminal state.
const (
	SendStatusScheduled      SendStatus = "scheduled"
	SendStatusProcessing     SendStatus = "processing"
	SendStatusSent           SendStatus = "sent"
	SendStatusFailed         SendStatus = "failed"
	SendStatusSkippedReplied SendStatus = "skipped_replied"
	SendStatusSkippedBounced SendStatus = "skipped_bounced"
)

// Terminal reports whether the status can never change again.
func (s SendStatus) Terminal() bool {
	switch s {
	case SendStatusSent, SendStatusFailed, SendStatusSkippedReplied, SendStatusSkippedBounced:
		return true
	}
	return false
}

// Skipped reports whether the send was cancelled before dispatch.
func (s SendStatus) Skipped() bool {
	return s == SendStatusSkippedReplied || s == SendStatusSkippedBounced
}

// Send is one scheduled email of an enrollment, materialized up front when
// the contact enrolls. The composite unique index guarantees at most one
// send per (contact, campaign, step) even if two schedulers race.
type Send struct {
	gorm.Model
	EnrollmentID uint `gorm:"not null;index" json:"enrollment_id"`
	ContactID    uint `gorm:"not null;uniqueIndex:idx_send_contact_campaign_step" json:"contact_id"`
	CampaignID   uint `gorm:"not null;uniqueIndex:idx_send_contact_campaign_step" json:"campaign_id"`
	StepNumber   int  `gorm:"not null;uniqueIndex:idx_send_contact_campaign_step" json:"step_number"`

	TemplateID uint `gorm:"not null" json:"template_id"`

	Status      SendStatus `gorm:"type:varchar(20);default:'scheduled';index" json:"status"`
	ScheduledAt time.Time  `gorm:"not null;index" json:"scheduled_at"`
	ClaimedAt   *time.Time `json:"claimed_at"`
	SentAt      *time.Time `json:"sent_at"`

	// MessageID links to the Message row once the email actually went out.
	MessageID    *uint  `json:"message_id"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Relations
	Enrollment Enrollment `json:"-"`
	Template   Template   `json:"-"`
}

// Due reports whether the send is ready for dispatch at the given time.
func (s *Send) Due(asOf time.Time) bool {
	return s.Status == SendStatusScheduled && !s.ScheduledAt.After(asOf)
}
