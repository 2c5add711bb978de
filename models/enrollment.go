package models

import (
	"time"

	"gorm.io/gorm"
)

// Derived enrollment states reported by the API. Not stored: computed from
// the timestamps below so they can never drift out of sync.
const (
	EnrollmentStateActive    = "active"
	EnrollmentStateReplied   = "replied"
	EnrollmentStateCompleted = "completed"
)

// Enrollment ties one contact to one campaign's sequence. The composite
// unique index makes double-enrollment impossible at the database level
// regardless of races in the application.
type Enrollment struct {
	gorm.Model
	ContactID  uint `gorm:"not null;uniqueIndex:idx_enrollment_contact_campaign" json:"contact_id"`
	CampaignID uint `gorm:"not null;uniqueIndex:idx_enrollment_contact_campaign;index" json:"campaign_id"`

	// Classification snapshot taken at enrollment time. Re-classifying the
	// contact later never changes which templates were picked.
	Classification string `gorm:"default:'unclassified'" json:"classification"`

	// CurrentStep is the highest step number already sent, -1 before the
	// first send goes out.
	CurrentStep int `gorm:"default:-1" json:"current_step"`

	RepliedAt           *time.Time `json:"replied_at"`
	SequenceCompletedAt *time.Time `json:"sequence_completed_at"`

	// Relations
	Contact  Contact  `json:"-"`
	Campaign Campaign `json:"-"`
	Sends    []Send   `gorm:"foreignKey:EnrollmentID" json:"sends,omitempty"`
}

// State derives the enrollment lifecycle state. A reply wins over
// completion: once the contact answers, the enrollment is done no matter
// how many steps remained.
func (e *Enrollment) State() string {
	if e.RepliedAt != nil {
		return EnrollmentStateReplied
	}
	if e.SequenceCompletedAt != nil {
		return EnrollmentStateCompleted
	}
	return EnrollmentStateActive
}
