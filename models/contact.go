package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Classification labels assigned by the external risk classifier and used
// to pick a template segment.
const (
	ClassificationHighRisk     = "high-risk"
	ClassificationLowRisk      = "low-risk"
	ClassificationUnclassified = "unclassified"
)

// Contact represents a single prospect
type Contact struct {
	gorm.Model
	Email     string `gorm:"not null;uniqueIndex" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `gorm:"index" json:"company"`
	Domain    string `gorm:"index" json:"domain"`
	Title     string `json:"title"`
	Industry  string `json:"industry"`

	// Classification snapshot from the last classifier lookup
	Classification string `gorm:"default:'unclassified';index" json:"classification"`

	// Reachability
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	Unsubscribed   bool       `gorm:"default:false" json:"unsubscribed"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at"`
	BouncedAt      *time.Time `json:"bounced_at"`
	BounceType     string     `json:"bounce_type"` // hard, soft
	ComplainedAt   *time.Time `json:"complained_at"`

	// Engagement aggregates (updated by webhooks)
	TotalOpens    int        `gorm:"default:0" json:"total_opens"`
	TotalClicks   int        `gorm:"default:0" json:"total_clicks"`
	LastContacted *time.Time `json:"last_contacted"`
	RespondedAt   *time.Time `json:"responded_at"`

	// Relations
	Enrollments []Enrollment `gorm:"foreignKey:ContactID" json:"enrollments,omitempty"`
	Messages    []Message    `gorm:"foreignKey:ContactID" json:"messages,omitempty"`
}

// Reachable reports whether new enrollments may target this contact. A
// bounced, complained or unsubscribed address stops future enrollments but
// never cancels sends already scheduled (that is the reply event's job).
func (c *Contact) Reachable() bool {
	return c.IsActive && !c.Unsubscribed && c.BouncedAt == nil && c.ComplainedAt == nil
}

// EmailDomain returns the domain part of the contact email, falling back to
// the stored Domain field.
func (c *Contact) EmailDomain() string {
	if at := strings.LastIndex(c.Email, "@"); at >= 0 && at < len(c.Email)-1 {
		return c.Email[at+1:]
	}
	return c.Domain
}
