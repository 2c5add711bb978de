package sequence

import (
	"time"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// Storage interfaces consumed by the sequence engine. The store package
// provides the GORM implementations; tests swap in in-memory ones.

// ContactStore loads contacts and applies engagement updates.
type ContactStore interface {
	GetContact(id uint) (*models.Contact, error)
	GetContactByEmail(email string) (*models.Contact, error)
	MarkBounced(id uint, bounceType string, at time.Time) error
	MarkComplained(id uint, at time.Time) error
	MarkResponded(id uint, at time.Time) error
	MarkContacted(id uint, at time.Time) error
	// AddOpen increments the contact's open total and returns the new total.
	AddOpen(id uint) (int, error)
	AddClick(id uint) (int, error)
	// FindEnrollable returns reachable contacts not yet enrolled in the
	// campaign, oldest first. limit <= 0 means no cap.
	FindEnrollable(campaignID uint, limit int) ([]models.Contact, error)
}

// CampaignStore loads campaigns and bumps their denormalized counters.
type CampaignStore interface {
	GetCampaign(id uint) (*models.Campaign, error)
	AddEnrolled(id uint, n int) error
	AddSent(id uint, n int) error
	AddReplies(id uint, n int) error
	AddBounces(id uint, n int) error
	// FindAutoEnrollCampaigns returns campaigns that opted into automatic
	// enrollment and still accept new contacts.
	FindAutoEnrollCampaigns() ([]models.Campaign, error)
}

// SequenceStore loads sequence definitions with steps ordered by
// step number ascending.
type SequenceStore interface {
	GetDefinition(id uint) (*models.SequenceDefinition, error)
}

// TemplateStore looks up active templates for a (segment, step) slot.
type TemplateStore interface {
	GetTemplate(id uint) (*models.Template, error)
	// FindActive returns all active variants for the slot.
	FindActive(segment string, stepNumber int) ([]models.Template, error)
	// FindAnyActive returns all active templates for the step regardless of
	// segment, ordered by id ascending.
	FindAnyActive(stepNumber int) ([]models.Template, error)
	AddUsage(id uint) error
}

// EnrollmentStore manages enrollments and their scheduled sends.
type EnrollmentStore interface {
	GetEnrollment(id uint) (*models.Enrollment, error)
	FindEnrollment(contactID, campaignID uint) (*models.Enrollment, error)
	// CreateEnrollment writes the enrollment and its sends in one
	// transaction. Sends that collide with the (contact, campaign, step)
	// unique index are dropped silently; the returned count is how many
	// sends were actually created. A duplicate enrollment returns
	// ErrAlreadyEnrolled.
	CreateEnrollment(e *models.Enrollment, sends []models.Send) (int, error)
	DeleteEnrollment(id uint) error

	GetSend(id uint) (*models.Send, error)
	// FindDueSends returns scheduled sends with scheduled_at <= asOf,
	// oldest first.
	FindDueSends(asOf time.Time, limit int) ([]models.Send, error)
	FindScheduledSends(enrollmentID uint) ([]models.Send, error)
	MaxStepNumber(enrollmentID uint) (int, error)

	// ClaimSend flips scheduled -> processing with a conditional update and
	// reports whether this caller won the claim.
	ClaimSend(id uint, at time.Time) (bool, error)
	// ReleaseSend puts a processing send back to scheduled.
	ReleaseSend(id uint) error
	MarkSendSent(id uint, messageID uint, at time.Time) error
	MarkSendFailed(id uint, reason string) error
	MarkSendSkipped(id uint, status models.SendStatus) error
	// SkipScheduled moves every still-scheduled send of the enrollment to
	// the given skipped status and returns how many rows changed.
	SkipScheduled(enrollmentID uint, status models.SendStatus) (int, error)
	// ReclaimStuck returns processing sends claimed before cutoff to
	// scheduled and reports how many were reclaimed.
	ReclaimStuck(cutoff time.Time) (int, error)

	// SetRepliedAt records the reply only if no reply is recorded yet and
	// reports whether this call was the first.
	SetRepliedAt(enrollmentID uint, at time.Time) (bool, error)
	// SetCurrentStep raises current_step, never lowers it.
	SetCurrentStep(enrollmentID uint, step int) error
	SetCompletedAt(enrollmentID uint, at time.Time) error
}

// MessageStore manages sent messages and their engagement state.
type MessageStore interface {
	CreateMessage(m *models.Message) error
	GetMessage(id uint) (*models.Message, error)
	GetMessageByProviderID(providerMessageID string) (*models.Message, error)
	// GetMessageByTrackingID resolves the id baked into tracking URLs, which
	// differs from the provider id when the provider assigns its own.
	GetMessageByTrackingID(trackingID string) (*models.Message, error)
	// LatestMessageForContact returns the contact's most recent message.
	// Only used as a fallback when an event carries no provider message id.
	LatestMessageForContact(contactID uint) (*models.Message, error)

	// The Set* methods write the timestamp only if it is still null and
	// report whether they did. Repeat events are detected through them.
	SetDeliveredAt(id uint, at time.Time) (bool, error)
	SetOpenedAt(id uint, at time.Time) (bool, error)
	SetClickedAt(id uint, at time.Time) (bool, error)
	SetRepliedAt(id uint, at time.Time) (bool, error)
	SetBouncedAt(id uint, bounceType string, at time.Time) (bool, error)
	SetComplainedAt(id uint, at time.Time) (bool, error)

	AddOpenCount(id uint) error
	AddClickCount(id uint) error

	CreateEvent(ev *models.WebhookEvent) error
}

// DeliveryProvider sends one email and returns the provider's message id.
// Implementations may return an empty id, in which case the locally
// generated one is kept.
type DeliveryProvider interface {
	Send(to, subject, htmlBody, fromEmail, fromName, messageID string) (string, error)
}

// Classifier labels a contact. Errors degrade to the stored classification
// rather than blocking enrollment.
type Classifier interface {
	Classify(contact *models.Contact) (label string, confidence float64, err error)
}

// SendBudget enforces a per-campaign daily send cap.
type SendBudget interface {
	// Allow reports whether one more send fits under today's limit and
	// consumes a slot when it does.
	Allow(campaignID uint, limit int) (bool, error)
}
