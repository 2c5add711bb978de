package sequence

import (
	"log"
	"time"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// Normalized engagement event types.
const (
	EventDelivered  = "delivered"
	EventOpened     = "opened"
	EventClicked    = "clicked"
	EventReplied    = "replied"
	EventBounced    = "bounced"
	EventComplained = "complained"
)

// Event is a normalized engagement event from a provider webhook, the
// tracking endpoints or the IMAP reply worker.
type Event struct {
	Type              string
	ProviderMessageID string
	RecipientEmail    string
	Timestamp         time.Time
	BounceType        string // hard, soft
	ClickedURL        string
	Payload           string
}

// Reactor applies engagement events: it updates message and contact state
// and halts enrollments on replies and, per campaign opt-in, hard bounces.
type Reactor struct {
	Contacts    ContactStore
	Campaigns   CampaignStore
	Enrollments EnrollmentStore
	Messages    MessageStore

	// OnOpenThreshold fires once when a contact's open total reaches
	// OpenThreshold. Zero disables it.
	OpenThreshold   int
	OnOpenThreshold func(contactID uint, totalOpens int)

	Logger *log.Logger
}

// NewReactor creates a reactor
func NewReactor(contacts ContactStore, campaigns CampaignStore, enrollments EnrollmentStore, messages MessageStore, logger *log.Logger) *Reactor {
	return &Reactor{
		Contacts:    contacts,
		Campaigns:   campaigns,
		Enrollments: enrollments,
		Messages:    messages,
		Logger:      logger,
	}
}

// ReactionResult reports how an event was applied.
type ReactionResult struct {
	MessageID uint   `json:"message_id"`
	ContactID uint   `json:"contact_id"`
	EventType string `json:"event_type"`
	// FirstOccurrence is false when the timestamp was already set and only
	// counters moved.
	FirstOccurrence bool `json:"first_occurrence"`
	// Halted is how many scheduled sends were cancelled by this event.
	Halted int `json:"halted"`
}

// ApplyEvent processes one engagement event. Events are idempotent on the
// first-occurrence timestamps; repeats still increment the open and click
// counters and are always written to the audit log.
func (r *Reactor) ApplyEvent(ev *Event) (*ReactionResult, error) {
	msg, err := r.findMessage(ev)
	if err != nil {
		return nil, err
	}

	at := ev.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}

	if err := r.Messages.CreateEvent(&models.WebhookEvent{
		MessageID:  msg.ID,
		ContactID:  msg.ContactID,
		EventType:  ev.Type,
		OccurredAt: at,
		Payload:    ev.Payload,
	}); err != nil && r.Logger != nil {
		r.Logger.Printf("failed to record audit event for message %d: %v", msg.ID, err)
	}

	res := &ReactionResult{MessageID: msg.ID, ContactID: msg.ContactID, EventType: ev.Type}

	switch ev.Type {
	case EventDelivered:
		res.FirstOccurrence, err = r.Messages.SetDeliveredAt(msg.ID, at)
		return res, err

	case EventOpened:
		first, err := r.Messages.SetOpenedAt(msg.ID, at)
		if err != nil {
			return nil, err
		}
		res.FirstOccurrence = first
		if err := r.Messages.AddOpenCount(msg.ID); err != nil {
			return nil, err
		}
		total, err := r.Contacts.AddOpen(msg.ContactID)
		if err != nil {
			return nil, err
		}
		if r.OpenThreshold > 0 && total == r.OpenThreshold && r.OnOpenThreshold != nil {
			r.OnOpenThreshold(msg.ContactID, total)
		}
		return res, nil

	case EventClicked:
		first, err := r.Messages.SetClickedAt(msg.ID, at)
		if err != nil {
			return nil, err
		}
		res.FirstOccurrence = first
		if err := r.Messages.AddClickCount(msg.ID); err != nil {
			return nil, err
		}
		if _, err := r.Contacts.AddClick(msg.ContactID); err != nil {
			return nil, err
		}
		return res, nil

	case EventReplied:
		return r.applyReply(msg, at, res)

	case EventBounced:
		return r.applyBounce(msg, ev.BounceType, at, res)

	case EventComplained:
		first, err := r.Messages.SetComplainedAt(msg.ID, at)
		if err != nil {
			return nil, err
		}
		res.FirstOccurrence = first
		if first {
			if err := r.Contacts.MarkComplained(msg.ContactID, at); err != nil {
				return nil, err
			}
		}
		return res, nil
	}

	if r.Logger != nil {
		r.Logger.Printf("ignoring unknown event type %q for message %d", ev.Type, msg.ID)
	}
	return res, nil
}

// applyReply halts the enrollment. First reply wins: the enrollment's
// replied_at is written with a conditional update, so concurrent replies
// bump the campaign counter exactly once.
func (r *Reactor) applyReply(msg *models.Message, at time.Time, res *ReactionResult) (*ReactionResult, error) {
	first, err := r.Messages.SetRepliedAt(msg.ID, at)
	if err != nil {
		return nil, err
	}
	res.FirstOccurrence = first

	enrollment, err := r.Enrollments.FindEnrollment(msg.ContactID, msg.CampaignID)
	if err != nil || enrollment == nil {
		// Message without a live enrollment (unenrolled since). Contact
		// state still updates.
		if err := r.Contacts.MarkResponded(msg.ContactID, at); err != nil {
			return nil, err
		}
		return res, nil
	}

	firstForEnrollment, err := r.Enrollments.SetRepliedAt(enrollment.ID, at)
	if err != nil {
		return nil, err
	}
	if firstForEnrollment {
		if err := r.Campaigns.AddReplies(msg.CampaignID, 1); err != nil && r.Logger != nil {
			r.Logger.Printf("failed to bump reply count for campaign %d: %v", msg.CampaignID, err)
		}
	}

	halted, err := r.Enrollments.SkipScheduled(enrollment.ID, models.SendStatusSkippedReplied)
	if err != nil {
		return nil, err
	}
	res.Halted = halted
	if halted > 0 && r.Logger != nil {
		r.Logger.Printf("reply from contact %d halted %d scheduled sends in campaign %d", msg.ContactID, halted, msg.CampaignID)
	}

	if err := r.Contacts.MarkResponded(msg.ContactID, at); err != nil {
		return nil, err
	}
	return res, nil
}

// applyBounce blocks the contact for future enrollments. Scheduled sends
// of the current enrollment are only cancelled when the campaign opted
// into halt-on-hard-bounce.
func (r *Reactor) applyBounce(msg *models.Message, bounceType string, at time.Time, res *ReactionResult) (*ReactionResult, error) {
	if bounceType == "" {
		bounceType = "hard"
	}

	first, err := r.Messages.SetBouncedAt(msg.ID, bounceType, at)
	if err != nil {
		return nil, err
	}
	res.FirstOccurrence = first

	if first {
		if err := r.Contacts.MarkBounced(msg.ContactID, bounceType, at); err != nil {
			return nil, err
		}
		if err := r.Campaigns.AddBounces(msg.CampaignID, 1); err != nil && r.Logger != nil {
			r.Logger.Printf("failed to bump bounce count for campaign %d: %v", msg.CampaignID, err)
		}
	}

	if bounceType != "hard" {
		return res, nil
	}

	campaign, err := r.Campaigns.GetCampaign(msg.CampaignID)
	if err != nil || !campaign.HaltOnHardBounce {
		return res, nil
	}

	enrollment, err := r.Enrollments.FindEnrollment(msg.ContactID, msg.CampaignID)
	if err != nil || enrollment == nil {
		return res, nil
	}
	halted, err := r.Enrollments.SkipScheduled(enrollment.ID, models.SendStatusSkippedBounced)
	if err != nil {
		return nil, err
	}
	res.Halted = halted
	if halted > 0 && r.Logger != nil {
		r.Logger.Printf("hard bounce from contact %d halted %d scheduled sends in campaign %d", msg.ContactID, halted, msg.CampaignID)
	}
	return res, nil
}

// findMessage locates the message an event refers to. The provider message
// id is authoritative; the by-email fallback exists for providers that
// strip it and picks the contact's most recent message.
func (r *Reactor) findMessage(ev *Event) (*models.Message, error) {
	if ev.ProviderMessageID != "" {
		msg, err := r.Messages.GetMessageByProviderID(ev.ProviderMessageID)
		if err == nil && msg != nil {
			return msg, nil
		}
		// Tracking pixel and click hits carry the pre-send tracking id,
		// which only matches the provider id for providers that keep ours.
		msg, err = r.Messages.GetMessageByTrackingID(ev.ProviderMessageID)
		if err == nil && msg != nil {
			return msg, nil
		}
	}

	if ev.RecipientEmail == "" {
		return nil, ErrMessageNotFound
	}
	contact, err := r.Contacts.GetContactByEmail(ev.RecipientEmail)
	if err != nil {
		return nil, ErrMessageNotFound
	}
	msg, err := r.Messages.LatestMessageForContact(contact.ID)
	if err != nil || msg == nil {
		return nil, ErrMessageNotFound
	}
	if r.Logger != nil {
		r.Logger.Printf("matched %s event by recipient email %s (deprecated fallback), message %d", ev.Type, ev.RecipientEmail, msg.ID)
	}
	return msg, nil
}
