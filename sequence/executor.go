package sequence

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// Executor dispatches a single claimed send through the delivery provider
// and records the resulting message.
type Executor struct {
	Contacts    ContactStore
	Campaigns   CampaignStore
	Enrollments EnrollmentStore
	Messages    MessageStore
	Templates   TemplateStore
	Delivery    DeliveryProvider
	Budget      SendBudget // optional
	// Decorate rewrites the outgoing HTML (tracking pixel, link rewriting)
	// keyed by the message id. Nil leaves the body untouched.
	Decorate func(html, messageID string) string
	Logger   *log.Logger
	Now      func() time.Time
}

// NewExecutor creates an executor. budget and decorate may be nil.
func NewExecutor(contacts ContactStore, campaigns CampaignStore, enrollments EnrollmentStore, messages MessageStore, templates TemplateStore, delivery DeliveryProvider, budget SendBudget, decorate func(string, string) string, logger *log.Logger) *Executor {
	return &Executor{
		Contacts:    contacts,
		Campaigns:   campaigns,
		Enrollments: enrollments,
		Messages:    messages,
		Templates:   templates,
		Delivery:    delivery,
		Budget:      budget,
		Decorate:    decorate,
		Logger:      logger,
		Now:         time.Now,
	}
}

// DispatchResult reports what happened to one send.
type DispatchResult struct {
	SendID  uint              `json:"send_id"`
	Status  models.SendStatus `json:"status"`
	Skipped bool              `json:"skipped"`
	Reason  string            `json:"reason,omitempty"`
}

// Dispatch sends one scheduled email. The claim is a conditional update so
// two dispatchers racing on the same row produce exactly one email; the
// loser walks away without side effects.
func (e *Executor) Dispatch(sendID uint) (*DispatchResult, error) {
	send, err := e.Enrollments.GetSend(sendID)
	if err != nil {
		return nil, ErrSendNotFound
	}
	if send.Status != models.SendStatusScheduled {
		return &DispatchResult{SendID: sendID, Status: send.Status, Skipped: true, Reason: "not in scheduled state"}, nil
	}

	enrollment, err := e.Enrollments.GetEnrollment(send.EnrollmentID)
	if err != nil {
		return nil, ErrEnrollmentNotFound
	}
	if enrollment.RepliedAt != nil {
		if err := e.Enrollments.MarkSendSkipped(sendID, models.SendStatusSkippedReplied); err != nil {
			return nil, err
		}
		return &DispatchResult{SendID: sendID, Status: models.SendStatusSkippedReplied, Skipped: true, Reason: "contact already replied"}, nil
	}

	campaign, err := e.Campaigns.GetCampaign(send.CampaignID)
	if err != nil {
		return nil, ErrCampaignNotFound
	}

	// Budget check happens before the claim: an over-cap send stays
	// scheduled and is picked up again tomorrow. Budget errors fail open.
	if e.Budget != nil && campaign.DailyLimit > 0 {
		ok, err := e.Budget.Allow(campaign.ID, campaign.DailyLimit)
		if err != nil {
			if e.Logger != nil {
				e.Logger.Printf("send budget check failed for campaign %d, sending anyway: %v", campaign.ID, err)
			}
		} else if !ok {
			return &DispatchResult{SendID: sendID, Status: models.SendStatusScheduled, Skipped: true, Reason: "daily send limit reached"}, nil
		}
	}

	now := e.Now().UTC()
	claimed, err := e.Enrollments.ClaimSend(sendID, now)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return &DispatchResult{SendID: sendID, Status: models.SendStatusProcessing, Skipped: true, Reason: "claimed by another worker"}, nil
	}

	contact, err := e.Contacts.GetContact(send.ContactID)
	if err != nil {
		e.fail(sendID, "contact missing")
		return nil, ErrContactNotFound
	}

	// The template was resolved at enrollment time; later edits to its
	// body flow into dispatch because we load it fresh here.
	tpl, err := e.Templates.GetTemplate(send.TemplateID)
	if err != nil {
		e.fail(sendID, "template missing")
		return nil, ErrNoTemplateAvailable
	}

	subject, body := Render(tpl, contact, nil)

	// The tracking id goes into the decorated body before the send, so it
	// is stored alongside the provider id; tracking hits carry it, webhook
	// events carry the provider's.
	trackingID := uuid.New().String()
	if e.Decorate != nil {
		body = e.Decorate(body, trackingID)
	}

	providerID, err := e.Delivery.Send(contact.Email, subject, body, campaign.SenderEmail, campaign.SenderName, trackingID)
	if err != nil {
		e.fail(sendID, err.Error())
		return nil, err
	}
	messageID := trackingID
	if providerID != "" {
		messageID = providerID
	}

	msg := &models.Message{
		ContactID:         contact.ID,
		CampaignID:        campaign.ID,
		SendID:            send.ID,
		TemplateID:        tpl.ID,
		StepNumber:        send.StepNumber,
		ProviderMessageID: messageID,
		TrackingID:        trackingID,
		Subject:           subject,
		RecipientEmail:    contact.Email,
		SentAt:            now,
	}
	if err := e.Messages.CreateMessage(msg); err != nil {
		return nil, err
	}

	if err := e.Enrollments.MarkSendSent(sendID, msg.ID, now); err != nil {
		return nil, err
	}
	if err := e.Enrollments.SetCurrentStep(send.EnrollmentID, send.StepNumber); err != nil && e.Logger != nil {
		e.Logger.Printf("failed to advance enrollment %d to step %d: %v", send.EnrollmentID, send.StepNumber, err)
	}

	maxStep, err := e.Enrollments.MaxStepNumber(send.EnrollmentID)
	if err == nil && send.StepNumber >= maxStep {
		if err := e.Enrollments.SetCompletedAt(send.EnrollmentID, now); err != nil && e.Logger != nil {
			e.Logger.Printf("failed to mark enrollment %d completed: %v", send.EnrollmentID, err)
		}
	}

	if err := e.Campaigns.AddSent(campaign.ID, 1); err != nil && e.Logger != nil {
		e.Logger.Printf("failed to bump sent count for campaign %d: %v", campaign.ID, err)
	}
	if err := e.Contacts.MarkContacted(contact.ID, now); err != nil && e.Logger != nil {
		e.Logger.Printf("failed to stamp last_contacted on contact %d: %v", contact.ID, err)
	}
	if err := e.Templates.AddUsage(tpl.ID); err != nil && e.Logger != nil {
		e.Logger.Printf("failed to bump usage for template %d: %v", tpl.ID, err)
	}

	return &DispatchResult{SendID: sendID, Status: models.SendStatusSent}, nil
}

func (e *Executor) fail(sendID uint, reason string) {
	if err := e.Enrollments.MarkSendFailed(sendID, reason); err != nil && e.Logger != nil {
		e.Logger.Printf("failed to mark send %d failed: %v", sendID, err)
	}
}
