package sequence

import (
	"fmt"
	"log"
	"time"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// Scheduler enrolls contacts into campaigns and materializes the full send
// timeline up front.
type Scheduler struct {
	Contacts    ContactStore
	Campaigns   CampaignStore
	Sequences   SequenceStore
	Enrollments EnrollmentStore
	Resolver    *TemplateResolver
	Delays      *DelayCalculator
	Classifier  Classifier // optional
	Logger      *log.Logger
	Now         func() time.Time
}

// NewScheduler creates a scheduler. classifier may be nil when no
// classification service is configured.
func NewScheduler(contacts ContactStore, campaigns CampaignStore, sequences SequenceStore, enrollments EnrollmentStore, resolver *TemplateResolver, delays *DelayCalculator, classifier Classifier, logger *log.Logger) *Scheduler {
	return &Scheduler{
		Contacts:    contacts,
		Campaigns:   campaigns,
		Sequences:   sequences,
		Enrollments: enrollments,
		Resolver:    resolver,
		Delays:      delays,
		Classifier:  classifier,
		Logger:      logger,
		Now:         time.Now,
	}
}

// ScheduledEmail is one planned send in an enrollment result timeline.
type ScheduledEmail struct {
	StepNumber   int       `json:"step_number"`
	TemplateID   uint      `json:"template_id"`
	TemplateName string    `json:"template_name"`
	ScheduledAt  time.Time `json:"scheduled_at"`
}

// EnrollmentResult summarizes a successful enrollment.
type EnrollmentResult struct {
	EnrollmentID    uint             `json:"enrollment_id"`
	ContactID       uint             `json:"contact_id"`
	CampaignID      uint             `json:"campaign_id"`
	Classification  string           `json:"classification"`
	EmailsScheduled int              `json:"emails_scheduled"`
	Timeline        []ScheduledEmail `json:"timeline"`
}

// Enroll puts a contact into a campaign. Every step's template is resolved
// before anything is written so a missing template aborts the whole
// enrollment instead of leaving a partial timeline behind.
func (s *Scheduler) Enroll(contactID, campaignID uint, classificationOverride string) (*EnrollmentResult, error) {
	contact, err := s.Contacts.GetContact(contactID)
	if err != nil {
		return nil, ErrContactNotFound
	}
	campaign, err := s.Campaigns.GetCampaign(campaignID)
	if err != nil {
		return nil, ErrCampaignNotFound
	}

	if !contact.Reachable() {
		return nil, ErrContactUnreachable
	}
	if !campaign.Accepting() {
		return nil, fmt.Errorf("campaign %d is %s and not accepting enrollments", campaign.ID, campaign.Status)
	}

	if existing, err := s.Enrollments.FindEnrollment(contactID, campaignID); err == nil && existing != nil {
		return nil, ErrAlreadyEnrolled
	}

	classification := s.classify(contact, classificationOverride)

	def, err := s.Sequences.GetDefinition(campaign.SequenceID)
	if err != nil {
		return nil, ErrSequenceNotFound
	}
	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("sequence %d has no steps", def.ID)
	}

	now := s.Now().UTC()
	enrollment := &models.Enrollment{
		ContactID:      contactID,
		CampaignID:     campaignID,
		Classification: classification,
		CurrentStep:    -1,
	}

	// Resolve all templates first, then chain each step's delay off the
	// previous step's timestamp.
	sends := make([]models.Send, 0, len(def.Steps))
	timeline := make([]ScheduledEmail, 0, len(def.Steps))
	last := now
	for i := range def.Steps {
		step := &def.Steps[i]
		tpl, err := s.Resolver.Resolve(classification, step.StepNumber)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", step.StepNumber, err)
		}

		last = last.Add(s.Delays.Effective(step))
		sends = append(sends, models.Send{
			ContactID:   contactID,
			CampaignID:  campaignID,
			StepNumber:  step.StepNumber,
			TemplateID:  tpl.ID,
			Status:      models.SendStatusScheduled,
			ScheduledAt: last,
		})
		timeline = append(timeline, ScheduledEmail{
			StepNumber:   step.StepNumber,
			TemplateID:   tpl.ID,
			TemplateName: tpl.Name,
			ScheduledAt:  last,
		})
	}

	created, err := s.Enrollments.CreateEnrollment(enrollment, sends)
	if err != nil {
		return nil, err
	}
	if created < len(sends) && s.Logger != nil {
		s.Logger.Printf("enrollment %d: %d of %d sends already existed, skipped", enrollment.ID, len(sends)-created, len(sends))
	}

	if err := s.Campaigns.AddEnrolled(campaignID, 1); err != nil && s.Logger != nil {
		s.Logger.Printf("failed to bump enrolled count for campaign %d: %v", campaignID, err)
	}

	return &EnrollmentResult{
		EnrollmentID:    enrollment.ID,
		ContactID:       contactID,
		CampaignID:      campaignID,
		Classification:  classification,
		EmailsScheduled: created,
		Timeline:        timeline,
	}, nil
}

// Unenroll removes a contact's enrollment and its scheduled sends.
func (s *Scheduler) Unenroll(contactID, campaignID uint) error {
	enrollment, err := s.Enrollments.FindEnrollment(contactID, campaignID)
	if err != nil || enrollment == nil {
		return ErrEnrollmentNotFound
	}
	return s.Enrollments.DeleteEnrollment(enrollment.ID)
}

// classify picks the classification snapshot for an enrollment. An explicit
// override wins; otherwise the classifier service is asked, degrading to
// the stored label on error.
func (s *Scheduler) classify(contact *models.Contact, override string) string {
	if override != "" {
		return override
	}
	if s.Classifier != nil {
		label, confidence, err := s.Classifier.Classify(contact)
		if err == nil && label != "" {
			if s.Logger != nil {
				s.Logger.Printf("classified contact %d as %s (%.2f)", contact.ID, label, confidence)
			}
			return label
		}
		if err != nil && s.Logger != nil {
			s.Logger.Printf("classifier unavailable for contact %d, using stored label: %v", contact.ID, err)
		}
	}
	if contact.Classification != "" {
		return contact.Classification
	}
	return models.ClassificationUnclassified
}
