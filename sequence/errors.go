package sequence

import "errors"

// Sentinel errors surfaced to callers. Controllers map these onto HTTP
// status codes; everything else is treated as a 500.
var (
	ErrAlreadyEnrolled     = errors.New("contact is already enrolled in this campaign")
	ErrNoTemplateAvailable = errors.New("no active template available for step")
	ErrContactNotFound     = errors.New("contact not found")
	ErrCampaignNotFound    = errors.New("campaign not found")
	ErrSequenceNotFound    = errors.New("sequence definition not found")
	ErrContactUnreachable  = errors.New("contact is unsubscribed, bounced or inactive")
	ErrSendNotFound        = errors.New("scheduled send not found")
	ErrMessageNotFound     = errors.New("no message matches this event")
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
)
