package models

import "gorm.io/gorm"

// TemplateSegmentGeneric is the fallback segment used when no template
// exists for a contact's classification.
const TemplateSegmentGeneric = "generic"

// Template is one email template variant for a (segment, step) slot.
// Several active rows may share a slot: they are A/B variants picked by
// weight.
type Template struct {
	gorm.Model
	Name       string `gorm:"not null" json:"name"`
	Segment    string `gorm:"not null;index" json:"segment"` // classification label or "generic"
	StepNumber int    `gorm:"not null;index" json:"step_number"`

	Subject  string `gorm:"not null" json:"subject"`
	Body     string `gorm:"type:text;not null" json:"body"`
	BodyHTML string `gorm:"type:text" json:"body_html"`

	Active bool `gorm:"default:true" json:"active"`
	Weight int  `gorm:"default:50" json:"weight"` // relative A/B pick weight

	// Performance tracking
	UsageCount int `gorm:"default:0" json:"usage_count"`
}

// HTMLBody returns the HTML body, falling back to the plain text body.
func (t *Template) HTMLBody() string {
	if t.BodyHTML != "" {
		return t.BodyHTML
	}
	return t.Body
}
