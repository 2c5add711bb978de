package models

import "gorm.io/gorm"

// SequenceDefinition is an ordered chain of steps campaigns schedule from.
// Editing a definition never reschedules in-flight enrollments: the
// schedule is materialized into Send rows at enrollment time and only new
// enrollments pick up the edited steps.
type SequenceDefinition struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	// Relations
	Steps []SequenceStep `gorm:"foreignKey:SequenceID" json:"steps,omitempty"`
}

// SequenceStep is one step of a definition, delayed relative to the
// previous step
type SequenceStep struct {
	gorm.Model
	SequenceID uint   `gorm:"not null;index" json:"sequence_id"`
	StepNumber int    `gorm:"not null" json:"step_number"` // 0 = initial email
	Name       string `json:"name"`

	// DelayDays is the legacy whole-days delay, superseded by
	// DelayAmount/DelayUnit when the latter is set.
	DelayDays   int    `gorm:"default:0" json:"delay_days"`
	DelayAmount int    `gorm:"default:0" json:"delay_amount"`
	DelayUnit   string `gorm:"default:'days'" json:"delay_unit"` // minutes, hours, days
}
