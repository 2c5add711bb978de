package sequence

import (
	"log"
	"strings"
	"time"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// DelayCalculator turns a step's delay configuration into a duration
// relative to the previous step.
type DelayCalculator struct {
	Logger *log.Logger
}

// NewDelayCalculator creates a delay calculator
func NewDelayCalculator(logger *log.Logger) *DelayCalculator {
	return &DelayCalculator{Logger: logger}
}

// Effective computes the delay for a step. Step 0 always goes out
// immediately no matter what delay the row carries. DelayAmount/DelayUnit
// wins over the legacy DelayDays column; an unknown unit falls back to days
// with a warning so a typo slows a sequence down instead of flooding the
// contact.
func (d *DelayCalculator) Effective(step *models.SequenceStep) time.Duration {
	if step.StepNumber == 0 {
		return 0
	}

	if step.DelayAmount > 0 {
		amount := time.Duration(step.DelayAmount)
		switch strings.ToLower(strings.TrimSpace(step.DelayUnit)) {
		case "minute", "minutes", "min":
			return amount * time.Minute
		case "hour", "hours", "hr":
			return amount * time.Hour
		case "day", "days", "":
			return amount * 24 * time.Hour
		default:
			if d.Logger != nil {
				d.Logger.Printf("unknown delay unit %q on step %d, treating as days", step.DelayUnit, step.StepNumber)
			}
			return amount * 24 * time.Hour
		}
	}

	if step.DelayDays > 0 {
		return time.Duration(step.DelayDays) * 24 * time.Hour
	}

	return 0
}
