package sequence

import (
	"log"
	"time"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// Selector picks the sends the dispatcher should work on.
type Selector struct {
	Enrollments EnrollmentStore
	Logger      *log.Logger
}

// NewSelector creates a selector over the enrollment store.
func NewSelector(enrollments EnrollmentStore, logger *log.Logger) *Selector {
	return &Selector{Enrollments: enrollments, Logger: logger}
}

// CollectDue returns the sends that are ready to dispatch at asOf. Sends
// whose enrollment already got a reply are skipped on the way out instead
// of being returned, so stale rows clean themselves up during selection.
func (s *Selector) CollectDue(asOf time.Time, limit int) ([]models.Send, error) {
	due, err := s.Enrollments.FindDueSends(asOf, limit)
	if err != nil {
		return nil, err
	}

	out := due[:0]
	for i := range due {
		enrollment, err := s.Enrollments.GetEnrollment(due[i].EnrollmentID)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Printf("send %d references missing enrollment %d: %v", due[i].ID, due[i].EnrollmentID, err)
			}
			continue
		}
		if enrollment.RepliedAt != nil {
			if err := s.Enrollments.MarkSendSkipped(due[i].ID, models.SendStatusSkippedReplied); err != nil && s.Logger != nil {
				s.Logger.Printf("failed to skip send %d after reply: %v", due[i].ID, err)
			}
			continue
		}
		out = append(out, due[i])
	}
	return out, nil
}

// Reclaim returns sends stuck in processing longer than olderThan to the
// scheduled pool. A crashed worker must never strand its claimed sends
// forever.
func (s *Selector) Reclaim(olderThan time.Duration, now time.Time) (int, error) {
	n, err := s.Enrollments.ReclaimStuck(now.Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if n > 0 && s.Logger != nil {
		s.Logger.Printf("reclaimed %d stuck sends back to scheduled", n)
	}
	return n, nil
}
