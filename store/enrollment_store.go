package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
	"github.com/AnasElkhodary-69/sales-master-sub001/sequence"
)

// EnrollmentStore is the GORM-backed enrollment and send storage.
type EnrollmentStore struct {
	DB *gorm.DB
}

// NewEnrollmentStore creates an enrollment store
func NewEnrollmentStore(db *gorm.DB) *EnrollmentStore {
	return &EnrollmentStore{DB: db}
}

func (s *EnrollmentStore) GetEnrollment(id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := s.DB.First(&enrollment, id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (s *EnrollmentStore) FindEnrollment(contactID, campaignID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := s.DB.Where("contact_id = ? AND campaign_id = ?", contactID, campaignID).First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &enrollment, nil
}

// CreateEnrollment writes the enrollment and its sends in one transaction.
// The unique index on (contact_id, campaign_id) turns a racing duplicate
// into ErrAlreadyEnrolled; sends colliding on (contact, campaign, step) are
// dropped by ON CONFLICT DO NOTHING and excluded from the returned count.
func (s *EnrollmentStore) CreateEnrollment(e *models.Enrollment, sends []models.Send) (int, error) {
	created := 0
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(e).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return sequence.ErrAlreadyEnrolled
			}
			return err
		}
		for i := range sends {
			sends[i].EnrollmentID = e.ID
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&sends[i])
			if res.Error != nil {
				return res.Error
			}
			created += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// DeleteEnrollment removes the enrollment and its sends.
func (s *EnrollmentStore) DeleteEnrollment(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("enrollment_id = ?", id).Delete(&models.Send{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Enrollment{}, id).Error
	})
}

func (s *EnrollmentStore) GetSend(id uint) (*models.Send, error) {
	var send models.Send
	if err := s.DB.First(&send, id).Error; err != nil {
		return nil, err
	}
	return &send, nil
}

func (s *EnrollmentStore) FindDueSends(asOf time.Time, limit int) ([]models.Send, error) {
	var sends []models.Send
	q := s.DB.Where("status = ? AND scheduled_at <= ?", models.SendStatusScheduled, asOf).
		Order("scheduled_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&sends).Error
	return sends, err
}

func (s *EnrollmentStore) FindScheduledSends(enrollmentID uint) ([]models.Send, error) {
	var sends []models.Send
	err := s.DB.Where("enrollment_id = ? AND status = ?", enrollmentID, models.SendStatusScheduled).
		Order("step_number ASC").Find(&sends).Error
	return sends, err
}

func (s *EnrollmentStore) MaxStepNumber(enrollmentID uint) (int, error) {
	var max int
	err := s.DB.Model(&models.Send{}).Where("enrollment_id = ?", enrollmentID).
		Select("COALESCE(MAX(step_number), 0)").Scan(&max).Error
	return max, err
}

// ClaimSend flips scheduled -> processing. The WHERE on status makes the
// claim atomic: of two racing workers exactly one sees RowsAffected == 1.
func (s *EnrollmentStore) ClaimSend(id uint, at time.Time) (bool, error) {
	res := s.DB.Model(&models.Send{}).
		Where("id = ? AND status = ?", id, models.SendStatusScheduled).
		Updates(map[string]interface{}{"status": models.SendStatusProcessing, "claimed_at": at})
	return res.RowsAffected == 1, res.Error
}

func (s *EnrollmentStore) ReleaseSend(id uint) error {
	return s.DB.Model(&models.Send{}).
		Where("id = ? AND status = ?", id, models.SendStatusProcessing).
		Updates(map[string]interface{}{"status": models.SendStatusScheduled, "claimed_at": nil}).Error
}

func (s *EnrollmentStore) MarkSendSent(id uint, messageID uint, at time.Time) error {
	return s.DB.Model(&models.Send{}).
		Where("id = ? AND status = ?", id, models.SendStatusProcessing).
		Updates(map[string]interface{}{"status": models.SendStatusSent, "sent_at": at, "message_id": messageID}).Error
}

func (s *EnrollmentStore) MarkSendFailed(id uint, reason string) error {
	return s.DB.Model(&models.Send{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.SendStatusFailed, "error_message": reason}).Error
}

func (s *EnrollmentStore) MarkSendSkipped(id uint, status models.SendStatus) error {
	return s.DB.Model(&models.Send{}).
		Where("id = ? AND status = ?", id, models.SendStatusScheduled).
		Update("status", status).Error
}

func (s *EnrollmentStore) SkipScheduled(enrollmentID uint, status models.SendStatus) (int, error) {
	res := s.DB.Model(&models.Send{}).
		Where("enrollment_id = ? AND status = ?", enrollmentID, models.SendStatusScheduled).
		Update("status", status)
	return int(res.RowsAffected), res.Error
}

// ReclaimStuck returns processing sends claimed before cutoff to scheduled.
func (s *EnrollmentStore) ReclaimStuck(cutoff time.Time) (int, error) {
	res := s.DB.Model(&models.Send{}).
		Where("status = ? AND claimed_at < ?", models.SendStatusProcessing, cutoff).
		Updates(map[string]interface{}{"status": models.SendStatusScheduled, "claimed_at": nil})
	return int(res.RowsAffected), res.Error
}

// SetRepliedAt records the first reply for the enrollment; repeats leave
// the original timestamp alone.
func (s *EnrollmentStore) SetRepliedAt(enrollmentID uint, at time.Time) (bool, error) {
	res := s.DB.Model(&models.Enrollment{}).
		Where("id = ? AND replied_at IS NULL", enrollmentID).
		Update("replied_at", at)
	return res.RowsAffected == 1, res.Error
}

// SetCurrentStep raises current_step, never lowers it. Out-of-order send
// completions must not roll the cursor back.
func (s *EnrollmentStore) SetCurrentStep(enrollmentID uint, step int) error {
	return s.DB.Model(&models.Enrollment{}).
		Where("id = ? AND current_step < ?", enrollmentID, step).
		Update("current_step", step).Error
}

func (s *EnrollmentStore) SetCompletedAt(enrollmentID uint, at time.Time) error {
	return s.DB.Model(&models.Enrollment{}).
		Where("id = ? AND sequence_completed_at IS NULL", enrollmentID).
		Update("sequence_completed_at", at).Error
}
