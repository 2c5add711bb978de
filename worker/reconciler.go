package worker

import (
	"log"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
	"github.com/AnasElkhodary-69/sales-master-sub001/sequence"
	"github.com/AnasElkhodary-69/sales-master-sub001/utils"
)

// Reconciler owns the hourly cron: the auto-enrollment sweep plus
// consistency checks over the send tables. The unique indexes should make
// those findings impossible; when one shows up anyway it is logged loudly
// so someone investigates.
type Reconciler struct {
	db           *gorm.DB
	autoEnroller *sequence.AutoEnroller
	cron         *cron.Cron
	logger       *log.Logger
}

func NewReconciler(db *gorm.DB, autoEnroller *sequence.AutoEnroller, logger *log.Logger) *Reconciler {
	return &Reconciler{
		db:           db,
		autoEnroller: autoEnroller,
		cron:         cron.New(),
		logger:       logger,
	}
}

// Start schedules the hourly jobs. Returns the underlying cron so the
// caller can stop it on shutdown.
func (r *Reconciler) Start() *cron.Cron {
	r.cron.AddFunc("@hourly", r.runAutoEnrollment)
	r.cron.AddFunc("@hourly", r.runChecks)
	r.cron.Start()
	r.logger.Println("Reconciler scheduled hourly")
	return r.cron
}

// runAutoEnrollment sweeps new contacts into campaigns that opted in.
func (r *Reconciler) runAutoEnrollment() {
	if r.autoEnroller == nil {
		return
	}
	n, err := r.autoEnroller.Run()
	if err != nil {
		utils.LogError(err, "auto-enrollment run failed", nil)
		return
	}
	if n > 0 {
		r.logger.Printf("auto-enrollment created %d enrollments", n)
	}
}

func (r *Reconciler) runChecks() {
	r.checkDuplicateSends()
	r.checkOrphanedSends()
	r.checkRepliedEnrollmentsWithScheduledSends()
}

// checkDuplicateSends looks for multiple sends sharing a
// (contact, campaign, step) slot.
func (r *Reconciler) checkDuplicateSends() {
	var dupes []struct {
		ContactID  uint
		CampaignID uint
		StepNumber int
		Count      int64
	}
	err := r.db.Model(&models.Send{}).
		Select("contact_id, campaign_id, step_number, COUNT(*) as count").
		Group("contact_id, campaign_id, step_number").
		Having("COUNT(*) > 1").
		Scan(&dupes).Error
	if err != nil {
		utils.LogError(err, "duplicate send check failed", nil)
		return
	}
	for _, d := range dupes {
		utils.LogError(nil, "duplicate sends detected", map[string]interface{}{
			"contact_id":  d.ContactID,
			"campaign_id": d.CampaignID,
			"step_number": d.StepNumber,
			"count":       d.Count,
		})
	}
}

// checkOrphanedSends looks for sends pointing at enrollments that no
// longer exist.
func (r *Reconciler) checkOrphanedSends() {
	var count int64
	err := r.db.Model(&models.Send{}).
		Where("enrollment_id NOT IN (?)", r.db.Model(&models.Enrollment{}).Select("id")).
		Count(&count).Error
	if err != nil {
		utils.LogError(err, "orphaned send check failed", nil)
		return
	}
	if count > 0 {
		utils.LogError(nil, "orphaned sends detected", map[string]interface{}{
			"count": count,
		})
	}
}

// checkRepliedEnrollmentsWithScheduledSends finds enrollments that got a
// reply but still carry scheduled sends, which the reactor should have
// skipped.
func (r *Reconciler) checkRepliedEnrollmentsWithScheduledSends() {
	var count int64
	err := r.db.Model(&models.Send{}).
		Joins("JOIN enrollments ON enrollments.id = sends.enrollment_id").
		Where("sends.status = ? AND enrollments.replied_at IS NOT NULL", models.SendStatusScheduled).
		Count(&count).Error
	if err != nil {
		utils.LogError(err, "replied enrollment check failed", nil)
		return
	}
	if count > 0 {
		r.logger.Printf("found %d scheduled sends on replied enrollments, selector will skip them", count)
	}
}
