package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
	"github.com/AnasElkhodary-69/sales-master-sub001/utils"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{
		DB:     db,
		Logger: logger,
	}
}

// GetStats returns the global overview numbers for the dashboard.
func (dc *DashboardController) GetStats(c *fiber.Ctx) error {
	var totalContacts, activeCampaigns, totalEnrollments int64
	dc.DB.Model(&models.Contact{}).Count(&totalContacts)
	dc.DB.Model(&models.Campaign{}).Where("status = ?", models.CampaignStatusActive).Count(&activeCampaigns)
	dc.DB.Model(&models.Enrollment{}).Count(&totalEnrollments)

	var scheduled, processing, sent, failed int64
	dc.DB.Model(&models.Send{}).Where("status = ?", models.SendStatusScheduled).Count(&scheduled)
	dc.DB.Model(&models.Send{}).Where("status = ?", models.SendStatusProcessing).Count(&processing)
	dc.DB.Model(&models.Send{}).Where("status = ?", models.SendStatusSent).Count(&sent)
	dc.DB.Model(&models.Send{}).Where("status = ?", models.SendStatusFailed).Count(&failed)

	since := time.Now().UTC().Add(-24 * time.Hour)
	var sentToday, repliesToday int64
	dc.DB.Model(&models.Message{}).Where("sent_at >= ?", since).Count(&sentToday)
	dc.DB.Model(&models.Message{}).Where("replied_at >= ?", since).Count(&repliesToday)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"contacts":          totalContacts,
		"active_campaigns":  activeCampaigns,
		"enrollments":       totalEnrollments,
		"sends_scheduled":   scheduled,
		"sends_processing":  processing,
		"sends_sent":        sent,
		"sends_failed":      failed,
		"sent_last_24h":     sentToday,
		"replies_last_24h":  repliesToday,
	}))
}

// GetUpcomingSends lists the next scheduled sends across all campaigns.
func (dc *DashboardController) GetUpcomingSends(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit > 200 {
		limit = 200
	}

	var sends []models.Send
	err := dc.DB.Where("status = ?", models.SendStatusScheduled).
		Order("scheduled_at ASC").Limit(limit).Find(&sends).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list upcoming sends", err)
	}
	return c.JSON(utils.SuccessResponse(sends))
}
