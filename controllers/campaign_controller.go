package controller

import (
	"log"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
	"github.com/AnasElkhodary-69/sales-master-sub001/utils"
)

type CampaignController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewCampaignController(db *gorm.DB, logger *log.Logger) *CampaignController {
	return &CampaignController{
		DB:     db,
		Logger: logger,
	}
}

type campaignInput struct {
	Name             string `json:"name" validate:"required"`
	Description      string `json:"description"`
	SequenceID       uint   `json:"sequence_id" validate:"required"`
	SenderEmail      string `json:"sender_email" validate:"required,email"`
	SenderName       string `json:"sender_name"`
	DailyLimit       int    `json:"daily_limit"`
	HaltOnHardBounce bool   `json:"halt_on_hard_bounce"`
	AutoEnroll       bool   `json:"auto_enroll"`
}

func (cc *CampaignController) CreateCampaign(c *fiber.Ctx) error {
	var input campaignInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if err := checkmail.ValidateFormat(input.SenderEmail); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid sender email", err)
	}

	var def models.SequenceDefinition
	if err := cc.DB.First(&def, input.SequenceID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Sequence definition not found", nil)
	}

	campaign := models.Campaign{
		Name:             input.Name,
		Description:      input.Description,
		Status:           models.CampaignStatusDraft,
		SequenceID:       input.SequenceID,
		SenderEmail:      input.SenderEmail,
		SenderName:       input.SenderName,
		DailyLimit:       input.DailyLimit,
		HaltOnHardBounce: input.HaltOnHardBounce,
		AutoEnroll:       input.AutoEnroll,
	}
	if campaign.DailyLimit <= 0 {
		campaign.DailyLimit = 50
	}

	if err := cc.DB.Create(&campaign).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create campaign", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(campaign))
}

func (cc *CampaignController) GetCampaign(c *fiber.Ctx) error {
	var campaign models.Campaign
	if err := cc.DB.First(&campaign, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}
	return c.JSON(utils.SuccessResponse(campaign))
}

func (cc *CampaignController) ListCampaigns(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)

	query := cc.DB.Model(&models.Campaign{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var campaigns []models.Campaign
	if err := query.Order("id DESC").Offset((page - 1) * limit).Limit(limit).Find(&campaigns).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list campaigns", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  campaigns,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (cc *CampaignController) StartCampaign(c *fiber.Ctx) error {
	var campaign models.Campaign
	if err := cc.DB.First(&campaign, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}
	if campaign.Status == models.CampaignStatusCompleted {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Completed campaigns cannot be restarted", nil)
	}

	updates := map[string]interface{}{
		"status":    models.CampaignStatusActive,
		"paused_at": nil,
	}
	if campaign.StartedAt == nil {
		updates["started_at"] = time.Now().UTC()
	}
	if err := cc.DB.Model(&campaign).Updates(updates).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to start campaign", err)
	}

	cc.Logger.Printf("campaign %d started", campaign.ID)
	return c.JSON(utils.SuccessResponse(fiber.Map{"status": models.CampaignStatusActive}))
}

func (cc *CampaignController) PauseCampaign(c *fiber.Ctx) error {
	var campaign models.Campaign
	if err := cc.DB.First(&campaign, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}

	if err := cc.DB.Model(&campaign).Updates(map[string]interface{}{
		"status":    models.CampaignStatusPaused,
		"paused_at": time.Now().UTC(),
	}).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to pause campaign", err)
	}

	cc.Logger.Printf("campaign %d paused", campaign.ID)
	return c.JSON(utils.SuccessResponse(fiber.Map{"status": models.CampaignStatusPaused}))
}

// GetCampaignStats aggregates send and engagement numbers for one campaign.
func (cc *CampaignController) GetCampaignStats(c *fiber.Ctx) error {
	campaignID := utils.ParseUint(c.Params("id"))

	var campaign models.Campaign
	if err := cc.DB.First(&campaign, campaignID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}

	var sendCounts []struct {
		Status models.SendStatus
		Count  int64
	}
	if err := cc.DB.Model(&models.Send{}).
		Select("status, COUNT(*) as count").
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(&sendCounts).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to aggregate sends", err)
	}
	byStatus := make(map[models.SendStatus]int64, len(sendCounts))
	for _, sc := range sendCounts {
		byStatus[sc.Status] = sc.Count
	}

	var opened, clicked, replied int64
	cc.DB.Model(&models.Message{}).Where("campaign_id = ? AND opened_at IS NOT NULL", campaignID).Count(&opened)
	cc.DB.Model(&models.Message{}).Where("campaign_id = ? AND clicked_at IS NOT NULL", campaignID).Count(&clicked)
	cc.DB.Model(&models.Message{}).Where("campaign_id = ? AND replied_at IS NOT NULL", campaignID).Count(&replied)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"campaign_id":    campaign.ID,
		"status":         campaign.Status,
		"total_enrolled": campaign.TotalEnrolled,
		"sent":           byStatus[models.SendStatusSent],
		"scheduled":      byStatus[models.SendStatusScheduled],
		"processing":     byStatus[models.SendStatusProcessing],
		"failed":         byStatus[models.SendStatusFailed],
		"skipped":        byStatus[models.SendStatusSkippedReplied] + byStatus[models.SendStatusSkippedBounced],
		"opened":         opened,
		"clicked":        clicked,
		"replied":        replied,
		"bounces":        campaign.BounceCount,
		"reply_rate":     campaign.ReplyRate(),
	}))
}
