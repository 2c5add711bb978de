package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
	"github.com/AnasElkhodary-69/sales-master-sub001/sequence"
	"github.com/AnasElkhodary-69/sales-master-sub001/utils"
)

type SequenceController struct {
	DB        *gorm.DB
	Logger    *log.Logger
	Scheduler *sequence.Scheduler
}

func NewSequenceController(db *gorm.DB, logger *log.Logger, scheduler *sequence.Scheduler) *SequenceController {
	return &SequenceController{
		DB:        db,
		Logger:    logger,
		Scheduler: scheduler,
	}
}

type stepInput struct {
	StepNumber  *int   `json:"step_number" validate:"required,min=0"`
	Name        string `json:"name"`
	DelayDays   int    `json:"delay_days"`
	DelayAmount int    `json:"delay_amount"`
	DelayUnit   string `json:"delay_unit"`
}

type definitionInput struct {
	Name        string      `json:"name" validate:"required"`
	Description string      `json:"description"`
	Steps       []stepInput `json:"steps" validate:"required,min=1,dive"`
}

func (sc *SequenceController) CreateDefinition(c *fiber.Ctx) error {
	var input definitionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	def := models.SequenceDefinition{
		Name:        input.Name,
		Description: input.Description,
		IsActive:    true,
	}
	for _, s := range input.Steps {
		unit := s.DelayUnit
		if unit == "" {
			unit = "days"
		}
		def.Steps = append(def.Steps, models.SequenceStep{
			StepNumber:  *s.StepNumber,
			Name:        s.Name,
			DelayDays:   s.DelayDays,
			DelayAmount: s.DelayAmount,
			DelayUnit:   unit,
		})
	}

	if err := sc.DB.Create(&def).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create sequence", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(def))
}

func (sc *SequenceController) GetDefinition(c *fiber.Ctx) error {
	var def models.SequenceDefinition
	err := sc.DB.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_number ASC")
	}).First(&def, utils.ParseUint(c.Params("id"))).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Sequence not found", nil)
	}
	return c.JSON(utils.SuccessResponse(def))
}

func (sc *SequenceController) ListDefinitions(c *fiber.Ctx) error {
	var defs []models.SequenceDefinition
	if err := sc.DB.Preload("Steps").Order("id DESC").Find(&defs).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list sequences", err)
	}
	return c.JSON(utils.SuccessResponse(defs))
}

type enrollInput struct {
	ContactID      uint   `json:"contact_id" validate:"required"`
	CampaignID     uint   `json:"campaign_id" validate:"required"`
	Classification string `json:"classification"`
}

// Enroll puts a contact into a campaign's sequence and returns the planned
// timeline.
func (sc *SequenceController) Enroll(c *fiber.Ctx) error {
	var input enrollInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	result, err := sc.Scheduler.Enroll(input.ContactID, input.CampaignID, input.Classification)
	if err != nil {
		switch {
		case errors.Is(err, sequence.ErrAlreadyEnrolled):
			return utils.ErrorResponse(c, fiber.StatusConflict, "Contact is already enrolled in this campaign", nil)
		case errors.Is(err, sequence.ErrContactNotFound), errors.Is(err, sequence.ErrCampaignNotFound):
			return utils.ErrorResponse(c, fiber.StatusNotFound, err.Error(), nil)
		case errors.Is(err, sequence.ErrContactUnreachable):
			return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Contact cannot be enrolled", err)
		case errors.Is(err, sequence.ErrNoTemplateAvailable):
			return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "No template available for a sequence step", err)
		default:
			utils.LogError(err, "enrollment failed", map[string]interface{}{
				"contact_id":  input.ContactID,
				"campaign_id": input.CampaignID,
			})
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to enroll contact", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(result))
}

// Unenroll removes an enrollment and its scheduled sends.
func (sc *SequenceController) Unenroll(c *fiber.Ctx) error {
	contactID := utils.ParseUint(c.Params("contactID"))
	campaignID := utils.ParseUint(c.Params("campaignID"))

	if err := sc.Scheduler.Unenroll(contactID, campaignID); err != nil {
		if errors.Is(err, sequence.ErrEnrollmentNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Enrollment not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to unenroll contact", err)
	}

	sc.Logger.Printf("contact %d unenrolled from campaign %d", contactID, campaignID)
	return c.JSON(utils.SuccessResponse(fiber.Map{"unenrolled": true}))
}

// GetEnrollment reports the state of one enrollment with its sends.
func (sc *SequenceController) GetEnrollment(c *fiber.Ctx) error {
	var enrollment models.Enrollment
	err := sc.DB.Preload("Sends", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_number ASC")
	}).First(&enrollment, utils.ParseUint(c.Params("id"))).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Enrollment not found", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"enrollment": enrollment,
		"state":      enrollment.State(),
	}))
}
