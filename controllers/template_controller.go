package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
	"github.com/AnasElkhodary-69/sales-master-sub001/utils"
)

type TemplateController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTemplateController(db *gorm.DB, logger *log.Logger) *TemplateController {
	return &TemplateController{
		DB:     db,
		Logger: logger,
	}
}

type templateInput struct {
	Name       string `json:"name" validate:"required"`
	Segment    string `json:"segment" validate:"required"`
	StepNumber *int   `json:"step_number" validate:"required,min=0"`
	Subject    string `json:"subject" validate:"required"`
	Body       string `json:"body" validate:"required"`
	BodyHTML   string `json:"body_html"`
	Weight     int    `json:"weight"`
	Active     *bool  `json:"active"`
}

func (tc *TemplateController) CreateTemplate(c *fiber.Ctx) error {
	var input templateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	tpl := models.Template{
		Name:       input.Name,
		Segment:    input.Segment,
		StepNumber: *input.StepNumber,
		Subject:    input.Subject,
		Body:       input.Body,
		BodyHTML:   input.BodyHTML,
		Weight:     input.Weight,
		Active:     true,
	}
	if tpl.Weight <= 0 {
		tpl.Weight = 50
	}
	if input.Active != nil {
		tpl.Active = *input.Active
	}

	if err := tc.DB.Create(&tpl).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create template", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(tpl))
}

func (tc *TemplateController) GetTemplate(c *fiber.Ctx) error {
	var tpl models.Template
	if err := tc.DB.First(&tpl, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}
	return c.JSON(utils.SuccessResponse(tpl))
}

func (tc *TemplateController) ListTemplates(c *fiber.Ctx) error {
	query := tc.DB.Model(&models.Template{})
	if segment := c.Query("segment"); segment != "" {
		query = query.Where("segment = ?", segment)
	}
	if step := c.Query("step"); step != "" {
		query = query.Where("step_number = ?", step)
	}
	if c.Query("active") == "true" {
		query = query.Where("active = ?", true)
	}

	var templates []models.Template
	if err := query.Order("segment ASC, step_number ASC, id ASC").Find(&templates).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list templates", err)
	}
	return c.JSON(utils.SuccessResponse(templates))
}

// UpdateTemplate edits a template in place. Sends already scheduled keep
// their template id, so edits flow into future dispatches automatically.
func (tc *TemplateController) UpdateTemplate(c *fiber.Ctx) error {
	var tpl models.Template
	if err := tc.DB.First(&tpl, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}

	var input templateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if input.Name != "" {
		tpl.Name = input.Name
	}
	if input.Segment != "" {
		tpl.Segment = input.Segment
	}
	if input.StepNumber != nil {
		tpl.StepNumber = *input.StepNumber
	}
	if input.Subject != "" {
		tpl.Subject = input.Subject
	}
	if input.Body != "" {
		tpl.Body = input.Body
	}
	if input.BodyHTML != "" {
		tpl.BodyHTML = input.BodyHTML
	}
	if input.Weight > 0 {
		tpl.Weight = input.Weight
	}
	if input.Active != nil {
		tpl.Active = *input.Active
	}

	if err := tc.DB.Save(&tpl).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update template", err)
	}
	return c.JSON(utils.SuccessResponse(tpl))
}

// DeactivateTemplate takes a template out of rotation without deleting it.
func (tc *TemplateController) DeactivateTemplate(c *fiber.Ctx) error {
	res := tc.DB.Model(&models.Template{}).
		Where("id = ?", utils.ParseUint(c.Params("id"))).
		Update("active", false)
	if res.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to deactivate template", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"active": false}))
}
