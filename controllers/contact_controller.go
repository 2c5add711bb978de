package controller

import (
	"log"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
	"github.com/AnasElkhodary-69/sales-master-sub001/sequence"
	"github.com/AnasElkhodary-69/sales-master-sub001/utils"
)

type ContactController struct {
	DB         *gorm.DB
	Logger     *log.Logger
	Classifier sequence.Classifier
}

func NewContactController(db *gorm.DB, logger *log.Logger, classifier sequence.Classifier) *ContactController {
	return &ContactController{
		DB:         db,
		Logger:     logger,
		Classifier: classifier,
	}
}

type contactInput struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Domain    string `json:"domain"`
	Title     string `json:"title"`
	Industry  string `json:"industry"`
}

func (cc *ContactController) CreateContact(c *fiber.Ctx) error {
	var input contactInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if err := checkmail.ValidateFormat(input.Email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address", err)
	}

	contact := models.Contact{
		Email:          input.Email,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Company:        input.Company,
		Domain:         input.Domain,
		Title:          input.Title,
		Industry:       input.Industry,
		Classification: models.ClassificationUnclassified,
		IsActive:       true,
	}

	if err := cc.DB.Create(&contact).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return utils.ErrorResponse(c, fiber.StatusConflict, "Contact with this email already exists", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create contact", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(contact))
}

func (cc *ContactController) GetContact(c *fiber.Ctx) error {
	var contact models.Contact
	if err := cc.DB.First(&contact, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", nil)
	}
	return c.JSON(utils.SuccessResponse(contact))
}

func (cc *ContactController) ListContacts(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if limit > 200 {
		limit = 200
	}

	query := cc.DB.Model(&models.Contact{})
	if classification := c.Query("classification"); classification != "" {
		query = query.Where("classification = ?", classification)
	}
	if company := c.Query("company"); company != "" {
		query = query.Where("company = ?", company)
	}

	var total int64
	query.Count(&total)

	var contacts []models.Contact
	if err := query.Order("id DESC").Offset((page - 1) * limit).Limit(limit).Find(&contacts).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list contacts", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  contacts,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (cc *ContactController) UpdateContact(c *fiber.Ctx) error {
	var contact models.Contact
	if err := cc.DB.First(&contact, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", nil)
	}

	var input contactInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if input.Email != "" && input.Email != contact.Email {
		if err := checkmail.ValidateFormat(input.Email); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address", err)
		}
		contact.Email = input.Email
	}
	if input.FirstName != "" {
		contact.FirstName = input.FirstName
	}
	if input.LastName != "" {
		contact.LastName = input.LastName
	}
	if input.Company != "" {
		contact.Company = input.Company
	}
	if input.Domain != "" {
		contact.Domain = input.Domain
	}
	if input.Title != "" {
		contact.Title = input.Title
	}
	if input.Industry != "" {
		contact.Industry = input.Industry
	}

	if err := cc.DB.Save(&contact).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update contact", err)
	}
	return c.JSON(utils.SuccessResponse(contact))
}

// DeleteContact soft-deletes the contact. Historical messages and
// enrollments stay for reporting.
func (cc *ContactController) DeleteContact(c *fiber.Ctx) error {
	if err := cc.DB.Delete(&models.Contact{}, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete contact", err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"deleted": true}))
}

// ClassifyContact runs the external classifier and stores the label.
func (cc *ContactController) ClassifyContact(c *fiber.Ctx) error {
	var contact models.Contact
	if err := cc.DB.First(&contact, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", nil)
	}

	if cc.Classifier == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "No classifier configured", nil)
	}

	label, confidence, err := cc.Classifier.Classify(&contact)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Classification failed", err)
	}

	if err := cc.DB.Model(&contact).Update("classification", label).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to store classification", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"contact_id":     contact.ID,
		"classification": label,
		"confidence":     confidence,
	}))
}

// UnsubscribeContact opts the contact out of all future enrollments.
func (cc *ContactController) UnsubscribeContact(c *fiber.Ctx) error {
	var contact models.Contact
	if err := cc.DB.First(&contact, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", nil)
	}

	now := cc.DB.NowFunc()
	if err := cc.DB.Model(&contact).Updates(map[string]interface{}{
		"unsubscribed":    true,
		"unsubscribed_at": now,
	}).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to unsubscribe contact", err)
	}

	cc.Logger.Printf("contact %d unsubscribed", contact.ID)
	return c.JSON(utils.SuccessResponse(fiber.Map{"unsubscribed": true}))
}
