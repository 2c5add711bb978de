package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AnasElkhodary-69/sales-master-sub001/sequence"
	"github.com/AnasElkhodary-69/sales-master-sub001/utils"
)

type WebhookController struct {
	DB      *gorm.DB
	Logger  *log.Logger
	Reactor *sequence.Reactor
}

func NewWebhookController(db *gorm.DB, logger *log.Logger, reactor *sequence.Reactor) *WebhookController {
	return &WebhookController{
		DB:      db,
		Logger:  logger,
		Reactor: reactor,
	}
}

// Provider event names mapped onto our normalized types.
var providerEventTypes = map[string]string{
	"delivered":  sequence.EventDelivered,
	"open":       sequence.EventOpened,
	"opened":     sequence.EventOpened,
	"click":      sequence.EventClicked,
	"clicked":    sequence.EventClicked,
	"reply":      sequence.EventReplied,
	"replied":    sequence.EventReplied,
	"bounce":     sequence.EventBounced,
	"bounced":    sequence.EventBounced,
	"hardBounce": sequence.EventBounced,
	"softBounce": sequence.EventBounced,
	"spam":       sequence.EventComplained,
	"complained": sequence.EventComplained,
}

// HandleProviderWebhook ingests engagement events from the delivery
// provider. Unknown messages are acknowledged with 200 so the provider
// stops retrying; the event is logged and dropped.
func (wc *WebhookController) HandleProviderWebhook(c *fiber.Ctx) error {
	var input struct {
		EventType  string `json:"event_type"`
		MessageID  string `json:"message_id"`
		Email      string `json:"email"`
		Timestamp  int64  `json:"timestamp"`
		BounceType string `json:"bounce_type"`
		URL        string `json:"url"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	eventType, ok := providerEventTypes[input.EventType]
	if !ok {
		wc.Logger.Printf("ignoring unsupported webhook event type %q", input.EventType)
		return c.JSON(fiber.Map{"processed": false, "reason": "unsupported event type"})
	}

	bounceType := input.BounceType
	if input.EventType == "hardBounce" {
		bounceType = "hard"
	} else if input.EventType == "softBounce" {
		bounceType = "soft"
	}

	var ts time.Time
	if input.Timestamp > 0 {
		ts = time.Unix(input.Timestamp, 0).UTC()
	}

	result, err := wc.Reactor.ApplyEvent(&sequence.Event{
		Type:              eventType,
		ProviderMessageID: input.MessageID,
		RecipientEmail:    input.Email,
		Timestamp:         ts,
		BounceType:        bounceType,
		ClickedURL:        input.URL,
		Payload:           string(c.Body()),
	})
	if err != nil {
		if errors.Is(err, sequence.ErrMessageNotFound) {
			wc.Logger.Printf("webhook %s event matched no message (message_id=%q email=%q)",
				eventType, input.MessageID, input.Email)
			return c.JSON(fiber.Map{"processed": false, "reason": "message not found"})
		}
		utils.LogError(err, "webhook processing failed", map[string]interface{}{
			"event_type": eventType,
			"message_id": input.MessageID,
		})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to process event", err)
	}

	return c.JSON(utils.SuccessResponse(result))
}
