package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/AnasElkhodary-69/sales-master-sub001/sequence"
	"github.com/AnasElkhodary-69/sales-master-sub001/utils"
)

type TrackingController struct {
	Logger  *log.Logger
	Reactor *sequence.Reactor
	Tracker *utils.Tracker
}

func NewTrackingController(logger *log.Logger, reactor *sequence.Reactor, tracker *utils.Tracker) *TrackingController {
	return &TrackingController{
		Logger:  logger,
		Reactor: reactor,
		Tracker: tracker,
	}
}

// HandleOpenTracking serves the 1x1 pixel and records the open. The pixel
// is always returned, even on bad tokens, so broken mail clients don't
// render a broken image.
func (tc *TrackingController) HandleOpenTracking(c *fiber.Ctx) error {
	messageID := c.Params("messageID")
	token := c.Params("token")

	if tc.Tracker.VerifyToken(messageID, token) {
		if _, err := tc.Reactor.ApplyEvent(&sequence.Event{
			Type:              sequence.EventOpened,
			ProviderMessageID: messageID,
			Timestamp:         time.Now().UTC(),
		}); err != nil {
			tc.Logger.Printf("open tracking failed for message %s: %v", messageID, err)
		}
	} else {
		tc.Logger.Printf("open tracking rejected: bad token for message %s", messageID)
	}

	return c.Type("gif").Send(transparentPixel())
}

// HandleClickTracking records the click and redirects to the original URL.
func (tc *TrackingController) HandleClickTracking(c *fiber.Ctx) error {
	messageID := c.Params("messageID")
	token := c.Params("token")
	originalURL := c.Query("url")

	if !tc.Tracker.VerifyToken(messageID, token) {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid token")
	}
	if originalURL == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing url")
	}

	if _, err := tc.Reactor.ApplyEvent(&sequence.Event{
		Type:              sequence.EventClicked,
		ProviderMessageID: messageID,
		Timestamp:         time.Now().UTC(),
		ClickedURL:        originalURL,
	}); err != nil {
		tc.Logger.Printf("click tracking failed for message %s: %v", messageID, err)
	}

	return c.Redirect(originalURL, fiber.StatusFound)
}

func transparentPixel() []byte {
	// 1x1 transparent GIF
	return []byte{
		0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
		0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x21,
		0xf9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00,
		0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44,
		0x01, 0x00, 0x3b,
	}
}
