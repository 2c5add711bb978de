package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	controller "github.com/AnasElkhodary-69/sales-master-sub001/controllers"
	"github.com/AnasElkhodary-69/sales-master-sub001/middleware"
	"github.com/AnasElkhodary-69/sales-master-sub001/sequence"
	"github.com/AnasElkhodary-69/sales-master-sub001/utils"
)

// Deps carries the shared services the route handlers need.
type Deps struct {
	DB         *gorm.DB
	Scheduler  *sequence.Scheduler
	Reactor    *sequence.Reactor
	Classifier sequence.Classifier
	Tracker    *utils.Tracker
}

func SetupRoutes(app *fiber.App, deps Deps) {
	routeLogger := log.New(os.Stdout, "ROUTES: ", log.Ldate|log.Ltime|log.Lshortfile)

	contactController := controller.NewContactController(deps.DB, log.New(os.Stdout, "CONTACT: ", log.LstdFlags), deps.Classifier)
	campaignController := controller.NewCampaignController(deps.DB, log.New(os.Stdout, "CAMPAIGN: ", log.LstdFlags))
	templateController := controller.NewTemplateController(deps.DB, log.New(os.Stdout, "TEMPLATE: ", log.LstdFlags))
	sequenceController := controller.NewSequenceController(deps.DB, log.New(os.Stdout, "SEQUENCE: ", log.LstdFlags), deps.Scheduler)
	webhookController := controller.NewWebhookController(deps.DB, log.New(os.Stdout, "WEBHOOK: ", log.LstdFlags), deps.Reactor)
	trackingController := controller.NewTrackingController(log.New(os.Stdout, "TRACKING: ", log.LstdFlags), deps.Reactor, deps.Tracker)
	dashboardController := controller.NewDashboardController(deps.DB, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Contact routes
	contacts := api.Group("/contacts")
	contacts.Post("/", contactController.CreateContact)
	contacts.Get("/", contactController.ListContacts)
	contacts.Get("/:id", contactController.GetContact)
	contacts.Put("/:id", contactController.UpdateContact)
	contacts.Delete("/:id", contactController.DeleteContact)
	contacts.Post("/:id/classify", contactController.ClassifyContact)
	contacts.Post("/:id/unsubscribe", contactController.UnsubscribeContact)

	// Campaign routes
	campaigns := api.Group("/campaigns")
	campaigns.Post("/", campaignController.CreateCampaign)
	campaigns.Get("/", campaignController.ListCampaigns)
	campaigns.Get("/:id", campaignController.GetCampaign)
	campaigns.Post("/:id/start", campaignController.StartCampaign)
	campaigns.Post("/:id/pause", campaignController.PauseCampaign)
	campaigns.Get("/:id/stats", campaignController.GetCampaignStats)

	// Template routes
	templates := api.Group("/templates")
	templates.Post("/", templateController.CreateTemplate)
	templates.Get("/", templateController.ListTemplates)
	templates.Get("/:id", templateController.GetTemplate)
	templates.Put("/:id", templateController.UpdateTemplate)
	templates.Post("/:id/deactivate", templateController.DeactivateTemplate)

	// Sequence definition and enrollment routes
	sequences := api.Group("/sequences")
	sequences.Post("/", sequenceController.CreateDefinition)
	sequences.Get("/", sequenceController.ListDefinitions)
	sequences.Get("/:id", sequenceController.GetDefinition)

	enrollments := api.Group("/enrollments")
	enrollments.Post("/", sequenceController.Enroll)
	enrollments.Get("/:id", sequenceController.GetEnrollment)
	enrollments.Delete("/:contactID/:campaignID", sequenceController.Unenroll)

	// Dashboard routes
	dashboard := api.Group("/dashboard")
	dashboard.Get("/stats", dashboardController.GetStats)
	dashboard.Get("/upcoming", dashboardController.GetUpcomingSends)

	// Webhook and tracking endpoints stay outside the protected group;
	// providers and mail clients cannot send bearer tokens.
	webhooks := app.Group("/webhooks", middleware.WebhookRateLimiter())
	webhooks.Post("/events", webhookController.HandleProviderWebhook)

	track := app.Group("/track", middleware.WebhookRateLimiter())
	track.Get("/open/:messageID/:token", trackingController.HandleOpenTracking)
	track.Get("/click/:messageID/:token", trackingController.HandleClickTracking)

	routeLogger.Println("Routes initialized successfully")
}
