package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"

	"github.com/AnasElkhodary-69/sales-master-sub001/config"
	"github.com/AnasElkhodary-69/sales-master-sub001/middleware"
	"github.com/AnasElkhodary-69/sales-master-sub001/routes"
	"github.com/AnasElkhodary-69/sales-master-sub001/sequence"
	"github.com/AnasElkhodary-69/sales-master-sub001/store"
	"github.com/AnasElkhodary-69/sales-master-sub001/utils"
	"github.com/AnasElkhodary-69/sales-master-sub001/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "SERVER: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Sentry for error reporting
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Stores
	contacts := store.NewContactStore(config.DB)
	campaigns := store.NewCampaignStore(config.DB)
	sequences := store.NewSequenceStore(config.DB)
	templates := store.NewTemplateStore(config.DB)
	enrollments := store.NewEnrollmentStore(config.DB)
	messages := store.NewMessageStore(config.DB)

	// Services
	var classifier sequence.Classifier
	if config.AppConfig.Classifier.APIURL != "" {
		classifier = utils.NewRiskClassifier(config.AppConfig.Classifier.APIURL, config.AppConfig.Classifier.APIKey)
	}

	var budget sequence.SendBudget
	if config.AppConfig.Redis.Enabled {
		budget = utils.NewRedisSendBudget(redis.NewClient(&redis.Options{
			Addr:     config.AppConfig.Redis.Address,
			Password: config.AppConfig.Redis.Password,
			DB:       config.AppConfig.Redis.DB,
		}))
	}

	mailer := utils.NewSMTPMailer(
		config.AppConfig.SMTP.Host,
		config.AppConfig.SMTP.Port,
		config.AppConfig.SMTP.Username,
		config.AppConfig.SMTP.Password,
	)
	tracker := utils.NewTracker(config.AppConfig.TrackingBaseURL, config.AppConfig.TrackingSecret)

	// Sequence engine
	engineLogger := log.New(os.Stdout, "SEQUENCE: ", log.LstdFlags)
	resolver := sequence.NewTemplateResolver(templates, engineLogger)
	delays := sequence.NewDelayCalculator(engineLogger)
	scheduler := sequence.NewScheduler(contacts, campaigns, sequences, enrollments, resolver, delays, classifier, engineLogger)
	selector := sequence.NewSelector(enrollments, engineLogger)
	executor := sequence.NewExecutor(contacts, campaigns, enrollments, messages, templates, mailer, budget, tracker.Inject, engineLogger)
	reactor := sequence.NewReactor(contacts, campaigns, enrollments, messages, engineLogger)
	reactor.OpenThreshold = config.AppConfig.OpenAlertThreshold
	reactor.OnOpenThreshold = func(contactID uint, totalOpens int) {
		utils.LogEvent("contact_highly_engaged", map[string]interface{}{
			"contact_id":  contactID,
			"total_opens": totalOpens,
		})
	}

	// Create Fiber app
	app := fiber.New()
	app.Use(middleware.CORS())

	// Workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sequenceWorker := worker.NewSequenceWorker(
		selector, executor,
		config.AppConfig.DispatchInterval,
		config.AppConfig.DispatchBatchSize,
		config.AppConfig.ReclaimAfter,
		log.New(os.Stdout, "DISPATCH: ", log.LstdFlags),
	)
	go sequenceWorker.Start(ctx)

	if config.AppConfig.IMAP.Enabled {
		replyWorker := worker.NewReplyWorker(
			config.AppConfig.IMAP, reactor,
			config.AppConfig.ReplyPollInterval,
			log.New(os.Stdout, "REPLY: ", log.LstdFlags),
		)
		go replyWorker.Start(ctx)
	}

	autoEnroller := sequence.NewAutoEnroller(contacts, campaigns, scheduler, config.AppConfig.AutoEnrollBatchSize, engineLogger)
	reconciler := worker.NewReconciler(config.DB, autoEnroller, log.New(os.Stdout, "RECONCILE: ", log.LstdFlags))
	cronJobs := reconciler.Start()
	defer cronJobs.Stop()

	// Setup routes
	routes.SetupRoutes(app, routes.Deps{
		DB:         config.DB,
		Scheduler:  scheduler,
		Reactor:    reactor,
		Classifier: classifier,
		Tracker:    tracker,
	})

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
