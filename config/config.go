package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

var (
	DB        *gorm.DB
	AppConfig Config
	envLoaded bool
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
}

type IMAPConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
	UseTLS   bool   `json:"use_tls"`
}

type ClassifierConfig struct {
	APIURL string `json:"api_url"`
	APIKey string `json:"-"`
}

type Config struct {
	Environment    string `json:"environment"`
	ServerPort     string `json:"server_port"`
	JWTSecret      string `json:"-"`
	SentryDSN      string `json:"-"`
	DBHost         string `json:"db_host"`
	DBPort         string `json:"db_port"`
	DBUser         string `json:"db_user"`
	DBPassword     string `json:"-"`
	DBName         string `json:"db_name"`
	DBSSLMode      string `json:"db_ssl_mode"`
	DBMaxIdleConns int    `json:"db_max_idle_conns"`
	DBMaxOpenConns int    `json:"db_max_open_conns"`

	Redis      RedisConfig      `json:"redis"`
	SMTP       SMTPConfig       `json:"smtp"`
	IMAP       IMAPConfig       `json:"imap"`
	Classifier ClassifierConfig `json:"classifier"`

	TrackingBaseURL string `json:"tracking_base_url"`
	TrackingSecret  string `json:"-"`

	// Dispatcher tuning
	DispatchInterval    time.Duration `json:"dispatch_interval"`
	DispatchBatchSize   int           `json:"dispatch_batch_size"`
	ReclaimAfter        time.Duration `json:"reclaim_after"`
	ReplyPollInterval   time.Duration `json:"reply_poll_interval"`
	OpenAlertThreshold  int           `json:"open_alert_threshold"`
	WebhookRateLimit    int           `json:"webhook_rate_limit"`
	AutoEnrollBatchSize int           `json:"auto_enroll_batch_size"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	envLoaded = true
}

func LoadConfig() error {
	AppConfig = Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServerPort:     getEnv("SERVER_PORT", "5000"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		SentryDSN:      getEnv("SENTRY_DSN", ""),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "salesmaster"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),

		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ADDRESS", "") != "",
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
		},
		IMAP: IMAPConfig{
			Enabled:  getEnv("IMAP_HOST", "") != "",
			Host:     getEnv("IMAP_HOST", ""),
			Port:     getEnv("IMAP_PORT", "993"),
			Username: getEnv("IMAP_USERNAME", ""),
			Password: getEnv("IMAP_PASSWORD", ""),
			UseTLS:   getEnv("IMAP_USE_TLS", "true") == "true",
		},
		Classifier: ClassifierConfig{
			APIURL: getEnv("CLASSIFIER_API_URL", ""),
			APIKey: getEnv("CLASSIFIER_API_KEY", ""),
		},

		TrackingBaseURL: getEnv("TRACKING_BASE_URL", "http://localhost:5000"),
		TrackingSecret:  getEnv("TRACKING_SECRET", ""),

		DispatchInterval:   getEnvAsDuration("DISPATCH_INTERVAL", time.Minute),
		DispatchBatchSize:  getEnvAsInt("DISPATCH_BATCH_SIZE", 100),
		ReclaimAfter:       getEnvAsDuration("RECLAIM_AFTER", 10*time.Minute),
		ReplyPollInterval:  getEnvAsDuration("REPLY_POLL_INTERVAL", 2*time.Minute),
		OpenAlertThreshold: getEnvAsInt("OPEN_ALERT_THRESHOLD", 3),
		WebhookRateLimit:   getEnvAsInt("WEBHOOK_RATE_LIMIT", 300),

		AutoEnrollBatchSize: getEnvAsInt("AUTO_ENROLL_BATCH_SIZE", 200),
	}

	// Validate required configurations
	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if AppConfig.Environment == "production" {
		if AppConfig.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if AppConfig.TrackingSecret == "" {
			return fmt.Errorf("TRACKING_SECRET is required in production")
		}
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	// TranslateError maps driver duplicate-key errors onto
	// gorm.ErrDuplicatedKey, which the stores rely on for enrollment
	// dedup.
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	log.Println("🔄 Starting database migration...")
	if err := migrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("✅ Database migration completed")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		log.Printf("⚠️ Environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("Database: %s@%s:%s/%s",
		AppConfig.DBUser,
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBName)
	log.Printf("Integrations: Redis(%t), IMAP(%t), Classifier(%t)",
		AppConfig.Redis.Enabled,
		AppConfig.IMAP.Enabled,
		AppConfig.Classifier.APIURL != "")
}

func migrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Contact{},
		&models.Campaign{},
		&models.SequenceDefinition{},
		&models.SequenceStep{},
		&models.Template{},
		&models.Enrollment{},
		&models.Send{},
		&models.Message{},
		&models.WebhookEvent{},
	)
}
