package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all environment-driven settings for the service.
type Config struct {
	Port        string
	MongoURI    string
	MongoDB     string
	JWTSecret   string
	TokenExpiry time.Duration

	// Telegram relay settings. Either may be empty, in which case the
	// relay client runs in degraded mode and every send reports failure.
	TelegramBotToken    string
	TelegramAdminChatID string

	// RetentionDays controls the cleanup cron for old read notifications.
	// Zero disables the sweep.
	RetentionDays int
}

// LoadConfig reads configuration from a .env file (if present) and the
// process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:             getEnv("MONGO_DB", "notification_hub"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		TokenExpiry:         24 * time.Hour,
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAdminChatID: os.Getenv("TELEGRAM_ADMIN_CHAT_ID"),
	}

	if raw := os.Getenv("TOKEN_EXPIRY_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			log.WithError(err).Warn("Invalid TOKEN_EXPIRY_HOURS, using default")
		} else {
			cfg.TokenExpiry = time.Duration(hours) * time.Hour
		}
	}

	if raw := os.Getenv("NOTIFICATION_RETENTION_DAYS"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			log.WithError(err).Warn("Invalid NOTIFICATION_RETENTION_DAYS, retention sweep disabled")
		} else {
			cfg.RetentionDays = days
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
