package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	Debug      bool

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	JWTSecret     string
	JWTExpiration time.Duration

	// Checkout reminders fire for sessions older than ReminderAfter; the scan
	// runs every ReminderInterval.
	ReminderAfter    time.Duration
	ReminderInterval time.Duration

	// FeedWindow bounds how far back the sighting feed reaches.
	FeedWindow time.Duration
	// SightingCooldown is the per-device per-lot duplicate-report window.
	SightingCooldown time.Duration

	// VerificationCodeTTL bounds how long an emailed code stays valid.
	VerificationCodeTTL time.Duration
	// AllowedEmailDomain restricts verification emails to one campus domain.
	AllowedEmailDomain string
}

// Load reads configuration from the environment, with a .env file as
// fallback. It returns an error only for values that have no safe default.
func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env file: %v", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "720"))
	reminderHours, _ := strconv.Atoi(getEnv("REMINDER_HOURS", "3"))
	reminderIntervalMin, _ := strconv.Atoi(getEnv("REMINDER_INTERVAL_MINUTES", "5"))
	feedWindowHours, _ := strconv.Atoi(getEnv("FEED_WINDOW_HOURS", "3"))
	cooldownMin, _ := strconv.Atoi(getEnv("SIGHTING_COOLDOWN_MINUTES", "5"))
	codeTTLMin, _ := strconv.Atoi(getEnv("VERIFICATION_CODE_TTL_MINUTES", "15"))

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		Debug:      getEnv("DEBUG", "false") == "true",

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "warnabrotha"),
		DBPassword: getEnv("DB_PASSWORD", "warnabrotha"),
		DBName:     getEnv("DB_NAME", "warnabrotha"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:     jwtSecret,
		JWTExpiration: time.Duration(jwtExpHours) * time.Hour,

		ReminderAfter:    time.Duration(reminderHours) * time.Hour,
		ReminderInterval: time.Duration(reminderIntervalMin) * time.Minute,

		FeedWindow:       time.Duration(feedWindowHours) * time.Hour,
		SightingCooldown: time.Duration(cooldownMin) * time.Minute,

		VerificationCodeTTL: time.Duration(codeTTLMin) * time.Minute,
		AllowedEmailDomain:  getEnv("ALLOWED_EMAIL_DOMAIN", "ucdavis.edu"),
	}, nil
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
