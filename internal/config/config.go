package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultTrendWindowDays is the trend window used when TREND_WINDOW_DAYS is unset.
const DefaultTrendWindowDays = 7

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port                 string
	DatabaseURL          string
	SQLitePath           string
	LocalTimezone        *time.Location
	TrendWindowDays      int
	DigestCron           string
	BackupCron           string
	BackupDir            string
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string
	OwnerWhatsAppNumber  string
	OpenAIAPIKey         string
}

// Load reads configuration values and prepares defaults where applicable.
func Load() *Config {
	_ = godotenv.Load()

	timezoneName := getenvDefault("LOCAL_TIMEZONE", "Local")
	location, err := time.LoadLocation(timezoneName)
	if err != nil {
		log.Printf("config: invalid LOCAL_TIMEZONE %q, defaulting to system local: %v", timezoneName, err)
		location = time.Local
	}

	windowDays := ParseIntEnv("TREND_WINDOW_DAYS", DefaultTrendWindowDays)
	if windowDays < 1 {
		log.Printf("config: TREND_WINDOW_DAYS must be positive, using %d", DefaultTrendWindowDays)
		windowDays = DefaultTrendWindowDays
	}

	return &Config{
		Port:                 getenvDefault("PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		SQLitePath:           getenvDefault("SQLITE_PATH", "vitaltrack.db"),
		LocalTimezone:        location,
		TrendWindowDays:      windowDays,
		DigestCron:           getenvDefault("DIGEST_CRON", "0 8 * * *"),
		BackupCron:           getenvDefault("BACKUP_CRON", "0 2 * * *"),
		BackupDir:            strings.TrimSpace(os.Getenv("BACKUP_DIR")),
		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		OwnerWhatsAppNumber:  os.Getenv("OWNER_WHATSAPP_NUMBER"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
	}
}

func getenvDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}

// ParseIntEnv returns the integer value for an environment variable or the provided default.
func ParseIntEnv(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as int: %v", key, value, err)
		return def
	}
	return parsed
}
