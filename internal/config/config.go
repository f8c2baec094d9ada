package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// minJWTSecretLength guards against trivially guessable signing keys.
const minJWTSecretLength = 32

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	MongoDB   MongoDBConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// AuthConfig holds JWT signing options.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
// Notifications are disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	OpsNumber     string
}

// Enabled reports whether outbound WhatsApp messages can be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != ""
}

// SheetsConfig contains configuration required to export the settlement ledger.
// The export is disabled when CredentialsPath is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	LedgerRange     string
}

// Enabled reports whether the ledger export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	DigestSchedule string
	Timezone       string
}

// RateLimitConfig configures the login token bucket. Disabled when RedisAddr is empty.
type RateLimitConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LoginRate     float64
	LoginBurst    int
}

// Enabled reports whether rate limiting is backed by Redis.
func (c RateLimitConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// LogConfig controls logger verbosity.
type LogConfig struct {
	Level string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	ttl, err := time.ParseDuration(getenvWithDefault("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("parse JWT_TTL: %w", err)
	}

	redisDB, err := strconv.Atoi(getenvWithDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_DB: %w", err)
	}

	loginRate, err := strconv.ParseFloat(getenvWithDefault("LOGIN_RATE_PER_SECOND", "0.2"), 64)
	if err != nil {
		return nil, fmt.Errorf("parse LOGIN_RATE_PER_SECOND: %w", err)
	}

	loginBurst, err := strconv.Atoi(getenvWithDefault("LOGIN_BURST", "5"))
	if err != nil {
		return nil, fmt.Errorf("parse LOGIN_BURST: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  ttl,
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "farmhub"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			OpsNumber:     os.Getenv("OPS_WHATSAPP_NUMBER"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_LEDGER_ID"),
			LedgerRange:     getenvWithDefault("GOOGLE_SHEET_LEDGER_RANGE", "Settlements!A:I"),
		},
		Reporting: ReportingConfig{
			DigestSchedule: getenvWithDefault("STORAGE_DIGEST_CRON", "0 20 * * 5"),
			Timezone:       getenvWithDefault("TIMEZONE", "Africa/Kampala"),
		},
		RateLimit: RateLimitConfig{
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       redisDB,
			LoginRate:     loginRate,
			LoginBurst:    loginBurst,
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Auth.JWTSecret == "":
		return errors.New("JWT_SECRET must be provided")
	case len(c.Auth.JWTSecret) < minJWTSecretLength:
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	case c.Auth.TokenTTL <= 0:
		return errors.New("JWT_TTL must be positive")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}

	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Sheets.Enabled() {
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("GOOGLE_SHEET_LEDGER_ID must be provided")
		}
		if c.Sheets.LedgerRange == "" {
			return errors.New("GOOGLE_SHEET_LEDGER_RANGE must not be empty")
		}
	}

	if c.Reporting.DigestSchedule == "" {
		return errors.New("STORAGE_DIGEST_CRON must be provided")
	}

	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if c.RateLimit.Enabled() {
		if c.RateLimit.LoginRate <= 0 {
			return errors.New("LOGIN_RATE_PER_SECOND must be positive")
		}
		if c.RateLimit.LoginBurst <= 0 {
			return errors.New("LOGIN_BURST must be positive")
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
