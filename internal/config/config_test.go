package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("WHATSAPP_TOKEN", "")
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_PATH", "")
	t.Setenv("REDIS_ADDR", "")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "farmhub", cfg.MongoDB.DBName)
	assert.Equal(t, "0 20 * * 5", cfg.Reporting.DigestSchedule)
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
	assert.False(t, cfg.RateLimit.Enabled())
	assert.Equal(t, 5, cfg.RateLimit.LoginBurst)
}

func TestLoad_FromEnvFile(t *testing.T) {
	setBaseEnv(t)
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("APP_PORT")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "JWT_SECRET=" + testSecret + "\nAPP_PORT=9090\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() { os.Unsetenv("APP_PORT") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	setBaseEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_TTL", "one day")

	_, err := Load("")
	assert.ErrorContains(t, err, "JWT_TTL")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Auth:      AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour},
			MongoDB:   MongoDBConfig{URI: "mongodb://localhost:27017", DBName: "farmhub"},
			Reporting: ReportingConfig{DigestSchedule: "0 20 * * 5", Timezone: "UTC"},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT_SECRET must be provided"},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "at least 32"},
		{"missing mongo uri", func(c *Config) { c.MongoDB.URI = "" }, "MONGODB_URI"},
		{"whatsapp without phone id", func(c *Config) { c.WhatsApp.AccessToken = "tok" }, "WHATSAPP_PHONE_NUMBER_ID"},
		{"sheets without id", func(c *Config) { c.Sheets.CredentialsPath = "/creds.json"; c.Sheets.LedgerRange = "A:I" }, "GOOGLE_SHEET_LEDGER_ID"},
		{"bad timezone", func(c *Config) { c.Reporting.Timezone = "Mars/Olympus" }, "TIMEZONE"},
		{"redis without burst", func(c *Config) { c.RateLimit = RateLimitConfig{RedisAddr: "localhost:6379", LoginRate: 1} }, "LOGIN_BURST"},
	}

	require.NoError(t, valid().Validate())

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}
