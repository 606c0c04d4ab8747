package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds application configuration
type Config struct {
	Port            string
	DBDriver        string
	DBConn          string
	LogLevel        string
	JWTSecret       string
	BcryptCost      int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
	CORSOrigins     []string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	ReminderSchedule string
	ReminderAfter    time.Duration
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBDriver:         strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBConn:           getEnv("DB_CONN", "host=localhost port=5432 user=microfund password=microfund dbname=microfund sslmode=disable"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:        strings.TrimSpace(os.Getenv("JWT_SECRET")),
		CORSOrigins:      parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SenderEmail:      getEnv("SENDER_EMAIL", "no-reply@microfund.africa"),
		ReminderSchedule: getEnv("REMINDER_SCHEDULE", "0 9 * * *"),
	}

	var err error
	if cfg.BcryptCost, err = getEnvInt("BCRYPT_COST", bcrypt.DefaultCost); err != nil {
		return nil, err
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", 10); err != nil {
		return nil, err
	}
	rps := getEnv("RATE_LIMIT_RPS", "5")
	if cfg.RateLimitRPS, err = strconv.ParseFloat(rps, 64); err != nil || cfg.RateLimitRPS <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS %q", rps)
	}
	reminderDays, err := getEnvInt("REMINDER_AFTER_DAYS", 30)
	if err != nil {
		return nil, err
	}
	cfg.ReminderAfter = time.Duration(reminderDays) * 24 * time.Hour

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}
	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

// MailEnabled reports whether SMTP notifications are configured
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
