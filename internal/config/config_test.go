package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := NewConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("REMINDER_AFTER_DAYS", "")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("PORT", "")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*24*time.Hour, cfg.ReminderAfter)
	assert.False(t, cfg.MailEnabled())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestNewConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"DB_DRIVER":       "mysql",
		"REQUEST_TIMEOUT": "soon",
		"BCRYPT_COST":     "99",
		"RATE_LIMIT_RPS":  "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret")
			t.Setenv(key, value)

			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}

func TestParseCSV(t *testing.T) {
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, parseCSV(" https://a.example, ,https://b.example"))
	assert.Equal(t, []string{"*"}, parseCSV(" , "))
}
