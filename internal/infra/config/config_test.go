package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/availability"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("RESERVATION_HOLD_POLICY", "")
	t.Setenv("CURRENCY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, availability.HoldSoft, cfg.HoldPolicy)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, 3, cfg.RecalcMaxAttempts)
	assert.False(t, cfg.UsesBroker())
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RESERVATION_HOLD_POLICY=strict\nHTTP_ADDR=:9999\n"), 0o600))
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("RESERVATION_HOLD_POLICY", "")
	os.Unsetenv("RESERVATION_HOLD_POLICY")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, availability.HoldStrict, cfg.HoldPolicy)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Run("store driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "oracle")
		_, err := Load(missing)
		assert.ErrorContains(t, err, "STORE_DRIVER")
	})
	t.Run("dsn required", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "postgres")
		t.Setenv("DATABASE_DSN", "")
		_, err := Load(missing)
		assert.ErrorContains(t, err, "DATABASE_DSN")
	})
	t.Run("hold policy", func(t *testing.T) {
		t.Setenv("RESERVATION_HOLD_POLICY", "maybe")
		_, err := Load(missing)
		assert.Error(t, err)
	})
	t.Run("duration", func(t *testing.T) {
		t.Setenv("VIEW_DEDUP_WINDOW", "soon")
		_, err := Load(missing)
		assert.ErrorContains(t, err, "VIEW_DEDUP_WINDOW")
	})
}
