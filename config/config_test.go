package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadExample(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load("config.example.yaml")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "Asia/Seoul", cfg.Booking.Location.String())
	assert.Equal(t, 4, cfg.WorkerPool.Size)
	assert.True(t, cfg.Sweeper.Enabled)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "auth:\n  jwt_secret: s\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Server.RateLimitPerSec)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 60, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, 2.0, cfg.Booking.ProbeHours)
	assert.NotNil(t, cfg.Booking.Location)
	assert.Equal(t, "memory", cfg.Verification.Backend)
	assert.Equal(t, 180, cfg.Verification.CodeTTLSeconds)
	assert.Equal(t, "reservation", cfg.AMQP.QueuePrefix)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 64, cfg.WorkerPool.QueueSize)
	assert.False(t, cfg.Sweeper.Enabled)
	assert.Equal(t, 60, cfg.Sweeper.IntervalSeconds)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_DSN", "file::memory:")
	t.Setenv("AMQP_URL", "amqp://broker")
	t.Setenv("PORT", "9090")

	cfg, err := Load(writeConfig(t, "auth:\n  jwt_secret: s\ndatabase:\n  dsn: ignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "file::memory:", cfg.Database.DSN)
	assert.Equal(t, "amqp://broker", cfg.AMQP.URL)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [not a map"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server:\n  port: 1\n"))
	assert.ErrorContains(t, err, "jwt_secret")

	_, err = Load(writeConfig(t, "auth:\n  jwt_secret: s\nbooking:\n  timezone: Mars/Olympus\n"))
	assert.ErrorContains(t, err, "booking.timezone")
}
