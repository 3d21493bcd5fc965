package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadServer_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "MAX_STEPS", "SHUTDOWN_TIMEOUT", "CURSOR_RATE", "MDNS_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := LoadServer()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 12000, cfg.MaxSteps)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 60.0, cfg.CursorRate)
	assert.False(t, cfg.MDNSEnabled)
}

func TestLoadServer_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("MAX_STEPS", "50")
	t.Setenv("MDNS_ENABLED", "true")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")

	cfg := LoadServer()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 50, cfg.MaxSteps)
	assert.True(t, cfg.MDNSEnabled)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoadServer_IgnoresInvalid(t *testing.T) {
	t.Setenv("MAX_STEPS", "-4")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg := LoadServer()

	assert.Equal(t, 12000, cfg.MaxSteps)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoadClient_Defaults(t *testing.T) {
	for _, key := range []string{"CANVAS_URL", "CANVAS_ROOM", "WATCHDOG_INTERVAL", "STALL_THRESHOLD", "STALL_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := LoadClient()

	assert.Equal(t, "ws://localhost:3000/ws", cfg.URL)
	assert.Equal(t, "default", cfg.Room)
	assert.Equal(t, 600*time.Millisecond, cfg.WatchdogInterval)
	assert.Equal(t, 300, cfg.StallThreshold)
	assert.Equal(t, time.Second, cfg.StallTimeout)
}
