// Package config reads process settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Server holds the settings of the canvas server process.
type Server struct {
	Port            string
	MaxSteps        int
	AllowedOrigins  string
	ShutdownTimeout time.Duration
	CursorRate      float64
	CursorBurst     int
	MDNSEnabled     bool
	MDNSInstance    string
}

// Client holds the settings of a headless canvas client.
type Client struct {
	URL              string
	Room             string
	Name             string
	WatchdogInterval time.Duration
	StallThreshold   int
	StallTimeout     time.Duration
	DemoStroke       bool
}

// LoadServer reads server settings, falling back to defaults.
func LoadServer() Server {
	hostname, _ := os.Hostname()
	return Server{
		Port:            getEnv("PORT", "3000"),
		MaxSteps:        getEnvInt("MAX_STEPS", 12000),
		AllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "*"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		CursorRate:      getEnvFloat("CURSOR_RATE", 60),
		CursorBurst:     getEnvInt("CURSOR_BURST", 30),
		MDNSEnabled:     getEnvBool("MDNS_ENABLED", false),
		MDNSInstance:    getEnv("MDNS_INSTANCE", hostname),
	}
}

// LoadClient reads client settings, falling back to defaults.
func LoadClient() Client {
	return Client{
		URL:              getEnv("CANVAS_URL", "ws://localhost:3000/ws"),
		Room:             getEnv("CANVAS_ROOM", "default"),
		Name:             getEnv("CANVAS_NAME", "replica"),
		WatchdogInterval: getEnvDuration("WATCHDOG_INTERVAL", 600*time.Millisecond),
		StallThreshold:   getEnvInt("STALL_THRESHOLD", 300),
		StallTimeout:     getEnvDuration("STALL_TIMEOUT", time.Second),
		DemoStroke:       getEnvBool("DEMO_STROKE", false),
	}
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && f > 0 {
		return f
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
