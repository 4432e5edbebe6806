// Package config provides configuration for the OSARI service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int // Experimenter API and monitor websocket
	WSPort   int // Participant display websocket

	// Storage
	DatabaseURL string
	DataDir     string // TSV record files

	// Task loop
	FrameRateHz int
	// SimFrameInterval is the virtual frame length of simulated sessions.
	SimFrameInterval time.Duration

	// Policy
	PolicyFile    string // Optional rego file replacing the default policy
	MaxMainBlocks int

	// WebSocket settings
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		WSPort:           getEnvInt("WS_PORT", 8090),
		DatabaseURL:      getEnv("DATABASE_URL", "file:osari.db?cache=shared&mode=rwc"),
		DataDir:          getEnv("DATA_DIR", "data"),
		FrameRateHz:      getEnvInt("FRAME_RATE_HZ", 60),
		SimFrameInterval: time.Duration(getEnvInt("SIM_FRAME_INTERVAL_MS", 10)) * time.Millisecond,
		PolicyFile:       getEnv("POLICY_FILE", ""),
		MaxMainBlocks:    getEnvInt("MAX_MAIN_BLOCKS", 10),
		PingInterval:     time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WriteTimeout:     time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		ReadTimeout:      time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		MaxMessageSize:   int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
