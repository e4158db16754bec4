package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration. It is built once in main and
// passed to the components that need it; there is no global holder.
type Config struct {
	Addr string
	Env  string

	// Keepalive for live connections.
	PingInterval time.Duration
	PongTimeout  time.Duration

	// Per-session outbound buffer and per-connection inbound queue.
	SendBuffer    int
	InboundBuffer int

	// Notification queue between the business layer and the fan-out.
	NotifyBuffer int

	WriteTimeout time.Duration
}

// Load reads configuration from environment variables, with a .env
// file honored in development.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:          getEnv("M4E_ADDR", ":8080"),
		Env:           getEnv("M4E_ENV", "development"),
		PingInterval:  getDuration("M4E_PING_INTERVAL", 25*time.Second),
		PongTimeout:   getDuration("M4E_PONG_TIMEOUT", 10*time.Second),
		SendBuffer:    getInt("M4E_SEND_BUFFER", 64),
		InboundBuffer: getInt("M4E_INBOUND_BUFFER", 64),
		NotifyBuffer:  getInt("M4E_NOTIFY_BUFFER", 256),
		WriteTimeout:  getDuration("M4E_WRITE_TIMEOUT", 5*time.Second),
	}
}

// IsDevelopment returns true if running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
