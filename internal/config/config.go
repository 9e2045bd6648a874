package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	Env                   string
	HTTPAddr              string
	ServerBaseURL         string
	StateDir              string
	TerminalRole          string
	RabbitMQURL           string
	DashboardPollInterval time.Duration
	HTTPTimeout           time.Duration
	WSHeartbeatInterval   time.Duration
	CorsAllowedOrigins    []string
}

// Terminal roles. A guest terminal is bolted to one table; a staff terminal
// also runs the dashboard poller.
const (
	RoleGuest = "guest"
	RoleStaff = "staff"
)

func Load() Config {
	return Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8086"),
		ServerBaseURL:         getEnv("SERVER_BASE_URL", "http://localhost:8000"),
		StateDir:              getEnv("STATE_DIR", "./state"),
		TerminalRole:          getEnv("TERMINAL_ROLE", RoleGuest),
		RabbitMQURL:           getEnv("RABBITMQ_URL", ""),
		DashboardPollInterval: getEnvDuration("DASHBOARD_POLL_INTERVAL", 5*time.Second),
		HTTPTimeout:           getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		WSHeartbeatInterval:   getEnvDuration("WS_HEARTBEAT_INTERVAL", 30*time.Second),
		CorsAllowedOrigins:    splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
