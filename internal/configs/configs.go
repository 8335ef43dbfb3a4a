/*
Package configs is responsible for loading and parsing the client's configuration settings.

Settings come from operating system environment variables: the running environment, the
chat server URL, the display name, the local view API port and its CORS allowed origins,
and the outbound send queue size. Command-line flags may override them after loading.
*/
package configs

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

const (
	DefaultEnvironment   = "development"
	DefaultServerURL     = "ws://localhost:8080/ws"
	DefaultSendQueueSize = 256

	minViewPort = 1024
	maxViewPort = 65535
)

// AppConfig contains all configuration parameters required for the client to run.
type AppConfig struct {
	// General Settings
	Environment string

	// Chat Connection Settings
	ServerURL     string
	Username      string
	SendQueueSize int

	// Local View API Settings. ViewPort 0 disables the API.
	ViewPort       int
	AllowedOrigins []string
}

// IsDevelopment reports whether the client runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == DefaultEnvironment
}

// ViewEnabled reports whether the local view API should be served.
func (c *AppConfig) ViewEnabled() bool {
	return c.ViewPort != 0
}

// LoadConfig reads and parses the client configuration from environment variables.
// It applies defaults, converts types and validates the result.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = DefaultEnvironment
	}

	// --- Chat Connection Settings ---
	cfg.ServerURL = os.Getenv("SERVER_URL")
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}

	cfg.Username = strings.TrimSpace(os.Getenv("CHAT_USERNAME"))

	queueStr := os.Getenv("SEND_QUEUE_SIZE")
	if queueStr == "" {
		cfg.SendQueueSize = DefaultSendQueueSize
	} else {
		size, err := strconv.Atoi(queueStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SEND_QUEUE_SIZE environment variable: %w", err)
		}
		cfg.SendQueueSize = size
	}

	// --- Local View API Settings ---
	portStr := os.Getenv("VIEW_PORT")
	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid VIEW_PORT environment variable: %w", err)
		}
		cfg.ViewPort = port
	}

	cfg.AllowedOrigins = splitOrigins(os.Getenv("ALLOWED_ORIGINS"))

	return cfg, nil
}

// Validate checks the loaded configuration. It is separate from LoadConfig so that
// command-line overrides are applied before validation.
func (c *AppConfig) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("CHAT_USERNAME environment variable or --name flag is required")
	}

	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server url %q: %w", c.ServerURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server url %q must use the ws or wss scheme", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server url %q has no host", c.ServerURL)
	}

	if c.SendQueueSize <= 0 {
		return fmt.Errorf("send queue size %d must be positive", c.SendQueueSize)
	}

	if c.ViewPort != 0 && (c.ViewPort < minViewPort || c.ViewPort > maxViewPort) {
		return fmt.Errorf("view port %d is outside the recommended range (%d-%d) to avoid privileged ports", c.ViewPort, minViewPort, maxViewPort)
	}

	return nil
}

func splitOrigins(s string) []string {
	origins := []string{}
	for _, origin := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
