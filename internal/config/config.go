// Package config loads application configuration from environment variables.
//
// Every setting has a sane default so the server starts with zero
// configuration in development. A .env file in the working directory is
// loaded first (and silently skipped if absent), then envconfig populates
// the typed struct — so real environment variables always win over .env.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Assistant AssistantConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
}

// AuthConfig holds token signing and OAuth settings.
//
// JWTSecret must be a long random string (openssl rand -hex 32). When it is
// unset the auth routes are not registered and the server runs read-only.
// The GitHub fields are optional; the OAuth login routes are registered only
// when both client ID and secret are present.
type AuthConfig struct {
	JWTSecret          string        `envconfig:"JWT_SECRET" default:""`
	TokenTTL           time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	GitHubClientID     string        `envconfig:"GITHUB_CLIENT_ID" default:""`
	GitHubClientSecret string        `envconfig:"GITHUB_CLIENT_SECRET" default:""`
	GitHubCallbackURL  string        `envconfig:"GITHUB_CALLBACK_URL" default:""`
}

// StorageConfig holds database and upload paths.
type StorageConfig struct {
	DBPath    string `envconfig:"DB_PATH" default:"data/rewear.db"`
	UploadDir string `envconfig:"UPLOAD_DIR" default:"uploads"`
}

// AssistantConfig holds settings for the external AI-assistant service.
type AssistantConfig struct {
	URL            string        `envconfig:"ASSISTANT_URL" default:"http://localhost:8000"`
	RequestTimeout time.Duration `envconfig:"ASSISTANT_TIMEOUT" default:"10s"`
	HealthTimeout  time.Duration `envconfig:"ASSISTANT_HEALTH_TIMEOUT" default:"5s"`
	HealthInterval time.Duration `envconfig:"ASSISTANT_HEALTH_INTERVAL" default:"30s"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
