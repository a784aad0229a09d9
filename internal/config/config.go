package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"itrack-report/internal/jira"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DefaultPort is the HTTPS port of the iTrack server.
const DefaultPort = 443

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Jira       jira.Config
	Schema     Schema
	SchemaFile string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// The executable's directory wins; godotenv never overrides a variable that is already set.
	if exePath, err := os.Executable(); err == nil {
		envPath := filepath.Join(filepath.Dir(exePath), ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables")
	}

	return FromEnv()
}

// FromEnv builds the configuration from the process environment. The log
// directory is not part of it: logging.Init resolves ITRACK_LOG_DIR before
// the configuration is loaded.
func FromEnv() (*AppConfig, error) {
	port, err := getEnvInt("ITRACK_PORT", DefaultPort)
	if err != nil {
		return nil, err
	}
	timeoutSecs, err := getEnvInt("ITRACK_TIMEOUT_SECONDS", int(jira.DefaultTimeout/time.Second))
	if err != nil {
		return nil, err
	}
	delayMs, err := getEnvInt("ITRACK_REQUEST_DELAY_MS", 0)
	if err != nil {
		return nil, err
	}
	pageSize, err := getEnvInt("ITRACK_PAGE_SIZE", jira.DefaultPageSize)
	if err != nil {
		return nil, err
	}

	schemaFile := getEnv("ITRACK_SCHEMA_FILE", "")
	schema, err := LoadSchema(schemaFile)
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		Jira: jira.Config{
			Server:       jira.Address{Host: getEnv("ITRACK_SERVER", ""), Port: port},
			Username:     getEnv("ITRACK_USER", ""),
			Password:     getEnv("ITRACK_PASSWORD", ""),
			Timeout:      time.Duration(timeoutSecs) * time.Second,
			RequestDelay: time.Duration(delayMs) * time.Millisecond,
			PageSize:     pageSize,
		},
		Schema:     schema,
		SchemaFile: schemaFile,
	}

	return cfg, nil
}

// Validate checks the settings needed to reach the server.
func (c *AppConfig) Validate() error {
	if c.Jira.Server.Host == "" {
		return fmt.Errorf("ITRACK_SERVER is not set")
	}
	if c.Jira.Username == "" || c.Jira.Password == "" {
		return fmt.Errorf("ITRACK_USER and ITRACK_PASSWORD must both be set")
	}
	return nil
}

// NewClient builds a search client for this configuration.
func (c *AppConfig) NewClient() *jira.Client {
	return jira.NewClient(c.Jira, jira.NewNormalizer(c.Schema.JiraSchema(), nil))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: %q is not a non-negative integer", key, value)
	}
	return n, nil
}
