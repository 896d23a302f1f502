package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Storage backend selectors.
const (
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string

	// StorageBackend selects the NodeStore medium: badger or postgres.
	StorageBackend string
	// DataDir is the BadgerDB directory for the badger backend.
	DataDir string
	// DatabaseURL is the connection string for the postgres backend.
	DatabaseURL string
	// TablePrefix namespaces the postgres table per environment.
	TablePrefix string

	// SettingsPath optionally points at a YAML settings file.
	SettingsPath string

	// LogDir, when set, mirrors logs into timestamped files there.
	LogDir string

	// Debug enables verbose logging.
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    env,
		CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
		StorageBackend: getEnv("STORAGE_BACKEND", BackendBadger),
		DataDir:        getEnv("DATA_DIR", "./data"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		TablePrefix:    getTablePrefix(env),
		SettingsPath:   getEnv("SETTINGS_FILE", ""),
		LogDir:         getEnv("LOG_DIR", ""),
		Debug:          getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// Settings holds repository tunables that operators adjust per
// deployment, loaded from an optional YAML file.
type Settings struct {
	// DefaultAccessLevel applies when a create request omits the level.
	DefaultAccessLevel string `yaml:"default_access_level"`

	// SearchLimit caps search results when the caller sets no limit.
	SearchLimit int `yaml:"search_limit"`

	// MaxNameLength overrides the compiled-in name length cap.
	MaxNameLength int `yaml:"max_name_length"`
}

// DefaultSettings returns the built-in tunables.
func DefaultSettings() *Settings {
	return &Settings{
		DefaultAccessLevel: "restricted",
		SearchLimit:        50,
		MaxNameLength:      MaxNodeNameLength,
	}
}

// LoadSettings reads the YAML settings file at path, filling unset
// fields from defaults. An empty path yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	var file Settings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if file.DefaultAccessLevel != "" {
		s.DefaultAccessLevel = file.DefaultAccessLevel
	}
	if file.SearchLimit > 0 {
		s.SearchLimit = file.SearchLimit
	}
	if file.MaxNameLength > 0 {
		s.MaxNameLength = file.MaxNameLength
	}
	return s, nil
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
