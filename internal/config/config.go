// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the photostrip service configuration. A .env file, when present,
// is loaded into the environment before parsing.
type Config struct {
	Port     string `env:"PHOTOSTRIP_PORT" envDefault:"8888"`
	DBPath   string `env:"PHOTOSTRIP_DB" envDefault:"photostrip.db"`
	MediaDir string `env:"PHOTOSTRIP_MEDIA_DIR" envDefault:"media"`
	CacheDir string `env:"PHOTOSTRIP_CACHE_DIR" envDefault:".cache"`

	EventLabel  string `env:"PHOTOSTRIP_EVENT_LABEL"`
	TemplateRef string `env:"PHOTOSTRIP_TEMPLATE_REF"`

	SettingsURL  string        `env:"PHOTOSTRIP_SETTINGS_URL"`
	UploadURL    string        `env:"PHOTOSTRIP_UPLOAD_URL"`
	PollInterval time.Duration `env:"PHOTOSTRIP_POLL_INTERVAL" envDefault:"30s"`
	GraceDelay   time.Duration `env:"PHOTOSTRIP_GRACE_DELAY" envDefault:"3s"`
}

// Load parses the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
