package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds the environment driven configuration for the pipeline CLI.
type Config struct {
	// Backend
	APIBaseURL string `env:"SVIDANKA_API_URL" envDefault:"http://localhost:8080"`

	// Identity: either a backend-issued token or explicit uid/email
	AuthToken string `env:"SVIDANKA_AUTH_TOKEN"`
	UserUID   string `env:"SVIDANKA_USER_UID"`
	UserEmail string `env:"SVIDANKA_USER_EMAIL"`

	// Pipeline behavior
	SizeThresholdMB float64       `env:"SVIDANKA_SIZE_THRESHOLD_MB" envDefault:"5"`
	UploadTimeout   time.Duration `env:"SVIDANKA_UPLOAD_TIMEOUT" envDefault:"120s"`
	SubmitTimeout   time.Duration `env:"SVIDANKA_SUBMIT_TIMEOUT" envDefault:"120s"`

	LogLevel string `env:"SVIDANKA_LOG_LEVEL" envDefault:"info"`
}

// Load reads .env if present, then parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse env config")
	}

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		return nil, errors.New("SVIDANKA_API_URL must not be empty")
	}
	if cfg.AuthToken == "" && (cfg.UserUID == "" || cfg.UserEmail == "") {
		return nil, errors.New("set SVIDANKA_AUTH_TOKEN or both SVIDANKA_USER_UID and SVIDANKA_USER_EMAIL")
	}
	if cfg.SizeThresholdMB <= 0 {
		return nil, errors.New("SVIDANKA_SIZE_THRESHOLD_MB must be positive")
	}

	return cfg, nil
}
