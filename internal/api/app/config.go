package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	JWT struct {
		// SecretKey signs and verifies access tokens. Must be at least 32
		// bytes of entropy.
		SecretKey string `envconfig:"SECRET_KEY" required:"true"`

		ValidIssuer   string `envconfig:"VALID_ISSUER" default:"minimal-api"`
		ValidAudience string `envconfig:"VALID_AUDIENCE" default:"minimal-api-clients"`

		// ExpireMinutes is the access-token lifetime. The refresh window is
		// a fixed 7-day policy constant and is not configurable.
		ExpireMinutes int `envconfig:"EXPIRE" default:"10"`
	}

	DatabaseFile string `envconfig:"DATABASE_FILE" default:"minimal-api.db"`

	Env       string `envconfig:"ENV" default:"dev"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	Port                 int           `envconfig:"PORT" default:"8080"`
	ShutdownGracePeriod  time.Duration `envconfig:"SHUTDOWN_GRACE_PERIOD" default:"10s"`
	HousekeepingInterval time.Duration `envconfig:"HOUSEKEEPING_INTERVAL" default:"1h"`
}

// AccessTokenTTL converts the configured minutes to a duration.
func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpireMinutes) * time.Minute
}

// LoadConfig reads configuration from the environment, with an optional
// .env file for local development.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process config from environment: %w", err)
	}
	return cfg, nil
}
