package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, loaded from environment variables.
type Config struct {
	Addr          string `env:"ADDR" envDefault:":6969"`
	ProfileDBPath string `env:"PROFILE_DB_PATH" envDefault:"./roster.db"`
	FraudDBPath   string `env:"FRAUD_DB_PATH" envDefault:"./fraud.db"`

	GridRows int `env:"GRID_ROWS" envDefault:"7"`
	GridCols int `env:"GRID_COLS" envDefault:"13"`

	RotationInterval time.Duration `env:"ROTATION_INTERVAL" envDefault:"8s"`
	RecentWindow     time.Duration `env:"RECENT_WINDOW" envDefault:"15m"`
	MultiUserWindow  time.Duration `env:"MULTI_USER_WINDOW" envDefault:"24h"`
	DeviceUserCap    int           `env:"DEVICE_USER_CAP" envDefault:"1"`

	AllowedCountry string        `env:"ALLOWED_COUNTRY" envDefault:"India"`
	GeoTimeout     time.Duration `env:"GEO_TIMEOUT" envDefault:"5s"`

	PhotoVerifyURL     string        `env:"PHOTO_VERIFY_URL"`
	PhotoVerifyTimeout time.Duration `env:"PHOTO_VERIFY_TIMEOUT" envDefault:"10s"`
	RequirePhoto       bool          `env:"REQUIRE_PHOTO" envDefault:"false"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
