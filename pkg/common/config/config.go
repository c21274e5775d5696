package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config is populated from PROCUREMENT_* environment variables.
type Config struct {
	BackendURL string `envconfig:"BACKEND_URL" default:"http://localhost:8080"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`

	PaymentURL string `envconfig:"PAYMENT_URL" default:"http://localhost:8080/processor"`
	PaymentKey string `envconfig:"PAYMENT_KEY" default:"sk_test_dev"`
	Currency   string `envconfig:"CURRENCY" default:"USD"`

	// Dev backend stub settings. An empty DSN selects the seeded
	// in-memory storage.
	ListenAddr     string `envconfig:"LISTEN_ADDR" default:":8080"`
	DatabaseDSN    string `envconfig:"DATABASE_DSN" default:""`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"pkg/backend/storage/migrations"`
}

func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("procurement", &c); err != nil {
		return nil, errors.Wrap(err, "process environment config")
	}
	return &c, nil
}
