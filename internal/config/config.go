package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds every runtime knob of the service. Values come from the
// environment with sensible single-node defaults.
type Config struct {
	Port        string `env:"PORT" env-default:"5001"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	DBDriver string `env:"DB_DRIVER" env-default:"sqlite"`
	DBDSN    string `env:"DB_DSN" env-default:"blinkchat.db"`

	UploadDir string `env:"UPLOAD_DIR" env-default:"uploads"`

	RetentionWindow time.Duration `env:"RETENTION_WINDOW" env-default:"1m"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" env-default:"1m"`

	AMQPURL      string `env:"AMQP_URL" env-default:""`
	AMQPExchange string `env:"AMQP_EXCHANGE" env-default:"blinkchat.events"`

	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:""`

	DebugRoutes bool `env:"DEBUG_ROUTES" env-default:"false"`
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or postgres)", c.DBDriver)
	}
	if c.RetentionWindow <= 0 {
		return fmt.Errorf("RETENTION_WINDOW must be positive, got %s", c.RetentionWindow)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	return nil
}
