package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"yogastore-backend/utils"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string `env:"PORT,default=8080"`
	DatabaseURL string `env:"DB_URL"`
	StoreDriver string `env:"STORE_DRIVER,default=postgres"`
	RedisURL    string `env:"REDIS_URL"`

	JWTSecret      string `env:"JWT_SECRET"`
	JWTExpiryHours int    `env:"JWT_EXPIRY_HOURS,default=24"`
	BcryptCost     int    `env:"BCRYPT_COST,default=14"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`

	LoginRatePerSec float64 `env:"LOGIN_RATE_PER_SEC,default=1"`
	LoginBurst      int     `env:"LOGIN_BURST,default=5"`

	ReconcileSchedule string `env:"RECONCILE_SCHEDULE,default=0 3 * * *"`

	TwilioAccountSID     string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken      string `env:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber    string `env:"TWILIO_PHONE_NUMBER"`
	TwilioWhatsAppNumber string `env:"TWILIO_WHATSAPP_NUMBER"`

	// Comma separated.
	CORSOrigins string `env:"CORS_ORIGINS,default=http://localhost:3000"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DB_URL is required for the postgres store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.JWTSecret == "" {
		if c.StoreDriver != DriverMemory {
			return errors.New("JWT_SECRET not set")
		}
		// Tokens from a throwaway in-memory run are not meant to outlive it.
		c.JWTSecret = utils.GenerateJWTSecret()
		logrus.Warn("JWT_SECRET not set, using a random secret for this run")
	}
	if c.JWTExpiryHours <= 0 {
		return errors.New("JWT_EXPIRY_HOURS must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST %d out of range", c.BcryptCost)
	}
	return nil
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.JWTExpiryHours) * time.Hour
}

func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}

func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
