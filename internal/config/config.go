package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"
)

const (
	envPrefix = "RECIPEBOOK"

	sslModeDisable = "disable"
	sslModeRequire = "require"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var Module = fx.Provide(NewConfig)

type (
	Config struct {
		Host     string `mapstructure:"HOST"`
		Port     string `mapstructure:"PORT"`
		GRPCPort string `mapstructure:"GRPC_PORT"`
		Debug    bool   `mapstructure:"DEBUG"`

		DBDriver      string        `mapstructure:"DB_DRIVER"`
		DBHost        string        `mapstructure:"DB_HOST"`
		DBPort        string        `mapstructure:"DB_PORT"`
		DBUser        string        `mapstructure:"DB_USER"`
		DBPassword    string        `mapstructure:"DB_PASSWORD"`
		DBName        string        `mapstructure:"DB_NAME"`
		DBSSLMode     string        `mapstructure:"DB_SSL_MODE"`
		DBPath        string        `mapstructure:"DB_PATH"`
		DBWaitTimeout time.Duration `mapstructure:"DB_WAIT_TIMEOUT"`

		BcryptCost         int           `mapstructure:"BCRYPT_COST"`
		TokenTTL           time.Duration `mapstructure:"TOKEN_TTL"`
		TokenPurgeSchedule string        `mapstructure:"TOKEN_PURGE_SCHEDULE"`
		LoginRate          float64       `mapstructure:"LOGIN_RATE"`
		LoginBurst         int           `mapstructure:"LOGIN_BURST"`
	}
)

var defaults = map[string]interface{}{
	"HOST":      "0.0.0.0",
	"PORT":      "1323",
	"GRPC_PORT": "9000",
	"DEBUG":     false,

	"DB_DRIVER":       DriverPostgres,
	"DB_HOST":         "0.0.0.0",
	"DB_PORT":         "5432",
	"DB_USER":         "user",
	"DB_PASSWORD":     "password",
	"DB_NAME":         "db",
	"DB_SSL_MODE":     sslModeDisable,
	"DB_PATH":         "recipebook.db",
	"DB_WAIT_TIMEOUT": "30s",

	"BCRYPT_COST":          12,
	"TOKEN_TTL":            "0s",
	"TOKEN_PURGE_SCHEDULE": "@hourly",
	"LOGIN_RATE":           1.0,
	"LOGIN_BURST":          5,
}

// NewConfig reads the configuration from RECIPEBOOK_* environment variables.
// A .env file in the working directory, if any, is loaded first.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}
	return Load(viper.New())
}

// Load fills a Config from the environment bound to v.
func Load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(envPrefix)

	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return errors.New(fmt.Sprintf("DB driver is invalid: %s", cfg.DBDriver))
	}

	validSSL := false
	for _, validValue := range []string{sslModeDisable, sslModeRequire} {
		if cfg.DBSSLMode == validValue {
			validSSL = true
			break
		}
	}
	if !validSSL {
		return errors.New(fmt.Sprintf("DB SSL mode is invalid: %s", cfg.DBSSLMode))
	}

	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return errors.New(fmt.Sprintf("bcrypt cost is out of range: %d", cfg.BcryptCost))
	}
	if cfg.TokenTTL < 0 {
		return errors.New("token TTL must not be negative")
	}
	if cfg.LoginRate <= 0 || cfg.LoginBurst <= 0 {
		return errors.New("login rate and burst must be positive")
	}

	return nil
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func (c *Config) HTTPAddr() string {
	return c.Host + ":" + c.Port
}

func (c *Config) GRPCAddr() string {
	return c.Host + ":" + c.GRPCPort
}
