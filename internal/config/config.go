package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Store driver names accepted in STORE_DRIVER
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds all process-wide settings. Everything here is supplied
// externally; nothing is hard-coded in the binary.
type Config struct {
	ServerAddress   string `mapstructure:"SERVER_ADDRESS"`
	JWTSecret       string `mapstructure:"JWT_SECRET"`
	TokenTTLMinutes int    `mapstructure:"TOKEN_TTL_MINUTES"`
	StoreDriver     string `mapstructure:"STORE_DRIVER"`
	PostgresConn    string `mapstructure:"POSTGRES_CONN"`
	MigrationURL    string `mapstructure:"MIGRATION_URL"`
	ViewWorkers     int    `mapstructure:"VIEW_WORKERS"`
}

// Load reads configuration from an app.env file in the given path, with
// environment variables taking precedence, and validates it before the
// process starts serving.
func Load(path string) (Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_ADDRESS", ":8080")
	viper.SetDefault("TOKEN_TTL_MINUTES", 60)
	viper.SetDefault("STORE_DRIVER", DriverMemory)
	viper.SetDefault("VIEW_WORKERS", 4)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.ServerAddress == "" {
		return errors.New("config: SERVER_ADDRESS must not be empty")
	}
	if c.TokenTTLMinutes <= 0 {
		return errors.New("config: TOKEN_TTL_MINUTES must be positive")
	}
	if c.ViewWorkers <= 0 {
		return errors.New("config: VIEW_WORKERS must be positive")
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.PostgresConn == "" {
			return errors.New("config: POSTGRES_CONN is required when STORE_DRIVER is postgres")
		}
		if c.MigrationURL == "" {
			return errors.New("config: MIGRATION_URL is required when STORE_DRIVER is postgres")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}
