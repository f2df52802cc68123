package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"inventory/internal/inventory"
)

type Config struct {
	Env       string
	Inventory InventoryConfig
	Server    ServerConfig
	Auth      AuthConfig
	Metrics   MetricsConfig
}

type InventoryConfig struct {
	Backend     string
	File        string
	DatabaseURL string
}

type ServerConfig struct {
	Port              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	Autosave          bool
	WriteLimitPerMin  int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type MetricsConfig struct {
	Enabled bool
	Token   string
}

// Flags declares the command-line overrides shared by both binaries.
// Flag values win over the environment and the .env file.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("file", "", "inventory JSON file")
	fs.String("backend", "", "snapshot backend: file or postgres")
	fs.String("env", "", "runtime environment (development, production)")
	fs.String("port", "", "HTTP listen port")
	return fs
}

var flagKeys = map[string]string{
	"file":    "INVENTORY_FILE",
	"backend": "INVENTORY_BACKEND",
	"env":     "APP_ENV",
	"port":    "SERVER_PORT",
}

// Load reads .env from dir (when present), the environment and the parsed
// flags, in increasing order of precedence.
func Load(dir string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("INVENTORY_BACKEND", inventory.BackendFile)
	v.SetDefault("INVENTORY_FILE", "inventory.txt")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_READ_HEADER_TIMEOUT", 5*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("AUTOSAVE", true)
	v.SetDefault("RATE_LIMIT_PER_MIN", 120)
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("METRICS_ENABLED", true)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		Inventory: InventoryConfig{
			Backend:     v.GetString("INVENTORY_BACKEND"),
			File:        v.GetString("INVENTORY_FILE"),
			DatabaseURL: v.GetString("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port:              v.GetString("SERVER_PORT"),
			ReadHeaderTimeout: v.GetDuration("SERVER_READ_HEADER_TIMEOUT"),
			ShutdownTimeout:   v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			Autosave:          v.GetBool("AUTOSAVE"),
			WriteLimitPerMin:  v.GetInt("RATE_LIMIT_PER_MIN"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			TokenTTL:  v.GetDuration("JWT_TTL"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
			Token:   v.GetString("METRICS_TOKEN"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Inventory.Backend {
	case inventory.BackendFile:
		if c.Inventory.File == "" {
			return errors.New("INVENTORY_FILE is required for the file backend")
		}
	case inventory.BackendPostgres:
		if c.Inventory.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown INVENTORY_BACKEND %q", c.Inventory.Backend)
	}
	return nil
}
