package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                 = "NOTEBIN"
	defaultHTTPAddress        = "0.0.0.0:8080"
	defaultDatabasePath       = "notebin.db"
	defaultLogLevel           = "info"
	defaultSweepInterval      = 10 * time.Second
	defaultSweepRetryInterval = 60 * time.Second
	defaultReaperMaxAge       = time.Hour
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress        string
	DatabasePath       string
	LogLevel           string
	SweepInterval      time.Duration
	SweepRetryInterval time.Duration
	ReaperMaxAge       time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("sweep.interval", defaultSweepInterval)
	configViper.SetDefault("sweep.retry_interval", defaultSweepRetryInterval)
	configViper.SetDefault("reaper.max_age", defaultReaperMaxAge)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:        configViper.GetString("http.address"),
		DatabasePath:       configViper.GetString("database.path"),
		LogLevel:           configViper.GetString("log.level"),
		SweepInterval:      configViper.GetDuration("sweep.interval"),
		SweepRetryInterval: configViper.GetDuration("sweep.retry_interval"),
		ReaperMaxAge:       configViper.GetDuration("reaper.max_age"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep.interval must be positive")
	}
	if c.SweepRetryInterval <= 0 {
		return fmt.Errorf("sweep.retry_interval must be positive")
	}
	if c.ReaperMaxAge <= 0 {
		return fmt.Errorf("reaper.max_age must be positive")
	}
	return nil
}
