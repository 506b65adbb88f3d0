package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix = "WEATHERNOW"

	defaultHTTPAddress     = "0.0.0.0:3000"
	defaultAdminPassword   = "weathernow"
	defaultLogLevel        = "info"
	defaultServerURL       = "http://localhost:3000"
	defaultPollInterval    = 5 * time.Second
	defaultPollMaxInterval = 60 * time.Second
)

// AppConfig captures runtime configuration for the API server and the kiosk
// agent. AdminPassword defaults to a documented demo value; real deployments
// must override it.
type AppConfig struct {
	HTTPAddress     string
	AdminPassword   string
	LogLevel        string
	ServerURL       string
	PollInterval    time.Duration
	PollMaxInterval time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper
// instance. Variables from a local .env file are folded into the process
// environment first, when one exists.
func ApplyDefaults(configViper *viper.Viper) {
	_ = godotenv.Load()

	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("admin.password", defaultAdminPassword)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("server.url", defaultServerURL)
	configViper.SetDefault("poll.interval", defaultPollInterval)
	configViper.SetDefault("poll.max_interval", defaultPollMaxInterval)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:     configViper.GetString("http.address"),
		AdminPassword:   configViper.GetString("admin.password"),
		LogLevel:        configViper.GetString("log.level"),
		ServerURL:       configViper.GetString("server.url"),
		PollInterval:    configViper.GetDuration("poll.interval"),
		PollMaxInterval: configViper.GetDuration("poll.max_interval"),
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
	if strings.TrimSpace(c.ServerURL) == "" {
		return fmt.Errorf("server.url is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if c.PollMaxInterval < c.PollInterval {
		return fmt.Errorf("poll.max_interval must not be below poll.interval")
	}
	return nil
}

// UsesDefaultAdminPassword reports whether the demo secret is still in use.
func (c AppConfig) UsesDefaultAdminPassword() bool {
	return c.AdminPassword == defaultAdminPassword
}
