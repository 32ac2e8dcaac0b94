// Package config loads service configuration from YAML with env overrides.
package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env  string
		Name string
	} `mapstructure:"app"`

	HTTP struct {
		Addr            string
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN      string
		MaxConns int32 `mapstructure:"max_conns"`
		MinConns int32 `mapstructure:"min_conns"`
	} `mapstructure:"postgres"`

	Auth struct {
		JWTSecret      string        `mapstructure:"jwt_secret"`
		AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	} `mapstructure:"auth"`

	NATS struct {
		Enabled bool
		URL     string
	} `mapstructure:"nats"`

	Ledger struct {
		MaxRetries   int           `mapstructure:"max_retries"`
		RetryBackoff time.Duration `mapstructure:"retry_backoff"`
		CallTimeout  time.Duration `mapstructure:"call_timeout"`
	} `mapstructure:"ledger"`

	// Conversions declares named cross-class conversion rules, e.g. a
	// per-material piece to gram ratio.
	Conversions []ConversionRule `mapstructure:"conversions"`

	Log struct {
		Level string
	} `mapstructure:"log"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

// ConversionRule is one directed cross-class conversion.
type ConversionRule struct {
	Name   string `mapstructure:"name"`
	From   string `mapstructure:"from"`
	To     string `mapstructure:"to"`
	Factor string `mapstructure:"factor"`
}

// Load reads configuration from path. Values can be overridden through
// APP_* environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	v.SetDefault("app.env", "development")
	v.SetDefault("app.name", "dapur")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 5*time.Second)
	v.SetDefault("postgres.max_conns", 25)
	v.SetDefault("postgres.min_conns", 5)
	v.SetDefault("auth.access_token_ttl", 24*time.Hour)
	v.SetDefault("ledger.max_retries", 3)
	v.SetDefault("ledger.retry_backoff", 50*time.Millisecond)
	v.SetDefault("ledger.call_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.enabled", true)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
