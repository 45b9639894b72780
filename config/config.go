package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/emzola/libris/internal/jsonlog"
	"github.com/emzola/libris/internal/validator"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config defines the app configuration.
type Config struct {
	Server struct {
		Port int    `yaml:"port" env:"PORT" env-default:"4000"`
		Env  string `yaml:"env" env:"ENV" env-default:"development"`
	} `yaml:"server"`
	Database struct {
		DSN          string `yaml:"dsn" env:"DSN"`
		MaxOpenConns int    `yaml:"max_open_conns" env:"MAXOPENCONNS" env-default:"25"`
		MaxIdleConns int    `yaml:"max_idle_conns" env:"MAXIDLECONNS" env-default:"25"`
		MaxIdleTime  string `yaml:"max_idle_time" env:"MAXIDLETIME" env-default:"15m"`
	} `yaml:"database"`
	Logger struct {
		Level string `yaml:"level" env:"LOGLEVEL" env-default:"info"`
	} `yaml:"logger"`
	S3 struct {
		AccessKeyID     string `yaml:"access_key_id" env:"ACCESSKEYID"`
		SecretAccessKey string `yaml:"secret_access_key" env:"SECRETACCESSKEY"`
		Region          string `yaml:"region" env:"REGION"`
		Bucket          string `yaml:"bucket" env:"BUCKET"`
	} `yaml:"s3"`
	Limiter struct {
		RPS     float64 `yaml:"rps" env:"RPS" env-default:"4"`
		Burst   int     `yaml:"burst" env:"BURST" env-default:"8"`
		Enabled bool    `yaml:"enabled" env:"LENABLED"`
	} `yaml:"limiter"`
	Cors struct {
		TrustedOrigins []string `yaml:"trusted_origins" env:"TRUSTEDORIGINS" env-separator:" "`
	} `yaml:"cors"`
	Metrics struct {
		Enabled bool `yaml:"enabled" env:"MENABLED"`
	} `yaml:"metrics"`
	BasicAuth struct {
		Username     string `yaml:"username" env:"USERNAME"`
		PasswordHash string `yaml:"password_hash" env:"PASSWORDHASH"`
	} `yaml:"basic_auth"`
}

// CoversEnabled reports whether cover images can be stored.
func (c Config) CoversEnabled() bool {
	return c.S3.Bucket != ""
}

// Decode builds the configuration. Variables from a .env file in the working directory
// are loaded first; then the YAML file at path is read if it exists, and environment
// variables override it. Bool switches default to on and must be turned off explicitly.
func Decode(path string) (Config, error) {
	var cfg Config
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	cfg.Limiter.Enabled = true
	cfg.Metrics.Enabled = true
	var err error
	if _, statErr := os.Stat(path); path != "" && statErr == nil {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	v := validator.New()
	v.Check(c.Server.Port > 0 && c.Server.Port <= 65535, "server.port", "must be a valid TCP port")
	v.Check(validator.PermittedValue(c.Server.Env, "development", "staging", "production"), "server.env", "must be development, staging or production")
	_, err := time.ParseDuration(c.Database.MaxIdleTime)
	v.Check(err == nil, "database.max_idle_time", "must be a duration")
	_, err = jsonlog.ParseLevel(c.Logger.Level)
	v.Check(err == nil, "logger.level", "must be info, warn, error, fatal or off")
	v.Check(c.Limiter.RPS > 0, "limiter.rps", "must be greater than zero")
	v.Check(c.Limiter.Burst > 0, "limiter.burst", "must be greater than zero")
	if c.CoversEnabled() {
		v.Check(c.S3.Region != "", "s3.region", "must be provided when a bucket is set")
	}
	if !v.Valid() {
		return fmt.Errorf("invalid config: %v", v.Errors)
	}
	return nil
}
