package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Run      RunConfig      `yaml:"run"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// gin mode: debug/release/test
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	// mysql or sqlite
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	Charset  string `yaml:"charset"`
	// sqlite file path, ":memory:" for an in-process database
	Path string `yaml:"path"`
}

type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret"`
	TokenExpiry string `yaml:"token_expiry"`
	CookieName  string `yaml:"cookie_name"`
	// Production switches the auth cookie to Secure + SameSite=None.
	Production bool `yaml:"production"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type RunConfig struct {
	// Attempts for a test run read-modify-write before giving up with a conflict.
	MaxRetries int `yaml:"max_retries"`
}

// TokenTTL parses TokenExpiry, falling back to one day.
func (a AuthConfig) TokenTTL() time.Duration {
	d, err := time.ParseDuration(a.TokenExpiry)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
	if c.Auth.TokenExpiry == "" {
		c.Auth.TokenExpiry = "24h"
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "auth_token"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Run.MaxRetries == 0 {
		c.Run.MaxRetries = 5
	}
}

// applyEnv lets deployments keep secrets out of the YAML file.
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("TESTHUB_JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := os.LookupEnv("TESTHUB_DB_PASSWORD"); ok {
		c.Database.Password = v
	}
	if v, ok := os.LookupEnv("TESTHUB_DB_DSN_PATH"); ok {
		c.Database.Path = v
	}
	if os.Getenv("TESTHUB_ENV") == "production" {
		c.Auth.Production = true
	}
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Run.MaxRetries < 1 {
		return fmt.Errorf("run.max_retries must be positive, got %d", c.Run.MaxRetries)
	}
	return nil
}
