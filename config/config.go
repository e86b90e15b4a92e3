// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string   `env:"APP_ENV" envDefault:"development"`
	Port        string   `env:"PORT" envDefault:"8080"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	StoreDriver string   `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI    string   `env:"MONGO_URI"`
	DBName      string   `env:"DB_NAME" envDefault:"civic"`
	JWTSecret   string   `env:"JWT_SECRET"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	Cloudinary CloudinaryConfig `envPrefix:"CLOUDINARY_"`
	S3         S3Config         `envPrefix:"S3_"`
	Gemini     GeminiConfig     `envPrefix:"GEMINI_"`
	Validation ValidationConfig `envPrefix:"VALIDATION_"`
}

type CloudinaryConfig struct {
	CloudName string `env:"CLOUD_NAME"`
	APIKey    string `env:"API_KEY"`
	APISecret string `env:"API_SECRET"`
	Folder    string `env:"FOLDER" envDefault:"civic"`
}

func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type S3Config struct {
	Bucket        string `env:"BUCKET"`
	Region        string `env:"REGION" envDefault:"us-east-1"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
	Prefix        string `env:"PREFIX"`
}

func (c S3Config) Enabled() bool { return c.Bucket != "" }

type GeminiConfig struct {
	APIKey             string `env:"API_KEY"`
	Model              string `env:"MODEL" envDefault:"gemini-1.5-flash"`
	Endpoint           string `env:"ENDPOINT" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	ServiceAccountFile string `env:"SERVICE_ACCOUNT_FILE"`
}

func (c GeminiConfig) Enabled() bool {
	return c.APIKey != "" || c.ServiceAccountFile != ""
}

type ValidationConfig struct {
	Enabled   bool          `env:"ENABLED" envDefault:"true"`
	Workers   int           `env:"WORKERS" envDefault:"2"`
	QueueSize int           `env:"QUEUE_SIZE" envDefault:"100"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Validation.Workers < 1 {
		return errors.New("VALIDATION_WORKERS must be at least 1")
	}
	if c.Validation.QueueSize < 1 {
		return errors.New("VALIDATION_QUEUE_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
