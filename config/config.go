// Package config holds all configuration for the application.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Environment represents the current runtime environment.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment determines the current environment. CI is auto-detected;
// the rest come from ENV.
func GetEnvironment() Environment {
	v := viper.New()
	v.AutomaticEnv()
	if v.GetString("CI") == "true" {
		return CI
	}
	switch v.GetString("ENV") {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// Config holds all configuration for the application.
type Config struct {
	ServerHost string
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	JWTSecret string

	// Media storage. An empty S3Bucket selects the local-disk store under
	// MediaRoot.
	MediaRoot    string
	MediaBaseURL string
	S3Bucket     string
	AWSRegion    string

	MigrationsDir string
}

// Load reads configuration from the environment, applies defaults, and
// validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "foodgram")
	v.SetDefault("DB_NAME", "foodgram")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MEDIA_ROOT", "./media")
	v.SetDefault("MEDIA_BASE_URL", "/media")
	v.SetDefault("MIGRATIONS_DIR", "./migrations")

	cfg := &Config{
		ServerHost:    v.GetString("SERVER_HOST"),
		ServerPort:    v.GetString("SERVER_PORT"),
		DBHost:        v.GetString("DB_HOST"),
		DBPort:        v.GetString("DB_PORT"),
		DBUser:        v.GetString("DB_USER"),
		DBPassword:    v.GetString("DB_PASSWORD"),
		DBName:        v.GetString("DB_NAME"),
		DBSSLMode:     v.GetString("DB_SSL_MODE"),
		RedisHost:     v.GetString("REDIS_HOST"),
		RedisPort:     v.GetString("REDIS_PORT"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		RedisURL:      v.GetString("REDIS_URL"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		MediaRoot:     v.GetString("MEDIA_ROOT"),
		MediaBaseURL:  v.GetString("MEDIA_BASE_URL"),
		S3Bucket:      v.GetString("S3_BUCKET_NAME"),
		AWSRegion:     v.GetString("AWS_REGION"),
		MigrationsDir: v.GetString("MIGRATIONS_DIR"),
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	var missing []string
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if GetEnvironment() == Production {
		if cfg.DBPassword == "" {
			missing = append(missing, "DB_PASSWORD")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required settings are not set: %s", strings.Join(missing, ", "))
	}
	return nil
}
