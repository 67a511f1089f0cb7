package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration, loaded from YAML with env overrides.
// Components receive this (or a sub-struct) through their constructors; there
// are no package-level config singletons.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	JWT           JWTConfig           `yaml:"jwt"`
	Moderation    ModerationConfig    `yaml:"moderation"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port         int      `yaml:"port"`
	Env          string   `yaml:"env"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// DatabaseConfig Postgres connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DSN builds the Postgres connection string
func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode)
}

// RedisConfig Redis connection settings
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// ElasticsearchConfig search indexing settings
type ElasticsearchConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Addresses []string `yaml:"addresses"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	PostIndex string   `yaml:"post_index"`
}

// JWTConfig token settings
type JWTConfig struct {
	Secret      string        `yaml:"secret"`
	ExpiryHours int           `yaml:"expiry_hours"`
	Expiry      time.Duration `yaml:"-"`
}

// ModerationConfig LLM provider settings for the risk classifier.
// An empty APIKey disables the LLM path entirely (rules only).
type ModerationConfig struct {
	ProviderURL    string        `yaml:"provider_url"` // OpenAI-format base URL, e.g. "https://api.openai.com/v1"
	APIKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
}

// Load reads the YAML config file and applies environment overrides
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	cfg.JWT.Expiry = time.Duration(cfg.JWT.ExpiryHours) * time.Hour
	cfg.Moderation.Timeout = time.Duration(cfg.Moderation.TimeoutSeconds) * time.Second

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "local"
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.JWT.ExpiryHours == 0 {
		cfg.JWT.ExpiryHours = 24
	}
	if cfg.Moderation.TimeoutSeconds == 0 {
		cfg.Moderation.TimeoutSeconds = 8
	}
	if cfg.Elasticsearch.PostIndex == "" {
		cfg.Elasticsearch.PostIndex = "community_posts"
	}
}

// applyEnvOverrides lets env vars win over YAML values (12-factor style)
func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Database.Host, "DB_HOST")
	overrideInt(&cfg.Database.Port, "DB_PORT")
	overrideString(&cfg.Database.User, "DB_USER")
	overrideString(&cfg.Database.Password, "DB_PASSWORD")
	overrideString(&cfg.Database.Name, "DB_NAME")
	overrideString(&cfg.Database.SSLMode, "DB_SSL_MODE")

	overrideString(&cfg.Redis.Host, "REDIS_HOST")
	overrideInt(&cfg.Redis.Port, "REDIS_PORT")
	overrideString(&cfg.Redis.Password, "REDIS_PASSWORD")

	overrideString(&cfg.JWT.Secret, "JWT_SECRET")

	overrideString(&cfg.Moderation.ProviderURL, "MODERATION_PROVIDER_URL")
	overrideString(&cfg.Moderation.APIKey, "MODERATION_API_KEY")
	overrideString(&cfg.Moderation.Model, "MODERATION_MODEL")

	overrideInt(&cfg.Server.Port, "PORT")
	overrideString(&cfg.Server.Env, "APP_ENV")
}

func overrideString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func overrideInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}
