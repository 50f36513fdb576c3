package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Query    QueryConfig    `mapstructure:"query"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CatalogConfig selects where the category forest comes from
type CatalogConfig struct {
	// Source is one of "postgres", "http", "file"
	Source string `mapstructure:"source"`
	File   string `mapstructure:"file"`

	BaseURL              string `mapstructure:"base_url"`
	Format               string `mapstructure:"format"` // json or html
	Timeout              int    `mapstructure:"timeout"`
	MaxRetries           int    `mapstructure:"max_retries"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`

	Locales         []string `mapstructure:"locales"`
	DefaultExpanded []string `mapstructure:"default_expanded"`
	View            string   `mapstructure:"view"`
	MaxWorkers      int      `mapstructure:"max_workers"`
}

// QueryConfig is the query logged on startup
type QueryConfig struct {
	Text   string `mapstructure:"text"`
	Status string `mapstructure:"status"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// DSN builds the pgx connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom reads config.yaml from dir. A missing file is an error.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config.yaml file not found in %s", dir)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	switch c.Catalog.Source {
	case "postgres", "http", "file":
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	if c.Catalog.Source == "file" && c.Catalog.File == "" {
		return fmt.Errorf("catalog.file is required for the file source")
	}
	if c.Catalog.Source == "http" && c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required for the http source")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("catalog.source", "postgres")
	v.SetDefault("catalog.file", "")
	v.SetDefault("catalog.base_url", "http://localhost:8081")
	v.SetDefault("catalog.format", "json")
	v.SetDefault("catalog.timeout", 30)
	v.SetDefault("catalog.max_retries", 3)
	v.SetDefault("catalog.max_requests_per_second", 5)
	v.SetDefault("catalog.locales", []string{"en", "ar"})
	v.SetDefault("catalog.default_expanded", []string{})
	v.SetDefault("catalog.view", "admin")
	v.SetDefault("catalog.max_workers", 1)

	v.SetDefault("query.text", "")
	v.SetDefault("query.status", "all")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "marketplace")
	v.SetDefault("database.user", "marketplace_user")
	v.SetDefault("database.password", "marketplace_pass")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "catalog_consumer")
	v.SetDefault("redis.min_idle_time", 120)
}
