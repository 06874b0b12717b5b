// Package config loads expedit settings from an optional YAML file, a .env
// file and EXPEDIT_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/alexanderramin/expedit/internal/api"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/resolver"
)

const envPrefix = "EXPEDIT"

// Cache backends for version history.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	DB       DBConfig       `mapstructure:"db"`
	History  HistoryConfig  `mapstructure:"history"`
	Commit   CommitConfig   `mapstructure:"commit"`
	Log      LogConfig      `mapstructure:"log"`
	Curation CurationConfig `mapstructure:"curation"`
}

type APIConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Token      string `mapstructure:"token"`
	TimeoutMs  int    `mapstructure:"timeout_ms"`
	MaxRetries int    `mapstructure:"max_retries"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type HistoryConfig struct {
	Cache      string `mapstructure:"cache"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	Shards     int    `mapstructure:"shards"`
	RedisURL   string `mapstructure:"redis_url"`
}

type CommitConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// CurationConfig stamps items created or edited through the commit step.
type CurationConfig struct {
	FlowCode             string `mapstructure:"flow_code"`
	ToBeEditedStatusCode string `mapstructure:"to_be_edited_status_code"`
}

// keys lists every setting so each one can be overridden from the
// environment without appearing in a config file.
var keys = []string{
	"api.base_url", "api.token", "api.timeout_ms", "api.max_retries",
	"db.path",
	"history.cache", "history.ttl_seconds", "history.shards", "history.redis_url",
	"commit.concurrency",
	"log.level", "log.development",
	"curation.flow_code", "curation.to_be_edited_status_code",
}

// Load reads configuration. configPath may be empty. A .env file in the
// working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for _, k := range keys {
		_ = v.BindEnv(k, envName(k))
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func setDefaults(v *viper.Viper) {
	apiDefaults := api.DefaultConfig()
	v.SetDefault("api.base_url", apiDefaults.BaseURL)
	v.SetDefault("api.timeout_ms", apiDefaults.TimeoutMs)
	v.SetDefault("api.max_retries", apiDefaults.MaxRetries)

	v.SetDefault("db.path", defaultDBPath())

	v.SetDefault("history.cache", CacheMemory)
	v.SetDefault("history.ttl_seconds", 900)
	v.SetDefault("history.shards", 16)
	v.SetDefault("history.redis_url", "redis://localhost:6379/0")

	v.SetDefault("commit.concurrency", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("curation.flow_code", string(domain.FlowCuration))
	v.SetDefault("curation.to_be_edited_status_code", string(domain.StatusToBeEdit))
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "expedit.db"
	}
	return filepath.Join(home, ".expedit", "expedit.db")
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	return validation.Errors{
		"api": validation.ValidateStruct(&c.API,
			validation.Field(&c.API.BaseURL, validation.Required),
			validation.Field(&c.API.TimeoutMs, validation.Required, validation.Min(1)),
			validation.Field(&c.API.MaxRetries, validation.Min(0)),
		),
		"db": validation.ValidateStruct(&c.DB,
			validation.Field(&c.DB.Path, validation.Required),
		),
		"history": validation.ValidateStruct(&c.History,
			validation.Field(&c.History.Cache, validation.Required, validation.In(CacheMemory, CacheRedis)),
			validation.Field(&c.History.TTLSeconds, validation.Required, validation.Min(1)),
			validation.Field(&c.History.Shards, validation.Required, validation.Min(1)),
			validation.Field(&c.History.RedisURL, validation.When(c.History.Cache == CacheRedis, validation.Required)),
		),
		"commit": validation.ValidateStruct(&c.Commit,
			validation.Field(&c.Commit.Concurrency, validation.Required, validation.Min(1)),
		),
		"log": validation.ValidateStruct(&c.Log,
			validation.Field(&c.Log.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		),
		"curation": validation.ValidateStruct(&c.Curation,
			validation.Field(&c.Curation.FlowCode, validation.Required),
			validation.Field(&c.Curation.ToBeEditedStatusCode, validation.Required,
				validation.By(func(v any) error {
					if !domain.ValidStatusCodes[domain.StatusCode(v.(string))] {
						return fmt.Errorf("unknown status code %q", v)
					}
					return nil
				})),
		),
	}.Filter()
}

// APIClientConfig converts the api section for api.NewClient.
func (c *Config) APIClientConfig() api.Config {
	return api.Config{
		BaseURL:    c.API.BaseURL,
		Token:      c.API.Token,
		TimeoutMs:  c.API.TimeoutMs,
		MaxRetries: c.API.MaxRetries,
	}
}

// ResolverOptions returns the stamps applied to created and edited items.
func (c *Config) ResolverOptions() resolver.Options {
	return resolver.Options{
		CurationFlowCode:     domain.FlowCode(c.Curation.FlowCode),
		ToBeEditedStatusCode: domain.StatusCode(c.Curation.ToBeEditedStatusCode),
	}
}

// HistoryTTL is the lifetime of cached version lists.
func (c *Config) HistoryTTL() time.Duration {
	return time.Duration(c.History.TTLSeconds) * time.Second
}
