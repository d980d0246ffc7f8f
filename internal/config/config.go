package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/newthinker/compass/internal/core"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Collectors CollectorsConfig `mapstructure:"collectors"`
	Feeds      FeedsConfig      `mapstructure:"feeds"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Validation ValidationConfig `mapstructure:"validation"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	APIKey          string `mapstructure:"api_key"`
	JobTTLHours     int    `mapstructure:"job_ttl_hours"`
	MaxJobs         int    `mapstructure:"max_jobs"`
	MaxExplanations int    `mapstructure:"max_explanations"`
}

type StorageConfig struct {
	Cold ColdStorageConfig `mapstructure:"cold"`
}

type ColdStorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// CacheConfig selects the feed response cache.
type CacheConfig struct {
	Type    string      `mapstructure:"type"` // "memory", "redis" or "none"
	MaxSize int         `mapstructure:"max_size"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type CollectorsConfig struct {
	Crypto CryptoCollectorConfig `mapstructure:"crypto"`
}

type CryptoCollectorConfig struct {
	Providers       []string `mapstructure:"providers"`
	DefaultQuote    string   `mapstructure:"default_quote"`
	CoinGeckoAPIKey string   `mapstructure:"coingecko_api_key"`
}

type FeedsConfig struct {
	Sentiment SentimentFeedConfig `mapstructure:"sentiment"`
	Macro     MacroFeedConfig     `mapstructure:"macro"`
}

type SentimentFeedConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	FearGreedURL  string `mapstructure:"fear_greed_url"`
	SocialEnabled bool   `mapstructure:"social_enabled"`
	SocialURL     string `mapstructure:"social_url"`
}

type MacroFeedConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Symbols map[string]string `mapstructure:"symbols"`
}

type EngineConfig struct {
	Parallel bool `mapstructure:"parallel"`
}

type ValidationConfig struct {
	Tolerance     float64       `mapstructure:"tolerance"`
	RecentRecords int           `mapstructure:"recent_records"`
	DefaultDays   int           `mapstructure:"default_days"`
	MaxDays       int           `mapstructure:"max_days"`
	Interval      string        `mapstructure:"interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load reads configuration from file on top of Defaults. An empty path
// loads defaults with environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	// COMPASS_SERVER_PORT overrides server.port
	v.SetEnvPrefix("compass")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every defaulted key so env overrides apply even
// when the file omits it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.api_key", d.Server.APIKey)
	v.SetDefault("server.job_ttl_hours", d.Server.JobTTLHours)
	v.SetDefault("server.max_jobs", d.Server.MaxJobs)
	v.SetDefault("server.max_explanations", d.Server.MaxExplanations)

	v.SetDefault("storage.cold.type", d.Storage.Cold.Type)
	v.SetDefault("storage.cold.path", d.Storage.Cold.Path)

	v.SetDefault("cache.type", d.Cache.Type)
	v.SetDefault("cache.max_size", d.Cache.MaxSize)

	v.SetDefault("collectors.crypto.providers", d.Collectors.Crypto.Providers)
	v.SetDefault("collectors.crypto.default_quote", d.Collectors.Crypto.DefaultQuote)
	v.SetDefault("collectors.crypto.coingecko_api_key", "")

	v.SetDefault("feeds.sentiment.enabled", d.Feeds.Sentiment.Enabled)
	v.SetDefault("feeds.sentiment.social_enabled", d.Feeds.Sentiment.SocialEnabled)
	v.SetDefault("feeds.macro.enabled", d.Feeds.Macro.Enabled)

	v.SetDefault("engine.parallel", d.Engine.Parallel)

	v.SetDefault("validation.tolerance", d.Validation.Tolerance)
	v.SetDefault("validation.recent_records", d.Validation.RecentRecords)
	v.SetDefault("validation.default_days", d.Validation.DefaultDays)
	v.SetDefault("validation.max_days", d.Validation.MaxDays)
	v.SetDefault("validation.interval", d.Validation.Interval)
	v.SetDefault("validation.timeout", d.Validation.Timeout)

	v.SetDefault("llm.provider", d.LLM.Provider)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.level", d.Log.Level)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			JobTTLHours:     1,
			MaxJobs:         100,
			MaxExplanations: 200,
		},
		Storage: StorageConfig{
			Cold: ColdStorageConfig{
				Type: "localfs",
				Path: "./data/archive",
			},
		},
		Cache: CacheConfig{
			Type:    "memory",
			MaxSize: 1000,
		},
		Collectors: CollectorsConfig{
			Crypto: CryptoCollectorConfig{
				Providers:    []string{"okx", "coingecko", "binance"},
				DefaultQuote: "USDT",
			},
		},
		Feeds: FeedsConfig{
			Sentiment: SentimentFeedConfig{
				Enabled:       true,
				SocialEnabled: true,
			},
			Macro: MacroFeedConfig{
				Enabled: true,
			},
		},
		Validation: ValidationConfig{
			Tolerance:     2.0,
			RecentRecords: 10,
			DefaultDays:   30,
			MaxDays:       90,
			Interval:      "1h",
			Timeout:       10 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Storage.Cold.Type {
	case "localfs":
		if c.Storage.Cold.Path == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("storage.cold.path required for localfs"))
		}
	case "s3":
		if c.Storage.Cold.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("storage.cold.s3.bucket required for s3"))
		}
	case "", "none":
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown storage.cold.type %q", c.Storage.Cold.Type))
	}

	switch c.Cache.Type {
	case "", "none", "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("cache.redis.addr required for redis"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown cache.type %q", c.Cache.Type))
	}

	for _, p := range c.Collectors.Crypto.Providers {
		switch p {
		case "okx", "coingecko", "binance":
		default:
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown crypto provider %q", p))
		}
	}

	v := c.Validation
	if v.Tolerance < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("validation.tolerance cannot be negative, got %f", v.Tolerance))
	}
	if v.DefaultDays < 1 || v.MaxDays < v.DefaultDays {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("validation days must satisfy 1 <= default_days (%d) <= max_days (%d)", v.DefaultDays, v.MaxDays))
	}
	if v.RecentRecords < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("validation.recent_records cannot be negative, got %d", v.RecentRecords))
	}

	// LLM validation - if provider set, check config exists
	switch c.LLM.Provider {
	case "":
	case "claude":
		if c.LLM.Claude.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("claude api_key required when provider is claude"))
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("openai api_key required when provider is openai"))
		}
	case "ollama":
		if c.LLM.Ollama.Endpoint == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("ollama endpoint required when provider is ollama"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}

	return nil
}
