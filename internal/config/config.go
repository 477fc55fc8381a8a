package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	JWTSecret   string `yaml:"jwt_secret"`
	AdminAPIKey string `yaml:"admin_api_key"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AIConfig struct {
	OpenAIKey         string  `yaml:"openai_key"`
	GeminiKey         string  `yaml:"gemini_key"`
	GeminiURL         string  `yaml:"gemini_url"`
	Model             string  `yaml:"model"`
	Temperature       float64 `yaml:"temperature"`
	MaxOutputTokens   int     `yaml:"max_output_tokens"`
	PromptTokenBudget int     `yaml:"prompt_token_budget"`
	ConcurrentLimit   int     `yaml:"concurrent_limit"` // max concurrent AI calls
}

type JobsConfig struct {
	Workers            int           `yaml:"workers"`
	MaxRetries         int           `yaml:"max_retries"`
	RetentionDays      int           `yaml:"retention_days"`
	QueueKey           string        `yaml:"queue_key"`
	DequeueTimeout     time.Duration `yaml:"dequeue_timeout"`
	RequeueAfter       time.Duration `yaml:"requeue_after"`
	RetrySweepInterval time.Duration `yaml:"retry_sweep_interval"`
	RetrySweepLimit    int           `yaml:"retry_sweep_limit"`
	CleanupInterval    time.Duration `yaml:"cleanup_interval"`
	SubmitLimit        int           `yaml:"submit_limit"`
	SubmitWindow       time.Duration `yaml:"submit_window"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Jobs     JobsConfig     `yaml:"jobs"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4o-mini"
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = 0.4
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 2048
	}
	if cfg.AI.PromptTokenBudget <= 0 {
		cfg.AI.PromptTokenBudget = 4096
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.Jobs.Workers <= 0 {
		cfg.Jobs.Workers = 4
	}
	if cfg.Jobs.MaxRetries <= 0 {
		cfg.Jobs.MaxRetries = 3
	}
	if cfg.Jobs.RetentionDays <= 0 {
		cfg.Jobs.RetentionDays = 30
	}
	if cfg.Jobs.QueueKey == "" {
		cfg.Jobs.QueueKey = "jobs:generation:ready"
	}
	if cfg.Jobs.DequeueTimeout <= 0 {
		cfg.Jobs.DequeueTimeout = 2 * time.Second
	}
	if cfg.Jobs.RequeueAfter <= 0 {
		cfg.Jobs.RequeueAfter = 5 * time.Minute
	}
	if cfg.Jobs.RetrySweepInterval <= 0 {
		cfg.Jobs.RetrySweepInterval = 10 * time.Minute
	}
	if cfg.Jobs.RetrySweepLimit <= 0 {
		cfg.Jobs.RetrySweepLimit = 10
	}
	if cfg.Jobs.CleanupInterval <= 0 {
		cfg.Jobs.CleanupInterval = 24 * time.Hour
	}
	if cfg.Jobs.SubmitLimit <= 0 {
		cfg.Jobs.SubmitLimit = 5
	}
	if cfg.Jobs.SubmitWindow <= 0 {
		cfg.Jobs.SubmitWindow = time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Server.JWTSecret == "" && !dev {
		return nil, errors.New("server.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
