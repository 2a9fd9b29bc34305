package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"codetrainer/internal/common/cache"
	"codetrainer/internal/execute/sandbox/engine"
	"codetrainer/internal/execute/sandbox/profile"
	"codetrainer/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxBodyBytes    = 1 << 20
	defaultWorkRoot        = "/tmp/codetrainer"

	defaultRateLimitRPS    = 2
	defaultRateLimitBurst  = 5
	defaultRateLimitIdle   = 10 * time.Minute
	defaultRateLimitMax    = 60
	defaultRateLimitWindow = time.Minute
	defaultRedisTimeout    = 200 * time.Millisecond
	defaultRateLimitPrefix = "codetrainer:ratelimit:"
)

const (
	rateLimitNone   = "none"
	rateLimitMemory = "memory"
	rateLimitRedis  = "redis"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// SandboxConfig holds sandbox engine settings.
type SandboxConfig struct {
	WorkRoot             string        `yaml:"workRoot"`
	StdoutStderrMaxBytes int64         `yaml:"stdoutStderrMaxBytes"`
	WaitDelay            time.Duration `yaml:"waitDelay"`
}

// ExecutionConfig holds request admission settings.
type ExecutionConfig struct {
	MaxConcurrent  int           `yaml:"maxConcurrent"`
	AcquireTimeout time.Duration `yaml:"acquireTimeout"`
	MaxBodyBytes   int64         `yaml:"maxBodyBytes"`
}

// RateLimitConfig selects and tunes the limiter guarding the execute routes.
type RateLimitConfig struct {
	Backend string `yaml:"backend"` // none, memory, redis

	// memory backend
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
	IdleTTL time.Duration `yaml:"idleTTL"`

	// redis backend
	Max          int           `yaml:"max"`
	Window       time.Duration `yaml:"window"`
	RedisTimeout time.Duration `yaml:"redisTimeout"`
	Prefix       string        `yaml:"prefix"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// AppConfig holds execute-service config.
type AppConfig struct {
	Server    ServerConfig           `yaml:"server"`
	Logger    logger.Config          `yaml:"logger"`
	Sandbox   SandboxConfig          `yaml:"sandbox"`
	Execution ExecutionConfig        `yaml:"execution"`
	RateLimit RateLimitConfig        `yaml:"rateLimit"`
	Redis     cache.RedisConfig      `yaml:"redis"`
	Metrics   MetricsConfig          `yaml:"metrics"`
	Languages []profile.LanguageSpec `yaml:"languages"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	cfg := AppConfig{Metrics: MetricsConfig{Enabled: true}}
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) error {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Sandbox.WorkRoot == "" {
		cfg.Sandbox.WorkRoot = defaultWorkRoot
	}
	if cfg.Execution.MaxBodyBytes <= 0 {
		cfg.Execution.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	rl := &cfg.RateLimit
	rl.Backend = strings.ToLower(strings.TrimSpace(rl.Backend))
	switch rl.Backend {
	case "":
		rl.Backend = rateLimitNone
	case rateLimitNone:
	case rateLimitMemory:
		if rl.RPS <= 0 {
			rl.RPS = defaultRateLimitRPS
		}
		if rl.Burst <= 0 {
			rl.Burst = defaultRateLimitBurst
		}
		if rl.IdleTTL <= 0 {
			rl.IdleTTL = defaultRateLimitIdle
		}
	case rateLimitRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for the redis rate limit backend")
		}
		cfg.Redis.ApplyDefaults()
		if rl.Max <= 0 {
			rl.Max = defaultRateLimitMax
		}
		if rl.Window <= 0 {
			rl.Window = defaultRateLimitWindow
		}
		if rl.RedisTimeout <= 0 {
			rl.RedisTimeout = defaultRedisTimeout
		}
		if rl.Prefix == "" {
			rl.Prefix = defaultRateLimitPrefix
		}
	default:
		return fmt.Errorf("unknown rate limit backend: %s", rl.Backend)
	}
	return nil
}

func (s SandboxConfig) toEngineConfig() engine.Config {
	return engine.Config{
		StdoutStderrMaxBytes: s.StdoutStderrMaxBytes,
		WaitDelay:            s.WaitDelay,
	}
}
