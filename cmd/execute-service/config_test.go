package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codetrainer/internal/execute/sandbox/profile"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "execute_service.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppConfigDefaults(t *testing.T) {
	cfg, err := loadAppConfig(writeConfig(t, "logger:\n  level: info\n"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Addr != defaultHTTPAddr || cfg.Server.WriteTimeout != defaultWriteTimeout {
		t.Fatalf("server defaults not applied: %+v", cfg.Server)
	}
	if cfg.Sandbox.WorkRoot != defaultWorkRoot || cfg.Execution.MaxBodyBytes != defaultMaxBodyBytes {
		t.Fatalf("sandbox defaults not applied: %+v %+v", cfg.Sandbox, cfg.Execution)
	}
	if cfg.RateLimit.Backend != rateLimitNone {
		t.Fatalf("expected rate limit disabled, got %q", cfg.RateLimit.Backend)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Fatalf("metrics defaults not applied: %+v", cfg.Metrics)
	}
}

func TestLoadAppConfigLanguagesAndLimiter(t *testing.T) {
	body := `
server:
  addr: 127.0.0.1:9090
execution:
  maxConcurrent: 2
  acquireTimeout: 3s
rateLimit:
  backend: Memory
  rps: 0.5
languages:
  - id: python
    runCmdTpl: "pypy3 {src}"
    runTimeout: 20s
`
	cfg, err := loadAppConfig(writeConfig(t, body))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Execution.MaxConcurrent != 2 || cfg.Execution.AcquireTimeout != 3*time.Second {
		t.Fatalf("unexpected execution config: %+v", cfg.Execution)
	}
	rl := cfg.RateLimit
	if rl.Backend != rateLimitMemory || rl.RPS != 0.5 || rl.Burst != defaultRateLimitBurst || rl.IdleTTL != defaultRateLimitIdle {
		t.Fatalf("unexpected rate limit config: %+v", rl)
	}

	merged := profile.Merge(profile.DefaultLanguages(), cfg.Languages)
	for _, lang := range merged {
		if lang.ID != profile.LanguagePython {
			continue
		}
		if lang.RunCmdTpl != "pypy3 {src}" || lang.RunTimeout != 20*time.Second || lang.SourceFile != "main.py" {
			t.Fatalf("unexpected merged python spec: %+v", lang)
		}
		return
	}
	t.Fatalf("python missing after merge")
}

func TestLoadAppConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"redis without addr", "rateLimit:\n  backend: redis\n"},
		{"unknown backend", "rateLimit:\n  backend: etcd\n"},
		{"malformed yaml", "server: [\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := loadAppConfig(writeConfig(t, tc.body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	if _, err := loadAppConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadAppConfigRedisDefaults(t *testing.T) {
	cfg, err := loadAppConfig(writeConfig(t, "rateLimit:\n  backend: redis\nredis:\n  addr: 127.0.0.1:6379\n"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Redis.PoolSize == 0 || cfg.Redis.DialTimeout == 0 {
		t.Fatalf("redis defaults not applied: %+v", cfg.Redis)
	}
	if cfg.RateLimit.Max != defaultRateLimitMax || cfg.RateLimit.Prefix != defaultRateLimitPrefix {
		t.Fatalf("unexpected redis limiter config: %+v", cfg.RateLimit)
	}
}

func TestSampleConfigLeavesExecutionsUncapped(t *testing.T) {
	cfg, err := loadAppConfig(filepath.Join("..", "..", "configs", "execute_service.yaml"))
	if err != nil {
		t.Fatalf("load sample config: %v", err)
	}
	if cfg.Execution.MaxConcurrent != 0 {
		t.Fatalf("sample config caps executions at %d", cfg.Execution.MaxConcurrent)
	}
	if cfg.Sandbox.StdoutStderrMaxBytes != 0 {
		t.Fatalf("sample config truncates output at %d bytes", cfg.Sandbox.StdoutStderrMaxBytes)
	}
}
