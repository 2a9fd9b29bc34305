package main

import (
	"fmt"
	"os"
	"time"

	"codetrainer/internal/execute/sandbox"
	"codetrainer/internal/execute/sandbox/engine"
	"codetrainer/internal/execute/sandbox/profile"
	"codetrainer/internal/execute/sandbox/workspace"
	"codetrainer/internal/execute/service"
	"codetrainer/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

// localConfig is the subset of the service config the CLI understands,
// so the same file can drive both.
type localConfig struct {
	Sandbox struct {
		WorkRoot             string        `yaml:"workRoot"`
		StdoutStderrMaxBytes int64         `yaml:"stdoutStderrMaxBytes"`
		WaitDelay            time.Duration `yaml:"waitDelay"`
	} `yaml:"sandbox"`
	Languages []profile.LanguageSpec `yaml:"languages"`
}

func loadLocalConfig(path string) (*localConfig, error) {
	var cfg localConfig
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file failed: %w", err)
	}
	return &cfg, nil
}

func buildService(configPath, logLevel string) (*service.Service, error) {
	if err := logger.Init(logger.Config{Level: logLevel, Format: "console", OutputPath: "stderr"}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfg, err := loadLocalConfig(configPath)
	if err != nil {
		return nil, err
	}

	workRoot := cfg.Sandbox.WorkRoot
	if workRoot == "" {
		workRoot = os.TempDir()
	}
	workspaces, err := workspace.NewManager(workRoot)
	if err != nil {
		return nil, fmt.Errorf("init workspace root: %w", err)
	}
	eng := engine.NewEngine(engine.Config{
		StdoutStderrMaxBytes: cfg.Sandbox.StdoutStderrMaxBytes,
		WaitDelay:            cfg.Sandbox.WaitDelay,
	})
	dispatcher, err := sandbox.NewDispatcherFromSpecs(profile.Merge(profile.DefaultLanguages(), cfg.Languages), eng, workspaces, nil)
	if err != nil {
		return nil, fmt.Errorf("init dispatcher: %w", err)
	}
	return service.NewService(service.Config{Dispatcher: dispatcher})
}
