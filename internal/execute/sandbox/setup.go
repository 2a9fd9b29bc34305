package sandbox

import (
	"codetrainer/internal/execute/sandbox/engine"
	"codetrainer/internal/execute/sandbox/observer"
	"codetrainer/internal/execute/sandbox/profile"
	"codetrainer/internal/execute/sandbox/runner"
	"codetrainer/internal/execute/sandbox/workspace"
)

// NewDispatcherFromSpecs builds one runner per language spec and registers them.
func NewDispatcherFromSpecs(langs []profile.LanguageSpec, eng engine.Engine, workspaces *workspace.Manager, metrics observer.MetricsRecorder) (*Dispatcher, error) {
	runners := make([]runner.LanguageRunner, 0, len(langs))
	for _, lang := range langs {
		r, err := runner.New(lang, eng, workspaces, metrics)
		if err != nil {
			return nil, err
		}
		runners = append(runners, r)
	}
	return NewDispatcher(runners...)
}
