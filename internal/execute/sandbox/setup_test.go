package sandbox

import (
	"testing"

	"codetrainer/internal/execute/sandbox/engine"
	"codetrainer/internal/execute/sandbox/profile"
	"codetrainer/internal/execute/sandbox/workspace"
	appErr "codetrainer/pkg/errors"
)

func TestNewDispatcherFromSpecs(t *testing.T) {
	workspaces, err := workspace.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("workspace manager: %v", err)
	}
	d, err := NewDispatcherFromSpecs(profile.DefaultLanguages(), engine.NewEngine(engine.Config{}), workspaces, nil)
	if err != nil {
		t.Fatalf("build dispatcher: %v", err)
	}
	if id, ok := d.ParseLanguage("C++"); !ok || id != profile.LanguageCPP {
		t.Fatalf("alias not registered: %v %v", id, ok)
	}
	if len(d.Languages()) != 4 {
		t.Fatalf("unexpected languages: %d", len(d.Languages()))
	}

	bad := []profile.LanguageSpec{{ID: "broken"}}
	if _, err := NewDispatcherFromSpecs(bad, engine.NewEngine(engine.Config{}), workspaces, nil); appErr.GetCode(err) != appErr.ValidationFailed {
		t.Fatalf("expected validation error, got %v", err)
	}
}
