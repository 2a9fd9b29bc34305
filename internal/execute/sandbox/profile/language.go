// Package profile describes the toolchains used for each supported language.
package profile

import (
	"strings"
	"time"

	appErr "codetrainer/pkg/errors"
)

// Language is the closed set of language tags the service can execute.
type Language string

const (
	LanguagePython Language = "python"
	LanguageCPP    Language = "cpp"
	LanguageJava   Language = "java"
	LanguageGo     Language = "go"
)

// LanguageSpec defines how to compile and run one language.
// Command templates may reference {src}, {bin} and {dir}.
type LanguageSpec struct {
	ID             Language      `yaml:"id" json:"id"`
	Name           string        `yaml:"name" json:"name"`
	Aliases        []string      `yaml:"aliases" json:"aliases,omitempty"`
	SourceFile     string        `yaml:"sourceFile" json:"-"`
	BinaryFile     string        `yaml:"binaryFile" json:"-"`
	CompileEnabled bool          `yaml:"compileEnabled" json:"-"`
	CompileCmdTpl  string        `yaml:"compileCmdTpl" json:"-"`
	RunCmdTpl      string        `yaml:"runCmdTpl" json:"-"`
	Env            []string      `yaml:"env" json:"-"`
	CompileTimeout time.Duration `yaml:"compileTimeout" json:"-"`
	RunTimeout     time.Duration `yaml:"runTimeout" json:"-"`
	Template       string        `yaml:"template" json:"template"`
}

const DefaultCompileTimeout = 30 * time.Second

// DefaultLanguages returns the built-in toolchain table.
func DefaultLanguages() []LanguageSpec {
	return []LanguageSpec{
		{
			ID:         LanguagePython,
			Name:       "Python3",
			SourceFile: "main.py",
			RunCmdTpl:  "python3 {src}",
			RunTimeout: 15 * time.Second,
			Template:   "# Write your solution here\n",
		},
		{
			ID:             LanguageCPP,
			Name:           "C++",
			Aliases:        []string{"c++"},
			SourceFile:     "main.cpp",
			BinaryFile:     "main",
			CompileEnabled: true,
			CompileCmdTpl:  "g++ {src} -o {bin}",
			RunCmdTpl:      "{bin}",
			CompileTimeout: DefaultCompileTimeout,
			RunTimeout:     5 * time.Second,
			Template:       "#include <bits/stdc++.h>\nusing namespace std;\nint main() {\n    return 0;\n}\n",
		},
		{
			ID:             LanguageJava,
			Name:           "Java",
			SourceFile:     "Main.java",
			CompileEnabled: true,
			CompileCmdTpl:  "javac {src}",
			RunCmdTpl:      "java -cp {dir} Main",
			CompileTimeout: DefaultCompileTimeout,
			RunTimeout:     5 * time.Second,
			Template:       "public class Main {\n    public static void main(String[] args) {\n    }\n}\n",
		},
		{
			ID:         LanguageGo,
			Name:       "Go",
			SourceFile: "main.go",
			RunCmdTpl:  "go run {src}",
			RunTimeout: 15 * time.Second,
			Template:   "package main\nfunc main() {}\n",
		},
	}
}

// Validate checks the fields every runner depends on.
func (s LanguageSpec) Validate() error {
	if s.ID == "" {
		return appErr.ValidationError("language.id", "required")
	}
	if strings.TrimSpace(s.SourceFile) == "" || strings.ContainsAny(s.SourceFile, `/\`) {
		return appErr.ValidationError("language.sourceFile", "must be a plain file name")
	}
	if strings.TrimSpace(s.RunCmdTpl) == "" {
		return appErr.ValidationError("language.runCmdTpl", "required")
	}
	if s.CompileEnabled && strings.TrimSpace(s.CompileCmdTpl) == "" {
		return appErr.ValidationError("language.compileCmdTpl", "required when compileEnabled")
	}
	if s.RunTimeout <= 0 {
		return appErr.ValidationError("language.runTimeout", "must be positive")
	}
	return nil
}

// Merge overlays configured entries on top of base, matching by ID.
// Zero fields in an override keep the base value; unknown IDs are appended.
func Merge(base, overrides []LanguageSpec) []LanguageSpec {
	out := make([]LanguageSpec, len(base))
	copy(out, base)
	index := make(map[Language]int, len(out))
	for i, spec := range out {
		index[spec.ID] = i
	}
	for _, o := range overrides {
		i, ok := index[o.ID]
		if !ok {
			index[o.ID] = len(out)
			out = append(out, o)
			continue
		}
		out[i] = overlay(out[i], o)
	}
	return out
}

func overlay(base, o LanguageSpec) LanguageSpec {
	if o.Name != "" {
		base.Name = o.Name
	}
	if len(o.Aliases) > 0 {
		base.Aliases = o.Aliases
	}
	if o.SourceFile != "" {
		base.SourceFile = o.SourceFile
	}
	if o.BinaryFile != "" {
		base.BinaryFile = o.BinaryFile
	}
	if o.CompileCmdTpl != "" {
		base.CompileCmdTpl = o.CompileCmdTpl
		base.CompileEnabled = true
	}
	if o.RunCmdTpl != "" {
		base.RunCmdTpl = o.RunCmdTpl
	}
	if len(o.Env) > 0 {
		base.Env = o.Env
	}
	if o.CompileTimeout > 0 {
		base.CompileTimeout = o.CompileTimeout
	}
	if o.RunTimeout > 0 {
		base.RunTimeout = o.RunTimeout
	}
	if o.Template != "" {
		base.Template = o.Template
	}
	return base
}
