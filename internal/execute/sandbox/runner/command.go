package runner

import (
	"path/filepath"
	"strings"

	"codetrainer/internal/execute/sandbox/profile"
	appErr "codetrainer/pkg/errors"

	"github.com/google/shlex"
)

// buildCommand splits the template first and expands placeholders per field,
// so workspace paths containing spaces stay single arguments.
func buildCommand(tpl string, lang profile.LanguageSpec, workDir string) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command template is required")
	}
	fields, err := shlex.Split(tpl)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "parse command template failed")
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command is empty after expansion")
	}
	replacer := strings.NewReplacer(
		"{src}", filepath.Join(workDir, lang.SourceFile),
		"{bin}", filepath.Join(workDir, lang.BinaryFile),
		"{dir}", workDir,
	)
	for i, f := range fields {
		fields[i] = replacer.Replace(f)
	}
	return fields, nil
}
