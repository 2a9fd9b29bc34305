// Package grader extracts sample input/output from free-form problem text
// and grades a run against it.
package grader

import (
	"strings"

	"codetrainer/internal/execute/model"
)

// SampleCase is the parsed input and expected output of a sample test.
type SampleCase struct {
	Input    string
	Expected string
}

// ParseSampleCase scans text line by line. A trimmed line whose lowercase
// form starts with "input" and contains ':' sets Input to the trimmed text
// after the first colon; otherwise the same rule applies for "output" and
// Expected. Later matches overwrite earlier ones.
func ParseSampleCase(text string) SampleCase {
	var sc SampleCase
	for _, line := range strings.FieldsFunc(text, isLineBoundary) {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "input") && strings.Contains(line, ":"):
			sc.Input = afterColon(line)
		case strings.HasPrefix(lower, "output") && strings.Contains(line, ":"):
			sc.Expected = afterColon(line)
		}
	}
	return sc
}

// isLineBoundary reports line separators: LF, CR, VT, FF, the ASCII file,
// group and record separators, NEL, and U+2028/U+2029.
func isLineBoundary(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

func afterColon(line string) string {
	_, value, _ := strings.Cut(line, ":")
	return strings.TrimSpace(value)
}

// Grade sets res.Passed when expected is non-empty. A run passes when it
// exited 0 and its trimmed stdout equals expected exactly.
func Grade(res *model.ExecutionResult, expected string) {
	if expected == "" {
		return
	}
	passed := res.ReturnCode == 0 && strings.TrimSpace(res.Stdout) == expected
	res.Passed = &passed
}

// StdinFor returns the bytes fed to the program: the input plus a trailing
// newline when input is non-empty.
func StdinFor(input string) string {
	if input == "" {
		return ""
	}
	return input + "\n"
}
