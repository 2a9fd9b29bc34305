// Package model holds the wire types of the execute API.
package model

// DefaultLanguage is used when a request leaves language empty.
const DefaultLanguage = "python"

// ExecutionRequest is the body of POST /execute.
// Code wins over CodeB64 when both are present; an empty Code still counts as present.
type ExecutionRequest struct {
	Code       *string `json:"code"`
	CodeB64    *string `json:"codeB64"`
	Language   string  `json:"language"`
	SampleCase *string `json:"sampleCase"`
}

// ExecutionResult is the body returned for every executed request.
// Passed is only set when the sample case carried an expected output.
type ExecutionResult struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"returncode"`
	Passed     *bool  `json:"passed,omitempty"`
}

// LanguageInfo describes one supported language for clients.
type LanguageInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases,omitempty"`
	Template string   `json:"template"`
}
