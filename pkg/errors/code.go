package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 13000-13999: Execution module errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Validation errors (10300-10399)
	ValidationFailed ErrorCode = 10300

	// ========== Execution Module Errors (13000-13999) ==========

	// Request (13000-13099)
	CodeRequired     ErrorCode = 13000
	CodeDecodeFailed ErrorCode = 13001

	// Sandbox (13100-13199)
	ExecutionSystemError ErrorCode = 13101
	ToolchainUnavailable ErrorCode = 13102
	WorkspaceError       ErrorCode = 13103
	ExecutionQueueFull   ErrorCode = 13104
)

// errorMessages maps error codes to default messages
var errorMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	TooManyRequests:     "Too many requests",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	CacheError: "Cache operation failed",

	ValidationFailed: "Validation failed",

	CodeRequired:     "code or codeB64 must be provided",
	CodeDecodeFailed: "codeB64 parse failed",

	ExecutionSystemError: "Execution system error",
	ToolchainUnavailable: "Language toolchain is not available",
	WorkspaceError:       "Failed to prepare execution workspace",
	ExecutionQueueFull:   "Execution capacity exhausted, try again later",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == TooManyRequests:
		return 429
	case c == ServiceUnavailable, c == ToolchainUnavailable, c == ExecutionQueueFull:
		return 503
	case c == Timeout:
		return 504
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c >= 13000 && c < 13100: // Request errors
		return 400
	case c == InvalidParams:
		return 400
	default:
		return 500
	}
}
