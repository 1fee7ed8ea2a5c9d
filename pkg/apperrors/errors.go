package apperrors

import "fmt"

// AppError represents an application-level error with a code and optional cause
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error codes
const (
	ErrCodeSessionCreate  = "SESSION_CREATE_FAILED"
	ErrCodeSessionGet     = "SESSION_GET_FAILED"
	ErrCodeSessionUpdate  = "SESSION_UPDATE_FAILED"
	ErrCodeSessionDelete  = "SESSION_DELETE_FAILED"
	ErrCodeSessionStale   = "SESSION_STALE"
	ErrCodeToolBlocked    = "TOOL_BLOCKED"
	ErrCodeEngineTimeout  = "ENGINE_TIMEOUT"
	ErrCodeEngineProcess  = "ENGINE_PROCESS_FAILED"
	ErrCodeEngineDecode   = "ENGINE_DECODE_FAILED"
	ErrCodePathResolution = "PATH_RESOLUTION_FAILED"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeConfigInvalid  = "CONFIG_INVALID"
	ErrCodeStoreFailure   = "STORE_FAILURE"
)
