package models

import (
	"errors"
	"fmt"
)

// Error codes attached to pipeline failures. Fetch, LLM and decode codes are
// contained at the section level; CONFIG_INVALID and PERSIST_FAILED are fatal.
const (
	ErrCodeTimeout      = "FETCH_TIMEOUT"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeHTTPStatus   = "HTTP_STATUS"
	ErrCodeBrowserCrash = "BROWSER_CRASH"

	ErrCodeLLMFailure     = "LLM_FAILURE"
	ErrCodeLLMAuthFailure = "LLM_AUTH_FAILURE"
	ErrCodeLLMRateLimited = "LLM_RATE_LIMITED"
	ErrCodeLLMEmpty       = "LLM_EMPTY"
	ErrCodeLLMCircuitOpen = "LLM_CIRCUIT_OPEN"

	ErrCodeDecode        = "DECODE_FAILED"
	ErrCodePersist       = "PERSIST_FAILED"
	ErrCodeConfigInvalid = "CONFIG_INVALID"
)

// PipelineError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type PipelineError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(code, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first PipelineError in err's tree, or "".
// Joined errors are searched in order.
func CodeOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
