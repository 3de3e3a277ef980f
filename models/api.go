package models

import "time"

// Error codes returned by the HTTP surface.
const (
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeRunInProgress = "RUN_IN_PROGRESS"
)

// ErrorDetail is the error body of a failed API request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an ErrorDetail.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// RunStatus describes the runs performed by this process.
type RunStatus struct {
	Runs        int       `json:"runs"`
	Running     bool      `json:"running"`
	LastRun     time.Time `json:"last_run,omitempty"`
	LastWritten time.Time `json:"last_written,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string    `json:"status"` // "ok" or "degraded"
	Uptime  string    `json:"uptime"`
	Resorts int       `json:"resorts"`
	Run     RunStatus `json:"run"`
	Version string    `json:"version"`
}

// RefreshResponse is the response for POST /api/v1/refresh.
type RefreshResponse struct {
	Status string `json:"status"` // "started"
}
