// Package engine holds the page fetch engines and the auto-strategy
// dispatcher that races them.
package engine

import (
	"context"
	"time"
)

// Engine fetches one resort page.
type Engine interface {
	// Name identifies the engine in logs and domain memory: "http" or "rod".
	Name() string

	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest names the page to fetch.
type FetchRequest struct {
	URL string

	// Timeout bounds the engine's own work. Zero means the engine default.
	Timeout time.Duration
}

// FetchResult is a page as an engine obtained it.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string // after redirects
	EngineName string
}
