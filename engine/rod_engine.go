package engine

import (
	"context"
	"fmt"
)

// RenderFunc renders a page in a browser. It is supplied by the scraper
// package so engine does not import rod.
type RenderFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine is the browser engine used when a page needs scripts to run.
type RodEngine struct {
	render RenderFunc
}

// NewRodEngine creates a RodEngine around a render callback.
func NewRodEngine(render RenderFunc) *RodEngine {
	return &RodEngine{render: render}
}

func (e *RodEngine) Name() string { return "rod" }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.render == nil {
		return nil, fmt.Errorf("rod: render func not configured")
	}
	result, err := e.render(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("rod: %w", err)
	}
	result.EngineName = e.Name()
	return result, nil
}
