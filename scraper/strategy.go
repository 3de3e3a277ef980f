package scraper

import (
	"fmt"
	"strings"
)

// Strategy selects how a page is fetched.
type Strategy string

const (
	// Static performs a single GET and returns the body as served.
	Static Strategy = "static"

	// Rendered loads the page in a headless browser and returns the DOM
	// after scripts have run.
	Rendered Strategy = "rendered"

	// Auto tries Static first and escalates to Rendered when the body looks
	// like a client-rendered shell or the GET fails.
	Auto Strategy = "auto"
)

// ParseStrategy converts a config value to a Strategy. Empty means fallback.
func ParseStrategy(s string, fallback Strategy) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return fallback, nil
	case Static:
		return Static, nil
	case Rendered:
		return Rendered, nil
	case Auto:
		return Auto, nil
	}
	return "", fmt.Errorf("unknown fetch strategy %q", s)
}
