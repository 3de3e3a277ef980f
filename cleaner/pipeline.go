package cleaner

import (
	"log/slog"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// Output formats for the reduced excerpt.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// Main-content extraction modes.
const (
	ExtractNone        = "none"
	ExtractReadability = "readability"
	ExtractPruning     = "pruning"
)

// Options controls one reduction.
type Options struct {
	// Selector narrows the page to matching elements. Empty keeps the page.
	Selector string

	// Strip lists selectors removed before rendering.
	Strip []string

	// Extract is ExtractNone, ExtractReadability or ExtractPruning.
	Extract string

	// Format is FormatHTML, FormatMarkdown or FormatText.
	Format string
}

// Result is a reduced excerpt with token estimates for logging.
type Result struct {
	Content        string
	OriginalTokens int
	ReducedTokens  int
}

// Reducer shrinks a fetched page to the part worth sending to the model.
// The converter is created once and reused (goroutine-safe).
type Reducer struct {
	mdConverter *converter.Converter
}

// NewReducer creates a Reducer with a pre-configured Markdown converter.
func NewReducer() *Reducer {
	return &Reducer{mdConverter: newMarkdownConverter()}
}

// Reduce runs the pipeline:
//
//  1. Selector  – keep only the configured region (no match keeps all)
//  2. Extract   – optional main-content extraction
//  3. Strip     – remove script, style and other noise
//  4. Render    – html, markdown or text
//
// It never fails. A step that errors is skipped and logged.
func (r *Reducer) Reduce(rawHTML, sourceURL string, opts Options) Result {
	res := Result{OriginalTokens: EstimateTokens(rawHTML)}
	content := rawHTML

	if opts.Selector != "" {
		selected, err := ApplyCSSSelector(content, opts.Selector)
		if err != nil {
			slog.Warn("selector failed, using full page",
				"url", sourceURL, "selector", opts.Selector, "error", err)
		} else {
			content = selected
		}
	}

	switch opts.Extract {
	case ExtractReadability:
		content, _ = ExtractContent(content, sourceURL)
	case ExtractPruning:
		if pruned, err := PruneContent(content); err == nil {
			content = pruned
		} else {
			slog.Warn("pruning failed, using unpruned page", "url", sourceURL, "error", err)
		}
	}

	content = RemoveNoise(content, opts.Strip)

	switch opts.Format {
	case FormatMarkdown:
		md, err := ToMarkdown(r.mdConverter, content, sourceURL)
		if err != nil {
			slog.Warn("markdown conversion failed, using html", "url", sourceURL, "error", err)
		} else {
			content = md
		}
	case FormatText:
		content = ToText(content)
	}

	res.Content = strings.TrimSpace(content)
	res.ReducedTokens = EstimateTokens(res.Content)
	return res
}
