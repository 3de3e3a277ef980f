package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the shortest article text accepted from readability.
// Status pages are mostly tables and short labels, so the bar is low; below
// it the algorithm has probably latched onto a caption.
const minContentLength = 50

// ExtractContent runs the Mozilla Readability algorithm and returns the
// article HTML. It reports false and returns rawHTML unchanged when the URL
// is invalid, extraction errors, or the article text is too short.
func ExtractContent(rawHTML string, sourceURL string) (string, bool) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("readability: invalid source URL, using full page",
			"url", sourceURL, "error", err,
		)
		return rawHTML, false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("readability: extraction failed, using full page",
			"url", sourceURL, "error", err,
		)
		return rawHTML, false
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		slog.Debug("readability: article too short, using full page",
			"url", sourceURL, "length", len(article.TextContent),
		)
		return rawHTML, false
	}

	return article.Content, true
}
