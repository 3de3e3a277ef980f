package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RemoveNoise deletes every element matching one of selectors and returns
// the remaining document. Invalid selectors are skipped. When the HTML
// cannot be parsed the input is returned unchanged.
func RemoveNoise(html string, selectors []string) string {
	if len(selectors) == 0 {
		return html
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	for _, selector := range selectors {
		doc.Find(selector).Remove()
	}

	// Keep fragments as fragments: a selector match should not come back
	// wrapped in <html><head></head><body>.
	if !looksLikeDocument(html) {
		body, err := doc.Find("body").Html()
		if err == nil {
			return body
		}
	}
	result, err := doc.Html()
	if err != nil {
		return html
	}
	return result
}

func looksLikeDocument(html string) bool {
	head := html
	if len(head) > 512 {
		head = head[:512]
	}
	head = strings.ToLower(head)
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype")
}
