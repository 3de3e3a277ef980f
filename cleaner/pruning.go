package cleaner

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// pruneScoreThreshold is the minimum score a block needs to be kept.
const pruneScoreThreshold = 0.0

// Signal weights for the pruning scorer.
const (
	wTextDensity   = 2.0
	wLinkDensity   = -3.0
	wTagWeight     = 1.5
	wClassIDWeight = 1.0
	wTextLength    = 0.5
	wStatusTerms   = 1.0
	wTabular       = 4.0
)

// positiveClassIDPatterns mark regions that usually hold status boards.
var positiveClassIDPatterns = []string{
	"lift", "trail", "course", "weather", "snow", "status", "report",
	"forecast", "content", "main",
}

// negativeClassIDPatterns mark boilerplate regions.
var negativeClassIDPatterns = []string{
	"sidebar", "widget", "nav", "menu", "footer", "header", "banner",
	"popup", "modal", "cookie", "social", "share", "promo", "newsletter",
}

// statusTerms appear densely in lift and weather boards.
var statusTerms = []string{
	"open", "closed", "hold", "scheduled", "operating", "suspended",
	"°c", "℃", "km/h", "m/s", "wind", "snow", "visibility", "temperature",
	"gondola", "chair", "quad", "t-bar",
	"運行", "運休", "営業", "リフト", "ゴンドラ", "天気", "気温", "積雪",
}

// PruneContent keeps the top-level blocks of <body> that look like status
// content and drops the rest. When no block passes, the whole body is
// returned so the excerpt is never empty.
func PruneContent(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML, err
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		return rawHTML, nil
	}

	var retained []string
	body.Children().Each(func(_ int, el *goquery.Selection) {
		if scoreElement(el) <= pruneScoreThreshold {
			return
		}
		if h, err := goquery.OuterHtml(el); err == nil {
			retained = append(retained, h)
		}
	})

	if len(retained) == 0 {
		h, err := body.Html()
		if err != nil {
			return rawHTML, nil
		}
		return h, nil
	}
	return strings.Join(retained, "\n"), nil
}

func scoreElement(el *goquery.Selection) float64 {
	fullHTML, err := goquery.OuterHtml(el)
	if err != nil {
		return 0
	}

	text := strings.TrimSpace(el.Text())
	textLen := len(text)
	if textLen == 0 {
		return -1
	}

	textDensity := 0.0
	if len(fullHTML) > 0 {
		textDensity = float64(textLen) / float64(len(fullHTML))
	}

	linkTextLen := 0
	el.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkTextLen += len(strings.TrimSpace(a.Text()))
	})
	linkDensity := float64(linkTextLen) / float64(textLen)

	tabular := 0.0
	if goquery.NodeName(el) == "table" || el.Find("table, dl").Length() > 0 {
		tabular = 1.0
	}

	return textDensity*wTextDensity +
		linkDensity*wLinkDensity +
		tagWeight(el)*wTagWeight +
		classIDWeight(el)*wClassIDWeight +
		math.Log10(float64(textLen)+1)*wTextLength +
		statusTermScore(text)*wStatusTerms +
		tabular*wTabular
}

func tagWeight(el *goquery.Selection) float64 {
	switch goquery.NodeName(el) {
	case "main", "article", "section", "table":
		return 3.0
	case "nav", "footer", "aside", "header", "form":
		return -5.0
	default:
		return 0.0
	}
}

func classIDWeight(el *goquery.Selection) float64 {
	class, _ := el.Attr("class")
	id, _ := el.Attr("id")
	combined := strings.ToLower(class + " " + id)

	score := 0.0
	for _, pat := range positiveClassIDPatterns {
		if strings.Contains(combined, pat) {
			score += 3.0
			break
		}
	}
	for _, pat := range negativeClassIDPatterns {
		if strings.Contains(combined, pat) {
			score -= 3.0
			break
		}
	}
	return score
}

// statusTermScore counts distinct status terms, capped at 5.
func statusTermScore(text string) float64 {
	lower := strings.ToLower(text)
	n := 0
	for _, term := range statusTerms {
		if strings.Contains(lower, term) {
			n++
			if n == 5 {
				break
			}
		}
	}
	return float64(n)
}
