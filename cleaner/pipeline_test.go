package cleaner

import (
	"strings"
	"testing"
)

const liftPage = `<!DOCTYPE html>
<html><head><title>Lift Status</title><style>.x{color:red}</style>
<script>window.tracking = true;</script></head>
<body>
<nav class="site-nav"><a href="/">Home</a><a href="/lifts">Lifts</a><a href="/shop">Shop</a></nav>
<div id="lift-status">
  <table>
    <tr><th>Lift</th><th>Status</th><th>Hours</th></tr>
    <tr><td>Rusutsu Gondola</td><td>Open</td><td>9:00 - 16:00</td></tr>
    <tr><td>Tower Quad</td><td>Closed</td><td>-</td></tr>
  </table>
</div>
<footer class="footer"><a href="/privacy">Privacy</a> © Rusutsu</footer>
<noscript>enable javascript</noscript>
</body></html>`

var defaultStrip = []string{"script", "style", "noscript", "svg", "iframe", "link", "meta"}

func TestReduce_HTMLStripsNoise(t *testing.T) {
	r := NewReducer()
	res := r.Reduce(liftPage, "https://rusutsu.com/lifts", Options{Strip: defaultStrip, Format: FormatHTML})

	for _, gone := range []string{"<script", "<style", "<noscript", "window.tracking"} {
		if strings.Contains(res.Content, gone) {
			t.Errorf("expected %q to be stripped", gone)
		}
	}
	if !strings.Contains(res.Content, "Rusutsu Gondola") {
		t.Error("lift table should survive")
	}
	if res.OriginalTokens <= res.ReducedTokens {
		t.Errorf("tokens should shrink: %d -> %d", res.OriginalTokens, res.ReducedTokens)
	}
}

func TestReduce_Selector(t *testing.T) {
	r := NewReducer()
	res := r.Reduce(liftPage, "https://rusutsu.com/lifts", Options{
		Selector: "#lift-status",
		Strip:    defaultStrip,
		Format:   FormatHTML,
	})
	if strings.Contains(res.Content, "Privacy") || strings.Contains(res.Content, "Shop") {
		t.Errorf("selector should drop nav and footer: %q", res.Content)
	}
	if strings.Contains(res.Content, "<html") {
		t.Errorf("selected fragment should not be wrapped in a document: %q", res.Content)
	}
	if !strings.Contains(res.Content, "Tower Quad") {
		t.Error("selected region lost content")
	}
}

func TestReduce_SelectorNoMatchKeepsPage(t *testing.T) {
	r := NewReducer()
	res := r.Reduce(liftPage, "https://rusutsu.com/lifts", Options{Selector: "#does-not-exist", Format: FormatHTML})
	if !strings.Contains(res.Content, "Privacy") {
		t.Error("unmatched selector should keep the full page")
	}
}

func TestReduce_InvalidSelectorKeepsPage(t *testing.T) {
	r := NewReducer()
	res := r.Reduce(liftPage, "https://rusutsu.com/lifts", Options{Selector: "[[[", Format: FormatHTML})
	if !strings.Contains(res.Content, "Rusutsu Gondola") {
		t.Error("invalid selector should keep the full page")
	}
}

func TestReduce_Markdown(t *testing.T) {
	r := NewReducer()
	res := r.Reduce(liftPage, "https://rusutsu.com/lifts", Options{
		Selector: "#lift-status",
		Strip:    defaultStrip,
		Format:   FormatMarkdown,
	})
	if !strings.Contains(res.Content, "|") {
		t.Errorf("markdown should keep the table: %q", res.Content)
	}
	if strings.Contains(res.Content, "<td>") {
		t.Errorf("markdown should not contain html cells: %q", res.Content)
	}
}

func TestReduce_Text(t *testing.T) {
	r := NewReducer()
	res := r.Reduce(liftPage, "https://rusutsu.com/lifts", Options{
		Selector: "#lift-status",
		Strip:    defaultStrip,
		Format:   FormatText,
	})
	want := "Rusutsu Gondola | Open | 9:00 - 16:00"
	if !strings.Contains(res.Content, want) {
		t.Errorf("text = %q, want line %q", res.Content, want)
	}
}

func TestReduce_Pruning(t *testing.T) {
	r := NewReducer()
	res := r.Reduce(liftPage, "https://rusutsu.com/lifts", Options{
		Strip:   defaultStrip,
		Extract: ExtractPruning,
		Format:  FormatText,
	})
	if !strings.Contains(res.Content, "Tower Quad") {
		t.Errorf("pruning dropped the status table: %q", res.Content)
	}
	if strings.Contains(res.Content, "Privacy") {
		t.Errorf("pruning kept the footer: %q", res.Content)
	}
}

func TestReduce_EmptyInput(t *testing.T) {
	r := NewReducer()
	res := r.Reduce("", "https://rusutsu.com", Options{Strip: defaultStrip, Format: FormatText})
	if res.Content != "" || res.OriginalTokens != 0 {
		t.Errorf("unexpected result for empty input: %+v", res)
	}
}

func TestToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"paragraphs", `<p>Base</p><p>-5°C  snow</p>`, "Base\n-5°C snow"},
		{"list", `<ul><li>Gondola: Open</li><li>Quad: Hold</li></ul>`, "Gondola: Open\nQuad: Hold"},
		{"skips scripts", `<div>Summit<script>var a=1</script></div>`, "Summit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToText(tt.in); got != tt.want {
				t.Errorf("ToText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"ab", 1},
		{"abcdef", 2},
		{"リフト運行", 1},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.in); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
