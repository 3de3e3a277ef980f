package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/skisnap/config"
)

func testConfig(strategy string) (config.FetchConfig, config.BrowserConfig) {
	fc := config.FetchConfig{
		Strategy:           strategy,
		StaticTimeout:      2 * time.Second,
		NetworkIdleTimeout: time.Second,
		NavigationTimeout:  5 * time.Second,
		EscalationDelay:    time.Second,
	}
	return fc, config.BrowserConfig{Headless: true}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", Rendered, false},
		{"static", Static, false},
		{" Rendered ", Rendered, false},
		{"AUTO", Auto, false},
		{"headless", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in, Rendered)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNew_RejectsUnknownStrategy(t *testing.T) {
	fc, bc := testConfig("telepathy")
	if _, err := New(fc, bc); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestScraper_FetchStatic(t *testing.T) {
	const page = `<html><body><table><tr><td>Gondola</td><td>Open</td></tr></table></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	fc, bc := testConfig("static")
	s, err := New(fc, bc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	html, ok := s.Fetch(context.Background(), srv.URL+"/lifts", "")
	if !ok {
		t.Fatal("expected static fetch to succeed")
	}
	if html != page {
		t.Errorf("html = %q", html)
	}

	if _, ok := s.Fetch(context.Background(), srv.URL+"/missing", Static); ok {
		t.Error("404 should yield absence")
	}
	if _, ok := s.Fetch(context.Background(), "http://127.0.0.1:1/unreachable", Static); ok {
		t.Error("connection failure should yield absence")
	}
}

func TestScraper_FetchAfterClose(t *testing.T) {
	fc, bc := testConfig("rendered")
	s, err := New(fc, bc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Close()

	if _, ok := s.Fetch(context.Background(), "https://example.com", Rendered); ok {
		t.Error("rendered fetch after Close should yield absence")
	}
}

func TestBlocker(t *testing.T) {
	if newBlocker(nil, false) != nil {
		t.Fatal("empty config should not install a blocker")
	}
	if newBlocker([]string{"Script", "bogus"}, false) != nil {
		t.Fatal("script and unknown types are never blocked")
	}

	b := newBlocker([]string{"Image", " font "}, true)
	tests := []struct {
		rt   proto.NetworkResourceType
		url  string
		want bool
	}{
		{proto.NetworkResourceTypeImage, "https://rusutsu.com/map.png", true},
		{proto.NetworkResourceTypeFont, "https://fonts.example.com/a.woff2", true},
		{proto.NetworkResourceTypeDocument, "https://rusutsu.com/lifts", false},
		{proto.NetworkResourceTypeXHR, "https://rusutsu.com/api/lifts.json", false},
		{proto.NetworkResourceTypeScript, "https://www.googletagmanager.com/gtm.js", true},
		{proto.NetworkResourceTypeScript, "https://pagead2.googlesyndication.com/ads.js", true},
	}
	for _, tt := range tests {
		if got := b.shouldBlock(tt.rt, tt.url); got != tt.want {
			t.Errorf("shouldBlock(%s, %s) = %v, want %v", tt.rt, tt.url, got, tt.want)
		}
	}
}

func TestIsAdDomain(t *testing.T) {
	tests := map[string]bool{
		"doubleclick.net":          true,
		"stats.g.doubleclick.net":  true,
		"WWW.GOOGLE-ANALYTICS.COM": true,
		"rusutsu.com":              false,
		"notdoubleclick.net":       false,
		"snow-forecast.com":        false,
		"ads.i-mobile.co.jp":       true,
	}
	for host, want := range tests {
		if got := isAdDomain(host); got != want {
			t.Errorf("isAdDomain(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestExtraHeaders(t *testing.T) {
	h := extraHeaders("https://rusutsu.com/lift-and-trail-status/")
	if h["Referer"] != "https://www.google.com/search?q=rusutsu.com" {
		t.Errorf("Referer = %q", h["Referer"])
	}
	if len(extraHeaders("::bad")) != 0 {
		t.Error("unparseable URL should yield no headers")
	}
}
