package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/use-agent/skisnap/models"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		section models.Section
		wants   []string
	}{
		{models.SectionLifts, []string{"operation_time", "Vista Chair", "Open, Closed, Hold, Scheduled, Unknown"}},
		{models.SectionWeather, []string{"wind_chill", "visibility", "multiply by 3.6", "EACH distinct area"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.section), func(t *testing.T) {
			got, err := Build(tt.section, "<table>GONDOLA 100%</table>", 100)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if !strings.Contains(got, "<table>GONDOLA 100%</table>") {
				t.Error("excerpt not embedded verbatim")
			}
			if !strings.Contains(got, "Return ONLY the raw JSON") {
				t.Error("missing raw JSON instruction")
			}
			for _, w := range tt.wants {
				if !strings.Contains(got, w) {
					t.Errorf("prompt missing %q", w)
				}
			}
		})
	}
}

func TestBuild_UnknownSection(t *testing.T) {
	if _, err := Build("trails", "x", 10); err == nil {
		t.Fatal("expected error for unknown section")
	}
}

func TestBuild_Truncates(t *testing.T) {
	excerpt := strings.Repeat("a", 50) + "TAIL"
	got, err := Build(models.SectionLifts, excerpt, 50)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "TAIL") {
		t.Error("excerpt beyond budget should be cut")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a, _ := Build(models.SectionWeather, "same", 10)
	b, _ := Build(models.SectionWeather, "same", 10)
	if a != b {
		t.Error("Build should be pure")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"no limit", "abcdef", 0, "abcdef"},
		{"under", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"ascii cut", "abcdef", 3, "abc"},
		{"multibyte cut", "リフト運行中", 3, "リフト"},
		{"multibyte under byte length", "気温-5℃", 5, "気温-5℃"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Truncate produced invalid UTF-8: %q", got)
			}
		})
	}
}
