package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestTimestamp_MarshalJSON(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	ts := NewTimestamp(time.Date(2026, 1, 15, 8, 0, 5, 999_000_000, jst))

	b, err := json.Marshal(ts)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `"2026-01-14T23:00:05Z"`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{`"2026-01-14T23:00:05Z"`, time.Date(2026, 1, 14, 23, 0, 5, 0, time.UTC), false},
		{`"2026-01-15T08:00:05+09:00"`, time.Date(2026, 1, 14, 23, 0, 5, 0, time.UTC), false},
		{`null`, time.Time{}, false},
		{`"yesterday"`, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var ts Timestamp
			err := json.Unmarshal([]byte(tt.in), &ts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !ts.Equal(tt.want) {
				t.Errorf("Unmarshal = %v, want %v", ts.Time, tt.want)
			}
		})
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	snap := Snapshot{
		LastUpdated: NewTimestamp(time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC)),
		Resorts: []ResortSnapshot{
			{
				ID:   "44444444-4444-4444-4444-444444444444",
				Name: "Rusutsu Resort",
				Lifts: []LiftRecord{
					{Name: "Vista Chair", Status: LiftOpen, OperationTime: "09:00 ~ 16:00", Type: "Chairlift"},
					{Name: "East Gondola", Status: LiftHold, Type: "Gondola"},
				},
				Weather: []WeatherRecord{
					{Name: "Summit", Temperature: -8.5, Condition: "Snow", WindSpeed: 45, WindDirection: "NW", Visibility: 0.2, WindChill: -15, Summary: "Blizzard conditions."},
				},
			},
			NewResortSnapshot(ResortConfig{ID: "x", Name: "Empty"}),
		},
	}

	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	var got Snapshot
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(snap, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNewResortSnapshot_EmptyArrays(t *testing.T) {
	b, err := json.Marshal(NewResortSnapshot(ResortConfig{ID: "a", Name: "A", LiftURL: "https://a.example"}))
	if err != nil {
		t.Fatal(err)
	}
	got := string(b)
	if !strings.Contains(got, `"lifts":[]`) || !strings.Contains(got, `"weather":[]`) {
		t.Errorf("expected empty arrays, got %s", got)
	}
	if strings.Contains(got, "lift_url") {
		t.Errorf("registry fields leaked into snapshot: %s", got)
	}
}

func TestResortConfig_SectionAccessors(t *testing.T) {
	rc := ResortConfig{LiftURL: "l", WeatherURL: "w", LiftSelector: "#l", WeatherSelector: "#w"}
	if rc.URL(SectionLifts) != "l" || rc.URL(SectionWeather) != "w" {
		t.Error("URL accessor mismatch")
	}
	if rc.Selector(SectionLifts) != "#l" || rc.Selector(SectionWeather) != "#w" {
		t.Error("Selector accessor mismatch")
	}
}

func TestCodeOf(t *testing.T) {
	inner := NewPipelineError(ErrCodeTimeout, "slow", nil)
	wrapped := &wrapErr{inner}
	if got := CodeOf(wrapped); got != ErrCodeTimeout {
		t.Errorf("CodeOf(wrapped) = %q", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("CodeOf(nil) = %q", got)
	}

	joined := errors.Join(
		fmt.Errorf("http: %w", errors.New("shell page")),
		fmt.Errorf("rod: %w", NewPipelineError(ErrCodeNavigation, "dns", nil)),
	)
	if got := CodeOf(joined); got != ErrCodeNavigation {
		t.Errorf("CodeOf(joined) = %q, want %q", got, ErrCodeNavigation)
	}
}

type wrapErr struct{ err error }

func (w *wrapErr) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapErr) Unwrap() error { return w.err }
