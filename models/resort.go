package models

import "time"

// Section names one of the two extraction targets per resort.
type Section string

const (
	SectionLifts   Section = "lifts"
	SectionWeather Section = "weather"
)

// Lift statuses accepted in a LiftRecord.
const (
	LiftOpen      = "Open"
	LiftClosed    = "Closed"
	LiftHold      = "Hold"
	LiftScheduled = "Scheduled"
	LiftUnknown   = "Unknown"
)

// ResortConfig is one registry entry. It is loaded once at startup and never
// mutated afterwards.
type ResortConfig struct {
	// ID is a UUID string that matches the client-side registry.
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`

	LiftURL    string `yaml:"lift_url,omitempty" json:"lift_url,omitempty"`
	WeatherURL string `yaml:"weather_url,omitempty" json:"weather_url,omitempty"`

	// LiftSelector and WeatherSelector narrow the page to the relevant
	// region before the prompt is built. Empty means the whole page.
	LiftSelector    string `yaml:"lift_selector,omitempty" json:"lift_selector,omitempty"`
	WeatherSelector string `yaml:"weather_selector,omitempty" json:"weather_selector,omitempty"`

	// Strategy overrides the default fetch strategy for this resort.
	Strategy string `yaml:"strategy,omitempty" json:"strategy,omitempty"`
}

// URL returns the source URL for a section.
func (r ResortConfig) URL(s Section) string {
	if s == SectionLifts {
		return r.LiftURL
	}
	return r.WeatherURL
}

// Selector returns the CSS selector configured for a section.
func (r ResortConfig) Selector(s Section) string {
	if s == SectionLifts {
		return r.LiftSelector
	}
	return r.WeatherSelector
}

// LiftRecord is one lift row extracted from a status page.
type LiftRecord struct {
	Name          string `json:"name" validate:"required"`
	Status        string `json:"status" validate:"oneof=Open Closed Hold Scheduled Unknown"`
	OperationTime string `json:"operation_time"`
	Type          string `json:"type"`
}

// WeatherRecord is the weather for one area of a resort (base, summit, ...).
type WeatherRecord struct {
	Name          string  `json:"name" validate:"required"`
	Temperature   float64 `json:"temperature" validate:"gte=-80,lte=60"`
	Condition     string  `json:"condition"`
	WindSpeed     float64 `json:"wind_speed" validate:"gte=0,lte=500"`
	WindDirection string  `json:"wind_direction"`
	Visibility    float64 `json:"visibility" validate:"gte=0,lte=200"`
	WindChill     float64 `json:"wind_chill" validate:"gte=-120,lte=60"`
	Summary       string  `json:"summary"`
}

// ResortSnapshot is the per-resort part of a Snapshot. Lifts and Weather are
// never nil so they always serialize as JSON arrays.
type ResortSnapshot struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Lifts   []LiftRecord    `json:"lifts"`
	Weather []WeatherRecord `json:"weather"`
}

// NewResortSnapshot returns an empty snapshot for a registry entry.
func NewResortSnapshot(cfg ResortConfig) ResortSnapshot {
	return ResortSnapshot{
		ID:      cfg.ID,
		Name:    cfg.Name,
		Lifts:   []LiftRecord{},
		Weather: []WeatherRecord{},
	}
}

// Snapshot is the document written by one run. It fully replaces the prior one.
type Snapshot struct {
	LastUpdated Timestamp        `json:"last_updated"`
	Resorts     []ResortSnapshot `json:"resorts"`
}

// TimestampLayout is the second-precision UTC layout of last_updated.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Timestamp is a UTC time that marshals with second precision.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to seconds and converts it to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Second)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(TimestampLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	parsed, err := time.Parse(`"`+TimestampLayout+`"`, string(b))
	if err != nil {
		// Accept any RFC 3339 value written by other tools.
		parsed, err = time.Parse(`"`+time.RFC3339+`"`, string(b))
		if err != nil {
			return err
		}
	}
	t.Time = parsed.UTC()
	return nil
}
