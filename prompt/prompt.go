// Package prompt renders the extraction prompts sent to the model.
//
// Each template fixes the output contract for one section: a JSON array of
// flat objects with the section's fields, returned as raw JSON. The parser
// package is written against these contracts.
package prompt

import (
	"fmt"
	"unicode/utf8"

	"github.com/use-agent/skisnap/models"
)

// DefaultMaxChars is the excerpt budget used when none is configured.
const DefaultMaxChars = 30000

const liftTemplate = `You are an expert data extractor.
Extract the ski lift status from the following page content.

Return specific lifts with their status (Open, Closed, Hold, Scheduled, Unknown).
Also extract lift type (Gondola, Chairlift, Ropeway, etc.) if mentioned or inferable.

Page Content:
%s

Output must be a valid JSON array of objects with these keys:
- name: String
- status: String (Open, Closed, Hold, Scheduled, Unknown)
- operation_time: String (e.g. "09:00 - 16:00")
- type: String (Gondola, Chairlift, Ropeway, T-Bar, Lift)

Example:
[{"name": "Vista Chair", "status": "Open", "operation_time": "09:00 ~ 16:00", "type": "Chairlift"}]

Return ONLY the raw JSON. No markdown formatting.
`

const weatherTemplate = `You are an expert data extractor.
Extract ski resort weather conditions from the following page content.

The content may contain weather for multiple areas (e.g. "Base", "Summit", "West Mt", "East Mt").
Extract data for EACH distinct area found.

Page Content:
%s

Output must be a valid JSON array of objects with these keys:
- name: String (The location name, e.g. "West Mt Summit")
- temperature: Number (Celsius. If range, take average or lower bound. If in F, convert.)
- condition: String (Short description, e.g. "Snow", "Cloudy")
- wind_speed: Number (km/h. If m/s, multiply by 3.6)
- wind_direction: String (e.g. "NW")
- visibility: Number (km. If unable to find, estimate 10.0 for clear, 0.5 for snow)
- wind_chill: Number (Celsius. If not found, use temperature)
- summary: String (One sentence summary)

Example:
[{"name": "Summit", "temperature": -8.5, "condition": "Snow", "wind_speed": 45, "wind_direction": "NW", "visibility": 0.2, "wind_chill": -15, "summary": "Blizzard conditions."}]

Return ONLY the raw JSON. No markdown formatting.
`

// Build renders the prompt for section with excerpt truncated to maxChars
// characters. A maxChars of zero or less disables truncation.
func Build(section models.Section, excerpt string, maxChars int) (string, error) {
	var tmpl string
	switch section {
	case models.SectionLifts:
		tmpl = liftTemplate
	case models.SectionWeather:
		tmpl = weatherTemplate
	default:
		return "", fmt.Errorf("prompt: unknown section %q", section)
	}
	return fmt.Sprintf(tmpl, Truncate(excerpt, maxChars)), nil
}

// Truncate returns the first max characters of s. It never splits a
// multi-byte character.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
