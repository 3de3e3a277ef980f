// Package parser turns raw model output into typed lift and weather records.
//
// Parsing never fails outward. Text that cannot be decoded yields an empty,
// non-nil slice and a logged preview. Records that decode but do not validate
// are dropped individually.
package parser

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/titanous/json5"

	"github.com/use-agent/skisnap/models"
)

// previewChars is how much of an undecodable payload is logged.
const previewChars = 200

var validate = validator.New()

var errNotArray = errors.New("payload is not an array of objects")

// Clean removes the json-fence opener and generic closing fence a model may
// wrap around its payload, then trims surrounding whitespace.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ParseLifts decodes raw model output into lift records.
func ParseLifts(raw string) []models.LiftRecord {
	objects, ok := decode(raw, models.SectionLifts)
	records := make([]models.LiftRecord, 0, len(objects))
	if !ok {
		return records
	}
	for i, obj := range objects {
		rec := liftFromObject(obj)
		if err := validate.Struct(rec); err != nil {
			slog.Warn("dropping invalid lift record", "index", i, "name", rec.Name, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// ParseWeather decodes raw model output into weather records.
func ParseWeather(raw string) []models.WeatherRecord {
	objects, ok := decode(raw, models.SectionWeather)
	records := make([]models.WeatherRecord, 0, len(objects))
	if !ok {
		return records
	}
	for i, obj := range objects {
		rec := weatherFromObject(obj)
		if err := validate.Struct(rec); err != nil {
			slog.Warn("dropping invalid weather record", "index", i, "name", rec.Name, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// decode cleans raw and decodes it into flat objects. Strict JSON is tried
// first, then JSON5, then both again on the outermost [...] slice.
func decode(raw string, section models.Section) ([]map[string]any, bool) {
	cleaned := Clean(raw)
	if cleaned == "" {
		slog.Warn("empty model output", "section", section)
		return nil, false
	}

	objects, err := decodeObjects(cleaned)
	if err == nil {
		return objects, true
	}

	if start, end := strings.IndexByte(cleaned, '['), strings.LastIndexByte(cleaned, ']'); start >= 0 && end > start {
		if objects, sliceErr := decodeObjects(cleaned[start : end+1]); sliceErr == nil {
			slog.Debug("decoded payload embedded in prose", "section", section)
			return objects, true
		}
	}

	slog.Warn("failed to decode model output",
		"section", section,
		"code", models.ErrCodeDecode,
		"error", err,
		"preview", preview(cleaned),
	)
	return nil, false
}

func decodeObjects(text string) ([]map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		if err5 := json5.Unmarshal([]byte(text), &v); err5 != nil {
			return nil, err
		}
	}
	return toObjects(v)
}

// toObjects accepts an array of objects or a single object. Array elements
// that are not objects are skipped.
func toObjects(v any) ([]map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}, nil
	case []any:
		objects := make([]map[string]any, 0, len(t))
		for _, elem := range t {
			if obj, ok := elem.(map[string]any); ok {
				objects = append(objects, obj)
			}
		}
		return objects, nil
	}
	return nil, errNotArray
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= previewChars {
		return s
	}
	return string([]rune(s)[:previewChars]) + "..."
}
