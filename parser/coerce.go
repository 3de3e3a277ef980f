package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/skisnap/models"
)

// defaultVisibility is used when a weather record reports no visibility.
const defaultVisibility = 10.0

var leadingNumber = regexp.MustCompile(`^[+-]?\d+(?:[.,]\d+)?`)

// statusAliases maps lower-cased status wording to the lift status enum.
var statusAliases = map[string]string{
	"open":      models.LiftOpen,
	"operating": models.LiftOpen,
	"running":   models.LiftOpen,
	"closed":    models.LiftClosed,
	"close":     models.LiftClosed,
	"suspended": models.LiftClosed,
	"hold":      models.LiftHold,
	"on hold":   models.LiftHold,
	"standby":   models.LiftHold,
	"scheduled": models.LiftScheduled,
	"preparing": models.LiftScheduled,
	"unknown":   models.LiftUnknown,
}

func liftFromObject(obj map[string]any) models.LiftRecord {
	return models.LiftRecord{
		Name:          stringField(obj, "name"),
		Status:        normalizeStatus(stringField(obj, "status")),
		OperationTime: stringField(obj, "operation_time"),
		Type:          stringField(obj, "type"),
	}
}

func weatherFromObject(obj map[string]any) models.WeatherRecord {
	rec := models.WeatherRecord{
		Name:          stringField(obj, "name"),
		Condition:     stringField(obj, "condition"),
		WindDirection: stringField(obj, "wind_direction"),
		Summary:       stringField(obj, "summary"),
	}
	rec.Temperature, _ = floatField(obj, "temperature")
	rec.WindSpeed, _ = floatField(obj, "wind_speed")

	var ok bool
	if rec.Visibility, ok = floatField(obj, "visibility"); !ok {
		rec.Visibility = defaultVisibility
	}
	if rec.WindChill, ok = floatField(obj, "wind_chill"); !ok {
		rec.WindChill = rec.Temperature
	}
	return rec
}

// normalizeStatus matches s case-insensitively against the status enum.
// Anything unrecognised becomes Unknown.
func normalizeStatus(s string) string {
	if status, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return status
	}
	return models.LiftUnknown
}

func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// floatField reads a numeric field. Strings with a leading number such as
// "-4", "12.5 km/h" or "3,5" are accepted. ok is false when the field is
// missing or carries no number.
func floatField(obj map[string]any, key string) (float64, bool) {
	switch v := obj[key].(type) {
	case float64:
		return v, true
	case string:
		m := leadingNumber.FindString(strings.TrimSpace(v))
		if m == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
