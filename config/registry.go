package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/use-agent/skisnap/models"
)

//go:embed resorts.yaml
var defaultRegistry []byte

// Strategies accepted in a registry entry's strategy field.
var Strategies = []string{"static", "rendered", "auto"}

// registryFile is the on-disk YAML shape.
type registryFile struct {
	Resorts []models.ResortConfig `yaml:"resorts"`
}

// LoadRegistry reads the registry from path, or the embedded default when
// path is empty. The returned slice is never mutated by the pipeline.
func LoadRegistry(path string) ([]models.ResortConfig, error) {
	data := defaultRegistry
	source := "embedded"
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, models.NewPipelineError(models.ErrCodeConfigInvalid,
				fmt.Sprintf("read registry %s", path), err)
		}
		data = b
		source = path
	}
	return ParseRegistry(data, source)
}

// ParseRegistry decodes and validates registry YAML. source only labels errors.
func ParseRegistry(data []byte, source string) ([]models.ResortConfig, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeConfigInvalid,
			fmt.Sprintf("decode registry %s", source), err)
	}
	if len(file.Resorts) == 0 {
		return nil, models.NewPipelineError(models.ErrCodeConfigInvalid,
			fmt.Sprintf("registry %s lists no resorts", source), nil)
	}

	var errs []error
	seen := make(map[string]int, len(file.Resorts))
	for i := range file.Resorts {
		r := &file.Resorts[i]
		r.ID = strings.TrimSpace(r.ID)
		r.Name = strings.TrimSpace(r.Name)
		r.LiftURL = strings.TrimSpace(r.LiftURL)
		r.WeatherURL = strings.TrimSpace(r.WeatherURL)

		field := func(name string) string { return fmt.Sprintf("resorts[%d].%s", i, name) }

		if _, err := uuid.Parse(r.ID); err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a UUID", field("id"), r.ID))
		} else if prev, dup := seen[strings.ToLower(r.ID)]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate of resorts[%d]", field("id"), prev))
		} else {
			seen[strings.ToLower(r.ID)] = i
		}
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("%s: required", field("name")))
		}
		if err := checkURL(r.LiftURL); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field("lift_url"), err))
		}
		if err := checkURL(r.WeatherURL); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field("weather_url"), err))
		}
		if r.Strategy != "" && !validStrategy(r.Strategy) {
			errs = append(errs, fmt.Errorf("%s: %q is not one of %s",
				field("strategy"), r.Strategy, strings.Join(Strategies, ", ")))
		}
	}
	if len(errs) > 0 {
		return nil, models.NewPipelineError(models.ErrCodeConfigInvalid,
			fmt.Sprintf("invalid registry %s", source), errors.Join(errs...))
	}
	return file.Resorts, nil
}

// checkURL accepts an empty value (section absent) or an absolute http(s) URL.
func checkURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}

func validStrategy(s string) bool {
	for _, v := range Strategies {
		if v == s {
			return true
		}
	}
	return false
}
