package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/use-agent/skisnap/models"
)

func TestLoadRegistry_Embedded(t *testing.T) {
	resorts, err := LoadRegistry("")
	require.NoError(t, err)
	require.Len(t, resorts, 1)
	require.Equal(t, "44444444-4444-4444-4444-444444444444", resorts[0].ID)
	require.Equal(t, "Rusutsu Resort", resorts[0].Name)
	require.NotEmpty(t, resorts[0].LiftURL)
	require.NotEmpty(t, resorts[0].WeatherURL)
}

func TestLoadRegistry_File(t *testing.T) {
	resorts, err := LoadRegistry(filepath.Join("testdata", "registry.yaml"))
	require.NoError(t, err)
	require.Len(t, resorts, 2)

	niseko := resorts[1]
	require.Equal(t, "Niseko Grand Hirafu", niseko.Name)
	require.Empty(t, niseko.WeatherURL)
	require.Equal(t, "#lift-status", niseko.Selector(models.SectionLifts))
	require.Equal(t, "static", niseko.Strategy)
}

func TestLoadRegistry_Invalid(t *testing.T) {
	path := filepath.Join("testdata", "registry_invalid.yaml")
	_, err := LoadRegistry(path)
	require.Error(t, err)
	require.Equal(t, models.ErrCodeConfigInvalid, models.CodeOf(err))

	msg := err.Error()
	for _, want := range []string{"resorts[0].id", "resorts[0].lift_url", path} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in error, got %v", want, err)
		}
	}
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join("testdata", "nope.yaml"))
	require.Error(t, err)
	require.Equal(t, models.ErrCodeConfigInvalid, models.CodeOf(err))
}

func TestParseRegistry(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty",
			yaml:    "resorts: []",
			wantErr: "lists no resorts",
		},
		{
			name: "duplicate id",
			yaml: `
resorts:
  - id: 44444444-4444-4444-4444-444444444444
    name: A
  - id: 44444444-4444-4444-4444-444444444444
    name: B
`,
			wantErr: "duplicate of resorts[0]",
		},
		{
			name: "missing name",
			yaml: `
resorts:
  - id: 44444444-4444-4444-4444-444444444444
`,
			wantErr: "resorts[0].name: required",
		},
		{
			name: "unknown strategy",
			yaml: `
resorts:
  - id: 44444444-4444-4444-4444-444444444444
    name: A
    strategy: telepathy
`,
			wantErr: "resorts[0].strategy",
		},
		{
			name: "no sections is allowed",
			yaml: `
resorts:
  - id: 44444444-4444-4444-4444-444444444444
    name: A
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(tt.yaml), "test")
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseRegistry_TrimsFields(t *testing.T) {
	resorts, err := ParseRegistry([]byte(`
resorts:
  - id: " 44444444-4444-4444-4444-444444444444 "
    name: "  Rusutsu  "
    lift_url: " https://rusutsu.com/lifts "
`), "test")
	require.NoError(t, err)
	require.Equal(t, "44444444-4444-4444-4444-444444444444", resorts[0].ID)
	require.Equal(t, "Rusutsu", resorts[0].Name)
	require.Equal(t, "https://rusutsu.com/lifts", resorts[0].LiftURL)
}
