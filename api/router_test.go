package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/use-agent/skisnap/cleaner"
	"github.com/use-agent/skisnap/config"
	"github.com/use-agent/skisnap/models"
	"github.com/use-agent/skisnap/scraper"
	"github.com/use-agent/skisnap/snapshot"
)

type noFetch struct{}

func (noFetch) Fetch(ctx context.Context, url string, strategy scraper.Strategy) (string, bool) {
	return "", false
}

type noReduce struct{}

func (noReduce) Reduce(rawHTML, sourceURL string, opts cleaner.Options) cleaner.Result {
	return cleaner.Result{Content: rawHTML}
}

type noComplete struct{}

func (noComplete) Complete(ctx context.Context, prompt string) (string, bool) { return "", false }

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Server.Mode = "test"
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100}
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"good-key"}}
	return cfg
}

func newTestRunner(t *testing.T) *snapshot.Runner {
	t.Helper()
	registry := []models.ResortConfig{{ID: "44444444-4444-4444-4444-444444444444", Name: "Rusutsu Resort"}}
	b := snapshot.NewBuilder(noFetch{}, noReduce{}, noComplete{}, snapshot.Options{})
	return snapshot.NewRunner(b, registry, filepath.Join(t.TempDir(), "api", "resort_data.json"), nil)
}

func do(r http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := NewRouter(context.Background(), newTestRunner(t), testConfig(), "test", time.Now())

	w := do(r, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, "test", resp.Version)
	require.Equal(t, 1, resp.Resorts)
	require.Zero(t, resp.Run.Runs)
}

func TestSnapshot_NotFoundBeforeFirstWrite(t *testing.T) {
	r := NewRouter(context.Background(), newTestRunner(t), testConfig(), "test", time.Now())

	w := do(r, http.MethodGet, "/api/resort_data.json", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, models.ErrCodeNotFound, resp.Error.Code)
}

func TestSnapshot_ServesWrittenFile(t *testing.T) {
	runner := newTestRunner(t)
	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	r := NewRouter(context.Background(), runner, testConfig(), "test", time.Now())
	for _, path := range []string{"/api/resort_data.json", "/api/v1/snapshot"} {
		w := do(r, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		require.Contains(t, w.Header().Get("Content-Type"), "application/json")

		var snap models.Snapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		require.Len(t, snap.Resorts, 1)
		require.Equal(t, "Rusutsu Resort", snap.Resorts[0].Name)
		require.NotNil(t, snap.Resorts[0].Lifts)
	}
}

func TestRefresh_RequiresKey(t *testing.T) {
	r := NewRouter(context.Background(), newTestRunner(t), testConfig(), "test", time.Now())

	w := do(r, http.MethodPost, "/api/v1/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/v1/refresh", http.Header{"X-Api-Key": {"wrong"}})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh_StartsRun(t *testing.T) {
	runner := newTestRunner(t)
	r := NewRouter(context.Background(), runner, testConfig(), "test", time.Now())

	w := do(r, http.MethodPost, "/api/v1/refresh", http.Header{"Authorization": {"Bearer good-key"}})
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Eventually(t, func() bool {
		st := runner.Status()
		return st.Runs == 1 && !st.Running
	}, 5*time.Second, 10*time.Millisecond)

	w = do(r, http.MethodGet, "/api/resort_data.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRefresh_NotRegisteredWithoutKeys(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.APIKeys = nil
	r := NewRouter(context.Background(), newTestRunner(t), cfg, "test", time.Now())

	w := do(r, http.MethodPost, "/api/v1/refresh", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.5, Burst: 2}
	r := NewRouter(context.Background(), newTestRunner(t), cfg, "test", time.Now())

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/resort_data.json", nil).Code)
	}
	w := do(r, http.MethodGet, "/api/resort_data.json", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "2", w.Header().Get("Retry-After"))

	// Health is not rate limited.
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/health", nil).Code)
}
