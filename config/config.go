package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Output    OutputConfig
	Fetch     FetchConfig
	Browser   BrowserConfig
	Prompt    PromptConfig
	LLM       LLMConfig
	Snapshot  SnapshotConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// OutputConfig controls where the snapshot and registry live.
type OutputConfig struct {
	// Path is the snapshot file location.
	Path string // default: "docs/api/resort_data.json"

	// RegistryPath is a YAML registry file. Empty uses the embedded registry.
	RegistryPath string
}

// FetchConfig controls the page fetcher.
type FetchConfig struct {
	// Strategy is "rendered", "static" or "auto".
	Strategy string // default: "rendered"

	// StaticTimeout bounds a single static GET.
	StaticTimeout time.Duration // default: 10s

	// NetworkIdleTimeout bounds the wait for network quiescence.
	NetworkIdleTimeout time.Duration // default: 60s

	// SettleDelay is waited after network idle for client-side rendering.
	SettleDelay time.Duration // default: 5s

	// NavigationTimeout bounds the whole rendered fetch.
	NavigationTimeout time.Duration // default: 90s

	// EscalationDelay is how long "auto" waits before starting the browser
	// alongside the HTTP engine.
	EscalationDelay time.Duration // default: 3s
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker and CI).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is used for both the browser and the static fetcher.
	Proxy string

	// Stealth injects anti-bot-detection evasions before navigation.
	Stealth bool // default: true

	// BlockedResourceTypes lists resource types to block. Empty disables
	// request interception and enables the network-idle wait.
	BlockedResourceTypes []string

	// BlockAds blocks well-known ad and tracking domains.
	BlockAds bool // default: false
}

// PromptConfig controls the excerpt embedded in prompts.
type PromptConfig struct {
	// MaxChars is the excerpt budget in characters.
	MaxChars int // default: 30000

	// Format is "html", "markdown" or "text".
	Format string // default: "html"

	// StripSelectors are removed from the page before truncation.
	StripSelectors []string

	// Extract narrows the page to its main content before rendering:
	// "none", "readability" or "pruning".
	Extract string // default: "none"
}

// LLMConfig controls the completion client.
type LLMConfig struct {
	// Provider is "gemini" or "openai".
	Provider string // default: "gemini"

	APIKey  string
	Model   string // default: "gemini-1.5-flash"
	BaseURL string

	// Timeout bounds a single completion request.
	Timeout time.Duration // default: 120s

	// RequestsPerMinute caps completion calls. 0 disables the limiter.
	RequestsPerMinute float64 // default: 15

	// BreakerFailures opens the circuit after this many consecutive failures.
	BreakerFailures int // default: 3

	// CacheTTL reuses a completion for a byte-identical prompt. 0 disables.
	CacheTTL time.Duration // default: 0

	// CacheMaxEntries bounds the completion cache.
	CacheMaxEntries int // default: 256
}

// SnapshotConfig controls the builder.
type SnapshotConfig struct {
	// CourtesyDelay spaces out resorts.
	CourtesyDelay time.Duration // default: 2s

	// Concurrency is the number of resorts processed at once.
	Concurrency int // default: 1

	// Interval is the schedule period for "schedule" and "serve".
	Interval time.Duration // default: 30m
}

// ServerConfig controls the HTTP server used by "serve".
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// AuthConfig controls API key authentication of the refresh endpoint.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys lists the accepted keys. With auth enabled and no keys the
	// refresh endpoint is not registered.
	APIKeys []string
}

// RateLimitConfig controls per-client rate limiting of the HTTP surface.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client IP.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per client IP.
	Burst int // default: 10
}

// WebhookConfig controls the snapshot.updated notification.
type WebhookConfig struct {
	URL    string
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	provider := strings.ToLower(envOr("SKISNAP_LLM_PROVIDER", "gemini"))

	return &Config{
		Output: OutputConfig{
			Path:         envOr("SKISNAP_OUTPUT", "docs/api/resort_data.json"),
			RegistryPath: os.Getenv("SKISNAP_REGISTRY"),
		},
		Fetch: FetchConfig{
			Strategy:           envOr("SKISNAP_FETCH_STRATEGY", "rendered"),
			StaticTimeout:      envDurationOr("SKISNAP_STATIC_TIMEOUT", 10*time.Second),
			NetworkIdleTimeout: envDurationOr("SKISNAP_NETWORK_IDLE_TIMEOUT", 60*time.Second),
			SettleDelay:        envDurationOr("SKISNAP_SETTLE_DELAY", 5*time.Second),
			NavigationTimeout:  envDurationOr("SKISNAP_NAV_TIMEOUT", 90*time.Second),
			EscalationDelay:    envDurationOr("SKISNAP_ESCALATION_DELAY", 3*time.Second),
		},
		Browser: BrowserConfig{
			Headless:             envBoolOr("SKISNAP_HEADLESS", true),
			NoSandbox:            envBoolOr("SKISNAP_NO_SANDBOX", false),
			BrowserBin:           os.Getenv("SKISNAP_BROWSER_BIN"),
			Proxy:                os.Getenv("SKISNAP_PROXY"),
			Stealth:              envBoolOr("SKISNAP_STEALTH", true),
			BlockedResourceTypes: envSliceOr("SKISNAP_BLOCKED_RESOURCES", nil),
			BlockAds:             envBoolOr("SKISNAP_BLOCK_ADS", false),
		},
		Prompt: PromptConfig{
			MaxChars: envIntOr("SKISNAP_PROMPT_MAX_CHARS", 30000),
			Format:   envOr("SKISNAP_PROMPT_FORMAT", "html"),
			Extract:  envOr("SKISNAP_PROMPT_EXTRACT", "none"),
			StripSelectors: envSliceOr("SKISNAP_STRIP_SELECTORS", []string{
				"script", "style", "noscript", "svg", "iframe", "link", "meta",
			}),
		},
		LLM: LLMConfig{
			Provider:          provider,
			APIKey:            apiKeyFor(provider),
			Model:             envOr("SKISNAP_LLM_MODEL", defaultModel(provider)),
			BaseURL:           envOr("SKISNAP_LLM_BASE_URL", defaultBaseURL(provider)),
			Timeout:           envDurationOr("SKISNAP_LLM_TIMEOUT", 120*time.Second),
			RequestsPerMinute: envFloatOr("SKISNAP_LLM_RPM", 15),
			BreakerFailures:   envIntOr("SKISNAP_LLM_BREAKER_FAILURES", 3),
			CacheTTL:          envDurationOr("SKISNAP_LLM_CACHE_TTL", 0),
			CacheMaxEntries:   envIntOr("SKISNAP_LLM_CACHE_MAX_ENTRIES", 256),
		},
		Snapshot: SnapshotConfig{
			CourtesyDelay: envDurationOr("SKISNAP_COURTESY_DELAY", 2*time.Second),
			Concurrency:   envIntOr("SKISNAP_CONCURRENCY", 1),
			Interval:      envDurationOr("SKISNAP_INTERVAL", 30*time.Minute),
		},
		Server: ServerConfig{
			Host: envOr("SKISNAP_HOST", "0.0.0.0"),
			Port: envIntOr("SKISNAP_PORT", 8080),
			Mode: envOr("SKISNAP_MODE", "release"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SKISNAP_AUTH_ENABLED", true),
			APIKeys: envSliceOr("SKISNAP_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SKISNAP_RATE_RPS", 5.0),
			Burst:             envIntOr("SKISNAP_RATE_BURST", 10),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("SKISNAP_WEBHOOK_URL"),
			Secret: os.Getenv("SKISNAP_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("SKISNAP_LOG_LEVEL", "info"),
			Format: envOr("SKISNAP_LOG_FORMAT", "text"),
		},
	}
}

// CredentialEnv names the environment variable holding the API key for a provider.
func CredentialEnv(provider string) string {
	if provider == "openai" {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

func apiKeyFor(provider string) string {
	return strings.TrimSpace(os.Getenv(CredentialEnv(provider)))
}

func defaultModel(provider string) string {
	if provider == "openai" {
		return "gpt-4o-mini"
	}
	return "gemini-1.5-flash"
}

func defaultBaseURL(provider string) string {
	if provider == "openai" {
		return "https://api.openai.com/v1"
	}
	return "https://generativelanguage.googleapis.com/v1beta"
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
