// Package llm sends extraction prompts to a text-completion provider.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/use-agent/skisnap/config"
	"github.com/use-agent/skisnap/models"
)

// Completer is one text-in, text-out call to a model. Implementations make
// exactly one request and never retry.
type Completer interface {
	// Model identifies the provider and model, e.g. "gemini/gemini-1.5-flash".
	Model() string

	Complete(ctx context.Context, prompt string) (string, error)
}

// NewCompleter builds the Completer for cfg.Provider. A missing API key is a
// CONFIG_INVALID error; callers check it at startup.
func NewCompleter(cfg config.LLMConfig, httpClient *http.Client) (Completer, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.APIKey == "" {
		return nil, models.NewPipelineError(models.ErrCodeConfigInvalid,
			fmt.Sprintf("%s is not set", config.CredentialEnv(cfg.Provider)), nil)
	}
	switch cfg.Provider {
	case "gemini", "":
		return NewGeminiClient(httpClient, cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case "openai":
		return NewOpenAIClient(httpClient, cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	}
	return nil, models.NewPipelineError(models.ErrCodeConfigInvalid,
		fmt.Sprintf("unknown LLM provider %q", cfg.Provider), nil)
}

// classifyStatus maps a provider HTTP status to an error code.
func classifyStatus(statusCode int, msg string) *models.PipelineError {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return models.NewPipelineError(models.ErrCodeLLMAuthFailure, msg, nil)
	case statusCode == http.StatusTooManyRequests:
		return models.NewPipelineError(models.ErrCodeLLMRateLimited, msg, nil)
	default:
		return models.NewPipelineError(models.ErrCodeLLMFailure,
			fmt.Sprintf("LLM API returned %d: %s", statusCode, msg), nil)
	}
}
