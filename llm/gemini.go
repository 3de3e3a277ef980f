package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/use-agent/skisnap/models"
)

// GeminiClient calls the Gemini generateContent REST endpoint.
// It uses net/http directly, no SDK.
type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string // e.g. "https://generativelanguage.googleapis.com/v1beta"
}

// NewGeminiClient creates a GeminiClient.
func NewGeminiClient(httpClient *http.Client, apiKey, model, baseURL string) *GeminiClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &GeminiClient{
		httpClient: httpClient,
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *GeminiClient) Model() string { return "gemini/" + c.model }

// Complete sends prompt as a single user turn and returns the concatenated
// text of the first candidate.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: 0},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.NewPipelineError(models.ErrCodeLLMFailure, "LLM request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewPipelineError(models.ErrCodeLLMFailure, "failed to read LLM response", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := "LLM API error"
		var errResp geminiErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return "", classifyStatus(resp.StatusCode, msg)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", models.NewPipelineError(models.ErrCodeLLMFailure, "failed to parse LLM response", err)
	}
	if genResp.PromptFeedback.BlockReason != "" {
		return "", models.NewPipelineError(models.ErrCodeLLMEmpty,
			"prompt blocked: "+genResp.PromptFeedback.BlockReason, nil)
	}
	if len(genResp.Candidates) == 0 {
		return "", models.NewPipelineError(models.ErrCodeLLMEmpty, "LLM returned no candidates", nil)
	}

	var text strings.Builder
	for _, part := range genResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", models.NewPipelineError(models.ErrCodeLLMEmpty,
			"LLM returned no text (finish reason "+genResp.Candidates[0].FinishReason+")", nil)
	}
	return text.String(), nil
}
