package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"PaperFeed/internal/config"
)

// GeminiClient implements Generator against the generateContent REST API.
type GeminiClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ Generator = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	return &GeminiClient{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate runs one generateContent call and joins the text parts of the
// first candidate.
func (c *GeminiClient) Generate(ctx context.Context, systemPrompt, userText string) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", errors.New("gemini client misconfigured")
	}

	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: userText}}}},
	}
	if strings.TrimSpace(systemPrompt) != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}

	target := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, url.PathEscape(c.model))
	headers := map[string]string{"x-goog-api-key": c.apiKey}

	var resp geminiResponse
	if err := postJSON(ctx, c.httpClient, target, headers, req, &resp); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if reason := resp.PromptFeedback.BlockReason; reason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", reason)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
