package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"PaperFeed/internal/config"
)

// ChatGPTClient implements Generator backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ Generator = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ChatGPTConfig) *ChatGPTClient {
	return &ChatGPTClient{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate posts the prompt pair to the chat completions endpoint.
func (c *ChatGPTClient) Generate(ctx context.Context, systemPrompt, userText string) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", errors.New("chatgpt client misconfigured")
	}

	payload := map[string]any{
		"model": c.model,
		"messages": []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		},
	}

	var resp chatResponse
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	if err := postJSON(ctx, c.httpClient, c.endpoint, headers, payload, &resp); err != nil {
		return "", fmt.Errorf("chatgpt: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chatgpt: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
