package voicevox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"PaperFeed/internal/config"
	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
)

// Client talks to a VOICEVOX engine: audio_query first, then synthesis.
type Client struct {
	endpoint string
	http     *http.Client
}

var _ ports.VoiceSynthesizer = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.VoiceVoxConfig) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.URL, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

// Synthesize renders text with the given speaker and returns WAV bytes.
func (c *Client) Synthesize(ctx context.Context, text string, speaker int) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text: %w", domain.ErrSynthesisFailed)
	}

	params := url.Values{}
	params.Set("text", text)
	params.Set("speaker", strconv.Itoa(speaker))

	query, err := c.post(ctx, "/audio_query", params, nil)
	if err != nil {
		return nil, fmt.Errorf("audio query: %w", err)
	}
	if !json.Valid(query) {
		return nil, fmt.Errorf("audio query returned invalid JSON: %w", domain.ErrSynthesisFailed)
	}

	params = url.Values{}
	params.Set("speaker", strconv.Itoa(speaker))

	audio, err := c.post(ctx, "/synthesis", params, query)
	if err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio: %w", domain.ErrSynthesisFailed)
	}
	return audio, nil
}

func (c *Client) post(ctx context.Context, path string, params url.Values, body []byte) ([]byte, error) {
	target := c.endpoint + path + "?" + params.Encode()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, reader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %s: %s: %w", resp.Status, strings.TrimSpace(string(snippet)), domain.ErrSynthesisFailed)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return payload, nil
}
