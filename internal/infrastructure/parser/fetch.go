package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultUserAgent = "paperfeed/1.0"

// fetcher issues rate-limited GET requests shared by the arXiv scanners.
type fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func newFetcher(client *http.Client, limiter *rate.Limiter) fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return fetcher{client: client, limiter: limiter, userAgent: defaultUserAgent}
}

// get returns the body of a 200 response; the caller closes it.
func (f fetcher) get(ctx context.Context, target string) (io.ReadCloser, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}
	return resp.Body, nil
}

// NewLimiter converts a requests-per-second budget into a limiter with burst 1.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
