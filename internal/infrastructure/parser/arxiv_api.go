package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/scanner"
)

const (
	arxivAPIEndpoint  = "https://export.arxiv.org/api/query"
	defaultMaxResults = 20
)

// ArxivAPIScanner queries the arXiv Atom API for the newest papers of each
// category. Options: maxResults, endpoint, query (free-text search instead of
// the category).
type ArxivAPIScanner struct {
	fetcher fetcher
}

// NewArxivAPIScanner wires an HTTP client and an optional limiter.
func NewArxivAPIScanner(client *http.Client, limiter *rate.Limiter) *ArxivAPIScanner {
	return &ArxivAPIScanner{fetcher: newFetcher(client, limiter)}
}

// WithUserAgent overrides the User-Agent sent with API requests.
func (a *ArxivAPIScanner) WithUserAgent(ua string) *ArxivAPIScanner {
	if ua != "" {
		a.fetcher.userAgent = ua
	}
	return a
}

func (a *ArxivAPIScanner) Name() string {
	return "arxiv-api"
}

// Scan returns the newest papers of every category. The day of the request is
// not used as a filter; announcements lag submission dates.
func (a *ArxivAPIScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Paper, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	maxResults, err := strconv.Atoi(req.Option("maxResults", strconv.Itoa(defaultMaxResults)))
	if err != nil || maxResults <= 0 {
		return nil, fmt.Errorf("site %s: invalid maxResults %q", req.SiteName, req.Options["maxResults"])
	}

	seen := map[string]struct{}{}
	var results []domain.Paper
	for _, cat := range req.Categories {
		endpoint := cat.URL
		if endpoint == "" {
			endpoint = req.Option("endpoint", arxivAPIEndpoint)
		}
		target, err := buildQueryURL(endpoint, searchQuery(cat.Name, req.Option("query", "")), maxResults)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}

		papers, err := a.fetchCategory(ctx, target, cat.Name)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}
		for _, p := range papers {
			if _, ok := seen[p.URL]; ok {
				continue
			}
			seen[p.URL] = struct{}{}
			results = append(results, p)
		}
	}
	return results, nil
}

func (a *ArxivAPIScanner) fetchCategory(ctx context.Context, target, category string) ([]domain.Paper, error) {
	body, err := a.fetcher.get(ctx, target)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	papers := make([]domain.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		if p, ok := paperFromItem(item, category); ok {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

func paperFromItem(item *gofeed.Item, category string) (domain.Paper, bool) {
	link := item.Link
	if link == "" && len(item.Links) > 0 {
		link = item.Links[0]
	}
	if link == "" {
		link = item.GUID
	}
	if link == "" {
		return domain.Paper{}, false
	}

	names := make([]string, 0, len(item.Authors))
	for _, author := range item.Authors {
		if author != nil {
			names = append(names, author.Name)
		}
	}

	if primary := primaryCategory(item); primary != "" {
		category = primary
	}

	published := time.Now().UTC()
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	}

	return domain.Paper{
		Title:       domain.CollapseSpace(item.Title),
		Authors:     domain.FormatAuthors(names),
		PublishedAt: published,
		URL:         link,
		Category:    category,
		Abstract:    domain.CollapseSpace(item.Description),
	}, true
}

func primaryCategory(item *gofeed.Item) string {
	ext, ok := item.Extensions["arxiv"]
	if !ok {
		return ""
	}
	for _, e := range ext["primary_category"] {
		if term := e.Attrs["term"]; term != "" {
			return term
		}
	}
	return ""
}

// searchQuery ANDs every comma- or space-separated keyword; without keywords
// it searches the category.
func searchQuery(category, query string) string {
	keywords := strings.Fields(strings.ReplaceAll(query, ",", " "))
	if len(keywords) == 0 {
		return "cat:" + category
	}
	terms := make([]string, len(keywords))
	for i, kw := range keywords {
		terms[i] = "all:" + kw
	}
	return "(" + strings.Join(terms, " AND ") + ")"
}

func buildQueryURL(endpoint, search string, maxResults int) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %s: %w", endpoint, err)
	}
	q := parsed.Query()
	q.Set("search_query", search)
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(maxResults))
	parsed.RawQuery = strings.ReplaceAll(q.Encode(), "%3A", ":")
	return parsed.String(), nil
}
