package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/scanner"
)

const arxivBaseURL = "https://arxiv.org"

var (
	dateExpr     = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)
	categoryExpr = regexp.MustCompile(`\(([a-zA-Z\-]+(?:\.[a-zA-Z\-]+)?)\)`)
)

// ArxivScanner crawls category listing pages and extracts papers for the requested day.
type ArxivScanner struct {
	fetcher  fetcher
	pageSize int
}

// NewArxivScanner wires an HTTP client and an optional limiter; pageSize defaults to 200.
func NewArxivScanner(client *http.Client, limiter *rate.Limiter) *ArxivScanner {
	return &ArxivScanner{fetcher: newFetcher(client, limiter), pageSize: 200}
}

// WithUserAgent overrides the User-Agent sent with listing requests.
func (a *ArxivScanner) WithUserAgent(ua string) *ArxivScanner {
	if ua != "" {
		a.fetcher.userAgent = ua
	}
	return a
}

// Name identifies the strategy inside the registry.
func (a *ArxivScanner) Name() string {
	return "arxiv"
}

// Scan walks through each category URL and returns all papers published on the requested day.
func (a *ArxivScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Paper, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	targetDay := req.Day.UTC().Truncate(24 * time.Hour)
	results := make([]domain.Paper, 0)
	seen := map[string]struct{}{}

	for _, cat := range req.Categories {
		skip := 0
		for {
			pageURL, err := buildPageURL(cat.URL, skip, a.pageSize)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			doc, err := a.fetchDocument(ctx, pageURL)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			pagePapers, shouldContinue := a.extractPapers(doc, targetDay, cat.Name)
			for _, paper := range pagePapers {
				if _, ok := seen[paper.URL]; ok {
					continue
				}
				seen[paper.URL] = struct{}{}
				results = append(results, paper)
			}

			if !shouldContinue {
				break
			}
			skip += a.pageSize
		}
	}

	return results, nil
}

func (a *ArxivScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := a.fetcher.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (a *ArxivScanner) extractPapers(doc *goquery.Document, targetDay time.Time, category string) ([]domain.Paper, bool) {
	var (
		collected    []domain.Paper
		continueScan = true
		processed    int
	)

	doc.Find("dl > dt").EachWithBreak(func(i int, dt *goquery.Selection) bool {
		dd := dt.Next()
		processed++

		paper, ok := parseEntry(dt, dd, category)
		if !ok {
			return true
		}

		paperDay := paper.PublishedAt.UTC().Truncate(24 * time.Hour)
		if paperDay.Equal(targetDay) {
			collected = append(collected, paper)
		}
		if paperDay.Before(targetDay) {
			continueScan = false
			return false
		}

		return true
	})

	if processed < a.pageSize {
		continueScan = false
	}

	return collected, continueScan
}

// parseEntry reads one dt/dd pair of a listing page. Entries without an
// abstract link are reported as not ok.
func parseEntry(dt, dd *goquery.Selection, category string) (domain.Paper, bool) {
	link := dt.Find("a[href*=\"/abs/\"]").First()
	href, exists := link.Attr("href")
	if !exists || href == "" {
		return domain.Paper{}, false
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimPrefix(title, "Title:")

	abstract := dd.Find("p.mathjax").First().Text()
	abstract = strings.TrimPrefix(strings.TrimSpace(abstract), "Abstract:")

	var authors []string
	dd.Find(".list-authors a").Each(func(_ int, s *goquery.Selection) {
		authors = append(authors, s.Text())
	})

	if m := categoryExpr.FindStringSubmatch(dd.Find(".primary-subject").First().Text()); m != nil {
		category = m[1]
	}

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	publishedAt := time.Now().UTC()
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			publishedAt = parsed
		}
	}

	return domain.Paper{
		Title:       domain.CollapseSpace(title),
		Authors:     domain.FormatAuthors(authors),
		PublishedAt: publishedAt,
		URL:         href,
		Category:    category,
		Abstract:    domain.CollapseSpace(abstract),
	}, true
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
