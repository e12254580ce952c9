package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PaperFeed/internal/scanner"
)

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	base := "https://export.arxiv.org/list/cs.AI/pastweek"
	u, err := buildPageURL(base, 200, 100)
	if err != nil {
		t.Fatalf("buildPageURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}

	if parsed.Scheme != "https" || parsed.Host != "export.arxiv.org" {
		t.Fatalf("unexpected host: %s", parsed.Host)
	}

	q := parsed.Query()
	if q.Get("skip") != "200" {
		t.Fatalf("expected skip=200, got %s", q.Get("skip"))
	}
	if q.Get("show") != "100" {
		t.Fatalf("expected show=100, got %s", q.Get("show"))
	}
}

func TestParseEntry(t *testing.T) {
	t.Parallel()

	html := `
	<dl>
	  <dt>
	    <span class="list-identifier"><a href="/abs/1234.56789">arXiv:1234.56789</a></span>
	  </dt>
	  <dd>
	    <div class="list-date">Date: 8 Nov 2025</div>
	    <div class="list-title mathjax">Title: Sample
	      Title</div>
	    <div class="list-authors"><a href="/a/1">Ada Lovelace</a>, <a href="/a/2">Alan Turing</a></div>
	    <div class="list-subjects"><span class="primary-subject">Machine Learning (cs.LG)</span></div>
	    <p class="mathjax">Abstract: Sample abstract text.</p>
	  </dd>
	</dl>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	paper, ok := parseEntry(doc.Find("dt").First(), doc.Find("dd").First(), "cs.AI")
	if !ok {
		t.Fatal("parseEntry rejected a valid entry")
	}

	if paper.URL != "https://arxiv.org/abs/1234.56789" {
		t.Fatalf("unexpected url: %s", paper.URL)
	}
	if paper.Title != "Sample Title" {
		t.Fatalf("unexpected title: %q", paper.Title)
	}
	if paper.Abstract != "Sample abstract text." {
		t.Fatalf("unexpected abstract: %s", paper.Abstract)
	}
	if paper.Authors != "Ada Lovelace et al." {
		t.Fatalf("unexpected authors: %s", paper.Authors)
	}
	if paper.Category != "cs.LG" {
		t.Fatalf("unexpected category: %s", paper.Category)
	}
	if paper.PublishedAt.Format("2006-01-02") != "2025-11-08" {
		t.Fatalf("unexpected published date: %v", paper.PublishedAt)
	}
}

func TestParseEntryWithoutLink(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<dl><dt>nothing</dt><dd></dd></dl>`))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if _, ok := parseEntry(doc.Find("dt").First(), doc.Find("dd").First(), "cs.AI"); ok {
		t.Fatal("entry without abstract link must be rejected")
	}
}

func TestArxivScannerScan(t *testing.T) {
	t.Parallel()

	targetDay := time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<dl>
		  <dt>
		    <span class="list-identifier"><a href="/abs/2501.00001">arXiv:2501.00001</a></span>
		  </dt>
		  <dd>
		    <div class="list-date">Date: 8 Nov 2025</div>
		    <div class="list-title mathjax">Title: Fresh Paper</div>
		    <p class="mathjax">Abstract: brand new.</p>
		  </dd>
		  <dt>
		    <span class="list-identifier"><a href="/abs/2501.00002">arXiv:2501.00002</a></span>
		  </dt>
		  <dd>
		    <div class="list-date">Date: 7 Nov 2025</div>
		    <div class="list-title mathjax">Title: Old Paper</div>
		    <p class="mathjax">Abstract: older.</p>
		  </dd>
		</dl>`))
	}))
	defer server.Close()

	sc := NewArxivScanner(server.Client(), nil)
	sc.pageSize = 10

	req := scanner.Request{
		Day:      targetDay,
		SiteName: "arxiv-ai",
		Categories: []scanner.Category{
			{Name: "cs.AI", URL: server.URL + "/list/cs.AI"},
			{Name: "cs.LG", URL: server.URL + "/list/cs.LG"},
		},
	}

	papers, err := sc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	// Both categories list the same paper; it is kept once.
	if len(papers) != 1 {
		t.Fatalf("expected 1 paper, got %d", len(papers))
	}
	if papers[0].Title != "Fresh Paper" {
		t.Fatalf("unexpected title: %s", papers[0].Title)
	}
	if papers[0].Abstract != "brand new." {
		t.Fatalf("unexpected abstract: %s", papers[0].Abstract)
	}
	if papers[0].Category != "cs.AI" {
		t.Fatalf("unexpected category: %s", papers[0].Category)
	}
}

func TestArxivScannerUpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	sc := NewArxivScanner(server.Client(), nil)
	_, err := sc.Scan(context.Background(), scanner.Request{
		Day:        time.Now(),
		SiteName:   "arxiv",
		Categories: []scanner.Category{{Name: "cs.AI", URL: server.URL}},
	})
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
}
