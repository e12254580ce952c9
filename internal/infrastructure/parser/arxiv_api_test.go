package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PaperFeed/internal/scanner"
)

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title>ArXiv Query</title>
  <id>http://arxiv.org/api/query</id>
  <updated>2025-11-08T00:00:00Z</updated>
  <entry>
    <id>http://arxiv.org/abs/2511.00001v1</id>
    <published>2025-11-08T10:00:00Z</published>
    <updated>2025-11-08T10:00:00Z</updated>
    <title>Attention
      Is Enough</title>
    <summary>  We show that
      attention is enough.  </summary>
    <author><name>Grace Hopper</name></author>
    <author><name>Edsger Dijkstra</name></author>
    <link href="http://arxiv.org/abs/2511.00001v1" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2511.00001v1" rel="related" type="application/pdf"/>
    <arxiv:primary_category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2511.00002v1</id>
    <published>2025-11-07T09:00:00Z</published>
    <updated>2025-11-07T09:00:00Z</updated>
    <title>Solo Work</title>
    <summary>Single author.</summary>
    <author><name>Barbara Liskov</name></author>
    <link href="http://arxiv.org/abs/2511.00002v1" rel="alternate" type="text/html"/>
  </entry>
</feed>`

func TestArxivAPIScannerScan(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		queries []url.Values
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query())
		mu.Unlock()
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(atomFixture))
	}))
	defer server.Close()

	sc := NewArxivAPIScanner(server.Client(), nil).WithUserAgent("test-agent")
	papers, err := sc.Scan(context.Background(), scanner.Request{
		Day:      time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC),
		SiteName: "arxiv-api",
		Categories: []scanner.Category{
			{Name: "cs.AI"},
			{Name: "cs.LG"},
		},
		Options: map[string]string{"maxResults": "5", "endpoint": server.URL},
	})
	require.NoError(t, err)

	require.Len(t, queries, 2)
	assert.Equal(t, "cat:cs.AI", queries[0].Get("search_query"))
	assert.Equal(t, "cat:cs.LG", queries[1].Get("search_query"))
	assert.Equal(t, "5", queries[0].Get("max_results"))
	assert.Equal(t, "submittedDate", queries[0].Get("sortBy"))
	assert.Equal(t, "descending", queries[0].Get("sortOrder"))

	// Both categories return the same entries; duplicates collapse by URL.
	require.Len(t, papers, 2)

	first := papers[0]
	assert.Equal(t, "Attention Is Enough", first.Title)
	assert.Equal(t, "We show that attention is enough.", first.Abstract)
	assert.Equal(t, "Grace Hopper et al.", first.Authors)
	assert.Equal(t, "http://arxiv.org/abs/2511.00001v1", first.URL)
	assert.Equal(t, "cs.CL", first.Category)
	assert.True(t, first.PublishedAt.Equal(time.Date(2025, time.November, 8, 10, 0, 0, 0, time.UTC)), "published %v", first.PublishedAt)

	second := papers[1]
	assert.Equal(t, "Barbara Liskov", second.Authors)
	assert.Equal(t, "cs.AI", second.Category)
}

func TestArxivAPIScannerFreeTextQuery(t *testing.T) {
	t.Parallel()

	got := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.URL.Query().Get("search_query")
		_, _ = w.Write([]byte(atomFixture))
	}))
	defer server.Close()

	sc := NewArxivAPIScanner(server.Client(), nil)
	_, err := sc.Scan(context.Background(), scanner.Request{
		SiteName:   "search",
		Categories: []scanner.Category{{Name: "any", URL: server.URL}},
		Options:    map[string]string{"query": "graph, neural  network"},
	})
	require.NoError(t, err)
	assert.Equal(t, "(all:graph AND all:neural AND all:network)", <-got)
}

func TestSearchQuery(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		category string
		query    string
		want     string
	}{
		"category only":     {category: "cs.AI", want: "cat:cs.AI"},
		"blank query":       {category: "cs.LG", query: " , ", want: "cat:cs.LG"},
		"single keyword":    {category: "cs.AI", query: "diffusion", want: "(all:diffusion)"},
		"comma separated":   {category: "cs.AI", query: "graph,transformer", want: "(all:graph AND all:transformer)"},
		"commas and spaces": {category: "cs.AI", query: "speech, text to speech", want: "(all:speech AND all:text AND all:to AND all:speech)"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, searchQuery(tc.category, tc.query))
		})
	}
}

func TestArxivAPIScannerRejectsBadMaxResults(t *testing.T) {
	t.Parallel()

	sc := NewArxivAPIScanner(nil, nil)
	_, err := sc.Scan(context.Background(), scanner.Request{
		SiteName:   "arxiv-api",
		Categories: []scanner.Category{{Name: "cs.AI"}},
		Options:    map[string]string{"maxResults": "lots"},
	})
	require.Error(t, err)
}

func TestNewLimiter(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewLimiter(0))
	l := NewLimiter(0.5)
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Burst())
}
