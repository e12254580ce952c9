package domain

import (
	"strings"
	"time"
)

// Paper is an ingested arXiv record. Rows are immutable once stored.
type Paper struct {
	ID          int64
	Title       string
	Authors     string
	PublishedAt time.Time
	URL         string
	Category    string
	Abstract    string
}

// AuthorList splits the stored comma-separated author string.
func (p Paper) AuthorList() []string {
	if strings.TrimSpace(p.Authors) == "" {
		return []string{}
	}
	parts := strings.Split(p.Authors, ",")
	authors := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// FormatAuthors collapses an author list into the stored form:
// the first author, followed by "et al." when there are more.
func FormatAuthors(names []string) string {
	var cleaned []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	switch len(cleaned) {
	case 0:
		return ""
	case 1:
		return cleaned[0]
	default:
		return cleaned[0] + " et al."
	}
}

// CollapseSpace folds runs of whitespace into single spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
