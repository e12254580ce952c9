package domain

import "time"

// Bookmark is keyed for removal by (UserID, Title, Author), not by paper.
type Bookmark struct {
	ID           int64
	UserID       int64
	Title        string
	Author       string
	URL          string
	ReferencedAt time.Time
}

// Matches reports whether the bookmark refers to the given paper.
func (b Bookmark) Matches(p Paper) bool {
	return b.Title == p.Title && b.Author == p.Authors
}
