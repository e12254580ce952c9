package domain

import "time"

// FeedEntry is a ready-to-serve queue row owned by a single user.
type FeedEntry struct {
	ID          int64
	UserID      int64
	PaperID     int64
	Summary     string
	AudioBase64 string
	CreatedAt   time.Time
}

// FeedItem is an entry joined with the paper fields shown to the client.
type FeedItem struct {
	FeedID       int64
	PaperID      int64
	Title        string
	Authors      []string
	Summary      string
	AudioBase64  string
	PaperURL     string
	IsBookmarked bool
}

// NewFeedItem assembles the client view of an entry.
func NewFeedItem(entry FeedEntry, paper Paper) FeedItem {
	return FeedItem{
		FeedID:      entry.ID,
		PaperID:     paper.ID,
		Title:       paper.Title,
		Authors:     paper.AuthorList(),
		Summary:     entry.Summary,
		AudioBase64: entry.AudioBase64,
		PaperURL:    paper.URL,
	}
}
