package ports

import (
	"context"
	"time"

	"PaperFeed/internal/domain"
)

// PaperSource pulls fresh papers from upstream providers for ingestion.
type PaperSource interface {
	FetchDaily(ctx context.Context, day time.Time) ([]domain.Paper, error)
}

// PaperStore is the read side of paper_info plus the ingestion upsert.
type PaperStore interface {
	Get(ctx context.Context, id int64) (domain.Paper, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Paper, error)
	// ListUnseen returns up to limit papers newest-first, skipping exclude.
	ListUnseen(ctx context.Context, exclude []int64, limit int) ([]domain.Paper, error)
	// Insert stores a paper unless one with the same URL exists. It reports
	// whether a row was created.
	Insert(ctx context.Context, paper domain.Paper) (bool, error)
}

// FeedStore is the per-user queue of ready entries.
type FeedStore interface {
	// SeenPaperIDs returns papers queued for or already delivered to the user.
	SeenPaperIDs(ctx context.Context, userID int64) ([]int64, error)
	// Insert assigns the entry identifier. A queued (user, paper) pair yields
	// domain.ErrDuplicate.
	Insert(ctx context.Context, entry domain.FeedEntry) (domain.FeedEntry, error)
	// ConsumeOldest removes the lowest-id entry and records its delivery in
	// one atomic step. An empty queue yields domain.ErrFeedNotReady.
	ConsumeOldest(ctx context.Context, userID int64) (domain.FeedEntry, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	// LatestByPapers returns the newest entry per paper across all users.
	LatestByPapers(ctx context.Context, paperIDs []int64) (map[int64]domain.FeedEntry, error)
}

// UserStore persists user profiles.
type UserStore interface {
	Get(ctx context.Context, userID int64) (domain.UserProfile, error)
	// Create stores the profile unless the user exists; reports creation.
	Create(ctx context.Context, profile domain.UserProfile) (bool, error)
	UpdateSettings(ctx context.Context, userID int64, update domain.SettingsUpdate) (domain.UserProfile, error)
}

// BookmarkStore persists bookmarks keyed by title and author.
type BookmarkStore interface {
	List(ctx context.Context, userID int64) ([]domain.Bookmark, error)
	Add(ctx context.Context, bookmark domain.Bookmark) (domain.Bookmark, error)
	DeleteByTitleAuthor(ctx context.Context, userID int64, title, author string) (int64, error)
}

// ActionStore records client interaction events.
type ActionStore interface {
	Record(ctx context.Context, action domain.Action) error
}

// Summarizer turns an abstract into a short narrated summary.
type Summarizer interface {
	Summarize(ctx context.Context, text, extraInstructions string) (string, error)
}

// VoiceSynthesizer renders text into speech audio bytes.
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, text string, speaker int) ([]byte, error)
}

// Notifier delivers short operator messages such as ingestion digests.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// ReplenishMetrics observes replenishment outcomes.
type ReplenishMetrics interface {
	EntryStored()
	EntrySkipped(reason string)
	PassFinished(stored int, err error)
	Consumed()
}
