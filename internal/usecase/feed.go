package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
)

const (
	defaultPageSize  = 10
	defaultBatchSize = 30
)

// FeedServiceDeps wires the stores used by the feed endpoints.
type FeedServiceDeps struct {
	Users       ports.UserStore
	Papers      ports.PaperStore
	Feed        ports.FeedStore
	Bookmarks   ports.BookmarkStore
	Replenisher *Replenisher
	Logger      *slog.Logger

	PageSize     int
	BatchSize    int
	DefaultVoice int
}

// FeedService implements user onboarding, settings and feed listing.
type FeedService struct {
	users       ports.UserStore
	papers      ports.PaperStore
	feed        ports.FeedStore
	bookmarks   ports.BookmarkStore
	replenisher *Replenisher
	logger      *slog.Logger

	pageSize     int
	batchSize    int
	defaultVoice int
}

// NewFeedService constructs the service with defaults for unset sizes.
func NewFeedService(deps FeedServiceDeps) *FeedService {
	s := &FeedService{
		users:        deps.Users,
		papers:       deps.Papers,
		feed:         deps.Feed,
		bookmarks:    deps.Bookmarks,
		replenisher:  deps.Replenisher,
		logger:       deps.Logger,
		pageSize:     deps.PageSize,
		batchSize:    deps.BatchSize,
		defaultVoice: deps.DefaultVoice,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultBatchSize
	}
	if s.defaultVoice <= 0 {
		s.defaultVoice = domain.DefaultVoiceType
	}
	return s
}

// BatchSize is the number of entries a full generation pass targets.
func (s *FeedService) BatchSize() int {
	return s.batchSize
}

// InitialFeed registers the user on first contact and returns the most recent
// papers that already have a generated summary.
func (s *FeedService) InitialFeed(ctx context.Context, userID int64, token string, voiceType int) ([]domain.FeedItem, error) {
	if token == "" {
		token = uuid.NewString()
	} else if _, err := uuid.Parse(token); err != nil {
		return nil, fmt.Errorf("uuid %q: %w", token, domain.ErrInvalidInput)
	}
	if voiceType <= 0 {
		voiceType = s.defaultVoice
	}

	created, err := s.users.Create(ctx, domain.UserProfile{
		UserID:    userID,
		UUID:      token,
		VoiceType: voiceType,
	})
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	if created {
		s.logger.Info("registered user", "user_id", userID, "voice", voiceType)
	}

	papers, err := s.papers.ListRecent(ctx, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list recent papers: %w", err)
	}
	if len(papers) == 0 {
		return []domain.FeedItem{}, nil
	}

	ids := make([]int64, len(papers))
	for i, p := range papers {
		ids[i] = p.ID
	}
	entries, err := s.feed.LatestByPapers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}

	bookmarks, err := s.bookmarks.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load bookmarks: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(papers))
	for _, paper := range papers {
		entry, ok := entries[paper.ID]
		if !ok {
			continue
		}
		item := domain.NewFeedItem(entry, paper)
		item.IsBookmarked = isBookmarked(bookmarks, paper)
		items = append(items, item)
	}
	return items, nil
}

// Settings returns the stored profile.
func (s *FeedService) Settings(ctx context.Context, userID int64) (domain.UserProfile, error) {
	return s.users.Get(ctx, userID)
}

// UpdateSettings applies the change, drops the user's queue and regenerates
// it synchronously, returning the first page of new entries.
func (s *FeedService) UpdateSettings(ctx context.Context, userID int64, update domain.SettingsUpdate) ([]domain.FeedItem, error) {
	if update.Empty() {
		return nil, fmt.Errorf("no settings to update: %w", domain.ErrInvalidInput)
	}
	if update.VoiceType != nil && *update.VoiceType < 0 {
		return nil, fmt.Errorf("voice type %d: %w", *update.VoiceType, domain.ErrInvalidInput)
	}

	if _, err := s.users.UpdateSettings(ctx, userID, update); err != nil {
		return nil, err
	}

	removed, err := s.feed.DeleteByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("clear feed: %w", err)
	}
	s.logger.Info("settings changed, feed cleared", "user_id", userID, "removed", removed)

	// A partial pass still yields a usable first page.
	entries, _ := s.replenisher.BulkGenerate(ctx, userID, s.batchSize)
	if len(entries) > s.pageSize {
		entries = entries[:s.pageSize]
	}

	bookmarks, err := s.bookmarks.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load bookmarks: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(entries))
	for _, entry := range entries {
		paper, err := s.papers.Get(ctx, entry.PaperID)
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("generated entry references a missing paper", "feed_id", entry.ID, "paper_id", entry.PaperID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load paper %d: %w", entry.PaperID, err)
		}
		item := domain.NewFeedItem(entry, paper)
		item.IsBookmarked = isBookmarked(bookmarks, paper)
		items = append(items, item)
	}
	return items, nil
}

func isBookmarked(bookmarks []domain.Bookmark, paper domain.Paper) bool {
	for _, b := range bookmarks {
		if b.Matches(paper) {
			return true
		}
	}
	return false
}
