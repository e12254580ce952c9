package usecase

import (
	"context"
	"fmt"
	"time"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
)

// BookmarkService resolves papers into title/author bookmarks.
type BookmarkService struct {
	papers    ports.PaperStore
	bookmarks ports.BookmarkStore
	now       func() time.Time
}

// NewBookmarkService wires the paper and bookmark stores.
func NewBookmarkService(papers ports.PaperStore, bookmarks ports.BookmarkStore) *BookmarkService {
	return &BookmarkService{papers: papers, bookmarks: bookmarks, now: time.Now}
}

// List returns every bookmark of the user.
func (s *BookmarkService) List(ctx context.Context, userID int64) ([]domain.Bookmark, error) {
	return s.bookmarks.List(ctx, userID)
}

// Add bookmarks the paper for the user.
func (s *BookmarkService) Add(ctx context.Context, userID, paperID int64) (domain.Bookmark, error) {
	paper, err := s.papers.Get(ctx, paperID)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("paper %d: %w", paperID, err)
	}

	existing, err := s.bookmarks.List(ctx, userID)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("load bookmarks: %w", err)
	}
	for _, b := range existing {
		if b.Matches(paper) {
			return domain.Bookmark{}, fmt.Errorf("bookmark for paper %d: %w", paperID, domain.ErrAlreadyExists)
		}
	}

	return s.bookmarks.Add(ctx, domain.Bookmark{
		UserID:       userID,
		Title:        paper.Title,
		Author:       paper.Authors,
		URL:          paper.URL,
		ReferencedAt: s.now().UTC(),
	})
}

// Remove deletes the user's bookmarks matching the paper's title and author.
func (s *BookmarkService) Remove(ctx context.Context, userID, paperID int64) error {
	paper, err := s.papers.Get(ctx, paperID)
	if err != nil {
		return fmt.Errorf("paper %d: %w", paperID, err)
	}

	removed, err := s.bookmarks.DeleteByTitleAuthor(ctx, userID, paper.Title, paper.Authors)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("bookmark for paper %d: %w", paperID, domain.ErrNotFound)
	}
	return nil
}
