package storage

import (
	"context"
	"fmt"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
)

// BookmarkRepository persists bookmarks.
type BookmarkRepository struct {
	db DB
}

var _ ports.BookmarkStore = (*BookmarkRepository)(nil)

// NewBookmarkRepository wires a pgx pool.
func NewBookmarkRepository(db DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) List(ctx context.Context, userID int64) ([]domain.Bookmark, error) {
	query, args, err := psql.Select("bookmark_id", "user_id", "title", "author", "url", "referenced_at").
		From("bookmark").
		Where("user_id = ?", userID).
		OrderBy("referenced_at DESC", "bookmark_id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build bookmark list: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []domain.Bookmark{}
	for rows.Next() {
		var b domain.Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.Title, &b.Author, &b.URL, &b.ReferencedAt); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return bookmarks, nil
}

func (r *BookmarkRepository) Add(ctx context.Context, bookmark domain.Bookmark) (domain.Bookmark, error) {
	query, args, err := psql.Insert("bookmark").
		Columns("user_id", "title", "author", "url", "referenced_at").
		Values(bookmark.UserID, bookmark.Title, bookmark.Author, bookmark.URL, bookmark.ReferencedAt).
		Suffix("RETURNING bookmark_id").
		ToSql()
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("build bookmark insert: %w", err)
	}

	err = r.db.QueryRow(ctx, query, args...).Scan(&bookmark.ID)
	if isUniqueViolation(err) {
		return domain.Bookmark{}, domain.ErrAlreadyExists
	}
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("insert bookmark: %w", err)
	}
	return bookmark, nil
}

func (r *BookmarkRepository) DeleteByTitleAuthor(ctx context.Context, userID int64, title, author string) (int64, error) {
	query, args, err := psql.Delete("bookmark").
		Where("user_id = ? AND title = ? AND author = ?", userID, title, author).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build bookmark delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete bookmark: %w", err)
	}
	return tag.RowsAffected(), nil
}
