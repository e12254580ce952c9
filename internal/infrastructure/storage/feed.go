package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
)

var feedColumns = []string{"feed_id", "user_id", "paper_id", "summary", "audio_base64", "created_at"}

// The oldest row is locked, deleted and recorded as delivered in one
// statement, so concurrent consumers never receive the same entry.
const consumeOldestSQL = `
WITH next AS (
    SELECT feed_id FROM feed
    WHERE user_id = $1
    ORDER BY feed_id
    LIMIT 1
    FOR UPDATE SKIP LOCKED
), taken AS (
    DELETE FROM feed f USING next
    WHERE f.feed_id = next.feed_id
    RETURNING f.feed_id, f.user_id, f.paper_id, f.summary, f.audio_base64, f.created_at
), delivered AS (
    INSERT INTO feed_delivery (user_id, paper_id)
    SELECT user_id, paper_id FROM taken
    ON CONFLICT (user_id, paper_id) DO UPDATE SET delivered_at = NOW()
)
SELECT feed_id, user_id, paper_id, summary, audio_base64, created_at FROM taken`

const seenPapersSQL = `
SELECT paper_id FROM feed WHERE user_id = $1
UNION
SELECT paper_id FROM feed_delivery WHERE user_id = $1
ORDER BY paper_id`

// FeedRepository is the Postgres feed queue.
type FeedRepository struct {
	db DB
}

var _ ports.FeedStore = (*FeedRepository)(nil)

// NewFeedRepository wires a pgx pool.
func NewFeedRepository(db DB) *FeedRepository {
	return &FeedRepository{db: db}
}

func (r *FeedRepository) SeenPaperIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, seenPapersSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("query seen papers: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect seen papers: %w", err)
	}
	return ids, nil
}

func (r *FeedRepository) Insert(ctx context.Context, entry domain.FeedEntry) (domain.FeedEntry, error) {
	query, args, err := psql.Insert("feed").
		Columns("user_id", "paper_id", "summary", "audio_base64").
		Values(entry.UserID, entry.PaperID, entry.Summary, entry.AudioBase64).
		Suffix("RETURNING feed_id, created_at").
		ToSql()
	if err != nil {
		return domain.FeedEntry{}, fmt.Errorf("build feed insert: %w", err)
	}

	err = r.db.QueryRow(ctx, query, args...).Scan(&entry.ID, &entry.CreatedAt)
	if isUniqueViolation(err) {
		return domain.FeedEntry{}, domain.ErrDuplicate
	}
	if err != nil {
		return domain.FeedEntry{}, fmt.Errorf("insert feed entry: %w", err)
	}
	return entry, nil
}

func (r *FeedRepository) ConsumeOldest(ctx context.Context, userID int64) (domain.FeedEntry, error) {
	entry, err := scanFeedEntry(r.db.QueryRow(ctx, consumeOldestSQL, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FeedEntry{}, domain.ErrFeedNotReady
	}
	if err != nil {
		return domain.FeedEntry{}, fmt.Errorf("consume feed entry: %w", err)
	}
	return entry, nil
}

func (r *FeedRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	query, args, err := psql.Delete("feed").Where("user_id = ?", userID).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build feed delete: %w", err)
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete feed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *FeedRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("feed").Where("user_id = ?", userID).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build feed count: %w", err)
	}
	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count feed: %w", err)
	}
	return n, nil
}

func (r *FeedRepository) LatestByPapers(ctx context.Context, paperIDs []int64) (map[int64]domain.FeedEntry, error) {
	latest := make(map[int64]domain.FeedEntry, len(paperIDs))
	if len(paperIDs) == 0 {
		return latest, nil
	}

	query, args, err := psql.Select(feedColumns...).
		Options("DISTINCT ON (paper_id)").
		From("feed").
		Where("paper_id = ANY(?)", paperIDs).
		OrderBy("paper_id", "feed_id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest entries: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query latest entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanFeedEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feed entry: %w", err)
		}
		latest[entry.PaperID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return latest, nil
}

func scanFeedEntry(row pgx.Row) (domain.FeedEntry, error) {
	var e domain.FeedEntry
	err := row.Scan(&e.ID, &e.UserID, &e.PaperID, &e.Summary, &e.AudioBase64, &e.CreatedAt)
	return e, err
}
