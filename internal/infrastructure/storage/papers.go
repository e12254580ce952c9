package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
)

var paperColumns = []string{"paper_id", "title", "author", "published_date", "url", "category", "abstract"}

// PaperRepository persists ingested papers in paper_info.
type PaperRepository struct {
	db DB
}

var _ ports.PaperStore = (*PaperRepository)(nil)

// NewPaperRepository wires a pgx pool.
func NewPaperRepository(db DB) *PaperRepository {
	return &PaperRepository{db: db}
}

func (r *PaperRepository) Get(ctx context.Context, id int64) (domain.Paper, error) {
	query, args, err := psql.Select(paperColumns...).
		From("paper_info").
		Where("paper_id = ?", id).
		ToSql()
	if err != nil {
		return domain.Paper{}, fmt.Errorf("build paper query: %w", err)
	}

	paper, err := scanPaper(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Paper{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Paper{}, fmt.Errorf("get paper %d: %w", id, err)
	}
	return paper, nil
}

func (r *PaperRepository) ListRecent(ctx context.Context, limit int) ([]domain.Paper, error) {
	return r.ListUnseen(ctx, nil, limit)
}

func (r *PaperRepository) ListUnseen(ctx context.Context, exclude []int64, limit int) ([]domain.Paper, error) {
	if limit <= 0 {
		return []domain.Paper{}, nil
	}

	builder := psql.Select(paperColumns...).
		From("paper_info").
		OrderBy("published_date DESC", "paper_id DESC").
		Limit(uint64(limit))
	if len(exclude) > 0 {
		builder = builder.Where("paper_id <> ALL(?)", exclude)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build paper list: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	papers := make([]domain.Paper, 0, limit)
	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		papers = append(papers, paper)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return papers, nil
}

func (r *PaperRepository) Insert(ctx context.Context, paper domain.Paper) (bool, error) {
	query, args, err := psql.Insert("paper_info").
		Columns("title", "author", "published_date", "url", "category", "abstract").
		Values(paper.Title, paper.Authors, paper.PublishedAt, paper.URL, paper.Category, paper.Abstract).
		Suffix("ON CONFLICT (url) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build paper insert: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert paper: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanPaper(row pgx.Row) (domain.Paper, error) {
	var p domain.Paper
	err := row.Scan(&p.ID, &p.Title, &p.Authors, &p.PublishedAt, &p.URL, &p.Category, &p.Abstract)
	return p, err
}
