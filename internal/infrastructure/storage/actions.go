package storage

import (
	"context"
	"fmt"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
)

// ActionRepository appends client events to user_action.
type ActionRepository struct {
	db DB
}

var _ ports.ActionStore = (*ActionRepository)(nil)

// NewActionRepository wires a pgx pool.
func NewActionRepository(db DB) *ActionRepository {
	return &ActionRepository{db: db}
}

func (r *ActionRepository) Record(ctx context.Context, action domain.Action) error {
	query, args, err := psql.Insert("user_action").
		Columns("user_id", "paper_id", "action_type", "value", "created_at").
		Values(action.UserID, action.PaperID, string(action.Type), action.Value, action.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build action insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}
