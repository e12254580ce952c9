package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
)

const userReturning = "RETURNING user_id, uuid, voice_type, additional_prompt, created_at, updated_at"

// UserRepository persists profiles in user_info.
type UserRepository struct {
	db DB
}

var _ ports.UserStore = (*UserRepository)(nil)

// NewUserRepository wires a pgx pool.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, userID int64) (domain.UserProfile, error) {
	query, args, err := psql.Select("user_id", "uuid", "voice_type", "additional_prompt", "created_at", "updated_at").
		From("user_info").
		Where("user_id = ?", userID).
		ToSql()
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("build user query: %w", err)
	}

	profile, err := scanProfile(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("get user %d: %w", userID, err)
	}
	return profile, nil
}

func (r *UserRepository) Create(ctx context.Context, profile domain.UserProfile) (bool, error) {
	query, args, err := psql.Insert("user_info").
		Columns("user_id", "uuid", "voice_type", "additional_prompt").
		Values(profile.UserID, profile.UUID, profile.VoiceType, profile.AdditionalPrompt).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build user insert: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *UserRepository) UpdateSettings(ctx context.Context, userID int64, update domain.SettingsUpdate) (domain.UserProfile, error) {
	builder := psql.Update("user_info").
		Set("updated_at", sq.Expr("NOW()")).
		Where("user_id = ?", userID).
		Suffix(userReturning)
	if update.VoiceType != nil {
		builder = builder.Set("voice_type", *update.VoiceType)
	}
	if update.AdditionalPrompt != nil {
		builder = builder.Set("additional_prompt", *update.AdditionalPrompt)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("build settings update: %w", err)
	}

	profile, err := scanProfile(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("update settings of user %d: %w", userID, err)
	}
	return profile, nil
}

func scanProfile(row pgx.Row) (domain.UserProfile, error) {
	var p domain.UserProfile
	err := row.Scan(&p.UserID, &p.UUID, &p.VoiceType, &p.AdditionalPrompt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
