package usecase

import (
	"context"
	"fmt"
	"time"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
)

// ActionService records listen/skip/save events.
type ActionService struct {
	store ports.ActionStore
	now   func() time.Time
}

// NewActionService wires the action store.
func NewActionService(store ports.ActionStore) *ActionService {
	return &ActionService{store: store, now: time.Now}
}

// Record validates and stores one action.
func (s *ActionService) Record(ctx context.Context, action domain.Action) error {
	if !action.Type.Valid() {
		return fmt.Errorf("action type %q: %w", action.Type, domain.ErrInvalidInput)
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = s.now().UTC()
	}
	return s.store.Record(ctx, action)
}
