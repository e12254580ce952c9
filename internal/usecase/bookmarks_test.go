package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PaperFeed/internal/domain"
)

func TestBookmarkLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 2)
	svc := NewBookmarkService(f.store.Papers(), f.store.Bookmarks())
	ctx := context.Background()

	added, err := svc.Add(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Paper 2", added.Title)
	assert.Equal(t, "Author 2 et al.", added.Author)
	assert.Equal(t, "http://arxiv.org/abs/2403.00002", added.URL)
	assert.False(t, added.ReferencedAt.IsZero())

	_, err = svc.Add(ctx, 1, 2)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Remove(ctx, 1, 2))
	assert.ErrorIs(t, svc.Remove(ctx, 1, 2), domain.ErrNotFound)
}

func TestBookmarkUnknownPaper(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	svc := NewBookmarkService(f.store.Papers(), f.store.Bookmarks())
	_, err := svc.Add(context.Background(), 1, 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Remove(context.Background(), 1, 5), domain.ErrNotFound)
}
