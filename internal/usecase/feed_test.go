package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PaperFeed/internal/domain"
)

func newFeedService(f *fixture) *FeedService {
	return NewFeedService(FeedServiceDeps{
		Users:       f.store.Users(),
		Papers:      f.store.Papers(),
		Feed:        f.store.Feed(),
		Bookmarks:   f.store.Bookmarks(),
		Replenisher: f.replenisher,
	})
}

func TestInitialFeedRegistersUserAndListsSummarizedPapers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 12)
	svc := newFeedService(f)
	ctx := context.Background()

	// Another user's queue provides summaries for papers 12, 11 and 10.
	_, err := f.replenisher.BulkGenerate(ctx, 500, 3)
	require.NoError(t, err)
	_, err = f.store.Bookmarks().Add(ctx, domain.Bookmark{UserID: 1, Title: "Paper 11", Author: "Author 11 et al."})
	require.NoError(t, err)

	items, err := svc.InitialFeed(ctx, 1, "", 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, int64(12), items[0].PaperID)
	assert.False(t, items[0].IsBookmarked)
	assert.True(t, items[1].IsBookmarked)
	assert.Equal(t, "summary of abstract 12", items[0].Summary)

	profile, err := svc.Settings(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultVoiceType, profile.VoiceType)
	assert.NotEmpty(t, profile.UUID)
}

func TestInitialFeedKeepsExistingProfile(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	svc := newFeedService(f)
	ctx := context.Background()

	items, err := svc.InitialFeed(ctx, 2, "6f1c1a2e-1c4b-4d6f-9a53-1f7b0c1e2d3a", 5)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = svc.InitialFeed(ctx, 2, "", 9)
	require.NoError(t, err)

	profile, err := svc.Settings(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, profile.VoiceType)
	assert.Equal(t, "6f1c1a2e-1c4b-4d6f-9a53-1f7b0c1e2d3a", profile.UUID)
}

func TestInitialFeedRejectsMalformedUUID(t *testing.T) {
	t.Parallel()

	svc := newFeedService(newFixture(t, 0))
	_, err := svc.InitialFeed(context.Background(), 1, "not-a-uuid", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsUnknownUser(t *testing.T) {
	t.Parallel()

	svc := newFeedService(newFixture(t, 0))
	_, err := svc.Settings(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateSettingsRegeneratesQueue(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 12)
	svc := newFeedService(f)
	ctx := context.Background()
	const user = 3

	_, err := svc.InitialFeed(ctx, user, "", 0)
	require.NoError(t, err)
	_, err = f.replenisher.BulkGenerate(ctx, user, 4)
	require.NoError(t, err)

	voice := 1
	items, err := svc.UpdateSettings(ctx, user, domain.SettingsUpdate{VoiceType: &voice})
	require.NoError(t, err)
	assert.Len(t, items, 10)

	// Undelivered entries were dropped, so all twelve papers are eligible again.
	n, err := f.store.Feed().CountByUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	profile, err := svc.Settings(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.VoiceType)
	assert.Equal(t, 1, f.voice.speakers[len(f.voice.speakers)-1])
}

func TestUpdateSettingsValidation(t *testing.T) {
	t.Parallel()

	svc := newFeedService(newFixture(t, 0))
	ctx := context.Background()

	_, err := svc.UpdateSettings(ctx, 1, domain.SettingsUpdate{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	voice := 2
	_, err = svc.UpdateSettings(ctx, 1, domain.SettingsUpdate{VoiceType: &voice})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
