//go:build integration

package storage_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/infrastructure/storage"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "paperfeed_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/paperfeed_test?sslmode=disable", host, port.Port())

	if err := storage.Migrate(ctx, dsn); err != nil {
		panic(err)
	}

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestFeedQueueRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn, err := storage.NewConnection(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	papers := storage.NewPaperRepository(conn)
	feed := storage.NewFeedRepository(conn)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		created, err := papers.Insert(ctx, domain.Paper{
			Title:       fmt.Sprintf("Paper %d", i),
			Authors:     "Author et al.",
			URL:         fmt.Sprintf("http://arxiv.org/abs/2401.%05d", i),
			PublishedAt: base.AddDate(0, 0, i),
		})
		require.NoError(t, err)
		require.True(t, created)
	}

	recent, err := papers.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	const user = 42
	for _, p := range recent {
		_, err := feed.Insert(ctx, domain.FeedEntry{UserID: user, PaperID: p.ID, Summary: "s", AudioBase64: "YQ=="})
		require.NoError(t, err)
	}
	_, err = feed.Insert(ctx, domain.FeedEntry{UserID: user, PaperID: recent[0].ID, Summary: "s", AudioBase64: "YQ=="})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// Concurrent consumers each receive a different entry.
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		got  = map[int64]bool{}
		errs []error
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := feed.ConsumeOldest(ctx, user)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			assert.False(t, got[entry.ID], "entry %d delivered twice", entry.ID)
			got[entry.ID] = true
		}()
	}
	wg.Wait()

	assert.Len(t, got, 3)
	for _, err := range errs {
		assert.ErrorIs(t, err, domain.ErrFeedNotReady)
	}

	seen, err := feed.SeenPaperIDs(ctx, user)
	require.NoError(t, err)
	assert.Len(t, seen, 3)

	unseen, err := papers.ListUnseen(ctx, seen, 10)
	require.NoError(t, err)
	assert.Empty(t, unseen)
}

func TestUsersAndBookmarks(t *testing.T) {
	ctx := context.Background()
	conn, err := storage.NewConnection(ctx, dsn, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	users := storage.NewUserRepository(conn)
	created, err := users.Create(ctx, domain.UserProfile{UserID: 3, UUID: "6f1c1a2e-1c4b-4d6f-9a53-1f7b0c1e2d3a", VoiceType: 3})
	require.NoError(t, err)
	assert.True(t, created)

	prompt := "focus on methods"
	profile, err := users.UpdateSettings(ctx, 3, domain.SettingsUpdate{AdditionalPrompt: &prompt})
	require.NoError(t, err)
	assert.Equal(t, prompt, profile.AdditionalPrompt)
	assert.Equal(t, 3, profile.VoiceType)

	bookmarks := storage.NewBookmarkRepository(conn)
	b := domain.Bookmark{UserID: 3, Title: "T", Author: "A et al.", URL: "u", ReferencedAt: time.Now().UTC()}
	_, err = bookmarks.Add(ctx, b)
	require.NoError(t, err)
	_, err = bookmarks.Add(ctx, b)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	removed, err := bookmarks.DeleteByTitleAuthor(ctx, 3, "T", "A et al.")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, storage.NewActionRepository(conn).Record(ctx, domain.Action{
		UserID: 3, PaperID: 1, Type: domain.ActionSave, CreatedAt: time.Now().UTC(),
	}))
}
