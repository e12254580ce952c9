package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/infrastructure/memory"
)

type fakeSummarizer struct {
	mu     sync.Mutex
	failOn map[string]bool
	extras []string
}

func (f *fakeSummarizer) Summarize(_ context.Context, text, extra string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extras = append(f.extras, extra)
	if f.failOn[text] {
		return "", errors.New("model unavailable")
	}
	return "summary of " + text, nil
}

type fakeVoice struct {
	mu       sync.Mutex
	silentOn map[string]bool
	speakers []int
}

func (f *fakeVoice) Synthesize(_ context.Context, text string, speaker int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speakers = append(f.speakers, speaker)
	for marker := range f.silentOn {
		if strings.Contains(text, marker) {
			return nil, nil
		}
	}
	return []byte("RIFF" + text), nil
}

// failingFeed fails every insert after the first allowed ones.
type failingFeed struct {
	*memory.FeedStore
	mu      sync.Mutex
	allowed int
}

func (f *failingFeed) Insert(ctx context.Context, entry domain.FeedEntry) (domain.FeedEntry, error) {
	f.mu.Lock()
	if f.allowed == 0 {
		f.mu.Unlock()
		return domain.FeedEntry{}, errors.New("connection reset")
	}
	f.allowed--
	f.mu.Unlock()
	return f.FeedStore.Insert(ctx, entry)
}

// flakyPapers fails lookups of one paper while leaving listing intact.
type flakyPapers struct {
	*memory.PaperStore
	failID int64
}

func (f *flakyPapers) Get(ctx context.Context, id int64) (domain.Paper, error) {
	if id == f.failID {
		return domain.Paper{}, errors.New("connection reset")
	}
	return f.PaperStore.Get(ctx, id)
}

type fixture struct {
	store       *memory.Store
	summarizer  *fakeSummarizer
	voice       *fakeVoice
	replenisher *Replenisher
}

func newFixture(t *testing.T, papers int) *fixture {
	t.Helper()

	f := &fixture{
		store:      memory.New(),
		summarizer: &fakeSummarizer{failOn: map[string]bool{}},
		voice:      &fakeVoice{silentOn: map[string]bool{}},
	}
	seedPapers(t, f.store, papers)
	f.replenisher = NewReplenisher(ReplenisherDeps{
		Users:      f.store.Users(),
		Papers:     f.store.Papers(),
		Feed:       f.store.Feed(),
		Summarizer: f.summarizer,
		Voice:      f.voice,
	})
	return f
}

// seedPapers stores papers 1..n; a higher id is published later.
func seedPapers(t *testing.T, store *memory.Store, n int) {
	t.Helper()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		_, err := store.Papers().Insert(context.Background(), domain.Paper{
			Title:       fmt.Sprintf("Paper %d", i),
			Authors:     fmt.Sprintf("Author %d et al.", i),
			URL:         fmt.Sprintf("http://arxiv.org/abs/2403.%05d", i),
			Category:    "cs.LG",
			Abstract:    fmt.Sprintf("abstract %d", i),
			PublishedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
}

func paperIDs(entries []domain.FeedEntry) []int64 {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.PaperID
	}
	return ids
}
