package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
)

const defaultBackgroundTimeout = 10 * time.Minute

// ReplenisherDeps wires stores and generators into the replenisher.
type ReplenisherDeps struct {
	Users      ports.UserStore
	Papers     ports.PaperStore
	Feed       ports.FeedStore
	Summarizer ports.Summarizer
	Voice      ports.VoiceSynthesizer
	Metrics    ports.ReplenishMetrics
	Logger     *slog.Logger

	DefaultVoice      int
	BackgroundTimeout time.Duration
}

// Replenisher keeps each user's feed queue populated with generated entries.
type Replenisher struct {
	users      ports.UserStore
	papers     ports.PaperStore
	feed       ports.FeedStore
	summarizer ports.Summarizer
	voice      ports.VoiceSynthesizer
	metrics    ports.ReplenishMetrics
	logger     *slog.Logger

	defaultVoice      int
	backgroundTimeout time.Duration

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewReplenisher constructs the replenisher.
func NewReplenisher(deps ReplenisherDeps) *Replenisher {
	r := &Replenisher{
		users:             deps.Users,
		papers:            deps.Papers,
		feed:              deps.Feed,
		summarizer:        deps.Summarizer,
		voice:             deps.Voice,
		metrics:           deps.Metrics,
		logger:            deps.Logger,
		defaultVoice:      deps.DefaultVoice,
		backgroundTimeout: deps.BackgroundTimeout,
	}
	if r.metrics == nil {
		r.metrics = noopMetrics{}
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.defaultVoice <= 0 {
		r.defaultVoice = domain.DefaultVoiceType
	}
	if r.backgroundTimeout <= 0 {
		r.backgroundTimeout = defaultBackgroundTimeout
	}
	return r
}

// BulkGenerate produces up to count new entries for the user from papers the
// user has not seen. Papers whose summary or audio cannot be produced are
// skipped for this pass and stay eligible for later passes. A store failure
// aborts the pass; the entries stored before it are still returned.
func (r *Replenisher) BulkGenerate(ctx context.Context, userID int64, count int) ([]domain.FeedEntry, error) {
	log := r.logger.With("user_id", userID)
	if count <= 0 {
		return nil, nil
	}

	stored, err := r.bulkGenerate(ctx, log, userID, count)
	r.metrics.PassFinished(len(stored), err)
	if err != nil {
		log.Error("feed generation aborted", "stored", len(stored), "error", err)
		return stored, err
	}
	log.Info("feed generation finished", "requested", count, "stored", len(stored))
	return stored, nil
}

func (r *Replenisher) bulkGenerate(ctx context.Context, log *slog.Logger, userID int64, count int) ([]domain.FeedEntry, error) {
	voice, extra := r.resolveUser(ctx, log, userID)

	seen, err := r.feed.SeenPaperIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load seen papers: %w", err)
	}

	candidates, err := r.papers.ListUnseen(ctx, seen, count)
	if err != nil {
		return nil, fmt.Errorf("list unseen papers: %w", err)
	}
	if len(candidates) == 0 {
		log.Info("no unseen papers left")
		return nil, nil
	}

	log.Debug("feed generation started", "candidates", len(candidates), "voice", voice)

	stored := make([]domain.FeedEntry, 0, len(candidates))
	for _, paper := range candidates {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		entry, ok := r.generateEntry(ctx, log, userID, paper, voice, extra)
		if !ok {
			continue
		}

		saved, err := r.feed.Insert(ctx, entry)
		if errors.Is(err, domain.ErrDuplicate) {
			log.Debug("paper already queued, skipping", "paper_id", paper.ID)
			r.metrics.EntrySkipped("duplicate")
			continue
		}
		if err != nil {
			return stored, fmt.Errorf("store entry for paper %d: %w", paper.ID, err)
		}

		log.Debug("stored feed entry", "paper_id", paper.ID, "feed_id", saved.ID)
		r.metrics.EntryStored()
		stored = append(stored, saved)
	}

	return stored, nil
}

func (r *Replenisher) generateEntry(ctx context.Context, log *slog.Logger, userID int64, paper domain.Paper, voice int, extra string) (domain.FeedEntry, bool) {
	summary, err := r.summarizer.Summarize(ctx, paper.Abstract, extra)
	if err == nil && strings.TrimSpace(summary) == "" {
		err = domain.ErrSummaryFailed
	}
	if err != nil {
		log.Warn("summary failed, skipping paper", "paper_id", paper.ID, "error", err)
		r.metrics.EntrySkipped("summary")
		return domain.FeedEntry{}, false
	}

	audio, err := r.voice.Synthesize(ctx, summary, voice)
	if err == nil && len(audio) == 0 {
		err = domain.ErrSynthesisFailed
	}
	if err != nil {
		log.Warn("voice synthesis failed, skipping paper", "paper_id", paper.ID, "error", err)
		r.metrics.EntrySkipped("voice")
		return domain.FeedEntry{}, false
	}

	return domain.FeedEntry{
		UserID:      userID,
		PaperID:     paper.ID,
		Summary:     summary,
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
	}, true
}

// resolveUser falls back to the default voice when the profile is missing or
// cannot be read.
func (r *Replenisher) resolveUser(ctx context.Context, log *slog.Logger, userID int64) (int, string) {
	if r.users == nil {
		return r.defaultVoice, ""
	}
	profile, err := r.users.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("load user settings failed, using default voice", "error", err)
		}
		return r.defaultVoice, ""
	}
	voice := profile.VoiceType
	if voice <= 0 {
		voice = r.defaultVoice
	}
	return voice, profile.AdditionalPrompt
}

// ConsumeOne pops the user's oldest entry, joins it with its paper, and
// schedules one replacement in the background.
func (r *Replenisher) ConsumeOne(ctx context.Context, userID int64) (domain.FeedItem, error) {
	entry, err := r.feed.ConsumeOldest(ctx, userID)
	if err != nil {
		return domain.FeedItem{}, err
	}
	r.metrics.Consumed()
	r.Schedule(userID, 1)

	paper, err := r.papers.Get(ctx, entry.PaperID)
	if errors.Is(err, domain.ErrNotFound) {
		r.logger.Error("consumed feed entry references a missing paper",
			"user_id", userID, "feed_id", entry.ID, "paper_id", entry.PaperID)
		return domain.FeedItem{}, fmt.Errorf("paper %d: %w", entry.PaperID, domain.ErrInconsistentState)
	}
	if err != nil {
		return domain.FeedItem{}, fmt.Errorf("load paper %d: %w", entry.PaperID, err)
	}

	return domain.NewFeedItem(entry, paper), nil
}

// Schedule starts a detached generation pass. Its outcome is only logged.
// After Shutdown it does nothing.
func (r *Replenisher) Schedule(userID int64, count int) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("replenisher closed, generation not scheduled", "user_id", userID, "count", count)
		return
	}
	r.inflight.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.backgroundTimeout)
		defer cancel()

		r.logger.Debug("background generation scheduled", "user_id", userID, "count", count)
		_, _ = r.BulkGenerate(ctx, userID, count)
	}()
}

// Wait blocks until every scheduled pass has returned.
func (r *Replenisher) Wait() {
	r.inflight.Wait()
}

// Shutdown stops accepting new passes and waits for the running ones.
func (r *Replenisher) Shutdown() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.inflight.Wait()
}

type noopMetrics struct{}

func (noopMetrics) EntryStored()            {}
func (noopMetrics) EntrySkipped(string)     {}
func (noopMetrics) PassFinished(int, error) {}
func (noopMetrics) Consumed()               {}
