// Package memory keeps every store in process memory. It backs local runs
// without a database and the usecase tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
)

var (
	_ ports.PaperStore    = (*PaperStore)(nil)
	_ ports.FeedStore     = (*FeedStore)(nil)
	_ ports.UserStore     = (*UserStore)(nil)
	_ ports.BookmarkStore = (*BookmarkStore)(nil)
	_ ports.ActionStore   = (*ActionStore)(nil)
)

// Store owns the shared state behind the per-table views.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	lastPaperID    int64
	lastFeedID     int64
	lastBookmarkID int64

	papers     map[int64]domain.Paper
	paperByURL map[string]int64
	feed       []domain.FeedEntry
	delivered  map[int64]map[int64]struct{}
	users      map[int64]domain.UserProfile
	bookmarks  []domain.Bookmark
	actions    []domain.Action
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:        func() time.Time { return time.Now().UTC() },
		papers:     make(map[int64]domain.Paper),
		paperByURL: make(map[string]int64),
		delivered:  make(map[int64]map[int64]struct{}),
		users:      make(map[int64]domain.UserProfile),
	}
}

func (s *Store) Papers() *PaperStore       { return &PaperStore{s} }
func (s *Store) Feed() *FeedStore          { return &FeedStore{s} }
func (s *Store) Users() *UserStore         { return &UserStore{s} }
func (s *Store) Bookmarks() *BookmarkStore { return &BookmarkStore{s} }
func (s *Store) Actions() *ActionStore     { return &ActionStore{s} }

// PaperStore is the paper_info view.
type PaperStore struct{ s *Store }

func (p *PaperStore) Get(_ context.Context, id int64) (domain.Paper, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	paper, ok := p.s.papers[id]
	if !ok {
		return domain.Paper{}, domain.ErrNotFound
	}
	return paper, nil
}

func (p *PaperStore) ListRecent(ctx context.Context, limit int) ([]domain.Paper, error) {
	return p.ListUnseen(ctx, nil, limit)
}

func (p *PaperStore) ListUnseen(_ context.Context, exclude []int64, limit int) ([]domain.Paper, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	papers := make([]domain.Paper, 0, len(p.s.papers))
	for id, paper := range p.s.papers {
		if slices.Contains(exclude, id) {
			continue
		}
		papers = append(papers, paper)
	}
	sort.Slice(papers, func(i, j int) bool {
		if !papers[i].PublishedAt.Equal(papers[j].PublishedAt) {
			return papers[i].PublishedAt.After(papers[j].PublishedAt)
		}
		return papers[i].ID > papers[j].ID
	})
	if limit >= 0 && len(papers) > limit {
		papers = papers[:limit]
	}
	return papers, nil
}

func (p *PaperStore) Insert(_ context.Context, paper domain.Paper) (bool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if _, ok := p.s.paperByURL[paper.URL]; ok {
		return false, nil
	}
	p.s.lastPaperID++
	paper.ID = p.s.lastPaperID
	p.s.papers[paper.ID] = paper
	p.s.paperByURL[paper.URL] = paper.ID
	return true, nil
}

// FeedStore is the feed queue plus its delivery history.
type FeedStore struct{ s *Store }

func (f *FeedStore) SeenPaperIDs(_ context.Context, userID int64) ([]int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	seen := make(map[int64]struct{})
	for _, e := range f.s.feed {
		if e.UserID == userID {
			seen[e.PaperID] = struct{}{}
		}
	}
	for id := range f.s.delivered[userID] {
		seen[id] = struct{}{}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (f *FeedStore) Insert(_ context.Context, entry domain.FeedEntry) (domain.FeedEntry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, e := range f.s.feed {
		if e.UserID == entry.UserID && e.PaperID == entry.PaperID {
			return domain.FeedEntry{}, domain.ErrDuplicate
		}
	}
	f.s.lastFeedID++
	entry.ID = f.s.lastFeedID
	entry.CreatedAt = f.s.now()
	f.s.feed = append(f.s.feed, entry)
	return entry, nil
}

func (f *FeedStore) ConsumeOldest(_ context.Context, userID int64) (domain.FeedEntry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	// feed is append-only ordered by id, so the first match is the oldest.
	for i, e := range f.s.feed {
		if e.UserID != userID {
			continue
		}
		f.s.feed = slices.Delete(f.s.feed, i, i+1)
		if f.s.delivered[userID] == nil {
			f.s.delivered[userID] = make(map[int64]struct{})
		}
		f.s.delivered[userID][e.PaperID] = struct{}{}
		return e, nil
	}
	return domain.FeedEntry{}, domain.ErrFeedNotReady
}

func (f *FeedStore) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	before := len(f.s.feed)
	f.s.feed = slices.DeleteFunc(f.s.feed, func(e domain.FeedEntry) bool {
		return e.UserID == userID
	})
	return int64(before - len(f.s.feed)), nil
}

func (f *FeedStore) CountByUser(_ context.Context, userID int64) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	n := 0
	for _, e := range f.s.feed {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *FeedStore) LatestByPapers(_ context.Context, paperIDs []int64) (map[int64]domain.FeedEntry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	latest := make(map[int64]domain.FeedEntry)
	for _, e := range f.s.feed {
		if !slices.Contains(paperIDs, e.PaperID) {
			continue
		}
		if cur, ok := latest[e.PaperID]; !ok || e.ID > cur.ID {
			latest[e.PaperID] = e
		}
	}
	return latest, nil
}

// UserStore is the user_info view.
type UserStore struct{ s *Store }

func (u *UserStore) Get(_ context.Context, userID int64) (domain.UserProfile, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	profile, ok := u.s.users[userID]
	if !ok {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	return profile, nil
}

func (u *UserStore) Create(_ context.Context, profile domain.UserProfile) (bool, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if _, ok := u.s.users[profile.UserID]; ok {
		return false, nil
	}
	now := u.s.now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	u.s.users[profile.UserID] = profile
	return true, nil
}

func (u *UserStore) UpdateSettings(_ context.Context, userID int64, update domain.SettingsUpdate) (domain.UserProfile, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	profile, ok := u.s.users[userID]
	if !ok {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	if update.VoiceType != nil {
		profile.VoiceType = *update.VoiceType
	}
	if update.AdditionalPrompt != nil {
		profile.AdditionalPrompt = *update.AdditionalPrompt
	}
	profile.UpdatedAt = u.s.now()
	u.s.users[userID] = profile
	return profile, nil
}

// BookmarkStore is the bookmark view.
type BookmarkStore struct{ s *Store }

func (b *BookmarkStore) List(_ context.Context, userID int64) ([]domain.Bookmark, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	out := []domain.Bookmark{}
	for _, bm := range b.s.bookmarks {
		if bm.UserID == userID {
			out = append(out, bm)
		}
	}
	return out, nil
}

func (b *BookmarkStore) Add(_ context.Context, bookmark domain.Bookmark) (domain.Bookmark, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	b.s.lastBookmarkID++
	bookmark.ID = b.s.lastBookmarkID
	b.s.bookmarks = append(b.s.bookmarks, bookmark)
	return bookmark, nil
}

func (b *BookmarkStore) DeleteByTitleAuthor(_ context.Context, userID int64, title, author string) (int64, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	before := len(b.s.bookmarks)
	b.s.bookmarks = slices.DeleteFunc(b.s.bookmarks, func(bm domain.Bookmark) bool {
		return bm.UserID == userID && bm.Title == title && bm.Author == author
	})
	return int64(before - len(b.s.bookmarks)), nil
}

// ActionStore is the user_action view.
type ActionStore struct{ s *Store }

func (a *ActionStore) Record(_ context.Context, action domain.Action) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	a.s.actions = append(a.s.actions, action)
	return nil
}

// List returns the recorded actions of a user in arrival order.
func (a *ActionStore) List(userID int64) []domain.Action {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	var out []domain.Action
	for _, act := range a.s.actions {
		if act.UserID == userID {
			out = append(out, act)
		}
	}
	return out
}
