package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/infrastructure/memory"
)

type sourceMock struct {
	mock.Mock
}

func (m *sourceMock) FetchDaily(ctx context.Context, day time.Time) ([]domain.Paper, error) {
	args := m.Called(ctx, day)
	papers, _ := args.Get(0).([]domain.Paper)
	return papers, args.Error(1)
}

func TestProcessDayStoresNewPapers(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	source := &sourceMock{}
	source.On("FetchDaily", mock.Anything, day).Return([]domain.Paper{
		{Title: "  Attention\n Is All You Need ", URL: "http://arxiv.org/abs/1706.03762", Abstract: "The dominant\n\nsequence", PublishedAt: day},
		{Title: "Dup", URL: "http://arxiv.org/abs/1706.03762"},
		{Title: "", URL: "http://arxiv.org/abs/0000.00000"},
	}, nil).Once()

	store := memory.New()
	p := NewPipeline(PipelineDeps{Source: source, Papers: store.Papers()})

	report, err := p.ProcessDay(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, IngestReport{Fetched: 3, Stored: 1, Existing: 1, Invalid: 1}, report)

	paper, err := store.Papers().Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Attention Is All You Need", paper.Title)
	assert.Equal(t, "The dominant sequence", paper.Abstract)
	source.AssertExpectations(t)
}

func TestProcessDaySourceError(t *testing.T) {
	t.Parallel()

	source := &sourceMock{}
	source.On("FetchDaily", mock.Anything, mock.Anything).Return(nil, errors.New("arxiv down"))

	p := NewPipeline(PipelineDeps{Source: source, Papers: memory.New().Papers()})
	_, err := p.ProcessDay(context.Background(), time.Now())
	assert.ErrorContains(t, err, "arxiv down")
}

type notifierMock struct {
	mock.Mock
}

func (m *notifierMock) PublishDigest(ctx context.Context, digest string) error {
	return m.Called(ctx, digest).Error(0)
}

func TestProcessDayPublishesDigest(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	source := &sourceMock{}
	source.On("FetchDaily", mock.Anything, day).Return([]domain.Paper{
		{Title: "One", URL: "http://arxiv.org/abs/1"},
		{Title: "Two", URL: "http://arxiv.org/abs/2"},
	}, nil)

	notifier := &notifierMock{}
	notifier.On("PublishDigest", mock.Anything, "2 new papers for 2024-06-03\n- One\n- Two").
		Return(errors.New("telegram down")).Once()

	p := NewPipeline(PipelineDeps{Source: source, Papers: memory.New().Papers(), Notifier: notifier})
	report, err := p.ProcessDay(context.Background(), day)

	// A failed digest does not fail the ingestion.
	require.NoError(t, err)
	assert.Equal(t, 2, report.Stored)
	notifier.AssertExpectations(t)

	// Nothing new, nothing sent.
	_, err = p.ProcessDay(context.Background(), day)
	require.NoError(t, err)
	notifier.AssertNumberOfCalls(t, "PublishDigest", 1)
}
