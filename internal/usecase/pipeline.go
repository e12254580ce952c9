package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
)

// PipelineDeps wires the upstream source and paper store into ingestion.
type PipelineDeps struct {
	Source   ports.PaperSource
	Papers   ports.PaperStore
	Notifier ports.Notifier
	Logger   *slog.Logger
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Fetched  int
	Stored   int
	Existing int
	Invalid  int
}

// Pipeline implements the paper-ingestion workflow.
type Pipeline struct {
	source   ports.PaperSource
	papers   ports.PaperStore
	notifier ports.Notifier
	logger   *slog.Logger
}

// NewPipeline constructs the ingestion component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		source:   deps.Source,
		papers:   deps.Papers,
		notifier: deps.Notifier,
		logger:   logger,
	}
}

// ProcessDay fetches the listing for day and stores papers not seen before.
func (p *Pipeline) ProcessDay(ctx context.Context, day time.Time) (IngestReport, error) {
	var (
		report IngestReport
		titles []string
	)
	if p.source == nil || p.papers == nil {
		return report, nil
	}

	papers, err := p.source.FetchDaily(ctx, day)
	if err != nil {
		return report, fmt.Errorf("fetch daily: %w", err)
	}
	report.Fetched = len(papers)

	for _, paper := range papers {
		paper = normalizePaper(paper)
		if paper.URL == "" || paper.Title == "" {
			report.Invalid++
			continue
		}

		created, err := p.papers.Insert(ctx, paper)
		if err != nil {
			return report, fmt.Errorf("persist paper %s: %w", paper.URL, err)
		}
		if created {
			report.Stored++
			titles = append(titles, paper.Title)
		} else {
			report.Existing++
		}
	}

	p.logger.Info("ingestion finished",
		"day", day.Format(time.DateOnly),
		"fetched", report.Fetched,
		"stored", report.Stored,
		"existing", report.Existing,
		"invalid", report.Invalid)

	p.notify(ctx, day, report, titles)
	return report, nil
}

const digestTitles = 5

// notify sends a digest of new papers. Delivery failures are only logged.
func (p *Pipeline) notify(ctx context.Context, day time.Time, report IngestReport, titles []string) {
	if p.notifier == nil || report.Stored == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d new papers for %s", report.Stored, day.Format(time.DateOnly))
	for i, title := range titles {
		if i == digestTitles {
			fmt.Fprintf(&b, "\n... and %d more", len(titles)-digestTitles)
			break
		}
		fmt.Fprintf(&b, "\n- %s", title)
	}

	if err := p.notifier.PublishDigest(ctx, b.String()); err != nil {
		p.logger.Warn("publish ingestion digest failed", "error", err)
	}
}

func normalizePaper(p domain.Paper) domain.Paper {
	p.Title = domain.CollapseSpace(p.Title)
	p.Abstract = domain.CollapseSpace(p.Abstract)
	p.Authors = strings.TrimSpace(p.Authors)
	p.URL = strings.TrimSpace(p.URL)
	if p.PublishedAt.IsZero() {
		p.PublishedAt = time.Now().UTC()
	}
	return p
}
