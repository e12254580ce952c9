package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"PaperFeed/internal/config"
	"PaperFeed/internal/domain"
	"PaperFeed/internal/ports"
	"PaperFeed/internal/scanner"
)

// StrategySource implements PaperSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	logger   *slog.Logger
}

var _ ports.PaperSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, log *slog.Logger) *StrategySource {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &StrategySource{
		registry: reg,
		sites:    sites,
		logger:   log,
	}
}

// FetchDaily scans all configured sites concurrently. Results keep the order
// of the site list; any site failure fails the whole fetch.
func (s *StrategySource) FetchDaily(ctx context.Context, day time.Time) ([]domain.Paper, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.logger.Debug("fetch daily", "sites", len(s.sites), "day", day.Format("2006-01-02"))

	perSite := make([][]domain.Paper, len(s.sites))
	g, gctx := errgroup.WithContext(ctx)
	for i, site := range s.sites {
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", site.Name, err)
		}

		req := scanner.Request{
			Day:        day,
			SiteName:   site.Name,
			Options:    site.Options,
			Categories: toScannerCategories(site.Categories),
		}

		g.Go(func() error {
			s.logger.Debug("process site", "site", site.Name, "scanner", site.Scanner, "categories", len(site.Categories))
			results, err := strategy.Scan(gctx, req)
			if err != nil {
				return fmt.Errorf("scan site %s: %w", site.Name, err)
			}
			s.logger.Debug("site produced papers", "site", site.Name, "count", len(results))
			perSite[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var aggregated []domain.Paper
	for _, results := range perSite {
		aggregated = append(aggregated, results...)
	}
	s.logger.Debug("strategy source done", "total_papers", len(aggregated))
	return aggregated, nil
}

func toScannerCategories(cfg []config.CategoryConfig) []scanner.Category {
	categories := make([]scanner.Category, 0, len(cfg))
	for _, cat := range cfg {
		categories = append(categories, scanner.Category{
			Name: cat.Name,
			URL:  cat.URL,
		})
	}
	return categories
}
