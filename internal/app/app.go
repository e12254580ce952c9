package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"PaperFeed/internal/config"
	"PaperFeed/internal/domain"
	"PaperFeed/internal/infrastructure/llm"
	"PaperFeed/internal/infrastructure/memory"
	"PaperFeed/internal/infrastructure/parser"
	"PaperFeed/internal/infrastructure/scheduler"
	"PaperFeed/internal/infrastructure/storage"
	"PaperFeed/internal/infrastructure/telegram"
	"PaperFeed/internal/infrastructure/voicevox"
	"PaperFeed/internal/logging"
	"PaperFeed/internal/metrics"
	"PaperFeed/internal/ports"
	"PaperFeed/internal/scanner"
	"PaperFeed/internal/transport/rest"
	"PaperFeed/internal/usecase"
)

// Stores groups the persistence ports behind one lifecycle.
type Stores struct {
	Papers    ports.PaperStore
	Feed      ports.FeedStore
	Users     ports.UserStore
	Bookmarks ports.BookmarkStore
	Actions   ports.ActionStore

	Ping  func(ctx context.Context) error
	Close func() error
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	stores Stores

	metrics     *metrics.Replenish
	replenisher *usecase.Replenisher
	feed        *usecase.FeedService
	bookmarks   *usecase.BookmarkService
	actions     *usecase.ActionService
	pipeline    *usecase.Pipeline
	scheduler   *usecase.Scheduler
}

// New opens the configured stores and builds every service.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	stores, err := OpenStores(ctx, cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	summarizer, err := newSummarizer(cfg, baseLogger.With("component", "summarizer"))
	if err != nil {
		_ = stores.Close()
		return nil, err
	}

	m := metrics.New()
	replenisher := usecase.NewReplenisher(usecase.ReplenisherDeps{
		Users:             stores.Users,
		Papers:            stores.Papers,
		Feed:              stores.Feed,
		Summarizer:        summarizer,
		Voice:             voicevox.NewClient(cfg.VoiceVox),
		Metrics:           m,
		Logger:            baseLogger.With("component", "replenisher"),
		DefaultVoice:      cfg.Feed.DefaultVoice,
		BackgroundTimeout: cfg.Feed.BackgroundTimeout,
	})

	pipelineDeps := usecase.PipelineDeps{
		Source: newSource(cfg, baseLogger),
		Papers: stores.Papers,
		Logger: baseLogger.With("component", "pipeline"),
	}
	if notifier := telegram.NewNotifier(cfg.Telegram); notifier != nil {
		pipelineDeps.Notifier = notifier
	}
	pipeline := usecase.NewPipeline(pipelineDeps)

	a := &Application{
		cfg:         cfg,
		logger:      baseLogger,
		stores:      stores,
		metrics:     m,
		replenisher: replenisher,
		feed: usecase.NewFeedService(usecase.FeedServiceDeps{
			Users:        stores.Users,
			Papers:       stores.Papers,
			Feed:         stores.Feed,
			Bookmarks:    stores.Bookmarks,
			Replenisher:  replenisher,
			Logger:       baseLogger.With("component", "feed"),
			PageSize:     cfg.Feed.PageSize,
			BatchSize:    cfg.Feed.BatchSize,
			DefaultVoice: cfg.Feed.DefaultVoice,
		}),
		bookmarks: usecase.NewBookmarkService(stores.Papers, stores.Bookmarks),
		actions:   usecase.NewActionService(stores.Actions),
		pipeline:  pipeline,
	}
	if cfg.Ingest.Schedule {
		driver := scheduler.NewTickerScheduler(cfg.Ingest.Interval, cfg.Scheduler.Location())
		a.scheduler = usecase.NewScheduler(driver, pipeline, baseLogger.With("component", "scheduler"))
	}
	return a, nil
}

// OpenStores returns the store set selected by storage.driver.
func OpenStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (Stores, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		logger.Warn("using in-memory storage, data is lost on exit")
		mem := memory.New()
		return Stores{
			Papers:    mem.Papers(),
			Feed:      mem.Feed(),
			Users:     mem.Users(),
			Bookmarks: mem.Bookmarks(),
			Actions:   mem.Actions(),
			Ping:      func(context.Context) error { return nil },
			Close:     func() error { return nil },
		}, nil
	}

	if cfg.Database.AutoMigrate {
		if err := storage.Migrate(ctx, cfg.Database.DSN); err != nil {
			return Stores{}, err
		}
	}
	conn, err := storage.NewConnection(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		return Stores{}, err
	}
	return Stores{
		Papers:    storage.NewPaperRepository(conn),
		Feed:      storage.NewFeedRepository(conn),
		Users:     storage.NewUserRepository(conn),
		Bookmarks: storage.NewBookmarkRepository(conn),
		Actions:   storage.NewActionRepository(conn),
		Ping:      conn.Ping,
		Close:     conn.Close,
	}, nil
}

func newSummarizer(cfg config.Config, logger *slog.Logger) (*llm.Summarizer, error) {
	var gen llm.Generator
	switch cfg.Summarizer.Provider {
	case config.ProviderGemini:
		gen = llm.NewGeminiClient(cfg.Gemini)
	case config.ProviderChatGPT:
		gen = llm.NewChatGPTClient(cfg.ChatGPT)
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Summarizer.Provider)
	}
	return llm.NewSummarizer(gen, llm.SummarizerOptions{
		BasePrompt:  cfg.Summarizer.BasePrompt,
		PolicyCheck: cfg.Summarizer.PolicyCheck,
		Logger:      logger,
	}), nil
}

// newSource registers both arXiv strategies behind one shared limiter.
func newSource(cfg config.Config, logger *slog.Logger) *parser.StrategySource {
	client := &http.Client{Timeout: cfg.Ingest.Timeout}
	limiter := parser.NewLimiter(cfg.Ingest.RequestsPerSecond)

	registry := scanner.NewRegistry()
	registry.Register(parser.NewArxivScanner(client, limiter).WithUserAgent(cfg.Ingest.UserAgent))
	registry.Register(parser.NewArxivAPIScanner(client, limiter).WithUserAgent(cfg.Ingest.UserAgent))

	return parser.NewStrategySource(registry, cfg.Sites, logger.With("component", "source"))
}

// Handler builds the REST surface.
func (a *Application) Handler() *echo.Echo {
	e := rest.NewServer(rest.Deps{
		Feed:         a.feed,
		Replenisher:  a.replenisher,
		Bookmarks:    a.bookmarks,
		Actions:      a.actions,
		Health:       a.stores.Ping,
		Metrics:      a.metrics,
		Logger:       a.logger,
		AllowOrigins: a.cfg.HTTP.AllowOrigins,
	})
	e.Server.ReadTimeout = a.cfg.HTTP.ReadTimeout
	e.Server.WriteTimeout = a.cfg.HTTP.WriteTimeout
	return e
}

// Serve runs the HTTP server, and the ingestion ticker when enabled, until
// ctx is cancelled. Background generation passes are drained before return.
func (a *Application) Serve(ctx context.Context) error {
	e := a.Handler()

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http server listening", "addr", a.cfg.HTTP.Addr)
		if err := e.Start(a.cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()

		if a.scheduler != nil {
			if err := a.scheduler.Stop(shutdownCtx); err != nil {
				a.logger.Warn("scheduler stop", "error", err)
			}
		}
		return e.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.replenisher.Shutdown()
	return err
}

// Ingest runs one ingestion pass for the current day.
func (a *Application) Ingest(ctx context.Context) (usecase.IngestReport, error) {
	return a.pipeline.ProcessDay(ctx, time.Now().In(a.cfg.Scheduler.Location()))
}

// Generate runs one synchronous generation pass for the user.
func (a *Application) Generate(ctx context.Context, userID int64, count int) ([]domain.FeedEntry, error) {
	if count <= 0 {
		count = a.feed.BatchSize()
	}
	return a.replenisher.BulkGenerate(ctx, userID, count)
}

// Close releases the stores.
func (a *Application) Close() error {
	return a.stores.Close()
}
