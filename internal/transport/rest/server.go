package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"PaperFeed/internal/usecase"
)

// RequestObserver receives one call per served request.
type RequestObserver interface {
	ObserveRequest(method, route string, code int)
	Handler() http.Handler
}

// Deps wires the services behind the REST surface.
type Deps struct {
	Feed        *usecase.FeedService
	Replenisher *usecase.Replenisher
	Bookmarks   *usecase.BookmarkService
	Actions     *usecase.ActionService

	// Health reports store reachability for /healthz; nil means always healthy.
	Health       func(ctx context.Context) error
	Metrics      RequestObserver
	Logger       *slog.Logger
	AllowOrigins []string
}

// NewServer builds the echo instance with all routes registered.
func NewServer(deps Deps) *echo.Echo {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz" || c.Path() == "/metrics"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.InfoContext(c.Request().Context(), "request completed",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))
	origins := deps.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
	}))
	if deps.Metrics != nil {
		e.Use(observe(deps.Metrics))
	}

	h := &handler{
		feed:        deps.Feed,
		replenisher: deps.Replenisher,
		bookmarks:   deps.Bookmarks,
		actions:     deps.Actions,
		health:      deps.Health,
		logger:      logger,
	}

	api := e.Group("/api")
	api.POST("/feed/initial/:userId", h.initialFeed)
	api.POST("/feed/generate/:userId", h.generateFeed)
	api.GET("/feed/next/:userId", h.nextFeed)
	api.GET("/bookmarks/:userId", h.listBookmarks)
	api.POST("/bookmarks/:userId", h.addBookmark)
	api.DELETE("/bookmarks/:userId", h.removeBookmark)
	api.GET("/settings/:userId", h.getSettings)
	api.POST("/settings/:userId", h.updateSettings)
	api.POST("/actions/:userId", h.recordAction)

	e.GET("/healthz", h.healthz)
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}

	return e
}

// observe resolves errors before reading the status so error responses are
// counted with their final code.
func observe(m RequestObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(c.Request().Method, route, c.Response().Status)
			return nil
		}
	}
}
