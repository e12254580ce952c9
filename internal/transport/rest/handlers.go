package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"PaperFeed/internal/domain"
	"PaperFeed/internal/usecase"
)

type handler struct {
	feed        *usecase.FeedService
	replenisher *usecase.Replenisher
	bookmarks   *usecase.BookmarkService
	actions     *usecase.ActionService
	health      func(ctx context.Context) error
	logger      *slog.Logger
}

func userID(c echo.Context) (int64, error) {
	raw := c.Param("userId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid user id %q", raw))
	}
	return id, nil
}

func paperID(ref paperRef) (int64, error) {
	if ref <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "paper_id is required")
	}
	return int64(ref), nil
}

func (h *handler) initialFeed(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req initialFeedRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	items, err := h.feed.InitialFeed(c.Request().Context(), uid, req.UUID, req.VoiceType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toFeedResponse(items))
}

func (h *handler) generateFeed(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	h.replenisher.Schedule(uid, h.feed.BatchSize())
	return c.JSON(http.StatusAccepted, messageResponse{Message: "feed generation started in background"})
}

func (h *handler) nextFeed(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	item, err := h.replenisher.ConsumeOne(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toFeedItem(item))
}

func (h *handler) listBookmarks(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	bookmarks, err := h.bookmarks.List(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	resp := bookmarkResponse{Items: make([]bookmarkItem, 0, len(bookmarks))}
	for _, b := range bookmarks {
		resp.Items = append(resp.Items, toBookmarkItem(b))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *handler) addBookmark(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req bookmarkRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	pid, err := paperID(req.PaperID)
	if err != nil {
		return err
	}

	b, err := h.bookmarks.Add(c.Request().Context(), uid, pid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, bookmarkCreated{Status: "success", Bookmark: toBookmarkItem(b)})
}

func (h *handler) removeBookmark(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req bookmarkRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	pid, err := paperID(req.PaperID)
	if err != nil {
		return err
	}

	if err := h.bookmarks.Remove(c.Request().Context(), uid, pid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) getSettings(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	profile, err := h.feed.Settings(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settingsResponse{
		VoiceType:        profile.VoiceType,
		AdditionalPrompt: profile.AdditionalPrompt,
	})
}

func (h *handler) updateSettings(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req settingsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	items, err := h.feed.UpdateSettings(c.Request().Context(), uid, req.update())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toFeedResponse(items))
}

func (h *handler) recordAction(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req actionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	pid, err := paperID(req.PaperID)
	if err != nil {
		return err
	}

	err = h.actions.Record(c.Request().Context(), domain.Action{
		UserID:  uid,
		PaperID: pid,
		Type:    domain.ActionType(req.ActionType),
		Value:   req.Value,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, messageResponse{Message: "action recorded"})
}

func (h *handler) healthz(c echo.Context) error {
	if h.health != nil {
		if err := h.health(c.Request().Context()); err != nil {
			h.logger.Warn("health check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
