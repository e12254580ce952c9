package rest

import (
	"bytes"
	"fmt"
	"strconv"

	"PaperFeed/internal/domain"
)

const referencedDateLayout = "2006-01-02"

// paperRef accepts a paper id sent either as a JSON number or a numeric string.
type paperRef int64

func (p *paperRef) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(data, `"`)
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("paper_id %s is not an integer", data)
	}
	*p = paperRef(id)
	return nil
}

type feedItem struct {
	FeedID       int64    `json:"feed_id"`
	PaperID      int64    `json:"paper_id"`
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	Summary      string   `json:"summary"`
	AudioBase64  string   `json:"audio_base64"`
	PaperURL     string   `json:"paper_url"`
	IsBookmarked bool     `json:"is_bookmarked"`
}

type feedResponse struct {
	Items []feedItem `json:"items"`
}

func toFeedItem(item domain.FeedItem) feedItem {
	authors := item.Authors
	if authors == nil {
		authors = []string{}
	}
	return feedItem{
		FeedID:       item.FeedID,
		PaperID:      item.PaperID,
		Title:        item.Title,
		Authors:      authors,
		Summary:      item.Summary,
		AudioBase64:  item.AudioBase64,
		PaperURL:     item.PaperURL,
		IsBookmarked: item.IsBookmarked,
	}
}

func toFeedResponse(items []domain.FeedItem) feedResponse {
	out := make([]feedItem, 0, len(items))
	for _, item := range items {
		out = append(out, toFeedItem(item))
	}
	return feedResponse{Items: out}
}

type initialFeedRequest struct {
	UUID      string `json:"uuid"`
	VoiceType int    `json:"voice_type"`
}

type bookmarkRequest struct {
	PaperID paperRef `json:"paper_id"`
}

type bookmarkItem struct {
	BookmarkID     int64  `json:"bookmark_id"`
	UserID         int64  `json:"user_id"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	URL            string `json:"url"`
	ReferencesDate string `json:"references_date"`
}

type bookmarkResponse struct {
	Items []bookmarkItem `json:"items"`
}

type bookmarkCreated struct {
	Status   string       `json:"status"`
	Bookmark bookmarkItem `json:"bookmark"`
}

func toBookmarkItem(b domain.Bookmark) bookmarkItem {
	return bookmarkItem{
		BookmarkID:     b.ID,
		UserID:         b.UserID,
		Title:          b.Title,
		Author:         b.Author,
		URL:            b.URL,
		ReferencesDate: b.ReferencedAt.Format(referencedDateLayout),
	}
}

type settingsResponse struct {
	VoiceType        int    `json:"voice_type"`
	AdditionalPrompt string `json:"additional_prompt"`
}

// settingsRequest accepts character_voice as an alias of voice_type;
// voice_type wins when both are present.
type settingsRequest struct {
	VoiceType        *int    `json:"voice_type"`
	CharacterVoice   *int    `json:"character_voice"`
	AdditionalPrompt *string `json:"additional_prompt"`
}

func (r settingsRequest) update() domain.SettingsUpdate {
	voice := r.VoiceType
	if voice == nil {
		voice = r.CharacterVoice
	}
	return domain.SettingsUpdate{VoiceType: voice, AdditionalPrompt: r.AdditionalPrompt}
}

type actionRequest struct {
	PaperID    paperRef `json:"paper_id"`
	ActionType string   `json:"action_type"`
	Value      float64  `json:"value"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
