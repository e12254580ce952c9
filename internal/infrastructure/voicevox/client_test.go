package voicevox

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"PaperFeed/internal/config"
	"PaperFeed/internal/domain"
)

func TestSynthesize(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		calls []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/audio_query":
			if r.URL.Query().Get("text") != "こんにちは" || r.URL.Query().Get("speaker") != "3" {
				t.Errorf("unexpected audio_query params: %s", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`{"accent_phrases":[],"speedScale":1.0}`))
		case "/synthesis":
			if r.URL.Query().Get("speaker") != "3" {
				t.Errorf("unexpected synthesis params: %s", r.URL.RawQuery)
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"accent_phrases":[],"speedScale":1.0}` {
				t.Errorf("synthesis got body %q", body)
			}
			w.Header().Set("Content-Type", "audio/wav")
			_, _ = w.Write([]byte("RIFF....WAVE"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient(config.VoiceVoxConfig{URL: srv.URL + "/", Timeout: time.Second})
	audio, err := client.Synthesize(context.Background(), "こんにちは", 3)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if string(audio) != "RIFF....WAVE" {
		t.Fatalf("unexpected audio %q", audio)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 || calls[0] != "/audio_query" || calls[1] != "/synthesis" {
		t.Fatalf("unexpected call order %v", calls)
	}
}

func TestSynthesizeEngineError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"speaker not found"}`, http.StatusUnprocessableEntity)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(config.VoiceVoxConfig{URL: srv.URL, Timeout: time.Second})
	_, err := client.Synthesize(context.Background(), "text", 999)
	if !errors.Is(err, domain.ErrSynthesisFailed) {
		t.Fatalf("expected ErrSynthesisFailed, got %v", err)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	t.Parallel()

	client := NewClient(config.VoiceVoxConfig{URL: "http://127.0.0.1:1", Timeout: time.Second})
	if _, err := client.Synthesize(context.Background(), "  ", 3); !errors.Is(err, domain.ErrSynthesisFailed) {
		t.Fatalf("expected ErrSynthesisFailed, got %v", err)
	}
}
