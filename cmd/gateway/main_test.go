package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/tjfontaine/advisor-gateway/internal/api/sarvam"
	"github.com/tjfontaine/advisor-gateway/internal/config"
	"github.com/tjfontaine/advisor-gateway/internal/domain"
	"github.com/tjfontaine/advisor-gateway/internal/gateway"
	"github.com/tjfontaine/advisor-gateway/internal/storage"
)

func newGeminiUpstream(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/models"):
			w.Write([]byte(`{"models":[{"name":"models/gemini-1.5-flash","supportedGenerationMethods":["generateContent"]}]}`))
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":generateContent"):
			w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"` + answer + `"}]}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

type sarvamUpstream struct {
	*httptest.Server
	calls   atomic.Int32
	targets chan string
}

func newSarvamUpstream(t *testing.T) *sarvamUpstream {
	t.Helper()
	u := &sarvamUpstream{targets: make(chan string, 8)}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			http.NotFound(w, r)
			return
		}
		u.calls.Add(1)
		var req sarvam.TranslateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode translate body: %v", err)
		}
		u.targets <- req.TargetLanguageCode
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translated_text":"जल्दी बचत करें।"}`))
	}))
	t.Cleanup(u.Server.Close)
	return u
}

func testConfig(geminiURL, sarvamURL, defaultLanguage string) *config.Config {
	return &config.Config{
		Gateway: config.GatewayConfig{
			Strategy:         string(gateway.StrategyDiscoveryFallback),
			DefaultLanguage:  defaultLanguage,
			MaxHistoryTokens: 6000,
		},
		Gemini:       config.GeminiConfig{APIKey: "gemini-test", BaseURL: geminiURL},
		Sarvam:       config.SarvamConfig{APIKey: "sarvam-test", BaseURL: sarvamURL},
		Localization: config.LocalizationConfig{CacheSize: 16, ChunkSize: 800},
	}
}

func buildPipeline(t *testing.T, cfg *config.Config) *gateway.Pipeline {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sarvamClient := sarvam.NewClient(cfg.Sarvam.APIKey, sarvamOptions(cfg.Sarvam)...)
	localizer, err := newLocalizer(cfg, sarvamClient, logger)
	if err != nil {
		t.Fatalf("newLocalizer() error = %v", err)
	}
	pipeline, err := newPipeline(cfg, storage.Nop{}, localizer, logger)
	if err != nil {
		t.Fatalf("newPipeline() error = %v", err)
	}
	return pipeline
}

func TestNewPipeline_TranslatesChatAnswers(t *testing.T) {
	geminiUpstream := newGeminiUpstream(t, "Save early.")
	sarvamUp := newSarvamUpstream(t)
	pipeline := buildPipeline(t, testConfig(geminiUpstream.URL, sarvamUp.URL, "en-IN"))

	resp, err := pipeline.Run(context.Background(), gateway.Request{
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "When should I start saving?"}},
		Language: "hi-IN",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := sarvamUp.calls.Load(); got != 1 {
		t.Fatalf("translate calls = %d, want 1", got)
	}
	if target := <-sarvamUp.targets; target != "hi-IN" {
		t.Errorf("target_language_code = %q, want hi-IN", target)
	}
	if resp.Text != "जल्दी बचत करें।" {
		t.Errorf("Text = %q, want the translated answer", resp.Text)
	}
	if resp.Language != "hi-IN" {
		t.Errorf("Language = %q, want hi-IN", resp.Language)
	}
}

func TestNewPipeline_DefaultLanguageFromConfig(t *testing.T) {
	geminiUpstream := newGeminiUpstream(t, "Save early.")
	sarvamUp := newSarvamUpstream(t)
	pipeline := buildPipeline(t, testConfig(geminiUpstream.URL, sarvamUp.URL, "hi-IN"))

	resp, err := pipeline.Run(context.Background(), gateway.Request{
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "When should I start saving?"}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.Language != "hi-IN" {
		t.Errorf("Language = %q, want configured default hi-IN", resp.Language)
	}
	if got := sarvamUp.calls.Load(); got != 1 {
		t.Errorf("translate calls = %d, want 1", got)
	}
}

func TestNewPipeline_SourceLanguageSkipsTranslation(t *testing.T) {
	geminiUpstream := newGeminiUpstream(t, "Save early.")
	sarvamUp := newSarvamUpstream(t)
	pipeline := buildPipeline(t, testConfig(geminiUpstream.URL, sarvamUp.URL, "en-IN"))

	resp, err := pipeline.Run(context.Background(), gateway.Request{
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "When should I start saving?"}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.Text != "Save early." {
		t.Errorf("Text = %q", resp.Text)
	}
	if got := sarvamUp.calls.Load(); got != 0 {
		t.Errorf("translate calls = %d, want 0", got)
	}
}
