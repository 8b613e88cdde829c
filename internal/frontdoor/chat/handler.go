// Package chat serves the advisor chat API used by the web app: /chat, plus
// the translation, text-to-speech and language-table endpoints behind the
// UI's translate wrapper and TTS button.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tjfontaine/advisor-gateway/internal/api/sarvam"
	"github.com/tjfontaine/advisor-gateway/internal/auth"
	"github.com/tjfontaine/advisor-gateway/internal/domain"
	"github.com/tjfontaine/advisor-gateway/internal/gateway"
	"github.com/tjfontaine/advisor-gateway/internal/localize"
	"github.com/tjfontaine/advisor-gateway/internal/server"
	"github.com/tjfontaine/advisor-gateway/internal/stream"
)

// TTSChunkSize is the default bound on each text-to-speech input. It must
// stay within sarvam.TTSMaxChars.
const TTSChunkSize = 450

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Runner answers one chat turn.
type Runner interface {
	Run(ctx context.Context, req gateway.Request) (*gateway.Response, error)
	Strategy() gateway.Strategy
}

// Localizer translates text and never fails.
type Localizer interface {
	Localize(ctx context.Context, text, target string) string
}

// Synthesizer turns text into base64 audio clips.
type Synthesizer interface {
	TextToSpeech(ctx context.Context, req sarvam.TTSRequest) ([]string, error)
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithResponseMode selects streaming or JSON answers.
func WithResponseMode(mode gateway.ResponseMode) Option {
	return func(h *Handler) {
		h.mode = mode
	}
}

// WithTTSChunkSize sets the text-to-speech input bound, clamped to the
// endpoint's per-input limit.
func WithTTSChunkSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.ttsChunk = min(n, sarvam.TTSMaxChars)
		}
	}
}

// WithStreamDelay sets the cadence between streamed frames.
func WithStreamDelay(d time.Duration) Option {
	return func(h *Handler) {
		h.delay = d
	}
}

type Handler struct {
	runner    Runner
	localizer Localizer
	tts       Synthesizer
	mode      gateway.ResponseMode
	delay     time.Duration
	ttsChunk  int
	logger    *slog.Logger
}

func NewHandler(runner Runner, localizer Localizer, tts Synthesizer, opts ...Option) *Handler {
	h := &Handler{
		runner:    runner,
		localizer: localizer,
		tts:       tts,
		mode:      gateway.ResponseModeStream,
		delay:     stream.DefaultDelay,
		ttsChunk:  TTSChunkSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/chat", h.HandleChat)
	r.Post("/translate", h.HandleTranslate)
	r.Post("/tts", h.HandleTTS)
	r.Get("/languages", h.HandleLanguages)
}

// ChatRequest accepts the current body shape and the older
// {message, context, history} one.
type ChatRequest struct {
	Messages json.RawMessage      `json:"messages"`
	Context  string               `json:"context"`
	Language string               `json:"language"`
	Message  string               `json:"message"`
	History  []domain.ChatMessage `json:"history"`
}

// ChatResponse is the JSON response mode body.
type ChatResponse struct {
	Response  string    `json:"response"`
	Context   string    `json:"context"`
	Timestamp time.Time `json:"timestamp"`
}

// messagesRequired is the 400 body for an unusable conversation.
const messagesRequired = "Messages array is required"

// conversation resolves the body to a conversation; ok is false when neither
// shape carries one.
func (req *ChatRequest) conversation() (msgs []domain.ChatMessage, ok bool) {
	raw := strings.TrimSpace(string(req.Messages))
	if raw != "" && raw != "null" {
		if !strings.HasPrefix(raw, "[") {
			return nil, false
		}
		if err := json.Unmarshal(req.Messages, &msgs); err != nil || len(msgs) == 0 {
			return nil, false
		}
		return msgs, true
	}

	if strings.TrimSpace(req.Message) == "" {
		return nil, false
	}
	msgs = make([]domain.ChatMessage, 0, len(req.History)+1)
	msgs = append(msgs, req.History...)
	return append(msgs, domain.ChatMessage{Role: domain.RoleUser, Content: req.Message}), true
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := server.GetRequestID(ctx)

	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		server.AddError(ctx, err)
		http.Error(w, messagesRequired, http.StatusBadRequest)
		return
	}
	msgs, ok := req.conversation()
	if !ok {
		http.Error(w, messagesRequired, http.StatusBadRequest)
		return
	}

	advisoryContext := domain.ParseAdvisoryContext(req.Context)

	server.AddLogField(ctx, "strategy", string(h.runner.Strategy()))
	server.AddLogField(ctx, "context", string(advisoryContext))

	// An empty language is left for the pipeline's configured default.
	resp, err := h.runner.Run(ctx, gateway.Request{
		UserID:   auth.UserID(ctx),
		Messages: msgs,
		Context:  advisoryContext,
		Language: req.Language,
	})
	if err != nil {
		if req.Language != "" {
			server.AddLogField(ctx, "language", req.Language)
		}
		h.logger.Error("chat generation failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		var exhausted *domain.AllCandidatesExhaustedError
		if errors.As(err, &exhausted) {
			for _, a := range exhausted.Attempts {
				h.logger.Debug("probe attempt",
					slog.String("request_id", requestID),
					slog.String("candidate", a.Candidate.String()),
					slog.String("outcome", string(a.Outcome)),
					slog.Int("status", a.StatusCode),
				)
			}
		}
		server.AddError(ctx, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": domain.ApologyMessage})
		return
	}
	server.AddLogField(ctx, "model", resp.Model)
	server.AddLogField(ctx, "language", resp.Language)

	if h.mode == gateway.ResponseModeJSON {
		writeJSON(w, http.StatusOK, ChatResponse{
			Response:  resp.Text,
			Context:   string(resp.Context),
			Timestamp: resp.Timestamp,
		})
		return
	}

	w.Header().Set("Content-Type", stream.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if err := stream.Stream(ctx, w, resp.Text, h.delay); err != nil {
		h.logger.Warn("stream ended early",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		server.AddError(ctx, err)
	}
}

// TranslateRequest is the /translate body.
type TranslateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

type TranslateResponse struct {
	TranslatedText string `json:"translated_text"`
}

func (h *Handler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		server.AddError(r.Context(), err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Text == "" || req.TargetLanguage == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text and target_language are required"})
		return
	}
	if !sarvam.ValidateLanguageCode(req.TargetLanguage) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported target_language " + req.TargetLanguage})
		return
	}

	server.AddLogField(r.Context(), "language", req.TargetLanguage)
	writeJSON(w, http.StatusOK, TranslateResponse{
		TranslatedText: h.localizer.Localize(r.Context(), req.Text, req.TargetLanguage),
	})
}

// TTSRequest is the /tts body.
type TTSRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Speaker  string `json:"speaker"`
}

type TTSResponse struct {
	Audios []string `json:"audios"`
}

func (h *Handler) HandleTTS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TTSRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		server.AddError(ctx, err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}
	if req.Language == "" {
		req.Language = sarvam.DetectLanguage(req.Text)
	}
	lang, ok := sarvam.LookupLanguage(req.Language)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported language " + req.Language})
		return
	}
	if req.Speaker == "" {
		req.Speaker = sarvam.DefaultSpeaker
	}

	server.AddLogField(ctx, "language", lang.Code)
	audios, err := h.tts.TextToSpeech(ctx, sarvam.TTSRequest{
		Inputs:             localize.Chunk(req.Text, h.ttsChunk),
		TargetLanguageCode: lang.SarvamCode,
		Speaker:            req.Speaker,
	})
	if err != nil {
		h.logger.Error("text-to-speech failed",
			slog.String("request_id", server.GetRequestID(ctx)),
			slog.String("error", err.Error()),
		)
		server.AddError(ctx, err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "speech synthesis failed"})
		return
	}
	writeJSON(w, http.StatusOK, TTSResponse{Audios: audios})
}

type languageEntry struct {
	sarvam.Language
	Speakers []string `json:"speakers"`
}

func (h *Handler) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	langs := sarvam.Languages()
	out := make([]languageEntry, 0, len(langs))
	for _, l := range langs {
		out = append(out, languageEntry{Language: l, Speakers: sarvam.Speakers(l.Code)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"default":   sarvam.DefaultLanguage,
		"languages": out,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
