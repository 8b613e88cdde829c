// Package localize translates finished answers into the caller's language.
package localize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tjfontaine/advisor-gateway/internal/api/sarvam"
	"github.com/tjfontaine/advisor-gateway/internal/metrics"
)

const (
	DefaultCacheSize = 1024
	DefaultChunkSize = 800
)

// Translator translates one piece of text.
type Translator interface {
	Translate(ctx context.Context, req sarvam.TranslateRequest) (string, error)
}

type cacheKey struct {
	text   string
	source string
	target string
}

// Option configures a Localizer.
type Option func(*Localizer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Localizer) {
		l.logger = logger
	}
}

// WithCacheSize bounds the number of cached translations.
func WithCacheSize(n int) Option {
	return func(l *Localizer) {
		if n > 0 {
			l.cacheSize = n
		}
	}
}

// WithChunkSize sets the largest piece sent in one translate call.
func WithChunkSize(n int) Option {
	return func(l *Localizer) {
		if n > 0 {
			l.chunkSize = n
		}
	}
}

// WithSourceLanguage sets the language answers are generated in.
func WithSourceLanguage(code string) Option {
	return func(l *Localizer) {
		if code != "" {
			l.source = code
		}
	}
}

// Localizer runs the translation pass with an LRU cache in front.
type Localizer struct {
	translator Translator
	cache      *lru.Cache[cacheKey, string]
	cacheSize  int
	chunkSize  int
	source     string
	logger     *slog.Logger
}

// New creates a Localizer over translator.
func New(translator Translator, opts ...Option) (*Localizer, error) {
	l := &Localizer{
		translator: translator,
		cacheSize:  DefaultCacheSize,
		chunkSize:  DefaultChunkSize,
		source:     sarvam.DefaultLanguage,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	cache, err := lru.New[cacheKey, string](l.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation cache: %w", err)
	}
	l.cache = cache
	return l, nil
}

// NeedsTranslation reports whether text would be sent to the translator.
func (l *Localizer) NeedsTranslation(text, target string) bool {
	return strings.TrimSpace(text) != "" && target != l.source && sarvam.IsSupported(target)
}

// Localize returns text in target. It never fails: blank text, the source
// language and unsupported targets are returned unchanged without a call, and
// any translation error falls back to the original text.
func (l *Localizer) Localize(ctx context.Context, text, target string) string {
	if !l.NeedsTranslation(text, target) {
		return text
	}

	key := cacheKey{text: text, source: l.source, target: target}
	if cached, ok := l.cache.Get(key); ok {
		metrics.Translations.WithLabelValues("cache_hit").Inc()
		return cached
	}

	chunks := Chunk(text, l.chunkSize)
	translated := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		out, err := l.translator.Translate(ctx, sarvam.TranslateRequest{
			Input:              chunk,
			SourceLanguageCode: l.source,
			TargetLanguageCode: sarvam.SarvamCode(target),
			Mode:               sarvam.ModeFormal,
		})
		if err != nil {
			l.logger.WarnContext(ctx, "translation failed, returning original text",
				slog.String("target", target),
				slog.Int("chunk", i),
				slog.Int("chunks", len(chunks)),
				slog.String("error", err.Error()))
			metrics.Translations.WithLabelValues("fallback").Inc()
			return text
		}
		translated = append(translated, out)
	}

	result := strings.Join(translated, " ")
	l.cache.Add(key, result)
	metrics.Translations.WithLabelValues("translated").Inc()
	return result
}
