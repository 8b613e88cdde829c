// Package gateway runs one advisory chat request end to end: profile lookup,
// prompt assembly, generation by the configured strategy, localization and
// history persistence.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/advisor-gateway/internal/domain"
	"github.com/tjfontaine/advisor-gateway/internal/metrics"
	"github.com/tjfontaine/advisor-gateway/internal/prober"
	"github.com/tjfontaine/advisor-gateway/internal/prompt"
	"github.com/tjfontaine/advisor-gateway/internal/storage"
)

// ComposedModel is reported as the model for dual-compose answers.
const ComposedModel = "composed"

// CandidateSource lists model candidates in try order.
type CandidateSource interface {
	Candidates(ctx context.Context) []domain.ModelCandidate
}

// Prober walks candidates until one answers.
type Prober interface {
	Probe(ctx context.Context, candidates []domain.ModelCandidate, conversation []domain.ChatMessage, systemPrompt string) (*prober.Result, error)
}

// Composer merges several providers' answers and never fails.
type Composer interface {
	Compose(ctx context.Context, conversation []domain.ChatMessage, systemPrompt string) string
}

// Localizer translates a finished answer and never fails.
type Localizer interface {
	Localize(ctx context.Context, text, target string) string
}

// Trimmer fits a conversation into a token budget.
type Trimmer interface {
	Trim(systemPrompt string, conversation []domain.ChatMessage, budget int) []domain.ChatMessage
}

// Request is one chat turn.
type Request struct {
	UserID   string
	Messages []domain.ChatMessage
	Context  domain.AdvisoryContext
	Language string
}

// Response is the localized answer.
type Response struct {
	Text      string
	Context   domain.AdvisoryContext
	Language  string
	Model     string
	Timestamp time.Time
}

// Option is a functional option for configuring a Pipeline.
type Option func(*Pipeline) error

// WithDiscoveryFallback supplies the components of StrategyDiscoveryFallback.
func WithDiscoveryFallback(source CandidateSource, p Prober) Option {
	return func(pl *Pipeline) error {
		if source == nil || p == nil {
			return errors.New("discovery-fallback needs a candidate source and a prober")
		}
		pl.candidates = source
		pl.prober = p
		return nil
	}
}

// WithComposer supplies the component of StrategyDualCompose.
func WithComposer(c Composer) Option {
	return func(pl *Pipeline) error {
		if c == nil {
			return errors.New("dual-compose needs a composer")
		}
		pl.composer = c
		return nil
	}
}

// WithLocalizer enables the translation pass.
func WithLocalizer(l Localizer) Option {
	return func(pl *Pipeline) error {
		pl.localizer = l
		return nil
	}
}

// WithStore enables profile lookup and history persistence.
func WithStore(profiles storage.ProfileStore, history storage.HistoryStore) Option {
	return func(pl *Pipeline) error {
		pl.profiles = profiles
		pl.history = history
		return nil
	}
}

// WithTokenBudget trims history to budget prompt tokens before generation.
func WithTokenBudget(t Trimmer, budget int) Option {
	return func(pl *Pipeline) error {
		pl.trimmer = t
		pl.budget = budget
		return nil
	}
}

// WithDefaultLanguage sets the language used when a request names none.
func WithDefaultLanguage(code string) Option {
	return func(pl *Pipeline) error {
		if code != "" {
			pl.defaultLanguage = code
		}
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(pl *Pipeline) error {
		pl.logger = logger
		return nil
	}
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	strategy Strategy

	candidates CandidateSource
	prober     Prober
	composer   Composer

	localizer Localizer
	profiles  storage.ProfileStore
	history   storage.HistoryStore
	trimmer   Trimmer
	budget    int

	defaultLanguage string
	logger          *slog.Logger
	tracer          trace.Tracer
}

// New creates a Pipeline for strategy. The strategy's components must be
// supplied through options.
func New(strategy Strategy, opts ...Option) (*Pipeline, error) {
	pl := &Pipeline{
		strategy:        strategy,
		defaultLanguage: prompt.DefaultLanguage,
		logger:          slog.Default(),
		tracer:          otel.Tracer("github.com/tjfontaine/advisor-gateway/internal/gateway"),
	}
	for _, opt := range opts {
		if err := opt(pl); err != nil {
			return nil, err
		}
	}

	switch strategy {
	case StrategyDiscoveryFallback:
		if pl.prober == nil {
			return nil, fmt.Errorf("strategy %s: missing WithDiscoveryFallback", strategy)
		}
	case StrategyDualCompose:
		if pl.composer == nil {
			return nil, fmt.Errorf("strategy %s: missing WithComposer", strategy)
		}
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
	return pl, nil
}

// Strategy reports the configured strategy.
func (p *Pipeline) Strategy() Strategy { return p.strategy }

// Run produces the answer for req. The only error is a failed generation
// under StrategyDiscoveryFallback; every other step degrades quietly.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Response, error) {
	language := req.Language
	if language == "" {
		language = p.defaultLanguage
	}
	advisoryContext := req.Context
	if !advisoryContext.Known() {
		advisoryContext = domain.ContextGeneral
	}

	ctx, span := p.tracer.Start(ctx, "gateway.run", trace.WithAttributes(
		attribute.String("gateway.strategy", string(p.strategy)),
		attribute.String("gateway.context", string(advisoryContext)),
		attribute.String("gateway.language", language),
		attribute.Int("gateway.messages", len(req.Messages)),
	))
	defer span.End()

	profile := p.lookupProfile(ctx, req.UserID)
	systemPrompt := prompt.Build(advisoryContext, profile, language)

	conversation := req.Messages
	if p.trimmer != nil && p.budget > 0 {
		conversation = p.trimmer.Trim(systemPrompt, conversation, p.budget)
		if dropped := len(req.Messages) - len(conversation); dropped > 0 {
			p.logger.InfoContext(ctx, "trimmed conversation to token budget",
				slog.Int("dropped", dropped),
				slog.Int("budget", p.budget))
		}
	}

	start := time.Now()
	text, model, err := p.generate(ctx, conversation, systemPrompt)
	metrics.GenerationLatency.WithLabelValues(string(p.strategy)).Observe(time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("gateway.model", model))

	if p.localizer != nil {
		text = p.localizer.Localize(ctx, text, language)
	}

	p.saveHistory(ctx, req, text, advisoryContext)

	return &Response{
		Text:      text,
		Context:   advisoryContext,
		Language:  language,
		Model:     model,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (p *Pipeline) generate(ctx context.Context, conversation []domain.ChatMessage, systemPrompt string) (string, string, error) {
	switch p.strategy {
	case StrategyDiscoveryFallback:
		candidates := p.candidates.Candidates(ctx)
		res, err := p.prober.Probe(ctx, candidates, conversation, systemPrompt)
		if err != nil {
			return "", "", fmt.Errorf("generation failed: %w", err)
		}
		return res.Text, res.Candidate.String(), nil
	case StrategyDualCompose:
		return p.composer.Compose(ctx, conversation, systemPrompt), ComposedModel, nil
	}
	return "", "", fmt.Errorf("unknown strategy %q", p.strategy)
}

func (p *Pipeline) lookupProfile(ctx context.Context, userID string) *domain.UserProfile {
	if userID == "" || p.profiles == nil {
		return nil
	}
	profile, err := p.profiles.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			p.logger.WarnContext(ctx, "profile lookup failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
		return nil
	}
	return profile
}

// saveHistory records the exchange when the caller is known and the last
// turn is the user's question. Failures are logged only.
func (p *Pipeline) saveHistory(ctx context.Context, req Request, answer string, advisoryContext domain.AdvisoryContext) {
	if req.UserID == "" || p.history == nil || len(req.Messages) == 0 {
		return
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != domain.RoleUser {
		return
	}

	err := p.history.SaveChatHistory(ctx, &domain.ChatHistoryEntry{
		UserID:   req.UserID,
		Message:  last.Content,
		Response: answer,
		Context:  advisoryContext,
	})
	if err != nil {
		p.logger.WarnContext(ctx, "failed to save chat history",
			slog.String("user_id", req.UserID),
			slog.String("error", err.Error()))
	}
}
