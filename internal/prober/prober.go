// Package prober walks an ordered list of model candidates until one of them
// produces a non-empty answer.
package prober

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/advisor-gateway/internal/api/gemini"
	"github.com/tjfontaine/advisor-gateway/internal/domain"
	"github.com/tjfontaine/advisor-gateway/internal/metrics"
)

// maxDetail bounds how much of an upstream error is kept per attempt.
const maxDetail = 200

// Generator performs one generation call against one candidate.
type Generator interface {
	GenerateContent(ctx context.Context, apiVersion, model string, req *gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error)
}

// Option configures a Prober.
type Option func(*Prober)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		p.logger = logger
	}
}

// Prober tries candidates strictly in order.
type Prober struct {
	generator Generator
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New creates a Prober over generator.
func New(generator Generator, opts ...Option) *Prober {
	p := &Prober{
		generator: generator,
		logger:    slog.Default(),
		tracer:    otel.Tracer("github.com/tjfontaine/advisor-gateway/internal/prober"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is a successful probe.
type Result struct {
	Text      string
	Candidate domain.ModelCandidate
	Attempts  []domain.ProbeAttempt
}

// Probe issues one generation call per candidate, in order, and returns the
// first non-empty answer. Per-candidate failures are recorded and skipped.
// When every candidate fails it returns *domain.AllCandidatesExhaustedError.
func (p *Prober) Probe(ctx context.Context, candidates []domain.ModelCandidate, conversation []domain.ChatMessage, systemPrompt string) (*Result, error) {
	req := gemini.NewChatRequest(conversation, systemPrompt)

	attempts := make([]domain.ProbeAttempt, 0, len(candidates))
	var lastErr error

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			p.logAttempts(ctx, attempts)
			return nil, fmt.Errorf("probe aborted after %d attempts: %w", len(attempts), err)
		}

		text, attempt, err := p.try(ctx, c, req)
		attempts = append(attempts, attempt)
		metrics.ProbeAttempts.WithLabelValues(c.APIVersion, string(attempt.Outcome)).Inc()

		if attempt.Outcome == domain.OutcomeSuccess {
			p.logger.InfoContext(ctx, "generation succeeded",
				slog.String("api_version", c.APIVersion),
				slog.String("model", c.ModelID),
				slog.Int("attempts", len(attempts)))
			return &Result{Text: text, Candidate: c, Attempts: attempts}, nil
		}
		lastErr = err
	}

	p.logAttempts(ctx, attempts)
	metrics.ProbeExhausted.Inc()
	return nil, &domain.AllCandidatesExhaustedError{Attempts: attempts, Last: lastErr}
}

func (p *Prober) try(ctx context.Context, c domain.ModelCandidate, req *gemini.GenerateContentRequest) (string, domain.ProbeAttempt, error) {
	ctx, span := p.tracer.Start(ctx, "prober.attempt", trace.WithAttributes(
		attribute.String("gemini.api_version", c.APIVersion),
		attribute.String("gemini.model", c.ModelID),
	))
	defer span.End()

	p.logger.DebugContext(ctx, "trying candidate",
		slog.String("api_version", c.APIVersion),
		slog.String("model", c.ModelID))

	attempt := domain.ProbeAttempt{Candidate: c}

	resp, err := p.generator.GenerateContent(ctx, c.APIVersion, c.ModelID, req)
	if err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) {
			attempt.Outcome = domain.OutcomeHTTPError
			attempt.StatusCode = apiErr.HTTPStatusCode()
			if apiErr.ModelUnavailable() {
				span.SetAttributes(attribute.Bool("gemini.model_unavailable", true))
			}
		} else {
			attempt.Outcome = domain.OutcomeException
		}
		attempt.Detail = clip(err.Error())
		span.SetStatus(codes.Error, attempt.Detail)
		return "", attempt, fmt.Errorf("[%s] %s: %w", c.APIVersion, c.ModelID, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		attempt.Outcome = domain.OutcomeEmptyResponse
		attempt.Detail = "empty response"
		span.SetStatus(codes.Error, attempt.Detail)
		return "", attempt, fmt.Errorf("[%s] %s: %w", c.APIVersion, c.ModelID, domain.ErrEmptyResponse)
	}

	attempt.Outcome = domain.OutcomeSuccess
	span.SetStatus(codes.Ok, "")
	return text, attempt, nil
}

func (p *Prober) logAttempts(ctx context.Context, attempts []domain.ProbeAttempt) {
	tried := make([]any, 0, len(attempts))
	for i, a := range attempts {
		tried = append(tried, slog.Group(fmt.Sprintf("%d", i),
			slog.String("candidate", a.Candidate.String()),
			slog.String("outcome", string(a.Outcome)),
			slog.Int("status", a.StatusCode),
			slog.String("detail", a.Detail)))
	}
	p.logger.WarnContext(ctx, "all candidates failed", slog.Group("tried", tried...))
}

// clip cuts s to at most maxDetail bytes without splitting a rune.
func clip(s string) string {
	if len(s) <= maxDetail {
		return s
	}
	n := maxDetail
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
