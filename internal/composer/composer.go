// Package composer asks two providers the same question at once and merges
// whatever they return into a single answer.
package composer

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tjfontaine/advisor-gateway/internal/domain"
	"github.com/tjfontaine/advisor-gateway/internal/metrics"
)

// Generator is one named provider.
type Generator interface {
	Name() string
	Generate(ctx context.Context, conversation []domain.ChatMessage, systemPrompt string) (string, error)
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) {
		c.logger = logger
	}
}

// Composer fans a request out to a primary and a secondary provider.
type Composer struct {
	primary   Generator
	secondary Generator
	logger    *slog.Logger
}

// New creates a Composer. primary's section is always rendered first.
func New(primary, secondary Generator, opts ...Option) *Composer {
	c := &Composer{
		primary:   primary,
		secondary: secondary,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// slot holds one provider's answer; empty text means unavailable.
type slot struct {
	name string
	text string
}

func (s slot) available() bool { return s.text != "" }

// Compose never fails: provider errors are logged and turned into an
// unavailable slot, and two unavailable slots yield the apology.
func (c *Composer) Compose(ctx context.Context, conversation []domain.ChatMessage, systemPrompt string) string {
	slots := [2]slot{{name: c.primary.Name()}, {name: c.secondary.Name()}}
	gens := [2]Generator{c.primary, c.secondary}

	var g errgroup.Group
	for i := range gens {
		g.Go(func() error {
			text, err := gens[i].Generate(ctx, conversation, systemPrompt)
			if err != nil {
				c.logger.WarnContext(ctx, "provider unavailable",
					slog.String("provider", slots[i].name),
					slog.String("error", err.Error()))
				metrics.ComposerSlots.WithLabelValues(slots[i].name, "unavailable").Inc()
				return nil
			}
			slots[i].text = text
			metrics.ComposerSlots.WithLabelValues(slots[i].name, "ok").Inc()
			return nil
		})
	}
	_ = g.Wait()

	return merge(slots[0], slots[1])
}

func merge(a, b slot) string {
	switch {
	case !a.available() && !b.available():
		return domain.ApologyMessage
	case !a.available():
		return labeled(b)
	case !b.available():
		return labeled(a)
	}

	var sb strings.Builder
	sb.WriteString("## " + a.name + "'s Perspective\n\n")
	sb.WriteString(a.text)
	sb.WriteString("\n\n## " + b.name + "'s Perspective\n\n")
	sb.WriteString(b.text)
	sb.WriteString("\n\n---\n*This answer combines insights from " + a.name + " and " + b.name + ".*")
	return sb.String()
}

func labeled(s slot) string {
	return "*Response from " + s.name + ":*\n\n" + s.text
}
