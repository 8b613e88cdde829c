// Package catalog enumerates Gemini chat models that can serve a request:
// live discovery across API versions plus a static fallback matrix.
package catalog

import (
	"context"
	"log/slog"

	"github.com/tjfontaine/advisor-gateway/internal/api/gemini"
	"github.com/tjfontaine/advisor-gateway/internal/domain"
	"github.com/tjfontaine/advisor-gateway/internal/metrics"
)

// ModelLister lists the models of one API surface.
type ModelLister interface {
	ListModels(ctx context.Context, apiVersion string) (*gemini.ModelList, error)
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discoverer) {
		d.logger = logger
	}
}

// WithFilter replaces DefaultFilter.
func WithFilter(f Filter) Option {
	return func(d *Discoverer) {
		if f != nil {
			d.filter = f
		}
	}
}

// WithVersions sets the surfaces to query, most preferred first.
func WithVersions(versions ...string) Option {
	return func(d *Discoverer) {
		d.versions = versions
	}
}

// Discoverer builds the live candidate list.
type Discoverer struct {
	lister   ModelLister
	filter   Filter
	versions []string
	logger   *slog.Logger
}

// NewDiscoverer creates a Discoverer over lister.
func NewDiscoverer(lister ModelLister, opts ...Option) *Discoverer {
	d := &Discoverer{
		lister:   lister,
		filter:   DefaultFilter,
		versions: DefaultVersions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover queries every surface in preference order and returns the usable
// chat models, surface order first and listing order within a surface. A
// failing surface is logged and skipped; discovery itself never fails.
func (d *Discoverer) Discover(ctx context.Context) []domain.ModelCandidate {
	var out []domain.ModelCandidate
	for _, version := range d.versions {
		list, err := d.lister.ListModels(ctx, version)
		if err != nil {
			d.logger.WarnContext(ctx, "list models failed",
				slog.String("api_version", version),
				slog.String("error", err.Error()))
			metrics.DiscoverySurfaces.WithLabelValues(version, "error").Inc()
			continue
		}

		kept := 0
		for _, m := range list.Models {
			if !d.filter(m) {
				continue
			}
			out = append(out, domain.ModelCandidate{
				APIVersion: version,
				ModelID:    NormalizeModelName(m.Name),
			})
			kept++
		}
		d.logger.InfoContext(ctx, "list models succeeded",
			slog.String("api_version", version),
			slog.Int("count", len(list.Models)),
			slog.Int("usable", kept))
		metrics.DiscoverySurfaces.WithLabelValues(version, "ok").Inc()
	}
	return out
}

// Candidates returns discovered candidates followed by the fallback matrix.
func (d *Discoverer) Candidates(ctx context.Context) []domain.ModelCandidate {
	return append(d.Discover(ctx), FallbackMatrix()...)
}
