package rotation

import (
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for expiry and signing.
func WithClock(now timex.Clock) Option {
	return func(e *Engine) { e.now = now }
}

// WithSampler replaces the reaper's random source.
func WithSampler(s Sampler) Option {
	return func(e *Engine) { e.reaper.sample = s }
}

// WithTokenGenerator replaces the refresh token value generator.
func WithTokenGenerator(gen func() string) Option {
	return func(e *Engine) { e.newToken = gen }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
		e.reaper.metrics = m
	}
}

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		e.logger = l.With("module", "rotation")
		e.reaper.logger = l.With("module", "reaper")
	}
}
