package mbxas

import (
	"github.com/chrinide/mbxas/internal/logging"
	"github.com/chrinide/mbxas/internal/metrics"
	"github.com/chrinide/mbxas/types"
)

// Option configures Attach and NewPools with optional dependencies.
type Option func(*options)

// options holds optional configuration.
type options struct {
	logger  types.Logger
	metrics types.MetricsCollector
}

// defaultOptions returns the options used when the caller supplies none: a
// slog logger writing to stderr and a no-op metrics collector.
func defaultOptions() *options {
	return &options{
		logger:  logging.NewSlogDefault(),
		metrics: metrics.NewNop(),
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a structured logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with log/slog)
//
// Returns:
//   - Option: Functional option for Attach and NewPools
//
// Example:
//
//	logger := logging.NewSlog(slog.Default())
//	world, err := mbxas.Attach(ctx, cfg, mbxas.WithLogger(logger))
func WithLogger(logger types.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for Attach and NewPools
func WithMetrics(metrics types.MetricsCollector) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}
