// Package services wires the graph engine to its collaborators: the
// instrument source, the optional history provider, the refresh loop and
// the consumers of finished snapshots.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"falak/internal/catalog"
	"falak/internal/graph"
	"falak/internal/infrastructure"
)

// HistoryProvider supplies longer price histories keyed by instrument key.
// Implementations may return a subset of the universe; instruments without
// history fall back to their sparklines.
type HistoryProvider interface {
	Histories(ctx context.Context) (map[string][]float64, error)
}

// Notifier is told about each freshly built model. The websocket hub
// implements this to push refresh events to dashboard clients.
type Notifier interface {
	NotifyRefresh(model *graph.MarketGraphModel)
}

// GraphService owns the current market graph model. Every refresh builds a
// brand-new model and swaps it in wholesale; readers always see a complete
// snapshot.
type GraphService struct {
	source   catalog.Source
	history  HistoryProvider
	builder  *graph.Builder
	metrics  *infrastructure.Metrics
	notifier Notifier
	logger   *slog.Logger

	mu      sync.RWMutex
	current *graph.MarketGraphModel
}

// GraphServiceOption configures a GraphService.
type GraphServiceOption func(*GraphService)

// WithHistoryProvider attaches a history provider.
func WithHistoryProvider(p HistoryProvider) GraphServiceOption {
	return func(s *GraphService) { s.history = p }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *infrastructure.Metrics) GraphServiceOption {
	return func(s *GraphService) { s.metrics = m }
}

// WithNotifier attaches a refresh notifier.
func WithNotifier(n Notifier) GraphServiceOption {
	return func(s *GraphService) { s.notifier = n }
}

// NewGraphService creates the service. source and builder are required.
func NewGraphService(source catalog.Source, builder *graph.Builder, logger *slog.Logger, opts ...GraphServiceOption) *GraphService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &GraphService{
		source:  source,
		builder: builder,
		logger:  logger.With(slog.String("component", "graph_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh fetches inputs, builds a new model and swaps it in. A failing
// history provider degrades to sparkline-only metrics; a failing
// instrument source fails the refresh and leaves the previous model in
// place.
func (s *GraphService) Refresh(ctx context.Context) error {
	// Background refreshes get a trace ID too, so a whole refresh cycle is
	// correlatable in the logs.
	ctx = infrastructure.EnsureTraceID(ctx)
	start := time.Now()

	instruments, err := s.source.Instruments(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.BuildFailures.Inc()
		}
		return fmt.Errorf("fetch instruments: %w", err)
	}

	var histories map[string][]float64
	if s.history != nil {
		histories, err = s.history.Histories(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "history provider failed, using sparklines only",
				slog.String("error", err.Error()))
			histories = nil
		}
	}

	model := s.builder.Build(ctx, instruments, histories)

	s.mu.Lock()
	s.current = model
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.BuildsTotal.Inc()
		s.metrics.BuildDuration.Observe(time.Since(start).Seconds())
		s.metrics.EdgeCount.Set(float64(len(model.Edges)))
		s.metrics.Instruments.Set(float64(len(model.Instruments)))
	}

	if s.notifier != nil {
		s.notifier.NotifyRefresh(model)
	}

	return nil
}

// Model returns the latest snapshot, or false before the first successful
// refresh.
func (s *GraphService) Model() (*graph.MarketGraphModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// BuildOnce builds a one-off model without touching the served snapshot,
// used for ad-hoc threshold overrides.
func (s *GraphService) BuildOnce(ctx context.Context, builder *graph.Builder) (*graph.MarketGraphModel, error) {
	instruments, err := s.source.Instruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch instruments: %w", err)
	}

	var histories map[string][]float64
	if s.history != nil {
		if histories, err = s.history.Histories(ctx); err != nil {
			histories = nil
		}
	}

	return builder.Build(ctx, instruments, histories), nil
}

// BuildWithThreshold builds a one-off model from the service's own builder
// with only the edge threshold overridden, so the market proxy and layout
// settings match the served snapshot.
func (s *GraphService) BuildWithThreshold(ctx context.Context, threshold float64) (*graph.MarketGraphModel, error) {
	return s.BuildOnce(ctx, s.builder.Derive(graph.WithThreshold(threshold)))
}

// Run refreshes immediately and then on every tick until the context is
// cancelled. Refresh errors are logged and the loop keeps going; the next
// tick retries.
func (s *GraphService) Run(ctx context.Context, interval time.Duration) error {
	if err := s.Refresh(ctx); err != nil {
		s.logger.ErrorContext(ctx, "initial refresh failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.ErrorContext(ctx, "refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}
