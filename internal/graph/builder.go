package graph

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"falak/internal/catalog"
	"falak/internal/layout"
	"falak/internal/stats"
)

const (
	// DefaultThreshold is the minimum |rho| for a pair to become an edge.
	DefaultThreshold = 0.25
	// DefaultMarketProxyKey designates the instrument used as the market
	// return series for beta estimation.
	DefaultMarketProxyKey = "SPX"
)

// Builder derives the full correlation graph model from raw instruments.
// A Builder is safe for repeated use; every Build call composes and returns
// a brand-new model.
type Builder struct {
	threshold      float64
	marketProxyKey string
	layoutOpts     layout.Options
	logger         *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithThreshold overrides the edge inclusion threshold.
func WithThreshold(threshold float64) Option {
	return func(b *Builder) { b.threshold = threshold }
}

// WithMarketProxy overrides the market proxy instrument key.
func WithMarketProxy(key string) Option {
	return func(b *Builder) { b.marketProxyKey = key }
}

// WithLayoutOptions overrides the layout engine options.
func WithLayoutOptions(opts layout.Options) Option {
	return func(b *Builder) { b.layoutOpts = opts }
}

// NewBuilder creates a Builder with the default threshold, market proxy and
// layout options.
func NewBuilder(logger *slog.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Builder{
		threshold:      DefaultThreshold,
		marketProxyKey: DefaultMarketProxyKey,
		layoutOpts:     layout.DefaultOptions(),
		logger:         logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Threshold returns the edge inclusion threshold the builder uses.
func (b *Builder) Threshold() float64 { return b.threshold }

// Derive returns a copy of the builder with the given overrides applied,
// keeping every other setting of the receiver. The receiver is not
// modified.
func (b *Builder) Derive(opts ...Option) *Builder {
	derived := *b
	for _, opt := range opts {
		opt(&derived)
	}
	return &derived
}

// ComputeMetrics derives per-instrument metrics from each instrument's own
// sparkline.
func (b *Builder) ComputeMetrics(raw []catalog.RawInstrument) []Instrument {
	return b.ComputeMetricsFromHistorical(raw, nil)
}

// ComputeMetricsFromHistorical derives per-instrument metrics, preferring a
// longer historical price series over the embedded sparkline when one with
// at least two points exists. The market proxy instrument receives a beta
// of exactly 1 and supplies the market return series for every other
// instrument.
func (b *Builder) ComputeMetricsFromHistorical(raw []catalog.RawInstrument, historicalByKey map[string][]float64) []Instrument {
	instruments := make([]Instrument, len(raw))
	for i, r := range raw {
		instruments[i] = Instrument{
			RawInstrument: r,
			Returns:       stats.LogReturns(b.priceSeries(r, historicalByKey)),
		}
		instruments[i].Vol = stats.AnnualizedVol(instruments[i].Returns)
		instruments[i].Sharpe = stats.SharpeRatio(instruments[i].Returns)
	}

	var marketReturns []float64
	for i := range instruments {
		if instruments[i].Key == b.marketProxyKey {
			marketReturns = instruments[i].Returns
			break
		}
	}

	for i := range instruments {
		if instruments[i].Key == b.marketProxyKey {
			instruments[i].Beta = 1.0
			continue
		}
		instruments[i].Beta = stats.Beta(instruments[i].Returns, marketReturns)
	}

	return instruments
}

// priceSeries picks the historical series when it is usable, else the
// sparkline.
func (b *Builder) priceSeries(r catalog.RawInstrument, historicalByKey map[string][]float64) []float64 {
	if hist, ok := historicalByKey[r.Key]; ok && len(hist) >= 2 {
		return hist
	}
	return r.Sparkline
}

// ComputeEdges builds correlation edges from the instruments' stored
// returns, keeping pairs with |rho| at or above the threshold.
func (b *Builder) ComputeEdges(instruments []Instrument) []CorrelationEdge {
	return b.ComputeEdgesEnhanced(instruments, nil)
}

// ComputeEdgesEnhanced builds correlation edges over all unordered pairs.
// When both instruments have a historical series of at least two points the
// correlation is recomputed from history with both return series truncated
// to the shorter length, aligned from the most recent end, so only
// time-aligned overlapping history is correlated. Edges are returned sorted
// by descending |rho|; that ordering drives label placement priority.
func (b *Builder) ComputeEdgesEnhanced(instruments []Instrument, historicalByKey map[string][]float64) []CorrelationEdge {
	var edges []CorrelationEdge

	for i := 0; i < len(instruments); i++ {
		for j := i + 1; j < len(instruments); j++ {
			a, c := instruments[i], instruments[j]

			retA, retB := a.Returns, c.Returns
			if histA, histB := historicalByKey[a.Key], historicalByKey[c.Key]; len(histA) >= 2 && len(histB) >= 2 {
				retA, retB = alignRecent(stats.LogReturns(histA), stats.LogReturns(histB))
			}

			rho := stats.PearsonCorr(retA, retB)
			if math.Abs(rho) < b.threshold {
				continue
			}

			edgeType := EdgePositive
			if rho <= 0 {
				edgeType = EdgeInverse
			}

			edges = append(edges, CorrelationEdge{
				From:       a.Key,
				To:         c.Key,
				Rho:        rho,
				R2:         rho * rho,
				Type:       edgeType,
				Pct:        int(math.Round(math.Abs(rho) * 100)),
				Confidence: stats.ConfidenceForSample(len(retA)),
				SampleSize: len(retA),
			})
		}
	}

	// Strongest correlations first; stable so equal strengths keep the
	// deterministic pair iteration order.
	sort.SliceStable(edges, func(i, j int) bool {
		return math.Abs(edges[i].Rho) > math.Abs(edges[j].Rho)
	})

	return edges
}

// alignRecent truncates both return series to the shorter length, keeping
// the most recent observations of each.
func alignRecent(a, b []float64) ([]float64, []float64) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	return a[len(a)-n:], b[len(b)-n:]
}

// PortfolioStats aggregates the instrument set. An empty set yields the
// neutral snapshot: all zeros with diversification 1.
func (b *Builder) PortfolioStats(instruments []Instrument) PortfolioStats {
	n := len(instruments)
	if n == 0 {
		return PortfolioStats{Diversification: 1}
	}

	ps := PortfolioStats{}
	for _, inst := range instruments {
		ps.AvgReturn += stats.Mean(inst.Returns)
		ps.AvgVol += inst.Vol
		switch {
		case inst.ChangePct > 0:
			ps.Advancing++
		case inst.ChangePct < 0:
			ps.Declining++
		}
	}
	ps.AvgReturn /= float64(n)
	ps.AvgVol /= float64(n)
	ps.Breadth = float64(ps.Advancing)/float64(n)*2 - 1

	pairs := 0
	sumAbs := 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sumAbs += math.Abs(stats.PearsonCorr(instruments[i].Returns, instruments[j].Returns))
			pairs++
		}
	}
	if pairs > 0 {
		ps.AvgAbsCorr = sumAbs / float64(pairs)
	}
	ps.Diversification = 1 - ps.AvgAbsCorr

	return ps
}

// Build runs the full pipeline: metrics, edges, portfolio aggregates, node
// layout and label placement, composed into one immutable snapshot. Given
// identical inputs the numeric output is bit-for-bit reproducible; only the
// snapshot ID and timestamp differ between builds.
func (b *Builder) Build(ctx context.Context, raw []catalog.RawInstrument, historicalByKey map[string][]float64) *MarketGraphModel {
	start := time.Now()

	instruments := b.ComputeMetricsFromHistorical(raw, historicalByKey)
	edges := b.ComputeEdgesEnhanced(instruments, historicalByKey)
	portfolio := b.PortfolioStats(instruments)

	nodes := make([]layout.Node, len(instruments))
	for i, inst := range instruments {
		nodes[i] = layout.Node{Key: inst.Key, Category: inst.Category, Vol: inst.Vol}
	}
	positions := layout.PlaceNodes(nodes, b.layoutOpts)

	pairs := make([]layout.Pair, len(edges))
	for i, e := range edges {
		pairs[i] = layout.Pair{From: e.From, To: e.To}
	}
	anchors := layout.PlaceLabels(pairs, positions, b.layoutOpts)

	labels := make([]EdgeLabel, len(edges))
	for i, e := range edges {
		labels[i] = EdgeLabel{CorrelationEdge: e, LX: anchors[i].X, LY: anchors[i].Y}
	}

	model := &MarketGraphModel{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Instruments: instruments,
		Edges:       edges,
		Stats:       portfolio,
		Layout:      positions,
		Labels:      labels,
	}

	b.logger.InfoContext(ctx, "market graph model built",
		slog.String("model_id", model.ID),
		slog.Int("instruments", len(instruments)),
		slog.Int("edges", len(edges)),
		slog.Float64("threshold", b.threshold),
		slog.Float64("diversification", portfolio.Diversification),
		slog.Duration("duration", time.Since(start)),
	)

	return model
}
