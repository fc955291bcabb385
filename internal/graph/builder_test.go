package graph

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"falak/internal/catalog"
	"falak/internal/stats"
)

func proportionalPair() []catalog.RawInstrument {
	return []catalog.RawInstrument{
		{Key: "A", Category: catalog.CategoryCrypto, ChangePct: 1.0, Sparkline: []float64{10, 11, 12, 13, 14}},
		{Key: "B", Category: catalog.CategoryCommodity, ChangePct: 2.0, Sparkline: []float64{20, 22, 24, 26, 28}},
	}
}

func TestComputeMetrics(t *testing.T) {
	builder := NewBuilder(nil)

	t.Run("market proxy gets beta of exactly one", func(t *testing.T) {
		raw := []catalog.RawInstrument{
			{Key: "SPX", Category: catalog.CategoryUSIndex, Sparkline: []float64{100, 101, 99, 102}},
			{Key: "BTC", Category: catalog.CategoryCrypto, Sparkline: []float64{50, 51, 49, 52}},
		}
		instruments := builder.ComputeMetrics(raw)
		require.Len(t, instruments, 2)
		assert.Equal(t, 1.0, instruments[0].Beta)
		assert.NotZero(t, instruments[1].Beta)
	})

	t.Run("beta is regression slope against proxy returns", func(t *testing.T) {
		raw := []catalog.RawInstrument{
			{Key: "SPX", Category: catalog.CategoryUSIndex, Sparkline: []float64{100, 101, 99, 102}},
			{Key: "X", Category: catalog.CategorySaudi, Sparkline: []float64{200, 202, 198, 204}},
		}
		instruments := builder.ComputeMetrics(raw)
		expected := stats.Beta(instruments[1].Returns, instruments[0].Returns)
		assert.InDelta(t, expected, instruments[1].Beta, 1e-12)
	})

	t.Run("missing proxy yields zero betas", func(t *testing.T) {
		raw := []catalog.RawInstrument{
			{Key: "BTC", Category: catalog.CategoryCrypto, Sparkline: []float64{50, 51, 49, 52}},
		}
		instruments := builder.ComputeMetrics(raw)
		assert.Zero(t, instruments[0].Beta)
	})

	t.Run("historical series preferred over sparkline", func(t *testing.T) {
		raw := []catalog.RawInstrument{
			{Key: "GOLD", Category: catalog.CategoryCommodity, Sparkline: []float64{100, 101}},
		}
		hist := map[string][]float64{
			"GOLD": {90, 92, 91, 95, 94, 97},
		}
		instruments := builder.ComputeMetricsFromHistorical(raw, hist)
		assert.Len(t, instruments[0].Returns, 5)
	})

	t.Run("short historical series falls back to sparkline", func(t *testing.T) {
		raw := []catalog.RawInstrument{
			{Key: "GOLD", Category: catalog.CategoryCommodity, Sparkline: []float64{100, 101, 102}},
		}
		hist := map[string][]float64{"GOLD": {90}}
		instruments := builder.ComputeMetricsFromHistorical(raw, hist)
		assert.Len(t, instruments[0].Returns, 2)
	})

	t.Run("empty sparkline degrades to zero metrics", func(t *testing.T) {
		raw := []catalog.RawInstrument{
			{Key: "EMPTY", Category: catalog.CategoryCrypto},
		}
		instruments := builder.ComputeMetrics(raw)
		assert.Empty(t, instruments[0].Returns)
		assert.Zero(t, instruments[0].Vol)
		assert.Zero(t, instruments[0].Sharpe)
	})
}

func TestComputeEdges(t *testing.T) {
	t.Run("proportional growth produces a full-strength positive edge", func(t *testing.T) {
		builder := NewBuilder(nil)
		instruments := builder.ComputeMetrics(proportionalPair())
		edges := builder.ComputeEdges(instruments)

		require.Len(t, edges, 1)
		edge := edges[0]
		assert.Equal(t, "A", edge.From)
		assert.Equal(t, "B", edge.To)
		assert.InDelta(t, 1.0, edge.Rho, 1e-9)
		assert.Equal(t, EdgePositive, edge.Type)
		assert.Equal(t, 100, edge.Pct)
		assert.Equal(t, 4, edge.SampleSize)
		assert.Equal(t, stats.ConfidenceLow, edge.Confidence)
	})

	t.Run("edges exist iff correlation clears threshold", func(t *testing.T) {
		// DOWN's prices are reciprocals of UP's, so its log returns are the
		// exact negatives of UP's and the pair correlates at -1.
		raw := []catalog.RawInstrument{
			{Key: "UP", Category: catalog.CategoryCrypto, Sparkline: []float64{10, 11, 12, 13, 14}},
			{Key: "DOWN", Category: catalog.CategoryCommodity, Sparkline: []float64{1.0 / 10, 1.0 / 11, 1.0 / 12, 1.0 / 13, 1.0 / 14}},
		}
		instruments := NewBuilder(nil).ComputeMetrics(raw)

		strict := NewBuilder(nil, WithThreshold(0.99)).ComputeEdges(instruments)
		require.Len(t, strict, 1)
		assert.Equal(t, EdgeInverse, strict[0].Type)

		impossible := NewBuilder(nil, WithThreshold(1.01)).ComputeEdges(instruments)
		assert.Empty(t, impossible)
	})

	t.Run("lowering threshold never removes edges", func(t *testing.T) {
		raw := catalog.Fallback()
		instruments := NewBuilder(nil).ComputeMetrics(raw)

		high := NewBuilder(nil, WithThreshold(0.6)).ComputeEdges(instruments)
		low := NewBuilder(nil, WithThreshold(0.25)).ComputeEdges(instruments)

		assert.GreaterOrEqual(t, len(low), len(high))
		lowSet := make(map[[2]string]bool, len(low))
		for _, e := range low {
			lowSet[[2]string{e.From, e.To}] = true
		}
		for _, e := range high {
			assert.True(t, lowSet[[2]string{e.From, e.To}],
				"edge %s-%s passed 0.6 but vanished at 0.25", e.From, e.To)
		}
	})

	t.Run("edges sorted by descending correlation strength", func(t *testing.T) {
		instruments := NewBuilder(nil).ComputeMetrics(catalog.Fallback())
		edges := NewBuilder(nil).ComputeEdges(instruments)
		for i := 1; i < len(edges); i++ {
			assert.GreaterOrEqual(t, math.Abs(edges[i-1].Rho), math.Abs(edges[i].Rho))
		}
	})

	t.Run("enhanced edges align history from the most recent end", func(t *testing.T) {
		builder := NewBuilder(nil)
		raw := []catalog.RawInstrument{
			{Key: "A", Category: catalog.CategoryCrypto, Sparkline: []float64{1, 2}},
			{Key: "B", Category: catalog.CategoryCommodity, Sparkline: []float64{1, 2}},
		}
		// A has eight prices, B five; overlap is the last four returns.
		hist := map[string][]float64{
			"A": {10, 11, 10, 12, 11, 13, 12, 14},
			"B": {20, 24, 22, 26, 28},
		}
		instruments := builder.ComputeMetricsFromHistorical(raw, hist)
		edges := builder.ComputeEdgesEnhanced(instruments, hist)
		require.Len(t, edges, 1)
		assert.Equal(t, 4, edges[0].SampleSize)

		expA := stats.LogReturns(hist["A"])
		expB := stats.LogReturns(hist["B"])
		expected := stats.PearsonCorr(expA[len(expA)-4:], expB)
		assert.InDelta(t, expected, edges[0].Rho, 1e-12)
	})

	t.Run("zero variance instrument correlates with nothing", func(t *testing.T) {
		raw := []catalog.RawInstrument{
			{Key: "FLAT", Category: catalog.CategoryCommodity, Sparkline: []float64{5, 5, 5, 5, 5}},
			{Key: "UP", Category: catalog.CategoryCrypto, Sparkline: []float64{10, 11, 12, 13, 14}},
		}
		instruments := NewBuilder(nil).ComputeMetrics(raw)
		assert.Empty(t, NewBuilder(nil).ComputeEdges(instruments))
	})
}

func TestPortfolioStats(t *testing.T) {
	builder := NewBuilder(nil)

	t.Run("empty set yields the neutral snapshot", func(t *testing.T) {
		ps := builder.PortfolioStats(nil)
		assert.Equal(t, PortfolioStats{Diversification: 1}, ps)
	})

	t.Run("diversification and average correlation sum to one", func(t *testing.T) {
		instruments := builder.ComputeMetrics(catalog.Fallback())
		ps := builder.PortfolioStats(instruments)
		assert.Equal(t, 1.0, ps.Diversification+ps.AvgAbsCorr)
	})

	t.Run("breadth maps advancing share to [-1,1]", func(t *testing.T) {
		instruments := builder.ComputeMetrics(proportionalPair())
		ps := builder.PortfolioStats(instruments)
		assert.Equal(t, 2, ps.Advancing)
		assert.Equal(t, 0, ps.Declining)
		assert.Equal(t, 1.0, ps.Breadth)
	})

	t.Run("split market has zero breadth", func(t *testing.T) {
		raw := []catalog.RawInstrument{
			{Key: "A", Category: catalog.CategoryCrypto, ChangePct: 1, Sparkline: []float64{1, 2}},
			{Key: "B", Category: catalog.CategoryCrypto, ChangePct: -1, Sparkline: []float64{2, 1}},
		}
		ps := builder.PortfolioStats(builder.ComputeMetrics(raw))
		assert.Equal(t, 0.0, ps.Breadth)
	})
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("full pipeline composes a complete model", func(t *testing.T) {
		builder := NewBuilder(nil)
		model := builder.Build(ctx, catalog.Fallback(), nil)

		require.NotNil(t, model)
		assert.NotEmpty(t, model.ID)
		assert.False(t, model.GeneratedAt.IsZero())
		assert.Len(t, model.Instruments, len(catalog.Fallback()))
		assert.Len(t, model.Layout, len(model.Instruments))
		assert.Len(t, model.Labels, len(model.Edges))
	})

	t.Run("rebuild from identical inputs is reproducible", func(t *testing.T) {
		builder := NewBuilder(nil)
		raw := catalog.Fallback()

		first := builder.Build(ctx, raw, nil)
		second := builder.Build(ctx, raw, nil)

		assert.Equal(t, first.Instruments, second.Instruments)
		assert.Equal(t, first.Edges, second.Edges)
		assert.Equal(t, first.Stats, second.Stats)
		assert.Equal(t, first.Layout, second.Layout)
		assert.Equal(t, first.Labels, second.Labels)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("empty universe still yields a complete snapshot", func(t *testing.T) {
		model := NewBuilder(nil).Build(ctx, nil, nil)
		require.NotNil(t, model)
		assert.Empty(t, model.Instruments)
		assert.Empty(t, model.Edges)
		assert.Empty(t, model.Layout)
		assert.Empty(t, model.Labels)
		assert.Equal(t, PortfolioStats{Diversification: 1}, model.Stats)
	})
}

func TestDerive(t *testing.T) {
	base := NewBuilder(nil, WithMarketProxy("TASI"), WithThreshold(0.5))
	derived := base.Derive(WithThreshold(0.9))

	assert.Equal(t, 0.9, derived.Threshold())
	assert.Equal(t, "TASI", derived.marketProxyKey)
	// The receiver keeps its own threshold.
	assert.Equal(t, 0.5, base.Threshold())
}
