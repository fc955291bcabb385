// Package graph builds the market correlation graph model: per-instrument
// risk metrics, thresholded pairwise correlation edges, portfolio-level
// aggregates and the composed immutable snapshot served to the dashboard.
package graph

import (
	"time"

	"falak/internal/catalog"
	"falak/internal/layout"
	"falak/internal/stats"
)

// Instrument is a catalog record enriched with the derived series and risk
// metrics for one build. Instances are created fresh on every build and
// never mutated afterwards.
type Instrument struct {
	catalog.RawInstrument

	Returns []float64 `json:"returns"`
	Vol     float64   `json:"vol"`
	Sharpe  float64   `json:"sharpe"`
	Beta    float64   `json:"beta"`
}

// EdgeType states the direction of a correlation edge.
type EdgeType string

const (
	EdgePositive EdgeType = "positive"
	EdgeInverse  EdgeType = "inverse"
)

// CorrelationEdge is an unordered instrument pair whose correlation cleared
// the inclusion threshold.
type CorrelationEdge struct {
	From       string           `json:"from"`
	To         string           `json:"to"`
	Rho        float64          `json:"rho"`
	R2         float64          `json:"r2"`
	Type       EdgeType         `json:"type"`
	Pct        int              `json:"pct"`
	Confidence stats.Confidence `json:"confidence"`
	SampleSize int              `json:"sample_size"`
}

// PortfolioStats is the aggregate snapshot over the whole instrument set.
type PortfolioStats struct {
	AvgReturn       float64 `json:"avg_return"`
	AvgVol          float64 `json:"avg_vol"`
	Advancing       int     `json:"advancing"`
	Declining       int     `json:"declining"`
	Breadth         float64 `json:"breadth"`
	AvgAbsCorr      float64 `json:"avg_abs_corr"`
	Diversification float64 `json:"diversification"`
}

// EdgeLabel pairs a correlation edge with its chosen label anchor on the
// canvas.
type EdgeLabel struct {
	CorrelationEdge

	LX float64 `json:"lx"`
	LY float64 `json:"ly"`
}

// MarketGraphModel is the composed read-only snapshot consumed by the
// rendering collaborator. It is always replaced wholesale, never patched.
type MarketGraphModel struct {
	ID          string            `json:"id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Instruments []Instrument      `json:"instruments"`
	Edges       []CorrelationEdge `json:"edges"`
	Stats       PortfolioStats    `json:"stats"`
	Layout      []layout.Position `json:"layout"`
	Labels      []EdgeLabel       `json:"labels"`
}
