// Package layout computes the 2-D constellation layout for the market
// graph: instrument nodes on a category-grouped circle with volatility
// driven radii, pairwise overlap relaxation, and collision-avoiding edge
// label anchors. All computation is pure and deterministic.
package layout

import (
	"math"
	"sort"

	"falak/internal/catalog"
)

// Canvas dimensions are virtual units; the renderer scales them to the
// viewport.
const (
	CanvasWidth  = 1500.0
	CanvasHeight = 1100.0

	// maxRadiusFactor bounds the node ring inside the canvas.
	maxRadiusFactor = 0.78

	// Node radius = maxRadius * (radiusBase + normVol*radiusVolSpan), so
	// more volatile instruments sit slightly further out.
	radiusBase    = 0.84
	radiusVolSpan = 0.06
)

// Options carries the tunable layout constants. The defaults match the
// dashboard's rendering contract; minimum distance and pass count are
// tunables, not hard guarantees (the relaxation is a fixed-budget
// approximate solver).
type Options struct {
	MinNodeDistance float64
	RelaxPasses     int
	CategoryGapDeg  float64
	HubRadius       float64
}

// DefaultOptions returns the production layout constants.
func DefaultOptions() Options {
	return Options{
		MinNodeDistance: 48,
		RelaxPasses:     4,
		CategoryGapDeg:  12,
		HubRadius:       120,
	}
}

// Node is the layout input for one instrument.
type Node struct {
	Key      string
	Category catalog.Category
	Vol      float64
}

// Position is a placed node on the virtual canvas.
type Position struct {
	Key string  `json:"key"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
}

// PlaceNodes places nodes on a circle grouped by category (clockwise from
// the top, in the fixed category order) with an angular gap between
// populated groups, offsets each node's radius by normalized volatility,
// then runs the fixed-pass pairwise repulsion to separate overlapping
// nodes.
func PlaceNodes(nodes []Node, opts Options) []Position {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	centerX, centerY := CanvasWidth/2, CanvasHeight/2
	maxRadius := maxRadiusFactor * math.Min(centerX, centerY)

	// Stable sort by category rank keeps each node's original relative
	// order within its group.
	ordered := make([]Node, n)
	copy(ordered, nodes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Category.Rank() < ordered[j].Category.Rank()
	})

	groups := 0
	for i := 0; i < n; i++ {
		if i == 0 || ordered[i].Category != ordered[i-1].Category {
			groups++
		}
	}

	totalGap := 0.0
	if groups > 1 {
		totalGap = opts.CategoryGapDeg * float64(groups)
	}
	perNode := (360 - totalGap) / float64(n)

	minVol, maxVol := ordered[0].Vol, ordered[0].Vol
	for _, node := range ordered[1:] {
		minVol = math.Min(minVol, node.Vol)
		maxVol = math.Max(maxVol, node.Vol)
	}
	volSpan := maxVol - minVol
	if volSpan == 0 {
		volSpan = 1
	}

	positions := make([]Position, n)
	angle := -90.0
	for i, node := range ordered {
		if i > 0 && node.Category != ordered[i-1].Category {
			angle += opts.CategoryGapDeg
		}

		normVol := (node.Vol - minVol) / volSpan
		radius := maxRadius * (radiusBase + normVol*radiusVolSpan)
		rad := angle * math.Pi / 180

		positions[i] = Position{
			Key: node.Key,
			X:   centerX + radius*math.Cos(rad),
			Y:   centerY + radius*math.Sin(rad),
		}
		angle += perNode
	}

	relaxOverlaps(positions, opts)

	return positions
}

// relaxOverlaps runs a fixed number of pairwise repulsion passes. Each pair
// closer than the minimum distance is pushed apart along the connecting
// vector, half the deficit each. Residual overlaps may remain in dense
// configurations; that is an accepted tradeoff for speed and determinism.
func relaxOverlaps(positions []Position, opts Options) {
	for pass := 0; pass < opts.RelaxPasses; pass++ {
		for i := 0; i < len(positions); i++ {
			for j := i + 1; j < len(positions); j++ {
				dx := positions[j].X - positions[i].X
				dy := positions[j].Y - positions[i].Y
				dist := math.Hypot(dx, dy)
				if dist >= opts.MinNodeDistance {
					continue
				}

				// Coincident nodes have no connecting vector; separate
				// them horizontally.
				if dist == 0 {
					dx, dy, dist = 1, 0, 1
				}

				push := (opts.MinNodeDistance - dist) / 2
				ux, uy := dx/dist, dy/dist
				positions[i].X -= ux * push
				positions[i].Y -= uy * push
				positions[j].X += ux * push
				positions[j].Y += uy * push
			}
		}
	}
}
