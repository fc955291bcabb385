package layout

import "math"

// Edge label boxes are treated as fixed-size rectangles centered on the
// anchor when scoring collisions.
const (
	labelBoxWidth  = 78.0
	labelBoxHeight = 34.0

	// Perpendicular nudge step and the penalty per unit of nudge applied
	// when scoring a candidate.
	nudgeStep        = 26.0
	nudgePenaltyRate = 1.5

	// Extra clearance beyond the hub radius that label anchors must keep
	// from the canvas center.
	hubClearance = 30.0
)

// labelFractions are the candidate anchor positions along an edge, as
// fractions of the segment. The list is cycled with an offset per edge so
// edges with similar geometry start from different candidates.
var labelFractions = [10]float64{0.50, 0.44, 0.56, 0.38, 0.62, 0.32, 0.68, 0.26, 0.74, 0.20}

// nudgeOffsets are the perpendicular displacements tried for each
// candidate, in preference order.
var nudgeOffsets = [5]float64{0, nudgeStep, -nudgeStep, 2 * nudgeStep, -2 * nudgeStep}

// Pair names the two endpoints of an edge to be labelled. Pairs must be
// supplied strongest-first: labels are placed in order and earlier labels
// occupy space that later ones must avoid, so stronger edges get the
// cleanest slots.
type Pair struct {
	From string
	To   string
}

// Anchor is a chosen label position.
type Anchor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlaceLabels chooses a label anchor for every pair. For each edge it
// samples candidates along the segment, pushes any candidate out of the
// center hub, tries perpendicular nudges, and keeps the candidate with the
// lowest collision score against all previously placed labels. Missing
// endpoint positions resolve to the segment midpoint of whatever is known
// (degenerate but defined).
func PlaceLabels(pairs []Pair, positions []Position, opts Options) []Anchor {
	if len(pairs) == 0 {
		return nil
	}

	byKey := make(map[string]Position, len(positions))
	for _, p := range positions {
		byKey[p.Key] = p
	}

	centerX, centerY := CanvasWidth/2, CanvasHeight/2
	anchors := make([]Anchor, len(pairs))
	placed := make([]Anchor, 0, len(pairs))

	for i, pair := range pairs {
		from := byKey[pair.From]
		to := byKey[pair.To]

		// Unit perpendicular of the edge direction, for nudging.
		ex, ey := to.X-from.X, to.Y-from.Y
		length := math.Hypot(ex, ey)
		px, py := 0.0, 1.0
		if length > 0 {
			px, py = -ey/length, ex/length
		}

		best := Anchor{X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2}
		bestScore := math.Inf(1)

	candidates:
		for k := range labelFractions {
			t := labelFractions[(k+i)%len(labelFractions)]
			cx := from.X + (to.X-from.X)*t
			cy := from.Y + (to.Y-from.Y)*t
			cx, cy = clearHub(cx, cy, centerX, centerY, opts.HubRadius)

			for _, nudge := range nudgeOffsets {
				candidate := Anchor{X: cx + px*nudge, Y: cy + py*nudge}

				overlap := 0.0
				for _, prev := range placed {
					overlap += boxOverlap(candidate, prev)
				}

				score := overlap + math.Abs(nudge)*nudgePenaltyRate
				if score < bestScore {
					bestScore = score
					best = candidate
				}

				if overlap == 0 && math.Abs(nudge) <= nudgeStep {
					break candidates
				}
			}
		}

		anchors[i] = best
		placed = append(placed, best)
	}

	return anchors
}

// clearHub pushes a point radially outward until it clears the center hub
// plus clearance. A point exactly at the center is pushed straight right.
func clearHub(x, y, centerX, centerY, hubRadius float64) (float64, float64) {
	minDist := hubRadius + hubClearance
	dx, dy := x-centerX, y-centerY
	dist := math.Hypot(dx, dy)
	if dist >= minDist {
		return x, y
	}
	if dist == 0 {
		return centerX + minDist, centerY
	}
	scale := minDist / dist
	return centerX + dx*scale, centerY + dy*scale
}

// boxOverlap returns the intersection area of two label boxes centered on
// the given anchors.
func boxOverlap(a, b Anchor) float64 {
	overlapX := labelBoxWidth - math.Abs(a.X-b.X)
	overlapY := labelBoxHeight - math.Abs(a.Y-b.Y)
	if overlapX <= 0 || overlapY <= 0 {
		return 0
	}
	return overlapX * overlapY
}
