package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"falak/internal/catalog"
)

func testNodes() []Node {
	return []Node{
		{Key: "TASI", Category: catalog.CategorySaudi, Vol: 0.12},
		{Key: "SPX", Category: catalog.CategoryUSIndex, Vol: 0.18},
		{Key: "WTI", Category: catalog.CategoryEnergy, Vol: 0.35},
		{Key: "GOLD", Category: catalog.CategoryCommodity, Vol: 0.15},
		{Key: "BTC", Category: catalog.CategoryCrypto, Vol: 0.65},
	}
}

func TestPlaceNodes(t *testing.T) {
	opts := DefaultOptions()

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, PlaceNodes(nil, opts))
	})

	t.Run("five instruments across categories keep minimum distance", func(t *testing.T) {
		positions := PlaceNodes(testNodes(), opts)
		require.Len(t, positions, 5)

		keys := make(map[string]bool)
		for _, p := range positions {
			keys[p.Key] = true
		}
		assert.Len(t, keys, 5, "positions must be distinct per instrument")

		for i := 0; i < len(positions); i++ {
			for j := i + 1; j < len(positions); j++ {
				dist := math.Hypot(positions[i].X-positions[j].X, positions[i].Y-positions[j].Y)
				assert.GreaterOrEqual(t, dist, opts.MinNodeDistance,
					"%s and %s too close", positions[i].Key, positions[j].Key)
			}
		}
	})

	t.Run("first group starts at top of circle", func(t *testing.T) {
		positions := PlaceNodes(testNodes(), opts)
		// TASI is the only Saudi instrument and the layout starts at -90
		// degrees, so it sits directly above the center.
		tasi := positions[0]
		assert.Equal(t, "TASI", tasi.Key)
		assert.InDelta(t, CanvasWidth/2, tasi.X, 1e-6)
		assert.Less(t, tasi.Y, CanvasHeight/2)
	})

	t.Run("higher volatility sits further out", func(t *testing.T) {
		positions := PlaceNodes(testNodes(), opts)
		centerX, centerY := CanvasWidth/2, CanvasHeight/2

		radius := func(key string) float64 {
			for _, p := range positions {
				if p.Key == key {
					return math.Hypot(p.X-centerX, p.Y-centerY)
				}
			}
			t.Fatalf("key %s not placed", key)
			return 0
		}

		// BTC has the maximum volatility, TASI the minimum.
		assert.Greater(t, radius("BTC"), radius("TASI"))
	})

	t.Run("uniform volatility does not divide by zero", func(t *testing.T) {
		nodes := []Node{
			{Key: "A", Category: catalog.CategoryCrypto, Vol: 0.2},
			{Key: "B", Category: catalog.CategoryCrypto, Vol: 0.2},
			{Key: "C", Category: catalog.CategoryCrypto, Vol: 0.2},
		}
		positions := PlaceNodes(nodes, opts)
		require.Len(t, positions, 3)
		for _, p := range positions {
			assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y), "position for %s is NaN", p.Key)
		}
	})

	t.Run("in-group order is preserved", func(t *testing.T) {
		nodes := []Node{
			{Key: "ETH", Category: catalog.CategoryCrypto, Vol: 0.5},
			{Key: "TASI", Category: catalog.CategorySaudi, Vol: 0.1},
			{Key: "BTC", Category: catalog.CategoryCrypto, Vol: 0.6},
		}
		positions := PlaceNodes(nodes, DefaultOptions())
		require.Len(t, positions, 3)
		// Saudi group first, then Crypto preserving ETH before BTC.
		assert.Equal(t, "TASI", positions[0].Key)
		assert.Equal(t, "ETH", positions[1].Key)
		assert.Equal(t, "BTC", positions[2].Key)
	})

	t.Run("deterministic across builds", func(t *testing.T) {
		first := PlaceNodes(testNodes(), opts)
		second := PlaceNodes(testNodes(), opts)
		assert.Equal(t, first, second)
	})
}

func TestRelaxOverlaps(t *testing.T) {
	opts := DefaultOptions()

	t.Run("coincident nodes separate", func(t *testing.T) {
		positions := []Position{
			{Key: "A", X: 700, Y: 500},
			{Key: "B", X: 700, Y: 500},
		}
		relaxOverlaps(positions, opts)
		dist := math.Hypot(positions[0].X-positions[1].X, positions[0].Y-positions[1].Y)
		assert.GreaterOrEqual(t, dist, opts.MinNodeDistance-1e-9)
	})

	t.Run("well separated nodes are untouched", func(t *testing.T) {
		positions := []Position{
			{Key: "A", X: 100, Y: 100},
			{Key: "B", X: 900, Y: 900},
		}
		before := make([]Position, len(positions))
		copy(before, positions)
		relaxOverlaps(positions, opts)
		assert.Equal(t, before, positions)
	})
}
