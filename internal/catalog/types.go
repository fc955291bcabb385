// Package catalog defines the instrument universe the correlation graph is
// built over: static fallback metadata, category taxonomy and the injectable
// sources that supply raw instruments to the graph builder.
package catalog

// Category classifies an instrument into one of the fixed market groups
// shown on the constellation diagram.
type Category string

const (
	CategorySaudi     Category = "Saudi"
	CategoryUSIndex   Category = "US Index"
	CategoryEnergy    Category = "Energy"
	CategoryCommodity Category = "Commodity"
	CategoryCrypto    Category = "Crypto"
)

// LayoutOrder is the clockwise-from-top group order used by the layout
// engine. The rank table below must stay in sync with it.
var LayoutOrder = []Category{
	CategorySaudi,
	CategoryUSIndex,
	CategoryEnergy,
	CategoryCommodity,
	CategoryCrypto,
}

var layoutRank = map[Category]int{
	CategorySaudi:     0,
	CategoryUSIndex:   1,
	CategoryEnergy:    2,
	CategoryCommodity: 3,
	CategoryCrypto:    4,
}

// Rank returns the layout sort rank of the category. Unknown categories
// sort after all known ones.
func (c Category) Rank() int {
	if r, ok := layoutRank[c]; ok {
		return r
	}
	return len(layoutRank)
}

// IsValid reports whether the category is one of the fixed closed set.
func (c Category) IsValid() bool {
	_, ok := layoutRank[c]
	return ok
}

// RawInstrument is the immutable input record for one instrument: identity,
// display names, last observed quote and a short embedded price history
// (oldest to newest).
type RawInstrument struct {
	Key       string    `json:"key" yaml:"key"`
	NameAR    string    `json:"name_ar" yaml:"name_ar"`
	NameEN    string    `json:"name_en" yaml:"name_en"`
	Value     float64   `json:"value" yaml:"value"`
	ChangePct float64   `json:"change_pct" yaml:"change_pct"`
	Category  Category  `json:"category" yaml:"category"`
	Sparkline []float64 `json:"sparkline" yaml:"sparkline"`
}

// IsValid reports whether the record carries the minimum identity required
// to participate in a graph build.
func (r RawInstrument) IsValid() bool {
	return r.Key != "" && r.Category.IsValid()
}
