package catalog

import "context"

// Source supplies the instrument universe for a graph build. The live
// market-data collaborator implements this; StaticSource and FileSource
// cover the fallback and file-driven cases.
type Source interface {
	Instruments(ctx context.Context) ([]RawInstrument, error)
}

// StaticSource serves a fixed slice of instruments.
type StaticSource struct {
	instruments []RawInstrument
}

// NewStaticSource creates a source over the given instruments. The slice is
// copied so later mutation by the caller cannot leak into builds.
func NewStaticSource(instruments []RawInstrument) *StaticSource {
	copied := make([]RawInstrument, len(instruments))
	copy(copied, instruments)
	return &StaticSource{instruments: copied}
}

// Instruments implements Source.
func (s *StaticSource) Instruments(_ context.Context) ([]RawInstrument, error) {
	out := make([]RawInstrument, len(s.instruments))
	copy(out, s.instruments)
	return out, nil
}

// Fallback returns the built-in instrument universe used when no live data
// is available. Sparklines are the last seven daily closes captured with
// the quotes.
func Fallback() []RawInstrument {
	return []RawInstrument{
		{
			Key: "TASI", NameAR: "المؤشر العام السعودي", NameEN: "Tadawul All Share",
			Value: 12105.4, ChangePct: 0.42, Category: CategorySaudi,
			Sparkline: []float64{11980.2, 12010.7, 11965.3, 12044.9, 12071.5, 12054.8, 12105.4},
		},
		{
			Key: "2222", NameAR: "أرامكو السعودية", NameEN: "Saudi Aramco",
			Value: 27.85, ChangePct: -0.36, Category: CategorySaudi,
			Sparkline: []float64{28.10, 28.05, 27.90, 28.00, 27.95, 27.95, 27.85},
		},
		{
			Key: "2010", NameAR: "سابك", NameEN: "SABIC",
			Value: 72.40, ChangePct: 0.84, Category: CategorySaudi,
			Sparkline: []float64{71.30, 71.60, 71.10, 71.90, 72.20, 71.80, 72.40},
		},
		{
			Key: "SPX", NameAR: "إس آند بي 500", NameEN: "S&P 500",
			Value: 5648.2, ChangePct: 0.55, Category: CategoryUSIndex,
			Sparkline: []float64{5570.1, 5592.3, 5561.8, 5610.4, 5633.9, 5617.2, 5648.2},
		},
		{
			Key: "IXIC", NameAR: "ناسداك المجمع", NameEN: "Nasdaq Composite",
			Value: 17754.8, ChangePct: 0.71, Category: CategoryUSIndex,
			Sparkline: []float64{17420.6, 17510.3, 17388.2, 17566.1, 17671.0, 17602.4, 17754.8},
		},
		{
			Key: "WTI", NameAR: "النفط الأمريكي", NameEN: "WTI Crude",
			Value: 76.32, ChangePct: -1.12, Category: CategoryEnergy,
			Sparkline: []float64{78.40, 77.95, 78.10, 77.20, 76.85, 77.18, 76.32},
		},
		{
			Key: "BRENT", NameAR: "خام برنت", NameEN: "Brent Crude",
			Value: 79.85, ChangePct: -0.94, Category: CategoryEnergy,
			Sparkline: []float64{81.70, 81.30, 81.55, 80.60, 80.25, 80.61, 79.85},
		},
		{
			Key: "GOLD", NameAR: "الذهب", NameEN: "Gold",
			Value: 2502.6, ChangePct: 0.28, Category: CategoryCommodity,
			Sparkline: []float64{2480.3, 2488.1, 2475.9, 2493.4, 2499.0, 2495.6, 2502.6},
		},
		{
			Key: "SILVER", NameAR: "الفضة", NameEN: "Silver",
			Value: 29.14, ChangePct: 0.62, Category: CategoryCommodity,
			Sparkline: []float64{28.60, 28.72, 28.51, 28.88, 29.02, 28.96, 29.14},
		},
		{
			Key: "BTC", NameAR: "بيتكوين", NameEN: "Bitcoin",
			Value: 59320.0, ChangePct: 2.15, Category: CategoryCrypto,
			Sparkline: []float64{57100.0, 57980.0, 56850.0, 58240.0, 58930.0, 58070.0, 59320.0},
		},
		{
			Key: "ETH", NameAR: "إيثريوم", NameEN: "Ethereum",
			Value: 2518.4, ChangePct: 1.73, Category: CategoryCrypto,
			Sparkline: []float64{2440.7, 2471.2, 2425.5, 2488.9, 2507.3, 2476.0, 2518.4},
		},
	}
}

// FallbackSource returns a StaticSource over the built-in universe.
func FallbackSource() *StaticSource {
	return NewStaticSource(Fallback())
}
