package forecast

import "github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"

// MarginTier buckets an item by gross margin.
type MarginTier int

const (
	MarginLow MarginTier = iota
	MarginMid
	MarginHigh
)

// TurnoverTier buckets an item by how fast one order unit sells through.
type TurnoverTier int

const (
	TurnoverFast TurnoverTier = iota
	TurnoverNormal
	TurnoverSlow
)

// SkipBias is the cost adjuster's vote on a borderline skip decision.
type SkipBias int

const (
	BiasSoftenSkip SkipBias = -1 // lean toward ordering anyway
	BiasNeutral    SkipBias = 0
	BiasHardenSkip SkipBias = 1 // lean toward skipping
)

// CostAdjusterConfig holds the 2-D multiplier grid and the tier cut points.
// It is configuration so the grid can be replaced without touching the
// predictor.
type CostAdjusterConfig struct {
	MarginMidCut    float64
	MarginHighCut   float64
	TurnoverFastCut float64 // days; at or below is fast
	TurnoverSlowCut float64 // days; above is slow
	Grid            [3][3]float64
}

// DefaultCostAdjusterConfig returns the production grid: high-margin
// fast-movers get pushed, low-margin slow-movers get pulled.
func DefaultCostAdjusterConfig() CostAdjusterConfig {
	return CostAdjusterConfig{
		MarginMidCut:    0.15,
		MarginHighCut:   0.30,
		TurnoverFastCut: 7,
		TurnoverSlowCut: 21,
		Grid: [3][3]float64{
			// fast, normal, slow turnover
			{1.00, 0.90, 0.80}, // low margin
			{1.05, 1.00, 0.90}, // mid margin
			{1.20, 1.10, 0.95}, // high margin
		},
	}
}

// CostAdjuster nudges forecast quantities by margin and turnover tier and
// can soften or harden a borderline skip.
type CostAdjuster struct {
	cfg CostAdjusterConfig
}

func NewCostAdjuster(cfg CostAdjusterConfig) *CostAdjuster {
	return &CostAdjuster{cfg: cfg}
}

func (a *CostAdjuster) marginTier(item domain.Item) MarginTier {
	switch {
	case item.Margin >= a.cfg.MarginHighCut:
		return MarginHigh
	case item.Margin >= a.cfg.MarginMidCut:
		return MarginMid
	default:
		return MarginLow
	}
}

func (a *CostAdjuster) turnoverTier(item domain.Item) TurnoverTier {
	switch {
	case item.TurnoverDays <= 0:
		return TurnoverNormal
	case item.TurnoverDays <= a.cfg.TurnoverFastCut:
		return TurnoverFast
	case item.TurnoverDays > a.cfg.TurnoverSlowCut:
		return TurnoverSlow
	default:
		return TurnoverNormal
	}
}

// Multiplier looks up the forecast multiplier for an item.
func (a *CostAdjuster) Multiplier(item domain.Item) float64 {
	return a.cfg.Grid[a.marginTier(item)][a.turnoverTier(item)]
}

// Bias reports how the item's economics should tilt a borderline skip:
// high-margin fast-movers are worth ordering on thin evidence, low-margin
// slow-movers are not.
func (a *CostAdjuster) Bias(item domain.Item) SkipBias {
	m, t := a.marginTier(item), a.turnoverTier(item)
	if m == MarginHigh && t == TurnoverFast {
		return BiasSoftenSkip
	}
	if m == MarginLow && t == TurnoverSlow {
		return BiasHardenSkip
	}
	return BiasNeutral
}
