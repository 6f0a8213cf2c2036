package tuning

import (
	"math"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
)

// Objective term weights. Stockouts cost a sale outright while waste only
// costs margin, so stockouts weigh heavier; the accuracy error counts every
// decision that missed the realized demand band.
const (
	objectiveAccuracyWeight = 1.0
	objectiveWasteWeight    = 1.0
	objectiveStockoutWeight = 1.5
	objectiveOverWeight     = 0.5
)

// Sensitivity holds the first-order effect of raising one parameter by its
// full range, expressed as the expected change in waste and stockout rates.
type Sensitivity struct {
	Waste    float64
	Stockout float64
}

// Surrogate is a linear response model over the parameter space. The weekly
// optimizer scores trial candidates against it instead of replaying history,
// which keeps a full search under a second.
type Surrogate struct {
	coeffs map[string]Sensitivity
}

// NewSurrogate builds the model with the default coefficient table. Signs
// follow the parameter semantics: anything that orders more inventory trades
// stockout for waste, anything that orders less trades the other way.
func NewSurrogate() *Surrogate {
	return &Surrogate{coeffs: map[string]Sensitivity{
		params.WeightRecent:           {Waste: 0.02, Stockout: -0.02},
		params.WeightWeekday:          {Waste: -0.01, Stockout: 0.01},
		params.UrgentExposureDays:     {Waste: 0.04, Stockout: -0.05},
		params.SufficientExposureDays: {Waste: 0.05, Stockout: -0.04},
		params.ForceMinDailyAvg:       {Waste: -0.03, Stockout: 0.04},
		params.StockoutRateThreshold:  {Waste: -0.02, Stockout: 0.03},
		params.SafetyCoefficient:      {Waste: 0.08, Stockout: -0.07},
		params.SafetyDaysFresh:        {Waste: 0.06, Stockout: -0.03},
		params.SafetyDaysStandard:     {Waste: 0.04, Stockout: -0.03},
		params.SafetyDaysLongLife:     {Waste: 0.02, Stockout: -0.02},
	}}
}

// Score projects the objective for a candidate assignment relative to the
// measured base rates. Lower is better.
func (m *Surrogate) Score(base *domain.AccuracyStats, current map[string]float64, candidate map[string]float64, space []params.Spec) float64 {
	waste := base.WasteRate
	stockout := base.StockoutRate

	for _, sp := range space {
		c, ok := m.coeffs[sp.Name]
		if !ok {
			continue
		}
		span := sp.Max - sp.Min
		if span <= 0 {
			continue
		}
		frac := (candidate[sp.Name] - current[sp.Name]) / span
		waste += c.Waste * frac
		stockout += c.Stockout * frac
	}

	waste = math.Max(waste, 0)
	stockout = math.Max(stockout, 0)

	return objectiveAccuracyWeight*accuracyError(base) +
		objectiveWasteWeight*waste +
		objectiveStockoutWeight*stockout +
		objectiveOverWeight*overOrderRate(base)
}

// Objective scores the measured rates themselves, for the base point.
func (m *Surrogate) Objective(stats *domain.AccuracyStats) float64 {
	return objectiveAccuracyWeight*accuracyError(stats) +
		objectiveWasteWeight*stats.WasteRate +
		objectiveStockoutWeight*stats.StockoutRate +
		objectiveOverWeight*overOrderRate(stats)
}

// accuracyError is the share of decisions outside the realized demand band.
func accuracyError(stats *domain.AccuracyStats) float64 {
	if stats.Total <= 0 {
		return 0
	}
	return 1 - float64(stats.Correct)/float64(stats.Total)
}

func overOrderRate(stats *domain.AccuracyStats) float64 {
	if stats.Total <= 0 {
		return 0
	}
	return float64(stats.OverOrder) / float64(stats.Total)
}
