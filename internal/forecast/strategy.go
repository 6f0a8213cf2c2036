package forecast

import (
	"math"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
)

// Strategy derives the two category-specific forecast inputs: a per-weekday
// demand profile and a safety-stock target in days of demand. Every category
// variant implements this and nothing else; the predictor owns the rest of
// the order formula.
type Strategy interface {
	Name() string
	Coefficients(history []domain.SalesRecord, set *params.Set) (weekday [7]float64, safetyDays float64)
}

// Registry dispatches category codes to strategy variants through a lookup
// table. Unknown codes fall back to the general strategy.
type Registry struct {
	byCategory map[string]Strategy
	fallback   Strategy
}

// NewRegistry wires the default category table. Category codes follow the
// store master's mid-category coding.
func NewRegistry() *Registry {
	r := &Registry{
		byCategory: make(map[string]Strategy),
		fallback:   &GeneralStrategy{},
	}
	for code, s := range map[string]Strategy{
		"010": &LunchboxStrategy{},
		"011": &RiceBallStrategy{},
		"012": &SandwichStrategy{},
		"013": &FreshBakeryStrategy{},
		"014": &ReadyMealStrategy{},
		"020": &DairyStrategy{},
		"030": &BeverageStrategy{},
		"031": &AlcoholStrategy{},
		"040": &InstantNoodleStrategy{},
		"041": &SnackStrategy{},
		"050": &FrozenStrategy{},
		"051": &IceCreamStrategy{},
		"060": &HouseholdStrategy{},
		"070": &CigaretteStrategy{},
		"080": &SeasonalStrategy{},
		"090": &PromotionStrategy{},
	} {
		r.byCategory[code] = s
	}
	return r
}

// ForCategory returns the strategy for a category code.
func (r *Registry) ForCategory(code string) Strategy {
	if s, ok := r.byCategory[code]; ok {
		return s
	}
	return r.fallback
}

// Register replaces or adds a category binding. Used by tests and by store
// level overrides.
func (r *Registry) Register(code string, s Strategy) {
	r.byCategory[code] = s
}

// nonStockoutMean averages demand over days the item was actually sellable.
func nonStockoutMean(history []domain.SalesRecord) float64 {
	var sum float64
	var n int
	for _, rec := range history {
		if rec.WasStockout {
			continue
		}
		sum += rec.Qty
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// weekdayProfile computes per-weekday demand relative to the overall mean,
// damped toward 1.0 by the given factor (0 = flat, 1 = raw ratios). Stockout
// days are replaced with the non-stockout mean so a sold-out weekday does not
// read as a weak one.
func weekdayProfile(history []domain.SalesRecord, damp float64) [7]float64 {
	coefs := [7]float64{1, 1, 1, 1, 1, 1, 1}
	if len(history) == 0 {
		return coefs
	}

	fill := nonStockoutMean(history)
	var sums [7]float64
	var counts [7]int
	var total float64
	var n int
	for _, rec := range history {
		qty := rec.Qty
		if rec.WasStockout {
			qty = fill
		}
		wd := int(rec.Date.Weekday())
		sums[wd] += qty
		counts[wd]++
		total += qty
		n++
	}
	if n == 0 || total == 0 {
		return coefs
	}
	mean := total / float64(n)

	for wd := 0; wd < 7; wd++ {
		if counts[wd] == 0 || mean == 0 {
			continue
		}
		ratio := (sums[wd] / float64(counts[wd])) / mean
		coefs[wd] = 1 + (ratio-1)*damp
		if coefs[wd] < 0.1 {
			coefs[wd] = 0.1
		}
	}
	return coefs
}

// recentLift measures demand over the last `recent` records against the rest
// of the window. Returns 1.0 when the window is too small to split.
func recentLift(history []domain.SalesRecord, recent int) float64 {
	if len(history) <= recent {
		return 1.0
	}
	older := history[:len(history)-recent]
	latest := history[len(history)-recent:]
	oldMean := nonStockoutMean(older)
	newMean := nonStockoutMean(latest)
	if oldMean <= 0 {
		return 1.0
	}
	lift := newMean / oldMean
	return math.Max(0.5, math.Min(2.0, lift))
}
