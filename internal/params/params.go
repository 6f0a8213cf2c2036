package params

import (
	"fmt"
	"math"
	"sort"
)

// Spec is one tunable scalar with its bounds and per-step change budget.
type Spec struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Default  float64 `json:"default"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	MaxDelta float64 `json:"max_delta"`
	Locked   bool    `json:"locked"`
}

// Clamp restricts a proposed value to [Value-MaxDelta, Value+MaxDelta]
// intersected with [Min, Max].
func (s *Spec) Clamp(proposed float64) float64 {
	lo := math.Max(s.Min, s.Value-s.MaxDelta)
	hi := math.Min(s.Max, s.Value+s.MaxDelta)
	if proposed < lo {
		return lo
	}
	if proposed > hi {
		return hi
	}
	return proposed
}

// Well-known parameter names. The forecast, evaluation and tuning packages
// address the set through these.
const (
	WeightRecent  = "weight_recent"
	WeightWeekday = "weight_weekday"
	WeightTrend   = "weight_trend"

	UrgentExposureDays     = "urgent_exposure_days"
	SufficientExposureDays = "sufficient_exposure_days"
	ForceMinDailyAvg       = "force_min_daily_avg"
	StockoutRateThreshold  = "stockout_rate_threshold"
	PassMinOrderQty        = "pass_min_order_qty"
	SafetyCoefficient      = "safety_coefficient"
	CalibrationRate        = "calibration_rate"

	SafetyDaysFresh    = "safety_days_fresh"
	SafetyDaysStandard = "safety_days_standard"
	SafetyDaysLongLife = "safety_days_long_life"
)

// Set owns every Spec for one store. All mutation goes through Apply so the
// bound and delta invariants always hold; weight_trend is re-derived after
// every weight change and never tuned directly.
type Set struct {
	specs map[string]*Spec
}

// Defaults builds the full parameter set at configuration-load values.
func Defaults() *Set {
	s := &Set{specs: make(map[string]*Spec)}
	for _, spec := range []Spec{
		{Name: WeightRecent, Value: 0.5, Default: 0.5, Min: 0.1, Max: 0.8, MaxDelta: 0.05},
		{Name: WeightWeekday, Value: 0.3, Default: 0.3, Min: 0.1, Max: 0.8, MaxDelta: 0.05},
		// Derived from the other two weights; locked out of every search.
		{Name: WeightTrend, Value: 0.2, Default: 0.2, Min: 0.0, Max: 0.8, MaxDelta: 0.1, Locked: true},
		{Name: UrgentExposureDays, Value: 1.0, Default: 1.0, Min: 0.5, Max: 2.0, MaxDelta: 0.25},
		{Name: SufficientExposureDays, Value: 3.0, Default: 3.0, Min: 2.0, Max: 7.0, MaxDelta: 0.5},
		{Name: ForceMinDailyAvg, Value: 0.5, Default: 0.5, Min: 0.1, Max: 2.0, MaxDelta: 0.2},
		{Name: StockoutRateThreshold, Value: 0.15, Default: 0.15, Min: 0.05, Max: 0.4, MaxDelta: 0.05},
		{Name: PassMinOrderQty, Value: 1, Default: 1, Min: 1, Max: 3, MaxDelta: 1, Locked: true},
		{Name: SafetyCoefficient, Value: 1.0, Default: 1.0, Min: 0.5, Max: 2.0, MaxDelta: 0.2},
		{Name: CalibrationRate, Value: 0.1, Default: 0.1, Min: 0.01, Max: 0.3, MaxDelta: 0.05, Locked: true},
		{Name: SafetyDaysFresh, Value: 1.0, Default: 1.0, Min: 0.5, Max: 2.0, MaxDelta: 0.5},
		{Name: SafetyDaysStandard, Value: 2.0, Default: 2.0, Min: 1.0, Max: 4.0, MaxDelta: 0.5},
		{Name: SafetyDaysLongLife, Value: 3.0, Default: 3.0, Min: 1.0, Max: 7.0, MaxDelta: 1.0},
	} {
		sp := spec
		s.specs[sp.Name] = &sp
	}
	return s
}

// Get returns the current value, or 0 for an unknown name.
func (s *Set) Get(name string) float64 {
	if sp, ok := s.specs[name]; ok {
		return sp.Value
	}
	return 0
}

// Spec returns the spec for name, or nil.
func (s *Set) Spec(name string) *Spec {
	return s.specs[name]
}

// Names returns all parameter names in stable order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.specs))
	for n := range s.specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Unlocked returns the specs eligible for automated search, excluding the
// derived trend weight.
func (s *Set) Unlocked() []*Spec {
	out := make([]*Spec, 0, len(s.specs))
	for _, n := range s.Names() {
		sp := s.specs[n]
		if !sp.Locked {
			out = append(out, sp)
		}
	}
	return out
}

// Apply proposes a new value for name, clamps it to the spec's bounds and
// delta budget, stores it, and returns the value actually applied. Unknown
// and locked names are rejected.
func (s *Set) Apply(name string, proposed float64) (float64, error) {
	sp, ok := s.specs[name]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q", name)
	}
	if sp.Locked {
		return sp.Value, fmt.Errorf("parameter %q is locked", name)
	}
	sp.Value = sp.Clamp(proposed)
	if name == WeightRecent || name == WeightWeekday {
		s.deriveTrendWeight()
	}
	return sp.Value, nil
}

// deriveTrendWeight keeps the weight group summing to one. The formula is
// fixed: weight_trend = 1 - weight_recent - weight_weekday. When the pair
// alone would push the derived weight outside its own bounds, the pair is
// scaled back proportionally first, so independent clamped moves on recent
// and weekday can never drive weight_trend negative.
func (s *Set) deriveTrendWeight() {
	r := s.specs[WeightRecent]
	w := s.specs[WeightWeekday]
	t := s.specs[WeightTrend]

	if limit := 1 - t.Min; r.Value+w.Value > limit {
		scale := limit / (r.Value + w.Value)
		r.Value = math.Max(r.Min, r.Value*scale)
		w.Value = math.Max(w.Min, w.Value*scale)
	}
	t.Value = math.Min(t.Max, math.Max(t.Min, 1-r.Value-w.Value))
}

// Weights returns the recent/weekday/trend blend weights.
func (s *Set) Weights() (recent, weekday, trend float64) {
	return s.specs[WeightRecent].Value, s.specs[WeightWeekday].Value, s.specs[WeightTrend].Value
}

// SetWeights applies a proposed recent/weekday pair with clamping, then
// re-derives the trend weight. Used by both tuning loops after their own
// normalization.
func (s *Set) SetWeights(recent, weekday float64) {
	sp := s.specs[WeightRecent]
	sp.Value = sp.Clamp(recent)
	sp = s.specs[WeightWeekday]
	sp.Value = sp.Clamp(weekday)
	s.deriveTrendWeight()
}

// Snapshot captures every current value.
func (s *Set) Snapshot() map[string]float64 {
	snap := make(map[string]float64, len(s.specs))
	for n, sp := range s.specs {
		snap[n] = sp.Value
	}
	return snap
}

// Restore overwrites current values from a snapshot, ignoring unknown names.
// Values are bounded to [Min,Max] but not delta-limited: a restore is a
// rollback to a previously valid state, not a tuning step.
func (s *Set) Restore(snap map[string]float64) {
	for n, v := range snap {
		sp, ok := s.specs[n]
		if !ok {
			continue
		}
		sp.Value = math.Max(sp.Min, math.Min(sp.Max, v))
	}
	s.deriveTrendWeight()
}

// Clone returns a deep copy.
func (s *Set) Clone() *Set {
	c := &Set{specs: make(map[string]*Spec, len(s.specs))}
	for n, sp := range s.specs {
		cp := *sp
		c.specs[n] = &cp
	}
	return c
}

// Specs returns the specs in stable order, for persistence.
func (s *Set) Specs() []Spec {
	out := make([]Spec, 0, len(s.specs))
	for _, n := range s.Names() {
		out = append(out, *s.specs[n])
	}
	return out
}

// FromSpecs rebuilds a set from persisted specs, backfilling any parameter
// added since the snapshot was written with its default spec.
func FromSpecs(specs []Spec) *Set {
	s := Defaults()
	for _, sp := range specs {
		cur, ok := s.specs[sp.Name]
		if !ok {
			cp := sp
			s.specs[sp.Name] = &cp
			continue
		}
		*cur = sp
	}
	s.deriveTrendWeight()
	return s
}
