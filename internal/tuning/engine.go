package tuning

import (
	"math"
	"math/rand"
	"sort"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
)

// Trial is one scored candidate from the weekly search.
type Trial struct {
	Values    map[string]float64
	Objective float64
}

// Engine proposes the next candidate given the search space and the trials
// scored so far. A nil engine disables optimization entirely.
type Engine interface {
	Name() string
	Suggest(space []params.Spec, history []Trial) map[string]float64
}

// TPESampler is a tree-of-Parzen-style sampler: it explores uniformly for a
// startup phase, then samples near the best-scoring quartile of past trials.
// The search window per parameter is the spec's delta budget around the
// current value, so every candidate is already applyable.
type TPESampler struct {
	rng     *rand.Rand
	startup int
}

func NewTPESampler(seed int64) *TPESampler {
	return &TPESampler{
		rng:     rand.New(rand.NewSource(seed)),
		startup: 10,
	}
}

func (t *TPESampler) Name() string { return "tpe" }

func (t *TPESampler) Suggest(space []params.Spec, history []Trial) map[string]float64 {
	if len(history) < t.startup {
		return t.uniform(space)
	}

	good := bestQuartile(history)
	anchor := good[t.rng.Intn(len(good))]

	out := make(map[string]float64, len(space))
	for _, sp := range space {
		lo, hi := window(sp)
		center, ok := anchor.Values[sp.Name]
		if !ok {
			center = sp.Value
		}
		sigma := (hi - lo) / 4
		v := center + t.rng.NormFloat64()*sigma
		out[sp.Name] = math.Max(lo, math.Min(hi, v))
	}
	return out
}

func (t *TPESampler) uniform(space []params.Spec) map[string]float64 {
	out := make(map[string]float64, len(space))
	for _, sp := range space {
		lo, hi := window(sp)
		out[sp.Name] = lo + t.rng.Float64()*(hi-lo)
	}
	return out
}

// window is the applyable range for one spec: the delta budget around the
// current value, bounded by the hard limits.
func window(sp params.Spec) (lo, hi float64) {
	lo = math.Max(sp.Min, sp.Value-sp.MaxDelta)
	hi = math.Min(sp.Max, sp.Value+sp.MaxDelta)
	return lo, hi
}

func bestQuartile(history []Trial) []Trial {
	sorted := make([]Trial, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Objective < sorted[j].Objective
	})
	n := len(sorted) / 4
	if n < 1 {
		n = 1
	}
	return sorted[:n]
}
