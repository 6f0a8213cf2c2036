package tuning

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/repository"
	"github.com/leesangmin4533/bgf-dashboard-sub000/pkg/logger"
)

// OptimizerConfig carries the weekly search knobs.
type OptimizerConfig struct {
	Trials      int
	SampleFloor int
	WindowDays  int
	Damping     float64
}

func (c *OptimizerConfig) fill() {
	if c.Trials <= 0 {
		c.Trials = 30
	}
	if c.SampleFloor <= 0 {
		c.SampleFloor = 100
	}
	if c.WindowDays <= 0 {
		c.WindowDays = 7
	}
	if c.Damping <= 0 || c.Damping > 1 {
		c.Damping = 0.5
	}
}

// Optimizer is the weekly parameter search. It scores candidates against a
// linear surrogate of last week's error rates, then applies the winner at
// half strength so a noisy week cannot yank the parameters around. Every
// run, including the degenerate ones, leaves an audit record.
type Optimizer struct {
	engine    Engine
	surrogate *Surrogate
	outcomes  repository.OutcomeRepository
	optLog    repository.OptimizationLog
	store     *params.Store
	cfg       OptimizerConfig
	log       zerolog.Logger
}

func NewOptimizer(engine Engine, outcomes repository.OutcomeRepository, optLog repository.OptimizationLog, store *params.Store, cfg OptimizerConfig) *Optimizer {
	cfg.fill()
	return &Optimizer{
		engine:    engine,
		surrogate: NewSurrogate(),
		outcomes:  outcomes,
		optLog:    optLog,
		store:     store,
		cfg:       cfg,
		log:       logger.Component("optimizer"),
	}
}

// Optimize runs one weekly pass, mutating set in place when a better
// candidate is found. Degenerate outcomes (no engine, thin data) return a
// record with the matching status and leave the parameters untouched.
func (o *Optimizer) Optimize(ctx context.Context, set *params.Set) (*domain.OptimizationResult, error) {
	rec := &domain.OptimizationResult{
		ID:           uuid.NewString(),
		RunAt:        time.Now(),
		WindowDays:   o.cfg.WindowDays,
		ParamsBefore: set.Snapshot(),
		ParamsAfter:  set.Snapshot(),
		Deltas:       map[string]float64{},
		ErrorTerms:   map[string]float64{},
	}

	if o.engine == nil {
		rec.Status = domain.StatusUnavailable
		rec.Reason = "no search engine configured"
		return o.finish(ctx, rec)
	}
	rec.Algorithm = o.engine.Name()

	stats, err := o.outcomes.GetAccuracyStats(ctx, o.cfg.WindowDays)
	if err != nil {
		return nil, err
	}
	rec.ErrorTerms["accuracy_error"] = accuracyError(stats)
	rec.ErrorTerms["waste_rate"] = stats.WasteRate
	rec.ErrorTerms["stockout_rate"] = stats.StockoutRate
	rec.ErrorTerms["over_order_rate"] = overOrderRate(stats)

	if stats.Total < o.cfg.SampleFloor {
		rec.Status = domain.StatusInsufficientData
		rec.Reason = "sample count below optimization floor"
		o.log.Info().
			Int("samples", stats.Total).
			Int("floor", o.cfg.SampleFloor).
			Msg("too few samples, skipping optimization")
		return o.finish(ctx, rec)
	}

	space := spaceOf(set)
	current := set.Snapshot()
	base := o.surrogate.Objective(stats)
	rec.BaseObjective = base

	var history []Trial
	best := Trial{Values: current, Objective: base}
	for i := 0; i < o.cfg.Trials; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		candidate := o.engine.Suggest(space, history)
		score := o.surrogate.Score(stats, current, candidate, space)
		trial := Trial{Values: candidate, Objective: score}
		history = append(history, trial)
		if score < best.Objective {
			best = trial
		}
	}
	rec.Trials = len(history)
	rec.Objective = best.Objective

	// A run that found nothing better changed nothing, so it must never be
	// handed to the rollback checker as an applied step.
	if best.Objective >= base {
		rec.Status = domain.StatusNoImprovement
		rec.Reason = "no candidate improved the objective"
		return o.finish(ctx, rec)
	}

	// Damped apply: step only part of the way toward the winner, then let
	// Apply clamp to each spec's budget. Weight changes re-derive the
	// trend weight so the blend keeps summing to one.
	for _, sp := range space {
		target, ok := best.Values[sp.Name]
		if !ok {
			continue
		}
		proposed := current[sp.Name] + o.cfg.Damping*(target-current[sp.Name])
		if _, err := set.Apply(sp.Name, proposed); err != nil {
			o.log.Warn().Err(err).Str("param", sp.Name).Msg("apply rejected")
		}
	}

	rec.ParamsAfter = set.Snapshot()
	for name, after := range rec.ParamsAfter {
		if d := after - rec.ParamsBefore[name]; d != 0 {
			rec.Deltas[name] = d
		}
	}
	rec.Status = domain.StatusApplied
	rec.Reason = "applied damped best candidate"

	if err := o.store.Save(ctx, set); err != nil {
		return nil, err
	}

	o.log.Info().
		Str("run_id", rec.ID).
		Float64("base_objective", base).
		Float64("objective", best.Objective).
		Int("changed", len(rec.Deltas)).
		Msg("optimization applied")

	return o.finish(ctx, rec)
}

func (o *Optimizer) finish(ctx context.Context, rec *domain.OptimizationResult) (*domain.OptimizationResult, error) {
	if err := o.optLog.SaveOptimizationLog(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func spaceOf(set *params.Set) []params.Spec {
	unlocked := set.Unlocked()
	space := make([]params.Spec, 0, len(unlocked))
	for _, sp := range unlocked {
		space = append(space, *sp)
	}
	return space
}
