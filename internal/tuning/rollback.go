package tuning

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/repository"
	"github.com/leesangmin4533/bgf-dashboard-sub000/pkg/logger"
)

// RollbackConfig sets the observation window after an optimization and the
// degradation that triggers a revert.
type RollbackConfig struct {
	WindowDays int
	Threshold  float64
}

func (c *RollbackConfig) fill() {
	if c.WindowDays <= 0 {
		c.WindowDays = 3
	}
	if c.Threshold <= 0 {
		c.Threshold = 0.10
	}
}

// RollbackChecker watches the most recent applied optimization. Once the
// observation window has elapsed it either confirms the run or restores the
// pre-run parameters. Calls before the window elapses, or with no applied
// run outstanding, are no-ops, so the check is safe to schedule daily.
type RollbackChecker struct {
	outcomes repository.OutcomeRepository
	optLog   repository.OptimizationLog
	store    *params.Store
	cfg      RollbackConfig
	now      func() time.Time
	log      zerolog.Logger
}

func NewRollbackChecker(outcomes repository.OutcomeRepository, optLog repository.OptimizationLog, store *params.Store, cfg RollbackConfig) *RollbackChecker {
	cfg.fill()
	return &RollbackChecker{
		outcomes: outcomes,
		optLog:   optLog,
		store:    store,
		cfg:      cfg,
		now:      time.Now,
		log:      logger.Component("rollback"),
	}
}

// Check evaluates the latest applied run against the degradation threshold.
// It returns the resulting status, or empty when there was nothing to check.
func (r *RollbackChecker) Check(ctx context.Context, set *params.Set) (domain.OptimizationStatus, error) {
	run, err := r.optLog.GetLatestApplied(ctx)
	if err != nil {
		return "", err
	}
	if run == nil || run.Status != domain.StatusApplied {
		return "", nil
	}

	elapsed := r.now().Sub(run.RunAt)
	window := time.Duration(r.cfg.WindowDays) * 24 * time.Hour
	if elapsed < window {
		r.log.Debug().
			Str("run_id", run.ID).
			Dur("elapsed", elapsed).
			Msg("observation window still open")
		return "", nil
	}

	stats, err := r.outcomes.GetAccuracyStats(ctx, r.cfg.WindowDays)
	if err != nil {
		return "", err
	}
	observed := NewSurrogate().Objective(stats)

	if run.BaseObjective > 0 && observed > run.BaseObjective*(1+r.cfg.Threshold) {
		set.Restore(run.ParamsBefore)
		if err := r.store.Save(ctx, set); err != nil {
			return "", err
		}
		reason := "objective degraded beyond threshold"
		if err := r.optLog.MarkRolledBack(ctx, run.ID, reason); err != nil {
			return "", err
		}
		r.log.Warn().
			Str("run_id", run.ID).
			Float64("base_objective", run.BaseObjective).
			Float64("observed", observed).
			Msg("optimization rolled back")
		return domain.StatusRolledBack, nil
	}

	if err := r.optLog.MarkConfirmed(ctx, run.ID); err != nil {
		return "", err
	}
	r.log.Info().
		Str("run_id", run.ID).
		Float64("base_objective", run.BaseObjective).
		Float64("observed", observed).
		Msg("optimization confirmed")
	return domain.StatusConfirmed, nil
}
