package tuning

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
)

// fakeOutcomes serves canned outcomes and stats and records writes.
type fakeOutcomes struct {
	outcomes     []domain.DecisionOutcome
	stats        *domain.AccuracyStats
	calibrations []domain.CalibrationEntry
}

func (f *fakeOutcomes) GetAccuracyStats(ctx context.Context, days int) (*domain.AccuracyStats, error) {
	if f.stats == nil {
		return &domain.AccuracyStats{}, nil
	}
	return f.stats, nil
}

func (f *fakeOutcomes) GetDecisionOutcomes(ctx context.Context, date time.Time) ([]domain.DecisionOutcome, error) {
	return f.outcomes, nil
}

func (f *fakeOutcomes) RecordDecision(ctx context.Context, dec domain.EvalDecision) error {
	return nil
}

func (f *fakeOutcomes) RecordPrediction(ctx context.Context, res domain.PredictionResult) error {
	return nil
}

func (f *fakeOutcomes) AppendCalibration(ctx context.Context, entry domain.CalibrationEntry) error {
	f.calibrations = append(f.calibrations, entry)
	return nil
}

// fakeOptLog records run persistence and status transitions.
type fakeOptLog struct {
	saved      []*domain.OptimizationResult
	latest     *domain.OptimizationResult
	rolledBack []string
	confirmed  []string
}

func (f *fakeOptLog) SaveOptimizationLog(ctx context.Context, rec *domain.OptimizationResult) error {
	f.saved = append(f.saved, rec)
	return nil
}

func (f *fakeOptLog) GetLatestApplied(ctx context.Context) (*domain.OptimizationResult, error) {
	return f.latest, nil
}

func (f *fakeOptLog) MarkRolledBack(ctx context.Context, id, reason string) error {
	f.rolledBack = append(f.rolledBack, id)
	return nil
}

func (f *fakeOptLog) MarkConfirmed(ctx context.Context, id string) error {
	f.confirmed = append(f.confirmed, id)
	return nil
}

// fixedEngine always proposes the same candidate on top of a base snapshot.
type fixedEngine struct {
	base      map[string]float64
	overrides map[string]float64
}

func (e *fixedEngine) Name() string { return "fixed" }

func (e *fixedEngine) Suggest(space []params.Spec, history []Trial) map[string]float64 {
	out := make(map[string]float64, len(e.base))
	for k, v := range e.base {
		out[k] = v
	}
	for k, v := range e.overrides {
		out[k] = v
	}
	return out
}

func newTuningStore(t *testing.T) *params.Store {
	t.Helper()
	dir := t.TempDir()
	return params.NewStore(
		filepath.Join(dir, "order_params.json"),
		filepath.Join(dir, "backups"),
		nil,
		zerolog.Nop(),
	)
}
