package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
)

type optimizationLog struct {
	db *DB
}

// NewOptimizationLog persists the audit trail of weekly optimization runs.
// Parameter snapshots and deltas are stored as JSONB so the schema survives
// new parameters without migrations.
func NewOptimizationLog(db *DB) *optimizationLog {
	return &optimizationLog{db: db}
}

func (r *optimizationLog) SaveOptimizationLog(ctx context.Context, rec *domain.OptimizationResult) error {
	errorTerms, err := json.Marshal(rec.ErrorTerms)
	if err != nil {
		return fmt.Errorf("failed to marshal error terms: %w", err)
	}
	before, err := json.Marshal(rec.ParamsBefore)
	if err != nil {
		return fmt.Errorf("failed to marshal params before: %w", err)
	}
	after, err := json.Marshal(rec.ParamsAfter)
	if err != nil {
		return fmt.Errorf("failed to marshal params after: %w", err)
	}
	deltas, err := json.Marshal(rec.Deltas)
	if err != nil {
		return fmt.Errorf("failed to marshal deltas: %w", err)
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO optimization_runs (
				id, run_at, status, objective, base_objective, error_terms,
				params_before, params_after, deltas, algorithm, trials,
				window_days, reason, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		`
		_, err := tx.ExecContext(ctx, query,
			rec.ID, rec.RunAt, rec.Status, rec.Objective, rec.BaseObjective,
			errorTerms, before, after, deltas, rec.Algorithm, rec.Trials,
			rec.WindowDays, rec.Reason,
		)
		if err != nil {
			return fmt.Errorf("failed to insert optimization run: %w", err)
		}
		return nil
	})
}

func (r *optimizationLog) GetLatestApplied(ctx context.Context) (*domain.OptimizationResult, error) {
	query := `
		SELECT id, run_at, status, objective, base_objective, error_terms,
		       params_before, params_after, deltas, algorithm, trials,
		       window_days, reason
		FROM optimization_runs
		WHERE status = $1
		ORDER BY run_at DESC
		LIMIT 1
	`

	var rec domain.OptimizationResult
	var errorTerms, before, after, deltas []byte
	err := r.db.QueryRowxContext(ctx, query, domain.StatusApplied).Scan(
		&rec.ID, &rec.RunAt, &rec.Status, &rec.Objective, &rec.BaseObjective,
		&errorTerms, &before, &after, &deltas, &rec.Algorithm, &rec.Trials,
		&rec.WindowDays, &rec.Reason,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest applied run: %w", err)
	}

	for _, pair := range []struct {
		raw []byte
		dst *map[string]float64
	}{
		{errorTerms, &rec.ErrorTerms},
		{before, &rec.ParamsBefore},
		{after, &rec.ParamsAfter},
		{deltas, &rec.Deltas},
	} {
		if len(pair.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run payload: %w", err)
		}
	}
	return &rec, nil
}

func (r *optimizationLog) MarkRolledBack(ctx context.Context, id, reason string) error {
	return r.mark(ctx, id, domain.StatusRolledBack, reason)
}

func (r *optimizationLog) MarkConfirmed(ctx context.Context, id string) error {
	return r.mark(ctx, id, domain.StatusConfirmed, "")
}

func (r *optimizationLog) mark(ctx context.Context, id string, status domain.OptimizationStatus, reason string) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE optimization_runs
			SET status = $2,
			    reason = CASE WHEN $3 = '' THEN reason ELSE $3 END,
			    updated_at = NOW()
			WHERE id = $1 AND status = $4
		`
		res, err := tx.ExecContext(ctx, query, id, status, reason, domain.StatusApplied)
		if err != nil {
			return fmt.Errorf("failed to update run status: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Already resolved; the check is idempotent.
			return nil
		}
		return nil
	})
}
