package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
)

type outcomeRepository struct {
	db *DB
}

// NewOutcomeRepository persists decisions and predictions and serves the
// joined decision/realized-sales views the tuning loops consume.
func NewOutcomeRepository(db *DB) *outcomeRepository {
	return &outcomeRepository{db: db}
}

func (r *outcomeRepository) RecordDecision(ctx context.Context, dec domain.EvalDecision) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO order_decisions (item_code, decide_date, decision, reason, order_qty, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (item_code, decide_date)
			DO UPDATE SET
				decision = EXCLUDED.decision,
				reason = EXCLUDED.reason,
				order_qty = EXCLUDED.order_qty,
				updated_at = NOW()
		`
		if _, err := tx.ExecContext(ctx, query, dec.ItemCode, dec.Date, dec.Decision, dec.Reason, dec.OrderQty); err != nil {
			return fmt.Errorf("failed to insert decision: %w", err)
		}
		return nil
	})
}

func (r *outcomeRepository) RecordPrediction(ctx context.Context, res domain.PredictionResult) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO order_predictions (
				item_code, predict_date, predicted_qty, adjusted_qty, safety_stock,
				current_stock, pending_qty, order_qty, confidence, data_days,
				recent_mean, weekday_mean, trend_mean, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
			ON CONFLICT (item_code, predict_date)
			DO UPDATE SET
				predicted_qty = EXCLUDED.predicted_qty,
				adjusted_qty = EXCLUDED.adjusted_qty,
				safety_stock = EXCLUDED.safety_stock,
				current_stock = EXCLUDED.current_stock,
				pending_qty = EXCLUDED.pending_qty,
				order_qty = EXCLUDED.order_qty,
				confidence = EXCLUDED.confidence,
				data_days = EXCLUDED.data_days,
				recent_mean = EXCLUDED.recent_mean,
				weekday_mean = EXCLUDED.weekday_mean,
				trend_mean = EXCLUDED.trend_mean,
				updated_at = NOW()
		`
		_, err := tx.ExecContext(ctx, query,
			res.ItemCode, res.Date, res.PredictedQty, res.AdjustedQty, res.SafetyStock,
			res.CurrentStock, res.PendingQty, res.OrderQty, res.Confidence, res.DataDays,
			res.RecentMean, res.WeekdayMean, res.TrendMean,
		)
		if err != nil {
			return fmt.Errorf("failed to insert prediction: %w", err)
		}
		return nil
	})
}

// GetDecisionOutcomes joins a day's decisions with what actually sold.
// Items without a realized sales row are excluded: the calibrator needs a
// ground truth, not a guess.
func (r *outcomeRepository) GetDecisionOutcomes(ctx context.Context, date time.Time) ([]domain.DecisionOutcome, error) {
	query := `
		SELECT
			d.item_code,
			d.decide_date,
			d.decision,
			p.predicted_qty,
			s.qty,
			s.was_stockout,
			p.recent_mean,
			p.weekday_mean,
			p.trend_mean
		FROM order_decisions d
		JOIN order_predictions p
			ON p.item_code = d.item_code AND p.predict_date = d.decide_date
		JOIN sales_daily s
			ON s.item_code = d.item_code AND s.sale_date = d.decide_date
		WHERE d.decide_date = $1
	`

	rows, err := r.db.QueryxContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []domain.DecisionOutcome
	for rows.Next() {
		var o domain.DecisionOutcome
		if err := rows.Scan(
			&o.ItemCode, &o.Date, &o.Decision, &o.PredictedQty, &o.RealizedQty,
			&o.WasStockout, &o.RecentMean, &o.WeekdayMean, &o.TrendMean,
		); err != nil {
			return nil, fmt.Errorf("failed to scan decision outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// GetAccuracyStats aggregates prediction error over the trailing window.
// A hit is a prediction within one unit or 25% of realized sales, whichever
// is wider.
func (r *outcomeRepository) GetAccuracyStats(ctx context.Context, days int) (*domain.AccuracyStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (
				WHERE ABS(p.predicted_qty - s.qty) <= GREATEST(1, s.qty * 0.25)
			) AS correct,
			COUNT(*) FILTER (
				WHERE p.predicted_qty > s.qty + GREATEST(1, s.qty * 0.25)
			) AS over_order,
			COUNT(*) FILTER (WHERE s.was_stockout) AS missed
		FROM order_predictions p
		JOIN sales_daily s
			ON s.item_code = p.item_code AND s.sale_date = p.predict_date
		WHERE p.predict_date >= CURRENT_DATE - $1::int
	`

	var stats domain.AccuracyStats
	err := r.db.QueryRowxContext(ctx, query, days).Scan(
		&stats.Total, &stats.Correct, &stats.OverOrder, &stats.Missed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query accuracy stats: %w", err)
	}
	if stats.Total > 0 {
		stats.WasteRate = float64(stats.OverOrder) / float64(stats.Total)
		stats.StockoutRate = float64(stats.Missed) / float64(stats.Total)
	}
	return &stats, nil
}

func (r *outcomeRepository) AppendCalibration(ctx context.Context, entry domain.CalibrationEntry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}
	correlations, err := json.Marshal(entry.Correlations)
	if err != nil {
		return fmt.Errorf("failed to marshal correlations: %w", err)
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO calibration_log (run_date, sample_count, changes, correlations, created_at)
			VALUES ($1, $2, $3, $4, NOW())
		`
		if _, err := tx.ExecContext(ctx, query, entry.Date, entry.SampleCount, changes, correlations); err != nil {
			return fmt.Errorf("failed to insert calibration entry: %w", err)
		}
		return nil
	})
}
