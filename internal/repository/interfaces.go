package repository

import (
	"context"
	"time"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
)

// SalesHistoryReader supplies bounded windows of per-item sales history.
type SalesHistoryReader interface {
	GetRecentSales(ctx context.Context, itemCode string, days int) ([]domain.SalesRecord, error)
}

// InventoryReader supplies the current stock position of an item.
type InventoryReader interface {
	GetCurrentStock(ctx context.Context, itemCode string) (onHand, pending float64, err error)
}

// ItemReader lists the items a store currently carries.
type ItemReader interface {
	GetActiveItems(ctx context.Context) ([]domain.Item, error)
}

// ItemStatsReader serves the exposure/popularity/stockout statistics the
// evaluator consumes.
type ItemStatsReader interface {
	GetItemStats(ctx context.Context, itemCode string) (*domain.ItemStats, error)
}

// OutcomeRepository records decisions and predictions and serves the
// aggregated outcome statistics the tuning loops consume.
type OutcomeRepository interface {
	GetAccuracyStats(ctx context.Context, days int) (*domain.AccuracyStats, error)
	GetDecisionOutcomes(ctx context.Context, date time.Time) ([]domain.DecisionOutcome, error)
	RecordDecision(ctx context.Context, dec domain.EvalDecision) error
	RecordPrediction(ctx context.Context, res domain.PredictionResult) error
	AppendCalibration(ctx context.Context, entry domain.CalibrationEntry) error
}

// DiffRepository serves pre-aggregated user-correction statistics, never raw
// event streams.
type DiffRepository interface {
	GetRemovalStats(ctx context.Context, lookbackDays int) ([]domain.RemovalStat, error)
	GetAdditionStats(ctx context.Context, lookbackDays int) ([]domain.AdditionStat, error)
}

// OptimizationLog is the audit trail of weekly optimization runs.
type OptimizationLog interface {
	SaveOptimizationLog(ctx context.Context, rec *domain.OptimizationResult) error
	GetLatestApplied(ctx context.Context) (*domain.OptimizationResult, error)
	MarkRolledBack(ctx context.Context, id, reason string) error
	MarkConfirmed(ctx context.Context, id string) error
}
