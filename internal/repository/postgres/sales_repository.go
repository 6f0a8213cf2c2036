package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
)

type salesRepository struct {
	db *DB
}

// NewSalesRepository serves sales history, live inventory and the evaluator's
// item statistics from the sales_daily and inventory tables.
func NewSalesRepository(db *DB) *salesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) GetRecentSales(ctx context.Context, itemCode string, days int) ([]domain.SalesRecord, error) {
	query := `
		SELECT sale_date, qty, was_stockout
		FROM sales_daily
		WHERE item_code = $1
		  AND sale_date >= CURRENT_DATE - $2::int
		ORDER BY sale_date ASC
	`

	rows, err := r.db.QueryxContext(ctx, query, itemCode, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales history: %w", err)
	}
	defer rows.Close()

	var records []domain.SalesRecord
	for rows.Next() {
		var rec domain.SalesRecord
		if err := rows.Scan(&rec.Date, &rec.Qty, &rec.WasStockout); err != nil {
			return nil, fmt.Errorf("failed to scan sales record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *salesRepository) GetCurrentStock(ctx context.Context, itemCode string) (onHand, pending float64, err error) {
	query := `
		SELECT on_hand, pending_qty
		FROM inventory
		WHERE item_code = $1
	`

	err = r.db.QueryRowxContext(ctx, query, itemCode).Scan(&onHand, &pending)
	if errors.Is(err, sql.ErrNoRows) {
		// Unknown to inventory means nothing on hand and nothing inbound.
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query inventory: %w", err)
	}
	return onHand, pending, nil
}

func (r *salesRepository) GetItemStats(ctx context.Context, itemCode string) (*domain.ItemStats, error) {
	query := `
		SELECT
			COALESCE(AVG(s.qty) FILTER (WHERE NOT s.was_stockout), 0) AS daily_avg,
			COALESCE(i.on_hand, 0)                                    AS current_stock,
			COALESCE(i.pending_qty, 0)::int                           AS pending_qty,
			COUNT(*) FILTER (WHERE s.was_stockout)                    AS stockout_days,
			COUNT(*)                                                  AS observed_days,
			p.percentile                                              AS popularity
		FROM sales_daily s
		LEFT JOIN inventory i ON i.item_code = s.item_code
		LEFT JOIN item_popularity p ON p.item_code = s.item_code
		WHERE s.item_code = $1
		  AND s.sale_date >= CURRENT_DATE - 30
		GROUP BY i.on_hand, i.pending_qty, p.percentile
	`

	var stats domain.ItemStats
	var popularity sql.NullFloat64
	err := r.db.QueryRowxContext(ctx, query, itemCode).Scan(
		&stats.DailyAvg,
		&stats.CurrentStock,
		&stats.PendingQty,
		&stats.StockoutDays30,
		&stats.ObservedDays30,
		&popularity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no sales observed for item %s", itemCode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query item stats: %w", err)
	}
	if popularity.Valid {
		stats.PopularityPercentile = popularity.Float64
		stats.HasPopularity = true
	}
	return &stats, nil
}
