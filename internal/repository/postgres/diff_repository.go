package postgres

import (
	"context"
	"fmt"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
)

type diffRepository struct {
	db *DB
}

// NewDiffRepository aggregates user edits to system-recommended orders from
// the order_diffs table.
func NewDiffRepository(db *DB) *diffRepository {
	return &diffRepository{db: db}
}

func (r *diffRepository) GetRemovalStats(ctx context.Context, lookbackDays int) ([]domain.RemovalStat, error) {
	query := `
		SELECT item_code, COUNT(*) AS removals
		FROM order_diffs
		WHERE diff_class = $1
		  AND diff_date >= CURRENT_DATE - $2::int
		GROUP BY item_code
		ORDER BY removals DESC
	`

	rows, err := r.db.QueryxContext(ctx, query, domain.DiffRemoved, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to query removal stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.RemovalStat
	for rows.Next() {
		var s domain.RemovalStat
		if err := rows.Scan(&s.ItemCode, &s.Removals); err != nil {
			return nil, fmt.Errorf("failed to scan removal stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *diffRepository) GetAdditionStats(ctx context.Context, lookbackDays int) ([]domain.AdditionStat, error) {
	query := `
		SELECT item_code, COUNT(*) AS additions, AVG(user_qty) AS avg_qty
		FROM order_diffs
		WHERE diff_class = $1
		  AND diff_date >= CURRENT_DATE - $2::int
		GROUP BY item_code
		ORDER BY additions DESC
	`

	rows, err := r.db.QueryxContext(ctx, query, domain.DiffAdded, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to query addition stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.AdditionStat
	for rows.Next() {
		var s domain.AdditionStat
		if err := rows.Scan(&s.ItemCode, &s.Additions, &s.AvgQty); err != nil {
			return nil, fmt.Errorf("failed to scan addition stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
