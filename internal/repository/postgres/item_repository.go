package postgres

import (
	"context"
	"fmt"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
)

type itemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) *itemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) GetActiveItems(ctx context.Context) ([]domain.Item, error) {
	query := `
		SELECT item_code, item_name, category_code, order_unit, margin, turnover_days
		FROM items
		WHERE active
		ORDER BY item_code
	`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.Code, &it.Name, &it.CategoryCode, &it.OrderUnit, &it.Margin, &it.TurnoverDays); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
