package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/feedback"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
)

type fakeSales struct {
	records []domain.SalesRecord
}

func (f *fakeSales) GetRecentSales(ctx context.Context, itemCode string, days int) ([]domain.SalesRecord, error) {
	return f.records, nil
}

type fakeStock struct {
	onHand  float64
	pending float64
}

func (f *fakeStock) GetCurrentStock(ctx context.Context, itemCode string) (float64, float64, error) {
	return f.onHand, f.pending, nil
}

type fakeDiffRepo struct {
	removals  []domain.RemovalStat
	additions []domain.AdditionStat
}

func (f *fakeDiffRepo) GetRemovalStats(ctx context.Context, lookbackDays int) ([]domain.RemovalStat, error) {
	return f.removals, nil
}

func (f *fakeDiffRepo) GetAdditionStats(ctx context.Context, lookbackDays int) ([]domain.AdditionStat, error) {
	return f.additions, nil
}

// steadyHistory builds `days` consecutive records of constant demand ending
// the day before target.
func steadyHistory(target time.Time, days int, qty float64) []domain.SalesRecord {
	records := make([]domain.SalesRecord, 0, days)
	for i := days; i >= 1; i-- {
		records = append(records, domain.SalesRecord{
			Date: target.AddDate(0, 0, -i),
			Qty:  qty,
		})
	}
	return records
}

// householdItem maps to the flat-profile strategy with long-life safety days
// and a neutral cost multiplier, keeping arithmetic transparent.
func householdItem(unit int) domain.Item {
	return domain.Item{
		Code:         "8801234567890",
		Name:         "dish soap",
		CategoryCode: "060",
		OrderUnit:    unit,
		Margin:       0.20,
		TurnoverDays: 10,
	}
}

func newTestPredictor(sales *fakeSales, stock *fakeStock, diff *feedback.DiffAdjuster) *Predictor {
	return NewPredictor(
		NewRegistry(),
		NewCostAdjuster(DefaultCostAdjusterConfig()),
		sales,
		stock,
		diff,
		DefaultPredictorConfig(),
		zerolog.Nop(),
	)
}

func TestPredict_SteadyDemandOrdersNeed(t *testing.T) {
	target := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC) // Monday
	sales := &fakeSales{records: steadyHistory(target, 28, 2)}
	stock := &fakeStock{onHand: 3}
	p := newTestPredictor(sales, stock, nil)

	res, err := p.Predict(context.Background(), householdItem(1), target, params.Defaults())
	require.NoError(t, err)

	// Constant demand: every blend component is 2/day.
	assert.InDelta(t, 2.0, res.RecentMean, 1e-9)
	assert.InDelta(t, 2.0, res.WeekdayMean, 1e-9)
	assert.InDelta(t, 2.0, res.TrendMean, 1e-9)
	assert.InDelta(t, 2.0, res.PredictedQty, 1e-9)

	// Safety: 2/day x 3 long-life days x coefficient 1.0.
	assert.InDelta(t, 6.0, res.SafetyStock, 1e-9)

	// Need: (2 + 6) - 3 on hand = 5, unit 1.
	assert.Equal(t, 5, res.OrderQty)
	assert.Equal(t, domain.ConfidenceHigh, res.Confidence)
}

func TestPredict_AntiOverOrderSuppressesRoundingNoise(t *testing.T) {
	target := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	sales := &fakeSales{records: steadyHistory(target, 28, 2)}
	stock := &fakeStock{onHand: 5}
	p := newTestPredictor(sales, stock, nil)

	// Raw need is (2 + 6) - 5 = 3; a 10-pack rounds to 10 with surplus 7.
	// The surplus alone exceeds the safety stock of 6 and the resulting
	// position covers demand plus safety, so the order is suppressed.
	res, err := p.Predict(context.Background(), householdItem(10), target, params.Defaults())
	require.NoError(t, err)
	assert.Equal(t, 0, res.OrderQty)
}

func TestPredict_RemovalPenaltyShrinksOrder(t *testing.T) {
	target := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	sales := &fakeSales{records: steadyHistory(target, 28, 2)}
	stock := &fakeStock{onHand: 3}

	// Six recent user removals put the item in the 0.5 penalty tier.
	diff := feedback.NewDiffAdjuster(&fakeDiffRepo{
		removals: []domain.RemovalStat{{ItemCode: householdItem(1).Code, Removals: 6}},
	}, 14, zerolog.Nop())
	p := newTestPredictor(sales, stock, diff)

	// Raw need 5, unit 1, then halved by the penalty.
	res, err := p.Predict(context.Background(), householdItem(1), target, params.Defaults())
	require.NoError(t, err)
	assert.Equal(t, 2, res.OrderQty)
}

func TestPredict_ThinHistoryIsLowConfidence(t *testing.T) {
	target := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	sales := &fakeSales{records: steadyHistory(target, 3, 2)}
	stock := &fakeStock{}
	p := newTestPredictor(sales, stock, nil)

	res, err := p.Predict(context.Background(), householdItem(1), target, params.Defaults())
	require.NoError(t, err)
	assert.Equal(t, domain.ConfidenceLow, res.Confidence)
	assert.Equal(t, 3, res.DataDays)
}

func TestPredict_StockoutDaysBackfillWithNonStockoutMean(t *testing.T) {
	target := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	records := steadyHistory(target, 28, 4)
	// The last day sold out; as a raw zero it would drag the recent mean
	// down to 24/7, backfilled it stays at 4.
	records[len(records)-1].Qty = 0
	records[len(records)-1].WasStockout = true

	sales := &fakeSales{records: records}
	p := newTestPredictor(sales, &fakeStock{}, nil)

	res, err := p.Predict(context.Background(), householdItem(1), target, params.Defaults())
	require.NoError(t, err)
	assert.InDelta(t, 4.0, res.RecentMean, 1e-9)
}

func TestPredictBatch_IsolatesPerItemFailures(t *testing.T) {
	target := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	sales := &fakeSales{records: steadyHistory(target, 28, 2)}
	p := newTestPredictor(sales, &fakeStock{onHand: 3}, nil)

	items := []domain.Item{householdItem(1), householdItem(1)}
	results, err := p.PredictBatch(context.Background(), items, target, params.Defaults())
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
