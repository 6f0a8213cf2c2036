package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/feedback"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/repository"
)

// PredictorConfig bounds the history window.
type PredictorConfig struct {
	HistoryDays    int // sales window consulted per prediction
	MinHistoryDays int // below this, fall back to category defaults
}

// DefaultPredictorConfig returns the standard 31-day window.
func DefaultPredictorConfig() PredictorConfig {
	return PredictorConfig{HistoryDays: 31, MinHistoryDays: 7}
}

// Predictor produces per-item order recommendations. It is a pure function
// of its inputs plus configuration; all state lives in the collaborators.
type Predictor struct {
	registry *Registry
	cost     *CostAdjuster
	sales    repository.SalesHistoryReader
	stock    repository.InventoryReader
	diff     *feedback.DiffAdjuster
	cfg      PredictorConfig
	log      zerolog.Logger
}

// NewPredictor wires a predictor. diff may be nil when diff feedback is
// disabled.
func NewPredictor(
	registry *Registry,
	cost *CostAdjuster,
	sales repository.SalesHistoryReader,
	stock repository.InventoryReader,
	diff *feedback.DiffAdjuster,
	cfg PredictorConfig,
	log zerolog.Logger,
) *Predictor {
	if cfg.HistoryDays <= 0 {
		cfg = DefaultPredictorConfig()
	}
	return &Predictor{
		registry: registry,
		cost:     cost,
		sales:    sales,
		stock:    stock,
		diff:     diff,
		cfg:      cfg,
		log:      log.With().Str("component", "forecast.predictor").Logger(),
	}
}

// Predict computes the recommendation for one item on one date.
func (p *Predictor) Predict(ctx context.Context, item domain.Item, date time.Time, set *params.Set) (*domain.PredictionResult, error) {
	history, err := p.sales.GetRecentSales(ctx, item.Code, p.cfg.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("sales history for %s: %w", item.Code, err)
	}
	onHand, pending, err := p.stock.GetCurrentStock(ctx, item.Code)
	if err != nil {
		return nil, fmt.Errorf("stock position for %s: %w", item.Code, err)
	}

	strategy := p.registry.ForCategory(item.CategoryCode)
	dataDays := len(history)
	lowConfidence := dataDays < p.cfg.MinHistoryDays

	// Stockout days are backfilled with the non-stockout mean; a day the
	// shelf was empty is evidence of demand, not of zero demand.
	series := backfillStockouts(history)

	var weekday [7]float64
	var safetyDays float64
	if lowConfidence {
		// Category defaults: neutral weekday shape, bucket safety days.
		weekday, safetyDays = strategy.Coefficients(nil, set)
	} else {
		weekday, safetyDays = strategy.Coefficients(history, set)
	}

	recentMean := meanTail(series, 7)
	weekdayMean := meanForWeekday(series, date.Weekday(), recentMean)
	trendMean := trendProjection(series, recentMean)

	wr, ww, wt := set.Weights()
	dailyAvg := wr*recentMean + ww*weekdayMean + wt*trendMean
	if dailyAvg < 0 {
		dailyAvg = 0
	}

	coef := weekday[int(date.Weekday())]
	safetyStock := dailyAvg * safetyDays * set.Get(params.SafetyCoefficient)
	costMult := p.cost.Multiplier(item)

	predicted := dailyAvg * coef
	adjusted := predicted * costMult
	rawNeed := (predicted+safetyStock)*costMult - onHand - pending

	orderQty := 0
	if rawNeed > 0 {
		unit := item.OrderUnit
		if unit < 1 {
			unit = 1
		}
		rounded := int(math.Ceil(rawNeed/float64(unit))) * unit
		surplus := float64(rounded) - rawNeed

		// Anti-over-order: when the round-up surplus alone covers the
		// safety requirement and the resulting position covers demand
		// plus safety, the order is noise from rounding, not need.
		if surplus >= safetyStock && onHand+surplus >= adjusted+safetyStock {
			rounded = 0
		}

		if rounded > 0 && p.diff != nil {
			penalty := p.diff.RemovalPenalty(ctx, item.Code)
			rounded = feedback.ApplyPenalty(rounded, penalty)
		}
		orderQty = rounded
	}

	confidence := domain.ConfidenceHigh
	switch {
	case lowConfidence:
		confidence = domain.ConfidenceLow
	case dataDays < 21:
		confidence = domain.ConfidenceMedium
	}

	return &domain.PredictionResult{
		ItemCode:     item.Code,
		Date:         date,
		PredictedQty: predicted,
		WeekdayCoef:  coef,
		AdjustedQty:  adjusted,
		SafetyStock:  safetyStock,
		CurrentStock: onHand,
		PendingQty:   pending,
		OrderQty:     orderQty,
		Confidence:   confidence,
		DataDays:     dataDays,
		RecentMean:   recentMean,
		WeekdayMean:  weekdayMean,
		TrendMean:    trendMean,
	}, nil
}

// PredictBatch predicts every item, isolating per-item failures: a bad item
// is logged and skipped, never aborts the batch.
func (p *Predictor) PredictBatch(ctx context.Context, items []domain.Item, date time.Time, set *params.Set) ([]domain.PredictionResult, error) {
	results := make([]domain.PredictionResult, 0, len(items))
	for _, item := range items {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		res, err := p.Predict(ctx, item, date, set)
		if err != nil {
			p.log.Error().Err(err).Str("item", item.Code).Msg("prediction failed")
			continue
		}
		results = append(results, *res)
	}

	p.log.Info().
		Int("items", len(items)).
		Int("predictions", len(results)).
		Str("date", date.Format("2006-01-02")).
		Msg("batch prediction completed")
	return results, nil
}

// backfillStockouts replaces stockout-day quantities with the non-stockout
// mean so they never count as zero-demand days.
func backfillStockouts(history []domain.SalesRecord) []domain.SalesRecord {
	fill := nonStockoutMean(history)
	out := make([]domain.SalesRecord, len(history))
	for i, rec := range history {
		out[i] = rec
		if rec.WasStockout {
			out[i].Qty = fill
		}
	}
	return out
}

// meanTail averages the last n records.
func meanTail(series []domain.SalesRecord, n int) float64 {
	if len(series) == 0 {
		return 0
	}
	if n > len(series) {
		n = len(series)
	}
	var sum float64
	for _, rec := range series[len(series)-n:] {
		sum += rec.Qty
	}
	return sum / float64(n)
}

// meanForWeekday averages records falling on the target weekday, falling
// back to the overall fallback value when that weekday never occurs.
func meanForWeekday(series []domain.SalesRecord, wd time.Weekday, fallback float64) float64 {
	var sum float64
	var n int
	for _, rec := range series {
		if rec.Date.Weekday() == wd {
			sum += rec.Qty
			n++
		}
	}
	if n == 0 {
		return fallback
	}
	return sum / float64(n)
}

// trendProjection fits a least-squares line through the series and projects
// one day past its end. Falls back to the recent mean on flat or tiny data.
func trendProjection(series []domain.SalesRecord, fallback float64) float64 {
	n := len(series)
	if n < 4 {
		return fallback
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, rec := range series {
		x := float64(i)
		sumX += x
		sumY += rec.Qty
		sumXY += x * rec.Qty
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return fallback
	}
	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn

	projected := intercept + slope*fn
	if projected < 0 {
		return 0
	}
	return projected
}
