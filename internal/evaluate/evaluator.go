package evaluate

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/forecast"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/repository"
	"github.com/leesangmin4533/bgf-dashboard-sub000/pkg/logger"
)

// softenMargin widens the coverage band inside which a SKIP can be relaxed
// to PASS for high-margin, fast-turning items.
const softenMargin = 1.10

// hardenMargin shrinks the band for low-margin, slow-turning items so a
// marginal PASS becomes SKIP.
const hardenMargin = 0.95

// Popularity percentile cutoffs. Top decile sellers stay on the order sheet
// at the skip boundary; bottom decile items give the shelf space back. Items
// with no popularity ranking get neither adjustment.
const (
	popularTopPercentile    = 0.90
	popularBottomPercentile = 0.10
)

// Evaluator classifies each predicted item into one of five order decisions.
// It runs after the Predictor and never mutates prediction quantities except
// to enforce decision-specific floors.
type Evaluator struct {
	stats    repository.ItemStatsReader
	outcomes repository.OutcomeRepository
	cost     *forecast.CostAdjuster
	items    map[string]domain.Item
	log      zerolog.Logger
}

func NewEvaluator(stats repository.ItemStatsReader, outcomes repository.OutcomeRepository, cost *forecast.CostAdjuster) *Evaluator {
	return &Evaluator{
		stats:    stats,
		outcomes: outcomes,
		cost:     cost,
		items:    make(map[string]domain.Item),
		log:      logger.Component("evaluator"),
	}
}

// SetItems primes the item master used for margin/turnover skip bias.
func (e *Evaluator) SetItems(items []domain.Item) {
	for _, it := range items {
		e.items[it.Code] = it
	}
}

// Evaluate resolves a single item. Decision precedence is fixed: FORCE,
// URGENT, NORMAL, PASS, SKIP. The first matching state wins, so an item
// qualifying for several states always resolves to the strongest one.
func (e *Evaluator) Evaluate(pred domain.PredictionResult, stats *domain.ItemStats, set *params.Set) domain.EvalDecision {
	dec := domain.EvalDecision{
		ItemCode: pred.ItemCode,
		Date:     pred.Date,
	}

	if stats == nil {
		// Statistics unavailable. Fall back to the prediction alone
		// instead of failing the whole batch.
		if pred.OrderQty > 0 {
			dec.Decision = domain.DecisionNormalOrder
			dec.OrderQty = pred.OrderQty
			dec.Reason = "stats unavailable; ordering predicted quantity"
		} else {
			dec.Decision = domain.DecisionSkip
			dec.Reason = "stats unavailable; no predicted need"
		}
		return dec
	}

	dailyAvg := stats.DailyAvg
	stock := stats.CurrentStock
	coverage := stock + float64(stats.PendingQty)
	requirement := pred.AdjustedQty + pred.SafetyStock

	forceMin := set.Get(params.ForceMinDailyAvg)
	urgentDays := set.Get(params.UrgentExposureDays)
	sufficientDays := set.Get(params.SufficientExposureDays)
	stockoutCut := set.Get(params.StockoutRateThreshold)
	passMin := int(set.Get(params.PassMinOrderQty))

	// FORCE: out of stock with real demand evidence. Without the demand
	// floor a dead item would be forced back onto the shelf forever, so
	// thin demand downgrades to NORMAL.
	if stock <= 0 {
		if dailyAvg >= forceMin {
			dec.Decision = domain.DecisionForceOrder
			dec.OrderQty = forcedQty(pred, dailyAvg, passMin)
			dec.Reason = fmt.Sprintf("out of stock, daily avg %.2f", dailyAvg)
			return dec
		}
		dec.Decision = domain.DecisionNormalOrder
		dec.OrderQty = normalQty(pred, passMin)
		dec.Reason = fmt.Sprintf("out of stock but daily avg %.2f below %.2f, downgraded", dailyAvg, forceMin)
		return dec
	}

	if dailyAvg <= 0 {
		dec.Decision = domain.DecisionSkip
		dec.Reason = "stocked with no demand signal"
		return dec
	}

	// Exposure counts on-hand stock only. An in-transit order does not
	// protect the shelf today, so pending quantity enters the coverage
	// check but never the urgency windows.
	exposure := stock / dailyAvg

	// URGENT: on-hand stock burns off within the urgent window.
	if exposure < urgentDays {
		dec.Decision = domain.DecisionUrgentOrder
		dec.OrderQty = normalQty(pred, passMin)
		dec.Reason = fmt.Sprintf("exposure %.1fd below urgent %.1fd", exposure, urgentDays)
		return dec
	}

	stockoutRate := 0.0
	if stats.ObservedDays30 > 0 {
		stockoutRate = float64(stats.StockoutDays30) / float64(stats.ObservedDays30)
	}

	// NORMAL: thin exposure or a recent pattern of stockouts.
	if exposure < sufficientDays {
		dec.Decision = domain.DecisionNormalOrder
		dec.OrderQty = normalQty(pred, passMin)
		dec.Reason = fmt.Sprintf("exposure %.1fd below sufficient %.1fd", exposure, sufficientDays)
		return dec
	}
	if stockoutRate > stockoutCut {
		dec.Decision = domain.DecisionNormalOrder
		dec.OrderQty = normalQty(pred, passMin)
		dec.Reason = fmt.Sprintf("stockout rate %.0f%% above %.0f%%", stockoutRate*100, stockoutCut*100)
		return dec
	}

	bias := forecast.BiasNeutral
	if e.cost != nil {
		if item, ok := e.items[pred.ItemCode]; ok {
			bias = e.cost.Bias(item)
		}
	}

	margin := 1.0
	switch bias {
	case forecast.BiasSoftenSkip:
		margin = softenMargin
	case forecast.BiasHardenSkip:
		margin = hardenMargin
	}
	if stats.HasPopularity {
		if stats.PopularityPercentile >= popularTopPercentile {
			margin = math.Max(margin, softenMargin)
		} else if stats.PopularityPercentile <= popularBottomPercentile {
			margin = math.Min(margin, hardenMargin)
		}
	}

	if coverage >= requirement*margin {
		dec.Decision = domain.DecisionSkip
		dec.Reason = fmt.Sprintf("coverage %.1f meets requirement %.1f", coverage, requirement)
		return dec
	}

	// PASS: comfortable exposure but not fully covered. Order the
	// predicted quantity, floored at the minimum order quantity so the
	// line item survives downstream filtering.
	qty := pred.OrderQty
	if qty < passMin {
		qty = passMin
	}
	dec.Decision = domain.DecisionPass
	dec.OrderQty = qty
	dec.Reason = fmt.Sprintf("exposure %.1fd sufficient, coverage %.1f short of %.1f", exposure, coverage, requirement)
	return dec
}

// EvaluateAll resolves every prediction, recording each decision. A failing
// stats lookup degrades one item, not the batch.
func (e *Evaluator) EvaluateAll(ctx context.Context, preds []domain.PredictionResult, set *params.Set) ([]domain.EvalDecision, error) {
	decisions := make([]domain.EvalDecision, 0, len(preds))
	counts := make(map[domain.Decision]int)

	for _, pred := range preds {
		select {
		case <-ctx.Done():
			return decisions, ctx.Err()
		default:
		}

		stats, err := e.stats.GetItemStats(ctx, pred.ItemCode)
		if err != nil {
			e.log.Warn().Err(err).Str("item", pred.ItemCode).Msg("item stats lookup failed")
			stats = nil
		}

		dec := e.Evaluate(pred, stats, set)
		decisions = append(decisions, dec)
		counts[dec.Decision]++

		if e.outcomes != nil {
			if err := e.outcomes.RecordDecision(ctx, dec); err != nil {
				e.log.Warn().Err(err).Str("item", pred.ItemCode).Msg("failed to record decision")
			}
		}
	}

	e.log.Info().
		Int("items", len(preds)).
		Int("force", counts[domain.DecisionForceOrder]).
		Int("urgent", counts[domain.DecisionUrgentOrder]).
		Int("normal", counts[domain.DecisionNormalOrder]).
		Int("pass", counts[domain.DecisionPass]).
		Int("skip", counts[domain.DecisionSkip]).
		Msg("evaluation complete")

	return decisions, nil
}

func normalQty(pred domain.PredictionResult, passMin int) int {
	if pred.OrderQty > 0 {
		return pred.OrderQty
	}
	if passMin > 0 {
		return passMin
	}
	return 1
}

func forcedQty(pred domain.PredictionResult, dailyAvg float64, passMin int) int {
	if pred.OrderQty > 0 {
		return pred.OrderQty
	}
	qty := int(math.Ceil(dailyAvg))
	if qty < passMin {
		qty = passMin
	}
	if qty < 1 {
		qty = 1
	}
	return qty
}
