package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/evaluate"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/feedback"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/forecast"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/repository"
	"github.com/leesangmin4533/bgf-dashboard-sub000/pkg/logger"
)

// OrderService runs the daily prediction and evaluation pass for one store.
// Prediction fans out across a bounded worker pool; evaluation and recording
// stay sequential so the decision log is deterministic.
type OrderService struct {
	predictor *forecast.Predictor
	evaluator *evaluate.Evaluator
	items     repository.ItemReader
	outcomes  repository.OutcomeRepository
	diff      *feedback.DiffAdjuster
	workers   int
	log       zerolog.Logger
}

func NewOrderService(
	predictor *forecast.Predictor,
	evaluator *evaluate.Evaluator,
	items repository.ItemReader,
	outcomes repository.OutcomeRepository,
	diff *feedback.DiffAdjuster,
	workers int,
) *OrderService {
	if workers <= 0 {
		workers = 4
	}
	return &OrderService{
		predictor: predictor,
		evaluator: evaluator,
		items:     items,
		outcomes:  outcomes,
		diff:      diff,
		workers:   workers,
		log:       logger.Component("order_service"),
	}
}

// OrderRun is the result of one daily pass.
type OrderRun struct {
	Date        time.Time
	Predictions []domain.PredictionResult
	Decisions   []domain.EvalDecision
	Injected    []domain.EvalDecision
}

// Run produces the day's order proposal: predictions for every active item,
// a decision per prediction, plus injected candidates for items the user
// keeps adding by hand.
func (s *OrderService) Run(ctx context.Context, date time.Time, set *params.Set) (*OrderRun, error) {
	items, err := s.items.GetActiveItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active items: %w", err)
	}
	s.evaluator.SetItems(items)

	predictions, err := s.predictAll(ctx, items, date, set)
	if err != nil {
		return nil, err
	}

	for _, pred := range predictions {
		if err := s.outcomes.RecordPrediction(ctx, pred); err != nil {
			s.log.Warn().Err(err).Str("item", pred.ItemCode).Msg("failed to record prediction")
		}
	}

	decisions, err := s.evaluator.EvaluateAll(ctx, predictions, set)
	if err != nil {
		return nil, err
	}

	injected := s.injectFrequentAdditions(ctx, date, decisions)

	s.log.Info().
		Int("items", len(items)).
		Int("decisions", len(decisions)).
		Int("injected", len(injected)).
		Msg("daily order run complete")

	return &OrderRun{
		Date:        date,
		Predictions: predictions,
		Decisions:   decisions,
		Injected:    injected,
	}, nil
}

// predictAll fans predictions out over the worker pool. One bad item logs
// and drops; it never aborts the batch.
func (s *OrderService) predictAll(ctx context.Context, items []domain.Item, date time.Time, set *params.Set) ([]domain.PredictionResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	var mu sync.Mutex
	results := make([]domain.PredictionResult, 0, len(items))

	for _, item := range items {
		item := item
		g.Go(func() error {
			pred, err := s.predictor.Predict(gctx, item, date, set)
			if err != nil {
				s.log.Warn().Err(err).Str("item", item.Code).Msg("prediction failed")
				return nil
			}
			mu.Lock()
			results = append(results, *pred)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].ItemCode < results[j].ItemCode
	})
	return results, nil
}

// injectFrequentAdditions adds order candidates for items the user kept
// adding by hand after the system skipped them. An existing non-SKIP
// decision always wins over an injection.
func (s *OrderService) injectFrequentAdditions(ctx context.Context, date time.Time, decisions []domain.EvalDecision) []domain.EvalDecision {
	if s.diff == nil {
		return nil
	}

	decided := make(map[string]domain.Decision, len(decisions))
	for _, d := range decisions {
		decided[d.ItemCode] = d.Decision
	}

	var injected []domain.EvalDecision
	for _, freq := range s.diff.FrequentlyAddedItems(ctx) {
		if dec, ok := decided[freq.ItemCode]; ok && dec != domain.DecisionSkip {
			continue
		}
		qty := int(math.Round(freq.AvgQty))
		if qty < 1 {
			qty = 1
		}
		dec := domain.EvalDecision{
			ItemCode: freq.ItemCode,
			Date:     date,
			Decision: domain.DecisionPass,
			OrderQty: qty,
			Reason:   fmt.Sprintf("user added %d times recently", freq.Count),
		}
		injected = append(injected, dec)
		if err := s.outcomes.RecordDecision(ctx, dec); err != nil {
			s.log.Warn().Err(err).Str("item", freq.ItemCode).Msg("failed to record injected decision")
		}
	}
	return injected
}
