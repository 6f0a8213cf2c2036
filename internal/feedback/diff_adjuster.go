package feedback

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/repository"
)

// loadState tracks the one-shot cache load. A failed load is terminal for
// the process lifetime so a broken repository cannot cause a retry storm.
type loadState int

const (
	stateNotLoaded loadState = iota
	stateLoadedOK
	stateLoadedFailed
)

// DiffAdjuster turns historized system-vs-user order differences into a
// removal penalty per item and a list of items the user keeps adding by
// hand. Aggregates load lazily, once.
type DiffAdjuster struct {
	repo         repository.DiffRepository
	lookbackDays int
	minAddCount  int
	log          zerolog.Logger

	mu        sync.Mutex
	state     loadState
	removals  map[string]int
	additions map[string]domain.AdditionStat
}

// NewDiffAdjuster builds an adjuster over the given diff repository.
func NewDiffAdjuster(repo repository.DiffRepository, lookbackDays int, log zerolog.Logger) *DiffAdjuster {
	if lookbackDays <= 0 {
		lookbackDays = 14
	}
	return &DiffAdjuster{
		repo:         repo,
		lookbackDays: lookbackDays,
		minAddCount:  3,
		log:          log.With().Str("component", "feedback.diff").Logger(),
	}
}

// ensureLoaded performs the one-time aggregate load. Both outcomes are
// terminal: a failure leaves the adjuster neutral forever.
func (a *DiffAdjuster) ensureLoaded(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != stateNotLoaded {
		return
	}

	removals, err := a.repo.GetRemovalStats(ctx, a.lookbackDays)
	if err != nil {
		a.state = stateLoadedFailed
		a.log.Warn().Err(err).Msg("removal stats load failed, diff feedback disabled for this process")
		return
	}
	additions, err := a.repo.GetAdditionStats(ctx, a.lookbackDays)
	if err != nil {
		a.state = stateLoadedFailed
		a.log.Warn().Err(err).Msg("addition stats load failed, diff feedback disabled for this process")
		return
	}

	a.removals = make(map[string]int, len(removals))
	for _, r := range removals {
		a.removals[r.ItemCode] = r.Removals
	}
	a.additions = make(map[string]domain.AdditionStat, len(additions))
	for _, add := range additions {
		a.additions[add.ItemCode] = add
	}
	a.state = stateLoadedOK
	a.log.Info().
		Int("removal_items", len(a.removals)).
		Int("addition_items", len(a.additions)).
		Int("lookback_days", a.lookbackDays).
		Msg("diff feedback aggregates loaded")
}

// RemovalPenalty returns the multiplicative factor in (0,1] for an item the
// user has repeatedly removed from recommended orders. Tiers: 10+ removals
// 0.3, 6+ removals 0.5, 3+ removals 0.7, otherwise no penalty.
func (a *DiffAdjuster) RemovalPenalty(ctx context.Context, itemCode string) float64 {
	a.ensureLoaded(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != stateLoadedOK {
		return 1.0
	}
	switch n := a.removals[itemCode]; {
	case n >= 10:
		return 0.3
	case n >= 6:
		return 0.5
	case n >= 3:
		return 0.7
	default:
		return 1.0
	}
}

// ApplyPenalty applies a removal penalty to an order quantity with a floor
// of one unit; a zero quantity stays zero.
func ApplyPenalty(orderQty int, penalty float64) int {
	if orderQty <= 0 || penalty >= 1.0 {
		return orderQty
	}
	adjusted := int(math.Floor(float64(orderQty) * penalty))
	if adjusted < 1 {
		adjusted = 1
	}
	return adjusted
}

// FrequentlyAddedItems lists items the user added at least minAddCount times
// in the lookback window, each with its average added quantity. These become
// order candidates even when prediction would skip them.
func (a *DiffAdjuster) FrequentlyAddedItems(ctx context.Context) []domain.FreqAddedItem {
	a.ensureLoaded(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != stateLoadedOK {
		return nil
	}
	items := make([]domain.FreqAddedItem, 0)
	for code, add := range a.additions {
		if add.Additions < a.minAddCount {
			continue
		}
		items = append(items, domain.FreqAddedItem{
			ItemCode: code,
			Count:    add.Additions,
			AvgQty:   add.AvgQty,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Count > items[j].Count })
	return items
}
