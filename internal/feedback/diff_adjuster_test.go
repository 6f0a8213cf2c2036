package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
)

type stubDiffRepo struct {
	removals  []domain.RemovalStat
	additions []domain.AdditionStat
	err       error
	calls     int
}

func (s *stubDiffRepo) GetRemovalStats(ctx context.Context, lookbackDays int) ([]domain.RemovalStat, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.removals, nil
}

func (s *stubDiffRepo) GetAdditionStats(ctx context.Context, lookbackDays int) ([]domain.AdditionStat, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.additions, nil
}

func TestRemovalPenalty_Tiers(t *testing.T) {
	repo := &stubDiffRepo{removals: []domain.RemovalStat{
		{ItemCode: "heavy", Removals: 10},
		{ItemCode: "often", Removals: 6},
		{ItemCode: "some", Removals: 3},
		{ItemCode: "rare", Removals: 2},
	}}
	a := NewDiffAdjuster(repo, 14, zerolog.Nop())
	ctx := context.Background()

	assert.Equal(t, 0.3, a.RemovalPenalty(ctx, "heavy"))
	assert.Equal(t, 0.5, a.RemovalPenalty(ctx, "often"))
	assert.Equal(t, 0.7, a.RemovalPenalty(ctx, "some"))
	assert.Equal(t, 1.0, a.RemovalPenalty(ctx, "rare"), "two removals is below the lowest tier")
	assert.Equal(t, 1.0, a.RemovalPenalty(ctx, "unknown"))
}

func TestApplyPenalty(t *testing.T) {
	assert.Equal(t, 7, ApplyPenalty(10, 0.7))
	assert.Equal(t, 5, ApplyPenalty(10, 0.5))
	assert.Equal(t, 1, ApplyPenalty(2, 0.3), "penalty floors at one unit")
	assert.Equal(t, 0, ApplyPenalty(0, 0.3), "zero stays zero")
	assert.Equal(t, 10, ApplyPenalty(10, 1.0), "no penalty is a no-op")
}

func TestFrequentlyAddedItems_FiltersAndSorts(t *testing.T) {
	repo := &stubDiffRepo{additions: []domain.AdditionStat{
		{ItemCode: "a", Additions: 3, AvgQty: 2},
		{ItemCode: "b", Additions: 7, AvgQty: 1.5},
		{ItemCode: "c", Additions: 2, AvgQty: 4},
	}}
	a := NewDiffAdjuster(repo, 14, zerolog.Nop())

	items := a.FrequentlyAddedItems(context.Background())
	assert.Len(t, items, 2, "items below the add-count floor are excluded")
	assert.Equal(t, "b", items[0].ItemCode)
	assert.Equal(t, "a", items[1].ItemCode)
}

func TestDiffAdjuster_LoadFailureIsTerminalAndNeutral(t *testing.T) {
	repo := &stubDiffRepo{err: errors.New("diff table missing")}
	a := NewDiffAdjuster(repo, 14, zerolog.Nop())
	ctx := context.Background()

	assert.Equal(t, 1.0, a.RemovalPenalty(ctx, "heavy"))
	assert.Nil(t, a.FrequentlyAddedItems(ctx))
	a.RemovalPenalty(ctx, "heavy")
	assert.Equal(t, 1, repo.calls, "a failed load is never retried")
}

func TestDiffAdjuster_LoadsExactlyOnce(t *testing.T) {
	repo := &stubDiffRepo{removals: []domain.RemovalStat{{ItemCode: "x", Removals: 3}}}
	a := NewDiffAdjuster(repo, 14, zerolog.Nop())
	ctx := context.Background()

	a.RemovalPenalty(ctx, "x")
	a.FrequentlyAddedItems(ctx)
	a.RemovalPenalty(ctx, "x")
	assert.Equal(t, 1, repo.calls)
}
