package tuning

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
)

// correlatedOutcomes builds n outcomes where realized demand tracks the
// recent-mean component, the weekday component carries no signal (constant)
// and the trend component moves against reality.
func correlatedOutcomes(n int) []domain.DecisionOutcome {
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	outcomes := make([]domain.DecisionOutcome, 0, n)
	for i := 0; i < n; i++ {
		realized := float64(1 + i%7)
		outcomes = append(outcomes, domain.DecisionOutcome{
			ItemCode:    "item",
			Date:        date,
			RealizedQty: realized,
			RecentMean:  realized,
			WeekdayMean: 3,
			TrendMean:   10 - realized,
		})
	}
	return outcomes
}

func TestCalibrate_BelowSampleFloorIsNoOp(t *testing.T) {
	outcomes := &fakeOutcomes{outcomes: correlatedOutcomes(10)}
	c := NewCalibrator(outcomes, newTuningStore(t), 50)
	set := params.Defaults()

	entry, err := c.Calibrate(context.Background(), set, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 10, entry.SampleCount)
	assert.Empty(t, entry.Changes)
	assert.Equal(t, 0.5, set.Get(params.WeightRecent), "weights must not move below the floor")
}

func TestCalibrate_ShiftsWeightTowardCorrelatedComponent(t *testing.T) {
	outcomes := &fakeOutcomes{outcomes: correlatedOutcomes(60)}
	store := newTuningStore(t)
	c := NewCalibrator(outcomes, store, 50)
	set := params.Defaults()

	entry, err := c.Calibrate(context.Background(), set, time.Now())
	require.NoError(t, err)

	// Only the recent component correlates positively, so it takes the
	// whole redistribution target; one step moves at most the delta
	// budget at the calibration rate.
	assert.InDelta(t, 0.55, set.Get(params.WeightRecent), 1e-9)
	assert.InDelta(t, 0.27, set.Get(params.WeightWeekday), 1e-9)

	r, w, tr := set.Weights()
	assert.InDelta(t, 1.0, r+w+tr, 1e-9)

	assert.NotEmpty(t, entry.Changes)
	assert.Greater(t, entry.Correlations[params.WeightRecent], 0.9)
	require.Len(t, outcomes.calibrations, 1)

	// The shift was persisted.
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.InDelta(t, 0.55, loaded.Get(params.WeightRecent), 1e-9)
}

func TestCalibrate_NoCorrelationKeepsWeights(t *testing.T) {
	// Every component is constant: zero variance, zero correlation.
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	flat := make([]domain.DecisionOutcome, 60)
	for i := range flat {
		flat[i] = domain.DecisionOutcome{Date: date, RealizedQty: 2, RecentMean: 2, WeekdayMean: 2, TrendMean: 2}
	}

	c := NewCalibrator(&fakeOutcomes{outcomes: flat}, newTuningStore(t), 50)
	set := params.Defaults()

	entry, err := c.Calibrate(context.Background(), set, date)
	require.NoError(t, err)
	assert.Empty(t, entry.Changes)
	assert.Equal(t, 0.5, set.Get(params.WeightRecent))
}

func TestPearson(t *testing.T) {
	assert.InDelta(t, 1.0, pearson([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	assert.InDelta(t, -1.0, pearson([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-9)
	assert.Equal(t, 0.0, pearson([]float64{2, 2, 2}, []float64{1, 2, 3}), "no variance means no correlation")
	assert.Equal(t, 0.0, pearson([]float64{1}, []float64{1}))
}
