package tuning

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/repository"
	"github.com/leesangmin4533/bgf-dashboard-sub000/pkg/logger"
)

// Calibrator is the daily weight-adjustment loop. It compares yesterday's
// blend components against realized sales and nudges the recent/weekday
// weights toward whichever component tracked reality best. Steps are small
// (calibration_rate) and bounded by each spec's delta budget, so a single
// bad day cannot swing the blend.
type Calibrator struct {
	outcomes   repository.OutcomeRepository
	store      *params.Store
	minSamples int
	log        zerolog.Logger
}

func NewCalibrator(outcomes repository.OutcomeRepository, store *params.Store, minSamples int) *Calibrator {
	if minSamples <= 0 {
		minSamples = 50
	}
	return &Calibrator{
		outcomes:   outcomes,
		store:      store,
		minSamples: minSamples,
		log:        logger.Component("calibrator"),
	}
}

// Calibrate runs one pass for the given outcome date, mutating set in place
// and persisting it when anything moved. Below the sample floor it is a
// no-op: the entry reports the sample count and carries no changes.
func (c *Calibrator) Calibrate(ctx context.Context, set *params.Set, date time.Time) (*domain.CalibrationEntry, error) {
	outcomes, err := c.outcomes.GetDecisionOutcomes(ctx, date)
	if err != nil {
		return nil, err
	}

	entry := &domain.CalibrationEntry{
		Date:         date,
		SampleCount:  len(outcomes),
		Changes:      map[string]float64{},
		Correlations: map[string]float64{},
	}

	if len(outcomes) < c.minSamples {
		c.log.Info().
			Int("samples", len(outcomes)).
			Int("floor", c.minSamples).
			Msg("too few samples, skipping calibration")
		return entry, nil
	}

	realized := make([]float64, len(outcomes))
	recent := make([]float64, len(outcomes))
	weekday := make([]float64, len(outcomes))
	trend := make([]float64, len(outcomes))
	for i, o := range outcomes {
		realized[i] = o.RealizedQty
		recent[i] = o.RecentMean
		weekday[i] = o.WeekdayMean
		trend[i] = o.TrendMean
	}

	corrRecent := pearson(recent, realized)
	corrWeekday := pearson(weekday, realized)
	corrTrend := pearson(trend, realized)
	entry.Correlations[params.WeightRecent] = corrRecent
	entry.Correlations[params.WeightWeekday] = corrWeekday
	entry.Correlations[params.WeightTrend] = corrTrend

	// Negative correlation means the component moved against reality;
	// it gets no share of the redistribution rather than a negative one.
	scoreRecent := math.Max(corrRecent, 0)
	scoreWeekday := math.Max(corrWeekday, 0)
	scoreTrend := math.Max(corrTrend, 0)
	total := scoreRecent + scoreWeekday + scoreTrend
	if total == 0 {
		c.log.Info().Msg("no component correlates with realized sales, keeping weights")
		return entry, nil
	}

	rate := set.Get(params.CalibrationRate)
	curRecent, curWeekday, curTrend := set.Weights()

	propRecent := curRecent + rate*(scoreRecent/total-curRecent)
	propWeekday := curWeekday + rate*(scoreWeekday/total-curWeekday)
	set.SetWeights(propRecent, propWeekday)

	newRecent, newWeekday, newTrend := set.Weights()
	if newRecent != curRecent {
		entry.Changes[params.WeightRecent] = newRecent - curRecent
	}
	if newWeekday != curWeekday {
		entry.Changes[params.WeightWeekday] = newWeekday - curWeekday
	}
	if newTrend != curTrend {
		entry.Changes[params.WeightTrend] = newTrend - curTrend
	}

	if len(entry.Changes) > 0 {
		if err := c.store.Save(ctx, set); err != nil {
			return nil, err
		}
	}
	if err := c.outcomes.AppendCalibration(ctx, *entry); err != nil {
		c.log.Warn().Err(err).Msg("failed to append calibration entry")
	}

	c.log.Info().
		Int("samples", len(outcomes)).
		Float64("weight_recent", newRecent).
		Float64("weight_weekday", newWeekday).
		Float64("weight_trend", newTrend).
		Msg("calibration applied")

	return entry, nil
}

// pearson computes the sample correlation coefficient, 0 when either series
// has no variance.
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	if n < 2 {
		return 0
	}
	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range x {
		dx, dy := x[i]-meanX, y[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}
