package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_ClampsToDeltaBudget(t *testing.T) {
	set := Defaults()

	// weight_recent moves at most 0.05 per step.
	applied, err := set.Apply(WeightRecent, 0.7)
	require.NoError(t, err)
	assert.Equal(t, 0.55, applied)
	assert.Equal(t, 0.55, set.Get(WeightRecent))
}

func TestApply_ClampsToHardBounds(t *testing.T) {
	set := Defaults()

	// sufficient_exposure_days: value 3.0, delta 0.5, min 2.0. A proposal
	// far below the floor stops at the delta edge first.
	applied, err := set.Apply(SufficientExposureDays, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 2.5, applied)

	// Walk it down; the hard floor eventually wins over the delta window.
	_, err = set.Apply(SufficientExposureDays, 0)
	require.NoError(t, err)
	applied, err = set.Apply(SufficientExposureDays, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, applied)
}

func TestApply_RejectsLockedParams(t *testing.T) {
	set := Defaults()

	_, err := set.Apply(WeightTrend, 0.4)
	assert.Error(t, err)
	assert.Equal(t, 0.2, set.Get(WeightTrend), "locked value must not move")

	_, err = set.Apply(CalibrationRate, 0.2)
	assert.Error(t, err)
}

func TestApply_RejectsUnknownParam(t *testing.T) {
	set := Defaults()
	_, err := set.Apply("no_such_param", 1)
	assert.Error(t, err)
}

func TestApply_WeightPairCannotDriveTrendNegative(t *testing.T) {
	set := Defaults()

	// Walk both weights toward their ceilings one clamped step at a time,
	// the way weekly tuning would. The derived trend weight must stay
	// inside its own bounds at every step.
	for i := 0; i < 20; i++ {
		_, err := set.Apply(WeightRecent, 1.0)
		require.NoError(t, err)
		_, err = set.Apply(WeightWeekday, 1.0)
		require.NoError(t, err)

		r, w, tr := set.Weights()
		assert.GreaterOrEqual(t, tr, set.Spec(WeightTrend).Min)
		assert.InDelta(t, 1.0, r+w+tr, 1e-9)
	}
}

func TestWeights_AlwaysSumToOne(t *testing.T) {
	set := Defaults()

	_, err := set.Apply(WeightRecent, 0.55)
	require.NoError(t, err)
	r, w, tr := set.Weights()
	assert.InDelta(t, 1.0, r+w+tr, 1e-9)

	set.SetWeights(0.9, 0.05)
	r, w, tr = set.Weights()
	assert.InDelta(t, 1.0, r+w+tr, 1e-9)
}

func TestRestore_IgnoresDeltaBudget(t *testing.T) {
	set := Defaults()

	// A rollback snapshot can be far from the current value; only the
	// hard bounds apply.
	set.Restore(map[string]float64{
		SafetyCoefficient: 1.9,
		WeightRecent:      0.7,
		WeightWeekday:     0.1,
	})
	assert.Equal(t, 1.9, set.Get(SafetyCoefficient))
	assert.Equal(t, 0.7, set.Get(WeightRecent))
	assert.InDelta(t, 0.2, set.Get(WeightTrend), 1e-9)
}

func TestRestore_ClampsToHardBounds(t *testing.T) {
	set := Defaults()
	set.Restore(map[string]float64{SafetyCoefficient: 5.0, UrgentExposureDays: 0.0})
	assert.Equal(t, 2.0, set.Get(SafetyCoefficient))
	assert.Equal(t, 0.5, set.Get(UrgentExposureDays))
}

func TestFromSpecs_BackfillsNewParams(t *testing.T) {
	// A snapshot written before safety_days_long_life existed still loads,
	// with the missing parameter at its default.
	snapshot := []Spec{
		{Name: WeightRecent, Value: 0.6, Default: 0.5, Min: 0.1, Max: 0.8, MaxDelta: 0.05},
		{Name: WeightWeekday, Value: 0.25, Default: 0.3, Min: 0.1, Max: 0.8, MaxDelta: 0.05},
	}

	set := FromSpecs(snapshot)
	assert.Equal(t, 0.6, set.Get(WeightRecent))
	assert.Equal(t, 3.0, set.Get(SafetyDaysLongLife))
	assert.InDelta(t, 0.15, set.Get(WeightTrend), 1e-9, "trend must be re-derived after load")
}

func TestUnlocked_ExcludesDerivedAndLocked(t *testing.T) {
	set := Defaults()
	for _, sp := range set.Unlocked() {
		assert.False(t, sp.Locked)
		assert.NotEqual(t, WeightTrend, sp.Name)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	set := Defaults()
	clone := set.Clone()

	_, err := clone.Apply(SafetyCoefficient, 1.2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, set.Get(SafetyCoefficient))
}
