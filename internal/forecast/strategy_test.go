package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
)

func TestRegistry_DispatchAndFallback(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, "lunchbox", r.ForCategory("010").Name())
	assert.Equal(t, "alcohol", r.ForCategory("031").Name())
	assert.Equal(t, "general", r.ForCategory("999").Name(), "unknown categories fall back")
	assert.Equal(t, "general", r.ForCategory("").Name())
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	r := NewRegistry()
	r.Register("010", &GeneralStrategy{})
	assert.Equal(t, "general", r.ForCategory("010").Name())
}

func TestWeekdayProfile_DampsRatiosTowardOne(t *testing.T) {
	// Two weeks where Saturday sells double the weekday rate.
	var history []domain.SalesRecord
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) // Sunday
	for i := 0; i < 14; i++ {
		d := start.AddDate(0, 0, i)
		qty := 2.0
		if d.Weekday() == time.Saturday {
			qty = 4.0
		}
		history = append(history, domain.SalesRecord{Date: d, Qty: qty})
	}

	raw := weekdayProfile(history, 1.0)
	damped := weekdayProfile(history, 0.5)

	assert.Greater(t, raw[time.Saturday], damped[time.Saturday])
	assert.Greater(t, damped[time.Saturday], 1.0)
	assert.Less(t, damped[time.Monday], 1.0)
}

func TestWeekdayProfile_EmptyHistoryIsFlat(t *testing.T) {
	profile := weekdayProfile(nil, 0.5)
	for _, c := range profile {
		assert.Equal(t, 1.0, c)
	}
}

func TestSafetyDays_FollowShelfLifeBuckets(t *testing.T) {
	set := params.Defaults()

	_, fresh := (&LunchboxStrategy{}).Coefficients(nil, set)
	_, standard := (&DairyStrategy{}).Coefficients(nil, set)
	_, longLife := (&HouseholdStrategy{}).Coefficients(nil, set)

	assert.Less(t, fresh, standard)
	assert.Less(t, standard, longLife)
}

func TestRecentLift_IsClamped(t *testing.T) {
	var history []domain.SalesRecord
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 14; i++ {
		qty := 1.0
		if i >= 7 {
			qty = 10.0 // explosive growth in the recent half
		}
		history = append(history, domain.SalesRecord{Date: start.AddDate(0, 0, i), Qty: qty})
	}

	assert.Equal(t, 2.0, recentLift(history, 7), "lift is capped at 2x")
	assert.Equal(t, 1.0, recentLift(history[:3], 7), "window too small to split")
}
