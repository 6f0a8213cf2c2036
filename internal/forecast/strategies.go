package forecast

import (
	"time"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/params"
)

// historyMonth returns the month of the newest history record, falling back
// to the current month when no history exists.
func historyMonth(history []domain.SalesRecord) time.Month {
	if len(history) == 0 {
		return time.Now().Month()
	}
	return history[len(history)-1].Date.Month()
}

// LunchboxStrategy covers same-day fresh food with the shortest shelf life.
// Weekday shape dominates (commuter traffic), safety stays minimal because
// unsold units are discarded.
type LunchboxStrategy struct{}

func (LunchboxStrategy) Name() string { return "lunchbox" }

func (LunchboxStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	return weekdayProfile(history, 0.9), set.Get(params.SafetyDaysFresh) * 0.8
}

// RiceBallStrategy behaves like lunchboxes but tolerates slightly more
// buffer; demand is steadier across weekdays.
type RiceBallStrategy struct{}

func (RiceBallStrategy) Name() string { return "rice_ball" }

func (RiceBallStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	return weekdayProfile(history, 0.7), set.Get(params.SafetyDaysFresh)
}

// SandwichStrategy is weekday-commuter driven with a weekend dip.
type SandwichStrategy struct{}

func (SandwichStrategy) Name() string { return "sandwich" }

func (SandwichStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	coefs := weekdayProfile(history, 0.8)
	coefs[time.Saturday] *= 0.9
	coefs[time.Sunday] *= 0.85
	return coefs, set.Get(params.SafetyDaysFresh)
}

// FreshBakeryStrategy peaks in the morning weekday window.
type FreshBakeryStrategy struct{}

func (FreshBakeryStrategy) Name() string { return "fresh_bakery" }

func (FreshBakeryStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	return weekdayProfile(history, 0.8), set.Get(params.SafetyDaysFresh)
}

// ReadyMealStrategy covers chilled ready meals with one extra day of life.
type ReadyMealStrategy struct{}

func (ReadyMealStrategy) Name() string { return "ready_meal" }

func (ReadyMealStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	return weekdayProfile(history, 0.6), set.Get(params.SafetyDaysFresh) * 1.2
}

// DairyStrategy uses the standard shelf-life bucket with a mild weekday
// shape.
type DairyStrategy struct{}

func (DairyStrategy) Name() string { return "dairy" }

func (DairyStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	return weekdayProfile(history, 0.5), set.Get(params.SafetyDaysStandard)
}

// BeverageStrategy adds a summer lift on top of a mild weekday shape.
type BeverageStrategy struct{}

func (BeverageStrategy) Name() string { return "beverage" }

func (BeverageStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	coefs := weekdayProfile(history, 0.4)
	switch historyMonth(history) {
	case time.June, time.July, time.August:
		for i := range coefs {
			coefs[i] *= 1.15
		}
	case time.December, time.January, time.February:
		for i := range coefs {
			coefs[i] *= 0.95
		}
	}
	return coefs, set.Get(params.SafetyDaysStandard)
}

// AlcoholStrategy amplifies the Friday/Saturday peak.
type AlcoholStrategy struct{}

func (AlcoholStrategy) Name() string { return "alcohol" }

func (AlcoholStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	coefs := weekdayProfile(history, 0.7)
	coefs[time.Friday] *= 1.2
	coefs[time.Saturday] *= 1.25
	return coefs, set.Get(params.SafetyDaysStandard)
}

// InstantNoodleStrategy is a long-life staple with a small winter lift.
type InstantNoodleStrategy struct{}

func (InstantNoodleStrategy) Name() string { return "instant_noodle" }

func (InstantNoodleStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	coefs := weekdayProfile(history, 0.3)
	switch historyMonth(history) {
	case time.November, time.December, time.January, time.February:
		for i := range coefs {
			coefs[i] *= 1.1
		}
	}
	return coefs, set.Get(params.SafetyDaysLongLife)
}

// SnackStrategy is nearly flat; turnover decides the buffer, not weekday.
type SnackStrategy struct{}

func (SnackStrategy) Name() string { return "snack" }

func (SnackStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	return weekdayProfile(history, 0.3), set.Get(params.SafetyDaysLongLife)
}

// FrozenStrategy holds a deeper buffer; freezer capacity smooths demand.
type FrozenStrategy struct{}

func (FrozenStrategy) Name() string { return "frozen" }

func (FrozenStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	return weekdayProfile(history, 0.4), set.Get(params.SafetyDaysLongLife)
}

// IceCreamStrategy is the most seasonal variant in the table.
type IceCreamStrategy struct{}

func (IceCreamStrategy) Name() string { return "ice_cream" }

func (IceCreamStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	coefs := weekdayProfile(history, 0.5)
	switch historyMonth(history) {
	case time.June, time.July, time.August:
		for i := range coefs {
			coefs[i] *= 1.4
		}
	case time.December, time.January, time.February:
		for i := range coefs {
			coefs[i] *= 0.7
		}
	}
	return coefs, set.Get(params.SafetyDaysStandard)
}

// HouseholdStrategy covers non-food long-life goods with flat demand.
type HouseholdStrategy struct{}

func (HouseholdStrategy) Name() string { return "household" }

func (HouseholdStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	return [7]float64{1, 1, 1, 1, 1, 1, 1}, set.Get(params.SafetyDaysLongLife)
}

// CigaretteStrategy sees very steady demand; buffer matters more than shape
// because a stockout sends the customer to the store next door.
type CigaretteStrategy struct{}

func (CigaretteStrategy) Name() string { return "cigarette" }

func (CigaretteStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	return weekdayProfile(history, 0.2), set.Get(params.SafetyDaysStandard) * 1.3
}

// SeasonalStrategy follows a month-driven index for items that rotate with
// the season (umbrellas, hand warmers, festival goods).
type SeasonalStrategy struct{}

func (SeasonalStrategy) Name() string { return "seasonal" }

func (SeasonalStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	coefs := weekdayProfile(history, 0.4)
	lift := recentLift(history, 7)
	for i := range coefs {
		coefs[i] *= lift
	}
	return coefs, set.Get(params.SafetyDaysStandard)
}

// PromotionStrategy chases the recent lift hard so a running 2+1 event is
// reflected the day after it starts.
type PromotionStrategy struct{}

func (PromotionStrategy) Name() string { return "promotion" }

func (PromotionStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	coefs := weekdayProfile(history, 0.5)
	lift := recentLift(history, 5)
	for i := range coefs {
		coefs[i] *= lift
	}
	return coefs, set.Get(params.SafetyDaysFresh)
}

// GeneralStrategy is the fallback for unmapped categories.
type GeneralStrategy struct{}

func (GeneralStrategy) Name() string { return "general" }

func (GeneralStrategy) Coefficients(history []domain.SalesRecord, set *params.Set) ([7]float64, float64) {
	return weekdayProfile(history, 0.5), set.Get(params.SafetyDaysStandard)
}
