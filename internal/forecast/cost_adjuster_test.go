package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
)

func TestMultiplier_GridCorners(t *testing.T) {
	a := NewCostAdjuster(DefaultCostAdjusterConfig())

	tests := []struct {
		name string
		item domain.Item
		want float64
	}{
		{"high margin fast mover pushed", domain.Item{Margin: 0.40, TurnoverDays: 5}, 1.20},
		{"low margin slow mover pulled", domain.Item{Margin: 0.05, TurnoverDays: 30}, 0.80},
		{"mid margin normal turnover neutral", domain.Item{Margin: 0.20, TurnoverDays: 14}, 1.00},
		{"unknown turnover treated as normal", domain.Item{Margin: 0.20, TurnoverDays: 0}, 1.00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Multiplier(tt.item))
		})
	}
}

func TestBias_OnlyCornersVote(t *testing.T) {
	a := NewCostAdjuster(DefaultCostAdjusterConfig())

	assert.Equal(t, BiasSoftenSkip, a.Bias(domain.Item{Margin: 0.40, TurnoverDays: 5}))
	assert.Equal(t, BiasHardenSkip, a.Bias(domain.Item{Margin: 0.05, TurnoverDays: 30}))
	assert.Equal(t, BiasNeutral, a.Bias(domain.Item{Margin: 0.20, TurnoverDays: 14}))
	assert.Equal(t, BiasNeutral, a.Bias(domain.Item{Margin: 0.40, TurnoverDays: 30}))
}
