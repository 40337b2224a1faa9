package recommend

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsense/internal/types"
)

func testPattern(pt types.PatternType, severity float64) types.WeatherPattern {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)
	return types.WeatherPattern{
		ID:          types.PatternID("Harare", start, end, pt),
		Location:    "Harare",
		WindowStart: start,
		WindowEnd:   end,
		Type:        pt,
		Severity:    severity,
		Trend:       types.TrendIncreasing,
		Suggestions: []string{"increase irrigation frequency"},
	}
}

func TestFromPatterns_CategoryMapping(t *testing.T) {
	g := NewGenerator(clockwork.NewFakeClock())

	tests := []struct {
		pattern  types.PatternType
		category types.RecommendationCategory
	}{
		{types.PatternTemperatureTrend, types.CategoryTemperatureManagement},
		{types.PatternPrecipitationPattern, types.CategoryIrrigation},
		{types.PatternHumidityPattern, types.CategoryHumidityControl},
		{types.PatternAnomaly, types.CategoryGeneral},
	}
	for _, tt := range tests {
		recs := g.FromPatterns([]types.WeatherPattern{testPattern(tt.pattern, 5)})
		require.Len(t, recs, 1)
		assert.Equal(t, tt.category, recs[0].Category)
	}
}

func TestFromPatterns_PriorityFromSeverity(t *testing.T) {
	g := NewGenerator(clockwork.NewFakeClock())

	low := g.FromPatterns([]types.WeatherPattern{testPattern(types.PatternTemperatureTrend, 2)})
	medium := g.FromPatterns([]types.WeatherPattern{testPattern(types.PatternTemperatureTrend, 5)})
	high := g.FromPatterns([]types.WeatherPattern{testPattern(types.PatternTemperatureTrend, 9)})

	assert.Equal(t, types.PriorityLow, low[0].Priority)
	assert.Equal(t, types.PriorityMedium, medium[0].Priority)
	assert.Equal(t, types.PriorityHigh, high[0].Priority)
}

func TestFromPatterns_CarriesPatternContext(t *testing.T) {
	clock := clockwork.NewFakeClock()
	g := NewGenerator(clock)

	p := testPattern(types.PatternHumidityPattern, 6)
	recs := g.FromPatterns([]types.WeatherPattern{p})
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, p.WindowEnd, rec.TargetDate)
	assert.Equal(t, p.Suggestions, rec.Actions)
	assert.Equal(t, types.TrendIncreasing, rec.Conditions.Trend)
	require.NotNil(t, rec.Conditions.Severity)
	assert.Equal(t, 6.0, *rec.Conditions.Severity)
	assert.Equal(t, clock.Now().UTC(), rec.CreatedAt)
	assert.False(t, rec.IsRead)
}

func TestFromPatterns_DeterministicIDs(t *testing.T) {
	g := NewGenerator(clockwork.NewFakeClock())
	p := testPattern(types.PatternTemperatureTrend, 5)

	first := g.FromPatterns([]types.WeatherPattern{p})
	second := g.FromPatterns([]types.WeatherPattern{p})
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestFromPredictions_OnlyHighRiskEmits(t *testing.T) {
	g := NewGenerator(clockwork.NewFakeClock())
	date := time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)

	predictions := []types.AgroClimaticPrediction{
		{
			ID: types.PredictionID("Harare", date), Location: "Harare", Date: date,
			TemperatureC: 26, Humidity: 88, SoilMoisture: 55,
			PestRisk: types.RiskHigh, DiseaseRisk: types.RiskHigh,
		},
		{
			ID: types.PredictionID("Harare", date.AddDate(0, 0, 1)), Location: "Harare",
			Date: date.AddDate(0, 0, 1), PestRisk: types.RiskMedium, DiseaseRisk: types.RiskLow,
		},
	}

	recs := g.FromPredictions(predictions)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, types.CategoryPestControl, rec.Category)
	assert.Equal(t, types.PriorityHigh, rec.Priority)
	assert.Equal(t, date, rec.TargetDate)
	assert.Equal(t, highRiskActions, rec.Actions)
	assert.Equal(t, types.RiskHigh, rec.Conditions.PestRisk)
	require.NotNil(t, rec.Conditions.Humidity)
	assert.Equal(t, 88.0, *rec.Conditions.Humidity)
}
