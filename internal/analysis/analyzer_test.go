package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsense/internal/config"
	"cropsense/internal/types"
)

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		TrendDeadBand:         0.05,
		AnomalyStdDevs:        2.0,
		AnomalyAbsFallback:    5.0,
		WetSeasonMonths:       []int{11, 12, 1, 2, 3},
		SeverityAnomalyWeight: 1.5,
		SeverityTrendWeight:   4.0,
	}
}

func makeObs(location string, day int, temp, humidity, precip float64) types.WeatherObservation {
	return types.WeatherObservation{
		Location:        location,
		Timestamp:       time.Date(2026, 6, 1+day, 12, 0, 0, 0, time.UTC),
		TemperatureC:    temp,
		Humidity:        humidity,
		PrecipitationMM: precip,
	}
}

func TestClassifyTrend_DeadBand(t *testing.T) {
	tests := []struct {
		name   string
		first  float64
		second float64
		want   types.TrendDirection
	}{
		{"within band is stable", 100, 104, types.TrendStable},
		{"exactly at band is stable", 100, 105, types.TrendStable},
		{"beyond band is increasing", 100, 106, types.TrendIncreasing},
		{"below band is decreasing", 100, 94, types.TrendDecreasing},
		{"negative means use magnitude", -10, -11, types.TrendDecreasing},
		{"zero first mean with movement", 0, 1, types.TrendIncreasing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTrend(tt.first, tt.second, 0.05)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyze_RejectsInvertedWindow(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())
	start := time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := a.Analyze("Harare", start, end, []types.WeatherObservation{
		makeObs("Harare", 0, 25, 60, 0),
		makeObs("Harare", 1, 25, 60, 0),
	})
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidRange, appErr.Code)
}

func TestAnalyze_TooFewObservations(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)

	patterns, err := a.Analyze("Harare", start, end, []types.WeatherObservation{
		makeObs("Harare", 0, 25, 60, 0),
	})
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestAnalyze_QuietWindowEmitsNothing(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 6, 0, 0, 0, 0, time.UTC)

	var obs []types.WeatherObservation
	for day := 0; day < 6; day++ {
		obs = append(obs, makeObs("Harare", day, 22, 60, 2))
	}

	patterns, err := a.Analyze("Harare", start, end, obs)
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestAnalyze_RisingTemperatureEmitsTrendPattern(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 6, 0, 0, 0, 0, time.UTC)

	// Temperature steps from 20 to 25 between halves; humidity and
	// precipitation stay flat.
	var obs []types.WeatherObservation
	for day := 0; day < 6; day++ {
		temp := 20.0
		if day >= 3 {
			temp = 25.0
		}
		obs = append(obs, makeObs("Harare", day, temp, 60, 2))
	}

	patterns, err := a.Analyze("Harare", start, end, obs)
	require.NoError(t, err)
	require.Len(t, patterns, 1)

	p := patterns[0]
	assert.Equal(t, types.PatternTemperatureTrend, p.Type)
	assert.Equal(t, types.TrendIncreasing, p.Trend)
	assert.Equal(t, types.SeasonDry, p.Season)
	assert.Equal(t, 20.0, p.Statistics.FirstHalfMean)
	assert.Equal(t, 25.0, p.Statistics.SecondHalfMean)
	assert.Equal(t, 6, p.Statistics.SampleCount)
	assert.GreaterOrEqual(t, p.Severity, 0.0)
	assert.LessOrEqual(t, p.Severity, 10.0)
	assert.NotEmpty(t, p.Impacts)
	assert.NotEmpty(t, p.Suggestions)
}

func TestAnalyze_DryingFortnightEmitsPrecipitationPattern(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)

	// Daily rainfall drops from 10mm to 2mm between halves of a two-week
	// window; temperature and humidity stay flat.
	var obs []types.WeatherObservation
	for day := 0; day < 14; day++ {
		precip := 10.0
		if day >= 7 {
			precip = 2.0
		}
		obs = append(obs, makeObs("Harare", day, 22, 60, precip))
	}

	patterns, err := a.Analyze("Harare", start, end, obs)
	require.NoError(t, err)
	require.Len(t, patterns, 1)

	p := patterns[0]
	assert.Equal(t, types.PatternPrecipitationPattern, p.Type)
	assert.Equal(t, types.TrendDecreasing, p.Trend)
	assert.Equal(t, 10.0, p.Statistics.FirstHalfMean)
	assert.Equal(t, 2.0, p.Statistics.SecondHalfMean)
	assert.Equal(t, 14, p.Statistics.SampleCount)
}

func TestAnalyze_WettingFortnightEmitsIncreasingPrecipitation(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)

	// Daily rainfall climbs from 2mm to 20mm between halves.
	var obs []types.WeatherObservation
	for day := 0; day < 14; day++ {
		precip := 2.0
		if day >= 7 {
			precip = 20.0
		}
		obs = append(obs, makeObs("Harare", day, 22, 60, precip))
	}

	patterns, err := a.Analyze("Harare", start, end, obs)
	require.NoError(t, err)
	require.Len(t, patterns, 1)

	p := patterns[0]
	assert.Equal(t, types.PatternPrecipitationPattern, p.Type)
	assert.Equal(t, types.TrendIncreasing, p.Trend)
	assert.Equal(t, 2.0, p.Statistics.FirstHalfMean)
	assert.Equal(t, 20.0, p.Statistics.SecondHalfMean)
}

func TestAnalyze_AnomalyProducesAnomalyPattern(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)

	// Nine readings at 20°C and one spike to 40°C. The spike sits beyond
	// two standard deviations of the window mean.
	var obs []types.WeatherObservation
	for day := 0; day < 9; day++ {
		obs = append(obs, makeObs("Harare", day, 20, 60, 2))
	}
	obs = append(obs, makeObs("Harare", 9, 40, 60, 2))

	patterns, err := a.Analyze("Harare", start, end, obs)
	require.NoError(t, err)

	var anomaly *types.WeatherPattern
	for i := range patterns {
		if patterns[i].Type == types.PatternAnomaly {
			anomaly = &patterns[i]
		}
	}
	require.NotNil(t, anomaly, "expected an anomaly pattern")
	assert.Equal(t, 1, anomaly.Statistics.AnomalyCount)
	assert.Len(t, anomaly.Indicators, 1, "one indicator per flagged metric, not per point")
}

func TestAnalyze_Idempotent(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 6, 0, 0, 0, 0, time.UTC)

	var obs []types.WeatherObservation
	for day := 0; day < 6; day++ {
		obs = append(obs, makeObs("Harare", day, float64(20+day), 60, 2))
	}

	first, err := a.Analyze("Harare", start, end, obs)
	require.NoError(t, err)
	second, err := a.Analyze("Harare", start, end, obs)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
	assert.Equal(t, first, second)
}

func TestSeasonLabel(t *testing.T) {
	a := NewAnalyzer(testAnalysisConfig())

	wet := a.seasonLabel(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, types.SeasonWet, wet)

	dry := a.seasonLabel(
		time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, types.SeasonDry, dry)

	mixed := a.seasonLabel(
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, types.SeasonMixed, mixed)
}
