package prediction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsense/internal/config"
	"cropsense/internal/types"
)

// stubDailySource serves canned observations keyed by day string.
type stubDailySource struct {
	byDay map[string]*types.WeatherObservation
	errs  map[string]error
	calls []string
}

func (s *stubDailySource) Daily(_ context.Context, location string, date time.Time) (*types.WeatherObservation, error) {
	day := date.Format("2006-01-02")
	s.calls = append(s.calls, day)
	if err, ok := s.errs[day]; ok {
		return nil, err
	}
	if obs, ok := s.byDay[day]; ok {
		return obs, nil
	}
	return nil, types.NewAppError(types.ErrCodeDataUnavailable, "no data for "+day, nil)
}

type stubRangeSource struct {
	observations []types.WeatherObservation
	err          error
}

func (s *stubRangeSource) ObservationsRange(context.Context, string, time.Time, time.Time) ([]types.WeatherObservation, error) {
	return s.observations, s.err
}

func testAnalysisCfg() config.AnalysisConfig {
	return config.AnalysisConfig{
		TrendDeadBand:   0.05,
		WetSeasonMonths: []int{11, 12, 1, 2, 3},
	}
}

func fullObs(location string, date time.Time, temp, humidity, precip, wind float64) *types.WeatherObservation {
	return &types.WeatherObservation{
		Location:        location,
		Timestamp:       date,
		TemperatureC:    temp,
		Humidity:        humidity,
		PrecipitationMM: precip,
		WindSpeedMS:     &wind,
	}
}

func newTestEngine(source DailySource, history RangeSource) *Engine {
	return NewEngine(testPredictionConfig(), testAnalysisCfg(), source, history, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPredictRange_RejectsNonPositiveHorizon(t *testing.T) {
	e := newTestEngine(&stubDailySource{}, &stubRangeSource{})

	_, err := e.PredictRange(context.Background(), "Harare", time.Now(), 0)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidDays, appErr.Code)
}

func TestPredictRange_ProducesOnePredictionPerDay(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &stubDailySource{byDay: map[string]*types.WeatherObservation{}}
	for i := 0; i < 3; i++ {
		d := start.AddDate(0, 0, i)
		src.byDay[d.Format("2006-01-02")] = fullObs("Harare", d, 25, 60, 2, 3)
	}

	e := newTestEngine(src, &stubRangeSource{})
	result, err := e.PredictRange(context.Background(), "Harare", start, 3)
	require.NoError(t, err)

	require.Len(t, result.Predictions, 3)
	assert.Empty(t, result.SkippedDates)
	assert.NoError(t, result.PartialErrors)
	for i, p := range result.Predictions {
		assert.Equal(t, start.AddDate(0, 0, i), p.Date)
		assert.Equal(t, "Harare", p.Location)
		require.NotNil(t, p.Evapotranspiration)
	}
}

func TestPredictRange_MissingDayIsSkippedNotFabricated(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &stubDailySource{byDay: map[string]*types.WeatherObservation{}}
	for _, i := range []int{0, 2} {
		d := start.AddDate(0, 0, i)
		src.byDay[d.Format("2006-01-02")] = fullObs("Harare", d, 25, 60, 2, 3)
	}

	e := newTestEngine(src, &stubRangeSource{})
	result, err := e.PredictRange(context.Background(), "Harare", start, 3)
	require.NoError(t, err)

	assert.Len(t, result.Predictions, 2)
	require.Len(t, result.SkippedDates, 1)
	assert.Equal(t, start.AddDate(0, 0, 1), result.SkippedDates[0])
	assert.NoError(t, result.PartialErrors, "an absent day is a gap, not an error")
}

func TestPredictRange_SourceFailureSkipsDayAndReports(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &stubDailySource{
		byDay: map[string]*types.WeatherObservation{
			start.Format("2006-01-02"): fullObs("Harare", start, 25, 60, 2, 3),
		},
		errs: map[string]error{
			start.AddDate(0, 0, 1).Format("2006-01-02"): errors.New("connection reset"),
		},
	}

	e := newTestEngine(src, &stubRangeSource{})
	result, err := e.PredictRange(context.Background(), "Harare", start, 2)
	require.NoError(t, err)

	assert.Len(t, result.Predictions, 1)
	assert.Len(t, result.SkippedDates, 1)
	require.Error(t, result.PartialErrors)
	assert.Contains(t, result.PartialErrors.Error(), "connection reset")
}

func TestPredictRange_NoDataAtAllIsAnError(t *testing.T) {
	e := newTestEngine(&stubDailySource{}, &stubRangeSource{})

	_, err := e.PredictRange(context.Background(),
		"Harare", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 5)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeDataUnavailable, appErr.Code)
}

func TestPredictRange_MissingWindLeavesEvapotranspirationUnset(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	noWind := &types.WeatherObservation{
		Location:        "Harare",
		Timestamp:       start,
		TemperatureC:    25,
		Humidity:        60,
		PrecipitationMM: 2,
	}
	src := &stubDailySource{byDay: map[string]*types.WeatherObservation{
		start.Format("2006-01-02"): noWind,
	}}

	e := newTestEngine(src, &stubRangeSource{})
	result, err := e.PredictRange(context.Background(), "Harare", start, 1)
	require.NoError(t, err)

	require.Len(t, result.Predictions, 1)
	p := result.Predictions[0]
	assert.Nil(t, p.Evapotranspiration, "indicator stays unset, never zero-filled")
	assert.NotZero(t, p.SoilMoisture, "the rest of the day's prediction stands")
	require.Error(t, result.PartialErrors)

	var appErr *types.AppError
	require.ErrorAs(t, result.PartialErrors, &appErr)
	assert.Equal(t, types.ErrCodePartialCompute, appErr.Code)
}

func TestPredictRange_SoilMoistureAdvancesSequentially(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &stubDailySource{byDay: map[string]*types.WeatherObservation{}}
	// Rainless days: moisture only ever falls via evapotranspiration.
	for i := 0; i < 3; i++ {
		d := start.AddDate(0, 0, i)
		src.byDay[d.Format("2006-01-02")] = fullObs("Harare", d, 25, 70, 0, 1)
	}

	e := newTestEngine(src, &stubRangeSource{})
	result, err := e.PredictRange(context.Background(), "Harare", start, 3)
	require.NoError(t, err)
	require.Len(t, result.Predictions, 3)

	for i := 1; i < 3; i++ {
		assert.Less(t, result.Predictions[i].SoilMoisture, result.Predictions[i-1].SoilMoisture)
	}
}

func TestPredictRange_Deterministic(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &stubDailySource{byDay: map[string]*types.WeatherObservation{
		start.Format("2006-01-02"): fullObs("Harare", start, 25, 60, 2, 3),
	}}

	e := newTestEngine(src, &stubRangeSource{})
	first, err := e.PredictRange(context.Background(), "Harare", start, 1)
	require.NoError(t, err)
	second, err := e.PredictRange(context.Background(), "Harare", start, 1)
	require.NoError(t, err)

	assert.Equal(t, first.Predictions, second.Predictions)
	assert.Equal(t, first.Predictions[0].ID, second.Predictions[0].ID)
}

func TestAnalyzeHistory_SummarizesEachMetric(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)

	var observations []types.WeatherObservation
	for i := 0; i < 14; i++ {
		temp := 20.0
		if i >= 7 {
			temp = 26.0
		}
		observations = append(observations, types.WeatherObservation{
			Location:        "Harare",
			Timestamp:       start.AddDate(0, 0, i),
			TemperatureC:    temp,
			Humidity:        60,
			PrecipitationMM: 2,
		})
	}

	e := newTestEngine(&stubDailySource{}, &stubRangeSource{observations: observations})
	history, err := e.AnalyzeHistory(context.Background(), "Harare", start, end)
	require.NoError(t, err)
	require.Len(t, history, 3)

	byMetric := map[string]types.HistoricalWeatherPattern{}
	for _, h := range history {
		byMetric[h.Metric] = h
	}
	assert.Equal(t, types.TrendIncreasing, byMetric["temperature"].Trend)
	assert.Equal(t, types.TrendStable, byMetric["humidity"].Trend)
	assert.Equal(t, types.TrendStable, byMetric["precipitation"].Trend)
	assert.Equal(t, types.SeasonDry, byMetric["temperature"].Season)
}
