// Package prediction implements the agro-climatic prediction engine. Given a
// location, a start date, and a horizon, it derives per-day indicators (a
// soil-moisture proxy, reference evapotranspiration, pest/disease risk, a
// yield score) from forecasted or historical weather and produces immutable
// AgroClimaticPrediction records with deterministic IDs.
//
// Failure semantics follow per-day and per-indicator isolation: a day with
// no weather data is skipped and reported, never zero-filled; an indicator
// that cannot be computed (missing wind) is left unset while the rest of the
// day's prediction stands. Only total absence of data for the whole range is
// an error.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"cropsense/internal/analysis"
	"cropsense/internal/config"
	"cropsense/internal/types"
)

// DailySource supplies one day of weather for a location: past dates come
// from the observation store, future dates from forecast data. The source
// returns a types.AppError with code data_unavailable when it holds nothing
// for the requested date.
type DailySource interface {
	Daily(ctx context.Context, location string, date time.Time) (*types.WeatherObservation, error)
}

// RangeSource supplies an ordered historical observation series, used by
// AnalyzeHistory.
type RangeSource interface {
	ObservationsRange(ctx context.Context, location string, start, end time.Time) ([]types.WeatherObservation, error)
}

// RangeResult is the outcome of a prediction run. SkippedDates lists the
// days with no weather data; PartialErrors aggregates per-indicator compute
// failures for days that were still produced. Either may be set alongside a
// non-empty Predictions slice.
type RangeResult struct {
	Predictions   []types.AgroClimaticPrediction
	SkippedDates  []time.Time
	PartialErrors error
}

// Engine derives agro-climatic predictions from weather data.
type Engine struct {
	cfg      config.PredictionConfig
	analysis config.AnalysisConfig
	source   DailySource
	history  RangeSource
	logger   *slog.Logger
}

// NewEngine creates an Engine. The analysis config supplies the trend
// dead-band and season months reused by AnalyzeHistory.
func NewEngine(cfg config.PredictionConfig, analysisCfg config.AnalysisConfig, source DailySource, history RangeSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		analysis: analysisCfg,
		source:   source,
		history:  history,
		logger:   logger,
	}
}

// PredictRange derives one AgroClimaticPrediction per day for daysAhead days
// starting at start. The soil-moisture proxy is advanced sequentially from
// the configured initial value, so predictions within a run are ordered by
// date.
//
// Two calls with identical inputs over identical underlying data produce
// byte-identical records: there is no randomness and record IDs are pure
// functions of (location, date).
func (e *Engine) PredictRange(ctx context.Context, location string, start time.Time, daysAhead int) (*RangeResult, error) {
	if daysAhead < 1 {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidDays,
			fmt.Sprintf("daysAhead must be >= 1, got %d", daysAhead), nil)
	}

	result := &RangeResult{}
	var partial *multierror.Error
	soilMoisture := e.cfg.InitialSoilMoisture

	startDay := start.UTC().Truncate(24 * time.Hour)
	for i := 0; i < daysAhead; i++ {
		date := startDay.AddDate(0, 0, i)

		obs, err := e.source.Daily(ctx, location, date)
		if err != nil {
			var appErr *types.AppError
			if errors.As(err, &appErr) && appErr.Code == types.ErrCodeDataUnavailable {
				// Skip the day, never fabricate it.
				result.SkippedDates = append(result.SkippedDates, date)
				continue
			}
			// Source failures also skip the day; the gap is reported so the
			// caller can distinguish a thin result from a complete one.
			e.logger.WarnContext(ctx, "daily weather fetch failed",
				"location", location,
				"date", date.Format("2006-01-02"),
				"error", err,
			)
			result.SkippedDates = append(result.SkippedDates, date)
			partial = multierror.Append(partial, fmt.Errorf("weather for %s: %w", date.Format("2006-01-02"), err))
			continue
		}

		pred, dayErr := e.predictDay(location, date, obs, soilMoisture)
		if dayErr != nil {
			partial = multierror.Append(partial, dayErr)
		}
		soilMoisture = pred.SoilMoisture
		result.Predictions = append(result.Predictions, pred)
	}

	if len(result.Predictions) == 0 {
		return nil, types.NewAppError(types.ErrCodeDataUnavailable,
			fmt.Sprintf("no weather data available for %s over the requested %d day(s)", location, daysAhead),
			partial.ErrorOrNil())
	}

	result.PartialErrors = partial.ErrorOrNil()
	return result, nil
}

// predictDay derives a single day's prediction. The returned error, when
// non-nil, is a partial-compute report; the prediction is still valid.
func (e *Engine) predictDay(location string, date time.Time, obs *types.WeatherObservation, priorMoisture float64) (types.AgroClimaticPrediction, error) {
	var partialErr error

	var et *float64
	if obs.WindSpeedMS != nil {
		v := referenceEvapotranspiration(e.cfg, obs.TemperatureC, obs.Humidity, *obs.WindSpeedMS)
		et = &v
	} else {
		partialErr = types.NewAppError(types.ErrCodePartialCompute,
			fmt.Sprintf("evapotranspiration for %s %s: wind speed missing", location, date.Format("2006-01-02")), nil)
	}

	soil := soilMoistureStep(e.cfg, priorMoisture, obs.PrecipitationMM, et)
	pest := pestRisk(e.cfg, obs.TemperatureC, obs.Humidity)
	disease := diseaseRisk(e.cfg, obs.Humidity)
	yield := yieldScore(e.cfg, soil, obs.TemperatureC, pest, disease)

	heatStress := obs.TemperatureC > e.cfg.CropTempMax
	coldStress := obs.TemperatureC < e.cfg.CropTempMin

	var alertRefs []string
	if heatStress {
		alertRefs = append(alertRefs, string(types.AlertHeat))
	}
	if coldStress {
		alertRefs = append(alertRefs, string(types.AlertCold))
	}
	if disease == types.RiskHigh {
		alertRefs = append(alertRefs, string(types.AlertFungalRisk))
	}

	pred := types.AgroClimaticPrediction{
		ID:              types.PredictionID(location, date),
		Location:        location,
		Date:            date,
		TemperatureC:    obs.TemperatureC,
		Humidity:        obs.Humidity,
		PrecipitationMM: obs.PrecipitationMM,

		Evapotranspiration: et,
		SoilMoisture:       soil,

		CropRecommendation: cropRecommendation(soil, obs.TemperatureC, e.cfg),
		IrrigationAdvice:   irrigationAdvice(soil, obs.PrecipitationMM, et, e.cfg),
		PestRisk:           pest,
		DiseaseRisk:        disease,
		YieldScore:         yield,
		PlantingAdvice:     plantingAdvice(soil, heatStress, coldStress, e.cfg),
		HarvestingAdvice:   harvestingAdvice(obs.PrecipitationMM, obs.Humidity),

		AlertRefs: alertRefs,
		Soil: types.SoilConditions{
			MoistureIndex:     soil,
			WaterBalanceMM:    waterBalance(obs.PrecipitationMM, et),
			EvaporativeDemand: et,
			MoistureDeficit:   soil < e.cfg.SoilMoistureMin,
			WaterloggingRisk:  soil > e.cfg.SoilMoistureMax,
		},
		Climate: types.ClimateIndicators{
			HeatStress:        heatStress,
			ColdStress:        coldStress,
			GrowingDegreeDays: growingDegreeDays(e.cfg, obs.TemperatureC),
			HumidityBand:      humidityBand(obs.Humidity),
		},
	}

	return pred, partialErr
}

// AnalyzeHistory produces the simplified per-metric retrospective summary
// used for longer windows: a half-to-half trend per metric with the same
// dead-band rule the pattern analyzer applies, without anomaly detail.
func (e *Engine) AnalyzeHistory(ctx context.Context, location string, start, end time.Time) ([]types.HistoricalWeatherPattern, error) {
	if start.After(end) {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidRange,
			"history start must not be after end", nil)
	}

	observations, err := e.history.ObservationsRange(ctx, location, start, end)
	if err != nil {
		return nil, err
	}
	if len(observations) < 2 {
		return nil, nil
	}

	season := seasonForSpan(e.analysis.WetSeasonMonths, start, end)
	half := (len(observations) + 1) / 2

	summarize := func(metricName string, value func(types.WeatherObservation) float64) types.HistoricalWeatherPattern {
		firstSum, secondSum := 0.0, 0.0
		total := 0.0
		for i, o := range observations {
			v := value(o)
			total += v
			if i < half {
				firstSum += v
			} else {
				secondSum += v
			}
		}
		firstMean := firstSum / float64(half)
		secondMean := secondSum / float64(len(observations)-half)

		changePct := 0.0
		if firstMean != 0 {
			changePct = (secondMean/firstMean - 1.0) * 100
		}

		return types.HistoricalWeatherPattern{
			Location:    location,
			Metric:      metricName,
			WindowStart: start,
			WindowEnd:   end,
			Trend:       analysis.ClassifyTrend(firstMean, secondMean, e.analysis.TrendDeadBand),
			WindowMean:  total / float64(len(observations)),
			ChangePct:   changePct,
			Season:      season,
		}
	}

	return []types.HistoricalWeatherPattern{
		summarize("temperature", func(o types.WeatherObservation) float64 { return o.TemperatureC }),
		summarize("precipitation", func(o types.WeatherObservation) float64 { return o.PrecipitationMM }),
		summarize("humidity", func(o types.WeatherObservation) float64 { return o.Humidity }),
	}, nil
}

// seasonForSpan mirrors the analyzer's season labelling for the history
// summary.
func seasonForSpan(wetMonths []int, start, end time.Time) types.Season {
	wet := make(map[int]bool, len(wetMonths))
	for _, m := range wetMonths {
		wet[m] = true
	}
	sawWet, sawDry := false, false
	for cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !cursor.After(end); cursor = cursor.AddDate(0, 1, 0) {
		if wet[int(cursor.Month())] {
			sawWet = true
		} else {
			sawDry = true
		}
	}
	switch {
	case sawWet && sawDry:
		return types.SeasonMixed
	case sawWet:
		return types.SeasonWet
	default:
		return types.SeasonDry
	}
}

func waterBalance(precipitationMM float64, et *float64) float64 {
	if et == nil {
		return precipitationMM
	}
	return precipitationMM - *et
}

func cropRecommendation(soilMoisture, tempC float64, cfg config.PredictionConfig) string {
	switch {
	case soilMoisture < cfg.SoilMoistureMin && tempC > cfg.CropTempMax:
		return "conditions favor drought-tolerant crops such as sorghum or millet"
	case soilMoisture < cfg.SoilMoistureMin:
		return "soil moisture is low; favor drought-tolerant varieties or delay planting"
	case soilMoisture > cfg.SoilMoistureMax:
		return "wet soils favor paddy rice or raised-bed vegetables"
	default:
		return "conditions suit maize, beans, and leafy vegetables"
	}
}

func irrigationAdvice(soilMoisture, precipitationMM float64, et *float64, cfg config.PredictionConfig) string {
	demand := 0.0
	if et != nil {
		demand = *et
	}
	switch {
	case soilMoisture < cfg.SoilMoistureMin && precipitationMM == 0:
		return "irrigate today; soil moisture is below the comfortable range and no rain is expected"
	case demand > 5 && precipitationMM < demand:
		return "evaporative demand exceeds expected rainfall; schedule supplemental irrigation"
	case soilMoisture > cfg.SoilMoistureMax:
		return "hold irrigation; soils are near saturation"
	default:
		return "no irrigation needed; monitor soil moisture"
	}
}

func plantingAdvice(soilMoisture float64, heatStress, coldStress bool, cfg config.PredictionConfig) string {
	switch {
	case coldStress:
		return "delay planting until temperatures recover"
	case heatStress:
		return "plant early morning or late afternoon to limit transplant shock"
	case soilMoisture >= cfg.SoilMoistureMin && soilMoisture <= cfg.SoilMoistureMax:
		return "soil moisture is in the favorable range for planting"
	default:
		return "wait for soil moisture to return to the favorable range"
	}
}

func harvestingAdvice(precipitationMM, humidity float64) string {
	switch {
	case precipitationMM > 10:
		return "postpone harvest; rain will compromise drying and storage"
	case humidity > 85:
		return "harvest early in the day and dry produce under cover"
	default:
		return "conditions are suitable for harvest and field drying"
	}
}
