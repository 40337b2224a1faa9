// Package analysis implements pattern analysis over historical weather
// observation windows. The analyzer scans an ordered series, classifies
// half-to-half trends per metric with a symmetric dead-band, flags
// statistical anomalies, and emits immutable WeatherPattern records with
// deterministic IDs so repeated runs over identical input are idempotent.
package analysis

import (
	"fmt"
	"math"
	"time"

	"cropsense/internal/config"
	"cropsense/internal/types"
)

// metric identifies one analyzed weather variable and how to read it from an
// observation.
type metric struct {
	name    string
	pattern types.PatternType
	unit    string
	value   func(types.WeatherObservation) float64
}

// analyzedMetrics is the fixed set of variables the analyzer classifies.
var analyzedMetrics = []metric{
	{
		name:    "temperature",
		pattern: types.PatternTemperatureTrend,
		unit:    "°C",
		value:   func(o types.WeatherObservation) float64 { return o.TemperatureC },
	},
	{
		name:    "precipitation",
		pattern: types.PatternPrecipitationPattern,
		unit:    "mm",
		value:   func(o types.WeatherObservation) float64 { return o.PrecipitationMM },
	},
	{
		name:    "humidity",
		pattern: types.PatternHumidityPattern,
		unit:    "%",
		value:   func(o types.WeatherObservation) float64 { return o.Humidity },
	},
}

// degenerateStdDev is the standard deviation below which window statistics
// are treated as degenerate and the absolute-deviation fallback applies.
const degenerateStdDev = 1e-9

// Analyzer computes weather patterns from observation windows.
type Analyzer struct {
	cfg config.AnalysisConfig
}

// NewAnalyzer creates an Analyzer with the given tunables.
func NewAnalyzer(cfg config.AnalysisConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze scans the observation window [start, end] for the location and
// returns classified WeatherPattern records.
//
// A metric produces a trend pattern only when its trend is not stable or the
// window holds anomalies for it; quiet metrics emit nothing. When any metric
// holds anomalies, one additional anomaly pattern is emitted carrying one
// indicator string per flagged metric (never per point).
//
// Fewer than two observations yields an empty result: no pattern is
// assertable from a single point. start > end is a validation error.
func (a *Analyzer) Analyze(location string, start, end time.Time, observations []types.WeatherObservation) ([]types.WeatherPattern, error) {
	if start.After(end) {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidRange,
			"window start must not be after window end", nil)
	}
	if len(observations) < 2 {
		return nil, nil
	}

	season := a.seasonLabel(start, end)

	var patterns []types.WeatherPattern
	var anomalyIndicators []string
	totalAnomalies := 0

	for _, m := range analyzedMetrics {
		values := make([]float64, len(observations))
		for i, o := range observations {
			values[i] = m.value(o)
		}

		stats := computeStats(values)
		trend := ClassifyTrend(stats.FirstHalfMean, stats.SecondHalfMean, a.cfg.TrendDeadBand)
		anomalies := a.countAnomalies(values, stats.WindowMean, stats.StdDev)
		stats.AnomalyCount = anomalies
		totalAnomalies += anomalies

		if anomalies > 0 {
			anomalyIndicators = append(anomalyIndicators,
				fmt.Sprintf("%s: %d reading(s) outside expected range", m.name, anomalies))
		}

		if trend == types.TrendStable && anomalies == 0 {
			continue
		}

		severity := a.severity(anomalies, stats.ChangeRatio)
		p := types.WeatherPattern{
			ID:          types.PatternID(location, start, end, m.pattern),
			Location:    location,
			WindowStart: start,
			WindowEnd:   end,
			Type:        m.pattern,
			Description: describeTrend(m.name, m.unit, trend, stats),
			Severity:    severity,
			Trend:       trend,
			Season:      season,
			Indicators:  metricIndicators(m.name, trend, anomalies),
			Statistics:  stats,
			Impacts:     metricImpacts(m.name, trend),
			Suggestions: metricSuggestions(m.name, trend),
		}
		patterns = append(patterns, p)
	}

	if totalAnomalies > 0 {
		stats := types.PatternStatistics{
			AnomalyCount: totalAnomalies,
			SampleCount:  len(observations),
		}
		patterns = append(patterns, types.WeatherPattern{
			ID:          types.PatternID(location, start, end, types.PatternAnomaly),
			Location:    location,
			WindowStart: start,
			WindowEnd:   end,
			Type:        types.PatternAnomaly,
			Description: fmt.Sprintf("%d anomalous reading(s) detected across the window", totalAnomalies),
			Severity:    a.severity(totalAnomalies, 1.0),
			Trend:       types.TrendStable,
			Season:      season,
			Indicators:  anomalyIndicators,
			Statistics:  stats,
			Impacts:     []string{"unusual conditions may stress crops and distort irrigation planning"},
			Suggestions: []string{"verify sensor readings and inspect fields for visible stress"},
		})
	}

	return patterns, nil
}

// ClassifyTrend classifies the movement between two half-window means using
// a symmetric fractional dead-band: increasing when the second mean exceeds
// the first by more than the dead-band fraction, decreasing when it falls
// below by more than the dead-band fraction, stable otherwise. The same rule
// is reused by the prediction engine's retrospective trend reporting.
func ClassifyTrend(firstMean, secondMean, deadBand float64) types.TrendDirection {
	band := deadBand * math.Abs(firstMean)
	switch {
	case secondMean > firstMean+band:
		return types.TrendIncreasing
	case secondMean < firstMean-band:
		return types.TrendDecreasing
	default:
		return types.TrendStable
	}
}

// computeStats fills a PatternStatistics record for a value series: half
// means (split by count, first half gets the extra element on odd lengths),
// window mean, standard deviation, and change ratio.
func computeStats(values []float64) types.PatternStatistics {
	n := len(values)
	half := (n + 1) / 2

	first := mean(values[:half])
	second := mean(values[half:])
	windowMean := mean(values)

	variance := 0.0
	for _, v := range values {
		d := v - windowMean
		variance += d * d
	}
	variance /= float64(n)

	ratio := 0.0
	if first != 0 {
		ratio = second / first
	}

	return types.PatternStatistics{
		FirstHalfMean:  first,
		SecondHalfMean: second,
		ChangeRatio:    ratio,
		WindowMean:     windowMean,
		StdDev:         math.Sqrt(variance),
		Variance:       variance,
		AnomalyCount:   0,
		SampleCount:    n,
	}
}

// countAnomalies counts readings beyond the configured number of standard
// deviations from the window mean. When statistics are degenerate, the
// absolute-deviation fallback applies instead.
func (a *Analyzer) countAnomalies(values []float64, windowMean, stdDev float64) int {
	limit := a.cfg.AnomalyStdDevs * stdDev
	if stdDev < degenerateStdDev {
		limit = a.cfg.AnomalyAbsFallback
	}
	count := 0
	for _, v := range values {
		if math.Abs(v-windowMean) > limit {
			count++
		}
	}
	return count
}

// severity combines anomaly count and trend magnitude into a 0..10 score.
func (a *Analyzer) severity(anomalies int, changeRatio float64) float64 {
	trendMagnitude := math.Abs(changeRatio - 1.0)
	s := a.cfg.SeverityAnomalyWeight*float64(anomalies) + a.cfg.SeverityTrendWeight*trendMagnitude*10.0
	if s < 0 {
		s = 0
	}
	if s > 10 {
		s = 10
	}
	return s
}

// seasonLabel derives the agro-climatic season for the window span from the
// configured wet months. A window touching both wet and dry months is mixed.
func (a *Analyzer) seasonLabel(start, end time.Time) types.Season {
	wet := make(map[int]bool, len(a.cfg.WetSeasonMonths))
	for _, m := range a.cfg.WetSeasonMonths {
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

func describeTrend(name, unit string, trend types.TrendDirection, stats types.PatternStatistics) string {
	switch trend {
	case types.TrendStable:
		return fmt.Sprintf("%s held stable around %.1f%s with anomalous readings present", name, stats.WindowMean, unit)
	default:
		return fmt.Sprintf("%s %s from a mean of %.1f%s to %.1f%s over the window",
			name, trend, stats.FirstHalfMean, unit, stats.SecondHalfMean, unit)
	}
}

func metricIndicators(name string, trend types.TrendDirection, anomalies int) []string {
	indicators := []string{fmt.Sprintf("%s trend: %s", name, trend)}
	if anomalies > 0 {
		indicators = append(indicators, fmt.Sprintf("%s: %d reading(s) outside expected range", name, anomalies))
	}
	return indicators
}

func metricImpacts(name string, trend types.TrendDirection) []string {
	switch {
	case name == "temperature" && trend == types.TrendIncreasing:
		return []string{"rising heat increases crop water demand and heat stress risk"}
	case name == "temperature" && trend == types.TrendDecreasing:
		return []string{"cooling trend slows growth and raises frost exposure"}
	case name == "precipitation" && trend == types.TrendIncreasing:
		return []string{"wetter conditions raise waterlogging and fungal pressure"}
	case name == "precipitation" && trend == types.TrendDecreasing:
		return []string{"drying trend increases irrigation dependency"}
	case name == "humidity" && trend == types.TrendIncreasing:
		return []string{"rising humidity favors fungal disease development"}
	case name == "humidity" && trend == types.TrendDecreasing:
		return []string{"drying air increases evaporative crop stress"}
	default:
		return []string{"conditions shifting outside the recent norm"}
	}
}

func metricSuggestions(name string, trend types.TrendDirection) []string {
	switch {
	case name == "temperature" && trend == types.TrendIncreasing:
		return []string{"increase irrigation frequency", "provide shade for sensitive crops"}
	case name == "temperature" && trend == types.TrendDecreasing:
		return []string{"prepare frost protection for cold-sensitive crops"}
	case name == "precipitation" && trend == types.TrendIncreasing:
		return []string{"check field drainage", "scale back scheduled irrigation"}
	case name == "precipitation" && trend == types.TrendDecreasing:
		return []string{"plan supplemental irrigation", "apply mulch to retain soil moisture"}
	case name == "humidity" && trend == types.TrendIncreasing:
		return []string{"improve canopy airflow", "consider preventive fungicide application"}
	case name == "humidity" && trend == types.TrendDecreasing:
		return []string{"monitor soil moisture more closely"}
	default:
		return []string{"continue routine monitoring"}
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
