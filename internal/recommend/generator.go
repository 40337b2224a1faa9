// Package recommend maps weather patterns and agro-climatic predictions
// into prioritized, human-readable recommendations. The generator is a pure
// mapping layer: it has no side effects and never talks to the notification
// dispatcher; the caller owns delivery.
package recommend

import (
	"fmt"

	"github.com/jonboulle/clockwork"

	"cropsense/internal/types"
)

// categoryForPattern is the fixed lookup from pattern type to
// recommendation category.
var categoryForPattern = map[types.PatternType]types.RecommendationCategory{
	types.PatternTemperatureTrend:     types.CategoryTemperatureManagement,
	types.PatternPrecipitationPattern: types.CategoryIrrigation,
	types.PatternHumidityPattern:      types.CategoryHumidityControl,
	types.PatternAnomaly:              types.CategoryGeneral,
}

// highRiskActions is the fixed action template attached to every
// high-risk prediction recommendation.
var highRiskActions = []string{
	"scout fields for pest and disease signs within 48 hours",
	"prepare targeted treatment before pressure peaks",
	"avoid overhead irrigation while humidity stays high",
}

// Generator builds recommendations from derived products. The injected
// clock stamps CreatedAt so tests stay deterministic.
type Generator struct {
	clock clockwork.Clock
}

// NewGenerator creates a Generator using the given clock.
func NewGenerator(clock clockwork.Clock) *Generator {
	return &Generator{clock: clock}
}

// FromPatterns maps each pattern to one recommendation. Priority derives
// from the pattern's severity normalized to [0,1]: above 0.7 high, above
// 0.4 medium, otherwise low.
func (g *Generator) FromPatterns(patterns []types.WeatherPattern) []types.Recommendation {
	now := g.clock.Now().UTC()
	recs := make([]types.Recommendation, 0, len(patterns))

	for _, p := range patterns {
		category, ok := categoryForPattern[p.Type]
		if !ok {
			category = types.CategoryGeneral
		}
		severity := p.Severity

		recs = append(recs, types.Recommendation{
			ID:          types.RecommendationID(p.ID, category),
			Title:       patternTitle(p),
			Description: p.Description,
			Category:    category,
			Priority:    priorityForSeverity(severity / 10.0),
			TargetDate:  p.WindowEnd,
			Location:    p.Location,
			Actions:     p.Suggestions,
			Conditions: types.ConditionSnapshot{
				Severity: &severity,
				Trend:    p.Trend,
			},
			CreatedAt: now,
		})
	}

	return recs
}

// FromPredictions emits one recommendation per prediction whose pest or
// disease risk is high. Priority is forced to high; the action list is the
// fixed template, and the specific risk values ride in the condition
// snapshot.
func (g *Generator) FromPredictions(predictions []types.AgroClimaticPrediction) []types.Recommendation {
	now := g.clock.Now().UTC()
	var recs []types.Recommendation

	for _, p := range predictions {
		if p.PestRisk != types.RiskHigh && p.DiseaseRisk != types.RiskHigh {
			continue
		}

		humidity := p.Humidity
		temp := p.TemperatureC
		soil := p.SoilMoisture

		recs = append(recs, types.Recommendation{
			ID:    types.RecommendationID(p.ID, types.CategoryPestControl),
			Title: fmt.Sprintf("Elevated pest/disease pressure on %s", p.Date.Format("Jan 2")),
			Description: fmt.Sprintf(
				"Forecast conditions for %s (%.0f%% humidity, %.1f°C) favor pest and disease development.",
				p.Location, p.Humidity, p.TemperatureC),
			Category:   types.CategoryPestControl,
			Priority:   types.PriorityHigh,
			TargetDate: p.Date,
			Location:   p.Location,
			Actions:    append([]string(nil), highRiskActions...),
			Conditions: types.ConditionSnapshot{
				TemperatureC: &temp,
				Humidity:     &humidity,
				SoilMoisture: &soil,
				PestRisk:     p.PestRisk,
				DiseaseRisk:  p.DiseaseRisk,
			},
			CreatedAt: now,
		})
	}

	return recs
}

// priorityForSeverity buckets a normalized severity into a priority.
func priorityForSeverity(normalized float64) types.Priority {
	switch {
	case normalized > 0.7:
		return types.PriorityHigh
	case normalized > 0.4:
		return types.PriorityMedium
	default:
		return types.PriorityLow
	}
}

func patternTitle(p types.WeatherPattern) string {
	switch p.Type {
	case types.PatternTemperatureTrend:
		return fmt.Sprintf("Temperature %s over the past window", p.Trend)
	case types.PatternPrecipitationPattern:
		return fmt.Sprintf("Rainfall %s over the past window", p.Trend)
	case types.PatternHumidityPattern:
		return fmt.Sprintf("Humidity %s over the past window", p.Trend)
	default:
		return "Unusual weather readings detected"
	}
}
