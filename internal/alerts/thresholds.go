package alerts

import (
	"fmt"
	"time"

	"cropsense/internal/config"
	"cropsense/internal/types"
)

// candidate is a threshold breach before deduplication.
type candidate struct {
	category types.AlertCategory
	severity types.AlertSeverity
	title    string
	message  string
	escalate bool
}

// evaluateThresholds applies the configured threshold table to a single
// observation and returns every band breach. Bands are evaluated
// independently per metric, so one observation may produce several
// candidates at once.
//
// Boundary policy: a value exactly at a threshold routes to the
// lower-severity branch. A temperature of exactly 35.0 is an advisory, not
// a warning; 35.1 is a warning.
func evaluateThresholds(t config.AlertThresholds, obs types.WeatherObservation) []candidate {
	var out []candidate

	// Temperature: heat bands and cold bands are separate categories.
	switch {
	case obs.TemperatureC > t.HeatWarning:
		out = append(out, candidate{
			category: types.AlertHeat,
			severity: types.SeverityWarning,
			title:    "Extreme heat warning",
			message:  fmt.Sprintf("Temperature of %.1f°C exceeds %.0f°C. Crops face heat stress; irrigate early and shade sensitive plants.", obs.TemperatureC, t.HeatWarning),
			escalate: true,
		})
	case obs.TemperatureC > t.HeatAdvisory:
		out = append(out, candidate{
			category: types.AlertHeat,
			severity: types.SeverityAdvisory,
			title:    "High temperature advisory",
			message:  fmt.Sprintf("Temperature of %.1f°C is above the comfortable range. Monitor crop water demand.", obs.TemperatureC),
		})
	case obs.TemperatureC < t.FrostWarning:
		out = append(out, candidate{
			category: types.AlertCold,
			severity: types.SeverityWarning,
			title:    "Frost warning",
			message:  fmt.Sprintf("Temperature of %.1f°C brings frost risk. Protect seedlings and cold-sensitive crops overnight.", obs.TemperatureC),
			escalate: true,
		})
	case obs.TemperatureC < t.ColdAdvisory:
		out = append(out, candidate{
			category: types.AlertCold,
			severity: types.SeverityAdvisory,
			title:    "Cold conditions advisory",
			message:  fmt.Sprintf("Temperature of %.1f°C slows crop growth. Delay planting of warm-season crops.", obs.TemperatureC),
		})
	}

	// Humidity.
	switch {
	case obs.Humidity > t.HumidityHigh:
		out = append(out, candidate{
			category: types.AlertFungalRisk,
			severity: types.SeverityAdvisory,
			title:    "Fungal disease advisory",
			message:  fmt.Sprintf("Humidity of %.0f%% favors fungal disease. Improve airflow and consider preventive treatment.", obs.Humidity),
		})
	case obs.Humidity < t.HumidityLow:
		out = append(out, candidate{
			category: types.AlertDryness,
			severity: types.SeverityAdvisory,
			title:    "Dry conditions advisory",
			message:  fmt.Sprintf("Humidity of %.0f%% is very low. Expect elevated evaporative stress on crops.", obs.Humidity),
		})
	}

	// Precipitation, including the dry-season irrigation reminder.
	switch {
	case obs.PrecipitationMM > t.RainWarning:
		out = append(out, candidate{
			category: types.AlertRainfall,
			severity: types.SeverityWarning,
			title:    "Heavy rain warning",
			message:  fmt.Sprintf("Rainfall of %.1fmm risks waterlogging and erosion. Check drainage and delay field work.", obs.PrecipitationMM),
			escalate: true,
		})
	case obs.PrecipitationMM > t.RainAdvisory:
		out = append(out, candidate{
			category: types.AlertRainfall,
			severity: types.SeverityAdvisory,
			title:    "Rainfall advisory",
			message:  fmt.Sprintf("Rainfall of %.1fmm expected. Scale back scheduled irrigation.", obs.PrecipitationMM),
		})
	case obs.PrecipitationMM == 0 && inDrySeason(t.DrySeasonMonths, obs.Timestamp):
		out = append(out, candidate{
			category: types.AlertIrrigation,
			severity: types.SeverityAdvisory,
			title:    "Irrigation reminder",
			message:  "No rainfall recorded during the dry season. Check soil moisture and irrigate as needed.",
		})
	}

	// Wind, only when the station reported it.
	if obs.WindSpeedMS != nil {
		wind := *obs.WindSpeedMS
		switch {
		case wind > t.WindWarning:
			out = append(out, candidate{
				category: types.AlertWind,
				severity: types.SeverityWarning,
				title:    "High wind warning",
				message:  fmt.Sprintf("Wind of %.1fm/s can damage crops and structures. Secure covers and postpone spraying.", wind),
				escalate: true,
			})
		case wind > t.WindAdvisory:
			out = append(out, candidate{
				category: types.AlertWind,
				severity: types.SeverityAdvisory,
				title:    "Wind advisory",
				message:  fmt.Sprintf("Wind of %.1fm/s expected. Postpone pesticide spraying to avoid drift.", wind),
			})
		}
	}

	// UV index, optional reading.
	if obs.UVIndex != nil {
		uv := *obs.UVIndex
		switch {
		case uv > t.UVWarning:
			out = append(out, candidate{
				category: types.AlertUV,
				severity: types.SeverityWarning,
				title:    "Extreme UV warning",
				message:  fmt.Sprintf("UV index of %.1f is extreme. Limit outdoor field work to early and late hours.", uv),
				escalate: true,
			})
		case uv > t.UVAdvisory:
			out = append(out, candidate{
				category: types.AlertUV,
				severity: types.SeverityAdvisory,
				title:    "High UV advisory",
				message:  fmt.Sprintf("UV index of %.1f is high. Schedule field work outside midday hours.", uv),
			})
		}
	}

	return out
}

// inDrySeason reports whether the observation falls in a configured
// dry-season month.
func inDrySeason(dryMonths []int, ts time.Time) bool {
	month := int(ts.UTC().Month())
	for _, m := range dryMonths {
		if m == month {
			return true
		}
	}
	return false
}
