package prediction

import (
	"cropsense/internal/config"
	"cropsense/internal/types"
)

// referenceEvapotranspiration estimates daily reference-crop water loss in
// mm from temperature, relative humidity, and wind speed. The form is a
// simplified Penman-style aerodynamic estimate: demand scales with warmth
// and wind and shrinks as the air saturates. The coefficients are
// deployment configuration, not agronomic truth; the exact formula is
// documented here so a deployment can recalibrate against local reference
// data.
//
//	ET0 = base * (T + 17.8) * (1 + windFactor*W) * (1 - RH/100)
func referenceEvapotranspiration(cfg config.PredictionConfig, tempC, humidity, windMS float64) float64 {
	dryness := 1.0 - humidity/100.0
	if dryness < 0 {
		dryness = 0
	}
	et := cfg.ETBaseCoefficient * (tempC + 17.8) * (1.0 + cfg.ETWindFactor*windMS) * dryness
	if et < 0 {
		return 0
	}
	return et
}

// soilMoistureStep advances the soil-moisture proxy one day: prior moisture
// plus precipitation gain minus evapotranspiration loss, clamped to [0,100].
// When evapotranspiration could not be computed the loss term is zero; the
// proxy is still advanced from precipitation alone.
func soilMoistureStep(cfg config.PredictionConfig, prior, precipitationMM float64, et *float64) float64 {
	next := prior + precipitationMM*cfg.PrecipGainPerMM
	if et != nil {
		next -= *et * cfg.ETLossPerMM
	}
	return clamp(next, 0, 100)
}

// pestRisk grades pest pressure: high inside the pest-favorable temperature
// band under high humidity, medium when only the temperature band matches.
func pestRisk(cfg config.PredictionConfig, tempC, humidity float64) types.RiskLevel {
	inBand := tempC >= cfg.PestTempMin && tempC <= cfg.PestTempMax
	switch {
	case inBand && humidity > cfg.HighHumidityThreshold:
		return types.RiskHigh
	case inBand:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}

// diseaseRisk grades fungal/bacterial pressure, which is driven primarily by
// sustained humidity.
func diseaseRisk(cfg config.PredictionConfig, humidity float64) types.RiskLevel {
	switch {
	case humidity > cfg.HighHumidityThreshold:
		return types.RiskHigh
	case humidity > cfg.HighHumidityThreshold-10:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}

// yieldScore degrades the configured baseline when soil moisture or
// temperature leave crop-appropriate bounds, with a half-step penalty for
// high pest or disease pressure. Clamped to [0,100].
func yieldScore(cfg config.PredictionConfig, soilMoisture, tempC float64, pest, disease types.RiskLevel) float64 {
	score := cfg.YieldBaseline
	if soilMoisture < cfg.SoilMoistureMin || soilMoisture > cfg.SoilMoistureMax {
		score -= cfg.YieldPenaltyStep
	}
	if tempC < cfg.CropTempMin || tempC > cfg.CropTempMax {
		score -= cfg.YieldPenaltyStep
	}
	if pest == types.RiskHigh || disease == types.RiskHigh {
		score -= cfg.YieldPenaltyStep / 2
	}
	return clamp(score, 0, 100)
}

// growingDegreeDays accumulates thermal time above the configured base
// temperature for a single day.
func growingDegreeDays(cfg config.PredictionConfig, tempC float64) float64 {
	gdd := tempC - cfg.GDDBaseTemp
	if gdd < 0 {
		return 0
	}
	return gdd
}

// humidityBand labels relative humidity for the climate indicator snapshot.
func humidityBand(humidity float64) string {
	switch {
	case humidity < 40:
		return "dry"
	case humidity < 70:
		return "moderate"
	default:
		return "humid"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
