package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cropsense/internal/config"
	"cropsense/internal/types"
)

func testPredictionConfig() config.PredictionConfig {
	return config.PredictionConfig{
		ETBaseCoefficient:     0.08,
		ETWindFactor:          0.536,
		InitialSoilMoisture:   50,
		PrecipGainPerMM:       2.0,
		ETLossPerMM:           3.0,
		HighHumidityThreshold: 80,
		PestTempMin:           20,
		PestTempMax:           32,
		YieldBaseline:         85,
		SoilMoistureMin:       30,
		SoilMoistureMax:       80,
		CropTempMin:           10,
		CropTempMax:           33,
		YieldPenaltyStep:      15,
		GDDBaseTemp:           10,
	}
}

func TestReferenceEvapotranspiration(t *testing.T) {
	cfg := testPredictionConfig()

	// Saturated air produces no evaporative demand.
	assert.Equal(t, 0.0, referenceEvapotranspiration(cfg, 30, 100, 5))

	// Demand grows with wind at fixed temperature and humidity.
	calm := referenceEvapotranspiration(cfg, 25, 50, 0)
	windy := referenceEvapotranspiration(cfg, 25, 50, 10)
	assert.Greater(t, windy, calm)

	// Demand grows with temperature.
	cool := referenceEvapotranspiration(cfg, 15, 50, 5)
	warm := referenceEvapotranspiration(cfg, 35, 50, 5)
	assert.Greater(t, warm, cool)

	// Never negative, even for readings below the offset.
	assert.GreaterOrEqual(t, referenceEvapotranspiration(cfg, -20, 50, 5), 0.0)
}

func TestSoilMoistureStep(t *testing.T) {
	cfg := testPredictionConfig()
	et := 4.0

	// Rain raises, evapotranspiration lowers.
	next := soilMoistureStep(cfg, 50, 10, &et)
	assert.Equal(t, 50+10*2.0-4.0*3.0, next)

	// Clamped at both ends.
	assert.Equal(t, 100.0, soilMoistureStep(cfg, 95, 20, nil))
	heavy := 40.0
	assert.Equal(t, 0.0, soilMoistureStep(cfg, 5, 0, &heavy))

	// Missing evapotranspiration drops the loss term only.
	assert.Equal(t, 70.0, soilMoistureStep(cfg, 50, 10, nil))
}

func TestPestRisk(t *testing.T) {
	cfg := testPredictionConfig()

	assert.Equal(t, types.RiskHigh, pestRisk(cfg, 25, 85))
	assert.Equal(t, types.RiskMedium, pestRisk(cfg, 25, 60))
	assert.Equal(t, types.RiskLow, pestRisk(cfg, 15, 85))
	assert.Equal(t, types.RiskLow, pestRisk(cfg, 35, 85))
}

func TestDiseaseRisk(t *testing.T) {
	cfg := testPredictionConfig()

	assert.Equal(t, types.RiskHigh, diseaseRisk(cfg, 85))
	assert.Equal(t, types.RiskMedium, diseaseRisk(cfg, 75))
	assert.Equal(t, types.RiskLow, diseaseRisk(cfg, 60))
}

func TestYieldScore(t *testing.T) {
	cfg := testPredictionConfig()

	// Everything in range keeps the baseline.
	assert.Equal(t, 85.0, yieldScore(cfg, 50, 25, types.RiskLow, types.RiskLow))

	// One penalty per out-of-range driver, half for high risk.
	assert.Equal(t, 70.0, yieldScore(cfg, 10, 25, types.RiskLow, types.RiskLow))
	assert.Equal(t, 55.0, yieldScore(cfg, 10, 40, types.RiskLow, types.RiskLow))
	assert.Equal(t, 77.5, yieldScore(cfg, 50, 25, types.RiskHigh, types.RiskLow))

	// Never below zero.
	assert.GreaterOrEqual(t, yieldScore(cfg, 0, 50, types.RiskHigh, types.RiskHigh), 0.0)
}

func TestGrowingDegreeDays(t *testing.T) {
	cfg := testPredictionConfig()
	assert.Equal(t, 15.0, growingDegreeDays(cfg, 25))
	assert.Equal(t, 0.0, growingDegreeDays(cfg, 5))
}

func TestHumidityBand(t *testing.T) {
	assert.Equal(t, "dry", humidityBand(30))
	assert.Equal(t, "moderate", humidityBand(55))
	assert.Equal(t, "humid", humidityBand(85))
}
