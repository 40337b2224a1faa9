package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"cropsense/internal/types"
)

// PredictionRepository provides data access for the agro_predictions table.
// Prediction IDs are deterministic per (location, date), so re-running a
// forecast cycle refreshes rows in place.
type PredictionRepository struct {
	db DBTX
}

// NewPredictionRepository creates a PredictionRepository backed by the given
// database connection (pool or transaction).
func NewPredictionRepository(db DBTX) *PredictionRepository {
	return &PredictionRepository{db: db}
}

const predictionColumns = `a.id, a.location, a.date,
	a.temperature_c, a.humidity_percent, a.precipitation_mm,
	a.evapotranspiration, a.soil_moisture, a.crop_recommendation,
	a.irrigation_advice, a.pest_risk, a.disease_risk, a.yield_score,
	a.planting_advice, a.harvesting_advice, a.alert_refs,
	a.soil, a.climate, a.created_at`

func scanPrediction(row pgx.Row) (*types.AgroClimaticPrediction, error) {
	var p types.AgroClimaticPrediction
	var createdAt time.Time
	err := row.Scan(
		&p.ID,
		&p.Location,
		&p.Date,
		&p.TemperatureC,
		&p.Humidity,
		&p.PrecipitationMM,
		&p.Evapotranspiration,
		&p.SoilMoisture,
		&p.CropRecommendation,
		&p.IrrigationAdvice,
		&p.PestRisk,
		&p.DiseaseRisk,
		&p.YieldScore,
		&p.PlantingAdvice,
		&p.HarvestingAdvice,
		&p.AlertRefs,
		&p.Soil,
		&p.Climate,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert writes a prediction, replacing any existing row for the same
// (location, date).
func (r *PredictionRepository) Upsert(ctx context.Context, p *types.AgroClimaticPrediction) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO agro_predictions (
			id, location, date,
			temperature_c, humidity_percent, precipitation_mm,
			evapotranspiration, soil_moisture, crop_recommendation,
			irrigation_advice, pest_risk, disease_risk, yield_score,
			planting_advice, harvesting_advice, alert_refs,
			soil, climate, created_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16,
			$17, $18, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			temperature_c = EXCLUDED.temperature_c,
			humidity_percent = EXCLUDED.humidity_percent,
			precipitation_mm = EXCLUDED.precipitation_mm,
			evapotranspiration = EXCLUDED.evapotranspiration,
			soil_moisture = EXCLUDED.soil_moisture,
			crop_recommendation = EXCLUDED.crop_recommendation,
			irrigation_advice = EXCLUDED.irrigation_advice,
			pest_risk = EXCLUDED.pest_risk,
			disease_risk = EXCLUDED.disease_risk,
			yield_score = EXCLUDED.yield_score,
			planting_advice = EXCLUDED.planting_advice,
			harvesting_advice = EXCLUDED.harvesting_advice,
			alert_refs = EXCLUDED.alert_refs,
			soil = EXCLUDED.soil,
			climate = EXCLUDED.climate`,
		p.ID, p.Location, p.Date,
		p.TemperatureC, p.Humidity, p.PrecipitationMM,
		p.Evapotranspiration, p.SoilMoisture, p.CropRecommendation,
		p.IrrigationAdvice, p.PestRisk, p.DiseaseRisk, p.YieldScore,
		p.PlantingAdvice, p.HarvestingAdvice, p.AlertRefs,
		p.Soil, p.Climate,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to upsert prediction", err)
	}
	return nil
}

// UpsertBatch writes a forecast run's predictions.
func (r *PredictionRepository) UpsertBatch(ctx context.Context, predictions []types.AgroClimaticPrediction) error {
	for i := range predictions {
		if err := r.Upsert(ctx, &predictions[i]); err != nil {
			return err
		}
	}
	return nil
}

// ListByLocation retrieves predictions for a location with date >= from,
// soonest first.
func (r *PredictionRepository) ListByLocation(ctx context.Context, location string, from time.Time, limit int) ([]types.AgroClimaticPrediction, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+predictionColumns+`
		 FROM agro_predictions a
		 WHERE a.location = $1 AND a.date >= $2
		 ORDER BY a.date ASC
		 LIMIT $3`,
		location, from, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list predictions", err)
	}
	defer rows.Close()

	var results []types.AgroClimaticPrediction
	for rows.Next() {
		p, scanErr := scanPrediction(rows)
		if scanErr != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan prediction row", scanErr)
		}
		results = append(results, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating prediction rows", err)
	}
	return results, nil
}

// GetByLocationAndDate retrieves one day's prediction. Returns
// ErrCodeNotFoundRecord when absent.
func (r *PredictionRepository) GetByLocationAndDate(ctx context.Context, location string, date time.Time) (*types.AgroClimaticPrediction, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+predictionColumns+`
		 FROM agro_predictions a
		 WHERE a.location = $1 AND a.date = $2`,
		location, date,
	)
	p, err := scanPrediction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundRecord, "prediction not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve prediction", err)
	}
	return p, nil
}
