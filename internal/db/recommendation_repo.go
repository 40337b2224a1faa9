package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"cropsense/internal/types"
)

// RecommendationRepository provides data access for the recommendations
// table. is_read is the only consumer-owned field: upserts from inference
// cycles never overwrite it.
type RecommendationRepository struct {
	db DBTX
}

// NewRecommendationRepository creates a RecommendationRepository backed by
// the given database connection (pool or transaction).
func NewRecommendationRepository(db DBTX) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

const recColumns = `r.id, r.title, r.description, r.category, r.priority,
	r.target_date, r.location, r.crop_type, r.actions, r.conditions,
	r.is_read, r.created_at`

func scanRecommendation(row pgx.Row) (*types.Recommendation, error) {
	var rec types.Recommendation
	var cropType *string
	err := row.Scan(
		&rec.ID,
		&rec.Title,
		&rec.Description,
		&rec.Category,
		&rec.Priority,
		&rec.TargetDate,
		&rec.Location,
		&cropType,
		&rec.Actions,
		&rec.Conditions,
		&rec.IsRead,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cropType != nil {
		rec.CropType = *cropType
	}
	return &rec, nil
}

// Upsert writes a recommendation. On conflict the content fields are
// refreshed but is_read keeps its stored value.
func (r *RecommendationRepository) Upsert(ctx context.Context, rec *types.Recommendation) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO recommendations (
			id, title, description, category, priority,
			target_date, location, crop_type, actions, conditions,
			is_read, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			FALSE, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			priority = EXCLUDED.priority,
			target_date = EXCLUDED.target_date,
			actions = EXCLUDED.actions,
			conditions = EXCLUDED.conditions`,
		rec.ID, rec.Title, rec.Description, rec.Category, rec.Priority,
		rec.TargetDate, rec.Location, nilIfEmpty(rec.CropType), rec.Actions, rec.Conditions,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to upsert recommendation", err)
	}
	return nil
}

// UpsertBatch writes a cycle's recommendations.
func (r *RecommendationRepository) UpsertBatch(ctx context.Context, recs []types.Recommendation) error {
	for i := range recs {
		if err := r.Upsert(ctx, &recs[i]); err != nil {
			return err
		}
	}
	return nil
}

// ListByLocation retrieves recommendations for a location, unread first,
// then highest priority, then newest.
func (r *RecommendationRepository) ListByLocation(ctx context.Context, location string, includeRead bool, limit int) ([]types.Recommendation, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + recColumns + `
		 FROM recommendations r
		 WHERE r.location = $1`
	if !includeRead {
		query += ` AND r.is_read = FALSE`
	}
	query += `
		 ORDER BY r.is_read ASC,
			CASE r.priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END,
			r.created_at DESC
		 LIMIT $2`

	rows, err := r.db.Query(ctx, query, location, limit)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list recommendations", err)
	}
	defer rows.Close()

	var results []types.Recommendation
	for rows.Next() {
		rec, scanErr := scanRecommendation(rows)
		if scanErr != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan recommendation row", scanErr)
		}
		results = append(results, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating recommendation rows", err)
	}
	return results, nil
}

// MarkRead flips is_read for one recommendation. Returns
// ErrCodeNotFoundRecord when the ID does not exist.
func (r *RecommendationRepository) MarkRead(ctx context.Context, id string, isRead bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE recommendations SET is_read = $1 WHERE id = $2`,
		isRead, id,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update recommendation read state", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundRecord, "recommendation not found", nil)
	}
	return nil
}

// DeleteOlderThan removes stale recommendations, returning the count.
func (r *RecommendationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM recommendations WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to delete stale recommendations", err)
	}
	return tag.RowsAffected(), nil
}

// GetByID retrieves a single recommendation.
func (r *RecommendationRepository) GetByID(ctx context.Context, id string) (*types.Recommendation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+recColumns+`
		 FROM recommendations r
		 WHERE r.id = $1`,
		id,
	)
	rec, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundRecord, "recommendation not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve recommendation", err)
	}
	return rec, nil
}

// nilIfEmpty maps empty strings to NULL for nullable text columns.
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
