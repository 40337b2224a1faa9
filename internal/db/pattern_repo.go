package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"cropsense/internal/types"
)

// PatternRepository provides data access for the weather_patterns table.
// Pattern IDs are deterministic, so repeated analysis of the same window
// upserts rather than duplicating rows.
type PatternRepository struct {
	db DBTX
}

// NewPatternRepository creates a PatternRepository backed by the given
// database connection (pool or transaction).
func NewPatternRepository(db DBTX) *PatternRepository {
	return &PatternRepository{db: db}
}

const patternColumns = `p.id, p.location, p.window_start, p.window_end,
	p.pattern_type, p.description, p.severity, p.trend, p.season,
	p.indicators, p.statistics, p.impacts, p.suggestions, p.created_at`

func scanPattern(row pgx.Row) (*types.WeatherPattern, error) {
	var p types.WeatherPattern
	var createdAt time.Time
	err := row.Scan(
		&p.ID,
		&p.Location,
		&p.WindowStart,
		&p.WindowEnd,
		&p.Type,
		&p.Description,
		&p.Severity,
		&p.Trend,
		&p.Season,
		&p.Indicators,
		&p.Statistics,
		&p.Impacts,
		&p.Suggestions,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert writes a pattern, replacing any existing row with the same ID.
func (r *PatternRepository) Upsert(ctx context.Context, p *types.WeatherPattern) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO weather_patterns (
			id, location, window_start, window_end,
			pattern_type, description, severity, trend, season,
			indicators, statistics, impacts, suggestions, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			description = EXCLUDED.description,
			severity = EXCLUDED.severity,
			trend = EXCLUDED.trend,
			season = EXCLUDED.season,
			indicators = EXCLUDED.indicators,
			statistics = EXCLUDED.statistics,
			impacts = EXCLUDED.impacts,
			suggestions = EXCLUDED.suggestions`,
		p.ID, p.Location, p.WindowStart, p.WindowEnd,
		p.Type, p.Description, p.Severity, p.Trend, p.Season,
		p.Indicators, p.Statistics, p.Impacts, p.Suggestions,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to upsert weather pattern", err)
	}
	return nil
}

// UpsertBatch writes a set of patterns from one analysis cycle.
func (r *PatternRepository) UpsertBatch(ctx context.Context, patterns []types.WeatherPattern) error {
	for i := range patterns {
		if err := r.Upsert(ctx, &patterns[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a single pattern. Returns ErrCodeNotFoundRecord when
// absent.
func (r *PatternRepository) GetByID(ctx context.Context, id string) (*types.WeatherPattern, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+patternColumns+`
		 FROM weather_patterns p
		 WHERE p.id = $1`,
		id,
	)
	p, err := scanPattern(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundRecord, "weather pattern not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve weather pattern", err)
	}
	return p, nil
}

// ListByLocation retrieves patterns for a location whose window overlaps
// [since, now], newest window first.
func (r *PatternRepository) ListByLocation(ctx context.Context, location string, since time.Time, limit int) ([]types.WeatherPattern, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+patternColumns+`
		 FROM weather_patterns p
		 WHERE p.location = $1 AND p.window_end >= $2
		 ORDER BY p.window_end DESC
		 LIMIT $3`,
		location, since, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list weather patterns", err)
	}
	defer rows.Close()

	var results []types.WeatherPattern
	for rows.Next() {
		p, scanErr := scanPattern(rows)
		if scanErr != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan weather pattern row", scanErr)
		}
		results = append(results, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating weather pattern rows", err)
	}
	return results, nil
}
