package db

import (
	"context"

	"cropsense/internal/types"
)

// DedupRepository is the PostgreSQL-backed alert deduplication store. It
// implements the alerts.DedupStore contract so evaluator replicas share one
// view of which (location, category, severity, day) keys have already
// fired.
type DedupRepository struct {
	db DBTX
}

// NewDedupRepository creates a DedupRepository backed by the given database
// connection (pool or transaction).
func NewDedupRepository(db DBTX) *DedupRepository {
	return &DedupRepository{db: db}
}

// Seen reports whether an alert has already been emitted for the key.
func (r *DedupRepository) Seen(ctx context.Context, key types.DedupKey) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM alert_dedup
			WHERE location = $1 AND category = $2 AND severity = $3 AND day = $4
		)`,
		key.Location, key.Category, key.Severity, key.Day,
	).Scan(&exists)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to check alert dedup state", err)
	}
	return exists, nil
}

// MarkEmitted records the key. ON CONFLICT DO NOTHING makes the call safe
// under concurrent evaluators racing on the same key.
func (r *DedupRepository) MarkEmitted(ctx context.Context, key types.DedupKey) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO alert_dedup (location, category, severity, day, emitted_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (location, category, severity, day) DO NOTHING`,
		key.Location, key.Category, key.Severity, key.Day,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to record alert dedup state", err)
	}
	return nil
}

// PruneBefore deletes dedup rows for days earlier than day (YYYY-MM-DD)
// and returns the count removed. Day strings compare lexicographically in
// chronological order.
func (r *DedupRepository) PruneBefore(ctx context.Context, day string) (int, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM alert_dedup WHERE day < $1`,
		day,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to prune alert dedup state", err)
	}
	return int(tag.RowsAffected()), nil
}
